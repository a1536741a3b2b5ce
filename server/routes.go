package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	r := s.router
	r.Use(RequestIDMiddleware)
	r.Use(s.RecoverMiddleware)
	r.Use(s.LoggingMiddleware)
	r.Use(FrameSecurityMiddleware)

	s.get(r, "", RouteHealth, s.HealthHandler)
	s.register("GET", RouteMetrics)
	r.Method(http.MethodGet, RouteMetrics, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route(RouteAPI, func(r chi.Router) {
		r.Use(s.CorsMiddleware)
		r.Use(NoStoreMiddleware)
		r.Use(CompressionMiddleware)

		s.get(r, RouteAPI, RouteSession, s.SessionHandler)
		s.post(r, RouteAPI, RouteSignIn, s.SignInHandler)
		s.post(r, RouteAPI, RouteSignOut, s.SignOutHandler)
		s.post(r, RouteAPI, RouteRegister, s.RegisterHandler)
		s.post(r, RouteAPI, RouteRefresh, s.RefreshHandler)
		s.post(r, RouteAPI, RouteResetPassword, s.ResetPasswordHandler)

		s.get(r, RouteAPI, RouteTenants, s.TenantsHandler)
		s.put(r, RouteAPI, RouteCurrentTenant, s.SetCurrentTenantHandler)
		s.get(r, RouteAPI, RouteTenantContext, s.TenantContextHandler)

		r.Group(func(r chi.Router) {
			r.Use(s.RequireSession)
			s.get(r, RouteAPI, RouteTenantUsers, s.TenantUsersHandler)
		})
	})
}

func (s *Server) register(method, pattern string) {
	s.routes = append(s.routes, method+" "+pattern)
}

func (s *Server) get(r chi.Router, prefix, pattern string, h http.HandlerFunc) {
	s.register(http.MethodGet, prefix+pattern)
	r.Get(pattern, h)
}

func (s *Server) post(r chi.Router, prefix, pattern string, h http.HandlerFunc) {
	s.register(http.MethodPost, prefix+pattern)
	r.Post(pattern, h)
}

func (s *Server) put(r chi.Router, prefix, pattern string, h http.HandlerFunc) {
	s.register(http.MethodPut, prefix+pattern)
	r.Put(pattern, h)
}
