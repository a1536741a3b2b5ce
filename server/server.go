package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-tenant-console/auth"
	"github.com/jrsteele09/go-tenant-console/internal/config"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Config is the part of the console configuration the API needs.
type Config interface {
	config.EnvConfig
	config.CorsConfig
}

// Server is the local JSON API in front of the auth orchestrator.
type Server struct {
	env      string
	router   chi.Router
	routes   []string
	config   Config
	auth     *auth.Orchestrator
	gatherer prometheus.Gatherer
}

type Option func(*Server)

// WithGatherer exposes gatherer on /metrics. Without it the default registry is used.
func WithGatherer(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

func New(cfg Config, orchestrator *auth.Orchestrator, options ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[server.New] config is required")
	}
	if orchestrator == nil {
		return nil, errors.New("[server.New] auth orchestrator is required")
	}

	s := &Server{
		env:      cfg.GetEnv(),
		router:   chi.NewRouter(),
		config:   cfg,
		auth:     orchestrator,
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Routes lists the registered "METHOD /path" patterns.
func (s *Server) Routes() []string {
	return append([]string{}, s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}
