package server

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// RequireSession rejects requests while signed out. An expired access token
// is refreshed once before the request is let through.
func (s *Server) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.IsAuthenticated() {
			writeError(w, http.StatusUnauthorized, "NO_SESSION", "sign in first")
			return
		}
		if s.auth.IsSessionExpired() {
			result := s.auth.RefreshToken(r.Context())
			if !result.Success {
				log.Warn().Err(result.Error).Str("request_id", requestIDFromContext(r.Context())).Msg("Session refresh before request failed")
				writeError(w, http.StatusUnauthorized, "NO_SESSION", "session expired")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
