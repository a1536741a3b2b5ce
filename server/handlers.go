package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-tenant-console/auth"
	"github.com/jrsteele09/go-tenant-console/sessions"
)

type signInRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type resetPasswordRequest struct {
	Email string `json:"email"`
}

// SessionView is the API rendering of the orchestrator state. Tokens never
// leave the process.
type SessionView struct {
	Authenticated bool           `json:"authenticated"`
	Loading       bool           `json:"loading"`
	Expired       bool           `json:"expired"`
	ExpiresAt     int64          `json:"expires_at,omitempty"`
	User          *sessions.User `json:"user,omitempty"`
	TenantID      string         `json:"tenant_id,omitempty"`
	Error         string         `json:"error,omitempty"`
}

func (s *Server) sessionView() SessionView {
	state := s.auth.Snapshot()
	view := SessionView{
		Authenticated: state.IsAuthenticated(),
		Loading:       state.IsLoading,
		Expired:       s.auth.IsSessionExpired(),
		User:          state.User,
		TenantID:      state.UserTenantID(),
	}
	if state.Session != nil {
		view.ExpiresAt = state.Session.ExpiresAt
	}
	if state.Error != nil {
		view.Error = state.Error.Error()
	}
	return view
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) SessionHandler(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, s.sessionView())
}

func (s *Server) SignInHandler(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, r, "signin", err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeValidationError(w, r, "signin", errors.New("email and password are required"))
		return
	}
	result := s.auth.SignIn(r.Context(), req.Email, req.Password, req.RememberMe)
	if !result.Success {
		writeMappedError(w, r, "signin", result.Error)
		return
	}
	writeSuccess(w, http.StatusOK, s.sessionView())
}

func (s *Server) SignOutHandler(w http.ResponseWriter, r *http.Request) {
	result := s.auth.SignOut(r.Context())
	if !result.Success {
		writeMappedError(w, r, "signout", result.Error)
		return
	}
	writeSuccess(w, http.StatusOK, s.sessionView())
}

func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterParams
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, r, "register", err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" || strings.TrimSpace(req.TenantName) == "" {
		writeValidationError(w, r, "register", errors.New("email, password and tenant_name are required"))
		return
	}
	result := s.auth.Register(r.Context(), req)
	if !result.Success {
		writeMappedError(w, r, "register", result.Error)
		return
	}
	writeMessage(w, http.StatusCreated, result.Message, map[string]any{
		"tenant":  result.Data.Tenant,
		"user":    result.Data.User,
		"session": s.sessionView(),
	})
}

func (s *Server) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	result := s.auth.RefreshToken(r.Context())
	if !result.Success {
		writeMappedError(w, r, "refresh", result.Error)
		return
	}
	writeSuccess(w, http.StatusOK, s.sessionView())
}

func (s *Server) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, r, "reset_password", err)
		return
	}
	result := s.auth.ResetPasswordForEmail(r.Context(), req.Email)
	if !result.Success {
		writeMappedError(w, r, "reset_password", result.Error)
		return
	}
	writeMessage(w, http.StatusOK, result.Message, nil)
}
