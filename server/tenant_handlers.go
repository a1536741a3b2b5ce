package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-tenant-console/tenants"
)

type setCurrentTenantRequest struct {
	TenantID string `json:"tenant_id"`
}

type tenantsView struct {
	CurrentTenantID string           `json:"current_tenant_id"`
	Tenants         []tenants.Tenant `json:"tenants"`
}

// TenantsHandler lists the known tenants. ?sync=true reloads them from the
// backend first.
func (s *Server) TenantsHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("sync") == "true" {
		if _, err := s.auth.SyncTenants(r.Context()); err != nil {
			writeMappedError(w, r, "sync_tenants", err)
			return
		}
	}
	tc := s.auth.TenantContext()
	writeSuccess(w, http.StatusOK, tenantsView{
		CurrentTenantID: tc.CurrentTenant.ID,
		Tenants:         s.auth.Tenants(),
	})
}

func (s *Server) SetCurrentTenantHandler(w http.ResponseWriter, r *http.Request) {
	var req setCurrentTenantRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, r, "set_current_tenant", err)
		return
	}
	if req.TenantID == "" {
		writeValidationError(w, r, "set_current_tenant", errors.New("tenant_id is required"))
		return
	}
	if !s.auth.SetCurrentTenant(r.Context(), req.TenantID) {
		writeError(w, http.StatusNotFound, "UNKNOWN_TENANT", "tenant is not in the known tenant list")
		return
	}
	writeSuccess(w, http.StatusOK, s.auth.TenantContext())
}

func (s *Server) TenantContextHandler(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, s.auth.TenantContext())
}

func (s *Server) TenantUsersHandler(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenant_id")
	profiles, err := s.auth.TenantService().TenantUsers(r.Context(), tenantID)
	if err != nil {
		writeMappedError(w, r, "tenant_users", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"users": profiles})
}
