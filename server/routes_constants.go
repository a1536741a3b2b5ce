package server

// Route path constants
const (
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	RouteAPI = "/api"

	// Auth
	RouteSession       = "/session"
	RouteSignIn        = "/signin"
	RouteSignOut       = "/signout"
	RouteRegister      = "/register"
	RouteRefresh       = "/refresh"
	RouteResetPassword = "/reset-password"

	// Tenants
	RouteTenants       = "/tenants"
	RouteCurrentTenant = "/tenants/current"
	RouteTenantContext = "/tenant-context"
	RouteTenantUsers   = "/tenants/{tenant_id}/users"
)
