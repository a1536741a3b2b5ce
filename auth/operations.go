package auth

import (
	"context"
	"strings"

	"github.com/jrsteele09/go-tenant-console/identity"
	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
	"github.com/jrsteele09/go-tenant-console/sessions"
	"github.com/jrsteele09/go-tenant-console/tenants"
	"github.com/pkg/errors"
)

const (
	MessagePasswordReset     = "Password reset email sent"
	MessageConfirmationSent  = "Registration successful, check your email to confirm your account"
	MessageRegistrationReady = "Registration successful"
)

// RegisterParams onboard a new tenant together with its first admin.
type RegisterParams struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	TenantName string `json:"tenant_name"`
}

// RegisterData is what a successful registration produced. Session is nil
// while the email address awaits confirmation.
type RegisterData struct {
	Tenant  *tenants.Tenant   `json:"tenant"`
	User    *sessions.User    `json:"user"`
	Session *sessions.Session `json:"session,omitempty"`
}

// Initialize restores the backend's current session and starts the standing
// subscription to auth events. When the backend cannot be reached the local
// state is reset and the returned Disposer does nothing.
func (o *Orchestrator) Initialize(ctx context.Context) Disposer {
	done := o.metrics.Start("initialize")
	epoch := o.begin()
	defer o.end()

	client, err := o.deps.Identity.Client()
	if err != nil {
		o.logger.Err(err).Msg("Initialize: no identity client")
		o.recordError(err)
		o.signedOut(ctx)
		done(err)
		return func() {}
	}

	s, err := client.GetSession(ctx)
	if err != nil {
		o.logger.Err(err).Msg("Initialize: failed to fetch session")
		o.recordError(err)
		o.signedOut(ctx)
		done(err)
		return func() {}
	}

	if s == nil || s.User == nil {
		o.signedOut(ctx)
	} else if o.signedIn(ctx, epoch, client, s, s.User) {
		o.syncTenants(ctx, epoch, client)
	}
	o.subscribe(client)
	done(nil)
	return Disposer(o.dispose)
}

// SignIn authenticates with email and password. rememberMe keeps the session
// across restarts; otherwise it lasts for this process only.
func (o *Orchestrator) SignIn(ctx context.Context, email, password string, rememberMe bool) (result Result[*identity.AuthResponse]) {
	done := o.metrics.Start("signIn")
	defer func() { done(result.Error) }()
	epoch := o.begin()
	defer o.end()

	client, err := o.deps.Identity.Client()
	if err != nil {
		return failedAs[*identity.AuthResponse](o, err)
	}
	resp, err := client.SignInWithPassword(ctx, identity.Credentials{
		Email:    strings.TrimSpace(email),
		Password: password,
		Persist:  rememberMe,
	})
	if err != nil {
		o.logger.Warn().Err(err).Str("email", email).Msg("Sign in failed")
		return failedAs[*identity.AuthResponse](o, err)
	}
	if resp == nil || resp.Session == nil {
		return failedAs[*identity.AuthResponse](o, &apperrors.AuthError{Op: "signIn", Message: "sign in returned no session", Err: apperrors.ErrMissingSession})
	}
	user := resp.User
	if user == nil {
		user = resp.Session.User
	}
	if user == nil {
		return failedAs[*identity.AuthResponse](o, &apperrors.AuthError{Op: "signIn", Message: "sign in returned no user", Err: apperrors.ErrMissingUser})
	}

	if !o.signedIn(ctx, epoch, client, resp.Session, user) {
		return failedAs[*identity.AuthResponse](o, ErrSuperseded)
	}
	o.syncTenants(ctx, epoch, client)
	return succeed(resp, "")
}

// SignOut ends this device's session only. On failure the local state is
// left as it was. On success the shared client is discarded so the next
// sign-in starts from a fresh one.
func (o *Orchestrator) SignOut(ctx context.Context) (result Result[struct{}]) {
	done := o.metrics.Start("signOut")
	defer func() { done(result.Error) }()
	o.begin()
	defer o.end()

	client, err := o.deps.Identity.Client()
	if err != nil {
		return failedAs[struct{}](o, err)
	}
	if err := client.SignOut(ctx, identity.ScopeLocal); err != nil {
		o.logger.Warn().Err(err).Msg("Sign out failed")
		return failedAs[struct{}](o, err)
	}

	o.discard(ctx)
	o.deps.Identity.Reset()
	return succeed(struct{}{}, "")
}

// Register creates the tenant, then signs up its admin. When sign-up fails
// the tenant is deleted again; if that delete fails too, both errors are
// returned as a CompensationFailure.
func (o *Orchestrator) Register(ctx context.Context, params RegisterParams) (result Result[*RegisterData]) {
	done := o.metrics.Start("register")
	defer func() { done(result.Error) }()
	epoch := o.begin()
	defer o.end()

	client, err := o.deps.Identity.Client()
	if err != nil {
		return failedAs[*RegisterData](o, err)
	}

	tenant, err := client.Tenants().Create(ctx, &tenants.Tenant{Name: strings.TrimSpace(params.TenantName)})
	if err != nil {
		o.logger.Warn().Err(err).Str("tenant_name", params.TenantName).Msg("Register: tenant creation failed")
		return failedAs[*RegisterData](o, err)
	}

	resp, err := client.SignUp(ctx, identity.SignUpParams{
		Email:    strings.TrimSpace(params.Email),
		Password: params.Password,
		Data: map[string]any{
			sessions.MetaTenantID: tenant.ID,
			sessions.MetaRole:     string(tenants.RoleAdmin),
		},
	})
	if err == nil && (resp == nil || resp.User == nil) {
		err = &apperrors.AuthError{Op: "signUp", Message: "sign up returned no user", Err: apperrors.ErrMissingUser}
	}
	if err != nil {
		o.logger.Warn().Err(err).Str("tenant_id", tenant.ID).Msg("Register: sign up failed, deleting tenant")
		if rollbackErr := client.Tenants().Delete(ctx, tenant.ID); rollbackErr != nil {
			o.logger.Error().Err(rollbackErr).Str("tenant_id", tenant.ID).Msg("Register: tenant rollback failed")
			return failedAs[*RegisterData](o, apperrors.NewCompensationFailure(err, rollbackErr))
		}
		return failedAs[*RegisterData](o, err)
	}

	data := &RegisterData{Tenant: tenant, User: resp.User, Session: resp.Session}
	if resp.Session == nil {
		return succeed(data, MessageConfirmationSent)
	}
	if !o.signedIn(ctx, epoch, client, resp.Session, resp.User) {
		return failedAs[*RegisterData](o, ErrSuperseded)
	}
	o.syncTenants(ctx, epoch, client)
	return succeed(data, MessageRegistrationReady)
}

// RefreshToken exchanges the held refresh token for a new session.
func (o *Orchestrator) RefreshToken(ctx context.Context) (result Result[*sessions.Session]) {
	done := o.metrics.Start("refreshToken")
	defer func() { done(result.Error) }()
	epoch := o.begin()
	defer o.end()

	current := o.Session()
	if current == nil {
		return failedAs[*sessions.Session](o, errors.Wrap(apperrors.ErrNoSession, "[auth.Orchestrator.RefreshToken]"))
	}
	client, err := o.deps.Identity.Client()
	if err != nil {
		return failedAs[*sessions.Session](o, err)
	}
	s, err := client.RefreshSession(ctx, current.RefreshToken)
	if err != nil {
		o.logger.Warn().Err(err).Msg("Token refresh failed")
		return failedAs[*sessions.Session](o, err)
	}

	replaced := false
	o.mutate(func() {
		if o.epoch == epoch && o.user != nil {
			o.session = s.Clone()
			replaced = true
		}
	})
	if !replaced {
		return failedAs[*sessions.Session](o, ErrSuperseded)
	}
	return succeed(s, "")
}

// ResetPasswordForEmail asks the backend to mail a reset link. The local
// session is not touched.
func (o *Orchestrator) ResetPasswordForEmail(ctx context.Context, email string) (result Result[struct{}]) {
	done := o.metrics.Start("resetPassword")
	defer func() { done(result.Error) }()
	o.begin()
	defer o.end()

	client, err := o.deps.Identity.Client()
	if err != nil {
		return failedAs[struct{}](o, err)
	}
	if err := client.ResetPasswordForEmail(ctx, strings.TrimSpace(email)); err != nil {
		return failedAs[struct{}](o, err)
	}
	return succeed(struct{}{}, MessagePasswordReset)
}

// failedAs records err as the orchestrator error and wraps it in a Result.
func failedAs[T any](o *Orchestrator, err error) Result[T] {
	o.recordError(err)
	return fail[T](err)
}
