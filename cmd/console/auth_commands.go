package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jrsteele09/go-tenant-console/auth"
	"github.com/spf13/cobra"
)

const passwordEnvVar = "CONSOLE_PASSWORD"

// passwordFrom prefers the flag and falls back to CONSOLE_PASSWORD so the
// password can stay out of shell history.
func passwordFrom(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if pw := os.Getenv(passwordEnvVar); pw != "" {
		return pw, nil
	}
	return "", fmt.Errorf("password is required (--password or %s)", passwordEnvVar)
}

func printState(out printer, state auth.State) error {
	return out.print(whoAmI(state), func(w io.Writer) {
		if !state.IsAuthenticated() {
			fmt.Fprintln(w, "Not signed in")
			return
		}
		fmt.Fprintf(w, "Signed in as %s\n", state.UserEmail())
		if tenantID := state.UserTenantID(); tenantID != "" {
			fmt.Fprintf(w, "Tenant:  %s\n", tenantID)
		}
		if role := state.User.Role(); role != "" {
			fmt.Fprintf(w, "Role:    %s\n", role)
		}
		if state.Session != nil {
			fmt.Fprintf(w, "Expires: %s\n", time.Unix(state.Session.ExpiresAt, 0).Format(time.RFC3339))
		}
	})
}

type whoAmIView struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	TenantID      string `json:"tenant_id,omitempty"`
	Role          string `json:"role,omitempty"`
	ExpiresAt     int64  `json:"expires_at,omitempty"`
	Error         string `json:"error,omitempty"`
}

func whoAmI(state auth.State) whoAmIView {
	v := whoAmIView{
		Authenticated: state.IsAuthenticated(),
		Email:         state.UserEmail(),
		TenantID:      state.UserTenantID(),
	}
	if state.User != nil {
		v.UserID = state.User.ID
		v.Role = state.User.Role()
	}
	if state.Session != nil {
		v.ExpiresAt = state.Session.ExpiresAt
	}
	if state.Error != nil {
		v.Error = state.Error.Error()
	}
	return v
}

func newSignInCommand(opts *rootOptions) *cobra.Command {
	var email, password string
	var remember bool
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, out printer, _ []string) error {
			pw, err := passwordFrom(password)
			if err != nil {
				return err
			}
			result := a.orch.SignIn(ctx, email, pw, remember)
			if !result.Success {
				return result.Error
			}
			return printState(out, a.orch.Snapshot())
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or "+passwordEnvVar+")")
	cmd.Flags().BoolVar(&remember, "remember", true, "keep the session for later commands")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSignOutCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "End this device's session",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, out printer, _ []string) error {
			result := a.orch.SignOut(ctx)
			if !result.Success {
				return result.Error
			}
			return printState(out, a.orch.Snapshot())
		}),
	}
}

func newRegisterCommand(opts *rootOptions) *cobra.Command {
	var params auth.RegisterParams
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a tenant together with its first admin",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, out printer, _ []string) error {
			pw, err := passwordFrom(params.Password)
			if err != nil {
				return err
			}
			params.Password = pw
			result := a.orch.Register(ctx, params)
			if !result.Success {
				return result.Error
			}
			view := map[string]any{
				"message": result.Message,
				"tenant":  result.Data.Tenant,
				"user_id": result.Data.User.ID,
			}
			return out.print(view, func(w io.Writer) {
				fmt.Fprintln(w, result.Message)
				fmt.Fprintf(w, "Tenant: %s (%s)\n", result.Data.Tenant.Name, result.Data.Tenant.ID)
			})
		}),
	}
	cmd.Flags().StringVar(&params.Email, "email", "", "admin email")
	cmd.Flags().StringVar(&params.Password, "password", "", "admin password (or "+passwordEnvVar+")")
	cmd.Flags().StringVar(&params.TenantName, "tenant", "", "name of the new tenant")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func newWhoAmICommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the restored session",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, out printer, _ []string) error {
			return printState(out, a.orch.Snapshot())
		}),
	}
}

func newRefreshCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new session",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, out printer, _ []string) error {
			result := a.orch.RefreshToken(ctx)
			if !result.Success {
				return result.Error
			}
			return printState(out, a.orch.Snapshot())
		}),
	}
}

func newResetPasswordCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <email>",
		Short: "Send a password reset email",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, out printer, args []string) error {
			result := a.orch.ResetPasswordForEmail(ctx, args[0])
			if !result.Success {
				return result.Error
			}
			return out.print(map[string]string{"message": result.Message}, func(w io.Writer) {
				fmt.Fprintln(w, result.Message)
			})
		}),
	}
}
