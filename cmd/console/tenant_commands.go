package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTenantsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "List and switch tenants",
	}
	cmd.AddCommand(
		newTenantsListCommand(opts),
		newTenantsSwitchCommand(opts),
		newTenantContextCommand(opts),
		newTenantUsersCommand(opts),
	)
	return cmd
}

func newTenantsListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tenants visible to the signed-in user",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, out printer, _ []string) error {
			list, err := a.orch.SyncTenants(ctx)
			if err != nil {
				return err
			}
			current := a.tenants.CurrentTenantID()
			return out.print(map[string]any{"current_tenant_id": current, "tenants": list}, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "\tID\tNAME\tDOMAIN")
				for _, t := range list {
					marker := ""
					if t.ID == current {
						marker = "*"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", marker, t.ID, t.Name, t.Domain)
				}
				_ = tw.Flush()
			})
		}),
	}
}

func newTenantsSwitchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <tenant-id>",
		Short: "Select the current tenant",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, out printer, args []string) error {
			if _, err := a.orch.SyncTenants(ctx); err != nil {
				return err
			}
			if !a.orch.SetCurrentTenant(ctx, args[0]) {
				return fmt.Errorf("tenant %q is not available to this user", args[0])
			}
			tc := a.orch.TenantContext()
			return out.print(tc, func(w io.Writer) {
				fmt.Fprintf(w, "Current tenant: %s (%s)\n", tc.CurrentTenant.Name, tc.CurrentTenant.ID)
			})
		}),
	}
}

func newTenantContextCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "context",
		Short: "Show the current tenant, role and super admin flag",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, a *app, out printer, _ []string) error {
			tc := a.orch.TenantContext()
			return out.print(tc, func(w io.Writer) {
				fmt.Fprintf(w, "Tenant:      %s (%s)\n", tc.CurrentTenant.Name, tc.CurrentTenant.ID)
				fmt.Fprintf(w, "Role:        %s\n", tc.CurrentUserRole)
				fmt.Fprintf(w, "Super admin: %t\n", tc.IsSuperAdmin)
			})
		}),
	}
}

func newTenantUsersCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "users [tenant-id]",
		Short: "List the profiles of a tenant (defaults to the current one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(ctx context.Context, a *app, out printer, args []string) error {
			tenantID := a.tenants.CurrentTenantID()
			if len(args) == 1 {
				tenantID = args[0]
			}
			profiles, err := a.orch.TenantService().TenantUsers(ctx, tenantID)
			if err != nil {
				return err
			}
			return out.print(profiles, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tROLE")
				for _, p := range profiles {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.DisplayName, p.Role)
				}
				_ = tw.Flush()
			})
		}),
	}
}
