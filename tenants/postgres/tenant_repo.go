package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jrsteele09/go-tenant-console/tenants"
)

var _ tenants.Repo = (*TenantRepo)(nil)

const tenantColumns = "id::text, name, coalesce(domain, ''), coalesce(logo_url, ''), created_at, updated_at"

type TenantRepo struct {
	db *db
}

func NewTenantRepo(pool *pgxpool.Pool, claims ClaimsFunc, options ...Option) *TenantRepo {
	return &TenantRepo{db: newDB(pool, claims, options...)}
}

func scanTenant(row pgx.Row) (*tenants.Tenant, error) {
	t := &tenants.Tenant{}
	if err := row.Scan(&t.ID, &t.Name, &t.Domain, &t.LogoURL, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TenantRepo) Create(ctx context.Context, t *tenants.Tenant) (*tenants.Tenant, error) {
	var out *tenants.Tenant
	err := r.db.run(ctx, func(tx pgx.Tx) error {
		var err error
		out, err = scanTenant(tx.QueryRow(ctx,
			`insert into tenants (id, name, domain, logo_url)
			 values (coalesce(nullif($1, '')::uuid, gen_random_uuid()), $2, nullif($3, ''), nullif($4, ''))
			 returning `+tenantColumns,
			t.ID, t.Name, t.Domain, t.LogoURL))
		return err
	})
	if err != nil {
		return nil, mapError("[postgres.TenantRepo.Create]", err)
	}
	return out, nil
}

func (r *TenantRepo) Get(ctx context.Context, tenantID string) (*tenants.Tenant, error) {
	var out *tenants.Tenant
	err := r.db.run(ctx, func(tx pgx.Tx) error {
		var err error
		out, err = scanTenant(tx.QueryRow(ctx, "select "+tenantColumns+" from tenants where id::text = $1", tenantID))
		return err
	})
	if err != nil {
		return nil, mapError("[postgres.TenantRepo.Get]", err)
	}
	return out, nil
}

func (r *TenantRepo) List(ctx context.Context) ([]*tenants.Tenant, error) {
	list := make([]*tenants.Tenant, 0)
	err := r.db.run(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, "select "+tenantColumns+" from tenants order by name, id")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			t, err := scanTenant(rows)
			if err != nil {
				return err
			}
			list = append(list, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, mapError("[postgres.TenantRepo.List]", err)
	}
	return list, nil
}

func (r *TenantRepo) Update(ctx context.Context, tenantID string, update tenants.TenantUpdate) (*tenants.Tenant, error) {
	var out *tenants.Tenant
	err := r.db.run(ctx, func(tx pgx.Tx) error {
		var err error
		out, err = scanTenant(tx.QueryRow(ctx,
			`update tenants set
			   name = coalesce($2, name),
			   domain = coalesce($3, domain),
			   logo_url = coalesce($4, logo_url),
			   updated_at = now()
			 where id::text = $1
			 returning `+tenantColumns,
			tenantID, update.Name, update.Domain, update.LogoURL))
		return err
	})
	if err != nil {
		return nil, mapError("[postgres.TenantRepo.Update]", err)
	}
	return out, nil
}

func (r *TenantRepo) Delete(ctx context.Context, tenantID string) error {
	err := r.db.run(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, "delete from tenants where id::text = $1", tenantID)
		return err
	})
	return mapError("[postgres.TenantRepo.Delete]", err)
}
