package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	apperrors "github.com/jrsteele09/go-tenant-console/internal/errors"
	"github.com/jrsteele09/go-tenant-console/tenants"
	"github.com/pkg/errors"
)

var _ tenants.ProfileRepo = (*ProfileRepo)(nil)

const profileColumns = "id::text, coalesce(tenant_id::text, ''), coalesce(display_name, ''), coalesce(avatar_url, ''), role, created_at, updated_at"

type ProfileRepo struct {
	db *db
}

func NewProfileRepo(pool *pgxpool.Pool, claims ClaimsFunc, options ...Option) *ProfileRepo {
	return &ProfileRepo{db: newDB(pool, claims, options...)}
}

func scanProfile(row pgx.Row) (*tenants.Profile, error) {
	p := &tenants.Profile{}
	var role string
	if err := row.Scan(&p.ID, &p.TenantID, &p.DisplayName, &p.AvatarURL, &role, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Role = tenants.Role(role)
	return p, nil
}

func notFoundProfile(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errors.Wrap(apperrors.ErrProfileNotFound, op)
	}
	return mapError(op, err)
}

func (r *ProfileRepo) Get(ctx context.Context, userID string) (*tenants.Profile, error) {
	var out *tenants.Profile
	err := r.db.run(ctx, func(tx pgx.Tx) error {
		var err error
		out, err = scanProfile(tx.QueryRow(ctx, "select "+profileColumns+" from profiles where id::text = $1", userID))
		return err
	})
	if err != nil {
		return nil, notFoundProfile("[postgres.ProfileRepo.Get]", err)
	}
	return out, nil
}

func (r *ProfileRepo) ListByTenant(ctx context.Context, tenantID string) ([]*tenants.Profile, error) {
	list := make([]*tenants.Profile, 0)
	err := r.db.run(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, "select "+profileColumns+" from profiles where tenant_id::text = $1 order by id", tenantID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			p, err := scanProfile(rows)
			if err != nil {
				return err
			}
			list = append(list, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, mapError("[postgres.ProfileRepo.ListByTenant]", err)
	}
	return list, nil
}

func (r *ProfileRepo) Update(ctx context.Context, userID string, update tenants.ProfileUpdate) (*tenants.Profile, error) {
	var role *string
	if update.Role != nil {
		s := string(*update.Role)
		role = &s
	}
	var out *tenants.Profile
	err := r.db.run(ctx, func(tx pgx.Tx) error {
		var err error
		out, err = scanProfile(tx.QueryRow(ctx,
			`update profiles set
			   display_name = coalesce($2, display_name),
			   avatar_url = coalesce($3, avatar_url),
			   role = coalesce($4, role),
			   updated_at = now()
			 where id::text = $1
			 returning `+profileColumns,
			userID, update.DisplayName, update.AvatarURL, role))
		return err
	})
	if err != nil {
		return nil, notFoundProfile("[postgres.ProfileRepo.Update]", err)
	}
	return out, nil
}
