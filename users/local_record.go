package users

import (
	"context"

	"github.com/jrsteele09/go-tenant-console/sessions"
	"github.com/jrsteele09/go-tenant-console/storage"
	"github.com/pkg/errors"
)

// LocalRecord is the snapshot written under storage.KeyUserInfo so a restart
// can show who was signed in before the backend answers.
type LocalRecord struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Username    string   `json:"username"`
	Avatar      string   `json:"avatar"`
	Nickname    string   `json:"nickname"`
	Role        string   `json:"role"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	TenantID    *string  `json:"tenant_id"`
}

func RecordFromUser(u *sessions.User) LocalRecord {
	p := ProfileFromUser(u)
	rec := LocalRecord{
		Username:    p.Username,
		Avatar:      p.Avatar,
		Nickname:    p.Nickname,
		Role:        p.Role,
		Roles:       p.Roles,
		Permissions: p.Permissions,
	}
	if u != nil {
		rec.ID = u.ID
		rec.Email = u.Email
	}
	if p.TenantID != "" {
		tenantID := p.TenantID
		rec.TenantID = &tenantID
	}
	return rec
}

// SaveRecord writes the user-info record and the tenantId key.
func SaveRecord(ctx context.Context, local storage.Store, rec LocalRecord) error {
	if err := local.SetItem(ctx, storage.KeyUserInfo, rec); err != nil {
		return errors.Wrap(err, "[users.SaveRecord] user-info")
	}
	if rec.TenantID == nil {
		if err := local.RemoveItem(ctx, storage.KeyTenantID); err != nil {
			return errors.Wrap(err, "[users.SaveRecord] tenantId")
		}
		return nil
	}
	if err := local.SetItem(ctx, storage.KeyTenantID, *rec.TenantID); err != nil {
		return errors.Wrap(err, "[users.SaveRecord] tenantId")
	}
	return nil
}

// LoadRecord reads the user-info record.
func LoadRecord(ctx context.Context, local storage.Store) (*LocalRecord, bool, error) {
	var rec LocalRecord
	found, err := local.GetItem(ctx, storage.KeyUserInfo, &rec)
	if err != nil || !found {
		return nil, found, err
	}
	return &rec, true, nil
}

// ClearRecord removes both keys written by SaveRecord. Both removals are attempted.
func ClearRecord(ctx context.Context, local storage.Store) error {
	errInfo := local.RemoveItem(ctx, storage.KeyUserInfo)
	errTenant := local.RemoveItem(ctx, storage.KeyTenantID)
	if errInfo != nil {
		return errors.Wrap(errInfo, "[users.ClearRecord] user-info")
	}
	if errTenant != nil {
		return errors.Wrap(errTenant, "[users.ClearRecord] tenantId")
	}
	return nil
}
