package sessions

import (
	"time"

	"github.com/jrsteele09/go-tenant-console/internal/utils"
	"golang.org/x/oauth2"
)

// Metadata keys understood by the console.
const (
	MetaTenantID = "tenant_id"
	MetaRole     = "role"
	MetaAvatar   = "avatar"
	MetaNickname = "nickname"

	AppMetaRoles       = "roles"
	AppMetaPermissions = "permissions"
)

// User is the identity the backend reports for a session. It is rebuilt from
// the session on every change and never edited in place.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"` // free-form, user editable (tenant_id, role, avatar, nickname)
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`  // set by the backend (roles, permissions)
	CreatedAt    time.Time      `json:"created_at"`
}

func (u *User) TenantID() string {
	if u == nil {
		return ""
	}
	return utils.StringValue(u.UserMetadata, MetaTenantID)
}

func (u *User) Role() string {
	if u == nil {
		return ""
	}
	return utils.StringValue(u.UserMetadata, MetaRole)
}

func (u *User) Avatar() string {
	if u == nil {
		return ""
	}
	return utils.StringValue(u.UserMetadata, MetaAvatar)
}

func (u *User) Nickname() string {
	if u == nil {
		return ""
	}
	return utils.StringValue(u.UserMetadata, MetaNickname)
}

// Roles are the app-level roles; never nil.
func (u *User) Roles() []string {
	if u == nil {
		return []string{}
	}
	return utils.StringSliceValue(u.AppMetadata, AppMetaRoles)
}

// Permissions are the app-level permission strings; never nil.
func (u *User) Permissions() []string {
	if u == nil {
		return []string{}
	}
	return utils.StringSliceValue(u.AppMetadata, AppMetaPermissions)
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.UserMetadata = utils.CloneMap(u.UserMetadata)
	c.AppMetadata = utils.CloneMap(u.AppMetadata)
	return &c
}

// Session is the access/refresh token pair issued by the identity backend.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"` // seconds since epoch
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// IsExpired treats a nil session as expired. Otherwise the session is expired
// once ExpiresAt (in milliseconds) is at or before now.
func (s *Session) IsExpired(now time.Time) bool {
	if s == nil {
		return true
	}
	return s.ExpiresAt*1000 <= now.UnixMilli()
}

// ExpiresWithin reports whether the session expires before now+margin.
func (s *Session) ExpiresWithin(now time.Time, margin time.Duration) bool {
	if s == nil {
		return true
	}
	return s.IsExpired(now.Add(margin))
}

// Expiry returns ExpiresAt as a time.
func (s *Session) Expiry() time.Time {
	if s == nil || s.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(s.ExpiresAt, 0)
}

// Token exposes the session as an oauth2 token for bearer transports.
func (s *Session) Token() *oauth2.Token {
	if s == nil {
		return nil
	}
	tokenType := s.TokenType
	if tokenType == "" {
		tokenType = "bearer"
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    tokenType,
		RefreshToken: s.RefreshToken,
		Expiry:       s.Expiry(),
	}
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.User = s.User.Clone()
	return &c
}
