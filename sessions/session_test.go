package sessions_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-tenant-console/sessions"
	"github.com/stretchr/testify/require"
)

func TestSession_IsExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	var none *sessions.Session
	require.True(t, none.IsExpired(now), "no session counts as expired")

	require.True(t, (&sessions.Session{ExpiresAt: now.Unix()}).IsExpired(now), "expiry equal to now is expired")
	require.True(t, (&sessions.Session{ExpiresAt: now.Unix() - 1}).IsExpired(now))
	require.False(t, (&sessions.Session{ExpiresAt: now.Unix() + 1}).IsExpired(now))

	s := &sessions.Session{ExpiresAt: now.Add(time.Minute).Unix()}
	require.True(t, s.ExpiresWithin(now, 90*time.Second))
	require.False(t, s.ExpiresWithin(now, 30*time.Second))
}

func TestUser_MetadataAccessors(t *testing.T) {
	u := &sessions.User{
		ID:    "u-1",
		Email: "a@x.com",
		UserMetadata: map[string]any{
			"tenant_id": "t-1",
			"role":      "admin",
			"avatar":    "https://img/a.png",
			"nickname":  "ace",
		},
		AppMetadata: map[string]any{
			"roles":       []any{"admin"},
			"permissions": []any{"tenants:read", "tenants:write"},
		},
	}

	require.Equal(t, "t-1", u.TenantID())
	require.Equal(t, "admin", u.Role())
	require.Equal(t, "https://img/a.png", u.Avatar())
	require.Equal(t, "ace", u.Nickname())
	require.Equal(t, []string{"admin"}, u.Roles())
	require.Equal(t, []string{"tenants:read", "tenants:write"}, u.Permissions())

	var nilUser *sessions.User
	require.Equal(t, "", nilUser.TenantID())
	require.Equal(t, []string{}, nilUser.Roles())

	clone := u.Clone()
	clone.UserMetadata["tenant_id"] = "t-2"
	require.Equal(t, "t-1", u.TenantID())
}

func TestSession_Token(t *testing.T) {
	s := &sessions.Session{AccessToken: "at", RefreshToken: "rt", ExpiresAt: 1_700_000_000}
	tok := s.Token()
	require.Equal(t, "at", tok.AccessToken)
	require.Equal(t, "rt", tok.RefreshToken)
	require.Equal(t, "bearer", tok.TokenType)
	require.Equal(t, time.Unix(1_700_000_000, 0), tok.Expiry)
}

func TestSession_Normalize(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	claims := jwt.MapClaims{
		"sub":           "u-9",
		"email":         "n@x.com",
		"exp":           now.Add(time.Hour).Unix(),
		"user_metadata": map[string]any{"tenant_id": "t-9"},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	t.Run("from token claims", func(t *testing.T) {
		s := &sessions.Session{AccessToken: raw}
		s.Normalize(now)
		require.Equal(t, now.Add(time.Hour).Unix(), s.ExpiresAt)
		require.Equal(t, "u-9", s.User.ID)
		require.Equal(t, "t-9", s.User.TenantID())
	})

	t.Run("from expires_in", func(t *testing.T) {
		s := &sessions.Session{AccessToken: "opaque", ExpiresIn: 60, User: &sessions.User{ID: "u-1"}}
		s.Normalize(now)
		require.Equal(t, now.Add(time.Minute).Unix(), s.ExpiresAt)
		require.Equal(t, "u-1", s.User.ID)
	})
}
