package sessions

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// AccessClaims are the claims the identity backend puts in its access tokens.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email,omitempty"`
	Role         string         `json:"role,omitempty"` // database role, e.g. "authenticated"
	SessionID    string         `json:"session_id,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
}

// DecodeAccessToken reads the claims of a token without verifying its
// signature. Verification belongs to the backend (or to an explicit verifier);
// the console only needs the claims to fill gaps in a session.
func DecodeAccessToken(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, errors.Wrap(err, "[sessions.DecodeAccessToken] parse")
	}
	return claims, nil
}

// UserFromClaims rebuilds the identity carried by an access token.
func UserFromClaims(c *AccessClaims) *User {
	if c == nil {
		return nil
	}
	return &User{
		ID:           c.Subject,
		Email:        c.Email,
		UserMetadata: c.UserMetadata,
		AppMetadata:  c.AppMetadata,
	}
}

// Normalize fills ExpiresAt (from the token's exp claim, else from ExpiresIn)
// and User (from the token's claims) when the backend omitted them.
func (s *Session) Normalize(now time.Time) {
	if s == nil {
		return
	}
	if s.ExpiresAt != 0 && s.User != nil {
		return
	}
	claims, err := DecodeAccessToken(s.AccessToken)
	if s.ExpiresAt == 0 {
		switch {
		case err == nil && claims.ExpiresAt != nil:
			s.ExpiresAt = claims.ExpiresAt.Unix()
		case s.ExpiresIn > 0:
			s.ExpiresAt = now.Add(time.Duration(s.ExpiresIn) * time.Second).Unix()
		}
	}
	if s.User == nil && err == nil {
		s.User = UserFromClaims(claims)
	}
}
