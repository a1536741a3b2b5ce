// Package storage defines the persisted local store: a small key/value space
// that survives restarts and holds JSON-encoded records such as the signed-in
// user's snapshot and the selected tenant.
package storage

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// Well-known keys.
const (
	KeyUserInfo        = "user-info"
	KeyTenantID        = "tenantId"
	KeyCurrentTenantID = "currentTenantId"
	KeyAuthToken       = "auth-token"
)

// Store persists JSON-serializable values by key.
type Store interface {
	// SetItem encodes value and stores it under key, replacing any previous value.
	SetItem(ctx context.Context, key string, value any) error
	// GetItem decodes the value under key into out. found is false when the key is absent.
	GetItem(ctx context.Context, key string, out any) (found bool, err error)
	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(ctx context.Context, key string) error
}

// Encode is the shared value encoding for all drivers.
func Encode(key string, value any) ([]byte, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Wrapf(err, "[storage.Encode] key %q", key)
	}
	return b, nil
}

// Decode is the inverse of Encode.
func Decode(key string, raw []byte, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "[storage.Decode] key %q", key)
	}
	return nil
}
