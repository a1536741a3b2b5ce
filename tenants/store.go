package tenants

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-tenant-console/internal/reactive"
	"github.com/jrsteele09/go-tenant-console/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// StoreSnapshot is a point-in-time copy of the tenant store.
type StoreSnapshot struct {
	CurrentTenantID string   `json:"current_tenant_id"`
	CurrentTenant   Tenant   `json:"current_tenant"`
	Tenants         []Tenant `json:"tenants"`
}

// Store holds the active tenant selection and the tenants available to the
// current identity. CurrentTenantID always names a tenant in the list or is
// the default id. The selection is mirrored to the persisted local store.
type Store struct {
	local     storage.Store
	lock      sync.RWMutex
	currentID string
	tenants   []Tenant
	watchers  reactive.Watchers[StoreSnapshot]
}

type StoreOption func(*Store)

// WithTenants replaces the initial tenant list (which defaults to the default tenant only).
func WithTenants(list ...Tenant) StoreOption {
	return func(s *Store) {
		s.tenants = append([]Tenant{}, list...)
	}
}

// NewStore builds the store and restores the persisted selection, falling back
// to the default tenant when nothing valid was persisted.
func NewStore(ctx context.Context, local storage.Store, options ...StoreOption) *Store {
	s := &Store{
		local:     local,
		currentID: DefaultTenantID,
		tenants:   []Tenant{DefaultTenant()},
	}
	for _, opt := range options {
		opt(s)
	}

	if local != nil {
		var persisted string
		found, err := local.GetItem(ctx, storage.KeyCurrentTenantID, &persisted)
		if err != nil {
			log.Err(err).Msg("Tenant store: failed to restore current tenant")
		} else if found && s.indexOf(persisted) >= 0 {
			s.currentID = persisted
		}
	}
	return s
}

func (s *Store) indexOf(id string) int {
	for i := range s.tenants {
		if s.tenants[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) CurrentTenantID() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.currentID
}

// Tenants returns a copy of the known tenant list.
func (s *Store) Tenants() []Tenant {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return append([]Tenant{}, s.tenants...)
}

// CurrentTenant resolves the selection, falling back to the default tenant
// when the id matches nothing.
func (s *Store) CurrentTenant() Tenant {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.currentLocked()
}

func (s *Store) currentLocked() Tenant {
	if i := s.indexOf(s.currentID); i >= 0 {
		return s.tenants[i]
	}
	return DefaultTenant()
}

func (s *Store) Snapshot() StoreSnapshot {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() StoreSnapshot {
	return StoreSnapshot{
		CurrentTenantID: s.currentID,
		CurrentTenant:   s.currentLocked(),
		Tenants:         append([]Tenant{}, s.tenants...),
	}
}

// SetCurrentTenant selects tenantID when it is in the known list and returns
// true. An unknown id leaves the selection unchanged and returns false.
func (s *Store) SetCurrentTenant(ctx context.Context, tenantID string) bool {
	s.lock.Lock()
	if s.indexOf(tenantID) < 0 {
		s.lock.Unlock()
		return false
	}
	s.currentID = tenantID
	snap := s.snapshotLocked()
	s.lock.Unlock()

	s.persist(ctx, tenantID)
	s.watchers.Notify(snap)
	return true
}

// SetTenants replaces the tenant list. A selection no longer in the list falls
// back to the default tenant.
func (s *Store) SetTenants(ctx context.Context, list []Tenant) {
	s.lock.Lock()
	s.tenants = append([]Tenant{}, list...)
	changed := false
	if s.indexOf(s.currentID) < 0 && s.currentID != DefaultTenantID {
		s.currentID = DefaultTenantID
		changed = true
	}
	current := s.currentID
	snap := s.snapshotLocked()
	s.lock.Unlock()

	if changed {
		s.persist(ctx, current)
	}
	s.watchers.Notify(snap)
}

// FetchTenants loads the tenants visible to the current identity from repo.
// On failure the list is left as it was and the error is returned.
func (s *Store) FetchTenants(ctx context.Context, repo Repo) ([]Tenant, error) {
	rows, err := repo.List(ctx)
	if err != nil {
		log.Err(err).Msg("Tenant store: failed to fetch tenants")
		return s.Tenants(), errors.Wrap(err, "[tenants.Store.FetchTenants] repo.List")
	}
	list := make([]Tenant, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			list = append(list, *r)
		}
	}
	if len(list) == 0 {
		list = []Tenant{DefaultTenant()}
	}
	s.SetTenants(ctx, list)
	return s.Tenants(), nil
}

// AdoptIdentityTenant selects the tenant carried by the signed-in identity.
// A tenant id not yet in the list is added with its id as the name, so the
// selection never dangles; FetchTenants later replaces it with the real row.
func (s *Store) AdoptIdentityTenant(ctx context.Context, tenantID string) {
	if tenantID == "" {
		return
	}
	s.lock.Lock()
	if s.indexOf(tenantID) < 0 {
		s.tenants = append(s.tenants, Tenant{ID: tenantID, Name: tenantID})
	}
	s.currentID = tenantID
	snap := s.snapshotLocked()
	s.lock.Unlock()

	s.persist(ctx, tenantID)
	s.watchers.Notify(snap)
}

// Reset returns the store to the default tenant only.
func (s *Store) Reset(ctx context.Context) {
	s.lock.Lock()
	s.tenants = []Tenant{DefaultTenant()}
	s.currentID = DefaultTenantID
	snap := s.snapshotLocked()
	s.lock.Unlock()

	s.persist(ctx, DefaultTenantID)
	s.watchers.Notify(snap)
}

// Watch registers fn for every change.
func (s *Store) Watch(fn func(StoreSnapshot)) (cancel func()) {
	return s.watchers.Add(fn)
}

func (s *Store) persist(ctx context.Context, tenantID string) {
	if s.local == nil {
		return
	}
	if err := s.local.SetItem(ctx, storage.KeyCurrentTenantID, tenantID); err != nil {
		log.Err(err).Str("tenant_id", tenantID).Msg("Tenant store: failed to persist current tenant")
	}
}
