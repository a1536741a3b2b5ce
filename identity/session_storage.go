package identity

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-tenant-console/sessions"
	"github.com/jrsteele09/go-tenant-console/storage"
	"github.com/pkg/errors"
)

// SessionStorage is the client-owned home of the current session. A
// persisted session is also written to the durable store so a new client can
// pick it up; a window-only session lives in memory alone.
type SessionStorage struct {
	durable storage.Store
	key     string

	lock    sync.Mutex
	session *sessions.Session
	persist bool
	loaded  bool
}

// NewSessionStorage uses durable (which may be nil) under storage.KeyAuthToken.
func NewSessionStorage(durable storage.Store) *SessionStorage {
	return &SessionStorage{durable: durable, key: storage.KeyAuthToken}
}

// Load returns the held session, reading the durable store once on first use.
func (s *SessionStorage) Load(ctx context.Context) (*sessions.Session, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.loaded || s.durable == nil {
		s.loaded = true
		return s.session.Clone(), nil
	}
	var stored sessions.Session
	found, err := s.durable.GetItem(ctx, s.key, &stored)
	if err != nil {
		return nil, errors.Wrap(err, "[identity.SessionStorage.Load] durable.GetItem")
	}
	s.loaded = true
	if found && stored.AccessToken != "" {
		s.session = &stored
		s.persist = true
	}
	return s.session.Clone(), nil
}

// Current returns the held session without touching the durable store.
func (s *SessionStorage) Current() *sessions.Session {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.session.Clone()
}

// Save holds session and, when persist is set, writes it durably. A
// window-only save removes any durable copy so it cannot outlive the process.
func (s *SessionStorage) Save(ctx context.Context, session *sessions.Session, persist bool) error {
	s.lock.Lock()
	s.session = session.Clone()
	s.persist = persist
	s.loaded = true
	s.lock.Unlock()

	if s.durable == nil {
		return nil
	}
	if !persist {
		return errors.Wrap(s.durable.RemoveItem(ctx, s.key), "[identity.SessionStorage.Save] durable.RemoveItem")
	}
	return errors.Wrap(s.durable.SetItem(ctx, s.key, session), "[identity.SessionStorage.Save] durable.SetItem")
}

// Replace swaps the held session (e.g. after a refresh) keeping the
// persistence choice of the last Save.
func (s *SessionStorage) Replace(ctx context.Context, session *sessions.Session) error {
	s.lock.Lock()
	persist := s.persist
	s.lock.Unlock()
	return s.Save(ctx, session, persist)
}

// Clear drops the session everywhere.
func (s *SessionStorage) Clear(ctx context.Context) error {
	s.lock.Lock()
	s.session = nil
	s.persist = false
	s.loaded = true
	s.lock.Unlock()

	if s.durable == nil {
		return nil
	}
	return errors.Wrap(s.durable.RemoveItem(ctx, s.key), "[identity.SessionStorage.Clear] durable.RemoveItem")
}
