// Package auth keeps the signed-in session, the user profile, the tenant
// selection and the persisted local record consistent with the identity
// backend.
package auth

import (
	"sync"
	"time"

	"github.com/jrsteele09/go-tenant-console/identity"
	"github.com/jrsteele09/go-tenant-console/internal/metrics"
	"github.com/jrsteele09/go-tenant-console/internal/reactive"
	"github.com/jrsteele09/go-tenant-console/sessions"
	"github.com/jrsteele09/go-tenant-console/storage"
	"github.com/jrsteele09/go-tenant-console/tenants"
	"github.com/jrsteele09/go-tenant-console/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Deps are the collaborators the orchestrator keeps in sync.
type Deps struct {
	Identity *identity.Provider  // shared remote client handle
	Profile  *users.ProfileStore // denormalized user fields
	Tenants  *tenants.Store      // tenant selection
	Local    storage.Store       // user-info / tenantId records
}

// Disposer cancels what Initialize set up.
type Disposer func()

// State is a point-in-time copy of the orchestrator's fields.
type State struct {
	User      *sessions.User
	Session   *sessions.Session
	IsLoading bool
	Error     error
}

// IsAuthenticated reports whether a user is signed in.
func (s State) IsAuthenticated() bool { return s.User != nil }

// UserEmail is the signed-in user's email, or "".
func (s State) UserEmail() string {
	if s.User == nil {
		return ""
	}
	return s.User.Email
}

// UserTenantID is the tenant id from the user metadata, or "".
func (s State) UserTenantID() string {
	return s.User.TenantID()
}

// Orchestrator owns the session/user state. User and session are always set
// and cleared together.
type Orchestrator struct {
	deps    Deps
	nowTime func() time.Time
	logger  zerolog.Logger
	metrics *metrics.Recorder

	tenantSvc *tenants.Service

	lock     sync.RWMutex
	user     *sessions.User
	session  *sessions.Session
	inflight int
	err      error
	epoch    uint64 // bumped by every completed sign-out

	// propLock serializes writes to the collaborators (profile, tenants,
	// local record). It is taken before subLock and lock.
	propLock sync.Mutex

	subLock      sync.Mutex
	watching     bool
	subscribedTo identity.Client
	unsubscribe  func()

	watchers reactive.Watchers[State]
}

type Option func(*Orchestrator)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(o *Orchestrator) {
		o.nowTime = nowFunc
	}
}

// WithLogger replaces the global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithMetrics records every action on recorder.
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(o *Orchestrator) {
		o.metrics = recorder
	}
}

// New validates deps and builds the orchestrator in the signed-out state.
func New(deps Deps, options ...Option) (*Orchestrator, error) {
	if deps.Identity == nil {
		return nil, errors.New("[auth.New] identity provider is required")
	}
	if deps.Profile == nil {
		return nil, errors.New("[auth.New] profile store is required")
	}
	if deps.Tenants == nil {
		return nil, errors.New("[auth.New] tenant store is required")
	}
	if deps.Local == nil {
		return nil, errors.New("[auth.New] local store is required")
	}

	o := &Orchestrator{
		deps:    deps,
		nowTime: time.Now,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(o)
	}

	svc, err := tenants.NewService(o.tenantBackend)
	if err != nil {
		return nil, errors.Wrap(err, "[auth.New] tenants.NewService")
	}
	o.tenantSvc = svc
	return o, nil
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() State {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() State {
	return State{
		User:      o.user.Clone(),
		Session:   o.session.Clone(),
		IsLoading: o.inflight > 0,
		Error:     o.err,
	}
}

func (o *Orchestrator) User() *sessions.User { return o.Snapshot().User }

func (o *Orchestrator) Session() *sessions.Session { return o.Snapshot().Session }

func (o *Orchestrator) IsLoading() bool { return o.Snapshot().IsLoading }

// Err is the error of the last failed action, cleared when the next one starts.
func (o *Orchestrator) Err() error { return o.Snapshot().Error }

func (o *Orchestrator) IsAuthenticated() bool { return o.Snapshot().IsAuthenticated() }

func (o *Orchestrator) UserEmail() string { return o.Snapshot().UserEmail() }

func (o *Orchestrator) UserTenantID() string { return o.Snapshot().UserTenantID() }

// IsSessionExpired treats a missing session as expired.
func (o *Orchestrator) IsSessionExpired() bool {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return o.session.IsExpired(o.nowTime())
}

// Watch registers fn for every state change.
func (o *Orchestrator) Watch(fn func(State)) (cancel func()) {
	return o.watchers.Add(fn)
}

// mutate applies fn under the lock and notifies watchers afterwards.
func (o *Orchestrator) mutate(fn func()) {
	o.lock.Lock()
	fn()
	snap := o.snapshotLocked()
	o.lock.Unlock()
	o.watchers.Notify(snap)
}

// begin marks an action in flight and clears the previous error. The returned
// epoch lets the action detect a sign-out that happened meanwhile.
func (o *Orchestrator) begin() uint64 {
	var epoch uint64
	o.mutate(func() {
		o.inflight++
		o.err = nil
		epoch = o.epoch
	})
	return epoch
}

func (o *Orchestrator) end() {
	o.mutate(func() {
		o.inflight--
	})
}

func (o *Orchestrator) recordError(err error) {
	o.mutate(func() {
		o.err = err
	})
}

// setAuth replaces session and user together. A nil session clears both.
func (o *Orchestrator) setAuth(s *sessions.Session, u *sessions.User) {
	o.mutate(func() {
		o.setAuthLocked(s, u)
	})
}

func (o *Orchestrator) setAuthLocked(s *sessions.Session, u *sessions.User) {
	if s == nil || u == nil {
		o.session, o.user = nil, nil
		return
	}
	o.session, o.user = s.Clone(), u.Clone()
}

// adoptIfCurrent sets session and user unless a sign-out completed since
// epoch. It reports whether the state was written.
func (o *Orchestrator) adoptIfCurrent(epoch uint64, s *sessions.Session, u *sessions.User) bool {
	adopted := false
	o.mutate(func() {
		if o.epoch != epoch {
			return
		}
		o.setAuthLocked(s, u)
		adopted = true
	})
	return adopted
}

