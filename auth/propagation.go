package auth

import (
	"context"

	"github.com/jrsteele09/go-tenant-console/identity"
	"github.com/jrsteele09/go-tenant-console/sessions"
	"github.com/jrsteele09/go-tenant-console/users"
)

// UpdateUserStore writes u's denormalized fields into the profile store, the
// tenant store and the persisted local record.
func (o *Orchestrator) UpdateUserStore(ctx context.Context, u *sessions.User) {
	if u == nil {
		return
	}
	o.deps.Profile.Apply(users.ProfileFromUser(u))
	o.deps.Tenants.AdoptIdentityTenant(ctx, u.TenantID())
	if err := users.SaveRecord(ctx, o.deps.Local, users.RecordFromUser(u)); err != nil {
		o.logger.Err(err).Str("user_id", u.ID).Msg("Failed to persist user record")
	}
}

// ResetUserStore clears the same fields UpdateUserStore writes.
func (o *Orchestrator) ResetUserStore(ctx context.Context) {
	o.deps.Profile.Reset()
	o.deps.Tenants.Reset(ctx)
	if err := users.ClearRecord(ctx, o.deps.Local); err != nil {
		o.logger.Err(err).Msg("Failed to clear user record")
	}
}

// signedIn adopts s and propagates its user unless a sign-out completed since
// epoch. The collaborator writes happen under propLock so a sign-out cannot
// interleave with them.
func (o *Orchestrator) signedIn(ctx context.Context, epoch uint64, client identity.Client, s *sessions.Session, u *sessions.User) bool {
	o.propLock.Lock()
	defer o.propLock.Unlock()
	if !o.adoptIfCurrent(epoch, s, u) {
		return false
	}
	o.UpdateUserStore(ctx, u)
	o.ensureSubscribed(client)
	return true
}

// signedOut clears the state and every collaborator.
func (o *Orchestrator) signedOut(ctx context.Context) {
	o.propLock.Lock()
	defer o.propLock.Unlock()
	o.signedOutLocked(ctx)
}

func (o *Orchestrator) signedOutLocked(ctx context.Context) {
	o.setAuth(nil, nil)
	o.ResetUserStore(ctx)
}

// discard ends the current sign-in: later results of actions started before
// it are dropped and events from the old client are ignored.
func (o *Orchestrator) discard(ctx context.Context) {
	o.propLock.Lock()
	defer o.propLock.Unlock()
	o.detach()
	o.mutate(func() {
		o.epoch++
		o.setAuthLocked(nil, nil)
	})
	o.ResetUserStore(ctx)
}

func (o *Orchestrator) currentEpoch() uint64 {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return o.epoch
}

// syncTenants reloads the tenant list visible to the current identity. A
// failure keeps the current list. Nothing is fetched once a sign-out
// completed since epoch.
func (o *Orchestrator) syncTenants(ctx context.Context, epoch uint64, client identity.Client) {
	if o.currentEpoch() != epoch {
		return
	}
	if _, err := o.deps.Tenants.FetchTenants(ctx, client.Tenants()); err != nil {
		o.logger.Warn().Err(err).Msg("Keeping the current tenant list")
	}
}

// handleAuthEvent applies a backend-initiated transition.
func (o *Orchestrator) handleAuthEvent(client identity.Client, event identity.Event, s *sessions.Session) {
	o.propLock.Lock()
	defer o.propLock.Unlock()
	if !o.isSubscribedTo(client) {
		return
	}
	ctx := context.Background()
	o.logger.Debug().Str("event", string(event)).Msg("Auth state changed")

	switch event {
	case identity.EventSignedIn, identity.EventUserUpdated:
		if s == nil || s.User == nil {
			return
		}
		o.setAuth(s, s.User)
		o.UpdateUserStore(ctx, s.User)
	case identity.EventSignedOut, identity.EventUserDeleted:
		o.signedOutLocked(ctx)
	case identity.EventTokenRefreshed:
		if s == nil {
			return
		}
		o.mutate(func() {
			if o.user != nil {
				o.session = s.Clone()
			}
		})
	}
}

// subscribe starts (or moves) the standing subscription to client.
func (o *Orchestrator) subscribe(client identity.Client) {
	o.subLock.Lock()
	defer o.subLock.Unlock()
	o.watching = true
	o.subscribeLocked(client)
}

func (o *Orchestrator) subscribeLocked(client identity.Client) {
	if o.subscribedTo == client {
		return
	}
	if o.unsubscribe != nil {
		o.unsubscribe()
	}
	o.subscribedTo = client
	o.unsubscribe = client.OnAuthStateChange(func(event identity.Event, s *sessions.Session) {
		o.handleAuthEvent(client, event, s)
	})
}

// ensureSubscribed follows a rebuilt client while Initialize's subscription
// is live.
func (o *Orchestrator) ensureSubscribed(client identity.Client) {
	o.subLock.Lock()
	defer o.subLock.Unlock()
	if o.watching {
		o.subscribeLocked(client)
	}
}

// detach drops the subscription to a discarded client but keeps watching.
func (o *Orchestrator) detach() {
	o.subLock.Lock()
	defer o.subLock.Unlock()
	if o.unsubscribe != nil {
		o.unsubscribe()
	}
	o.unsubscribe, o.subscribedTo = nil, nil
}

// dispose ends the standing subscription.
func (o *Orchestrator) dispose() {
	o.subLock.Lock()
	defer o.subLock.Unlock()
	o.watching = false
	if o.unsubscribe != nil {
		o.unsubscribe()
	}
	o.unsubscribe, o.subscribedTo = nil, nil
}

func (o *Orchestrator) isSubscribedTo(client identity.Client) bool {
	o.subLock.Lock()
	defer o.subLock.Unlock()
	return o.subscribedTo == client
}
