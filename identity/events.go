package identity

import (
	"github.com/jrsteele09/go-tenant-console/internal/reactive"
	"github.com/jrsteele09/go-tenant-console/sessions"
)

// Event names an auth state transition reported by the backend client.
type Event string

const (
	EventInitialSession   Event = "INITIAL_SESSION"
	EventSignedIn         Event = "SIGNED_IN"
	EventSignedOut        Event = "SIGNED_OUT"
	EventTokenRefreshed   Event = "TOKEN_REFRESHED"
	EventUserUpdated      Event = "USER_UPDATED"
	EventUserDeleted      Event = "USER_DELETED"
	EventPasswordRecovery Event = "PASSWORD_RECOVERY"
)

// Handler receives an event with the session after the transition (nil when
// signed out). The session is a copy owned by the handler.
type Handler func(event Event, session *sessions.Session)

type change struct {
	event   Event
	session *sessions.Session
}

// Notifier fans auth events out to subscribers. Clients embed one.
type Notifier struct {
	watchers reactive.Watchers[change]
}

func (n *Notifier) Subscribe(handler Handler) (unsubscribe func()) {
	return n.watchers.Add(func(c change) {
		handler(c.event, c.session.Clone())
	})
}

func (n *Notifier) Emit(event Event, session *sessions.Session) {
	n.watchers.Notify(change{event: event, session: session})
}

// Subscribers reports the number of live subscriptions.
func (n *Notifier) Subscribers() int {
	return n.watchers.Len()
}
