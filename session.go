package rulematcher

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SessionStore keeps per-session conversation contexts with a TTL, so idle
// sessions expire instead of accumulating. Only the small Context value
// object is stored; interaction logs belong to the external collaborator.
type SessionStore struct {
	contexts *cache.Cache
}

// NewSessionStore creates a store whose entries expire after ttl and are
// purged every cleanupInterval. Non-positive values fall back to the
// defaults.
func NewSessionStore(ttl, cleanupInterval time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultSessionJanitor
	}

	return &SessionStore{
		contexts: cache.New(ttl, cleanupInterval),
	}
}

// NewSessionID returns a fresh unique session identifier
func (*SessionStore) NewSessionID() string {
	return uuid.NewString()
}

// Get returns the context for a session, or a zero context for a new or
// expired session.
func (ss *SessionStore) Get(sessionID string) Context {
	if entry, found := ss.contexts.Get(sessionID); found {
		return entry.(Context)
	}
	return Context{}
}

// Put stores the updated context for a session, resetting its TTL
func (ss *SessionStore) Put(sessionID string, ctx Context) {
	ss.contexts.Set(sessionID, ctx, cache.DefaultExpiration)
}

// End clears a session's context immediately
func (ss *SessionStore) End(sessionID string) {
	ss.contexts.Delete(sessionID)
}

// Len returns the number of live sessions, counting not-yet-purged expired
// entries
func (ss *SessionStore) Len() int {
	return ss.contexts.ItemCount()
}
