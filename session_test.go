package rulematcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionStore_PutGet(t *testing.T) {
	store := NewSessionStore(time.Minute, time.Minute)

	sessionID := store.NewSessionID()
	assert.NotEmpty(t, sessionID)

	// Unknown session resolves to a zero context
	assert.Equal(t, Context{}, store.Get(sessionID))

	ctx := Context{
		LastIntent: IntentLocation,
		LastRuleID: "loc-admissions",
		Turns:      3,
	}
	store.Put(sessionID, ctx)

	assert.Equal(t, ctx, store.Get(sessionID))
	assert.Equal(t, 1, store.Len())
}

func TestSessionStore_End(t *testing.T) {
	store := NewSessionStore(time.Minute, time.Minute)

	sessionID := store.NewSessionID()
	store.Put(sessionID, Context{Turns: 1})
	store.End(sessionID)

	assert.Equal(t, Context{}, store.Get(sessionID))
	assert.Equal(t, 0, store.Len())
}

func TestSessionStore_Expiry(t *testing.T) {
	store := NewSessionStore(50*time.Millisecond, 10*time.Millisecond)

	sessionID := store.NewSessionID()
	store.Put(sessionID, Context{Turns: 1})

	time.Sleep(120 * time.Millisecond)

	assert.Equal(t, Context{}, store.Get(sessionID))
}

func TestSessionStore_UniqueIDs(t *testing.T) {
	store := NewSessionStore(time.Minute, time.Minute)

	seen := make(map[string]Empty)
	for i := 0; i < 100; i++ {
		sessionID := store.NewSessionID()
		if _, dup := seen[sessionID]; dup {
			t.Fatalf("Duplicate session id %q", sessionID)
		}
		seen[sessionID] = Empty{}
	}
}

func TestSessionStore_DefaultsOnBadValues(t *testing.T) {
	store := NewSessionStore(0, -time.Second)

	sessionID := store.NewSessionID()
	store.Put(sessionID, Context{Turns: 1})
	assert.Equal(t, Context{Turns: 1}, store.Get(sessionID))
}
