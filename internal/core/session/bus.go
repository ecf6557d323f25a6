// Package session holds the client-facing session state machinery: the Bus
// that fans session-change events out to observers, and the Synchronizer
// that mirrors backend session state into one client context.
package session

import (
	"sync"

	"github.com/nimbuslabs/account-portal/internal/core/domain"
)

// Bus is an in-process observer registry for session-change events, keyed by
// user ID. A nil session in Publish means "signed out".
type Bus struct {
	mu        sync.Mutex
	nextID    int
	observers map[string]map[int]func(*domain.Session)
}

func NewBus() *Bus {
	return &Bus{observers: make(map[string]map[int]func(*domain.Session))}
}

// Subscribe registers fn for the user's session changes and returns the
// unsubscribe function. Unsubscribing twice is harmless.
func (b *Bus) Subscribe(userID string, fn func(*domain.Session)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.observers[userID] == nil {
		b.observers[userID] = make(map[int]func(*domain.Session))
	}
	b.observers[userID][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.observers[userID], id)
		if len(b.observers[userID]) == 0 {
			delete(b.observers, userID)
		}
	}
}

// Publish delivers the session change to every observer of the user. The
// callbacks run synchronously on the publishing goroutine, outside the lock.
func (b *Bus) Publish(userID string, s *domain.Session) {
	b.mu.Lock()
	fns := make([]func(*domain.Session), 0, len(b.observers[userID]))
	for _, fn := range b.observers[userID] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// ObserverCount reports the number of registered observers for the user.
func (b *Bus) ObserverCount(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.observers[userID])
}
