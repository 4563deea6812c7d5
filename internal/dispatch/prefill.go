package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PrefillStore is the web Navigator: drafts wait in memory under a random
// token until the creation form takes them. A token can be taken once.
type PrefillStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]prefillEntry
}

type prefillEntry struct {
	route   string
	draft   Draft
	expires time.Time
}

// NewPrefillStore creates a store whose entries expire after ttl. A nil now
// uses time.Now.
func NewPrefillStore(ttl time.Duration, now func() time.Time) *PrefillStore {
	if now == nil {
		now = time.Now
	}
	return &PrefillStore{ttl: ttl, now: now, entries: make(map[string]prefillEntry)}
}

func (s *PrefillStore) Navigate(ctx context.Context, route string, draft Draft) (Navigation, error) {
	if err := ctx.Err(); err != nil {
		return Navigation{}, err
	}
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.entries[token] = prefillEntry{route: route, draft: draft, expires: s.now().Add(s.ttl)}
	return Navigation{Route: route, Token: token}, nil
}

// Take returns the draft stored under token and forgets it. ok is false for
// unknown, already taken or expired tokens.
func (s *PrefillStore) Take(token string) (route string, draft Draft, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.entries[token]
	if !found {
		return "", nil, false
	}
	delete(s.entries, token)
	if !s.now().Before(e.expires) {
		return "", nil, false
	}
	return e.route, e.draft, true
}

// Len reports how many unexpired prefills are waiting.
func (s *PrefillStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.entries)
}

func (s *PrefillStore) sweepLocked() {
	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
}
