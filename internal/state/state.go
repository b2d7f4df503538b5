// Package state tracks per-user conversation state for the bot. A user is
// either idle or awaiting-photo; the tracker records when each user entered
// the awaiting state so stale entries can be expired.
package state

import (
	"sync"
	"time"
)

// Tracker is an in-memory map of users currently awaiting a photo.
// It is safe for concurrent use: the Telegram library dispatches handlers
// on separate goroutines. State is not persisted and is lost on restart.
type Tracker struct {
	mu      sync.RWMutex
	pending map[int64]time.Time
}

// NewTracker creates an empty state tracker.
func NewTracker() *Tracker {
	return &Tracker{
		pending: make(map[int64]time.Time),
	}
}

// SetAwaitingPhoto marks the user as awaiting a photo. Re-entrant: a second
// /whois_plant simply refreshes the pending timestamp.
func (t *Tracker) SetAwaitingPhoto(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[userID] = time.Now().UTC()
}

// Clear resets the user to idle.
func (t *Tracker) Clear(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, userID)
}

// IsAwaitingPhoto reports whether the user is currently awaiting a photo.
func (t *Tracker) IsAwaitingPhoto(userID int64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.pending[userID]
	return ok
}

// ExpireBefore clears every awaiting entry set before the cutoff and returns
// how many entries were removed. Used by the scheduled state expiry task.
func (t *Tracker) ExpireBefore(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	expired := 0
	for userID, since := range t.pending {
		if since.Before(cutoff) {
			delete(t.pending, userID)
			expired++
		}
	}
	return expired
}

// Len returns the number of users currently awaiting a photo.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.pending)
}
