package cart

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

type session struct {
	cart     *Cart
	lastSeen time.Time
}

const DefaultSessionLimit = 10000

// Sessions keeps one cart per browsing session. Carts live in memory only
// and are dropped after idleTTL without activity. At most limit sessions are
// held; a new session beyond that replaces the least recently used one.
type Sessions struct {
	mu       sync.Mutex
	idleTTL  time.Duration
	limit    int
	now      func() time.Time
	sessions map[string]*session
}

func NewSessions(idleTTL time.Duration, limit int) *Sessions {
	if idleTTL <= 0 {
		idleTTL = 2 * time.Hour
	}
	if limit <= 0 {
		limit = DefaultSessionLimit
	}
	return &Sessions{
		idleTTL:  idleTTL,
		limit:    limit,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Acquire returns the cart for id, creating a fresh session when id is
// unknown, malformed or expired. The returned id is the one to hand back to
// the client.
func (s *Sessions) Acquire(id string) (string, *Cart) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := uuid.Parse(id); err == nil {
		if existing, ok := s.sessions[id]; ok && now.Sub(existing.lastSeen) < s.idleTTL {
			existing.lastSeen = now
			return id, existing.cart
		}
		delete(s.sessions, id)
	}

	if len(s.sessions) >= s.limit {
		s.evictLocked(now)
	}

	newID := uuid.NewString()
	created := &session{cart: New(), lastSeen: now}
	s.sessions[newID] = created
	return newID, created.cart
}

// evictLocked drops expired sessions, or the least recently used one when
// none have expired.
func (s *Sessions) evictLocked(now time.Time) {
	var (
		oldestID string
		oldestAt time.Time
	)
	expired := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) >= s.idleTTL {
			delete(s.sessions, id)
			expired++
			continue
		}
		if oldestID == "" || sess.lastSeen.Before(oldestAt) {
			oldestID, oldestAt = id, sess.lastSeen
		}
	}
	if expired == 0 && oldestID != "" {
		delete(s.sessions, oldestID)
	}
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops idle sessions and reports how many were removed.
func (s *Sessions) Sweep() int {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if !sess.lastSeen.After(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps every interval until stop is closed.
func (s *Sessions) RunSweeper(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				log.Printf("[sessions] swept %d idle carts, %d active", removed, s.Len())
			}
		}
	}
}
