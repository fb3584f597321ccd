// internal/store/memory.go
//
// In-memory session store.
// Live sessions are held here for the duration of play; results reach the
// database through the ledgers, never through this store.
//
// Characteristics:
//   - *game.Session values keyed by session ID, plus a (player, puzzle)
//     index so a returning player resumes the same attempt.
//   - Concurrency-safe via RWMutex; each Session serializes its own
//     transitions.
//   - Idle sessions are pruned by Run.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pano/internal/game"
)

var ErrNotFound = errors.New("session not found")

// Store defines the persistence interface for live sessions.
type Store interface {
	// Save adds or replaces a session.
	Save(ctx context.Context, s *game.Session) error

	// Get retrieves a session by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*game.Session, error)

	// Current returns the latest session player started on puzzle.
	Current(ctx context.Context, player string, puzzle int) (*game.Session, error)

	Delete(ctx context.Context, id string) error

	// Prune removes sessions idle since before cutoff and returns how many.
	Prune(ctx context.Context, cutoff time.Time) int

	Len() int
}

type memory struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session
	owners   map[string]string // player|puzzle -> session ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		sessions: make(map[string]*game.Session),
		owners:   make(map[string]string),
	}
}

func ownerKey(player string, puzzle int) string {
	return player + "|" + strconv.Itoa(puzzle)
}

func (m *memory) Save(ctx context.Context, s *game.Session) error {
	if s == nil || s.ID == "" {
		return errors.New("session without ID")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	if s.Player != "" {
		m.owners[ownerKey(s.Player, s.Puzzle)] = s.ID
	}
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Current(ctx context.Context, player string, puzzle int) (*game.Session, error) {
	if player == "" {
		return nil, ErrNotFound
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[m.owners[ownerKey(player, puzzle)]]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	m.drop(s)
	return nil
}

// drop removes s; callers hold the write lock.
func (m *memory) drop(s *game.Session) {
	delete(m.sessions, s.ID)
	key := ownerKey(s.Player, s.Puzzle)
	if m.owners[key] == s.ID {
		delete(m.owners, key)
	}
}

func (m *memory) Prune(ctx context.Context, cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.Touched().Before(cutoff) {
			m.drop(s)
			n++
		}
	}
	return n
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Run prunes sessions idle for longer than ttl every interval until ctx ends.
func Run(ctx context.Context, st Store, ttl, interval time.Duration) {
	if interval <= 0 {
		interval = ttl / 4
	}
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := st.Prune(ctx, now.Add(-ttl)); n > 0 {
				log.Info().Int("pruned", n).Int("live", st.Len()).Msg("idle sessions pruned")
			}
		}
	}
}
