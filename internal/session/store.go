package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/italolelis/docx2xlsx/internal/form"
	"github.com/italolelis/docx2xlsx/internal/telemetry"
)

// Store keeps one form controller per browser session in memory.
type Store struct {
	mu          sync.Mutex
	controllers map[string]*form.Controller
	telemetry   *telemetry.Telemetry
}

func NewStore(tel *telemetry.Telemetry) *Store {
	return &Store{
		controllers: make(map[string]*form.Controller),
		telemetry:   tel,
	}
}

// Get returns the controller for id, if any.
func (s *Store) Get(id string) (*form.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.controllers[id]

	return c, ok
}

// GetOrCreate returns the controller for id. When id is empty or unknown a
// new session is created and its id returned.
func (s *Store) GetOrCreate(ctx context.Context, id string) (string, *form.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.controllers[id]; ok && id != "" {
		return id, c
	}

	id = uuid.NewString()
	c := form.NewController()
	s.controllers[id] = c

	s.telemetry.AddSessions(ctx, 1)

	return id, c
}

// DeleteIdle removes every session untouched for ttl and not uploading, and
// returns the removed ids.
func (s *Store) DeleteIdle(ctx context.Context, ttl time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string

	for id, c := range s.controllers {
		if c.Idle(ttl) {
			delete(s.controllers, id)
			removed = append(removed, id)
		}
	}

	if len(removed) > 0 {
		s.telemetry.AddSessions(ctx, -int64(len(removed)))
	}

	return removed
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.controllers)
}
