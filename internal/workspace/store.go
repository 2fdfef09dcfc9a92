package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Store struct {
	mu         sync.Mutex
	workspaces map[string]*Workspace
	idleTTL    time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

func NewStore(idleTTL time.Duration, logger zerolog.Logger) *Store {
	return &Store{
		workspaces: make(map[string]*Workspace),
		idleTTL:    idleTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Get возвращает workspace сессии, создавая его при первом обращении.
func (s *Store) Get(sessionID string) *Workspace {
	now := s.now()

	s.mu.Lock()
	ws, ok := s.workspaces[sessionID]
	if !ok {
		ws = newWorkspace(now)
		s.workspaces[sessionID] = ws
	}
	s.mu.Unlock()

	ws.touch(now)
	return ws
}

func (s *Store) Drop(sessionID string) {
	s.mu.Lock()
	delete(s.workspaces, sessionID)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workspaces)
}

// Sweep удаляет workspace, к которым не обращались дольше idleTTL.
func (s *Store) Sweep() int {
	if s.idleTTL <= 0 {
		return 0
	}
	deadline := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, ws := range s.workspaces {
		if ws.idleSince().Before(deadline) {
			delete(s.workspaces, id)
			removed++
		}
	}
	return removed
}

// RunJanitor чистит устаревшие workspace, пока не отменен ctx.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debug().Int("evicted", n).Msg("Idle workspaces evicted")
			}
		}
	}
}
