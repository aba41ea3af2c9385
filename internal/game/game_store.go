// internal/game/game_store.go
package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// GameStore keeps every live game in memory, keyed by id.
type GameStore struct {
	mu    sync.Mutex
	games map[uuid.UUID]*Game
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[uuid.UUID]*Game),
	}
}

func (s *GameStore) AddGame(game *Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = game
}

func (s *GameStore) GetGame(id uuid.UUID) (*Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, exists := s.games[id]
	return g, exists
}

func (s *GameStore) DeleteGame(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
}

func (s *GameStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}

// PruneFinished drops games that finished before cutoff and returns their ids.
// Each game's lock is taken briefly, never while the store lock is held.
func (s *GameStore) PruneFinished(cutoff time.Time) []uuid.UUID {
	s.mu.Lock()
	candidates := make([]*Game, 0, len(s.games))
	for _, g := range s.games {
		candidates = append(candidates, g)
	}
	s.mu.Unlock()

	var pruned []uuid.UUID
	for _, g := range candidates {
		g.Mu.Lock()
		expired := g.Status == StatusFinished && !g.FinishedAt.IsZero() && g.FinishedAt.Before(cutoff)
		g.Mu.Unlock()
		if !expired {
			continue
		}
		s.DeleteGame(g.ID)
		pruned = append(pruned, g.ID)
	}
	return pruned
}
