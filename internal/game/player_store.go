// internal/game/player_store.go
package game

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cah/internal/models"
)

// PlayerStore indexes live players by id and by credential.
type PlayerStore struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*models.Player
	byToken map[string]*models.Player
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{
		byID:    make(map[uuid.UUID]*models.Player),
		byToken: make(map[string]*models.Player),
	}
}

// AddPlayer indexes p. If a player with the same id is already known, that instance is kept
// and returned so every caller shares one mutex per player.
func (s *PlayerStore) AddPlayer(p *models.Player) *models.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byID[p.ID]; ok {
		return existing
	}
	s.byID[p.ID] = p
	if p.AuthToken != "" {
		s.byToken[p.AuthToken] = p
	}
	return p
}

func (s *PlayerStore) GetPlayer(id uuid.UUID) (*models.Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	return p, ok
}

func (s *PlayerStore) GetPlayerByToken(token string) (*models.Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byToken[token]
	return p, ok
}

func (s *PlayerStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
