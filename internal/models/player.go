// internal/models/player.go
package models

import (
	"sync"

	"github.com/google/uuid"
)

// Player is a registered participant. Name and AuthToken never change after creation.
//
// Mu guards CurrentGameID and must be held by whoever moves the player between games.
// Hand and Score belong to the game the player is seated in and are guarded by that game's lock.
type Player struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AuthToken string    `json:"-"`

	// CurrentGameID is uuid.Nil when the player is not seated anywhere.
	CurrentGameID uuid.UUID `json:"-"`
	Hand          *Hand     `json:"-"`

	// Score is nil exactly when the player is not seated in a game.
	Score *int `json:"score,omitempty"`

	Mu sync.Mutex `json:"-"`
}

// InGame reports whether the player is currently seated in a game.
func (p *Player) InGame() bool {
	return p.CurrentGameID != uuid.Nil
}
