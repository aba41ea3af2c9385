// internal/game/rules.go
package game

import (
	"fmt"
	"time"
)

// Rules holds the fixed limits and phase lengths a game is played with.
type Rules struct {
	MinPlayers   int `json:"minPlayers"`
	MaxPlayers   int `json:"maxPlayers"`
	HandSize     int `json:"handSize"`
	WinningScore int `json:"winningScore"`

	PlayPhase   time.Duration `json:"playPhase"`   // time non-czar players have to play
	PickPhase   time.Duration `json:"pickPhase"`   // time the czar has to judge
	FinishDelay time.Duration `json:"finishDelay"` // pause between judgment and the next round
}

// DefaultRules returns the standard party game limits.
func DefaultRules() Rules {
	return Rules{
		MinPlayers:   3,
		MaxPlayers:   10,
		HandSize:     10,
		WinningScore: 3,
		PlayPhase:    300 * time.Second,
		PickPhase:    300 * time.Second,
		FinishDelay:  1 * time.Second,
	}
}

// WithPhases returns a copy of the rules with the given phase lengths. Non-positive values
// keep the current setting.
func (r Rules) WithPhases(play, pick, finish time.Duration) Rules {
	if play > 0 {
		r.PlayPhase = play
	}
	if pick > 0 {
		r.PickPhase = pick
	}
	if finish > 0 {
		r.FinishDelay = finish
	}
	return r
}

// Validate checks that the limits are internally consistent.
func (r Rules) Validate() error {
	if r.MinPlayers < 2 {
		return fmt.Errorf("minPlayers must be at least 2, got %d", r.MinPlayers)
	}
	if r.MaxPlayers < r.MinPlayers {
		return fmt.Errorf("maxPlayers (%d) must not be below minPlayers (%d)", r.MaxPlayers, r.MinPlayers)
	}
	if r.HandSize < 1 {
		return fmt.Errorf("handSize must be positive, got %d", r.HandSize)
	}
	if r.WinningScore < 1 {
		return fmt.Errorf("winningScore must be positive, got %d", r.WinningScore)
	}
	if r.PlayPhase <= 0 || r.PickPhase <= 0 || r.FinishDelay < 0 {
		return fmt.Errorf("phase lengths must be positive")
	}
	return nil
}
