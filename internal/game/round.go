// internal/game/round.go
package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cah/internal/models"
)

// RoundState is the phase of a round. It is derived from the round's timestamps and the
// instant it is evaluated at; it is never stored.
type RoundState int

const (
	RoundPlay RoundState = iota + 1
	RoundPick
	RoundWaitingFinish
	RoundFinished
)

func (s RoundState) String() string {
	switch s {
	case RoundPlay:
		return "PLAY"
	case RoundPick:
		return "PICK"
	case RoundWaitingFinish:
		return "WAITING_FINISH"
	case RoundFinished:
		return "FINISHED"
	}
	return "UNKNOWN"
}

// Turn is one player's card on the table.
type Turn struct {
	Player *models.Player
	Card   *models.Card
}

// Round is one play/pick cycle around a single black card.
type Round struct {
	ID        uuid.UUID
	GameID    uuid.UUID
	Number    int
	CardCzar  *models.Player
	BlackCard *models.Card

	PlayFinish  time.Time
	PickFinish  time.Time
	RoundFinish time.Time

	Turns []*Turn

	// Winner is the turn the czar picked, nil until judged.
	Winner *Turn
}

// State evaluates the round's phase at asof. An instant exactly on a boundary belongs to the
// earlier phase.
func (r *Round) State(asof time.Time) RoundState {
	switch {
	case !asof.After(r.PlayFinish):
		return RoundPlay
	case !asof.After(r.PickFinish):
		return RoundPick
	case !asof.After(r.RoundFinish):
		return RoundWaitingFinish
	default:
		return RoundFinished
	}
}

// PlayCard records the player's card. A player gets one turn per round.
func (r *Round) PlayCard(player *models.Player, card *models.Card) (*Turn, error) {
	if r.TurnOf(player.ID) != nil {
		return nil, ErrPlayerHasAlreadyPlayed
	}
	t := &Turn{Player: player, Card: card}
	r.Turns = append(r.Turns, t)
	return t, nil
}

// RemovePlayer drops the player's turn, if any, and returns it.
func (r *Round) RemovePlayer(player *models.Player) *Turn {
	for i, t := range r.Turns {
		if t.Player.ID != player.ID {
			continue
		}
		r.Turns = append(r.Turns[:i:i], r.Turns[i+1:]...)
		if r.Winner == t {
			r.Winner = nil
		}
		return t
	}
	return nil
}

// TurnOf returns the player's turn in this round, or nil.
func (r *Round) TurnOf(playerID uuid.UUID) *Turn {
	for _, t := range r.Turns {
		if t.Player.ID == playerID {
			return t
		}
	}
	return nil
}

// TurnWithCard returns the turn that put the given card on the table, or nil.
func (r *Round) TurnWithCard(cardID uuid.UUID) *Turn {
	for _, t := range r.Turns {
		if t.Card != nil && t.Card.ID == cardID {
			return t
		}
	}
	return nil
}

// playedCards lists the white cards currently on the table in play order.
func (r *Round) playedCards() []*models.Card {
	cards := make([]*models.Card, 0, len(r.Turns))
	for _, t := range r.Turns {
		if t.Card != nil {
			cards = append(cards, t.Card)
		}
	}
	return cards
}
