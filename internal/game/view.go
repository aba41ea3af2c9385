// internal/game/view.go
package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cah/internal/models"
)

// PlayerView is one player as seen by the holder of a credential. The hand is only revealed
// to its owner.
type PlayerView struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	Hand          []*models.Card `json:"hand,omitempty"`
	Score         *int           `json:"score,omitempty"`
	CurrentGameID *uuid.UUID     `json:"currentGameId,omitempty"`
}

// GameView is the snapshot handed to polling clients.
type GameView struct {
	ID      uuid.UUID    `json:"id"`
	Players []PlayerView `json:"players"`
	Status  Status       `json:"status"`
	HostID  *uuid.UUID   `json:"hostId,omitempty"`

	// Round fields are present while a round exists.
	CardCzarID  *uuid.UUID     `json:"cardCzarId,omitempty"`
	BlackCard   *models.Card   `json:"blackCard,omitempty"`
	WhiteCards  []*models.Card `json:"whiteCards,omitempty"`
	WinnerID    *uuid.UUID     `json:"winnerId,omitempty"`
	RoundNumber int            `json:"round,omitempty"`
	RoundState  string         `json:"roundState,omitempty"`
	PlayFinish  *time.Time     `json:"playFinish,omitempty"`
	PickFinish  *time.Time     `json:"pickFinish,omitempty"`
	RoundFinish *time.Time     `json:"roundFinish,omitempty"`
}

// NewPlayerView renders p for the holder of authToken. The caller must hold the lock of the
// game p is seated in, if any.
func NewPlayerView(p *models.Player, authToken string) PlayerView {
	v := PlayerView{ID: p.ID, Name: p.Name}
	if authToken != "" && authToken == p.AuthToken {
		if p.Hand != nil {
			v.Hand = p.Hand.Cards()
		}
		if p.InGame() {
			id := p.CurrentGameID
			v.CurrentGameID = &id
		}
	}
	if p.Score != nil {
		score := *p.Score
		v.Score = &score
	}
	return v
}

// View renders the game for the holder of authToken as of now. It does not reconcile; callers
// run Reconcile first.
func (g *Game) View(authToken string) GameView {
	v := GameView{
		ID:      g.ID,
		Players: make([]PlayerView, 0, len(g.Players)),
		Status:  g.Status,
	}
	for _, p := range g.Players {
		v.Players = append(v.Players, NewPlayerView(p, authToken))
	}
	if g.Host != nil {
		id := g.Host.ID
		v.HostID = &id
	}

	r := g.CurrentRound
	if r == nil {
		return v
	}
	state := r.State(g.now())
	czarID := r.CardCzar.ID
	playFinish, pickFinish, roundFinish := r.PlayFinish, r.PickFinish, r.RoundFinish

	v.CardCzarID = &czarID
	v.BlackCard = r.BlackCard
	v.RoundNumber = r.Number
	v.RoundState = state.String()
	v.PlayFinish = &playFinish
	v.PickFinish = &pickFinish
	v.RoundFinish = &roundFinish

	if state > RoundPlay {
		v.WhiteCards = r.playedCards()
	}
	if r.Winner != nil {
		id := r.Winner.Player.ID
		v.WinnerID = &id
	}
	return v
}
