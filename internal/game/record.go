// internal/game/record.go
package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cah/internal/models"
)

// TurnRecord is the persisted form of a Turn.
type TurnRecord struct {
	PlayerID uuid.UUID `json:"playerId"`
	CardID   uuid.UUID `json:"cardId"`
}

// RoundRecord is the persisted form of a Round.
type RoundRecord struct {
	ID          uuid.UUID    `json:"id"`
	Number      int          `json:"number"`
	CardCzarID  uuid.UUID    `json:"cardCzarId"`
	BlackCardID uuid.UUID    `json:"blackCardId"`
	PlayFinish  time.Time    `json:"playFinish"`
	PickFinish  time.Time    `json:"pickFinish"`
	RoundFinish time.Time    `json:"roundFinish"`
	Turns       []TurnRecord `json:"turns"`
	WinnerID    *uuid.UUID   `json:"winnerId,omitempty"`
}

// Record is a self-contained snapshot of a game, detached from the live aggregate so it can be
// written out after the game lock is released.
type Record struct {
	ID          uuid.UUID                 `json:"id"`
	Status      Status                    `json:"status"`
	HostID      *uuid.UUID                `json:"hostId,omitempty"`
	PlayerIDs   []uuid.UUID               `json:"playerIds"`
	Scores      map[uuid.UUID]int         `json:"scores"`
	Hands       map[uuid.UUID][]uuid.UUID `json:"hands"`
	BlackDeque  *Deque                    `json:"blackDeque"`
	WhiteDeque  *Deque                    `json:"whiteDeque"`
	PlayerQueue []uuid.UUID               `json:"playerQueue"`
	Round       *RoundRecord              `json:"round,omitempty"`
	Version     int                       `json:"version"`
	ActionIndex int                       `json:"actionIndex"`
	CreatedAt   time.Time                 `json:"createdAt"`
	UpdatedAt   time.Time                 `json:"updatedAt"`
	FinishedAt  *time.Time                `json:"finishedAt,omitempty"`
}

// PlayerRecord is the persisted form of a Player. Hands and scores travel with the game
// snapshot instead, since they are guarded by the game lock.
type PlayerRecord struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	AuthToken     string     `json:"-"`
	CurrentGameID *uuid.UUID `json:"currentGameId,omitempty"`
}

// Record snapshots the game. The caller must hold Mu.
func (g *Game) Record() Record {
	rec := Record{
		ID:          g.ID,
		Status:      g.Status,
		PlayerIDs:   make([]uuid.UUID, 0, len(g.Players)),
		Scores:      g.Scores(),
		Hands:       make(map[uuid.UUID][]uuid.UUID, len(g.Players)),
		Version:     g.Version,
		ActionIndex: g.actionIndex,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
		BlackDeque:  NewDeque(),
		WhiteDeque:  NewDeque(),
	}
	for _, p := range g.Players {
		rec.PlayerIDs = append(rec.PlayerIDs, p.ID)
		if p.Hand != nil {
			rec.Hands[p.ID] = p.Hand.IDs()
		}
	}
	if g.Host != nil {
		id := g.Host.ID
		rec.HostID = &id
	}
	if g.BlackDeque != nil {
		rec.BlackDeque = g.BlackDeque.clone()
	}
	if g.WhiteDeque != nil {
		rec.WhiteDeque = g.WhiteDeque.clone()
	}
	if g.PlayerQueue != nil {
		rec.PlayerQueue = g.PlayerQueue.Items()
	}
	if !g.FinishedAt.IsZero() {
		t := g.FinishedAt
		rec.FinishedAt = &t
	}

	if r := g.CurrentRound; r != nil {
		rr := &RoundRecord{
			ID:          r.ID,
			Number:      r.Number,
			CardCzarID:  r.CardCzar.ID,
			BlackCardID: r.BlackCard.ID,
			PlayFinish:  r.PlayFinish,
			PickFinish:  r.PickFinish,
			RoundFinish: r.RoundFinish,
			Turns:       make([]TurnRecord, 0, len(r.Turns)),
		}
		for _, t := range r.Turns {
			if t.Card == nil {
				continue
			}
			rr.Turns = append(rr.Turns, TurnRecord{PlayerID: t.Player.ID, CardID: t.Card.ID})
		}
		if r.Winner != nil {
			id := r.Winner.Player.ID
			rr.WinnerID = &id
		}
		rec.Round = rr
	}
	return rec
}

// NewPlayerRecord snapshots p. The caller must hold p.Mu.
func NewPlayerRecord(p *models.Player) PlayerRecord {
	rec := PlayerRecord{
		ID:        p.ID,
		Name:      p.Name,
		AuthToken: p.AuthToken,
	}
	if p.InGame() {
		id := p.CurrentGameID
		rec.CurrentGameID = &id
	}
	return rec
}

// restore loads rec into a fresh game. Only players present in seated take their seats back;
// the hands and played cards of everyone else return to the white deck.
func (g *Game) restore(rec Record, seated map[uuid.UUID]*models.Player) error {
	g.ID = rec.ID
	g.log = g.log.WithField("game_id", rec.ID)
	g.Status = rec.Status
	g.Version = rec.Version
	g.actionIndex = rec.ActionIndex
	g.CreatedAt = rec.CreatedAt
	g.UpdatedAt = rec.UpdatedAt
	if rec.FinishedAt != nil {
		g.FinishedAt = *rec.FinishedAt
	}
	g.BlackDeque = rec.BlackDeque
	g.WhiteDeque = rec.WhiteDeque
	if g.BlackDeque == nil || g.WhiteDeque == nil {
		return fmt.Errorf("snapshot of game %s has no decks", rec.ID)
	}

	g.PlayerQueue = NewQueue()
	for _, id := range rec.PlayerQueue {
		if seated[id] != nil {
			g.PlayerQueue.Push(id)
		}
	}

	for _, id := range rec.PlayerIDs {
		p := seated[id]
		if p == nil {
			g.WhiteDeque.AddCards(rec.Hands[id]...)
			continue
		}
		p.CurrentGameID = g.ID
		p.Hand = nil
		if ids, ok := rec.Hands[id]; ok {
			p.Hand = models.NewHand()
			for _, cardID := range ids {
				if card, ok := g.catalog.Get(cardID); ok {
					p.Hand.Add(card)
				}
			}
		}
		score := rec.Scores[id]
		p.Score = &score
		g.Players = append(g.Players, p)
	}
	if len(g.Players) == 0 {
		return ErrNotEnoughPlayers
	}

	if rec.HostID != nil {
		g.Host = g.Player(*rec.HostID)
	}
	if g.Host == nil {
		g.Host = g.Players[0]
	}

	if rec.Round != nil {
		if err := g.restoreRound(*rec.Round); err != nil {
			return err
		}
	}
	if len(g.Players) != len(rec.PlayerIDs) {
		g.touch()
	}
	return nil
}

func (g *Game) restoreRound(rr RoundRecord) error {
	black, ok := g.catalog.Get(rr.BlackCardID)
	if !ok {
		return ErrCardDoesNotExist
	}
	czar := g.Player(rr.CardCzarID)
	if czar == nil {
		// the czar left without the round being replaced
		czar = &models.Player{ID: rr.CardCzarID}
	}
	r := &Round{
		ID:          rr.ID,
		GameID:      g.ID,
		Number:      rr.Number,
		CardCzar:    czar,
		BlackCard:   black,
		PlayFinish:  rr.PlayFinish,
		PickFinish:  rr.PickFinish,
		RoundFinish: rr.RoundFinish,
	}
	for _, tr := range rr.Turns {
		card, ok := g.catalog.Get(tr.CardID)
		if !ok {
			continue
		}
		p := g.Player(tr.PlayerID)
		if p == nil {
			g.WhiteDeque.AddCards(card.ID)
			continue
		}
		t := &Turn{Player: p, Card: card}
		r.Turns = append(r.Turns, t)
		if rr.WinnerID != nil && *rr.WinnerID == p.ID {
			r.Winner = t
		}
	}
	g.CurrentRound = r
	g.rounds = rr.Number
	return nil
}
