// internal/game/game.go
package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cah/internal/cache"
	"github.com/jason-s-yu/cah/internal/models"
	"github.com/sirupsen/logrus"
)

// Status is the lifecycle stage of a game.
type Status string

const (
	StatusCreated  Status = "CREATED"
	StatusStarted  Status = "STARTED"
	StatusFinished Status = "FINISHED"
)

// Action types published for every state transition.
const (
	ActionPlayerJoined = "player_joined"
	ActionPlayerLeft   = "player_left"
	ActionHostChanged  = "host_changed"
	ActionRoundStarted = "round_started"
	ActionCardPlayed   = "card_played"
	ActionCardPicked   = "card_picked"
	ActionGameFinished = "game_finished"
)

// ActionPublisher receives a record for every state transition of a game.
// Implementations must not block; they are called with the game lock held.
type ActionPublisher interface {
	PublishGameAction(record cache.GameActionRecord)
}

// OnGameEndFunc is invoked once when a game is won, with the final scores of seated players.
type OnGameEndFunc func(gameID uuid.UUID, winnerID uuid.UUID, scores map[uuid.UUID]int)

// Game is the aggregate root of one table: its players, decks, czar rotation and current round.
//
// Every method assumes Mu is held by the caller. Phase changes are never scheduled; they are
// detected by Reconcile, which each operation runs first.
type Game struct {
	ID     uuid.UUID
	Status Status
	Rules  Rules

	Host         *models.Player
	Players      []*models.Player // seating order, earliest first
	CurrentRound *Round

	BlackDeque  *Deque
	WhiteDeque  *Deque
	PlayerQueue *Queue

	CreatedAt  time.Time
	UpdatedAt  time.Time
	FinishedAt time.Time

	// Version increases on every state change.
	Version int

	// Clock returns the current instant. Tests replace it to cross phase boundaries.
	Clock     func() time.Time
	Publisher ActionPublisher
	OnGameEnd OnGameEndFunc

	Mu sync.Mutex

	catalog     *models.Catalog
	log         *logrus.Entry
	actionIndex int
	rounds      int
}

// NewGame builds an empty game drawing from catalog. Decks and the czar queue are created
// lazily by the first Reconcile.
func NewGame(catalog *models.Catalog, rules Rules) *Game {
	id := uuid.New()
	now := time.Now()
	return &Game{
		ID:        id,
		Status:    StatusCreated,
		Rules:     rules,
		CreatedAt: now,
		UpdatedAt: now,
		Clock:     time.Now,
		catalog:   catalog,
		log:       logrus.WithField("game_id", id),
	}
}

// SetLogger scopes the game's log lines under the given entry.
func (g *Game) SetLogger(entry *logrus.Entry) {
	g.log = entry.WithField("game_id", g.ID)
}

// Reconcile brings derived state up to date: it creates the decks and czar queue on first use
// and, once the current round has finished, either ends the game (someone reached the winning
// score) or starts the next round.
func (g *Game) Reconcile() error {
	if g.PlayerQueue == nil {
		g.PlayerQueue = NewQueue()
	}
	if g.BlackDeque == nil {
		g.BlackDeque = newShuffledDeque(g.catalog.BlackIDs())
	}
	if g.WhiteDeque == nil {
		g.WhiteDeque = newShuffledDeque(g.catalog.WhiteIDs())
	}

	if g.Status != StatusStarted || g.CurrentRound == nil {
		return nil
	}
	if g.CurrentRound.State(g.now()) != RoundFinished {
		return nil
	}
	if winner := g.winner(); winner != nil {
		g.finish(winner)
		return nil
	}
	return g.startNewRound()
}

// StartBy starts the first round on behalf of the host. Starting a game that is already
// running is a no-op.
func (g *Game) StartBy(player *models.Player) error {
	if err := g.Reconcile(); err != nil {
		return err
	}
	if g.Status == StatusFinished {
		return ErrGameFinished
	}
	if g.Host == nil || g.Host.ID != player.ID {
		return ErrPermissionDenied
	}
	if len(g.Players) < g.Rules.MinPlayers {
		return ErrNotEnoughPlayers
	}
	if g.Status == StatusStarted {
		return nil
	}
	return g.startNewRound()
}

// PlayCard submits card for player as of the instant the request was made. The czar judges
// during PICK; everybody else plays during PLAY.
func (g *Game) PlayCard(player *models.Player, card *models.Card, asof time.Time) error {
	if err := g.Reconcile(); err != nil {
		return err
	}
	switch g.Status {
	case StatusFinished:
		return ErrGameFinished
	case StatusCreated:
		return ErrGameNotStarted
	}
	if !g.HasPlayer(player.ID) {
		return ErrPlayerNotInGame
	}

	r := g.CurrentRound
	if r == nil {
		return ErrGameNotStarted
	}
	state := r.State(asof)
	if r.CardCzar.ID == player.ID {
		if state != RoundPick {
			return ErrPermissionDenied
		}
		return g.pickCard(player, card, asof)
	}
	if state != RoundPlay {
		return ErrPermissionDenied
	}
	return g.playCard(player, card, asof)
}

// CheckJoin reconciles the game and reports whether player could be seated right now,
// without changing membership.
func (g *Game) CheckJoin(player *models.Player) error {
	if err := g.Reconcile(); err != nil {
		return err
	}
	if g.Status == StatusFinished {
		return ErrGameFinished
	}
	if g.HasPlayer(player.ID) {
		return nil
	}
	if len(g.Players) >= g.Rules.MaxPlayers {
		return ErrGameIsFull
	}
	if g.roundInProgress() && g.WhiteDeque.Size() < g.Rules.HandSize {
		return ErrNotEnoughCards
	}
	return nil
}

// AddPlayer seats player, who must not be seated in another game. Seating someone already at
// the table is a no-op.
func (g *Game) AddPlayer(player *models.Player) error {
	if err := g.CheckJoin(player); err != nil {
		return err
	}
	if g.HasPlayer(player.ID) {
		return nil
	}
	if player.InGame() {
		return fmt.Errorf("player %s is still seated in game %s", player.ID, player.CurrentGameID)
	}

	g.PlayerQueue.Push(player.ID)
	g.Players = append(g.Players, player)
	if g.Host == nil {
		g.Host = player
	}
	player.CurrentGameID = g.ID
	player.Hand = nil
	if g.roundInProgress() {
		if err := g.dealTo(player); err != nil {
			return err
		}
	}
	zero := 0
	player.Score = &zero

	g.touch()
	g.log.WithField("player_id", player.ID).Debug("player joined")
	g.logAction(player.ID, ActionPlayerJoined, map[string]interface{}{"name": player.Name})
	return nil
}

// RemovePlayer unseats player. Their hand goes back into the white deck and a card they
// already played is forfeited. The last player leaving finishes the game; the czar leaving
// before judgment restarts the round. When the decks cannot deal that replacement round the
// player still leaves and the round runs out without a judge.
func (g *Game) RemovePlayer(player *models.Player) error {
	if err := g.Reconcile(); err != nil {
		g.log.WithError(err).Warn("could not advance round before removing player")
	}
	if !g.HasPlayer(player.ID) {
		return ErrPlayerNotInGame
	}

	r := g.CurrentRound
	restartRound := g.Status == StatusStarted && r != nil &&
		r.CardCzar.ID == player.ID && r.State(g.now()) <= RoundPick
	if restartRound && len(g.Players) > 1 {
		if err := g.checkRoundSupply(player); err != nil {
			g.log.WithError(err).WithField("player_id", player.ID).Warn("czar left, keeping the round without a judge")
			restartRound = false
		}
	}

	g.PlayerQueue.Remove(player.ID)
	g.unseat(player.ID)
	if player.Hand != nil {
		g.WhiteDeque.AddCards(player.Hand.IDs()...)
	}
	player.CurrentGameID = uuid.Nil
	player.Hand = nil
	player.Score = nil

	g.touch()
	g.log.WithField("player_id", player.ID).Debug("player left")
	g.logAction(player.ID, ActionPlayerLeft, nil)

	if len(g.Players) == 0 {
		g.Host = nil
		g.Status = StatusFinished
		g.FinishedAt = g.now()
		g.CurrentRound = nil
		g.log.Info("game finished: everybody left")
		g.logAction(uuid.Nil, ActionGameFinished, map[string]interface{}{"reason": "empty"})
		return nil
	}

	if g.Host != nil && g.Host.ID == player.ID {
		g.Host = g.Players[0]
		g.log.WithField("host_id", g.Host.ID).Debug("host re-picked")
		g.logAction(g.Host.ID, ActionHostChanged, nil)
	}

	if r == nil {
		return nil
	}
	if restartRound {
		return g.startNewRound()
	}
	if t := r.RemovePlayer(player); t != nil && t.Card != nil {
		g.WhiteDeque.AddCards(t.Card.ID)
	}
	return nil
}

// HasPlayer reports whether the player with the given id is seated.
func (g *Game) HasPlayer(id uuid.UUID) bool {
	return g.Player(id) != nil
}

// Player returns the seated player with the given id, or nil.
func (g *Game) Player(id uuid.UUID) *models.Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Scores returns the score of every seated player.
func (g *Game) Scores() map[uuid.UUID]int {
	scores := make(map[uuid.UUID]int, len(g.Players))
	for _, p := range g.Players {
		if p.Score != nil {
			scores[p.ID] = *p.Score
		}
	}
	return scores
}

func (g *Game) startNewRound() error {
	if g.Status == StatusFinished {
		return ErrGameFinished
	}
	if len(g.Players) == 0 {
		return ErrNotEnoughPlayers
	}
	if err := g.checkRoundSupply(nil); err != nil {
		return err
	}

	g.recycleRound()
	if g.Status == StatusCreated {
		g.Status = StatusStarted
	}

	czar := g.nextCzar()
	if czar == nil {
		return ErrNotEnoughPlayers
	}

	blackID, err := g.BlackDeque.DrawSingleCard()
	if err != nil {
		return err
	}
	black, ok := g.catalog.Get(blackID)
	if !ok {
		return ErrCardDoesNotExist
	}

	now := g.now()
	playFinish := now.Add(g.Rules.PlayPhase)
	pickFinish := playFinish.Add(g.Rules.PickPhase)

	g.rounds++
	g.CurrentRound = &Round{
		ID:          uuid.New(),
		GameID:      g.ID,
		Number:      g.rounds,
		CardCzar:    czar,
		BlackCard:   black,
		PlayFinish:  playFinish,
		PickFinish:  pickFinish,
		RoundFinish: pickFinish.Add(g.Rules.FinishDelay),
	}

	for _, p := range g.Players {
		if err := g.dealTo(p); err != nil {
			return err
		}
	}

	g.touch()
	g.log.WithFields(logrus.Fields{
		"round":   g.rounds,
		"czar_id": czar.ID,
	}).Debug("round started")
	g.logAction(czar.ID, ActionRoundStarted, map[string]interface{}{
		"round":     g.rounds,
		"blackCard": black.ID,
	})
	return nil
}

// nextCzar rotates the czar queue: the head is popped and pushed straight back to the tail.
// Ids of players no longer seated are dropped on the way.
func (g *Game) nextCzar() *models.Player {
	for i, n := 0, g.PlayerQueue.Len(); i < n; i++ {
		id, ok := g.PlayerQueue.Pop()
		if !ok {
			return nil
		}
		if p := g.Player(id); p != nil {
			g.PlayerQueue.Push(id)
			return p
		}
	}
	return nil
}

func (g *Game) pickCard(czar *models.Player, card *models.Card, asof time.Time) error {
	r := g.CurrentRound
	if r.Winner != nil {
		return ErrPermissionDenied
	}
	t := r.TurnWithCard(card.ID)
	if t == nil {
		return ErrCardIsNotOnTable
	}
	if g.HasPlayer(t.Player.ID) && t.Player.Score != nil {
		score := *t.Player.Score + 1
		t.Player.Score = &score
	}
	r.Winner = t
	r.PickFinish = asof
	r.RoundFinish = asof.Add(g.Rules.FinishDelay)

	g.touch()
	g.log.WithFields(logrus.Fields{
		"round":     r.Number,
		"winner_id": t.Player.ID,
	}).Debug("czar picked a card")
	g.logAction(czar.ID, ActionCardPicked, map[string]interface{}{
		"round":  r.Number,
		"card":   card.ID,
		"winner": t.Player.ID,
	})
	return nil
}

func (g *Game) playCard(player *models.Player, card *models.Card, asof time.Time) error {
	if player.Hand == nil || !player.Hand.Has(card.ID) {
		return ErrPlayerDoesNotHaveCard
	}
	r := g.CurrentRound
	if _, err := r.PlayCard(player, card); err != nil {
		return err
	}
	player.Hand.Remove(card.ID)

	// everybody but the czar has played: judging starts now
	if len(r.Turns)+1 == len(g.Players) {
		r.PlayFinish = asof
		r.PickFinish = asof.Add(g.Rules.PickPhase)
		r.RoundFinish = r.PickFinish.Add(g.Rules.FinishDelay)
	}

	g.touch()
	g.logAction(player.ID, ActionCardPlayed, map[string]interface{}{
		"round": r.Number,
		"card":  card.ID,
	})
	return nil
}

func (g *Game) finish(winner *models.Player) {
	g.Status = StatusFinished
	g.FinishedAt = g.now()
	g.touch()

	scores := g.Scores()
	g.log.WithField("winner_id", winner.ID).Info("game finished")

	payload := map[string]interface{}{"winner": winner.ID}
	byID := make(map[string]int, len(scores))
	for id, s := range scores {
		byID[id.String()] = s
	}
	payload["scores"] = byID
	g.logAction(winner.ID, ActionGameFinished, payload)

	if g.OnGameEnd != nil {
		g.OnGameEnd(g.ID, winner.ID, scores)
	}
}

// winner returns the first seated player holding the winning score.
func (g *Game) winner() *models.Player {
	for _, p := range g.Players {
		if p.Score != nil && *p.Score >= g.Rules.WinningScore {
			return p
		}
	}
	return nil
}

func (g *Game) roundInProgress() bool {
	return g.Status == StatusStarted && g.CurrentRound != nil
}

// checkRoundSupply reports ErrNotEnoughCards if a new round could not be dealt. The cards of
// the current round and the hand of a leaving player count as returned to the decks.
func (g *Game) checkRoundSupply(leaving *models.Player) error {
	black := g.BlackDeque.Size()
	white := g.WhiteDeque.Size()
	if r := g.CurrentRound; r != nil {
		black++
		white += len(r.playedCards())
	}
	if leaving != nil && leaving.Hand != nil {
		white += leaving.Hand.Len()
	}
	if black < 1 {
		return ErrNotEnoughCards
	}

	need := 0
	for _, p := range g.Players {
		if leaving != nil && p.ID == leaving.ID {
			continue
		}
		need += g.shortfall(p)
	}
	if need > white {
		return ErrNotEnoughCards
	}
	return nil
}

// recycleRound returns the current round's black card and played white cards to their decks.
func (g *Game) recycleRound() {
	r := g.CurrentRound
	if r == nil {
		return
	}
	g.BlackDeque.AddCards(r.BlackCard.ID)
	for _, c := range r.playedCards() {
		g.WhiteDeque.AddCards(c.ID)
	}
}

// dealTo tops the player's hand up to the hand size, drawing only the shortfall.
func (g *Game) dealTo(p *models.Player) error {
	if p.Hand == nil {
		p.Hand = models.NewHand()
	}
	n := g.shortfall(p)
	if n <= 0 {
		return nil
	}
	ids, err := g.WhiteDeque.DrawCards(n)
	if err != nil {
		return err
	}
	for _, id := range ids {
		card, ok := g.catalog.Get(id)
		if !ok {
			g.log.WithField("card_id", id).Warn("drew a card missing from the catalog")
			continue
		}
		p.Hand.Add(card)
	}
	return nil
}

func (g *Game) shortfall(p *models.Player) int {
	if p.Hand == nil {
		return g.Rules.HandSize
	}
	return g.Rules.HandSize - p.Hand.Len()
}

func (g *Game) unseat(id uuid.UUID) {
	for i, p := range g.Players {
		if p.ID == id {
			g.Players = append(g.Players[:i:i], g.Players[i+1:]...)
			return
		}
	}
}

func (g *Game) now() time.Time {
	if g.Clock != nil {
		return g.Clock()
	}
	return time.Now()
}

func (g *Game) touch() {
	g.Version++
	g.UpdatedAt = g.now()
}

func (g *Game) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if g.Publisher == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	g.Publisher.PublishGameAction(cache.GameActionRecord{
		GameID:        g.ID,
		ActionIndex:   g.actionIndex,
		ActorID:       actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     g.now().UnixMilli(),
	})
}

func newShuffledDeque(cards []uuid.UUID) *Deque {
	d := NewDeque()
	d.AddCards(cards...)
	d.Shuffle()
	return d
}
