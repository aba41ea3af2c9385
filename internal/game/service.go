// internal/game/service.go
package game

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cah/internal/models"
	"github.com/sirupsen/logrus"
)

// MaxPlayerLookup caps the number of ids accepted by GetPlayers.
const MaxPlayerLookup = 20

var playerNamePattern = regexp.MustCompile(`^[\p{L}\p{N}_-]{1,32}$`)

// TokenIssuer issues player credentials and maps them back to a player id.
type TokenIssuer interface {
	CreateJWT(subject string) (string, error)
	AuthenticateJWT(token string) (string, error)
}

// PlayerRepository stores player rows. GetPlayer returns ErrPlayerNotFound for unknown ids.
type PlayerRepository interface {
	CreatePlayer(ctx context.Context, rec PlayerRecord) error
	SavePlayer(ctx context.Context, rec PlayerRecord) error
	GetPlayer(ctx context.Context, id uuid.UUID) (*PlayerRecord, error)
	GetPlayers(ctx context.Context, ids []uuid.UUID) ([]PlayerRecord, error)
}

// GameRepository stores game snapshots and final results.
type GameRepository interface {
	SaveGame(ctx context.Context, rec Record) error
	RecordGameResults(ctx context.Context, gameID, winnerID uuid.UUID, scores map[uuid.UUID]int) error
}

type Repository interface {
	PlayerRepository
	GameRepository
}

// Options configures a Service. Only Catalog and Tokens are required.
type Options struct {
	Rules     Rules
	Catalog   *models.Catalog
	Tokens    TokenIssuer
	Repo      Repository // nil keeps everything in memory
	Publisher ActionPublisher
	Logger    *logrus.Entry
	Clock     func() time.Time
}

// Service implements the player-facing entry points on top of the engine. It resolves
// credentials, takes the player lock and then the game lock(s), runs the engine operation and
// writes snapshots of whatever changed.
type Service struct {
	rules     Rules
	catalog   *models.Catalog
	tokens    TokenIssuer
	repo      Repository
	publisher ActionPublisher
	log       *logrus.Entry
	clock     func() time.Time

	games   *GameStore
	players *PlayerStore
}

func NewService(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Rules == (Rules{}) {
		opts.Rules = DefaultRules()
	}
	return &Service{
		rules:     opts.Rules,
		catalog:   opts.Catalog,
		tokens:    opts.Tokens,
		repo:      opts.Repo,
		publisher: opts.Publisher,
		log:       opts.Logger.WithField("component", "game"),
		clock:     opts.Clock,
		games:     NewGameStore(),
		players:   NewPlayerStore(),
	}
}

// Games exposes the in-memory game store.
func (s *Service) Games() *GameStore {
	return s.games
}

// CreatePlayer registers a new player and returns their credential.
func (s *Service) CreatePlayer(ctx context.Context, name string) (string, error) {
	if !playerNamePattern.MatchString(name) {
		return "", ErrInvalidPlayerName
	}
	id := uuid.New()
	token, err := s.tokens.CreateJWT(id.String())
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	p := &models.Player{ID: id, Name: name, AuthToken: token}

	if s.repo != nil {
		if err := s.repo.CreatePlayer(ctx, NewPlayerRecord(p)); err != nil {
			return "", fmt.Errorf("create player: %w", err)
		}
	}
	s.players.AddPlayer(p)
	s.log.WithField("player_id", id).Info("player created")
	return token, nil
}

// GetPlayers returns public views of the known players among ids. Unknown ids are skipped.
func (s *Service) GetPlayers(ctx context.Context, ids []uuid.UUID) ([]PlayerView, error) {
	if len(ids) > MaxPlayerLookup {
		return nil, ErrTooManyPlayerIDs
	}

	views := make([]PlayerView, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	var missing []uuid.UUID
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := s.players.GetPlayer(id); ok {
			views = append(views, s.playerView(p, ""))
			continue
		}
		missing = append(missing, id)
	}

	if s.repo == nil || len(missing) == 0 {
		return views, nil
	}
	recs, err := s.repo.GetPlayers(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	for _, rec := range recs {
		p := s.players.AddPlayer(playerFromRecord(rec))
		views = append(views, s.playerView(p, ""))
	}
	return views, nil
}

// GetPlayer returns the view of the credential's owner, hand included.
func (s *Service) GetPlayer(ctx context.Context, token string) (PlayerView, error) {
	p, err := s.resolvePlayer(ctx, token)
	if err != nil {
		return PlayerView{}, err
	}
	return s.playerView(p, token), nil
}

// CreateGame leaves the player's current game, if any, and seats them as host of a new one.
func (s *Service) CreateGame(ctx context.Context, token string) (uuid.UUID, error) {
	p, err := s.resolvePlayer(ctx, token)
	if err != nil {
		return uuid.Nil, err
	}

	var changes changeSet
	g := s.newGame()
	err = func() error {
		p.Mu.Lock()
		defer p.Mu.Unlock()

		if cur := s.seatedGame(p); cur != nil {
			cur.Mu.Lock()
			since := cur.Version
			err := cur.RemovePlayer(p)
			changes.addGame(cur, since)
			cur.Mu.Unlock()
			if err != nil {
				return err
			}
		}

		g.Mu.Lock()
		defer g.Mu.Unlock()
		if err := g.AddPlayer(p); err != nil {
			return err
		}
		// publish the game before p.Mu is released: the seat must always resolve
		s.games.AddGame(g)
		changes.addGame(g, -1)
		changes.addPlayer(p)
		return nil
	}()
	if err != nil {
		s.persist(ctx, &changes)
		return uuid.Nil, err
	}

	s.log.WithFields(logrus.Fields{"game_id": g.ID, "player_id": p.ID}).Info("game created")
	if err := s.persist(ctx, &changes); err != nil {
		return uuid.Nil, err
	}
	return g.ID, nil
}

// GetGame reconciles the game and renders it for the holder of token.
func (s *Service) GetGame(ctx context.Context, gameID uuid.UUID, token string) (GameView, error) {
	g, ok := s.games.GetGame(gameID)
	if !ok {
		return GameView{}, ErrGameNotFound
	}

	var changes changeSet
	g.Mu.Lock()
	since := g.Version
	if err := g.Reconcile(); err != nil {
		g.log.WithError(err).Warn("could not advance round")
	}
	view := g.View(token)
	changes.addGame(g, since)
	g.Mu.Unlock()

	if err := s.persist(ctx, &changes); err != nil {
		s.log.WithError(err).Error("failed to store reconciled game")
	}
	return view, nil
}

// JoinGame moves the player into gameID. The target is validated before the player leaves
// their current game, so a failed join leaves them where they were.
func (s *Service) JoinGame(ctx context.Context, token string, gameID uuid.UUID) error {
	p, err := s.resolvePlayer(ctx, token)
	if err != nil {
		return err
	}
	target, ok := s.games.GetGame(gameID)
	if !ok {
		return ErrGameNotFound
	}

	var changes changeSet
	err = func() error {
		p.Mu.Lock()
		defer p.Mu.Unlock()

		cur := s.seatedGame(p)
		if cur == target {
			return nil
		}
		unlock := lockGames(target, cur)
		defer unlock()

		since := target.Version
		defer func() { changes.addGame(target, since) }()
		if err := target.CheckJoin(p); err != nil {
			return err
		}
		if cur != nil {
			curSince := cur.Version
			err := cur.RemovePlayer(p)
			changes.addGame(cur, curSince)
			if err != nil {
				return err
			}
		}
		if err := target.AddPlayer(p); err != nil {
			return err
		}
		changes.addPlayer(p)
		return nil
	}()
	if perr := s.persist(ctx, &changes); perr != nil && err == nil {
		err = perr
	}
	return err
}

// StartGame starts the player's current game on their behalf.
func (s *Service) StartGame(ctx context.Context, token string) error {
	return s.withSeatedGame(ctx, token, func(p *models.Player, g *Game) error {
		return g.StartBy(p)
	})
}

// PlayCard plays or judges cardID. The phase is evaluated as of the moment the request arrived.
func (s *Service) PlayCard(ctx context.Context, token string, cardID uuid.UUID) error {
	asof := s.clock()
	return s.withSeatedGame(ctx, token, func(p *models.Player, g *Game) error {
		card, ok := s.catalog.Get(cardID)
		if !ok {
			return ErrCardDoesNotExist
		}
		return g.PlayCard(p, card, asof)
	})
}

// LeaveGame unseats the player from their current game.
func (s *Service) LeaveGame(ctx context.Context, token string) error {
	var leaver *models.Player
	return s.withSeatedGame(ctx, token, func(p *models.Player, g *Game) error {
		leaver = p
		return g.RemovePlayer(p)
	}, func(c *changeSet) {
		if leaver != nil && !leaver.InGame() {
			c.addPlayer(leaver)
		}
	})
}

// Restore brings stored games that were still running back into memory, typically once at
// startup before requests are served. A player takes their seat back only if their own row
// still points at the game. Games that cannot be rebuilt are skipped.
func (s *Service) Restore(ctx context.Context, recs []Record) (int, error) {
	if s.repo == nil || len(recs) == 0 {
		return 0, nil
	}

	var ids []uuid.UUID
	for _, rec := range recs {
		ids = append(ids, rec.PlayerIDs...)
	}
	players := make(map[uuid.UUID]PlayerRecord, len(ids))
	for start := 0; start < len(ids); start += MaxPlayerLookup {
		end := start + MaxPlayerLookup
		if end > len(ids) {
			end = len(ids)
		}
		batch, err := s.repo.GetPlayers(ctx, ids[start:end])
		if err != nil {
			return 0, fmt.Errorf("load players: %w", err)
		}
		for _, rec := range batch {
			players[rec.ID] = rec
		}
	}

	restored := 0
	for _, rec := range recs {
		if _, ok := s.games.GetGame(rec.ID); ok {
			continue
		}
		seated := make(map[uuid.UUID]*models.Player, len(rec.PlayerIDs))
		for _, id := range rec.PlayerIDs {
			prec, ok := players[id]
			if !ok || prec.CurrentGameID == nil || *prec.CurrentGameID != rec.ID {
				continue
			}
			if _, known := s.players.GetPlayer(id); known {
				continue
			}
			seated[id] = playerFromRecord(prec)
		}

		g := s.newGame()
		g.Mu.Lock()
		err := g.restore(rec, seated)
		var changes changeSet
		if err == nil {
			for _, p := range g.Players {
				s.players.AddPlayer(p)
			}
			s.games.AddGame(g)
			changes.addGame(g, rec.Version)
		}
		g.Mu.Unlock()
		if err != nil {
			s.log.WithError(err).WithField("game_id", rec.ID).Warn("could not restore game")
			continue
		}
		if err := s.persist(ctx, &changes); err != nil {
			return restored, err
		}
		restored++
	}
	s.log.WithField("count", restored).Info("restored games")
	return restored, nil
}

// PruneFinished drops games that finished more than maxAge ago.
func (s *Service) PruneFinished(maxAge time.Duration) int {
	pruned := s.games.PruneFinished(s.clock().Add(-maxAge))
	if len(pruned) > 0 {
		s.log.WithField("count", len(pruned)).Info("pruned finished games")
	}
	return len(pruned)
}

// withSeatedGame runs op with the player's lock and their game's lock held, then persists
// the game if it changed. extra hooks run under the same locks after op.
func (s *Service) withSeatedGame(ctx context.Context, token string, op func(*models.Player, *Game) error, extra ...func(*changeSet)) error {
	p, err := s.resolvePlayer(ctx, token)
	if err != nil {
		return err
	}

	var changes changeSet
	err = func() error {
		p.Mu.Lock()
		defer p.Mu.Unlock()

		g := s.seatedGame(p)
		if g == nil {
			return ErrPlayerNotInGame
		}
		g.Mu.Lock()
		defer g.Mu.Unlock()

		since := g.Version
		err := op(p, g)
		changes.addGame(g, since)
		for _, fn := range extra {
			fn(&changes)
		}
		return err
	}()
	if perr := s.persist(ctx, &changes); perr != nil && err == nil {
		err = perr
	}
	return err
}

// resolvePlayer maps a credential to its player. Any credential that does not verify, or that
// names an unknown player, is reported as ErrPlayerNotFound.
func (s *Service) resolvePlayer(ctx context.Context, token string) (*models.Player, error) {
	if token == "" {
		return nil, ErrPlayerNotFound
	}
	if p, ok := s.players.GetPlayerByToken(token); ok {
		return p, nil
	}

	subject, err := s.tokens.AuthenticateJWT(token)
	if err != nil {
		return nil, ErrPlayerNotFound
	}
	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrPlayerNotFound
	}
	if p, ok := s.players.GetPlayer(id); ok {
		if p.AuthToken != token {
			return nil, ErrPlayerNotFound
		}
		return p, nil
	}
	if s.repo == nil {
		return nil, ErrPlayerNotFound
	}

	rec, err := s.repo.GetPlayer(ctx, id)
	if errors.Is(err, ErrPlayerNotFound) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load player: %w", err)
	}
	if rec.AuthToken != token {
		return nil, ErrPlayerNotFound
	}
	return s.players.AddPlayer(playerFromRecord(*rec)), nil
}

// seatedGame returns the live game p is seated in. A seat in a game that is no longer held in
// memory is cleared. The caller must hold p.Mu.
//
// A game leaves the store only after it finished and was pruned, and a finished game never
// deals to or scores its players again, so Hand and Score are safe to clear without its lock.
func (s *Service) seatedGame(p *models.Player) *Game {
	if !p.InGame() {
		return nil
	}
	g, ok := s.games.GetGame(p.CurrentGameID)
	if !ok {
		p.CurrentGameID = uuid.Nil
		p.Hand = nil
		p.Score = nil
		return nil
	}
	return g
}

func (s *Service) playerView(p *models.Player, token string) PlayerView {
	p.Mu.Lock()
	defer p.Mu.Unlock()

	g := s.seatedGame(p)
	if g == nil {
		return NewPlayerView(p, token)
	}
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return NewPlayerView(p, token)
}

func (s *Service) newGame() *Game {
	g := NewGame(s.catalog, s.rules)
	now := s.clock()
	g.CreatedAt = now
	g.UpdatedAt = now
	g.Clock = s.clock
	g.Publisher = s.publisher
	g.OnGameEnd = s.recordResults
	g.SetLogger(s.log)
	return g
}

// recordResults stores final scores. It runs under the game lock, so the write is detached.
func (s *Service) recordResults(gameID, winnerID uuid.UUID, scores map[uuid.UUID]int) {
	if s.repo == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.repo.RecordGameResults(ctx, gameID, winnerID, scores); err != nil {
			s.log.WithError(err).WithField("game_id", gameID).Error("failed to record game results")
		}
	}()
}

func (s *Service) persist(ctx context.Context, c *changeSet) error {
	if s.repo == nil {
		return nil
	}
	for _, rec := range c.games {
		if err := s.repo.SaveGame(ctx, rec); err != nil {
			s.log.WithError(err).WithField("game_id", rec.ID).Error("failed to store game")
			return fmt.Errorf("save game %s: %w", rec.ID, err)
		}
	}
	for _, rec := range c.players {
		if err := s.repo.SavePlayer(ctx, rec); err != nil {
			s.log.WithError(err).WithField("player_id", rec.ID).Error("failed to store player")
			return fmt.Errorf("save player %s: %w", rec.ID, err)
		}
	}
	return nil
}

// changeSet collects snapshots taken under lock for writing once the locks are released.
type changeSet struct {
	games   []Record
	players []PlayerRecord
}

// addGame snapshots g if its version moved past since. The caller must hold g.Mu.
func (c *changeSet) addGame(g *Game, since int) {
	if g.Version == since {
		return
	}
	c.games = append(c.games, g.Record())
}

// addPlayer snapshots p. The caller must hold p.Mu.
func (c *changeSet) addPlayer(p *models.Player) {
	c.players = append(c.players, NewPlayerRecord(p))
}

// lockGames locks the given games in id order and returns a func releasing them.
// Nil games are skipped.
func lockGames(a, b *Game) func() {
	if b == nil {
		a.Mu.Lock()
		return a.Mu.Unlock
	}
	first, second := a, b
	if b.ID.String() < a.ID.String() {
		first, second = b, a
	}
	first.Mu.Lock()
	second.Mu.Lock()
	return func() {
		second.Mu.Unlock()
		first.Mu.Unlock()
	}
}

func playerFromRecord(rec PlayerRecord) *models.Player {
	return &models.Player{
		ID:        rec.ID,
		Name:      rec.Name,
		AuthToken: rec.AuthToken,
	}
}
