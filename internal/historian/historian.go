// internal/historian/historian.go drains game action records from the Redis queue into Postgres
// and marks games abandoned when their action stream goes quiet.
package historian

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cah/internal/cache"
	"github.com/jason-s-yu/cah/internal/game"
	"github.com/sirupsen/logrus"
)

// Source yields queued action records. Pop returns (nil, nil) when nothing arrived within wait.
type Source interface {
	Pop(ctx context.Context, wait time.Duration) (*cache.GameActionRecord, error)
}

// Store persists action records and abandons games.
type Store interface {
	InsertGameActions(ctx context.Context, records []cache.GameActionRecord) error
	MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error)
}

type Options struct {
	BatchSize     int
	FlushInterval time.Duration
	// Inactivity is how long a game may go without actions before it is abandoned.
	Inactivity time.Duration
	// CheckInterval is how often inactivity is checked. Defaults to one minute.
	CheckInterval time.Duration
	// PopWait bounds each blocking pop so cancellation is noticed. Defaults to three seconds.
	PopWait time.Duration
	Logger  *logrus.Entry
	Clock   func() time.Time
}

// Service encapsulates the queue reader, the batch writer and the inactivity check.
type Service struct {
	source Source
	store  Store
	opts   Options
	log    *logrus.Entry

	lastActivity sync.Map // map[uuid.UUID]time.Time

	batchMu sync.Mutex
	batch   []cache.GameActionRecord
}

func NewService(source Source, store Store, opts Options) *Service {
	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 5 * time.Second
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = time.Minute
	}
	if opts.PopWait <= 0 {
		opts.PopWait = 3 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{
		source: source,
		store:  store,
		opts:   opts,
		log:    opts.Logger,
		batch:  make([]cache.GameActionRecord, 0, opts.BatchSize),
	}
}

// Run blocks until ctx is cancelled, then flushes whatever is still buffered.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); s.readLoop(ctx) }()
	go func() { defer wg.Done(); s.flushLoop(ctx) }()
	go func() { defer wg.Done(); s.inactivityLoop(ctx) }()

	s.log.Info("historian started")
	wg.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.Flush(flushCtx)
	s.log.Info("historian stopped")
}

func (s *Service) readLoop(ctx context.Context) {
	for ctx.Err() == nil {
		record, err := s.source.Pop(ctx, s.opts.PopWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.WithError(err).Error("failed to pop action record")
			// avoid spinning against a broken connection
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if record == nil {
			continue
		}
		s.Add(ctx, *record)
	}
}

func (s *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

func (s *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.AbandonInactive(ctx)
		}
	}
}

// Add buffers a record and flushes once the batch is full. A finished game stops being tracked
// for inactivity.
func (s *Service) Add(ctx context.Context, record cache.GameActionRecord) {
	if record.ActionType == game.ActionGameFinished {
		s.lastActivity.Delete(record.GameID)
	} else {
		s.lastActivity.Store(record.GameID, s.opts.Clock())
	}

	s.batchMu.Lock()
	s.batch = append(s.batch, record)
	full := len(s.batch) >= s.opts.BatchSize
	s.batchMu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

// Flush writes the buffered records. On failure they are put back for the next attempt.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	pending := s.batch
	s.batch = make([]cache.GameActionRecord, 0, s.opts.BatchSize)
	s.batchMu.Unlock()

	if err := s.store.InsertGameActions(ctx, pending); err != nil {
		s.log.WithError(err).WithField("count", len(pending)).Error("failed to flush actions")
		s.batchMu.Lock()
		s.batch = append(pending, s.batch...)
		s.batchMu.Unlock()
		return
	}
	s.log.WithField("count", len(pending)).Debug("flushed actions")
}

// AbandonInactive marks every tracked game that has been quiet for longer than the inactivity
// timeout. It returns the ids it abandoned.
func (s *Service) AbandonInactive(ctx context.Context) []uuid.UUID {
	now := s.opts.Clock()
	var abandoned []uuid.UUID
	s.lastActivity.Range(func(key, val interface{}) bool {
		gameID, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= s.opts.Inactivity {
			return true
		}
		changed, err := s.store.MarkGameAbandoned(ctx, gameID)
		if err != nil {
			s.log.WithError(err).WithField("game_id", gameID).Error("failed to abandon game")
			return true
		}
		s.lastActivity.Delete(gameID)
		if changed {
			s.log.WithField("game_id", gameID).Info("marked game abandoned due to inactivity")
			abandoned = append(abandoned, gameID)
		}
		return true
	})
	return abandoned
}

// Pending reports how many records are buffered.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}
