// internal/historian/historian_test.go
package historian

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cah/internal/cache"
	"github.com/jason-s-yu/cah/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) InsertGameActions(ctx context.Context, records []cache.GameActionRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *mockStore) MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error) {
	args := m.Called(ctx, gameID)
	return args.Bool(0), args.Error(1)
}

// chanSource feeds records from a channel and reports an empty queue otherwise.
type chanSource struct {
	records chan cache.GameActionRecord
}

func (c *chanSource) Pop(ctx context.Context, wait time.Duration) (*cache.GameActionRecord, error) {
	select {
	case rec := <-c.records:
		return &rec, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(wait):
		return nil, nil
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func action(gameID uuid.UUID, index int, kind string) cache.GameActionRecord {
	return cache.GameActionRecord{GameID: gameID, ActionIndex: index, ActionType: kind, Timestamp: time.Now().UnixMilli()}
}

func TestFlushesFullBatches(t *testing.T) {
	store := &mockStore{}
	store.On("InsertGameActions", mock.Anything, mock.MatchedBy(func(r []cache.GameActionRecord) bool {
		return len(r) == 2
	})).Return(nil).Twice()

	s := NewService(nil, store, Options{BatchSize: 2, FlushInterval: time.Hour})
	ctx := context.Background()
	gameID := uuid.New()
	for i := 0; i < 5; i++ {
		s.Add(ctx, action(gameID, i, game.ActionCardPlayed))
	}

	assert.Equal(t, 1, s.Pending())
	store.AssertExpectations(t)
}

func TestFailedFlushKeepsRecords(t *testing.T) {
	store := &mockStore{}
	store.On("InsertGameActions", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
	store.On("InsertGameActions", mock.Anything, mock.MatchedBy(func(r []cache.GameActionRecord) bool {
		return len(r) == 3 && r[0].ActionIndex == 0 && r[2].ActionIndex == 2
	})).Return(nil).Once()

	s := NewService(nil, store, Options{BatchSize: 10, FlushInterval: time.Hour})
	ctx := context.Background()
	gameID := uuid.New()
	s.Add(ctx, action(gameID, 0, game.ActionPlayerJoined))
	s.Add(ctx, action(gameID, 1, game.ActionPlayerJoined))

	s.Flush(ctx)
	assert.Equal(t, 2, s.Pending())

	s.Add(ctx, action(gameID, 2, game.ActionRoundStarted))
	s.Flush(ctx)
	assert.Zero(t, s.Pending())
	store.AssertExpectations(t)
}

func TestAbandonsQuietGames(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	quiet, busy, finished := uuid.New(), uuid.New(), uuid.New()

	store := &mockStore{}
	store.On("InsertGameActions", mock.Anything, mock.Anything).Return(nil).Maybe()
	store.On("MarkGameAbandoned", mock.Anything, quiet).Return(true, nil).Once()

	s := NewService(nil, store, Options{
		BatchSize:     100,
		FlushInterval: time.Hour,
		Inactivity:    10 * time.Minute,
		Clock:         clock.Now,
	})
	ctx := context.Background()
	s.Add(ctx, action(quiet, 0, game.ActionPlayerJoined))
	s.Add(ctx, action(finished, 0, game.ActionPlayerJoined))
	s.Add(ctx, action(finished, 1, game.ActionGameFinished))

	clock.Advance(6 * time.Minute)
	s.Add(ctx, action(busy, 0, game.ActionPlayerJoined))
	assert.Empty(t, s.AbandonInactive(ctx))

	clock.Advance(6 * time.Minute)
	assert.Equal(t, []uuid.UUID{quiet}, s.AbandonInactive(ctx))

	// abandoned games are no longer tracked
	assert.Empty(t, s.AbandonInactive(ctx))
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "MarkGameAbandoned", mock.Anything, finished)
	store.AssertNotCalled(t, "MarkGameAbandoned", mock.Anything, busy)
}

func TestRunDrainsQueueAndFlushesOnStop(t *testing.T) {
	var (
		mu     sync.Mutex
		stored []cache.GameActionRecord
	)
	store := &mockStore{}
	store.On("InsertGameActions", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		mu.Lock()
		stored = append(stored, args.Get(1).([]cache.GameActionRecord)...)
		mu.Unlock()
	})

	source := &chanSource{records: make(chan cache.GameActionRecord, 3)}
	s := NewService(source, store, Options{
		BatchSize:     100,
		FlushInterval: time.Hour,
		PopWait:       10 * time.Millisecond,
	})

	gameID := uuid.New()
	for i := 0; i < 3; i++ {
		source.records <- action(gameID, i, game.ActionCardPlayed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return s.Pending() == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, stored, 3)
	assert.Equal(t, 2, stored[2].ActionIndex)
}
