// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list that carries game action records to the historian.
const DefaultQueueName = "cah_actions"

// GameActionRecord holds the minimal info needed by the historian.
type GameActionRecord struct {
	GameID        uuid.UUID              `json:"game_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorID       uuid.UUID              `json:"actor_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// Connect opens a Redis client and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// pendingActions bounds the records waiting for the sender.
const pendingActions = 1024

// ActionQueue is a Redis list of GameActionRecords.
type ActionQueue struct {
	rdb     *redis.Client
	name    string
	timeout time.Duration
	log     *logrus.Entry

	pending   chan GameActionRecord
	startOnce sync.Once
	done      chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewActionQueue wraps the list called name. An empty name selects DefaultQueueName.
func NewActionQueue(rdb *redis.Client, name string, logger *logrus.Entry) *ActionQueue {
	if name == "" {
		name = DefaultQueueName
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ActionQueue{
		rdb:     rdb,
		name:    name,
		timeout: 2 * time.Second,
		log:     logger.WithField("queue", name),
		pending: make(chan GameActionRecord, pendingActions),
		done:    make(chan struct{}),
	}
}

// Publish serializes the record to JSON and pushes it to the tail of the list.
func (q *ActionQueue) Publish(ctx context.Context, record GameActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal GameActionRecord: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.name, err)
	}
	return nil
}

// PublishGameAction hands the record to a single background sender so game locks are never
// held across a network round trip. Records reach Redis in the order they were handed over.
// When the sender falls behind, or after Close, records are logged and dropped.
func (q *ActionQueue) PublishGameAction(record GameActionRecord) {
	q.startOnce.Do(func() { go q.send() })

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.dropped(record, errors.New("queue closed"))
		return
	}
	select {
	case q.pending <- record:
	default:
		q.dropped(record, errors.New("sender backlog full"))
	}
}

// Close stops accepting records and waits for the pending ones to be sent.
func (q *ActionQueue) Close() {
	q.startOnce.Do(func() { go q.send() })

	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.pending)
	}
	q.mu.Unlock()
	<-q.done
}

func (q *ActionQueue) send() {
	defer close(q.done)
	for record := range q.pending {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		err := q.Publish(ctx, record)
		cancel()
		if err != nil {
			q.dropped(record, err)
		}
	}
}

func (q *ActionQueue) dropped(record GameActionRecord, err error) {
	q.log.WithError(err).WithFields(logrus.Fields{
		"game_id":      record.GameID,
		"action_index": record.ActionIndex,
	}).Warn("dropping game action")
}

// Pop blocks up to wait for the next record. It returns (nil, nil) when the wait expires.
func (q *ActionQueue) Pop(ctx context.Context, wait time.Duration) (*GameActionRecord, error) {
	res, err := q.rdb.BLPop(ctx, wait, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// res[0] is the list name, res[1] the payload
	if len(res) < 2 {
		return nil, nil
	}
	var record GameActionRecord
	if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
		return nil, fmt.Errorf("invalid action record: %w", err)
	}
	return &record, nil
}
