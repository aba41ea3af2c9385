package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	if os.Getenv("CAH_INTEGRATION") != "1" {
		t.Skip("set CAH_INTEGRATION=1 to run Redis tests")
	}
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(context.Background()) })

	addr, err := container.PortEndpoint(ctx, "6379/tcp", "")
	require.NoError(t, err)
	return addr
}

func TestActionQueueRoundTrip(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	rdb, err := Connect(ctx, addr, 0)
	require.NoError(t, err)
	defer rdb.Close()

	q := NewActionQueue(rdb, "test_actions", nil)
	gameID := uuid.New()
	first := GameActionRecord{GameID: gameID, ActionIndex: 0, ActionType: "player_joined", Timestamp: time.Now().UnixMilli()}
	require.NoError(t, q.Publish(ctx, first))

	q.PublishGameAction(GameActionRecord{
		GameID:        gameID,
		ActionIndex:   1,
		ActionType:    "card_played",
		ActionPayload: map[string]interface{}{"card_id": "x"},
	})

	got, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first, *got)

	// the async publish lands shortly after
	got, err = q.Pop(ctx, 2*time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.ActionIndex)
	assert.Equal(t, "x", got.ActionPayload["card_id"])

	got, err = q.Pop(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, got, "an empty queue times out quietly")
}

func TestActionQueueKeepsOrder(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	rdb, err := Connect(ctx, addr, 0)
	require.NoError(t, err)
	defer rdb.Close()

	q := NewActionQueue(rdb, "ordered_actions", nil)
	gameID := uuid.New()
	for i := 0; i < 50; i++ {
		q.PublishGameAction(GameActionRecord{GameID: gameID, ActionIndex: i, ActionType: "card_played"})
	}
	q.Close()

	for i := 0; i < 50; i++ {
		got, err := q.Pop(ctx, time.Second)
		require.NoError(t, err)
		require.NotNil(t, got, "record %d", i)
		assert.Equal(t, i, got.ActionIndex)
	}
}

func TestActionQueueDropsAfterClose(t *testing.T) {
	logger, hook := test.NewNullLogger()
	q := NewActionQueue(nil, "", logrus.NewEntry(logger))
	q.Close()
	q.Close()

	q.PublishGameAction(GameActionRecord{GameID: uuid.New(), ActionIndex: 7})
	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, 7, entry.Data["action_index"])
	assert.Equal(t, DefaultQueueName, entry.Data["queue"])
}
