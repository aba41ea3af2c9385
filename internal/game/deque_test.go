// internal/game/deque_test.go
package game

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

func TestDequeDrawAllReturnsEveryCard(t *testing.T) {
	ids := newIDs(3)
	d := NewDeque()
	d.AddCards(ids...)
	d.AddCards(ids[0]) // duplicates are kept
	d.Shuffle()
	require.Equal(t, 4, d.Size())

	drawn, err := d.DrawCards(4)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{ids[0], ids[0], ids[1], ids[2]}, drawn)
	assert.Equal(t, 0, d.Size())
	assert.Empty(t, d.Cards())
}

func TestDequeDrawTooManyLeavesDequeUntouched(t *testing.T) {
	d := NewDeque()
	d.AddCards(newIDs(3)...)
	d.Shuffle()
	cards, order := d.Cards(), d.Order()

	_, err := d.DrawCards(4)
	assert.ErrorIs(t, err, ErrNotEnoughCards)
	_, err = d.DrawCards(-1)
	assert.ErrorIs(t, err, ErrNotEnoughCards)

	assert.Equal(t, 3, d.Size())
	assert.Equal(t, cards, d.Cards())
	assert.Equal(t, order, d.Order())
}

func TestDequeDrawWithoutShuffleReshufflesFirst(t *testing.T) {
	d := NewDeque()
	d.AddCards(newIDs(3)...)
	require.Empty(t, d.Order())

	drawn, err := d.DrawCards(2)
	require.NoError(t, err)
	assert.Len(t, drawn, 2)
	assert.Equal(t, 1, d.Size())
	assert.Len(t, d.Order(), 1)
}

func TestDequeReturnedCardsWaitForNextCycle(t *testing.T) {
	d := NewDeque()
	d.AddCards(newIDs(5)...)
	d.Shuffle()

	first, err := d.DrawCards(2)
	require.NoError(t, err)
	rest := d.Order()

	// back in the pile, but not in the current draw order
	d.AddCards(first...)
	assert.Equal(t, 5, d.Size())

	next, err := d.DrawCards(3)
	require.NoError(t, err)
	assert.Equal(t, rest, next)

	last, err := d.DrawCards(2)
	require.NoError(t, err)
	assert.ElementsMatch(t, first, last)
	assert.Equal(t, 0, d.Size())
}

func TestDequeDrawSpanningReshuffleNeverRepeats(t *testing.T) {
	ids := newIDs(6)
	d := NewDeque()
	d.AddCards(ids...)
	d.Shuffle()

	gone, err := d.DrawCards(4)
	require.NoError(t, err)
	d.AddCards(gone[0])

	drawn, err := d.DrawCards(3)
	require.NoError(t, err)
	assert.Len(t, drawn, 3)
	seen := map[uuid.UUID]int{}
	for _, id := range drawn {
		seen[id]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "card %s drawn twice", id)
	}
	assert.Equal(t, 0, d.Size())
}

func TestDequeSizeTracksRandomOperations(t *testing.T) {
	d := NewDeque()
	expected := 0
	for i := 0; i < 200; i++ {
		if rand.Intn(2) == 0 {
			n := rand.Intn(4)
			d.AddCards(newIDs(n)...)
			expected += n
			continue
		}
		n := rand.Intn(5)
		_, err := d.DrawCards(n)
		if n > expected {
			assert.ErrorIs(t, err, ErrNotEnoughCards)
			continue
		}
		require.NoError(t, err)
		expected -= n
	}
	assert.Equal(t, expected, d.Size())
	assert.Len(t, d.Cards(), expected)
}

func TestDequeSingleCard(t *testing.T) {
	id := uuid.New()
	d := NewDeque()
	d.AddCards(id)

	got, err := d.DrawSingleCard()
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = d.DrawSingleCard()
	assert.ErrorIs(t, err, ErrNotEnoughCards)
}

func TestDequeRemoveMissingCard(t *testing.T) {
	d := NewDeque()
	d.AddCards(newIDs(2)...)
	assert.ErrorIs(t, d.removeCards([]uuid.UUID{uuid.New()}), ErrCardNotInDeque)
	assert.Equal(t, 2, d.Size())
}

func TestDequeJSONKeepsDuplicatesAndOrder(t *testing.T) {
	ids := newIDs(2)
	d := NewDeque()
	d.AddCards(ids[0], ids[0], ids[1])
	d.Shuffle()

	data, err := d.MarshalJSON()
	require.NoError(t, err)

	restored := NewDeque()
	require.NoError(t, restored.UnmarshalJSON(data))
	assert.Equal(t, 3, restored.Size())
	assert.Equal(t, d.Cards(), restored.Cards())
	assert.Equal(t, d.Order(), restored.Order())
}
