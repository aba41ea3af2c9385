// internal/models/models_test.go
package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCardPick(t *testing.T) {
	black := NewCard("_ + _ = _.", true)
	require.NotNil(t, black.Pick)
	assert.Equal(t, 3, *black.Pick)

	noBlank := NewCard("What's that smell?", true)
	require.NotNil(t, noBlank.Pick)
	assert.Equal(t, 0, *noBlank.Pick)

	white := NewCard("A snapping turtle_", false)
	assert.Nil(t, white.Pick, "white cards have no blanks to fill")
	assert.NotEqual(t, black.ID, white.ID)
}

func TestCatalog(t *testing.T) {
	b := NewCard("_?", true)
	w1 := NewCard("one", false)
	w2 := NewCard("two", false)
	c := NewCatalog([]*Card{w1, b, nil, w2, w1})

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []uuid.UUID{b.ID}, c.BlackIDs())
	assert.Equal(t, []uuid.UUID{w1.ID, w2.ID}, c.WhiteIDs())

	got, ok := c.Get(w2.ID)
	require.True(t, ok)
	assert.Same(t, w2, got)
	_, ok = c.Get(uuid.New())
	assert.False(t, ok)

	// callers get copies
	ids := c.WhiteIDs()
	ids[0] = uuid.Nil
	assert.Equal(t, w1.ID, c.WhiteIDs()[0])
}

func TestHand(t *testing.T) {
	a, b, c := NewCard("a", false), NewCard("b", false), NewCard("c", false)
	h := NewHand()
	h.Add(a, b, nil, a)
	assert.Equal(t, 2, h.Len())
	assert.True(t, h.Has(b.ID))

	h.Add(c)
	assert.True(t, h.Remove(b.ID))
	assert.False(t, h.Remove(b.ID))
	assert.Equal(t, []uuid.UUID{a.ID, c.ID}, h.IDs())
	assert.Equal(t, []*Card{a, c}, h.Cards())
}

func TestPlayerInGame(t *testing.T) {
	p := &Player{ID: uuid.New(), Name: "alice"}
	assert.False(t, p.InGame())
	p.CurrentGameID = uuid.New()
	assert.True(t, p.InGame())
}
