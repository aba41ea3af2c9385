// internal/game/round_test.go
package game

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cah/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRound(start time.Time) *Round {
	return &Round{
		ID:          uuid.New(),
		CardCzar:    &models.Player{ID: uuid.New(), Name: "czar"},
		BlackCard:   models.NewCard("Why _?", true),
		PlayFinish:  start.Add(10 * time.Second),
		PickFinish:  start.Add(20 * time.Second),
		RoundFinish: start.Add(21 * time.Second),
	}
}

func TestRoundStateBoundaries(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := newTestRound(start)

	cases := []struct {
		at   time.Time
		want RoundState
	}{
		{start, RoundPlay},
		{r.PlayFinish, RoundPlay},
		{r.PlayFinish.Add(time.Nanosecond), RoundPick},
		{r.PickFinish, RoundPick},
		{r.PickFinish.Add(time.Nanosecond), RoundWaitingFinish},
		{r.RoundFinish, RoundWaitingFinish},
		{r.RoundFinish.Add(time.Nanosecond), RoundFinished},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, r.State(tc.at), "at %s", tc.at.Sub(start))
	}
}

func TestRoundPlayCardOncePerPlayer(t *testing.T) {
	r := newTestRound(time.Now())
	p := &models.Player{ID: uuid.New(), Name: "alice"}
	first, second := models.NewCard("a", false), models.NewCard("b", false)

	turn, err := r.PlayCard(p, first)
	require.NoError(t, err)
	assert.Equal(t, first, turn.Card)
	assert.Equal(t, turn, r.TurnOf(p.ID))
	assert.Equal(t, turn, r.TurnWithCard(first.ID))

	_, err = r.PlayCard(p, second)
	assert.ErrorIs(t, err, ErrPlayerHasAlreadyPlayed)
	assert.Len(t, r.Turns, 1)
}

func TestRoundRemovePlayer(t *testing.T) {
	r := newTestRound(time.Now())
	alice := &models.Player{ID: uuid.New(), Name: "alice"}
	bob := &models.Player{ID: uuid.New(), Name: "bob"}

	assert.Nil(t, r.RemovePlayer(alice), "no turn yet")

	aliceTurn, err := r.PlayCard(alice, models.NewCard("a", false))
	require.NoError(t, err)
	_, err = r.PlayCard(bob, models.NewCard("b", false))
	require.NoError(t, err)
	r.Winner = aliceTurn

	removed := r.RemovePlayer(alice)
	assert.Equal(t, aliceTurn, removed)
	assert.Nil(t, r.Winner)
	assert.Nil(t, r.TurnOf(alice.ID))
	assert.Len(t, r.playedCards(), 1)
}
