// internal/models/card.go
package models

import (
	"strings"

	"github.com/google/uuid"
)

// Card is an immutable prompt (black) or answer (white) card.
type Card struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"text"`
	IsBlack bool      `json:"isBlack"`

	// Pick is the number of blanks in a black card's text. It is nil for white cards.
	Pick *int `json:"pick,omitempty"`
}

// NewCard builds a card with a fresh id. A black card's Pick is the count of '_' in its text.
func NewCard(text string, isBlack bool) *Card {
	c := &Card{
		ID:      uuid.New(),
		Text:    text,
		IsBlack: isBlack,
	}
	if isBlack {
		pick := strings.Count(text, "_")
		c.Pick = &pick
	}
	return c
}
