// internal/models/hand.go
package models

import "github.com/google/uuid"

// Hand holds the white cards a player currently owns. Membership is by card id.
type Hand struct {
	cards []*Card
}

func NewHand() *Hand {
	return &Hand{}
}

func (h *Hand) Len() int {
	return len(h.cards)
}

// Has reports whether a card with the given id is in the hand.
func (h *Hand) Has(id uuid.UUID) bool {
	for _, c := range h.cards {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Add puts cards into the hand. Cards already held are skipped.
func (h *Hand) Add(cards ...*Card) {
	for _, c := range cards {
		if c == nil || h.Has(c.ID) {
			continue
		}
		h.cards = append(h.cards, c)
	}
}

// Remove takes the card with the given id out of the hand, reporting whether it was held.
func (h *Hand) Remove(id uuid.UUID) bool {
	for i, c := range h.cards {
		if c.ID == id {
			h.cards = append(h.cards[:i], h.cards[i+1:]...)
			return true
		}
	}
	return false
}

// Cards returns the held cards in the order they were dealt.
func (h *Hand) Cards() []*Card {
	return append([]*Card(nil), h.cards...)
}

// IDs returns the ids of the held cards in the order they were dealt.
func (h *Hand) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(h.cards))
	for i, c := range h.cards {
		ids[i] = c.ID
	}
	return ids
}
