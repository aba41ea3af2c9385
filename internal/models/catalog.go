// internal/models/catalog.go
package models

import "github.com/google/uuid"

// Catalog is the read-only set of every card known to the server.
// It is built once at start-up and shared by all games.
type Catalog struct {
	cards map[uuid.UUID]*Card
	black []uuid.UUID
	white []uuid.UUID
}

// NewCatalog indexes the given cards, keeping their order within each color.
// A card whose id was already seen is ignored.
func NewCatalog(cards []*Card) *Catalog {
	c := &Catalog{cards: make(map[uuid.UUID]*Card, len(cards))}
	for _, card := range cards {
		if card == nil {
			continue
		}
		if _, dup := c.cards[card.ID]; dup {
			continue
		}
		c.cards[card.ID] = card
		if card.IsBlack {
			c.black = append(c.black, card.ID)
		} else {
			c.white = append(c.white, card.ID)
		}
	}
	return c
}

// Get returns the card with the given id.
func (c *Catalog) Get(id uuid.UUID) (*Card, bool) {
	card, ok := c.cards[id]
	return card, ok
}

// BlackIDs returns a copy of all black card ids.
func (c *Catalog) BlackIDs() []uuid.UUID {
	return append([]uuid.UUID(nil), c.black...)
}

// WhiteIDs returns a copy of all white card ids.
func (c *Catalog) WhiteIDs() []uuid.UUID {
	return append([]uuid.UUID(nil), c.white...)
}

func (c *Catalog) Len() int {
	return len(c.cards)
}
