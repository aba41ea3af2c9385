// internal/game/deque.go
package game

import (
	"encoding/json"
	"math/rand"

	"github.com/google/uuid"
)

// Deque is a pile of card ids drawn without replacement. When the current draw order runs
// out, the cards still in the pile are reshuffled into a new order.
//
// The pile is a multiset: the same id may appear more than once and every occurrence is
// tracked separately. Callers must hold the owning game's lock.
type Deque struct {
	cards []uuid.UUID // every card still in the pile
	order []uuid.UUID // upcoming draws, always a sub-multiset of cards
	size  int
}

func NewDeque() *Deque {
	return &Deque{}
}

// Size is the number of cards left in the pile.
func (d *Deque) Size() int {
	return d.size
}

// AddCards puts cards into the pile. They become drawable after the next shuffle.
func (d *Deque) AddCards(cards ...uuid.UUID) {
	d.cards = append(d.cards, cards...)
	d.size += len(cards)
}

// Shuffle replaces the draw order with a random permutation of the whole pile.
func (d *Deque) Shuffle() {
	order := append([]uuid.UUID(nil), d.cards...)
	rand.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	d.order = order
}

// DrawCards removes n cards from the pile and returns them in draw order.
// Either all n cards are drawn or the deque is left untouched.
func (d *Deque) DrawCards(n int) ([]uuid.UUID, error) {
	if n < 0 || n > d.size {
		return nil, ErrNotEnoughCards
	}
	next := d.clone()
	drawn, err := next.draw(n)
	if err != nil {
		return nil, err
	}
	*d = *next
	return drawn, nil
}

// DrawSingleCard draws exactly one card.
func (d *Deque) DrawSingleCard() (uuid.UUID, error) {
	drawn, err := d.DrawCards(1)
	if err != nil {
		return uuid.Nil, err
	}
	return drawn[0], nil
}

// Cards returns a copy of the pile in insertion order.
func (d *Deque) Cards() []uuid.UUID {
	return append([]uuid.UUID(nil), d.cards...)
}

// Order returns a copy of the pending draw order.
func (d *Deque) Order() []uuid.UUID {
	return append([]uuid.UUID(nil), d.order...)
}

func (d *Deque) draw(n int) ([]uuid.UUID, error) {
	if n > d.size {
		return nil, ErrNotEnoughCards
	}
	if len(d.order) >= n {
		drawn := append([]uuid.UUID(nil), d.order[:n]...)
		if err := d.removeCards(drawn); err != nil {
			return nil, err
		}
		d.order = d.order[n:]
		return drawn, nil
	}

	drawn := append([]uuid.UUID(nil), d.order...)
	if err := d.removeCards(drawn); err != nil {
		return nil, err
	}
	d.order = nil
	d.Shuffle()

	rest := n - len(drawn)
	if rest == 0 {
		return drawn, nil
	}
	if len(d.order) == 0 {
		return nil, ErrNotEnoughCards
	}
	more, err := d.draw(rest)
	if err != nil {
		return nil, err
	}
	return append(drawn, more...), nil
}

// removeCards deletes one occurrence of each given id from the pile, counting duplicates.
func (d *Deque) removeCards(toRemove []uuid.UUID) error {
	pending := make(map[uuid.UUID]int, len(toRemove))
	for _, id := range toRemove {
		pending[id]++
	}

	kept := make([]uuid.UUID, 0, len(d.cards))
	for _, id := range d.cards {
		if pending[id] > 0 {
			pending[id]--
			continue
		}
		kept = append(kept, id)
	}
	for _, left := range pending {
		if left > 0 {
			return ErrCardNotInDeque
		}
	}

	d.cards = kept
	d.size -= len(toRemove)
	return nil
}

func (d *Deque) clone() *Deque {
	return &Deque{
		cards: append([]uuid.UUID(nil), d.cards...),
		order: append([]uuid.UUID(nil), d.order...),
		size:  d.size,
	}
}

type dequeJSON struct {
	Cards []uuid.UUID `json:"cards"`
	Order []uuid.UUID `json:"order"`
}

// MarshalJSON stores the pile and the draw order as ordered id lists.
func (d *Deque) MarshalJSON() ([]byte, error) {
	return json.Marshal(dequeJSON{Cards: d.Cards(), Order: d.Order()})
}

func (d *Deque) UnmarshalJSON(data []byte) error {
	var raw dequeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.cards = raw.Cards
	d.order = raw.Order
	d.size = len(raw.Cards)
	return nil
}
