// internal/game/queue.go
package game

import "github.com/google/uuid"

// Queue is a FIFO of player ids used for card czar rotation. It never deduplicates.
type Queue struct {
	items []uuid.UUID
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push appends an item at the tail.
func (q *Queue) Push(item uuid.UUID) {
	q.items = append(q.items, item)
}

// Pop removes and returns the head. ok is false when the queue is empty.
func (q *Queue) Pop() (item uuid.UUID, ok bool) {
	if len(q.items) == 0 {
		return uuid.Nil, false
	}
	item = q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Remove deletes the first occurrence of item, wherever it sits. Absent items are ignored.
func (q *Queue) Remove(item uuid.UUID) {
	for i, it := range q.items {
		if it == item {
			q.items = append(q.items[:i:i], q.items[i+1:]...)
			return
		}
	}
}

func (q *Queue) Len() int {
	return len(q.items)
}

// Items returns a copy of the queue from head to tail.
func (q *Queue) Items() []uuid.UUID {
	return append([]uuid.UUID(nil), q.items...)
}
