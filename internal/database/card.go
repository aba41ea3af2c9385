// internal/database/card.go
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/cah/internal/models"
)

// LoadCards returns every card, black cards first.
func (r *Repository) LoadCards(ctx context.Context) ([]*models.Card, error) {
	q := `
		SELECT id, text, is_black, pick
		FROM cards
		ORDER BY is_black DESC, text
	`
	rows, err := r.DB.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.Card
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(&c.ID, &c.Text, &c.IsBlack, &c.Pick); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, &c)
	}
	return cards, rows.Err()
}

// InsertCards adds cards, skipping any whose text and color already exist. It returns the
// number of cards inserted.
func (r *Repository) InsertCards(ctx context.Context, cards []*models.Card) (int, error) {
	q := `
		INSERT INTO cards (id, text, is_black, pick)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (text, is_black) DO NOTHING
	`
	inserted := 0
	err := pgx.BeginTxFunc(ctx, r.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, c := range cards {
			ct, err := tx.Exec(ctx, q, c.ID, c.Text, c.IsBlack, c.Pick)
			if err != nil {
				return err
			}
			inserted += int(ct.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert cards: %w", err)
	}
	return inserted, nil
}
