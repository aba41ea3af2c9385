// internal/database/player.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jason-s-yu/cah/internal/game"
)

var ErrDuplicatePlayer = errors.New("player already exists")

const uniqueViolation = "23505"

func (r *Repository) CreatePlayer(ctx context.Context, rec game.PlayerRecord) error {
	q := `
		INSERT INTO players (id, name, auth_token, current_game_id)
		VALUES ($1, $2, $3, $4)
	`
	err := pgx.BeginTxFunc(ctx, r.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, rec.ID, rec.Name, rec.AuthToken, rec.CurrentGameID)
		return err
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicatePlayer
	}
	if err != nil {
		return fmt.Errorf("failed to insert player: %w", err)
	}
	return nil
}

// SavePlayer updates the player's seat.
func (r *Repository) SavePlayer(ctx context.Context, rec game.PlayerRecord) error {
	q := `
		UPDATE players
		SET current_game_id = $2, updated_at = NOW()
		WHERE id = $1
	`
	ct, err := r.DB.Exec(ctx, q, rec.ID, rec.CurrentGameID)
	if err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return game.ErrPlayerNotFound
	}
	return nil
}

func (r *Repository) GetPlayer(ctx context.Context, id uuid.UUID) (*game.PlayerRecord, error) {
	q := `
		SELECT id, name, auth_token, current_game_id
		FROM players
		WHERE id = $1
	`
	var rec game.PlayerRecord
	err := r.DB.QueryRow(ctx, q, id).Scan(&rec.ID, &rec.Name, &rec.AuthToken, &rec.CurrentGameID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &rec, nil
}

// GetPlayers returns the players among ids that exist, in no particular order.
func (r *Repository) GetPlayers(ctx context.Context, ids []uuid.UUID) ([]game.PlayerRecord, error) {
	q := `
		SELECT id, name, auth_token, current_game_id
		FROM players
		WHERE id = ANY($1)
	`
	rows, err := r.DB.Query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	var recs []game.PlayerRecord
	for rows.Next() {
		var rec game.PlayerRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.AuthToken, &rec.CurrentGameID); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
