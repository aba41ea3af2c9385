// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/cah/internal/game"
)

// SaveGame upserts the game snapshot. A snapshot older than the stored one is ignored, so
// concurrent writers cannot roll a game back.
func (r *Repository) SaveGame(ctx context.Context, rec game.Record) error {
	state, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode game state: %w", err)
	}

	q := `
		INSERT INTO games (id, status, host_id, version, state, created_at, updated_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    host_id = EXCLUDED.host_id,
		    version = EXCLUDED.version,
		    state = EXCLUDED.state,
		    updated_at = EXCLUDED.updated_at,
		    finished_at = EXCLUDED.finished_at
		WHERE games.version <= EXCLUDED.version
	`
	_, err = r.DB.Exec(ctx, q,
		rec.ID, string(rec.Status), rec.HostID, rec.Version, state,
		rec.CreatedAt, rec.UpdatedAt, rec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}
	return nil
}

// LoadActiveGames returns the latest snapshot of every game that has not finished, oldest first.
func (r *Repository) LoadActiveGames(ctx context.Context) ([]game.Record, error) {
	q := `
		SELECT state
		FROM games
		WHERE status IN ($1, $2)
		ORDER BY created_at
	`
	rows, err := r.DB.Query(ctx, q, string(game.StatusCreated), string(game.StatusStarted))
	if err != nil {
		return nil, fmt.Errorf("failed to query active games: %w", err)
	}
	defer rows.Close()

	var recs []game.Record
	for rows.Next() {
		var state []byte
		if err := rows.Scan(&state); err != nil {
			return nil, fmt.Errorf("failed to scan game state: %w", err)
		}
		var rec game.Record
		if err := json.Unmarshal(state, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode game state: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// RecordGameResults stores the final score of every player and marks the game finished.
func (r *Repository) RecordGameResults(ctx context.Context, gameID, winnerID uuid.UUID, scores map[uuid.UUID]int) error {
	upsertGameQ := `
		INSERT INTO games (id, status, finished_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    finished_at = COALESCE(games.finished_at, EXCLUDED.finished_at)
	`
	resultQ := `
		INSERT INTO game_results (game_id, player_id, score, did_win)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (game_id, player_id) DO UPDATE
		SET score = EXCLUDED.score, did_win = EXCLUDED.did_win
	`
	err := pgx.BeginTxFunc(ctx, r.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsertGameQ, gameID, string(game.StatusFinished)); err != nil {
			return err
		}
		for playerID, score := range scores {
			if _, err := tx.Exec(ctx, resultQ, gameID, playerID, score, playerID == winnerID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record game results: %w", err)
	}
	return nil
}
