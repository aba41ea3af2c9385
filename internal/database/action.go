// internal/database/action.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/cah/internal/cache"
	"github.com/jason-s-yu/cah/internal/game"
)

// StatusAbandoned marks a game that stopped producing actions before it finished.
const StatusAbandoned = "ABANDONED"

// InsertGameActions writes a batch of action records in a single transaction. Records already
// stored are skipped, so a batch can be retried after a partial failure.
func (r *Repository) InsertGameActions(ctx context.Context, records []cache.GameActionRecord) error {
	if len(records) == 0 {
		return nil
	}

	q := `
		INSERT INTO game_actions (game_id, action_index, actor_id, action_type, action_payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	batch := &pgx.Batch{}
	for _, rec := range records {
		payload, err := json.Marshal(rec.ActionPayload)
		if err != nil {
			return fmt.Errorf("failed to encode action payload: %w", err)
		}
		var actor *uuid.UUID
		if rec.ActorID != uuid.Nil {
			id := rec.ActorID
			actor = &id
		}
		batch.Queue(q, rec.GameID, rec.ActionIndex, actor, rec.ActionType, payload, time.UnixMilli(rec.Timestamp))
	}

	err := pgx.BeginTxFunc(ctx, r.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to insert game actions: %w", err)
	}
	return nil
}

// MarkGameAbandoned flags an unfinished game as abandoned. It reports whether a row changed.
func (r *Repository) MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error) {
	q := `
		UPDATE games
		SET status = $2, finished_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ($3, $4)
	`
	ct, err := r.DB.Exec(ctx, q, gameID, StatusAbandoned, string(game.StatusCreated), string(game.StatusStarted))
	if err != nil {
		return false, fmt.Errorf("failed to mark game %v abandoned: %w", gameID, err)
	}
	return ct.RowsAffected() > 0, nil
}
