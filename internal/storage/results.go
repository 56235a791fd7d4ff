package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/acapella/riskhunt/internal/riskhunt"
)

// Persist stores the result of a completed session. Persisting the same
// session twice keeps the first result.
func (s *Store) Persist(ctx context.Context, r riskhunt.GameResult) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO game_results (id, session_id, game_id, total_score, data, created_at)
		 VALUES (?, ?, ?, ?, jsonb(?), ?)
		 ON CONFLICT(session_id) DO NOTHING`,
		r.ID, r.SessionID, r.GameID, r.TotalScore, string(data), timestamp(r.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting result of session %s: %w", r.SessionID, err)
	}
	return nil
}

// ListResults returns the most recent results, newest first.
func (s *Store) ListResults(ctx context.Context, limit int) ([]riskhunt.GameResult, error) {
	if limit <= 0 {
		limit = 100
	}
	out, err := list[riskhunt.GameResult](ctx, s.db,
		`SELECT json(data) FROM game_results ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing results: %w", err)
	}
	return out, nil
}

// ListResultsByGame returns the results of one game, best score first.
func (s *Store) ListResultsByGame(ctx context.Context, gameID string) ([]riskhunt.GameResult, error) {
	out, err := list[riskhunt.GameResult](ctx, s.db,
		`SELECT json(data) FROM game_results WHERE game_id = ? ORDER BY total_score DESC, created_at`, gameID)
	if err != nil {
		return nil, fmt.Errorf("listing results of game %s: %w", gameID, err)
	}
	return out, nil
}
