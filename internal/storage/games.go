package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/acapella/riskhunt/internal/riskhunt"
)

// CreateGame applies defaults, validates cfg and checks that every
// referenced image exists.
func (s *Store) CreateGame(ctx context.Context, cfg riskhunt.GameConfig) (riskhunt.GameConfig, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return riskhunt.GameConfig{}, err
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	cfg.CreatedAt = s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return riskhunt.GameConfig{}, err
	}
	defer tx.Rollback()

	for _, id := range cfg.ImageIDs {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM images WHERE id = ?)`, id,
		).Scan(&exists); err != nil {
			return riskhunt.GameConfig{}, err
		}
		if !exists {
			return riskhunt.GameConfig{}, fmt.Errorf("%w: image %s does not exist", riskhunt.ErrValidation, id)
		}
	}

	doc := gameDoc{
		ID:               cfg.ID,
		Name:             cfg.Name,
		Description:      cfg.Description,
		TimeLimitSeconds: cfg.TimeLimitSeconds,
		MaxClicks:        cfg.MaxClicks,
		TargetRisks:      cfg.TargetRisks,
		ImageIDs:         cfg.ImageIDs,
		IsPublic:         cfg.IsPublic,
		CreatedAt:        cfg.CreatedAt,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return riskhunt.GameConfig{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO games (id, name, is_public, data, created_at) VALUES (?, ?, ?, jsonb(?), ?)`,
		cfg.ID, cfg.Name, boolInt(cfg.IsPublic), string(data), timestamp(cfg.CreatedAt),
	); err != nil {
		return riskhunt.GameConfig{}, fmt.Errorf("inserting game: %w", err)
	}
	for i, id := range cfg.ImageIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO game_images (game_id, image_id, position) VALUES (?, ?, ?)`,
			cfg.ID, id, i,
		); err != nil {
			return riskhunt.GameConfig{}, fmt.Errorf("linking image %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return riskhunt.GameConfig{}, err
	}
	return cfg, nil
}

// GetConfig returns the game template with the given id.
func (s *Store) GetConfig(ctx context.Context, gameID string) (riskhunt.GameConfig, error) {
	var doc gameDoc
	if err := s.get(ctx, "games", gameID, &doc); err != nil {
		return riskhunt.GameConfig{}, fmt.Errorf("game %s: %w", gameID, err)
	}
	return doc.config(), nil
}

// ListGames returns all games, or only public ones when publicOnly is set.
func (s *Store) ListGames(ctx context.Context, publicOnly bool) ([]riskhunt.GameConfig, error) {
	query := `SELECT json(data) FROM games ORDER BY created_at DESC, id`
	if publicOnly {
		query = `SELECT json(data) FROM games WHERE is_public = 1 ORDER BY created_at DESC, id`
	}
	docs, err := list[gameDoc](ctx, s.db, query)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	out := make([]riskhunt.GameConfig, len(docs))
	for i, d := range docs {
		out[i] = d.config()
	}
	return out, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
