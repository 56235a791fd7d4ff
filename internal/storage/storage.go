// Package storage persists images, game templates and game results in
// per-model libSQL tables with JSONB data columns.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/acapella/riskhunt/internal/riskhunt"
)

// Store implements the image, game and result repositories.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

type imageDoc struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Source    string           `json:"source"`
	Zones     riskhunt.ZoneSet `json:"zones"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func (d imageDoc) image() riskhunt.Image {
	zones := d.Zones
	if zones == nil {
		zones = riskhunt.ZoneSet{}
	}
	return riskhunt.Image{
		ID:        d.ID,
		Name:      d.Name,
		Source:    d.Source,
		Zones:     zones,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type gameDoc struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	TimeLimitSeconds int       `json:"timeLimitSeconds"`
	MaxClicks        int       `json:"maxClicks"`
	TargetRisks      int       `json:"targetRisks"`
	ImageIDs         []string  `json:"imageIds"`
	IsPublic         bool      `json:"isPublic"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (d gameDoc) config() riskhunt.GameConfig {
	return riskhunt.GameConfig{
		ID:               d.ID,
		Name:             d.Name,
		Description:      d.Description,
		TimeLimitSeconds: d.TimeLimitSeconds,
		MaxClicks:        d.MaxClicks,
		TargetRisks:      d.TargetRisks,
		ImageIDs:         d.ImageIDs,
		IsPublic:         d.IsPublic,
		CreatedAt:        d.CreatedAt,
	}
}

func (s *Store) get(ctx context.Context, table, id string, dest any) error {
	var data string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT json(data) FROM %s WHERE id = ?`, table), id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return riskhunt.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

// list decodes every data column returned by query into a fresh T.
func list[T any](ctx context.Context, db *sql.DB, query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// timeLayout is fixed width so that timestamp columns sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func timestamp(t time.Time) string { return t.UTC().Format(timeLayout) }
