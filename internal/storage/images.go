package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/acapella/riskhunt/internal/riskhunt"
)

// CreateImage stores a new image. An empty ID is generated; zones are
// validated as a set.
func (s *Store) CreateImage(ctx context.Context, img riskhunt.Image) (riskhunt.Image, error) {
	img.Name = strings.TrimSpace(img.Name)
	if img.Name == "" {
		return riskhunt.Image{}, fmt.Errorf("%w: image name is required", riskhunt.ErrValidation)
	}
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	if img.Zones == nil {
		img.Zones = riskhunt.ZoneSet{}
	}
	if err := img.Zones.Validate(); err != nil {
		return riskhunt.Image{}, err
	}
	now := s.now()
	img.CreatedAt, img.UpdatedAt = now, now

	doc := imageDoc{
		ID:        img.ID,
		Name:      img.Name,
		Source:    img.Source,
		Zones:     img.Zones,
		CreatedAt: img.CreatedAt,
		UpdatedAt: img.UpdatedAt,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return riskhunt.Image{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO images (id, name, data, created_at) VALUES (?, ?, jsonb(?), ?)`,
		img.ID, img.Name, string(data), timestamp(now),
	)
	if err != nil {
		return riskhunt.Image{}, fmt.Errorf("inserting image: %w", err)
	}
	return img, nil
}

func (s *Store) GetImage(ctx context.Context, id string) (riskhunt.Image, error) {
	var doc imageDoc
	if err := s.get(ctx, "images", id, &doc); err != nil {
		return riskhunt.Image{}, fmt.Errorf("image %s: %w", id, err)
	}
	return doc.image(), nil
}

func (s *Store) ListImages(ctx context.Context) ([]riskhunt.Image, error) {
	docs, err := list[imageDoc](ctx, s.db, `SELECT json(data) FROM images ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	out := make([]riskhunt.Image, len(docs))
	for i, d := range docs {
		out[i] = d.image()
	}
	return out, nil
}

// GetZones returns the persisted zone set of an image.
func (s *Store) GetZones(ctx context.Context, imageID string) (riskhunt.ZoneSet, error) {
	img, err := s.GetImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	return img.Zones, nil
}

// SaveZones replaces the persisted zone set of an image.
func (s *Store) SaveZones(ctx context.Context, imageID string, zones riskhunt.ZoneSet) error {
	if zones == nil {
		zones = riskhunt.ZoneSet{}
	}
	data, err := json.Marshal(zones)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE images
		 SET data = jsonb_set(data, '$.zones', json(?), '$.updatedAt', ?)
		 WHERE id = ?`,
		string(data), timestamp(s.now()), imageID,
	)
	if err != nil {
		return fmt.Errorf("saving zones of image %s: %w", imageID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("image %s: %w", imageID, riskhunt.ErrNotFound)
	}
	return nil
}
