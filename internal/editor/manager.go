package editor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("github.com/acapella/riskhunt/internal/editor")

// Manager hands out one Editor per image, loading it from the repository on
// first use.
type Manager struct {
	repo         ImageRepository
	logger       *slog.Logger
	historyLimit int

	loads singleflight.Group

	mu      sync.RWMutex
	editors map[string]*Editor
}

func NewManager(repo ImageRepository, logger *slog.Logger, historyLimit int) *Manager {
	return &Manager{
		repo:         repo,
		logger:       logger,
		historyLimit: historyLimit,
		editors:      make(map[string]*Editor),
	}
}

func (m *Manager) Get(ctx context.Context, imageID string) (*Editor, error) {
	m.mu.RLock()
	e, ok := m.editors[imageID]
	m.mu.RUnlock()
	if ok {
		return e, nil
	}

	// Storage is read outside the lock; concurrent loads of one image share
	// a single read.
	v, err, _ := m.loads.Do(imageID, func() (any, error) {
		zones, err := m.repo.GetZones(ctx, imageID)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if e, ok := m.editors[imageID]; ok {
			return e, nil
		}
		e := newEditor(imageID, m.repo, zones, m.historyLimit)
		m.editors[imageID] = e
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Editor), nil
}

// Edit applies op to the image's zone set and returns the resulting state.
func (m *Manager) Edit(ctx context.Context, imageID string, op Op) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "editor.Edit")
	defer span.End()
	span.SetAttributes(
		attribute.String("image.id", imageID),
		attribute.String("edit.op", op.Name()),
	)

	e, err := m.Get(ctx, imageID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Snapshot{}, err
	}
	snap, err := e.Apply(op)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Snapshot{}, err
	}
	return snap, nil
}

// Release drops the image's editor together with its history, after saving
// unsaved edits. If that save fails the editor stays loaded so the edits
// are not lost and the error is returned.
func (m *Manager) Release(ctx context.Context, imageID string) error {
	m.mu.RLock()
	e, ok := m.editors[imageID]
	m.mu.RUnlock()
	if !ok {
		return nil
	}

	if e.Unsaved() {
		if err := e.Save(ctx); err != nil {
			m.logger.Warn("save on release failed", "image_id", imageID, "error", err)
			return err
		}
	}

	// An edit that landed after the save keeps the editor for autosave.
	m.mu.Lock()
	if m.editors[imageID] == e && !e.Unsaved() {
		delete(m.editors, imageID)
	}
	m.mu.Unlock()
	m.logger.Debug("released editor", "image_id", imageID)
	return nil
}

// SaveUnsaved saves every editor with pending edits. Failures are logged and
// left for the next pass.
func (m *Manager) SaveUnsaved(ctx context.Context) int {
	m.mu.RLock()
	pending := make([]*Editor, 0, len(m.editors))
	for _, e := range m.editors {
		if e.Unsaved() {
			pending = append(pending, e)
		}
	}
	m.mu.RUnlock()

	saved := 0
	for _, e := range pending {
		ctx, span := tracer.Start(ctx, "editor.Autosave")
		span.SetAttributes(attribute.String("image.id", e.ImageID()))
		if err := e.Save(ctx); err != nil {
			span.SetStatus(codes.Error, err.Error())
			m.logger.Warn("autosave failed", "image_id", e.ImageID(), "error", err)
		} else {
			saved++
			m.logger.Debug("autosaved zones", "image_id", e.ImageID())
		}
		span.End()
	}
	return saved
}

// RunAutosave saves pending edits every interval until ctx is done, then
// makes one final pass.
func (m *Manager) RunAutosave(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			m.SaveUnsaved(flushCtx)
			cancel()
			return nil
		case <-ticker.C:
			m.SaveUnsaved(ctx)
		}
	}
}
