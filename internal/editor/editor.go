package editor

import (
	"context"
	"fmt"
	"sync"

	"github.com/acapella/riskhunt/internal/riskhunt"
)

// ImageRepository is the persistence collaborator for zone sets.
type ImageRepository interface {
	GetZones(ctx context.Context, imageID string) (riskhunt.ZoneSet, error)
	SaveZones(ctx context.Context, imageID string, zones riskhunt.ZoneSet) error
}

// Status summarizes an editor for the UI.
type Status struct {
	ImageID   string `json:"imageId"`
	UndoDepth int    `json:"undoDepth"`
	RedoDepth int    `json:"redoDepth"`
	Unsaved   bool   `json:"unsaved"`
}

// Snapshot pairs a zone set with the history status of the same version.
type Snapshot struct {
	Zones  riskhunt.ZoneSet
	Status Status
}

// Placement is the outcome of Place.
type Placement struct {
	Zone     riskhunt.RiskZone
	Selected bool
	Snapshot Snapshot
}

// Editor is the editing state of one image. All methods are safe for
// concurrent use; saving does not hold the lock while talking to storage.
type Editor struct {
	imageID string
	repo    ImageRepository

	mu      sync.Mutex
	store   *ZoneStore
	version uint64
	saved   uint64
}

func newEditor(imageID string, repo ImageRepository, zones riskhunt.ZoneSet, historyLimit int) *Editor {
	return &Editor{
		imageID: imageID,
		repo:    repo,
		store:   NewZoneStore(zones, historyLimit),
	}
}

func (e *Editor) ImageID() string { return e.imageID }

func (e *Editor) Apply(op Op) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	changed, err := op.Apply(e.store)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s zone on image %s: %w", op.Name(), e.imageID, err)
	}
	if changed {
		e.version++
	}
	return e.snapshot(), nil
}

// Place adds a default zone at (x, y) or selects the zone already there.
func (e *Editor) Place(tool Tool, x, y float64) (Placement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	z, selected, err := e.store.Place(tool, x, y)
	if err != nil {
		return Placement{}, err
	}
	if !selected {
		e.version++
	}
	return Placement{Zone: z, Selected: selected, Snapshot: e.snapshot()}, nil
}

func (e *Editor) ZoneAt(x, y float64) (riskhunt.RiskZone, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.ZoneAt(x, y)
}

func (e *Editor) Zones() riskhunt.ZoneSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Zones()
}

// Snapshot reads the zones and the status under one lock.
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

func (e *Editor) snapshot() Snapshot {
	return Snapshot{Zones: e.store.Zones(), Status: e.status()}
}

func (e *Editor) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status()
}

func (e *Editor) status() Status {
	return Status{
		ImageID:   e.imageID,
		UndoDepth: e.store.history.UndoDepth(),
		RedoDepth: e.store.history.RedoDepth(),
		Unsaved:   e.version != e.saved,
	}
}

func (e *Editor) Unsaved() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version != e.saved
}

// Save writes the current zone set. Edits made while the write is in flight
// keep the editor marked unsaved.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	zones := e.store.Zones()
	version := e.version
	e.mu.Unlock()

	if err := e.repo.SaveZones(ctx, e.imageID, zones); err != nil {
		return fmt.Errorf("saving zones for image %s: %w", e.imageID, err)
	}

	e.mu.Lock()
	if version > e.saved {
		e.saved = version
	}
	e.mu.Unlock()
	return nil
}

// Reload discards unsaved edits and history and reloads from storage.
func (e *Editor) Reload(ctx context.Context) (Snapshot, error) {
	zones, err := e.repo.GetZones(ctx, e.imageID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading zones for image %s: %w", e.imageID, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.Reset(zones)
	e.version++
	e.saved = e.version
	return e.snapshot(), nil
}
