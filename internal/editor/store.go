// Package editor owns the zone set of an image while it is being authored:
// validated mutations, bounded undo/redo and background saving.
package editor

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/acapella/riskhunt/internal/geometry"
	"github.com/acapella/riskhunt/internal/riskhunt"
)

// ZoneStore holds the current zone set and its edit history. It is not safe
// for concurrent use; Editor serializes access.
type ZoneStore struct {
	zones   riskhunt.ZoneSet
	history *History
}

func NewZoneStore(zones riskhunt.ZoneSet, historyLimit int) *ZoneStore {
	return &ZoneStore{
		zones:   zones.Clone(),
		history: NewHistory(historyLimit),
	}
}

// Zones returns a copy of the current zone set.
func (s *ZoneStore) Zones() riskhunt.ZoneSet {
	return s.zones.Clone()
}

// Add appends z. An empty id is replaced with a fresh one.
func (s *ZoneStore) Add(z riskhunt.RiskZone) (riskhunt.RiskZone, error) {
	if z.ID == "" {
		z.ID = uuid.NewString()
	}
	if err := z.Validate(); err != nil {
		return z, err
	}
	if s.zones.Index(z.ID) >= 0 {
		return z, fmt.Errorf("%w: zone %q already exists", riskhunt.ErrValidation, z.ID)
	}
	s.history.Record(s.zones)
	s.zones = append(s.zones.Clone(), z)
	return z, nil
}

func (s *ZoneStore) Update(id string, patch riskhunt.ZonePatch) (riskhunt.RiskZone, error) {
	i := s.zones.Index(id)
	if i < 0 {
		return riskhunt.RiskZone{}, fmt.Errorf("%w: zone %q is not in the current set", riskhunt.ErrInvalidState, id)
	}
	updated, err := patch.Apply(s.zones[i])
	if err != nil {
		return s.zones[i], err
	}
	s.history.Record(s.zones)
	next := s.zones.Clone()
	next[i] = updated
	s.zones = next
	return updated, nil
}

func (s *ZoneStore) Remove(id string) error {
	i := s.zones.Index(id)
	if i < 0 {
		return fmt.Errorf("%w: zone %q is not in the current set", riskhunt.ErrInvalidState, id)
	}
	s.history.Record(s.zones)
	next := make(riskhunt.ZoneSet, 0, len(s.zones)-1)
	next = append(next, s.zones[:i]...)
	s.zones = append(next, s.zones[i+1:]...)
	return nil
}

// ReplaceAll swaps in a whole zone set, recording history like any other edit.
func (s *ZoneStore) ReplaceAll(zones riskhunt.ZoneSet) error {
	if err := zones.Validate(); err != nil {
		return err
	}
	s.history.Record(s.zones)
	s.zones = zones.Clone()
	return nil
}

// Reset loads zones without history, as on an image selection change.
func (s *ZoneStore) Reset(zones riskhunt.ZoneSet) {
	s.zones = zones.Clone()
	s.history.Reset()
}

// Undo reports false when the undo stack was empty.
func (s *ZoneStore) Undo() bool {
	prev, ok := s.history.Undo(s.zones)
	s.zones = prev
	return ok
}

func (s *ZoneStore) Redo() bool {
	next, ok := s.history.Redo(s.zones)
	s.zones = next
	return ok
}

func (s *ZoneStore) CanUndo() bool { return s.history.UndoDepth() > 0 }
func (s *ZoneStore) CanRedo() bool { return s.history.RedoDepth() > 0 }

// ZoneAt is the hover/select query.
func (s *ZoneStore) ZoneAt(x, y float64) (riskhunt.RiskZone, bool) {
	return s.zones.FindContaining(x, y)
}

type Tool string

const (
	ToolCircle    Tool = "circle"
	ToolRectangle Tool = "rectangle"
)

const (
	defaultCircleRadius = 30
	defaultRectSide     = 50
)

// Place handles a canvas click: a click on an existing zone selects it and
// changes nothing, any other click adds a default zone of the tool's shape.
func (s *ZoneStore) Place(tool Tool, x, y float64) (zone riskhunt.RiskZone, selected bool, err error) {
	if z, ok := s.zones.FindContaining(x, y); ok {
		return z, true, nil
	}
	var shape geometry.Shape
	switch tool {
	case ToolCircle:
		shape = geometry.CircleAt(x, y, defaultCircleRadius)
	case ToolRectangle:
		shape = geometry.RectAround(x, y, defaultRectSide, defaultRectSide)
	default:
		return riskhunt.RiskZone{}, false, fmt.Errorf("%w: unknown tool %q", riskhunt.ErrValidation, tool)
	}
	z, err := s.Add(riskhunt.RiskZone{
		Shape:       shape,
		Description: "Safety Risk",
		Explanation: "Describe the safety risk here",
		Difficulty:  riskhunt.DifficultyMedium,
		Points:      1,
		Color:       "#ff0000",
	})
	return z, false, err
}
