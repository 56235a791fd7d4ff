package editor

import "github.com/acapella/riskhunt/internal/riskhunt"

// Op is one editZones command. Apply reports whether the zone set changed.
type Op interface {
	Name() string
	Apply(s *ZoneStore) (changed bool, err error)
}

type addOp struct{ zone riskhunt.RiskZone }

func AddZone(z riskhunt.RiskZone) Op { return addOp{zone: z} }

func (addOp) Name() string { return "add" }

func (o addOp) Apply(s *ZoneStore) (bool, error) {
	_, err := s.Add(o.zone)
	return err == nil, err
}

type updateOp struct {
	id    string
	patch riskhunt.ZonePatch
}

func UpdateZone(id string, patch riskhunt.ZonePatch) Op { return updateOp{id: id, patch: patch} }

func (updateOp) Name() string { return "update" }

func (o updateOp) Apply(s *ZoneStore) (bool, error) {
	_, err := s.Update(o.id, o.patch)
	return err == nil, err
}

type removeOp struct{ id string }

func RemoveZone(id string) Op { return removeOp{id: id} }

func (removeOp) Name() string { return "remove" }

func (o removeOp) Apply(s *ZoneStore) (bool, error) {
	err := s.Remove(o.id)
	return err == nil, err
}

type replaceAllOp struct{ zones riskhunt.ZoneSet }

func ReplaceZones(zs riskhunt.ZoneSet) Op { return replaceAllOp{zones: zs} }

func (replaceAllOp) Name() string { return "replaceAll" }

func (o replaceAllOp) Apply(s *ZoneStore) (bool, error) {
	err := s.ReplaceAll(o.zones)
	return err == nil, err
}

type undoOp struct{}

func Undo() Op { return undoOp{} }

func (undoOp) Name() string { return "undo" }

func (undoOp) Apply(s *ZoneStore) (bool, error) { return s.Undo(), nil }

type redoOp struct{}

func Redo() Op { return redoOp{} }

func (redoOp) Name() string { return "redo" }

func (redoOp) Apply(s *ZoneStore) (bool, error) { return s.Redo(), nil }
