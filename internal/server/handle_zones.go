package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/acapella/riskhunt/internal/editor"
	"github.com/acapella/riskhunt/internal/riskhunt"
)

// ZonesResponse is returned by every zone editing endpoint.
type ZonesResponse struct {
	Zones   riskhunt.ZoneSet `json:"zones"`
	History editor.Status    `json:"history"`
}

type ReplaceZonesRequest struct {
	Zones riskhunt.ZoneSet `json:"zones"`
}

type PlaceRequest struct {
	Tool editor.Tool `json:"tool"`
	X    float64     `json:"x"`
	Y    float64     `json:"y"`
}

type PlaceResponse struct {
	Zone     riskhunt.RiskZone `json:"zone"`
	Selected bool              `json:"selected"`
	ZonesResponse
}

type ZoneAtResponse struct {
	Zone *riskhunt.RiskZone `json:"zone"`
}

func zonesResponse(snap editor.Snapshot) ZonesResponse {
	zones := snap.Zones
	if zones == nil {
		zones = riskhunt.ZoneSet{}
	}
	return ZonesResponse{Zones: zones, History: snap.Status}
}

// editHandler runs the op built from the request against the image's editor.
func editHandler(editors *editor.Manager, logger *slog.Logger, build func(r *http.Request) (editor.Op, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		imageID := chi.URLParam(r, "imageID")

		op, err := build(r)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		snap, err := editors.Edit(r.Context(), imageID, op)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, zonesResponse(snap))
	}
}

func handleGetZones(editors *editor.Manager, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := editors.Get(r.Context(), chi.URLParam(r, "imageID"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, zonesResponse(e.Snapshot()))
	}
}

func handleReplaceZones(editors *editor.Manager, logger *slog.Logger) http.HandlerFunc {
	return editHandler(editors, logger, func(r *http.Request) (editor.Op, error) {
		var req ReplaceZonesRequest
		if err := readBody(r, &req); err != nil {
			return nil, err
		}
		if req.Zones == nil {
			req.Zones = riskhunt.ZoneSet{}
		}
		return editor.ReplaceZones(req.Zones), nil
	})
}

func handleAddZone(editors *editor.Manager, logger *slog.Logger) http.HandlerFunc {
	return editHandler(editors, logger, func(r *http.Request) (editor.Op, error) {
		var z riskhunt.RiskZone
		if err := readBody(r, &z); err != nil {
			return nil, err
		}
		return editor.AddZone(z), nil
	})
}

func handleUpdateZone(editors *editor.Manager, logger *slog.Logger) http.HandlerFunc {
	return editHandler(editors, logger, func(r *http.Request) (editor.Op, error) {
		var patch riskhunt.ZonePatch
		if err := readBody(r, &patch); err != nil {
			return nil, err
		}
		return editor.UpdateZone(chi.URLParam(r, "zoneID"), patch), nil
	})
}

func handleRemoveZone(editors *editor.Manager, logger *slog.Logger) http.HandlerFunc {
	return editHandler(editors, logger, func(r *http.Request) (editor.Op, error) {
		return editor.RemoveZone(chi.URLParam(r, "zoneID")), nil
	})
}

func handleUndo(editors *editor.Manager, logger *slog.Logger) http.HandlerFunc {
	return editHandler(editors, logger, func(*http.Request) (editor.Op, error) {
		return editor.Undo(), nil
	})
}

func handleRedo(editors *editor.Manager, logger *slog.Logger) http.HandlerFunc {
	return editHandler(editors, logger, func(*http.Request) (editor.Op, error) {
		return editor.Redo(), nil
	})
}

func handlePlace(editors *editor.Manager, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlaceRequest
		if err := readBody(r, &req); err != nil {
			writeDomainError(w, logger, err)
			return
		}

		e, err := editors.Get(r.Context(), chi.URLParam(r, "imageID"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		p, err := e.Place(req.Tool, req.X, req.Y)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		status := http.StatusCreated
		if p.Selected {
			status = http.StatusOK
		}
		writeJSON(w, status, PlaceResponse{Zone: p.Zone, Selected: p.Selected, ZonesResponse: zonesResponse(p.Snapshot)})
	}
}

func handleZoneAt(editors *editor.Manager, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
		y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
		if errX != nil || errY != nil {
			writeDomainError(w, logger, fmt.Errorf("%w: x and y query parameters must be numbers", riskhunt.ErrValidation))
			return
		}

		e, err := editors.Get(r.Context(), chi.URLParam(r, "imageID"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		var resp ZoneAtResponse
		if z, ok := e.ZoneAt(x, y); ok {
			resp.Zone = &z
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleHistory(editors *editor.Manager, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := editors.Get(r.Context(), chi.URLParam(r, "imageID"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, e.Status())
	}
}

func handleSave(editors *editor.Manager, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := editors.Get(r.Context(), chi.URLParam(r, "imageID"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		if err := e.Save(r.Context()); err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, zonesResponse(e.Snapshot()))
	}
}

func handleReload(editors *editor.Manager, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := editors.Get(r.Context(), chi.URLParam(r, "imageID"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		snap, err := e.Reload(r.Context())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, zonesResponse(snap))
	}
}

// handleRelease saves pending edits and unloads the image's editor when the
// UI switches to another image. History starts fresh on the next load.
func handleRelease(editors *editor.Manager, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := editors.Release(r.Context(), chi.URLParam(r, "imageID")); err != nil {
			writeDomainError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
