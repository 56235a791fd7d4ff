package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/acapella/riskhunt/internal/riskhunt"
)

type GameRequest struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
	MaxClicks        int      `json:"maxClicks"`
	TargetRisks      int      `json:"targetRisks"`
	ImageIDs         []string `json:"imageIds"`
	IsPublic         bool     `json:"isPublic"`
}

type GameResponse struct {
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

func toGameResponse(cfg riskhunt.GameConfig) GameResponse {
	ids := cfg.ImageIDs
	if ids == nil {
		ids = []string{}
	}
	return GameResponse{
		ID:               cfg.ID,
		Name:             cfg.Name,
		Description:      cfg.Description,
		TimeLimitSeconds: cfg.TimeLimitSeconds,
		MaxClicks:        cfg.MaxClicks,
		TargetRisks:      cfg.TargetRisks,
		ImageIDs:         ids,
		IsPublic:         cfg.IsPublic,
		CreatedAt:        cfg.CreatedAt,
	}
}

func handleListGames(games GameStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		publicOnly := r.URL.Query().Get("public") == "true"
		list, err := games.ListGames(r.Context(), publicOnly)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		resp := make([]GameResponse, len(list))
		for i, cfg := range list {
			resp[i] = toGameResponse(cfg)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleCreateGame(games GameStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GameRequest
		if err := readBody(r, &req); err != nil {
			writeDomainError(w, logger, err)
			return
		}

		cfg, err := games.CreateGame(r.Context(), riskhunt.GameConfig{
			Name:             req.Name,
			Description:      req.Description,
			TimeLimitSeconds: req.TimeLimitSeconds,
			MaxClicks:        req.MaxClicks,
			TargetRisks:      req.TargetRisks,
			ImageIDs:         req.ImageIDs,
			IsPublic:         req.IsPublic,
		})
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, toGameResponse(cfg))
	}
}

func handleGetGame(games GameStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := games.GetConfig(r.Context(), chi.URLParam(r, "gameID"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toGameResponse(cfg))
	}
}
