package server

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/acapella/riskhunt/internal/editor"
	"github.com/acapella/riskhunt/internal/game"
	"github.com/acapella/riskhunt/internal/riskhunt"
)

// ImageStore is the image catalogue.
type ImageStore interface {
	CreateImage(ctx context.Context, img riskhunt.Image) (riskhunt.Image, error)
	GetImage(ctx context.Context, id string) (riskhunt.Image, error)
	ListImages(ctx context.Context) ([]riskhunt.Image, error)
}

// GameStore manages game templates.
type GameStore interface {
	CreateGame(ctx context.Context, cfg riskhunt.GameConfig) (riskhunt.GameConfig, error)
	GetConfig(ctx context.Context, gameID string) (riskhunt.GameConfig, error)
	ListGames(ctx context.Context, publicOnly bool) ([]riskhunt.GameConfig, error)
}

// ResultStore lists the results of completed sessions.
type ResultStore interface {
	ListResults(ctx context.Context, limit int) ([]riskhunt.GameResult, error)
	ListResultsByGame(ctx context.Context, gameID string) ([]riskhunt.GameResult, error)
}

// Sessions is the live session registry.
type Sessions interface {
	StartSession(ctx context.Context, gameID, playerName, teamName string) (game.Session, error)
	Session(id string) (game.Session, error)
	SubmitTimeout(ctx context.Context, id string) (game.Session, error)
	AdvanceImage(ctx context.Context, id string) (game.Session, error)
}

// Deps are the collaborators the HTTP handlers work against.
type Deps struct {
	Images   ImageStore
	Games    GameStore
	Results  ResultStore
	Editors  *editor.Manager
	Sessions Sessions
	// Clicks is usually a game.Debouncer in front of the registry.
	Clicks game.ClickSubmitter
	Broker *Broker
	SPADir string
	// Done, when closed, ends every open event stream.
	Done <-chan struct{}
}

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	broker := deps.Broker
	if broker == nil {
		broker = NewBroker()
	}

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("RiskHunt API", "/openapi.json", "/docs"))

	r.Route("/api/images", func(r chi.Router) {
		r.Get("/", handleListImages(deps.Images, logger))
		r.Post("/", handleCreateImage(deps.Images, logger))
		r.Get("/{imageID}", handleGetImage(deps.Images, logger))

		r.Route("/{imageID}/zones", func(r chi.Router) {
			r.Get("/", handleGetZones(deps.Editors, logger))
			r.Put("/", handleReplaceZones(deps.Editors, logger))
			r.Post("/", handleAddZone(deps.Editors, logger))
			r.Patch("/{zoneID}", handleUpdateZone(deps.Editors, logger))
			r.Delete("/{zoneID}", handleRemoveZone(deps.Editors, logger))
			r.Post("/undo", handleUndo(deps.Editors, logger))
			r.Post("/redo", handleRedo(deps.Editors, logger))
			r.Post("/place", handlePlace(deps.Editors, logger))
			r.Get("/at", handleZoneAt(deps.Editors, logger))
			r.Get("/history", handleHistory(deps.Editors, logger))
			r.Post("/save", handleSave(deps.Editors, logger))
			r.Post("/reload", handleReload(deps.Editors, logger))
			r.Post("/release", handleRelease(deps.Editors, logger))
		})
	})

	r.Route("/api/games", func(r chi.Router) {
		r.Get("/", handleListGames(deps.Games, logger))
		r.Post("/", handleCreateGame(deps.Games, logger))
		r.Get("/{gameID}", handleGetGame(deps.Games, logger))
	})

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", handleStartSession(deps.Sessions, logger))
		r.Get("/{sessionID}", handleGetSession(deps.Sessions, logger))
		r.Post("/{sessionID}/click", handleClick(deps.Clicks, logger))
		r.Post("/{sessionID}/timeout", handleTimeout(deps.Sessions, logger))
		r.Post("/{sessionID}/next-image", handleNextImage(deps.Sessions, logger))
		r.Get("/{sessionID}/events", handleEvents(deps.Sessions, broker, deps.Done, logger))
		r.Get("/{sessionID}/ws", handleWS(deps.Sessions, broker, deps.Done, logger))
	})

	r.Get("/api/results", handleListResults(deps.Results, logger))
	r.Get("/api/results/game/{gameID}", handleListGameResults(deps.Results, logger))

	if deps.SPADir != "" {
		if info, err := os.Stat(deps.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", deps.SPADir)
			r.NotFound(handleSPA(deps.SPADir))
		}
	}
}
