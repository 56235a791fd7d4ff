package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/acapella/riskhunt/internal/editor"
	"github.com/acapella/riskhunt/internal/game"
	"github.com/acapella/riskhunt/internal/riskhunt"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthStatus struct {
	Status string `json:"status"`
}

// HealthResponse maps dependency names to their status.
type HealthResponse map[string]HealthStatus

// Path parameter carriers for the reflector.
type (
	imagePath struct {
		ImageID string `path:"imageID"`
	}
	zonePath struct {
		ImageID string `path:"imageID"`
		ZoneID  string `path:"zoneID"`
	}
	gamePath struct {
		GameID string `path:"gameID"`
	}
	sessionPath struct {
		SessionID string `path:"sessionID"`
	}
	zoneAtQuery struct {
		ImageID string  `path:"imageID"`
		X       float64 `query:"x" required:"true"`
		Y       float64 `query:"y" required:"true"`
	}
	listGamesQuery struct {
		Public bool `query:"public"`
	}
	listResultsQuery struct {
		Limit int `query:"limit"`
	}
	replaceZonesInput struct {
		imagePath
		ReplaceZonesRequest
	}
	addZoneInput struct {
		imagePath
		riskhunt.RiskZone
	}
	updateZoneInput struct {
		zonePath
		riskhunt.ZonePatch
	}
	placeInput struct {
		imagePath
		PlaceRequest
	}
	clickInput struct {
		sessionPath
		ClickRequest
	}
)

type response struct {
	status int
	body   any
	opts   []openapi.ContentOption
}

func respOK(body any) response { return response{status: http.StatusOK, body: body} }
func respCreated(body any) response { return response{status: http.StatusCreated, body: body} }
func respError(status int) response {
	return response{status: status, body: ErrorResponse{}}
}

func addOperation(r *openapi3.Reflector, method, path, summary, description string, req any, resps ...response) {
	oc, err := r.NewOperationContext(method, path)
	if err != nil {
		return
	}
	oc.SetSummary(summary)
	oc.SetDescription(description)
	if req != nil {
		oc.AddReqStructure(req)
	}
	for _, resp := range resps {
		opts := append([]openapi.ContentOption{openapi.WithHTTPStatus(resp.status)}, resp.opts...)
		oc.AddRespStructure(resp.body, opts...)
	}
	_ = r.AddOperation(oc)
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "RiskHunt API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the RiskHunt safety training game.")

	addOperation(r, http.MethodGet, "/healthz", "Health check",
		"Returns the health status of backend dependencies.", nil,
		respOK(HealthResponse{}), response{status: http.StatusServiceUnavailable, body: HealthResponse{}})

	// Images.
	addOperation(r, http.MethodGet, "/api/images", "List images",
		"Returns every image with its persisted zones.", nil,
		respOK([]ImageResponse{}))
	addOperation(r, http.MethodPost, "/api/images", "Create image",
		"Registers an image, optionally with an initial zone set.", ImageRequest{},
		respCreated(ImageResponse{}), respError(http.StatusBadRequest))
	addOperation(r, http.MethodGet, "/api/images/{imageID}", "Get image",
		"Returns an image with its persisted zones.", imagePath{},
		respOK(ImageResponse{}), respError(http.StatusNotFound))

	// Zone editing.
	addOperation(r, http.MethodGet, "/api/images/{imageID}/zones", "Get zones",
		"Returns the zones being edited, including unsaved edits.", imagePath{},
		respOK(ZonesResponse{}), respError(http.StatusNotFound))
	addOperation(r, http.MethodPut, "/api/images/{imageID}/zones", "Replace zones",
		"Replaces the whole zone set. Undoable.", replaceZonesInput{},
		respOK(ZonesResponse{}), respError(http.StatusBadRequest), respError(http.StatusNotFound))
	addOperation(r, http.MethodPost, "/api/images/{imageID}/zones", "Add zone",
		"Adds a zone. An empty id is generated. Undoable.", addZoneInput{},
		respOK(ZonesResponse{}), respError(http.StatusBadRequest), respError(http.StatusNotFound))
	addOperation(r, http.MethodPatch, "/api/images/{imageID}/zones/{zoneID}", "Update zone",
		"Applies a partial update to a zone. Undoable.", updateZoneInput{},
		respOK(ZonesResponse{}), respError(http.StatusBadRequest), respError(http.StatusConflict))
	addOperation(r, http.MethodDelete, "/api/images/{imageID}/zones/{zoneID}", "Remove zone",
		"Removes a zone. Undoable.", zonePath{},
		respOK(ZonesResponse{}), respError(http.StatusConflict))
	addOperation(r, http.MethodPost, "/api/images/{imageID}/zones/undo", "Undo",
		"Reverts the last edit. A no-op when there is nothing to undo.", imagePath{},
		respOK(ZonesResponse{}))
	addOperation(r, http.MethodPost, "/api/images/{imageID}/zones/redo", "Redo",
		"Reapplies the last undone edit. A no-op when there is nothing to redo.", imagePath{},
		respOK(ZonesResponse{}))
	addOperation(r, http.MethodPost, "/api/images/{imageID}/zones/place", "Place zone",
		"Selects the zone under the point, or adds a default zone of the tool's shape there.", placeInput{},
		respOK(PlaceResponse{}), respCreated(PlaceResponse{}), respError(http.StatusBadRequest))
	addOperation(r, http.MethodGet, "/api/images/{imageID}/zones/at", "Zone at point",
		"Returns the first zone containing the point, or null.", zoneAtQuery{},
		respOK(ZoneAtResponse{}), respError(http.StatusBadRequest))
	addOperation(r, http.MethodGet, "/api/images/{imageID}/zones/history", "Edit status",
		"Reports undo and redo depth and whether unsaved edits exist.", imagePath{},
		respOK(editor.Status{}))
	addOperation(r, http.MethodPost, "/api/images/{imageID}/zones/save", "Save zones",
		"Persists the edited zone set now.", imagePath{},
		respOK(ZonesResponse{}))
	addOperation(r, http.MethodPost, "/api/images/{imageID}/zones/reload", "Reload zones",
		"Discards unsaved edits and history and reloads the persisted zone set.", imagePath{},
		respOK(ZonesResponse{}))
	addOperation(r, http.MethodPost, "/api/images/{imageID}/zones/release", "Release editor",
		"Saves unsaved edits and unloads the image's editor, dropping its history. Used when another image is selected.", imagePath{},
		response{status: http.StatusNoContent}, respError(http.StatusInternalServerError))

	// Games.
	addOperation(r, http.MethodGet, "/api/games", "List games",
		"Returns game templates, newest first.", listGamesQuery{},
		respOK([]GameResponse{}))
	addOperation(r, http.MethodPost, "/api/games", "Create game",
		"Creates a game template. Omitted budgets default to 300 s, 17 clicks and 15 risks.", GameRequest{},
		respCreated(GameResponse{}), respError(http.StatusBadRequest))
	addOperation(r, http.MethodGet, "/api/games/{gameID}", "Get game",
		"Returns a game template.", gamePath{},
		respOK(GameResponse{}), respError(http.StatusNotFound))

	// Sessions.
	addOperation(r, http.MethodPost, "/api/sessions", "Start session",
		"Starts a play session of a game.", StartSessionRequest{},
		respCreated(SessionResponse{}), respError(http.StatusBadRequest), respError(http.StatusNotFound))
	addOperation(r, http.MethodGet, "/api/sessions/{sessionID}", "Get session",
		"Returns the current session state.", sessionPath{},
		respOK(SessionResponse{}), respError(http.StatusNotFound))
	addOperation(r, http.MethodPost, "/api/sessions/{sessionID}/click", "Click",
		"Scores a click on the current image. Rapid repeats are debounced.", clickInput{},
		respOK(game.ClickResult{}), respError(http.StatusBadRequest), respError(http.StatusNotFound), respError(http.StatusConflict))
	addOperation(r, http.MethodPost, "/api/sessions/{sessionID}/timeout", "Time out",
		"Ends the session with reason timeout. Idempotent.", sessionPath{},
		respOK(SessionResponse{}), respError(http.StatusNotFound))
	addOperation(r, http.MethodPost, "/api/sessions/{sessionID}/next-image", "Next image",
		"Moves the session to the next image of the game.", sessionPath{},
		respOK(SessionResponse{}), respError(http.StatusConflict))
	addOperation(r, http.MethodGet, "/api/sessions/{sessionID}/events", "SSE event stream",
		"Server-Sent Events stream of session events. Starts with a snapshot.", sessionPath{},
		response{status: http.StatusOK, opts: []openapi.ContentOption{openapi.WithContentType("text/event-stream")}})
	addOperation(r, http.MethodGet, "/api/sessions/{sessionID}/ws", "WebSocket event stream",
		"Upgrades to a WebSocket that carries the same events as the SSE stream.", sessionPath{},
		response{status: http.StatusSwitchingProtocols, opts: []openapi.ContentOption{openapi.WithContentType("text/plain")}})

	// Results.
	addOperation(r, http.MethodGet, "/api/results", "List results",
		"Returns the most recent game results.", listResultsQuery{},
		respOK([]riskhunt.GameResult{}))
	addOperation(r, http.MethodGet, "/api/results/game/{gameID}", "Game leaderboard",
		"Returns the results of one game, best score first.", gamePath{},
		respOK([]riskhunt.GameResult{}))

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
