package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/acapella/riskhunt/internal/database"
	"github.com/acapella/riskhunt/internal/editor"
	"github.com/acapella/riskhunt/internal/game"
	"github.com/acapella/riskhunt/internal/migrations"
	"github.com/acapella/riskhunt/internal/storage"
)

type testEnv struct {
	router   http.Handler
	store    *storage.Store
	registry *game.Registry
	editors  *editor.Manager
	broker   *Broker
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.MemoryPath)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := storage.New(db)
	broker := NewBroker()
	reg := game.NewRegistry(st, st, st, broker, logger, game.Options{})
	t.Cleanup(reg.Close)
	editors := editor.NewManager(st, logger, editor.DefaultHistoryLimit)

	done := make(chan struct{})
	t.Cleanup(func() { close(done) })

	deps := Deps{
		Images:   st,
		Games:    st,
		Results:  st,
		Editors:  editors,
		Sessions: reg,
		Clicks:   game.NewDebouncer(reg, 0, nil),
		Broker:   broker,
		Done:     done,
	}
	return testEnv{
		router:   NewRouter(logger, deps, nil),
		store:    st,
		registry: reg,
		editors:  editors,
		broker:   broker,
	}
}

func (e testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d: %s", rec.Code, want, rec.Body.String())
	}
}

const workshopImage = `{
	"name": "Workshop",
	"source": "/img/workshop.jpg",
	"zones": [
		{"id": "flame", "type": "circle", "coordinates": [100, 100, 30], "description": "Open flame", "difficulty": "easy", "points": 5}
	]
}`

// createImage registers the workshop image and returns its id.
func (e testEnv) createImage(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/images", workshopImage)
	expectStatus(t, rec, http.StatusCreated)
	return decode[ImageResponse](t, rec).ID
}

func (e testEnv) createGame(t *testing.T, req GameRequest) GameResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/games", req)
	expectStatus(t, rec, http.StatusCreated)
	return decode[GameResponse](t, rec)
}

func (e testEnv) startSession(t *testing.T, gameID string) SessionResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/sessions", StartSessionRequest{GameID: gameID, PlayerName: "Ana", TeamName: "Blue"})
	expectStatus(t, rec, http.StatusCreated)
	return decode[SessionResponse](t, rec)
}
