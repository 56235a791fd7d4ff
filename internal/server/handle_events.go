package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/acapella/riskhunt/internal/game"
)

// SnapshotEvent opens every event stream with the full session state.
type SnapshotEvent struct {
	Type    string          `json:"type"`
	Session SessionResponse `json:"session"`
}

func newSnapshot(s game.Session) SnapshotEvent {
	return SnapshotEvent{Type: "snapshot", Session: toSessionResponse(s)}
}

// handleEvents streams session events as Server-Sent Events. The stream
// ends after the completed event.
func handleEvents(sessions Sessions, broker *Broker, done <-chan struct{}, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")

		// Subscribe before reading the snapshot so nothing falls in between.
		ch := broker.Subscribe(id)
		defer broker.Unsubscribe(id, ch)

		s, err := sessions.Session(id)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		snapshot, _ := json.Marshal(newSnapshot(s))
		fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", snapshot)
		flusher.Flush()
		if !s.Active() {
			return
		}

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-done:
				return
			case msg := <-ch:
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, msg.Data)
				flusher.Flush()
				if msg.Type == game.EventCompleted {
					return
				}
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
