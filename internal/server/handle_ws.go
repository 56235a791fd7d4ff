package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/acapella/riskhunt/internal/game"
)

const wsWriteTimeout = 5 * time.Second

// handleWS streams session events over a websocket. Messages are JSON
// objects: a snapshot first, then one per event. The server closes the
// connection normally after the completed event.
func handleWS(sessions Sessions, broker *Broker, done <-chan struct{}, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")

		ch := broker.Subscribe(id)
		defer broker.Unsubscribe(id, ch)

		s, err := sessions.Session(id)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "session_id", id, "error", err)
			return
		}
		defer conn.CloseNow()

		// Clients only listen; CloseRead handles their close frame.
		ctx := conn.CloseRead(r.Context())

		if err := writeWS(ctx, conn, newSnapshot(s)); err != nil {
			logger.Debug("websocket write failed", "session_id", id, "error", err)
			return
		}
		if !s.Active() {
			conn.Close(websocket.StatusNormalClosure, "session completed")
			return
		}

		for {
			select {
			case <-ctx.Done():
				logger.Debug("websocket closed by client", "session_id", id)
				return
			case <-done:
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			case msg := <-ch:
				if err := writeWSRaw(ctx, conn, msg.Data); err != nil {
					logger.Debug("websocket write failed", "session_id", id, "error", err)
					return
				}
				if msg.Type == game.EventCompleted {
					conn.Close(websocket.StatusNormalClosure, "session completed")
					return
				}
			}
		}
	}
}

func writeWS(ctx context.Context, conn *websocket.Conn, v any) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, v)
}

func writeWSRaw(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
