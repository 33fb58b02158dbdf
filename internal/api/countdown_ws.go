package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/terra-clan/aptitude-engine/internal/assessment"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// CountdownMessage is one frame of the countdown stream
type CountdownMessage struct {
	Type      string             `json:"type"`
	Remaining int                `json:"remaining,omitempty"`
	Result    *assessment.Result `json:"result,omitempty"`
	Data      string             `json:"data,omitempty"`
}

func (s *Server) handleCountdownWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	owner := IdentityFromContext(r.Context())

	view, err := s.assessments.Get(r.Context(), id, owner)
	if err != nil {
		respondServiceError(w, err, "get assessment")
		return
	}

	events, cancel, err := s.assessments.Subscribe(r.Context(), id, owner)
	if err != nil {
		respondServiceError(w, err, "subscribe")
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("countdown websocket connected", "id", id, "owner", owner)

	// the reader only watches for the client going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}
		}
	}()

	if err := sendCountdownMessage(conn, CountdownMessage{Type: assessment.EventTick, Remaining: view.RemainingSeconds}); err != nil {
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			slog.Info("countdown websocket disconnected", "id", id)
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				_ = sendCountdownMessage(conn, CountdownMessage{Type: "error", Data: "event stream closed"})
				closeCountdown(conn)
				return
			}
			msg := CountdownMessage{Type: ev.Type, Remaining: ev.Remaining, Result: ev.Result}
			if err := sendCountdownMessage(conn, msg); err != nil {
				return
			}
			if ev.Type != assessment.EventTick {
				closeCountdown(conn)
				return
			}
		}
	}
}

func sendCountdownMessage(conn *websocket.Conn, msg CountdownMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal countdown message", "error", err)
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send countdown message", "error", err)
		return err
	}
	return nil
}

func closeCountdown(conn *websocket.Conn) {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
}
