package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"

	"github.com/verte-zerg/swingkiosk/internal/model"
	"github.com/verte-zerg/swingkiosk/internal/session"
)

const streamBuffer = 64

// wsMessage is the envelope for messages in both directions.
type wsMessage struct {
	Type     string            `json:"type"`
	Kind     session.EventKind `json:"kind,omitempty"`
	Action   string            `json:"action,omitempty"`
	Profile  *model.Profile    `json:"profile,omitempty"`
	Snapshot *session.Snapshot `json:"snapshot,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// ServeWS streams session events to the client and accepts session inputs.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Error("Failed to accept WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			h.log.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	bus := h.engine.Bus()
	sub := bus.Subscribe(streamBuffer)
	defer bus.Unsubscribe(sub)

	snap := h.engine.Snapshot()
	if err := writeJSON(ctx, ws, wsMessage{Type: "snapshot", Snapshot: &snap}); err != nil {
		h.log.Debug("Failed to send initial snapshot", "error", err)
		return
	}

	go func() {
		defer cancel()
		h.inputLoop(ctx, ws)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			snap := ev.Snapshot
			if err := writeJSON(ctx, ws, wsMessage{Type: "event", Kind: ev.Kind, Snapshot: &snap}); err != nil {
				h.log.Debug("WebSocket write error", "error", err)
				return
			}
		}
	}
}

func (h *Handler) inputLoop(ctx context.Context, ws *websocket.Conn) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.log.Debug("WebSocket closed by client")
			} else if ctx.Err() == nil {
				h.log.Warn("WebSocket read error", "error", err)
			}
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.reply(ctx, ws, wsMessage{Type: "error", Error: "invalid message"})
			continue
		}
		switch msg.Type {
		case "ping":
			h.reply(ctx, ws, wsMessage{Type: "pong"})
		case "start":
			var profile model.Profile
			if msg.Profile != nil {
				profile = *msg.Profile
			}
			if err := h.engine.StartSeries(profile); err != nil {
				h.reply(ctx, ws, wsMessage{Type: "error", Action: "start", Error: err.Error()})
			}
		case "action":
			action, ok := h.actions[msg.Action]
			if !ok {
				h.reply(ctx, ws, wsMessage{Type: "error", Action: msg.Action, Error: "unknown action"})
				continue
			}
			if err := action(); err != nil {
				h.reply(ctx, ws, wsMessage{Type: "error", Action: msg.Action, Error: err.Error()})
			}
		default:
			h.reply(ctx, ws, wsMessage{Type: "error", Error: "unknown message type"})
		}
	}
}

func (h *Handler) reply(ctx context.Context, ws *websocket.Conn, msg wsMessage) {
	if err := writeJSON(ctx, ws, msg); err != nil {
		h.log.Debug("Failed to send reply", "type", msg.Type, "error", err)
	}
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
