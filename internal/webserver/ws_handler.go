package webserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

// wsEnvelope mirrors the teacher's ws_handler.go envelope shape (Type/Data),
// trimmed to the one event this surface emits: a periodic snapshot of every
// child session, since there is no live event-fan-in wired to this control
// socket yet (SPEC_FULL.md §11).
type wsEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// handleEventsWebSocket answers GET /ws/events: accepts the upgrade, then
// pushes a children snapshot every two seconds until the client
// disconnects.
func (srv *Server) handleEventsWebSocket(w http.ResponseWriter, r *http.Request) {
	orchestratorID := r.URL.Query().Get("orchestrator")

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return
	}
	defer ws.CloseNow()

	ctx := r.Context()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	if !srv.pushSnapshot(ctx, ws, orchestratorID) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			ws.Close(websocket.StatusNormalClosure, "context done")
			return
		case <-ticker.C:
			if !srv.pushSnapshot(ctx, ws, orchestratorID) {
				return
			}
		}
	}
}

func (srv *Server) pushSnapshot(ctx context.Context, ws *websocket.Conn, orchestratorID string) bool {
	children, err := srv.client.List(orchestratorID)
	var env wsEnvelope
	if err != nil {
		env = wsEnvelope{Type: "error", Data: errorResponse{Error: err.Error()}}
	} else {
		env = wsEnvelope{Type: "snapshot", Data: childrenSnapshot{Children: children}}
	}

	data, err := json.Marshal(env)
	if err != nil {
		return true
	}

	writeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := ws.Write(writeCtx, websocket.MessageText, data); err != nil {
		return false
	}
	return true
}
