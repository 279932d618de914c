package webserver

import (
	"encoding/json"
	"net/http"

	"github.com/kestrel-labs/orchsup/internal/control"
	"github.com/kestrel-labs/orchsup/internal/debug"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		debug.LogKV("webserver", "failed to encode json response", "status", status, "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// handleListChildren answers GET /api/children, optionally scoped by
// ?orchestrator=<id>.
func (srv *Server) handleListChildren(w http.ResponseWriter, r *http.Request) {
	orchestratorID := r.URL.Query().Get("orchestrator")

	children, err := srv.client.List(orchestratorID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, children)
}

// handleChildStatus answers GET /api/children/{id}.
func (srv *Server) handleChildStatus(w http.ResponseWriter, r *http.Request) {
	childSessionID := r.PathValue("id")
	if childSessionID == "" {
		writeError(w, http.StatusBadRequest, "missing child session id")
		return
	}

	child, err := srv.client.Status(childSessionID, false)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, child)
}

// childrenSnapshot is the payload pushed on /ws/events each poll tick.
type childrenSnapshot struct {
	Children []control.WireChildSummary `json:"children"`
}
