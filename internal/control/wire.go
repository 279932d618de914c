// Package control is the operator-facing read path over a running
// supervisor (SPEC_FULL.md §11.1): a Unix domain socket that
// cmd/orchsupctl, internal/tui, and internal/webserver all dial into to
// read child-session state without going through the host-consumed tool
// surface (spec §6), which is reserved for the orchestrator agent.
//
// Wire shape and accept-loop are grounded on internal/session/protocol.go
// and internal/session/daemon.go's broadcaster: one newline-delimited JSON
// message per line, a fixed small set of request types, one reply per
// request. Unlike the teacher's daemon this is strictly request/reply —
// there is no streaming/broadcast, since SPEC_FULL.md §11.1 scopes this to
// "purely an operator-facing read path", not a live event feed.
package control

import "encoding/json"

// Message type constants, mirroring internal/session/protocol.go's
// MsgXxx/MsgXxxResult naming convention.
const (
	MsgList       = "list"
	MsgListResult = "list_result"

	MsgStatus       = "status"
	MsgStatusResult = "status_result"

	MsgError = "error"
)

// WireMsg is the envelope for every line sent over the control socket.
type WireMsg struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestID,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// WireError carries a failure back to the client.
type WireError struct {
	Message string `json:"message"`
}

// WireListRequest asks for every child of one orchestrator session. An
// empty OrchestratorSessionID means "every child known to the registry".
type WireListRequest struct {
	OrchestratorSessionID string `json:"orchestratorSessionID,omitempty"`
}

// WireChildSummary is one row of a list/status reply.
type WireChildSummary struct {
	ChildSessionID        string `json:"childSessionID"`
	OrchestratorSessionID string `json:"orchestratorSessionID"`
	Title                 string `json:"title"`
	State                 string `json:"state"`
	WorkspaceDirectory    string `json:"workspaceDirectory,omitempty"`
	WorkspaceBranch       string `json:"workspaceBranch,omitempty"`
	LastActivityAt        int64  `json:"lastActivityAt"`
	Excerpt               string `json:"excerpt,omitempty"`
}

// WireListReply answers MsgList.
type WireListReply struct {
	Children []WireChildSummary `json:"children"`
}

// WireStatusRequest asks for one child's detail. Server answers from the
// registry only; it does not read Refresh and never contacts the host.
type WireStatusRequest struct {
	ChildSessionID string `json:"childSessionID"`
	Refresh        bool   `json:"refresh,omitempty"`
}

// WireStatusReply answers MsgStatus.
type WireStatusReply struct {
	Child WireChildSummary `json:"child"`
}

func encodeMsg(msgType, requestID string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	line, err := json.Marshal(WireMsg{Type: msgType, RequestID: requestID, Data: data})
	if err != nil {
		return nil, err
	}
	return append(line, '\n'), nil
}

func decodeData[T any](raw json.RawMessage) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, nil
	}
	err := json.Unmarshal(raw, &out)
	return out, err
}
