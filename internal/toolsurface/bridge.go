package toolsurface

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"github.com/kestrel-labs/orchsup/internal/debug"
	"github.com/kestrel-labs/orchsup/internal/supervisor"
)

// Bridge drives a Surface (and the Supervisor event hooks that sit beside
// it) over a newline-delimited JSON stream, standing in for the in-process
// embedding a real host would do. Grounded on internal/control's wire
// protocol, reused here for the host-consumed side of the boundary
// (spec §6) instead of the operator-facing read path.
//
// One line in, one line out, in request order: unlike internal/control
// there is no concurrent connection handling, since a single host process
// talks to a single supervisor over its own stdio pair.
type Bridge struct {
	surface *Surface
	sup     *supervisor.Supervisor
}

// NewBridge wires sup's tool surface and event hooks to a stdio-shaped
// transport.
func NewBridge(sup *supervisor.Supervisor) *Bridge {
	return &Bridge{surface: New(sup), sup: sup}
}

// bridgeRequest is one line of input. Tool is one of the session_* tool
// names (spec §4.G) or one of the host event names the supervisor needs to
// observe (busy, idle, error, permission_updated, permission_replied).
type bridgeRequest struct {
	RequestID       string          `json:"requestID,omitempty"`
	Tool            string          `json:"tool"`
	CallerSessionID string          `json:"callerSessionID,omitempty"`
	CallerDirectory string          `json:"callerDirectory,omitempty"`
	Args            json.RawMessage `json:"args,omitempty"`
}

type bridgeEventArgs struct {
	ChildSessionID string `json:"childSessionID"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
	PermissionID   string `json:"permissionID,omitempty"`
	PermissionType string `json:"permissionType,omitempty"`
	Patterns       any    `json:"patterns,omitempty"`
	Response       string `json:"response,omitempty"`
}

type bridgeResponse struct {
	RequestID string          `json:"requestID,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
}

// Run reads one bridgeRequest per line from r until EOF or ctx is
// cancelled, dispatches it, and writes one bridgeResponse per line to w.
func (b *Bridge) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	writer := bufio.NewWriter(w)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var req bridgeRequest
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			debug.LogKV("toolsurface", "bridge_decode_failed", "error", err.Error())
			continue
		}
		result := b.dispatch(ctx, req)
		if result == nil {
			continue
		}
		line, err := json.Marshal(bridgeResponse{RequestID: req.RequestID, Result: result})
		if err != nil {
			continue
		}
		if _, err := writer.Write(append(line, '\n')); err != nil {
			return err
		}
		if err := writer.Flush(); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (b *Bridge) dispatch(ctx context.Context, req bridgeRequest) json.RawMessage {
	switch req.Tool {
	case "session_create":
		return b.surface.SessionCreate(ctx, req.CallerSessionID, req.CallerDirectory, req.Args)
	case "session_prompt":
		return b.surface.SessionPrompt(ctx, req.CallerSessionID, req.Args)
	case "session_status":
		return b.surface.SessionStatus(ctx, req.CallerSessionID, req.Args)
	case "session_list":
		return b.surface.SessionList(req.CallerSessionID)
	case "busy":
		b.withEventArgs(req, func(e bridgeEventArgs) { b.sup.HandleBusy(e.ChildSessionID) })
		return nil
	case "idle":
		b.withEventArgs(req, func(e bridgeEventArgs) { b.sup.HandleIdle(e.ChildSessionID) })
		return nil
	case "error":
		b.withEventArgs(req, func(e bridgeEventArgs) { b.sup.HandleError(ctx, e.ChildSessionID, e.ErrorMessage) })
		return nil
	case "permission_updated":
		b.withEventArgs(req, func(e bridgeEventArgs) {
			b.sup.HandlePermissionUpdated(e.ChildSessionID, e.PermissionID, e.PermissionType, e.Patterns)
		})
		return nil
	case "permission_replied":
		b.withEventArgs(req, func(e bridgeEventArgs) {
			b.sup.HandlePermissionReplied(e.PermissionID, e.Response)
		})
		return nil
	default:
		debug.LogKV("toolsurface", "bridge_unknown_tool", "tool", req.Tool)
		return nil
	}
}

func (b *Bridge) withEventArgs(req bridgeRequest, fn func(bridgeEventArgs)) {
	var e bridgeEventArgs
	if len(req.Args) > 0 {
		if err := json.Unmarshal(req.Args, &e); err != nil {
			debug.LogKV("toolsurface", "bridge_event_decode_failed", "tool", req.Tool, "error", err.Error())
			return
		}
	}
	fn(e)
}
