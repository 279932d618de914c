// Package hostclient defines the host capability set the supervisor needs
// from the surrounding agent runtime: creating and prompting child
// sessions, reading their status and message history, and listing
// available agent profiles.
//
// The interface shape mirrors the teacher's session.Client
// (internal/session/client.go): a small set of narrow, context-aware
// methods rather than one do-everything struct, so a fake implementation
// can stand in for tests without a real socket on the other end.
package hostclient

import (
	"context"

	"github.com/kestrel-labs/orchsup/internal/forward"
)

// CreateOptions describes a new child session request (spec §4.E
// session_create).
type CreateOptions struct {
	Title     string
	Directory string
	Agent     string // optional: named agent profile to run the child as
}

// SessionInfo is what session.create/session.status return about one
// session.
type SessionInfo struct {
	SessionID string
	Status    string // e.g. "idle", "busy", "error"
	Directory string
}

// AgentDescriptor is one entry from app.agents.
type AgentDescriptor struct {
	Name        string
	Description string
}

// Client is the host capability set consumed by the supervisor.
type Client interface {
	// SessionCreate starts a brand-new child session and returns its ID.
	SessionCreate(ctx context.Context, opts CreateOptions) (SessionInfo, error)

	// SessionPromptAsync sends a prompt to an existing session without
	// waiting for the reply; the caller observes completion via
	// SessionStatus/SessionMessages polling or host-pushed events.
	SessionPromptAsync(ctx context.Context, sessionID, prompt string) error

	// SessionStatus reports a session's current run state.
	SessionStatus(ctx context.Context, sessionID string) (SessionInfo, error)

	// SessionMessages returns the session's full message history in the
	// host's raw wire shape, ready for forward.Normalize.
	SessionMessages(ctx context.Context, sessionID string) ([]forward.RawMessage, error)

	// PostSynthetic posts a supervisor-authored message into sessionID
	// (normally the orchestrator session), synchronously. Used to deliver
	// forwarded child replies and error notices (spec §6 session.prompt
	// with parts[].synthetic=true).
	PostSynthetic(ctx context.Context, sessionID, directory, text string, metadata map[string]string) error

	// Agents lists agent profiles the host knows about. Optional
	// capability: hosts that don't support it return an empty slice and a
	// nil error.
	Agents(ctx context.Context) ([]AgentDescriptor, error)
}

// WorktreeHost is an optional capability some hosts expose natively
// instead of delegating to internal/workspace's direct git plumbing.
// The supervisor does not call through this interface: it always
// provisions workspaces with internal/workspace.
type WorktreeHost interface {
	WorktreeCreate(ctx context.Context, repoRoot, branch string) (directory string, err error)
	WorktreeRemove(ctx context.Context, repoRoot, directory string) error
}
