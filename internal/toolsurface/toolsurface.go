// Package toolsurface exposes the four operations the orchestrator agent
// invokes as tool calls (spec §4.G): session_create, session_prompt,
// session_status, session_list. Each is a thin JSON marshal/unmarshal
// wrapper around internal/supervisor — all the actual logic lives there;
// this package only shapes requests and responses and maps supervisor
// errors onto the {status, error} envelope the host expects.
package toolsurface

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/kestrel-labs/orchsup/internal/registry"
	"github.com/kestrel-labs/orchsup/internal/supervisor"
)

// errorMessageMaxChars bounds user-visible error strings (spec §7).
const errorMessageMaxChars = 2000

// Surface wraps a Supervisor. It holds no caller identity: the host passes
// callerSessionID (and, for session_create, callerDirectory) on each call,
// matching the teacher's per-command CLI handlers taking an explicit
// caller context.
type Surface struct {
	sup *supervisor.Supervisor
}

// New wraps sup.
func New(sup *supervisor.Supervisor) *Surface {
	return &Surface{sup: sup}
}

// --- session_create ------------------------------------------------------

type createRequest struct {
	Title string `json:"title"`
}

type createResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"sessionID,omitempty"`
	Title     string `json:"title,omitempty"`
	Directory string `json:"directory,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SessionCreate implements session_create({title}).
func (s *Surface) SessionCreate(ctx context.Context, callerSessionID, callerDirectory string, rawArgs json.RawMessage) json.RawMessage {
	var req createRequest
	if err := json.Unmarshal(rawArgs, &req); err != nil {
		return encode(createResponse{Status: "error", Error: truncateErr(err)})
	}
	if req.Title == "" {
		return encode(createResponse{Status: "error", Error: supervisor.ErrMissingMetadata.Error()})
	}

	result, err := s.sup.CreateSession(ctx, callerSessionID, callerDirectory, req.Title)
	if err != nil {
		return encode(createResponse{Status: "error", Error: truncateErr(err)})
	}
	return encode(createResponse{
		Status:    "created",
		SessionID: result.SessionID,
		Title:     result.Title,
		Directory: result.Directory,
	})
}

// --- session_prompt -------------------------------------------------------

type promptRequest struct {
	SessionID string  `json:"sessionID"`
	Prompt    string  `json:"prompt"`
	Agent     *string `json:"agent"`
}

type promptResponse struct {
	Status       string `json:"status"`
	SessionID    string `json:"sessionID,omitempty"`
	Agent        string `json:"agent,omitempty"`
	ForwardToken string `json:"forwardToken,omitempty"`
	PathRewrite  bool   `json:"pathRewrite,omitempty"`
	Error        string `json:"error,omitempty"`
}

// SessionPrompt implements session_prompt({sessionID, prompt, agent}).
func (s *Surface) SessionPrompt(ctx context.Context, callerSessionID string, rawArgs json.RawMessage) json.RawMessage {
	var req promptRequest
	if err := json.Unmarshal(rawArgs, &req); err != nil {
		return encode(promptResponse{Status: "error", Error: truncateErr(err)})
	}
	if req.SessionID == "" || req.Prompt == "" {
		return encode(promptResponse{Status: "error", Error: supervisor.ErrMissingMetadata.Error()})
	}
	agent := ""
	if req.Agent != nil {
		agent = *req.Agent
	}

	result, err := s.sup.PromptSession(ctx, callerSessionID, req.SessionID, req.Prompt, agent)
	if err != nil {
		return encode(promptResponse{Status: "error", Error: truncateErr(err)})
	}
	return encode(promptResponse{
		Status:       "prompt_sent",
		SessionID:    result.SessionID,
		Agent:        result.Agent,
		ForwardToken: result.ForwardToken,
		PathRewrite:  result.PathRewrite,
	})
}

// --- session_status -------------------------------------------------------

type statusRequest struct {
	SessionID string `json:"sessionID"`
	Refresh   *bool  `json:"refresh"`
}

type statusResponse struct {
	Status     string             `json:"status"`
	SessionID  string             `json:"sessionID,omitempty"`
	State      registry.State     `json:"state,omitempty"`
	Progress   registry.Progress  `json:"progress,omitempty"`
	Excerpt    string             `json:"excerpt,omitempty"`
	Workspace  *registry.Workspace `json:"workspace,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// SessionStatus implements session_status({sessionID, refresh}).
func (s *Surface) SessionStatus(ctx context.Context, callerSessionID string, rawArgs json.RawMessage) json.RawMessage {
	var req statusRequest
	if err := json.Unmarshal(rawArgs, &req); err != nil {
		return encode(statusResponse{Status: "error", Error: truncateErr(err)})
	}
	if req.SessionID == "" {
		return encode(statusResponse{Status: "error", Error: supervisor.ErrMissingMetadata.Error()})
	}
	refresh := req.Refresh != nil && *req.Refresh

	result, err := s.sup.StatusSession(ctx, callerSessionID, req.SessionID, refresh)
	if err != nil {
		return encode(statusResponse{Status: "error", Error: truncateErr(err)})
	}
	return encode(statusResponse{
		Status:    "ok",
		SessionID: result.SessionID,
		State:     result.State,
		Progress:  result.Progress,
		Excerpt:   result.Excerpt,
		Workspace: &result.Workspace,
	})
}

// --- session_list ---------------------------------------------------------

type listResponse struct {
	Status   string                   `json:"status"`
	Count    int                      `json:"count"`
	Children []registry.ChildMetadata `json:"children"`
}

// SessionList implements session_list({}).
func (s *Surface) SessionList(callerSessionID string) json.RawMessage {
	children := s.sup.ListSessions(callerSessionID)
	return encode(listResponse{Status: "ok", Count: len(children), Children: children})
}

func encode(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		// Marshal of our own response structs cannot fail in practice; fall
		// back to a minimal, still-valid error envelope.
		return json.RawMessage(`{"status":"error","error":"internal: encoding response failed"}`)
	}
	return data
}

func truncateErr(err error) string {
	msg := err.Error()
	if len(msg) > errorMessageMaxChars {
		msg = msg[:errorMessageMaxChars]
	}
	return msg
}

// IsValidationError reports whether err is one of the tool surface's
// validation errors (as opposed to a host-call failure), per spec §7.
func IsValidationError(err error) bool {
	return errors.Is(err, supervisor.ErrNestedOrchestrator) ||
		errors.Is(err, supervisor.ErrUnknownChild) ||
		errors.Is(err, supervisor.ErrNotOwnedByCaller) ||
		errors.Is(err, supervisor.ErrMissingMetadata)
}
