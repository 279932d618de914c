// Package supervisor is the central controller (spec §4.E): it wires the
// registry, debouncer, forwarding resolver, workspace provisioner, and the
// host's session client into the four tool-surface operations plus the
// event-driven idle/error delivery paths.
//
// Structurally this follows the teacher's Orchestrator
// (internal/orchestrator/orchestrator.go): one struct owning every
// collaborator, mutex-guarded maps for anything mutable in memory, and
// debug.LogKV calls at every host-call boundary instead of propagating
// errors up as fatal.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kestrel-labs/orchsup/internal/debounce"
	"github.com/kestrel-labs/orchsup/internal/debug"
	"github.com/kestrel-labs/orchsup/internal/forward"
	"github.com/kestrel-labs/orchsup/internal/hostclient"
	"github.com/kestrel-labs/orchsup/internal/permcache"
	"github.com/kestrel-labs/orchsup/internal/registry"
	"github.com/kestrel-labs/orchsup/internal/textutil"
	"github.com/kestrel-labs/orchsup/internal/workspace"
)

// Validation errors surfaced to the tool surface as {status:"error"} (spec
// §7).
var (
	ErrNestedOrchestrator = errors.New("nested orchestration refused")
	ErrUnknownChild       = errors.New("unknown child session")
	ErrNotOwnedByCaller   = errors.New("child session not owned by caller")
	ErrMissingMetadata    = errors.New("missing required metadata")
)

const excerptMaxChars = 400

// Supervisor is the central controller described by spec §4.E.
type Supervisor struct {
	registry  *registry.Store
	workspace *workspace.Provisioner
	host      hostclient.Client
	debouncer *debounce.Debouncer
	repoRoot  string

	// now is overridable in tests; defaults to time.Now.
	now func() time.Time
	// newToken is overridable in tests for deterministic forward tokens;
	// defaults to a fresh cryptographic UUID.
	newToken func() string
	// debounceInterval overrides the idle-debounce window; zero means use
	// debounce.DefaultInterval.
	debounceInterval time.Duration
	debounceClock    debounce.Clock

	// permCache backs the permission hook (spec §4.F).
	permCache *permcache.Cache
	permMu    sync.Mutex
	// pendingPermissions tracks permission.updated events awaiting their
	// permission.replied reply, keyed by permission ID.
	pendingPermissions map[string]pendingPermission
}

// Option customizes a Supervisor at construction time.
type Option func(*Supervisor)

// WithClock overrides the time source (tests only).
func WithClock(now func() time.Time) Option {
	return func(s *Supervisor) { s.now = now }
}

// WithTokenGenerator overrides forward-token generation (tests only).
func WithTokenGenerator(gen func() string) Option {
	return func(s *Supervisor) { s.newToken = gen }
}

// WithDebounceInterval overrides the idle-debounce window (default 5s).
func WithDebounceInterval(d time.Duration) Option {
	return func(s *Supervisor) { s.debounceInterval = d }
}

// WithDebounceClock overrides the debouncer's timer source (tests only).
func WithDebounceClock(clock debounce.Clock) Option {
	return func(s *Supervisor) { s.debounceClock = clock }
}

// New constructs a Supervisor and wires its debouncer's callback to
// handleStableIdle.
func New(reg *registry.Store, ws *workspace.Provisioner, host hostclient.Client, repoRoot string, opts ...Option) *Supervisor {
	s := &Supervisor{
		registry:           reg,
		workspace:          ws,
		host:               host,
		repoRoot:           repoRoot,
		now:                time.Now,
		newToken:           uuid.NewString,
		permCache:          permcache.New(),
		pendingPermissions: make(map[string]pendingPermission),
	}
	for _, opt := range opts {
		opt(s)
	}
	interval := s.debounceInterval
	if interval <= 0 {
		interval = debounce.DefaultInterval
	}
	clock := s.debounceClock
	if clock == nil {
		clock = debounce.RealClock
	}
	s.debouncer = debounce.New(interval, clock, s.handleStableIdle)
	return s
}

// --- session_create -------------------------------------------------

// CreateResult is the outcome of a successful session_create.
type CreateResult struct {
	SessionID string
	Title     string
	Directory string
}

// CreateSession implements spec §4.E "On session_create". callerDirectory
// is the orchestrator's own working directory, used both to seed the
// fallback workspace and to route forwarded replies back.
func (s *Supervisor) CreateSession(ctx context.Context, callerSessionID, callerDirectory, title string) (CreateResult, error) {
	if s.registry.IsNestedOrchestrator(callerSessionID) {
		return CreateResult{}, ErrNestedOrchestrator
	}

	ws := s.workspace.Provision(ctx, callerSessionID, title, callerDirectory, s.repoRoot)

	info, err := s.host.SessionCreate(ctx, hostclient.CreateOptions{
		Title:     title,
		Directory: ws.Directory,
	})
	if err != nil {
		if ws.Kind == workspace.KindIsolated {
			if rmErr := s.workspace.Remove(ctx, s.repoRoot, ws); rmErr != nil {
				debug.LogKV("supervisor", "create: workspace cleanup after host failure also failed", "error", rmErr)
			}
		}
		return CreateResult{}, fmt.Errorf("supervisor: host session.create failed: %w", err)
	}

	record := registry.ChildRecord{
		ChildSessionID:        info.SessionID,
		OrchestratorSessionID: callerSessionID,
		OrchestratorDirectory: callerDirectory,
		Title:                 title,
		CreatedAt:             s.now().UnixMilli(),
		Workspace:             registry.Workspace{Directory: ws.Directory, Branch: ws.Branch},
	}
	if ws.Kind != workspace.KindIsolated {
		record.Workspace = registry.Workspace{}
	}
	if err := s.registry.Register(record); err != nil {
		debug.LogKV("supervisor", "create: register failed after host create succeeded", "error", err)
	}

	return CreateResult{SessionID: info.SessionID, Title: title, Directory: ws.Directory}, nil
}

// --- session_prompt ---------------------------------------------------

// PromptResult is the outcome of a successful session_prompt.
type PromptResult struct {
	SessionID    string
	Agent        string
	ForwardToken string
	PathRewrite  bool
}

// PromptSession implements spec §4.E "On session_prompt".
func (s *Supervisor) PromptSession(ctx context.Context, callerSessionID, childID, prompt, agent string) (PromptResult, error) {
	if s.registry.IsNestedOrchestrator(callerSessionID) {
		return PromptResult{}, ErrNestedOrchestrator
	}
	record, ok := s.registry.Get(childID)
	if !ok {
		return PromptResult{}, ErrUnknownChild
	}

	finalPrompt := prompt
	pathRewritten := false
	if record.Workspace.IsSet() {
		if rewritten, changed := textutil.RewritePaths(prompt, record.OrchestratorDirectory, record.Workspace.Directory); changed {
			finalPrompt = rewritten
			pathRewritten = true
		}
	}

	marker := forward.TriggerMarker{}
	if raw, err := s.host.SessionMessages(ctx, childID); err != nil {
		debug.LogKV("supervisor", "prompt: fetching trigger marker failed, using zero marker", "child", childID, "error", err)
	} else {
		marker = forward.CreateTriggerMarker(forward.Normalize(raw))
	}

	token := s.newToken()
	afterCount := marker.AfterMessageCount
	s.registry.EnqueuePendingForwardRequest(childID, registry.PendingForwardRequest{
		ForwardToken:            token,
		CreatedAt:               s.now(),
		AfterMessageCount:       &afterCount,
		AfterAssistantMessageID: marker.AfterAssistantMessageID,
	})

	finalPrompt += forward.TokenLineInstruction(token)

	if err := s.host.SessionPromptAsync(ctx, childID, finalPrompt); err != nil {
		s.registry.RemovePendingForwardRequest(childID, token)
		return PromptResult{}, fmt.Errorf("supervisor: host session.promptAsync failed: %w", err)
	}

	s.registry.MarkPromptSent(childID, s.now(), agent)
	return PromptResult{SessionID: childID, Agent: agent, ForwardToken: token, PathRewrite: pathRewritten}, nil
}

// --- event-driven paths -----------------------------------------------

// HandleBusy routes a host session.status{type:"busy"} event: cancels any
// armed idle timer (spec §4.D).
func (s *Supervisor) HandleBusy(childID string) {
	s.debouncer.OnBusy(childID)
}

// HandleIdle routes a host session.idle event: arms the debounce timer only
// if the child has outstanding pending forward requests (spec §4.D).
func (s *Supervisor) HandleIdle(childID string) {
	if !s.registry.HasPendingForwardRequest(childID) {
		return
	}
	s.debouncer.ArmIdle(childID)
}

// handleStableIdle is the debouncer's fire callback (spec §4.E "On
// handleStableIdle").
func (s *Supervisor) handleStableIdle(childID string) {
	ctx := context.Background()

	pending, ok := s.registry.PeekPendingForwardRequest(childID)
	if !ok {
		return
	}

	if busy, err := s.isBusy(ctx, childID); err != nil {
		debug.LogKV("supervisor", "stable idle: status check failed", "child", childID, "error", err)
	} else if busy {
		return
	}

	raw, err := s.host.SessionMessages(ctx, childID)
	if err != nil {
		debug.LogKV("supervisor", "stable idle: fetching messages failed", "child", childID, "error", err)
		return
	}
	messages := forward.Normalize(raw)

	req := forward.PendingForwardRequest{
		AfterMessageCount:       pending.AfterMessageCount,
		AfterAssistantMessageID: pending.AfterAssistantMessageID,
	}
	found, ok := forward.Resolve(messages, req, pending.ForwardToken)
	if !ok {
		return
	}

	if _, ok := s.registry.ShiftPendingForwardRequest(childID); !ok {
		return
	}

	record, ok := s.registry.Get(childID)
	if !ok {
		return
	}
	if record.LastDeliveredAssistantMessageID == found.AssistantMessageID {
		return
	}

	s.deliver(ctx, record, found.CleanedText, found.AssistantMessageID, pending.ForwardToken)
}

// HandleError implements spec §4.E "On session.error".
func (s *Supervisor) HandleError(ctx context.Context, childID, errMessage string) {
	s.registry.MarkError(childID, s.now(), textutil.TruncateExcerpt(errMessage, excerptMaxChars))

	if !s.registry.HasPendingForwardRequest(childID) {
		return
	}
	pending, ok := s.registry.ShiftPendingForwardRequest(childID)
	if !ok {
		return
	}

	record, ok := s.registry.Get(childID)
	if !ok {
		return
	}

	header := fmt.Sprintf("[Child session %s error]", childID)
	body := header + "\n\n" + errMessage
	metadata := map[string]string{
		"childSessionID": childID,
		"status":         "error",
		"forwardToken":   pending.ForwardToken,
	}
	if err := s.host.PostSynthetic(ctx, record.OrchestratorSessionID, record.OrchestratorDirectory, body, metadata); err != nil {
		debug.LogKV("supervisor", "error path: posting synthetic message failed", "child", childID, "error", err)
	}
}

// deliver posts the forwarded child reply into the orchestrator session,
// plus a secondary "questions" message when the text contains them, and
// updates bookkeeping (spec §4.E).
func (s *Supervisor) deliver(ctx context.Context, record registry.ChildRecord, cleanedText, assistantMessageID, forwardToken string) {
	label := "completed"
	if record.Tracking.LastPromptAgent == "plan" {
		label = "plan"
	}
	header := fmt.Sprintf("[Child session %s %s]", record.ChildSessionID, label)
	body := header + "\n\n" + cleanedText

	metadata := map[string]string{
		"childSessionID":     record.ChildSessionID,
		"status":             "completed",
		"assistantMessageID": assistantMessageID,
		"forwardToken":       forwardToken,
	}
	if err := s.host.PostSynthetic(ctx, record.OrchestratorSessionID, record.OrchestratorDirectory, body, metadata); err != nil {
		debug.LogKV("supervisor", "deliver: posting synthetic message failed", "child", record.ChildSessionID, "error", err)
	}

	if questions := textutil.ExtractQuestions(cleanedText); len(questions) > 0 {
		qHeader := fmt.Sprintf("[Child session %s questions]", record.ChildSessionID)
		qBody := qHeader
		for _, q := range questions {
			qBody += "\n- " + q
		}
		qMetadata := map[string]string{
			"childSessionID": record.ChildSessionID,
			"status":         "questions",
			"forwardToken":   forwardToken,
		}
		if err := s.host.PostSynthetic(ctx, record.OrchestratorSessionID, record.OrchestratorDirectory, qBody, qMetadata); err != nil {
			debug.LogKV("supervisor", "deliver: posting questions message failed", "child", record.ChildSessionID, "error", err)
		}
	}

	s.registry.SetLastDeliveredAssistantMessageID(record.ChildSessionID, assistantMessageID)
	s.registry.MarkResultReceived(record.ChildSessionID, s.now(), textutil.TruncateExcerpt(cleanedText, excerptMaxChars))
}

func (s *Supervisor) isBusy(ctx context.Context, childID string) (bool, error) {
	info, err := s.host.SessionStatus(ctx, childID)
	if err != nil {
		return false, err
	}
	return info.Status == "busy", nil
}

// --- session_status / session_list --------------------------------------

// StatusResult is the snapshot returned by session_status.
type StatusResult struct {
	SessionID string
	State     registry.State
	Progress  registry.Progress
	Excerpt   string
	Workspace registry.Workspace
}

// StatusSession implements spec §4.E "On session_status".
func (s *Supervisor) StatusSession(ctx context.Context, callerSessionID, childID string, refresh bool) (StatusResult, error) {
	record, ok := s.registry.Get(childID)
	if !ok {
		return StatusResult{}, ErrUnknownChild
	}
	if record.OrchestratorSessionID != callerSessionID {
		return StatusResult{}, ErrNotOwnedByCaller
	}

	if refresh {
		if raw, err := s.host.SessionMessages(ctx, childID); err == nil {
			messages := forward.Normalize(raw)
			if len(messages) > 0 {
				last := messages[len(messages)-1]
				if last.Role == "assistant" {
					excerpt := textutil.TruncateExcerpt(forward.ExtractText(last), excerptMaxChars)
					s.registry.RecordObservedAssistantMessage(childID, s.now(), excerpt)
					record, _ = s.registry.Get(childID)
				}
			}
		} else {
			debug.LogKV("supervisor", "status: refresh fetch failed", "child", childID, "error", err)
		}
	}

	progress := registry.ProgressPending
	switch record.Tracking.State {
	case registry.StateResultReceived, registry.StateError:
		progress = registry.ProgressDone
	default:
		if busy, err := s.isBusy(ctx, childID); err == nil && busy {
			progress = registry.ProgressRunning
		}
	}

	return StatusResult{
		SessionID: childID,
		State:     record.Tracking.State,
		Progress:  progress,
		Excerpt:   record.Tracking.LastAssistantMessageExcerpt,
		Workspace: record.Workspace,
	}, nil
}

// ListSessions implements spec §4.E "On session_list".
func (s *Supervisor) ListSessions(callerSessionID string) []registry.ChildMetadata {
	return s.registry.List(callerSessionID)
}
