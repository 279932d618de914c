package hostclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/kestrel-labs/orchsup/internal/forward"
)

// Fake is an in-memory Client for tests: no socket, no subprocess, just
// maps guarded by a mutex. Spec §10.4 calls for exactly this instead of a
// mocking library, matching how the teacher's own tests construct
// in-process fakes rather than mock frameworks.
type Fake struct {
	mu sync.Mutex

	nextID   int
	sessions map[string]*fakeSession
	agents   []AgentDescriptor
	synthetic map[string][]SyntheticMessage

	// CreateErr, when set, is returned by every SessionCreate call.
	CreateErr error
	// PromptErr, when set, is returned by every SessionPromptAsync call.
	PromptErr error
}

// SyntheticMessage records one PostSynthetic call for test assertions.
type SyntheticMessage struct {
	Text     string
	Metadata map[string]string
}

type fakeSession struct {
	info     SessionInfo
	messages []forward.RawMessage
	prompts  []string
}

// NewFake constructs an empty Fake host.
func NewFake() *Fake {
	return &Fake{sessions: make(map[string]*fakeSession), synthetic: make(map[string][]SyntheticMessage)}
}

func (f *Fake) PostSynthetic(ctx context.Context, sessionID, directory, text string, metadata map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synthetic[sessionID] = append(f.synthetic[sessionID], SyntheticMessage{Text: text, Metadata: metadata})
	return nil
}

// SyntheticMessages returns every synthetic message posted to sessionID, in
// order. Test helper.
func (f *Fake) SyntheticMessages(sessionID string) []SyntheticMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SyntheticMessage, len(f.synthetic[sessionID]))
	copy(out, f.synthetic[sessionID])
	return out
}

func (f *Fake) SessionCreate(ctx context.Context, opts CreateOptions) (SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return SessionInfo{}, f.CreateErr
	}
	f.nextID++
	id := fmt.Sprintf("fake-session-%d", f.nextID)
	info := SessionInfo{SessionID: id, Status: "idle", Directory: opts.Directory}
	f.sessions[id] = &fakeSession{info: info}
	return info, nil
}

func (f *Fake) SessionPromptAsync(ctx context.Context, sessionID, prompt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PromptErr != nil {
		return f.PromptErr
	}
	s, ok := f.sessions[sessionID]
	if !ok {
		return fmt.Errorf("hostclient fake: unknown session %q", sessionID)
	}
	s.prompts = append(s.prompts, prompt)
	s.info.Status = "busy"
	return nil
}

func (f *Fake) SessionStatus(ctx context.Context, sessionID string) (SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return SessionInfo{}, fmt.Errorf("hostclient fake: unknown session %q", sessionID)
	}
	return s.info, nil
}

func (f *Fake) SessionMessages(ctx context.Context, sessionID string) ([]forward.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("hostclient fake: unknown session %q", sessionID)
	}
	out := make([]forward.RawMessage, len(s.messages))
	copy(out, s.messages)
	return out, nil
}

func (f *Fake) Agents(ctx context.Context) ([]AgentDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]AgentDescriptor, len(f.agents))
	copy(out, f.agents)
	return out, nil
}

// SetAgents configures the result of Agents.
func (f *Fake) SetAgents(agents []AgentDescriptor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agents = agents
}

// PushAssistantMessage appends an assistant message with the given ID and
// text to sessionID's history and marks the session idle again, as if the
// child had just replied. Test helper.
func (f *Fake) PushAssistantMessage(sessionID, messageID, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return
	}
	msg := forward.RawMessage{Parts: []forward.RawPart{{Type: "text", Text: text}}}
	msg.Info.Role = "assistant"
	msg.Info.ID = messageID
	s.messages = append(s.messages, msg)
	s.info.Status = "idle"
}

// SetStatus forces a session's reported status. Test helper.
func (f *Fake) SetStatus(sessionID, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionID]; ok {
		s.info.Status = status
	}
}

// Messages returns the raw message slice for assertions.
func (f *Fake) Messages(sessionID string) []forward.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionID]; ok {
		return s.messages
	}
	return nil
}

// Prompts returns every prompt sent to sessionID, in order.
func (f *Fake) Prompts(sessionID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionID]; ok {
		return s.prompts
	}
	return nil
}

var _ Client = (*Fake)(nil)
