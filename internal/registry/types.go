// Package registry is the durable, crash-safe mapping from orchestrator
// session to child sessions: their state machine, workspace metadata, and
// outstanding forward-token obligations.
//
// The store is a single versioned JSON document. Every mutation is a
// read-modify-write over the whole document followed by an atomic
// temp-file-plus-rename, the same durability idiom the teacher corpus uses
// for small shared JSON stores (profile feedback, global config).
package registry

import "time"

// State is a position in the tracking state machine.
//
//	created -> prompt_sent -> {result_received | error}
//	prompt_sent and result_received may re-enter prompt_sent on a new prompt.
//	error is not terminal: a follow-up prompt returns to prompt_sent.
type State string

const (
	StateCreated        State = "created"
	StatePromptSent     State = "prompt_sent"
	StateResultReceived State = "result_received"
	StateError          State = "error"
)

// Progress is derived, never stored.
type Progress string

const (
	ProgressDone    Progress = "done"
	ProgressRunning Progress = "running"
	ProgressPending Progress = "pending"
)

// Workspace describes the isolated directory assigned to a child, or the
// zero value when the child falls back to the orchestrator's own directory.
type Workspace struct {
	Directory string `json:"directory,omitempty"`
	Branch    string `json:"branch,omitempty"`
}

// IsSet reports whether a workspace was actually assigned.
func (w Workspace) IsSet() bool {
	return w.Directory != ""
}

// Tracking holds the mutable lifecycle fields of a child record.
type Tracking struct {
	State                        State     `json:"state"`
	LastPromptAt                 time.Time `json:"lastPromptAt,omitempty"`
	LastPromptAgent              string    `json:"lastPromptAgent,omitempty"`
	LastResultAt                 time.Time `json:"lastResultAt,omitempty"`
	LastErrorAt                  time.Time `json:"lastErrorAt,omitempty"`
	LastAssistantMessageAt       time.Time `json:"lastAssistantMessageAt,omitempty"`
	LastAssistantMessageExcerpt  string    `json:"lastAssistantMessageExcerpt,omitempty"`
}

// PendingForwardRequest is one outstanding "the orchestrator sent a prompt
// and is awaiting a reply".
type PendingForwardRequest struct {
	ForwardToken            string     `json:"forwardToken"`
	CreatedAt                time.Time `json:"createdAt"`
	AfterMessageCount        *int       `json:"afterMessageCount,omitempty"`
	AfterAssistantMessageID  string     `json:"afterAssistantMessageID,omitempty"`
}

// ChildRecord is the durable unit keyed by childSessionID.
type ChildRecord struct {
	ChildSessionID          string                  `json:"childSessionID"`
	OrchestratorSessionID   string                  `json:"orchestratorSessionID"`
	OrchestratorDirectory   string                  `json:"orchestratorDirectory,omitempty"`
	Title                   string                  `json:"title,omitempty"`
	CreatedAt               int64                   `json:"createdAt"`
	Workspace               Workspace               `json:"workspace,omitempty"`
	Tracking                Tracking                `json:"tracking"`
	LastDeliveredAssistantMessageID string          `json:"lastDeliveredAssistantMessageID,omitempty"`
	PendingForwardRequests  []PendingForwardRequest `json:"pendingForwardRequests,omitempty"`
}

// ChildMetadata is the projection returned by List.
type ChildMetadata struct {
	ChildSessionID        string    `json:"childSessionID"`
	Title                 string    `json:"title"`
	CreatedAt             int64     `json:"createdAt"`
	State                 State     `json:"state"`
	Workspace             Workspace `json:"workspace,omitempty"`
	LastActivityAt        int64     `json:"lastActivityAt"`
}

// document is the on-disk schema (see spec §6 "Persisted state").
type document struct {
	Version  int                     `json:"version"`
	Sessions map[string]recordEnvelope `json:"sessions"`
}

// recordEnvelope wraps one child's record with its own schema version, so a
// future migration can upgrade records independently of the document.
type recordEnvelope struct {
	Version                        int                     `json:"version"`
	Registration                    registration            `json:"registration"`
	Tracking                        Tracking                `json:"tracking"`
	LastDeliveredAssistantMessageID string                  `json:"lastDeliveredAssistantMessageID,omitempty"`
	PendingForwardRequests          []PendingForwardRequest `json:"pendingForwardRequests,omitempty"`
}

type registration struct {
	ChildSessionID        string `json:"childSessionID"`
	OrchestratorSessionID string `json:"orchestratorSessionID"`
	OrchestratorDirectory string `json:"orchestratorDirectory,omitempty"`
	Title                 string `json:"title,omitempty"`
	CreatedAt             int64  `json:"createdAt"`
	WorkspaceDirectory    string `json:"workspaceDirectory,omitempty"`
	WorkspaceBranch       string `json:"workspaceBranch,omitempty"`
}

const currentDocVersion = 2

func toEnvelope(r ChildRecord) recordEnvelope {
	return recordEnvelope{
		Version: currentDocVersion,
		Registration: registration{
			ChildSessionID:        r.ChildSessionID,
			OrchestratorSessionID: r.OrchestratorSessionID,
			OrchestratorDirectory: r.OrchestratorDirectory,
			Title:                 r.Title,
			CreatedAt:             r.CreatedAt,
			WorkspaceDirectory:    r.Workspace.Directory,
			WorkspaceBranch:       r.Workspace.Branch,
		},
		Tracking:                        r.Tracking,
		LastDeliveredAssistantMessageID: r.LastDeliveredAssistantMessageID,
		PendingForwardRequests:          r.PendingForwardRequests,
	}
}

func fromEnvelope(e recordEnvelope) ChildRecord {
	r := ChildRecord{
		ChildSessionID:        e.Registration.ChildSessionID,
		OrchestratorSessionID: e.Registration.OrchestratorSessionID,
		OrchestratorDirectory: e.Registration.OrchestratorDirectory,
		Title:                 e.Registration.Title,
		CreatedAt:             e.Registration.CreatedAt,
		Workspace: Workspace{
			Directory: e.Registration.WorkspaceDirectory,
			Branch:    e.Registration.WorkspaceBranch,
		},
		Tracking:                        e.Tracking,
		LastDeliveredAssistantMessageID: e.LastDeliveredAssistantMessageID,
		PendingForwardRequests:          e.PendingForwardRequests,
	}
	if r.Tracking.State == "" {
		r.Tracking.State = StateCreated
	}
	if r.PendingForwardRequests == nil {
		r.PendingForwardRequests = []PendingForwardRequest{}
	}
	return r
}
