// Package forward scans a child session's raw message history and picks
// the one assistant turn that satisfies a pending forward request.
//
// Message/part shape is modeled on the teacher's stream.ClaudeEvent content
// blocks (internal/stream/types.go): a message is a role plus an ordered
// list of typed parts, and "text" parts carry the content that gets joined
// into the message's extracted text.
package forward

import (
	"fmt"
	"strings"
)

// TokenPrefix is the line prefix the resolver looks for, on its own line,
// in a candidate assistant message. Spec §6 "Token line format".
const TokenPrefix = "opencode_cc_forward_token: "

// Part is one piece of a message's content.
type Part struct {
	Type    string
	Text    string
	Ignored bool
}

// Message is a normalized projection of one raw child message.
type Message struct {
	Role string
	ID   string
	Parts []Part
}

// PendingForwardRequest is the subset of registry.PendingForwardRequest the
// resolver needs. Kept independent of the registry package so forward has
// no import cycle back to it.
type PendingForwardRequest struct {
	AfterMessageCount       *int
	AfterAssistantMessageID string
}

// ForwardableAssistantMessage is the resolver's result.
type ForwardableAssistantMessage struct {
	AssistantMessageID string
	CleanedText        string
}

// RawMessage is the shape the host's session.messages capability returns:
// {info:{role, id}, parts:[{type, text?, ignored?}]}.
type RawMessage struct {
	Info struct {
		Role string
		ID   string
	}
	Parts []RawPart
}

// RawPart mirrors one element of RawMessage.Parts.
type RawPart struct {
	Type    string
	Text    string
	Ignored bool
}

// Normalize projects raw host messages into the resolver's Message shape.
// Messages without an ID are discarded (spec §4.C).
func Normalize(raw []RawMessage) []Message {
	out := make([]Message, 0, len(raw))
	for _, m := range raw {
		if m.Info.ID == "" {
			continue
		}
		parts := make([]Part, 0, len(m.Parts))
		for _, p := range m.Parts {
			parts = append(parts, Part{Type: p.Type, Text: p.Text, Ignored: p.Ignored})
		}
		out = append(out, Message{Role: m.Info.Role, ID: m.Info.ID, Parts: parts})
	}
	return out
}

// ExtractText concatenates text parts (type=="text" and not ignored) with
// "\n".
func ExtractText(m Message) string {
	var lines []string
	for _, p := range m.Parts {
		if p.Type == "text" && !p.Ignored {
			lines = append(lines, p.Text)
		}
	}
	return strings.Join(lines, "\n")
}

// Resolve implements the deterministic scan of spec §4.C:
//  1. compute startIndex from afterMessageCount/afterAssistantMessageID.
//  2. scan forward; remember every assistant message containing the exact
//     token line (after stripping it, still has non-empty text), but keep
//     scanning — the LAST such match in the list wins.
func Resolve(messages []Message, req PendingForwardRequest, token string) (ForwardableAssistantMessage, bool) {
	start := startIndex(messages, req)

	var found ForwardableAssistantMessage
	ok := false
	for i := start; i < len(messages); i++ {
		m := messages[i]
		if m.Role != "assistant" {
			continue
		}
		text := ExtractText(m)
		cleaned, matched := stripTokenLine(text, token)
		if !matched {
			continue
		}
		if strings.TrimSpace(cleaned) == "" {
			continue
		}
		found = ForwardableAssistantMessage{AssistantMessageID: m.ID, CleanedText: cleaned}
		ok = true
	}
	return found, ok
}

func startIndex(messages []Message, req PendingForwardRequest) int {
	if req.AfterMessageCount != nil && *req.AfterMessageCount <= len(messages) {
		return *req.AfterMessageCount
	}
	if req.AfterAssistantMessageID != "" {
		for i, m := range messages {
			if m.ID == req.AfterAssistantMessageID {
				return i + 1
			}
		}
	}
	return 0
}

// stripTokenLine removes the single line `opencode_cc_forward_token: <tok>`
// from text, matching only a line whose trimmed content exactly equals the
// token line (partial matches on the same line are preserved). Returns
// (cleanedText, found).
func stripTokenLine(text, token string) (string, bool) {
	want := TokenPrefix + token
	lines := strings.Split(text, "\n")
	var out []string
	found := false
	for _, line := range lines {
		if strings.TrimSpace(line) == want {
			found = true
			continue
		}
		out = append(out, line)
	}
	if !found {
		return text, false
	}
	return strings.Join(out, "\n"), true
}

// TriggerMarker snapshots "where are we now" before the child emits new
// messages, so a later prompt's forward request knows where to start
// scanning.
type TriggerMarker struct {
	AfterMessageCount       int
	AfterAssistantMessageID string
}

// CreateTriggerMarker implements spec §4.C.
func CreateTriggerMarker(messages []Message) TriggerMarker {
	marker := TriggerMarker{AfterMessageCount: len(messages)}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "assistant" {
			marker.AfterAssistantMessageID = messages[i].ID
			break
		}
	}
	return marker
}

// TokenLineInstruction returns the exact text appended to an outgoing
// prompt instructing the child to terminate its ultimate reply with the
// token line (spec §4.E "On session_prompt").
func TokenLineInstruction(token string) string {
	return fmt.Sprintf("\n\nWhen you have completed this task, end your FINAL reply with exactly this line on its own, and nothing after it:\n%s%s\n", TokenPrefix, token)
}
