package hostclient

import "encoding/json"

// Wire message types exchanged with the host over its control channel.
// Modeled on the teacher's session.WireMsg envelope
// (internal/session/protocol.go): one JSON object per line, a Type tag
// plus a raw Data payload decoded per-type.
const (
	MsgSessionCreate      = "session.create"
	MsgSessionCreateReply = "session.create.reply"
	MsgSessionPrompt      = "session.promptAsync"
	MsgSessionPromptReply = "session.promptAsync.reply"
	MsgSessionStatus      = "session.status"
	MsgSessionStatusReply = "session.status.reply"
	MsgSessionMessages    = "session.messages"
	MsgSessionMessagesReply = "session.messages.reply"
	MsgSessionSynthetic      = "session.prompt"
	MsgSessionSyntheticReply = "session.prompt.reply"
	MsgAgents             = "app.agents"
	MsgAgentsReply        = "app.agents.reply"
	MsgError              = "error"
)

// WireMsg is the envelope for every line sent over the control socket.
type WireMsg struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// WireError is the Data payload of a MsgError reply.
type WireError struct {
	Message string `json:"message"`
}

// WireSessionCreateRequest is the Data payload of MsgSessionCreate.
type WireSessionCreateRequest struct {
	Title     string `json:"title"`
	Directory string `json:"directory"`
	Agent     string `json:"agent,omitempty"`
}

// WireSessionInfo is the Data payload shared by session.create.reply and
// session.status.reply.
type WireSessionInfo struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Directory string `json:"directory,omitempty"`
}

// WireSessionPromptRequest is the Data payload of MsgSessionPrompt.
type WireSessionPromptRequest struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
}

// WireSessionStatusRequest is the Data payload of MsgSessionStatus.
type WireSessionStatusRequest struct {
	SessionID string `json:"session_id"`
}

// WireSessionMessagesRequest is the Data payload of MsgSessionMessages.
type WireSessionMessagesRequest struct {
	SessionID string `json:"session_id"`
}

// WireRawMessage is one element of the "messages" array carried in the
// Data payload of MsgSessionMessagesReply.
type WireRawMessage struct {
	Info struct {
		Role string `json:"role"`
		ID   string `json:"id"`
	} `json:"info"`
	Parts []WireRawPart `json:"parts"`
}

// WireRawPart mirrors one content part of a WireRawMessage.
type WireRawPart struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Ignored bool   `json:"ignored,omitempty"`
}

// WireSyntheticRequest is the Data payload of MsgSessionSynthetic: a
// supervisor-authored, synchronously posted message.
type WireSyntheticRequest struct {
	SessionID string            `json:"session_id"`
	Directory string            `json:"directory,omitempty"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// WireAgentsReply is the Data payload of MsgAgentsReply.
type WireAgentsReply struct {
	Agents []WireAgentDescriptor `json:"agents"`
}

// WireAgentDescriptor mirrors one AgentDescriptor over the wire.
type WireAgentDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// DecodeData unmarshals a WireMsg's Data field into T.
func DecodeData[T any](msg WireMsg) (*T, error) {
	var out T
	if len(msg.Data) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(msg.Data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EncodeMsg builds a WireMsg with Data marshaled from payload.
func EncodeMsg(msgType, requestID string, payload any) (WireMsg, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return WireMsg{}, err
	}
	return WireMsg{Type: msgType, RequestID: requestID, Data: raw}, nil
}
