package hostclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kestrel-labs/orchsup/internal/forward"
)

const (
	scannerInitialBuffer = 64 * 1024
	scannerMaxBuffer     = 4 * 1024 * 1024
	dialTimeout          = 5 * time.Second
)

// SocketClient implements Client by speaking the newline-delimited JSON
// protocol in wire.go over a Unix domain socket, request/reply matched by
// RequestID. Grounded on the teacher's session.Client connect-and-scan
// loop (internal/session/client.go), generalized from one long-lived
// streaming connection to a request/reply call per capability.
type SocketClient struct {
	path string

	mu      sync.Mutex
	conn    net.Conn
	scanner *bufio.Scanner
	writer  *bufio.Writer

	nextID   atomic.Uint64
	pendingMu sync.Mutex
	pending   map[string]chan WireMsg
}

// NewSocketClient returns a client that dials path lazily on first use.
func NewSocketClient(path string) *SocketClient {
	return &SocketClient{path: path, pending: make(map[string]chan WireMsg)}
}

func (c *SocketClient) ensureConn() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}
	conn, err := net.DialTimeout("unix", c.path, dialTimeout)
	if err != nil {
		return fmt.Errorf("hostclient: connecting to %s: %w", c.path, err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, scannerInitialBuffer), scannerMaxBuffer)
	c.conn = conn
	c.scanner = scanner
	c.writer = bufio.NewWriter(conn)
	go c.readLoop(scanner)
	return nil
}

func (c *SocketClient) readLoop(scanner *bufio.Scanner) {
	for scanner.Scan() {
		var msg WireMsg
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		c.pendingMu.Lock()
		ch, ok := c.pending[msg.RequestID]
		if ok {
			delete(c.pending, msg.RequestID)
		}
		c.pendingMu.Unlock()
		if ok {
			ch <- msg
		}
	}
}

func (c *SocketClient) call(ctx context.Context, msgType string, payload any) (WireMsg, error) {
	if err := c.ensureConn(); err != nil {
		return WireMsg{}, err
	}
	id := fmt.Sprintf("%d", c.nextID.Add(1))
	msg, err := EncodeMsg(msgType, id, payload)
	if err != nil {
		return WireMsg{}, err
	}
	line, err := json.Marshal(msg)
	if err != nil {
		return WireMsg{}, err
	}

	replyCh := make(chan WireMsg, 1)
	c.pendingMu.Lock()
	c.pending[id] = replyCh
	c.pendingMu.Unlock()

	c.mu.Lock()
	_, werr := c.writer.Write(append(line, '\n'))
	if werr == nil {
		werr = c.writer.Flush()
	}
	c.mu.Unlock()
	if werr != nil {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
		return WireMsg{}, fmt.Errorf("hostclient: writing request: %w", werr)
	}

	select {
	case reply := <-replyCh:
		if reply.Type == MsgError {
			werr, err := DecodeData[WireError](reply)
			if err != nil {
				return WireMsg{}, fmt.Errorf("hostclient: %s failed", msgType)
			}
			return WireMsg{}, fmt.Errorf("hostclient: %s: %s", msgType, werr.Message)
		}
		return reply, nil
	case <-ctx.Done():
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
		return WireMsg{}, ctx.Err()
	}
}

func (c *SocketClient) SessionCreate(ctx context.Context, opts CreateOptions) (SessionInfo, error) {
	reply, err := c.call(ctx, MsgSessionCreate, WireSessionCreateRequest{
		Title: opts.Title, Directory: opts.Directory, Agent: opts.Agent,
	})
	if err != nil {
		return SessionInfo{}, err
	}
	data, err := DecodeData[WireSessionInfo](reply)
	if err != nil {
		return SessionInfo{}, err
	}
	return SessionInfo{SessionID: data.SessionID, Status: data.Status, Directory: data.Directory}, nil
}

func (c *SocketClient) SessionPromptAsync(ctx context.Context, sessionID, prompt string) error {
	_, err := c.call(ctx, MsgSessionPrompt, WireSessionPromptRequest{SessionID: sessionID, Prompt: prompt})
	return err
}

func (c *SocketClient) SessionStatus(ctx context.Context, sessionID string) (SessionInfo, error) {
	reply, err := c.call(ctx, MsgSessionStatus, WireSessionStatusRequest{SessionID: sessionID})
	if err != nil {
		return SessionInfo{}, err
	}
	data, err := DecodeData[WireSessionInfo](reply)
	if err != nil {
		return SessionInfo{}, err
	}
	return SessionInfo{SessionID: data.SessionID, Status: data.Status, Directory: data.Directory}, nil
}

func (c *SocketClient) SessionMessages(ctx context.Context, sessionID string) ([]forward.RawMessage, error) {
	reply, err := c.call(ctx, MsgSessionMessages, WireSessionMessagesRequest{SessionID: sessionID})
	if err != nil {
		return nil, err
	}
	var wireMsgs struct {
		Messages []WireRawMessage `json:"messages"`
	}
	if err := json.Unmarshal(reply.Data, &wireMsgs); err != nil {
		return nil, fmt.Errorf("hostclient: decoding messages: %w", err)
	}
	out := make([]forward.RawMessage, 0, len(wireMsgs.Messages))
	for _, m := range wireMsgs.Messages {
		raw := forward.RawMessage{}
		raw.Info.Role = m.Info.Role
		raw.Info.ID = m.Info.ID
		for _, p := range m.Parts {
			raw.Parts = append(raw.Parts, forward.RawPart{Type: p.Type, Text: p.Text, Ignored: p.Ignored})
		}
		out = append(out, raw)
	}
	return out, nil
}

func (c *SocketClient) PostSynthetic(ctx context.Context, sessionID, directory, text string, metadata map[string]string) error {
	_, err := c.call(ctx, MsgSessionSynthetic, WireSyntheticRequest{
		SessionID: sessionID, Directory: directory, Text: text, Metadata: metadata,
	})
	return err
}

func (c *SocketClient) Agents(ctx context.Context) ([]AgentDescriptor, error) {
	reply, err := c.call(ctx, MsgAgents, struct{}{})
	if err != nil {
		return nil, err
	}
	data, err := DecodeData[WireAgentsReply](reply)
	if err != nil {
		return nil, err
	}
	out := make([]AgentDescriptor, 0, len(data.Agents))
	for _, a := range data.Agents {
		out = append(out, AgentDescriptor{Name: a.Name, Description: a.Description})
	}
	return out, nil
}

// Close releases the underlying connection, if any.
func (c *SocketClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
