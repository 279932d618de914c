package control

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync/atomic"
	"time"
)

// Client dials a running Server's Unix socket and issues List/Status
// requests. Grounded on internal/session/client.go's connect-then-scan
// idiom; simplified to one request in flight at a time since companion
// surfaces poll rather than pipeline.
type Client struct {
	conn    net.Conn
	scanner *bufio.Scanner
	writer  *bufio.Writer
	nextID  atomic.Uint64
}

// Dial connects to a Server listening at sockPath.
func Dial(sockPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", sockPath, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("control: dial %s: %w", sockPath, err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Client{conn: conn, scanner: scanner, writer: bufio.NewWriter(conn)}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) requestID() string {
	return fmt.Sprintf("%d", c.nextID.Add(1))
}

func (c *Client) call(msgType string, req, reply any) error {
	id := c.requestID()
	line, err := encodeMsg(msgType, id, req)
	if err != nil {
		return err
	}
	if _, err := c.writer.Write(line); err != nil {
		return err
	}
	if err := c.writer.Flush(); err != nil {
		return err
	}

	for c.scanner.Scan() {
		var msg WireMsg
		if err := json.Unmarshal(c.scanner.Bytes(), &msg); err != nil {
			continue
		}
		if msg.RequestID != id {
			continue
		}
		if msg.Type == MsgError {
			werr, _ := decodeData[WireError](msg.Data)
			return fmt.Errorf("control: %s", werr.Message)
		}
		return json.Unmarshal(msg.Data, reply)
	}
	if err := c.scanner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("control: connection closed before a reply arrived")
}

// List asks the server for every child, optionally scoped to one
// orchestrator session (empty string means "all").
func (c *Client) List(orchestratorSessionID string) ([]WireChildSummary, error) {
	var reply WireListReply
	if err := c.call(MsgList, WireListRequest{OrchestratorSessionID: orchestratorSessionID}, &reply); err != nil {
		return nil, err
	}
	return reply.Children, nil
}

// Status asks the server for one child's current summary.
func (c *Client) Status(childSessionID string, refresh bool) (WireChildSummary, error) {
	var reply WireStatusReply
	if err := c.call(MsgStatus, WireStatusRequest{ChildSessionID: childSessionID, Refresh: refresh}, &reply); err != nil {
		return WireChildSummary{}, err
	}
	return reply.Child, nil
}
