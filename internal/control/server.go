package control

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os"
	"sync"
	"time"

	"github.com/kestrel-labs/orchsup/internal/debug"
	"github.com/kestrel-labs/orchsup/internal/registry"
)

// Server listens on a Unix domain socket and answers read-only queries
// against a registry. It never touches the host capability set and never
// mutates anything — companion surfaces only ever read through it.
type Server struct {
	reg  *registry.Store
	path string

	mu       sync.Mutex
	listener net.Listener
}

// NewServer binds a Server to reg. Call Serve to start accepting
// connections at sockPath.
func NewServer(reg *registry.Store, sockPath string) *Server {
	return &Server{reg: reg, path: sockPath}
}

// Serve accepts connections until ctx is cancelled or the listener fails.
// Grounded on internal/session/daemon.go's accept loop, minus the
// broadcaster: each connection is handled to completion (one request, one
// reply, repeat) rather than subscribed to a live event feed.
func (s *Server) Serve(ctx context.Context) error {
	os.Remove(s.path)
	listener, err := net.Listen("unix", s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		listener.Close()
		os.Remove(s.path)
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.handleConn(conn)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	os.Remove(s.path)
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	writer := bufio.NewWriter(conn)

	for scanner.Scan() {
		var msg WireMsg
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			s.reply(writer, "", MsgError, WireError{Message: "invalid request: " + err.Error()})
			continue
		}
		s.dispatch(writer, msg)
	}
}

func (s *Server) dispatch(writer *bufio.Writer, msg WireMsg) {
	switch msg.Type {
	case MsgList:
		req, err := decodeData[WireListRequest](msg.Data)
		if err != nil {
			s.reply(writer, msg.RequestID, MsgError, WireError{Message: err.Error()})
			return
		}
		s.handleList(writer, msg.RequestID, req)
	case MsgStatus:
		req, err := decodeData[WireStatusRequest](msg.Data)
		if err != nil {
			s.reply(writer, msg.RequestID, MsgError, WireError{Message: err.Error()})
			return
		}
		s.handleStatus(writer, msg.RequestID, req)
	default:
		s.reply(writer, msg.RequestID, MsgError, WireError{Message: "unknown request type: " + msg.Type})
	}
}

func (s *Server) handleList(writer *bufio.Writer, requestID string, req WireListRequest) {
	records := s.reg.ListAll()
	children := make([]WireChildSummary, 0, len(records))
	for _, r := range records {
		if req.OrchestratorSessionID != "" && r.OrchestratorSessionID != req.OrchestratorSessionID {
			continue
		}
		children = append(children, summarize(r))
	}
	s.reply(writer, requestID, MsgListResult, WireListReply{Children: children})
}

func (s *Server) handleStatus(writer *bufio.Writer, requestID string, req WireStatusRequest) {
	record, ok := s.reg.Get(req.ChildSessionID)
	if !ok {
		s.reply(writer, requestID, MsgError, WireError{Message: "unknown child session: " + req.ChildSessionID})
		return
	}
	s.reply(writer, requestID, MsgStatusResult, WireStatusReply{Child: summarize(record)})
}

func summarize(r registry.ChildRecord) WireChildSummary {
	return WireChildSummary{
		ChildSessionID:        r.ChildSessionID,
		OrchestratorSessionID: r.OrchestratorSessionID,
		Title:                 r.Title,
		State:                 string(r.Tracking.State),
		WorkspaceDirectory:    r.Workspace.Directory,
		WorkspaceBranch:       r.Workspace.Branch,
		LastActivityAt:        s_computeLastActivityAt(r),
		Excerpt:               r.Tracking.LastAssistantMessageExcerpt,
	}
}

// s_computeLastActivityAt mirrors registry.Store.ComputeLastActivityAt's
// logic for a record already in hand (that method re-reads from disk by
// ID, which would be wasteful here since we already have the record from
// ListAll/Get).
func s_computeLastActivityAt(r registry.ChildRecord) int64 {
	latest := r.CreatedAt
	for _, t := range []int64{
		unixMillis(r.Tracking.LastPromptAt),
		unixMillis(r.Tracking.LastResultAt),
		unixMillis(r.Tracking.LastErrorAt),
		unixMillis(r.Tracking.LastAssistantMessageAt),
	} {
		if t > latest {
			latest = t
		}
	}
	return latest
}

func unixMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func (s *Server) reply(writer *bufio.Writer, requestID, msgType string, v any) {
	line, err := encodeMsg(msgType, requestID, v)
	if err != nil {
		debug.LogKV("control", "encode_failed", "error", err.Error())
		return
	}
	if _, err := writer.Write(line); err != nil {
		debug.LogKV("control", "write_failed", "error", err.Error())
		return
	}
	writer.Flush()
}
