// Package webserver is the minimal HTTP+WebSocket companion surface over a
// running supervisor (SPEC_FULL.md §11): a read-only /api/children status
// endpoint and a /ws/events feed, for dashboards that prefer a browser to
// internal/tui.
//
// Grounded on the teacher's internal/webserver/server.go (Options/Server
// shape, corsMiddleware/logMiddleware chain, net.Listen-then-Serve-in-a-
// goroutine start/shutdown pattern). Trimmed from its many project/plan/
// issue/doc/session/chat-instance endpoints down to the two routes this
// domain needs; rate limiting, auth tokens, and TLS are dropped along with
// them — see DESIGN.md.
package webserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kestrel-labs/orchsup/internal/control"
	"github.com/kestrel-labs/orchsup/internal/debug"
)

// Options configures web server behavior.
type Options struct {
	Host string
	Port int
}

// Server hosts the HTTP API and WebSocket status bridge over a
// control.Client.
type Server struct {
	client     *control.Client
	httpServer *http.Server
	host       string
	port       int
}

// New constructs a Server that answers requests using client.
func New(client *control.Client, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := opts.Port
	if port <= 0 {
		port = 8080
	}

	srv := &Server{client: client, host: host, port: port}

	mux := http.NewServeMux()
	srv.setupRoutes(mux)

	handler := corsMiddleware(logMiddleware(mux))
	srv.httpServer = &http.Server{
		Addr:              srv.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv
}

// Start starts the server in a background goroutine and returns immediately.
func (srv *Server) Start() error {
	ln, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		return err
	}
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		srv.port = tcpAddr.Port
		srv.httpServer.Addr = srv.Addr()
	}

	go func() {
		if err := srv.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			debug.LogKV("webserver", "server stopped with error", "error", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (srv *Server) Shutdown(ctx context.Context) error {
	if srv.httpServer == nil {
		return nil
	}
	return srv.httpServer.Shutdown(ctx)
}

// Addr returns the bound host:port address.
func (srv *Server) Addr() string {
	return net.JoinHostPort(srv.host, strconv.Itoa(srv.port))
}

func (srv *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/children", srv.handleListChildren)
	mux.HandleFunc("GET /api/children/{id}", srv.handleChildStatus)
	mux.HandleFunc("GET /ws/events", srv.handleEventsWebSocket)

	mux.HandleFunc("GET /api/{rest...}", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}
