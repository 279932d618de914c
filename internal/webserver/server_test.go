package webserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/kestrel-labs/orchsup/internal/control"
	"github.com/kestrel-labs/orchsup/internal/registry"
)

func startControlServer(t *testing.T) (*registry.Store, string) {
	t.Helper()
	dir := t.TempDir()
	reg := registry.NewAtPath(filepath.Join(dir, "session-registry.json"))
	sockPath := filepath.Join(dir, "orchsup.sock")

	srv := control.NewServer(reg, sockPath)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c, err := control.Dial(sockPath); err == nil {
			c.Close()
			return reg, sockPath
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("control server never accepted a connection")
	return nil, ""
}

func newTestControlClient(t *testing.T, sockPath string) *control.Client {
	t.Helper()
	client, err := control.Dial(sockPath)
	if err != nil {
		t.Fatalf("dial control socket: %v", err)
	}
	return client
}

func startWebServer(t *testing.T, client *control.Client) *Server {
	t.Helper()
	srv := New(client, Options{Host: "127.0.0.1", Port: 0})
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if resp, err := http.Get("http://" + srv.Addr() + "/api/children"); err == nil {
			resp.Body.Close()
			return srv
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("web server never came up")
	return nil
}

func TestHandleListChildrenReturnsJSON(t *testing.T) {
	reg, sockPath := startControlServer(t)
	reg.Register(registry.ChildRecord{ChildSessionID: "c1", OrchestratorSessionID: "o1", Title: "worker"})

	client := newTestControlClient(t, sockPath)
	defer client.Close()

	srv := startWebServer(t, client)

	resp, err := http.Get("http://" + srv.Addr() + "/api/children")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var children []control.WireChildSummary
	if err := json.NewDecoder(resp.Body).Decode(&children); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(children) != 1 || children[0].ChildSessionID != "c1" {
		t.Fatalf("unexpected children: %+v", children)
	}
}

func TestHandleChildStatusNotFoundReturns404(t *testing.T) {
	_, sockPath := startControlServer(t)
	client := newTestControlClient(t, sockPath)
	defer client.Close()

	srv := startWebServer(t, client)

	resp, err := http.Get("http://" + srv.Addr() + "/api/children/ghost")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandleChildStatusReturnsRecord(t *testing.T) {
	reg, sockPath := startControlServer(t)
	reg.Register(registry.ChildRecord{ChildSessionID: "c1", OrchestratorSessionID: "o1", Title: "worker"})
	client := newTestControlClient(t, sockPath)
	defer client.Close()

	srv := startWebServer(t, client)

	resp, err := http.Get("http://" + srv.Addr() + "/api/children/c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	var child control.WireChildSummary
	if err := json.Unmarshal(body, &child); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if child.Title != "worker" {
		t.Fatalf("unexpected child: %+v", child)
	}
}

func TestUnknownAPIRouteReturns404(t *testing.T) {
	_, sockPath := startControlServer(t)
	client := newTestControlClient(t, sockPath)
	defer client.Close()

	srv := startWebServer(t, client)

	resp, err := http.Get(fmt.Sprintf("http://%s/api/nonsense", srv.Addr()))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
