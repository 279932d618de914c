package control

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kestrel-labs/orchsup/internal/registry"
)

func startServer(t *testing.T) (*registry.Store, string) {
	t.Helper()
	dir := t.TempDir()
	reg := registry.NewAtPath(filepath.Join(dir, "session-registry.json"))
	sockPath := filepath.Join(dir, "orchsup.sock")

	srv := NewServer(reg, sockPath)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c, err := Dial(sockPath); err == nil {
			c.Close()
			return reg, sockPath
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("server never accepted a connection")
	return nil, ""
}

func TestListReturnsRegisteredChildren(t *testing.T) {
	reg, sockPath := startServer(t)
	reg.Register(registry.ChildRecord{ChildSessionID: "c1", OrchestratorSessionID: "o1", Title: "worker"})
	reg.Register(registry.ChildRecord{ChildSessionID: "c2", OrchestratorSessionID: "o2", Title: "other"})

	client, err := Dial(sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	all, err := client.List("")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 children, got %d", len(all))
	}

	scoped, err := client.List("o1")
	if err != nil {
		t.Fatalf("scoped list: %v", err)
	}
	if len(scoped) != 1 || scoped[0].ChildSessionID != "c1" {
		t.Fatalf("expected only c1, got %+v", scoped)
	}
}

func TestStatusReturnsOneChild(t *testing.T) {
	reg, sockPath := startServer(t)
	reg.Register(registry.ChildRecord{ChildSessionID: "c1", OrchestratorSessionID: "o1", Title: "worker"})

	client, err := Dial(sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	status, err := client.Status("c1", false)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Title != "worker" || status.State != string(registry.StateCreated) {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestStatusUnknownChildReturnsError(t *testing.T) {
	_, sockPath := startServer(t)
	client, err := Dial(sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if _, err := client.Status("ghost", false); err == nil {
		t.Fatal("expected an error for an unknown child")
	}
}

func TestMultipleSequentialCallsOnOneConnection(t *testing.T) {
	reg, sockPath := startServer(t)
	reg.Register(registry.ChildRecord{ChildSessionID: "c1", OrchestratorSessionID: "o1", Title: "worker"})

	client, err := Dial(sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	for i := 0; i < 3; i++ {
		if _, err := client.List(""); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
}
