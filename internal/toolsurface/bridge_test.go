package toolsurface

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/kestrel-labs/orchsup/internal/hostclient"
	"github.com/kestrel-labs/orchsup/internal/registry"
	"github.com/kestrel-labs/orchsup/internal/supervisor"
	"github.com/kestrel-labs/orchsup/internal/workspace"
)

func newBridgeHarness(t *testing.T) (*Bridge, string) {
	t.Helper()
	dir := t.TempDir()
	reg := registry.NewAtPath(filepath.Join(dir, "session-registry.json"))
	ws := workspace.New(".orchsup")
	host := hostclient.NewFake()
	sup := supervisor.New(reg, ws, host, dir)
	return NewBridge(sup), dir
}

func readBridgeLines(t *testing.T, out *bytes.Buffer, n int) []bridgeResponse {
	t.Helper()
	scanner := bufio.NewScanner(out)
	var responses []bridgeResponse
	for i := 0; i < n && scanner.Scan(); i++ {
		var resp bridgeResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			t.Fatalf("decode response %d: %v", i, err)
		}
		responses = append(responses, resp)
	}
	return responses
}

func TestBridgeSessionCreateRoundTrip(t *testing.T) {
	bridge, dir := newBridgeHarness(t)

	in := bytes.NewBufferString(`{"requestID":"r1","tool":"session_create","callerSessionID":"o1","callerDirectory":"` + dir + `","args":{"title":"worker"}}` + "\n")
	var out bytes.Buffer

	if err := bridge.Run(context.Background(), in, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	responses := readBridgeLines(t, &out, 1)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	if responses[0].RequestID != "r1" {
		t.Fatalf("expected requestID r1, got %q", responses[0].RequestID)
	}
	var result createResponse
	if err := json.Unmarshal(responses[0].Result, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Status != "created" || result.SessionID == "" {
		t.Fatalf("unexpected create result: %+v", result)
	}
}

func TestBridgeEventsProduceNoResponseLine(t *testing.T) {
	bridge, _ := newBridgeHarness(t)

	in := bytes.NewBufferString(`{"tool":"busy","args":{"childSessionID":"c1"}}` + "\n")
	var out bytes.Buffer

	if err := bridge.Run(context.Background(), in, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output for an event-only request, got %q", out.String())
	}
}

func TestBridgePermissionEventsRoundTrip(t *testing.T) {
	bridge, dir := newBridgeHarness(t)

	create := `{"requestID":"r1","tool":"session_create","callerSessionID":"o1","callerDirectory":"` + dir + `","args":{"title":"worker"}}` + "\n"
	var createOut bytes.Buffer
	if err := bridge.Run(context.Background(), bytes.NewBufferString(create), &createOut); err != nil {
		t.Fatalf("create run: %v", err)
	}
	var createResp bridgeResponse
	if err := json.Unmarshal(createOut.Bytes(), &createResp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	var created createResponse
	if err := json.Unmarshal(createResp.Result, &created); err != nil {
		t.Fatalf("decode create result: %v", err)
	}

	var lines bytes.Buffer
	lines.WriteString(`{"tool":"permission_updated","args":{"childSessionID":"` + created.SessionID + `","permissionID":"p1","permissionType":"bash","patterns":["git*"]}}` + "\n")
	lines.WriteString(`{"tool":"permission_replied","args":{"permissionID":"p1","response":"always"}}` + "\n")

	var out bytes.Buffer
	if err := bridge.Run(context.Background(), &lines, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output for event-only requests, got %q", out.String())
	}

	if got := bridge.sup.CheckPermission(created.SessionID, "bash", "git"); got != "allow" {
		t.Fatalf("expected allow after an 'always' reply, got %q", got)
	}
}
