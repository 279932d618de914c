package supervisor

import (
	"testing"
)

func TestPermissionHookAllowReplyIsCachedAndConsulted(t *testing.T) {
	sup, host, reg, _ := newHarness(t)
	childID := registerChild(t, host, reg, "o1", "/orch/dir", "worker")

	sup.HandlePermissionUpdated(childID, "perm-1", "bash", []any{"git status*"})
	sup.HandlePermissionReplied("perm-1", "always")

	if got := sup.CheckPermission(childID, "bash", "git status"); got != "allow" {
		t.Fatalf("expected allow, got %q", got)
	}
}

func TestPermissionHookRejectReplyIsCachedAsDeny(t *testing.T) {
	sup, host, reg, _ := newHarness(t)
	childID := registerChild(t, host, reg, "o1", "/orch/dir", "worker")

	sup.HandlePermissionUpdated(childID, "perm-1", "bash", []any{"rm -rf*"})
	sup.HandlePermissionReplied("perm-1", "reject")

	if got := sup.CheckPermission(childID, "bash", "rm -rf"); got != "deny" {
		t.Fatalf("expected deny, got %q", got)
	}
}

func TestPermissionHookOneTimeReplyIsNotCached(t *testing.T) {
	sup, host, reg, _ := newHarness(t)
	childID := registerChild(t, host, reg, "o1", "/orch/dir", "worker")

	sup.HandlePermissionUpdated(childID, "perm-1", "bash", []any{"ls*"})
	sup.HandlePermissionReplied("perm-1", "once")

	if got := sup.CheckPermission(childID, "bash", "ls"); got != "" {
		t.Fatalf("expected no cached decision for a one-time reply, got %q", got)
	}
}

func TestPermissionHookUnknownChildIsIgnored(t *testing.T) {
	sup, _, _, _ := newHarness(t)

	sup.HandlePermissionUpdated("no-such-child", "perm-1", "bash", []any{"git status*"})
	sup.HandlePermissionReplied("perm-1", "always")

	if got := sup.CheckPermission("no-such-child", "bash", "git status"); got != "" {
		t.Fatalf("expected no decision for an unregistered child, got %q", got)
	}
}

func TestPermissionHookRepliedWithoutUpdatedIsNoop(t *testing.T) {
	sup, host, reg, _ := newHarness(t)
	childID := registerChild(t, host, reg, "o1", "/orch/dir", "worker")

	sup.HandlePermissionReplied("perm-unknown", "always")

	if got := sup.CheckPermission(childID, "bash", "git status"); got != "" {
		t.Fatalf("expected no decision when permission.replied has no matching permission.updated, got %q", got)
	}
}
