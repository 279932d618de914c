package permcache

import "testing"

func TestRecordAlwaysThenLookupAllow(t *testing.T) {
	c := New()
	c.Record("orch1", "bash", []string{"rm *"}, ReplyAlways)
	if got := c.Lookup("orch1", "bash", "rm *"); got != Allow {
		t.Fatalf("expected Allow, got %v", got)
	}
}

func TestRecordRejectThenLookupDeny(t *testing.T) {
	c := New()
	c.Record("orch1", "bash", []string{"rm -rf /"}, ReplyReject)
	if got := c.Lookup("orch1", "bash", "rm -rf /"); got != Deny {
		t.Fatalf("expected Deny, got %v", got)
	}
}

func TestUnknownPatternReturnsUnknown(t *testing.T) {
	c := New()
	if got := c.Lookup("orch1", "bash", "anything"); got != Unknown {
		t.Fatalf("expected Unknown, got %v", got)
	}
}

func TestLatestDecisionOverridesEarlier(t *testing.T) {
	c := New()
	c.Record("orch1", "bash", []string{"git push"}, ReplyAlways)
	c.Record("orch1", "bash", []string{"git push"}, ReplyReject)
	if got := c.Lookup("orch1", "bash", "git push"); got != Deny {
		t.Fatalf("expected most recent decision (Deny) to win, got %v", got)
	}

	c.Record("orch1", "bash", []string{"git push"}, ReplyAlways)
	if got := c.Lookup("orch1", "bash", "git push"); got != Allow {
		t.Fatalf("expected Allow after re-recording, got %v", got)
	}
}

func TestScopedByOrchestratorAndPermissionType(t *testing.T) {
	c := New()
	c.Record("orch1", "bash", []string{"ls"}, ReplyAlways)
	if got := c.Lookup("orch2", "bash", "ls"); got != Unknown {
		t.Fatalf("decision must not leak across orchestrators, got %v", got)
	}
	if got := c.Lookup("orch1", "edit", "ls"); got != Unknown {
		t.Fatalf("decision must not leak across permission types, got %v", got)
	}
}

func TestIgnoredReplyDoesNotCache(t *testing.T) {
	c := New()
	c.Record("orch1", "bash", []string{"ls"}, Reply("once"))
	if got := c.Lookup("orch1", "bash", "ls"); got != Unknown {
		t.Fatalf("a one-time reply must not be cached, got %v", got)
	}
}

func TestForgetClearsOrchestrator(t *testing.T) {
	c := New()
	c.Record("orch1", "bash", []string{"ls"}, ReplyAlways)
	c.Forget("orch1")
	if got := c.Lookup("orch1", "bash", "ls"); got != Unknown {
		t.Fatalf("expected decisions cleared after Forget, got %v", got)
	}
}

func TestNormalizePatterns(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want []string
	}{
		{"nil", nil, []string{""}},
		{"string", "ls", []string{"ls"}},
		{"empty slice", []string{}, []string{""}},
		{"string slice", []string{"a", "b"}, []string{"a", "b"}},
		{"any slice", []any{"a", "b"}, []string{"a", "b"}},
		{"empty any slice", []any{}, []string{""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizePatterns(tc.in)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}
