package forward

import "testing"

func textPart(s string) Part { return Part{Type: "text", Text: s} }

func TestResolveSkipsIntermediateAssistantTurn(t *testing.T) {
	messages := []Message{
		{Role: "assistant", ID: "a1", Parts: []Part{textPart("thinking...")}},
		{Role: "tool", ID: "t1", Parts: []Part{textPart("result")}},
		{Role: "assistant", ID: "a2", Parts: []Part{textPart("output\n" + TokenPrefix + "T")}},
	}

	got, ok := Resolve(messages, PendingForwardRequest{}, "T")
	if !ok {
		t.Fatal("expected a match")
	}
	if got.AssistantMessageID != "a2" {
		t.Fatalf("expected a2, got %s", got.AssistantMessageID)
	}
	if got.CleanedText != "output" {
		t.Fatalf("expected cleaned text %q, got %q", "output", got.CleanedText)
	}
}

func TestResolveTokenScopingDoesNotLeakLine(t *testing.T) {
	messages := []Message{
		{Role: "assistant", ID: "a1", Parts: []Part{textPart("noise\n" + TokenPrefix + "WRONG")}},
		{Role: "assistant", ID: "a2", Parts: []Part{textPart("final answer\n" + TokenPrefix + "RIGHT")}},
	}

	got, ok := Resolve(messages, PendingForwardRequest{}, "RIGHT")
	if !ok {
		t.Fatal("expected match")
	}
	if got.AssistantMessageID != "a2" {
		t.Fatalf("expected a2, got %s", got.AssistantMessageID)
	}
	if containsTokenLine(got.CleanedText) {
		t.Fatalf("cleaned text must not contain the token line: %q", got.CleanedText)
	}
}

func containsTokenLine(s string) bool {
	for _, line := range splitLines(s) {
		if line == TokenPrefix+"RIGHT" {
			return true
		}
	}
	return false
}

func splitLines(s string) []string {
	var lines []string
	cur := ""
	for _, r := range s {
		if r == '\n' {
			lines = append(lines, cur)
			cur = ""
			continue
		}
		cur += string(r)
	}
	lines = append(lines, cur)
	return lines
}

func TestResolveReturnsLastMatchWhenMultipleContainToken(t *testing.T) {
	messages := []Message{
		{Role: "assistant", ID: "a1", Parts: []Part{textPart("first\n" + TokenPrefix + "T")}},
		{Role: "assistant", ID: "a2", Parts: []Part{textPart("second\n" + TokenPrefix + "T")}},
	}
	got, ok := Resolve(messages, PendingForwardRequest{}, "T")
	if !ok || got.AssistantMessageID != "a2" {
		t.Fatalf("expected last match a2, got %+v ok=%v", got, ok)
	}
}

func TestResolveNoMatchReturnsFalse(t *testing.T) {
	messages := []Message{
		{Role: "assistant", ID: "a1", Parts: []Part{textPart("nothing here")}},
	}
	_, ok := Resolve(messages, PendingForwardRequest{}, "T")
	if ok {
		t.Fatal("expected no match")
	}
}

func TestResolveTokenOnlyLineWithNoOtherTextIsNotForwardable(t *testing.T) {
	messages := []Message{
		{Role: "assistant", ID: "a1", Parts: []Part{textPart(TokenPrefix + "T")}},
	}
	_, ok := Resolve(messages, PendingForwardRequest{}, "T")
	if ok {
		t.Fatal("a message consisting only of the token line has no content left to forward")
	}
}

func TestResolveHonorsAfterMessageCount(t *testing.T) {
	messages := []Message{
		{Role: "assistant", ID: "a1", Parts: []Part{textPart("old\n" + TokenPrefix + "T")}},
		{Role: "assistant", ID: "a2", Parts: []Part{textPart("new\n" + TokenPrefix + "T")}},
	}
	count := 1
	got, ok := Resolve(messages, PendingForwardRequest{AfterMessageCount: &count}, "T")
	if !ok || got.AssistantMessageID != "a2" {
		t.Fatalf("expected to start scan at index 1 and find a2, got %+v ok=%v", got, ok)
	}
}

func TestResolveHonorsAfterAssistantMessageIDFallback(t *testing.T) {
	messages := []Message{
		{Role: "assistant", ID: "a1", Parts: []Part{textPart("old\n" + TokenPrefix + "T")}},
		{Role: "assistant", ID: "a2", Parts: []Part{textPart("new\n" + TokenPrefix + "T")}},
	}
	got, ok := Resolve(messages, PendingForwardRequest{AfterAssistantMessageID: "a1"}, "T")
	if !ok || got.AssistantMessageID != "a2" {
		t.Fatalf("expected scan to resume after a1 and find a2, got %+v ok=%v", got, ok)
	}
}

func TestNormalizeDiscardsMessagesWithoutID(t *testing.T) {
	raw := []RawMessage{
		{Parts: []RawPart{{Type: "text", Text: "no id here"}}},
		{Info: struct {
			Role string
			ID   string
		}{Role: "assistant", ID: "a1"}, Parts: []RawPart{{Type: "text", Text: "hi"}}},
	}
	out := Normalize(raw)
	if len(out) != 1 || out[0].ID != "a1" {
		t.Fatalf("expected only the message with an ID to survive, got %+v", out)
	}
}

func TestExtractTextIgnoresIgnoredParts(t *testing.T) {
	m := Message{Parts: []Part{
		{Type: "text", Text: "keep"},
		{Type: "text", Text: "drop", Ignored: true},
		{Type: "tool_use", Text: "also drop"},
	}}
	if got := ExtractText(m); got != "keep" {
		t.Fatalf("expected %q, got %q", "keep", got)
	}
}

func TestCreateTriggerMarker(t *testing.T) {
	messages := []Message{
		{Role: "user", ID: "u1"},
		{Role: "assistant", ID: "a1"},
		{Role: "tool", ID: "t1"},
	}
	marker := CreateTriggerMarker(messages)
	if marker.AfterMessageCount != 3 {
		t.Fatalf("expected count 3, got %d", marker.AfterMessageCount)
	}
	if marker.AfterAssistantMessageID != "a1" {
		t.Fatalf("expected a1, got %q", marker.AfterAssistantMessageID)
	}
}

func TestCreateTriggerMarkerNoAssistantYet(t *testing.T) {
	marker := CreateTriggerMarker(nil)
	if marker.AfterMessageCount != 0 || marker.AfterAssistantMessageID != "" {
		t.Fatalf("expected zero marker, got %+v", marker)
	}
}
