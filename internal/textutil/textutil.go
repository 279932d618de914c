// Package textutil holds the supervisor's peripheral heuristics: pure
// string-to-string transforms over forwarded text and outgoing prompts.
// None of them touch the registry, the host, or the clock — spec §9 calls
// them out explicitly as replaceable heuristics, not core correctness
// surface.
package textutil

import (
	"regexp"
	"strings"
)

// TruncateExcerpt trims text and caps it at max characters, appending "..."
// when truncated. Mirrors the teacher's truncateInputForDisplay
// (internal/tui/selector.go) and truncatePrompt
// (internal/orchestrator/orchestrator.go) ellipsis conventions, generalized
// to the 400-char stored-excerpt budget (spec §4.E).
func TruncateExcerpt(text string, max int) string {
	text = strings.TrimSpace(text)
	if max <= 0 {
		return ""
	}
	if len(text) <= max {
		return text
	}
	if max <= 3 {
		return text[:max]
	}
	return text[:max-3] + "..."
}

var questionLine = regexp.MustCompile(`[^.!?\n]*\?`)

// ExtractQuestions returns every question-like sentence found in text: a
// run of characters ending in "?" with no earlier sentence terminator.
// Best-effort; never errors.
func ExtractQuestions(text string) []string {
	matches := questionLine.FindAllString(text, -1)
	var out []string
	for _, m := range matches {
		q := strings.TrimSpace(m)
		if q == "" || q == "?" {
			continue
		}
		out = append(out, q)
	}
	return out
}

// RewritePaths replaces occurrences of fromDir with toDir in text, so a
// prompt written in terms of the orchestrator's directory reads correctly
// from inside the child's isolated workspace. Best-effort: a failure to
// find fromDir simply means no rewriting happens, never an error (spec
// §4.E "failures surface a note but do not abort").
func RewritePaths(text, fromDir, toDir string) (rewritten string, changed bool) {
	if fromDir == "" || toDir == "" || fromDir == toDir {
		return text, false
	}
	if !strings.Contains(text, fromDir) {
		return text, false
	}
	return strings.ReplaceAll(text, fromDir, toDir), true
}
