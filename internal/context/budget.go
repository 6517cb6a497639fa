// Package context assembles budgeted, tiered Markdown context documents
// from the code graph for an external generative model (spec.md §4.9).
package context

import "strings"

// charsPerToken is the coarse token estimator's ratio. spec.md §9 leaves
// exact tokenization as an Open Question with no tokenizer library in
// the pack; a fixed chars-per-token heuristic is the documented
// approximation, grounded directly on original_source's estimate_tokens.
const charsPerToken = 4

// estimateTokens approximates s's token count by character count / 4.
func estimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return (len(s) + charsPerToken - 1) / charsPerToken
}

// truncateToFit trims s to at most budget tokens, cutting on a rune
// boundary and appending an ellipsis marker when truncation occurred.
func truncateToFit(s string, budget int) string {
	if estimateTokens(s) <= budget {
		return s
	}
	runes := []rune(s)
	if len(runes) <= budget*charsPerToken {
		return s
	}
	const marker = "\n… (truncated)"
	keep := budget*charsPerToken - len(marker)
	if keep <= 0 {
		return ""
	}
	return string(runes[:keep]) + marker
}

// signatureOnly extracts a compact one-line signature from a symbol's
// full body: everything before the first opening brace (newlines folded
// to spaces); with no brace, the first line up to and including a ':' if
// one appears on it, otherwise the first line.
func signatureOnly(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	if idx := strings.IndexByte(body, '{'); idx >= 0 {
		return strings.TrimSpace(strings.ReplaceAll(body[:idx], "\n", " "))
	}
	if idx := strings.IndexByte(body, ':'); idx >= 0 && !strings.Contains(body[:idx], "\n") {
		return strings.TrimSpace(body[:idx+1])
	}
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		return body[:idx]
	}
	return body
}

// firstLine returns line one of s, or s itself when s has no newline.
func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
