// Package search implements the hybrid FTS5-keyword + vector-cosine
// search engine (spec.md §4.5): query-intent detection, reciprocal rank
// fusion, and file-level aggregation.
//
// Ported near-verbatim from _examples/original_source/src/graph/search.rs
// (detect_query_intent, BlendWeights, fuse_results_weighted,
// sanitize_fts_query, build_snippet) onto Go's database/sql and the
// internal/store connection.
package search

import "strings"

// Intent is the detected character of a search query, used to adjust RRF
// blending weights.
type Intent int

const (
	// Hybrid is mixed or ambiguous signal; keeps default weights.
	Hybrid Intent = iota
	// SymbolLookup looks like a code symbol (camelCase, snake_case, dots).
	SymbolLookup
	// SemanticSearch is natural language with common English words.
	SemanticSearch
)

var semanticWords = map[string]bool{
	"the": true, "a": true, "an": true, "how": true, "what": true, "which": true,
	"where": true, "when": true, "why": true, "who": true, "find": true, "get": true,
	"all": true, "that": true, "this": true, "with": true, "from": true, "for": true,
	"into": true, "does": true, "show": true, "list": true, "is": true, "are": true,
	"can": true, "should": true, "function": true, "method": true, "class": true,
	"file": true, "functions": true, "methods": true, "classes": true, "files": true,
}

// DetectIntent classifies query as a symbol lookup, a semantic/natural
// language search, or an ambiguous hybrid, per the heuristic weights in
// graph/search.rs::detect_query_intent.
func DetectIntent(query string) Intent {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return Hybrid
	}

	hasSpaces := strings.Contains(trimmed, " ")
	wordCount := len(strings.Fields(trimmed))

	var symbolSignals, semanticSignals int

	if strings.Contains(trimmed, "_") {
		symbolSignals += 2
	}
	if strings.Contains(trimmed, ".") {
		symbolSignals += 2
	}
	if strings.Contains(trimmed, "::") {
		symbolSignals += 2
	}

	runes := []rune(trimmed)
	hasCamel := false
	for i := 0; i+1 < len(runes); i++ {
		if isLowerRune(runes[i]) && isUpperRune(runes[i+1]) {
			hasCamel = true
			break
		}
	}
	if hasCamel {
		symbolSignals += 2
	}

	hasLower := false
	for _, r := range runes {
		if isLowerRune(r) {
			hasLower = true
			break
		}
	}
	if !hasSpaces && len(runes) > 1 && isUpperRune(runes[0]) && hasLower {
		symbolSignals++
	}
	if !hasSpaces {
		symbolSignals++
	}

	if hasSpaces {
		semanticSignals++
	}
	if wordCount > 3 {
		semanticSignals += 2
	}

	lower := strings.ToLower(trimmed)
	semanticWordCount := 0
	for _, w := range strings.Fields(lower) {
		if semanticWords[w] {
			semanticWordCount++
		}
	}
	if semanticWordCount >= 1 {
		semanticSignals++
	}
	if semanticWordCount >= 2 {
		semanticSignals += 2
	}

	switch {
	case symbolSignals >= 2 && semanticSignals == 0:
		return SymbolLookup
	case semanticSignals >= 2 && symbolSignals == 0:
		return SemanticSearch
	case symbolSignals > semanticSignals+1:
		return SymbolLookup
	case semanticSignals > symbolSignals+1:
		return SemanticSearch
	default:
		return Hybrid
	}
}

func isUpperRune(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLowerRune(r rune) bool { return r >= 'a' && r <= 'z' }

// BlendWeights scales the FTS5 and vector RRF contributions according to
// detected query intent.
type BlendWeights struct {
	FTSWeight float64
	VecWeight float64
}

// WeightsFor returns the BlendWeights for intent, matching the original's
// From<QueryIntent> mapping: 0.8/0.2 for symbol lookups (FTS dominates),
// 0.3/0.7 for semantic search (vectors dominate), 1.0/1.0 otherwise.
func WeightsFor(intent Intent) BlendWeights {
	switch intent {
	case SymbolLookup:
		return BlendWeights{FTSWeight: 0.8, VecWeight: 0.2}
	case SemanticSearch:
		return BlendWeights{FTSWeight: 0.3, VecWeight: 0.7}
	default:
		return BlendWeights{FTSWeight: 1.0, VecWeight: 1.0}
	}
}
