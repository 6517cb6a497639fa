// Package graphmodel defines the persisted node/edge data model: closed
// kind enumerations, deterministic identity, and the pure derived-column
// functions (name_tokens, is_test, source_hash) that the store recomputes
// on every upsert.
//
// Grounded on _examples/original_source/src/types.rs (NodeKind, EdgeKind)
// and graph/store.rs (detect_is_test, split_identifier, compute_simple_hash).
package graphmodel

import (
	"fmt"
	"strings"
)

// NodeKind is the closed enumeration of symbol kinds (spec.md §3).
type NodeKind string

const (
	KindFunction  NodeKind = "function"
	KindClass     NodeKind = "class"
	KindMethod    NodeKind = "method"
	KindInterface NodeKind = "interface"
	KindTypeAlias NodeKind = "type_alias"
	KindEnum      NodeKind = "enum"
	KindVariable  NodeKind = "variable"
	KindStruct    NodeKind = "struct"
	KindTrait     NodeKind = "trait"
	KindModule    NodeKind = "module"
	KindProperty  NodeKind = "property"
	KindNamespace NodeKind = "namespace"
	KindConstant  NodeKind = "constant"
)

var validNodeKinds = map[NodeKind]bool{
	KindFunction: true, KindClass: true, KindMethod: true, KindInterface: true,
	KindTypeAlias: true, KindEnum: true, KindVariable: true, KindStruct: true,
	KindTrait: true, KindModule: true, KindProperty: true, KindNamespace: true,
	KindConstant: true,
}

func (k NodeKind) Valid() bool { return validNodeKinds[k] }

// EdgeKind is the closed enumeration of relationship kinds (spec.md §3).
type EdgeKind string

const (
	EdgeImports    EdgeKind = "imports"
	EdgeCalls      EdgeKind = "calls"
	EdgeContains   EdgeKind = "contains"
	EdgeExtends    EdgeKind = "extends"
	EdgeImplements EdgeKind = "implements"
	EdgeReferences EdgeKind = "references"
)

var validEdgeKinds = map[EdgeKind]bool{
	EdgeImports: true, EdgeCalls: true, EdgeContains: true,
	EdgeExtends: true, EdgeImplements: true, EdgeReferences: true,
}

func (k EdgeKind) Valid() bool { return validEdgeKinds[k] }

// Node is a persisted symbol. Identity is the deterministic tuple
// (Kind, FilePath, Name, StartLine) rendered by ID().
type Node struct {
	ID             string
	Kind           NodeKind
	Name           string
	QualifiedName  string
	FilePath       string
	StartLine      int
	EndLine        int
	StartColumn    int
	EndColumn      int
	Language       string
	Signature      string
	Body           string
	DocComment     string
	Exported       bool
	HasExported    bool // whether Exported was determined at all (vs. n/a for this kind)
	NameTokens     string
	IsTest         bool
	SourceHash     uint32
}

// MakeNodeID renders the deterministic identity tuple used throughout the
// system: "{kind}:{file_path}:{name}:{start_line}".
func MakeNodeID(kind NodeKind, filePath, name string, startLine int) string {
	return fmt.Sprintf("%s:%s:%s:%d", kind, filePath, name, startLine)
}

// Finalize recomputes the node's derived columns (name_tokens, is_test,
// source_hash) from its other fields. The store calls this on every
// upsert; callers constructing a Node outside the store should also call
// it before relying on the derived fields.
func (n *Node) Finalize() {
	if n.ID == "" {
		n.ID = MakeNodeID(n.Kind, n.FilePath, n.Name, n.StartLine)
	}
	n.NameTokens = BuildNameTokens(n.Name, n.QualifiedName)
	n.IsTest = DetectIsTest(n.Name, n.FilePath, n.Language, string(n.Kind))
	n.SourceHash = SourceHash(n.ID)
}

// Edge is a persisted relationship. Identity is (SourceID, TargetID, Kind).
type Edge struct {
	SourceID string
	TargetID string
	Kind     EdgeKind
	FilePath string
	Line     int
	Metadata map[string]string
}

// UnresolvedRef records an import whose specifier could not be bound to an
// indexed file at extraction time.
type UnresolvedRef struct {
	ID        int64
	SourceID  string
	Specifier string
	RefType   string
	FilePath  string
	Line      int
}

// FileRecord tracks per-file incremental-indexing metadata.
type FileRecord struct {
	FilePath    string
	Language    string
	ContentHash string
	IndexedAt   int64
	NodeCount   int
	EdgeCount   int
}

// ---------------------------------------------------------------------------
// Derived columns
// ---------------------------------------------------------------------------

// SourceHash is a cheap 32-bit DJB2-style hash of id, used as a row-level
// change-detection cache value. Ported from compute_simple_hash in
// graph/store.rs, adapted to an unsigned 32-bit space (Go has no signed
// wraparound surprises to match, so this is the natural rendition).
func SourceHash(id string) uint32 {
	var hash uint32
	for _, r := range id {
		hash = hash*31 + uint32(r)
	}
	return hash
}

// BuildNameTokens splits name and each segment of qualifiedName into their
// constituent words (camelCase/snake_case/acronym boundaries), lowercases
// them, and joins with spaces. The original identifier is preserved as the
// first token so exact searches still match verbatim.
func BuildNameTokens(name, qualifiedName string) string {
	tokens := []string{name}
	tokens = append(tokens, SplitIdentifier(name)...)
	if qualifiedName != "" {
		for _, seg := range strings.FieldsFunc(qualifiedName, func(r rune) bool {
			return r == '.' || r == ':'
		}) {
			tokens = append(tokens, SplitIdentifier(seg)...)
		}
	}
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		lower := strings.ToLower(tok)
		if lower == "" || seen[lower] {
			continue
		}
		seen[lower] = true
		out = append(out, lower)
	}
	return strings.Join(out, " ")
}

// SplitIdentifier splits an identifier on '_', '-', '.', camelCase
// transitions (lower->upper), and acronym boundaries ("XMLParser" ->
// "XML", "Parser"). Idempotent: splitting the output again yields the
// same set of words.
func SplitIdentifier(s string) []string {
	if s == "" {
		return nil
	}
	// Normalize explicit separators to spaces first.
	normalized := strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '.':
			return ' '
		default:
			return r
		}
	}, s)

	var words []string
	var cur []rune
	runes := []rune(normalized)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == ' ' {
			flush()
			continue
		}
		if i > 0 && len(cur) > 0 {
			prev := runes[i-1]
			// lower -> upper: camelCase boundary ("fooBar" -> "foo", "Bar")
			if isLower(prev) && isUpper(r) {
				flush()
			} else if isUpper(prev) && isUpper(r) && i+1 < len(runes) && isLower(runes[i+1]) {
				// acronym boundary: "XMLParser" -> "XML", "Parser"
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()

	out := make([]string, 0, len(words))
	for _, w := range words {
		if strings.TrimSpace(w) != "" {
			out = append(out, strings.ToLower(w))
		}
	}
	return out
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }

// DetectIsTest applies per-language name/path heuristics plus a general
// fallback, matching the rules in spec.md §4.4 and
// graph/store.rs::detect_is_test.
func DetectIsTest(name, filePath, language, kind string) bool {
	nameLower := strings.ToLower(name)
	pathLower := strings.ToLower(filePath)

	switch language {
	case "go":
		return strings.HasPrefix(name, "Test") ||
			strings.HasPrefix(name, "Benchmark") ||
			strings.HasPrefix(name, "Example") ||
			strings.HasSuffix(pathLower, "_test.go")
	case "python":
		return strings.HasPrefix(nameLower, "test_") ||
			strings.HasPrefix(name, "Test") ||
			strings.Contains(pathLower, "/tests/") ||
			strings.Contains(pathLower, "/test_") ||
			strings.HasSuffix(pathLower, "_test.py")
	case "typescript", "tsx", "javascript", "jsx":
		isTestFn := nameLower == "describe" || nameLower == "it" || nameLower == "test" ||
			nameLower == "xit" || nameLower == "xdescribe"
		isTestFile := strings.Contains(pathLower, ".test.") ||
			strings.Contains(pathLower, ".spec.") ||
			strings.Contains(pathLower, "__tests__")
		nameIsTesty := strings.HasPrefix(nameLower, "test") ||
			strings.HasSuffix(nameLower, "test") ||
			strings.HasPrefix(nameLower, "spec")
		return isTestFn ||
			(isTestFile && (kind == "function" || kind == "method" || kind == "variable")) ||
			(isTestFile && nameIsTesty)
	case "java", "kotlin", "scala", "groovy", "csharp":
		return strings.HasPrefix(nameLower, "test") ||
			strings.HasSuffix(name, "Test") ||
			strings.HasSuffix(name, "Tests") ||
			strings.HasSuffix(name, "Spec") ||
			strings.Contains(pathLower, "/test/") ||
			strings.Contains(pathLower, "/tests/")
	case "ruby":
		return strings.HasPrefix(nameLower, "test_") ||
			strings.Contains(pathLower, "_test.rb") ||
			strings.Contains(pathLower, "_spec.rb") ||
			strings.Contains(pathLower, "/spec/") ||
			strings.Contains(pathLower, "/test/")
	case "rust":
		return strings.HasPrefix(nameLower, "test_") ||
			name == "test" ||
			strings.Contains(pathLower, "/tests/") ||
			strings.HasSuffix(pathLower, "_test.rs")
	case "php":
		return strings.HasPrefix(nameLower, "test") ||
			strings.HasSuffix(name, "Test") ||
			strings.Contains(pathLower, "/tests/") ||
			strings.Contains(pathLower, "test.php")
	default:
		nameHasTest := strings.Contains(nameLower, "test")
		pathHasTest := strings.Contains(pathLower, "test") || strings.Contains(pathLower, "spec")
		return nameHasTest && pathHasTest
	}
}
