// Package extractor converts a parsed syntax tree plus a compiled
// pattern-query into the (nodes, edges, unresolved refs) triple for a
// single file, per spec.md §4.2.
//
// Grounded on the teacher's internal/parser/parser.go
// (extractBasicSymbolsStringRef: QueryCursor.Matches + CaptureNames
// dispatch) generalized to the capture vocabulary described in
// _examples/original_source/src/indexer/parser.rs and graph/store.rs.
package extractor

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/codegraph/internal/graphmodel"
	"github.com/standardbeagle/codegraph/internal/lang"
)

const maxBodyBytes = 4096

// Result is the per-file extraction output.
type Result struct {
	Nodes       []graphmodel.Node
	Edges       []graphmodel.Edge
	Unresolved  []graphmodel.UnresolvedRef
}

// definitionMatch is an intermediate record for a single @definition.*
// capture before containment/dedup resolution.
type definitionMatch struct {
	kind      graphmodel.NodeKind
	nameText  string
	startByte uint
	endByte   uint
	startLine int
	endLine   int
	startCol  int
	endCol    int
	exported  bool
}

type referenceMatch struct {
	isImport    bool
	nameText    string
	importNames []string
	startByte   uint
	line        int
}

// Extract runs query over tree and returns the nodes/edges/unresolved refs
// observed in filePath. No side effects; the only error is a plain one for
// a nil tree or query, which the caller wraps (spec.md §4.2 failure
// semantics are otherwise non-fatal per file, handled by the caller).
func Extract(filePath string, language lang.Language, content []byte, tree *tree_sitter.Tree, query *tree_sitter.Query) (Result, error) {
	if tree == nil || query == nil {
		return Result{}, fmt.Errorf("extractor: nil tree or query for %s", filePath)
	}

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()

	matches := cursor.Matches(query, tree.RootNode(), content)
	captureNames := query.CaptureNames()

	var defs []definitionMatch
	var refs []referenceMatch

	for {
		m := matches.Next()
		if m == nil {
			break
		}

		var nameText string
		var nameFound bool
		var importNames []string
		for _, c := range m.Captures {
			switch captureNames[c.Index] {
			case "name":
				nameText = string(content[c.Node.StartByte():c.Node.EndByte()])
				nameFound = true
			case "reference.import.name":
				importNames = append(importNames, string(content[c.Node.StartByte():c.Node.EndByte()]))
			}
		}

		for _, c := range m.Captures {
			capName := captureNames[c.Index]
			node := c.Node
			switch {
			case strings.HasPrefix(capName, "definition."):
				kind := graphmodel.NodeKind(strings.TrimPrefix(capName, "definition."))
				if !kind.Valid() || !nameFound {
					continue
				}
				start := node.StartPosition()
				end := node.EndPosition()
				defs = append(defs, definitionMatch{
					kind:      kind,
					nameText:  nameText,
					startByte: node.StartByte(),
					endByte:   node.EndByte(),
					startLine: int(start.Row) + 1,
					endLine:   int(end.Row) + 1,
					startCol:  int(start.Column),
					endCol:    int(end.Column),
					exported:  isExportedName(nameText, language),
				})
			case capName == "reference.call":
				if !nameFound {
					continue
				}
				start := node.StartPosition()
				refs = append(refs, referenceMatch{
					isImport:  false,
					nameText:  nameText,
					startByte: node.StartByte(),
					line:      int(start.Row) + 1,
				})
			case capName == "reference.import":
				start := node.StartPosition()
				specifier := string(content[node.StartByte():node.EndByte()])
				specifier = strings.Trim(specifier, "\"'`")
				refs = append(refs, referenceMatch{
					isImport:    true,
					nameText:    specifier,
					importNames: importNames,
					startByte:   node.StartByte(),
					line:        int(start.Row) + 1,
				})
			}
		}
	}

	nodes := buildNodes(filePath, string(language), content, defs)
	edges := buildContainsEdges(nodes)
	callEdges, unresolved := buildReferenceEdges(filePath, nodes, refs)
	edges = append(edges, callEdges...)

	return Result{Nodes: nodes, Edges: edges, Unresolved: unresolved}, nil
}

// buildNodes deduplicates definition matches by deterministic ID, keeping
// the first occurrence and disambiguating repeated name+line pairs by
// dropping the later match, per spec.md §4.2 tie-break rules.
func buildNodes(filePath, language string, content []byte, defs []definitionMatch) []graphmodel.Node {
	seen := make(map[string]bool, len(defs))
	nodes := make([]graphmodel.Node, 0, len(defs))

	for _, d := range defs {
		id := graphmodel.MakeNodeID(d.kind, filePath, d.nameText, d.startLine)
		if seen[id] {
			continue
		}
		seen[id] = true

		body := string(content[d.startByte:d.endByte])
		if len(body) > maxBodyBytes {
			body = body[:maxBodyBytes]
		}

		n := graphmodel.Node{
			ID:          id,
			Kind:        d.kind,
			Name:        d.nameText,
			FilePath:    filePath,
			StartLine:   d.startLine,
			EndLine:     d.endLine,
			StartColumn: d.startCol,
			EndColumn:   d.endCol,
			Language:    language,
			Body:        body,
			DocComment:  extractDocComment(content, d.startByte),
			Signature:   firstLine(body),
			Exported:    d.exported,
			HasExported: true,
		}
		n.Finalize()
		nodes = append(nodes, n)
	}
	return nodes
}

// buildContainsEdges emits a contains edge from each node to every node
// textually nested within it, restricted to the nearest enclosing parent
// (spec.md §4.2 step 5: class ⊃ method, module ⊃ function).
func buildContainsEdges(nodes []graphmodel.Node) []graphmodel.Edge {
	var edges []graphmodel.Edge
	for i := range nodes {
		child := &nodes[i]
		var parent *graphmodel.Node
		for j := range nodes {
			if i == j {
				continue
			}
			candidate := &nodes[j]
			if !contains(candidate, child) {
				continue
			}
			if parent == nil || tighter(candidate, parent) {
				parent = candidate
			}
		}
		if parent != nil {
			edges = append(edges, graphmodel.Edge{
				SourceID: parent.ID,
				TargetID: child.ID,
				Kind:     graphmodel.EdgeContains,
				FilePath: child.FilePath,
				Line:     child.StartLine,
			})
		}
	}
	return edges
}

func contains(parent, child *graphmodel.Node) bool {
	if parent.ID == child.ID {
		return false
	}
	if parent.StartLine > child.StartLine || parent.EndLine < child.EndLine {
		return false
	}
	if parent.StartLine == child.StartLine && parent.EndLine == child.EndLine {
		return false
	}
	return true
}

func tighter(candidate, current *graphmodel.Node) bool {
	candidateSpan := candidate.EndLine - candidate.StartLine
	currentSpan := current.EndLine - current.StartLine
	return candidateSpan < currentSpan
}

// buildReferenceEdges attaches each call reference to its nearest
// containing definition and emits a placeholder import edge per
// reference.import capture, tagging it with the comma-separated imported
// symbol names gathered from any reference.import.name captures in the
// same match (spec.md §4.2 step 4; empty when the language's import form
// has no distinct per-symbol list, e.g. Go's whole-package import).
func buildReferenceEdges(filePath string, nodes []graphmodel.Node, refs []referenceMatch) ([]graphmodel.Edge, []graphmodel.UnresolvedRef) {
	var edges []graphmodel.Edge
	var unresolved []graphmodel.UnresolvedRef

	fileNodeID := "file:" + filePath

	for _, r := range refs {
		if r.isImport {
			edges = append(edges, graphmodel.Edge{
				SourceID: fileNodeID,
				TargetID: "module:" + r.nameText,
				Kind:     graphmodel.EdgeImports,
				FilePath: filePath,
				Line:     r.line,
				Metadata: map[string]string{"names": strings.Join(r.importNames, ",")},
			})
			unresolved = append(unresolved, graphmodel.UnresolvedRef{
				SourceID:  fileNodeID,
				Specifier: r.nameText,
				RefType:   "import",
				FilePath:  filePath,
				Line:      r.line,
			})
			continue
		}

		container := enclosingDefinition(nodes, r.line)
		if container == nil {
			continue
		}
		edges = append(edges, graphmodel.Edge{
			SourceID: container.ID,
			TargetID: r.nameText,
			Kind:     graphmodel.EdgeCalls,
			FilePath: filePath,
			Line:     r.line,
		})
	}
	return edges, unresolved
}

func enclosingDefinition(nodes []graphmodel.Node, line int) *graphmodel.Node {
	var best *graphmodel.Node
	for i := range nodes {
		n := &nodes[i]
		if n.StartLine > line || n.EndLine < line {
			continue
		}
		if best == nil || tighter(n, best) {
			best = n
		}
	}
	return best
}

func firstLine(body string) string {
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		return strings.TrimRight(body[:idx], "{ \t\r")
	}
	return strings.TrimRight(body, "{ \t\r")
}

// extractDocComment returns the first line of the comment block
// immediately preceding startByte, scanning backward over blank lines and
// contiguous `//` or `#` comment lines.
func extractDocComment(content []byte, startByte uint) string {
	if startByte == 0 {
		return ""
	}
	before := string(content[:startByte])
	lines := strings.Split(strings.TrimRight(before, "\n"), "\n")

	var commentLines []string
	for i := len(lines) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			if len(commentLines) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "/*") {
			commentLines = append([]string{trimmed}, commentLines...)
			continue
		}
		break
	}
	if len(commentLines) == 0 {
		return ""
	}
	first := commentLines[0]
	first = strings.TrimPrefix(first, "///")
	first = strings.TrimPrefix(first, "//")
	first = strings.TrimPrefix(first, "/**")
	first = strings.TrimPrefix(first, "/*")
	first = strings.TrimPrefix(first, "#")
	first = strings.TrimPrefix(first, "*")
	return strings.TrimSpace(first)
}

// isExportedName decides export status from the name alone: for Python a
// name without a leading underscore, elsewhere an identifier whose first
// letter is an ASCII capital. It is the only export check the extractor
// makes; export keywords and visibility modifiers (`export`, `pub`,
// `public`) are not consulted, so a lower-case symbol marked with one is
// reported as not exported.
func isExportedName(name string, language lang.Language) bool {
	if name == "" {
		return false
	}
	switch language {
	case lang.Python:
		return !strings.HasPrefix(name, "_")
	default:
		r := []rune(name)[0]
		return r >= 'A' && r <= 'Z'
	}
}
