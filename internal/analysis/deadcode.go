// Package analysis implements the dead-code, complexity, and dataflow
// passes (spec.md §4.7): static checks that run directly against the
// persisted graph and stored body text rather than re-parsing source.
//
// Dead code detection is grounded on
// _examples/original_source/src/resolution/dead_code.rs: nodes with no
// incoming edges, excluding exported symbols, entry points, tests, and
// module-kind nodes.
package analysis

import (
	"context"
	"strings"

	"github.com/standardbeagle/codegraph/internal/apperrors"
	"github.com/standardbeagle/codegraph/internal/graphmodel"
	"github.com/standardbeagle/codegraph/internal/rank"
	"github.com/standardbeagle/codegraph/internal/store"
)

// DeadCodeResult is a symbol with no incoming graph edges.
type DeadCodeResult struct {
	ID        string
	Name      string
	Kind      string
	FilePath  string
	StartLine int
	Impact    float64
}

// FindDeadCode returns nodes with no incoming edges, excluding exported
// symbols, "main" entry points, test functions, and module-kind nodes.
// If kinds is non-empty, results are filtered to those kinds.
func FindDeadCode(ctx context.Context, s *store.Store, kinds []graphmodel.NodeKind) ([]DeadCodeResult, error) {
	allNodes, err := s.GetAllNodes(ctx)
	if err != nil {
		return nil, apperrors.Storage("find_dead_code", err)
	}
	allEdges, err := s.GetAllEdges(ctx)
	if err != nil {
		return nil, apperrors.Storage("find_dead_code", err)
	}

	hasIncoming := make(map[string]bool, len(allEdges))
	for _, e := range allEdges {
		hasIncoming[e.TargetID] = true
	}

	// PageRank-derived impact annotates each finding. A candidate has no
	// incoming edges, so its impact is the baseline score PageRank gives
	// every node without incoming edges: the same value for all findings.
	impact := make(map[string]float64)
	if scores, err := rank.ImpactScores(ctx, s); err == nil {
		for _, sc := range scores {
			impact[sc.NodeID] = sc.Impact
		}
	}

	kindFilter := make(map[graphmodel.NodeKind]bool, len(kinds))
	for _, k := range kinds {
		kindFilter[k] = true
	}

	var out []DeadCodeResult
	for _, n := range allNodes {
		if hasIncoming[n.ID] {
			continue
		}
		if n.Exported {
			continue
		}
		if n.Name == "main" {
			continue
		}
		if n.IsTest || looksLikeTestPath(n.FilePath) || looksLikeTestName(n.Name) {
			continue
		}
		if n.Kind == graphmodel.KindModule {
			continue
		}
		if len(kindFilter) > 0 && !kindFilter[n.Kind] {
			continue
		}
		out = append(out, DeadCodeResult{
			ID: n.ID, Name: n.Name, Kind: string(n.Kind), FilePath: n.FilePath, StartLine: n.StartLine,
			Impact: impact[n.ID],
		})
	}

	sortByFileThenLine(out)
	return out, nil
}

func looksLikeTestPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.Contains(lower, "test") || strings.Contains(lower, "spec") || strings.Contains(lower, "__tests__")
}

func looksLikeTestName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, "test")
}

func sortByFileThenLine(results []DeadCodeResult) {
	// insertion sort is fine at typical dead-code result sizes and keeps
	// the comparison explicit (file asc, then start line asc).
	for i := 1; i < len(results); i++ {
		j := i
		for j > 0 && less(results[j], results[j-1]) {
			results[j], results[j-1] = results[j-1], results[j]
			j--
		}
	}
}

func less(a, b DeadCodeResult) bool {
	if a.FilePath != b.FilePath {
		return a.FilePath < b.FilePath
	}
	return a.StartLine < b.StartLine
}
