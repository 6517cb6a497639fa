package analysis

import (
	"context"
	"strings"

	"github.com/standardbeagle/codegraph/internal/apperrors"
	"github.com/standardbeagle/codegraph/internal/graphmodel"
	"github.com/standardbeagle/codegraph/internal/store"
)

// ComplexityResult is one function-kind node's complexity metrics,
// computed over its stored body text (spec.md §4.7).
type ComplexityResult struct {
	NodeID     string
	Name       string
	FilePath   string
	Cyclomatic int
	Cognitive  int
	LineCount  int
}

var decisionTokens = []string{"if", "for", "while", "case", "catch", "&&", "||"}

// CalculateComplexity computes cyclomatic complexity (a count of decision
// points) and a cognitive-complexity variant (decision points weighted by
// nesting depth) for a single function body.
func CalculateComplexity(body string) (cyclomatic, cognitive, lineCount int) {
	cyclomatic = 1 // one baseline path through the function
	cognitive = 0
	depth := 0

	lines := strings.Split(body, "\n")
	lineCount = len(lines)

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		opens := strings.Count(line, "{")
		closes := strings.Count(line, "}")

		hits := countDecisionPoints(trimmed)
		if hits > 0 {
			cyclomatic += hits
			cognitive += hits * (1 + depth)
		}
		if strings.Contains(trimmed, "?") && !strings.Contains(trimmed, "??") {
			// Ternary expression, a single decision point not already
			// covered by a keyword match.
			cyclomatic++
			cognitive += 1 + depth
		}

		depth += opens
		depth -= closes
		if depth < 0 {
			depth = 0
		}
	}

	return cyclomatic, cognitive, lineCount
}

func countDecisionPoints(line string) int {
	// "else if" is counted once here, then its "if" substring is scrubbed
	// so the plain-"if" pass below doesn't double-count the same branch.
	count := strings.Count(line, "else if")
	scrubbed := strings.ReplaceAll(line, "else if", "")
	for _, tok := range decisionTokens {
		count += strings.Count(scrubbed, tok)
	}
	return count
}

// CalculateAllComplexities computes complexity metrics for every
// function-kind node in the store.
func CalculateAllComplexities(ctx context.Context, s *store.Store) ([]ComplexityResult, error) {
	nodes, err := s.GetAllNodes(ctx)
	if err != nil {
		return nil, apperrors.Storage("calculate_all_complexities", err)
	}

	var out []ComplexityResult
	for _, n := range nodes {
		if n.Kind != graphmodel.KindFunction && n.Kind != graphmodel.KindMethod {
			continue
		}
		cyclomatic, cognitive, lineCount := CalculateComplexity(n.Body)
		out = append(out, ComplexityResult{
			NodeID: n.ID, Name: n.Name, FilePath: n.FilePath,
			Cyclomatic: cyclomatic, Cognitive: cognitive, LineCount: lineCount,
		})
	}
	return out, nil
}
