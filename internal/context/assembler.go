package context

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/standardbeagle/codegraph/internal/graphmodel"
	"github.com/standardbeagle/codegraph/internal/search"
	"github.com/standardbeagle/codegraph/internal/store"
)

// DefaultBudget is the token budget used when Assemble is called with a
// budget of 0 — generous enough that modern 128K+ context windows rarely
// need to trim anything (spec.md §4.9).
const DefaultBudget = 32000

// Tier allocation percentages: the minimum guaranteed share each tier
// gets before surplus redistribution (spec.md §4.9).
const (
	tierCorePct       = 40
	tierNearPct       = 25
	tierExtendedPct   = 20
	tierBackgroundPct = 15
)

const noContextSentinel = "No relevant context found."

// Assembler packs ranked code snippets from the graph into a single
// Markdown document sized to a token budget, per spec.md §4.9.
//
// Grounded on original_source/src/context/assembler.rs (ContextAssembler):
// the same four-tier split, two-pass build-then-redistribute algorithm,
// and section formatting, ported to this module's store/search APIs.
type Assembler struct {
	store    *store.Store
	search   *search.Engine
	contexts map[string]string
}

// NewAssembler constructs an Assembler backed by st and se.
func NewAssembler(st *store.Store, se *search.Engine) *Assembler {
	return &Assembler{store: st, search: se}
}

// WithContexts attaches directory context annotations (path prefix ->
// human-readable description) shown alongside Core-tier symbols from
// matching files.
func (a *Assembler) WithContexts(contexts map[string]string) *Assembler {
	a.contexts = contexts
	return a
}

func (a *Assembler) contextForPath(path string) string {
	var best, bestDesc string
	for prefix, desc := range a.contexts {
		if strings.HasPrefix(path, prefix) && len(prefix) > len(best) {
			best, bestDesc = prefix, desc
		}
	}
	return bestDesc
}

// Assemble builds a Markdown context document for query within budget
// tokens (DefaultBudget when budget <= 0). It never fails: store or
// search errors simply yield empty tiers, and an entirely empty result
// falls back to a short sentinel string.
func (a *Assembler) Assemble(ctx context.Context, query string, budget int) string {
	if budget <= 0 {
		budget = DefaultBudget
	}

	initial := [4]int{
		budget * tierCorePct / 100,
		budget * tierNearPct / 100,
		budget * tierExtendedPct / 100,
		budget * tierBackgroundPct / 100,
	}

	coreNodes, seen := a.gatherCoreNodes(ctx, query)
	nearNodes := a.gatherNearNodes(ctx, coreNodes, seen)
	extendedNodes := a.gatherExtendedNodes(ctx, coreNodes, seen)

	buildCore := func(b int) string { return a.buildCoreSection(coreNodes, b) }
	buildNear := func(b int) string { return a.buildSignatureSection(nearNodes, b) }
	buildExtended := func(b int) string { return a.buildSignatureSection(extendedNodes, b) }
	buildBackground := func(b int) string { return a.buildBackgroundSection(ctx, b) }

	pass1 := [4]string{
		buildCore(initial[0]),
		buildNear(initial[1]),
		buildExtended(initial[2]),
		buildBackground(initial[3]),
	}
	actual := [4]int{
		estimateTokens(pass1[0]),
		estimateTokens(pass1[1]),
		estimateTokens(pass1[2]),
		estimateTokens(pass1[3]),
	}

	sections := redistributeAndRebuild(initial, actual, budget, pass1,
		[4]func(int) string{buildCore, buildNear, buildExtended, buildBackground})

	labels := [4]string{"## Core Context", "## Related Symbols", "## Tests & Siblings", "## Project Structure"}
	var output []string
	for i, section := range sections {
		if section == "" {
			continue
		}
		output = append(output, labels[i]+"\n\n"+section)
	}

	if len(output) == 0 {
		return noContextSentinel
	}
	return strings.Join(output, "\n\n---\n\n")
}

// gatherCoreNodes runs a search for query and loads the top-ranked nodes
// it names, skipping any result the store no longer has a node for.
func (a *Assembler) gatherCoreNodes(ctx context.Context, query string) ([]graphmodel.Node, map[string]bool) {
	seen := make(map[string]bool)
	var nodes []graphmodel.Node

	if a.search == nil {
		return nodes, seen
	}
	results, err := a.search.Search(ctx, query, search.Options{Limit: 10})
	if err != nil {
		return nodes, seen
	}
	for _, r := range results {
		n, ok, err := a.store.GetNode(ctx, r.NodeID)
		if err != nil || !ok {
			continue
		}
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		nodes = append(nodes, n)
	}
	return nodes, seen
}

// gatherNearNodes collects the direct callers and callees of every core
// node, deduplicated against seen (which it mutates).
func (a *Assembler) gatherNearNodes(ctx context.Context, core []graphmodel.Node, seen map[string]bool) []graphmodel.Node {
	var nodes []graphmodel.Node
	for _, n := range core {
		for _, id := range a.neighborIDs(ctx, n.ID) {
			if seen[id] {
				continue
			}
			seen[id] = true
			if neighbor, ok, err := a.store.GetNode(ctx, id); err == nil && ok {
				nodes = append(nodes, neighbor)
			}
		}
	}
	return nodes
}

func (a *Assembler) neighborIDs(ctx context.Context, nodeID string) []string {
	var ids []string
	if out, err := a.store.GetOutEdges(ctx, nodeID, ""); err == nil {
		for _, e := range out {
			ids = append(ids, e.TargetID)
		}
	}
	if in, err := a.store.GetInEdges(ctx, nodeID, ""); err == nil {
		for _, e := range in {
			ids = append(ids, e.SourceID)
		}
	}
	return ids
}

// gatherExtendedNodes collects test-named nodes that reference a core
// node, then same-file siblings of core nodes.
func (a *Assembler) gatherExtendedNodes(ctx context.Context, core []graphmodel.Node, seen map[string]bool) []graphmodel.Node {
	var nodes []graphmodel.Node
	coreIDs := make(map[string]bool, len(core))
	for _, n := range core {
		coreIDs[n.ID] = true
	}

	all, err := a.store.GetAllNodes(ctx)
	if err != nil {
		return nodes
	}

	for _, n := range all {
		if seen[n.ID] {
			continue
		}
		lower := strings.ToLower(n.Name)
		if !strings.Contains(lower, "test") && !strings.Contains(lower, "spec") {
			continue
		}
		if a.referencesAny(ctx, n.ID, coreIDs) {
			seen[n.ID] = true
			nodes = append(nodes, n)
		}
	}

	files := make(map[string]bool, len(core))
	for _, n := range core {
		files[n.FilePath] = true
	}
	for _, n := range all {
		if seen[n.ID] || !files[n.FilePath] {
			continue
		}
		seen[n.ID] = true
		nodes = append(nodes, n)
	}

	return nodes
}

func (a *Assembler) referencesAny(ctx context.Context, nodeID string, targets map[string]bool) bool {
	for _, id := range a.neighborIDs(ctx, nodeID) {
		if targets[id] {
			return true
		}
	}
	return false
}

func (a *Assembler) buildCoreSection(nodes []graphmodel.Node, budget int) string {
	var parts []string
	used := 0
	for _, n := range nodes {
		formatted := a.formatNodeFull(n)
		tokens := estimateTokens(formatted)
		if used+tokens > budget && len(parts) > 0 {
			break
		}
		parts = append(parts, formatted)
		used += tokens
	}
	return strings.Join(parts, "\n\n")
}

func (a *Assembler) buildSignatureSection(nodes []graphmodel.Node, budget int) string {
	var parts []string
	used := 0
	for _, n := range nodes {
		formatted := formatNodeSignature(n)
		tokens := estimateTokens(formatted)
		if used+tokens > budget && len(parts) > 0 {
			break
		}
		parts = append(parts, formatted)
		used += tokens
	}
	return strings.Join(parts, "\n")
}

func (a *Assembler) buildBackgroundSection(ctx context.Context, budget int) string {
	files, err := a.distinctFiles(ctx)
	if err != nil || len(files) == 0 {
		return ""
	}

	listing := "Files in project:\n"
	for _, f := range files {
		line := fmt.Sprintf("- %s\n", f)
		if estimateTokens(listing)+estimateTokens(line) > budget {
			break
		}
		listing += line
	}
	return truncateToFit(listing, budget)
}

func (a *Assembler) distinctFiles(ctx context.Context) ([]string, error) {
	nodes, err := a.store.GetAllNodes(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool)
	for _, n := range nodes {
		set[n.FilePath] = true
	}
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out, nil
}

func (a *Assembler) formatNodeFull(n graphmodel.Node) string {
	location := fmt.Sprintf("%s:%d-%d", n.FilePath, n.StartLine, n.EndLine)
	header := fmt.Sprintf("### `%s` **%s** (`%s`)", n.Kind, n.Name, location)

	body := n.Body
	if body == "" {
		body = "// source not available"
	}

	var docLine, ctxLine string
	if n.DocComment != "" {
		docLine = fmt.Sprintf("\n> %s\n", firstLine(n.DocComment))
	}
	if annotation := a.contextForPath(n.FilePath); annotation != "" {
		ctxLine = fmt.Sprintf("\n> **Context:** %s\n", annotation)
	}

	return fmt.Sprintf("%s%s%s\n\n```%s\n%s\n```", header, docLine, ctxLine, languageTag(n.Language), body)
}

func formatNodeSignature(n graphmodel.Node) string {
	sig := signatureOnly(n.Body)
	if sig == "" {
		sig = n.Name
	}
	return fmt.Sprintf("- `%s` **%s** (`%s:%d`) -- `%s`", n.Kind, n.Name, n.FilePath, n.StartLine, sig)
}

func languageTag(language string) string {
	switch language {
	case "typescript", "tsx":
		return "ts"
	case "javascript", "jsx":
		return "js"
	case "python":
		return "py"
	default:
		return language
	}
}
