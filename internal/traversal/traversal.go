// Package traversal implements the recursive-CTE graph traversal engine:
// dependency/callee/caller walks, test discovery, neighborhoods, shortest
// call paths, and Tarjan cycle detection (spec.md §4.6).
//
// The recursive CTE SQL text is ported verbatim in meaning from
// _examples/original_source/src/graph/traversal.rs, which itself notes
// the SQL was "copied verbatim from the TypeScript version". Tarjan's
// SCC runs in Go with an explicit stack rather than recursion, the same
// deliberate choice the original made switching from TS recursion to a
// Rust iterative form to avoid stack depth limits.
package traversal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/standardbeagle/codegraph/internal/apperrors"
	"github.com/standardbeagle/codegraph/internal/graphmodel"
	"github.com/standardbeagle/codegraph/internal/store"
)

// NodeWithDepth pairs a node with its traversal depth from the start node.
type NodeWithDepth struct {
	Node  graphmodel.Node
	Depth int
}

// Cycle is a strongly connected component of size >= 2.
type Cycle struct {
	NodeIDs []string
}

// Neighborhood is a bidirectional subgraph around a focal node.
type Neighborhood struct {
	Nodes []graphmodel.Node
	Edges []graphmodel.Edge
}

// Engine runs traversal queries against a store.
type Engine struct {
	store *store.Store
}

func NewEngine(s *store.Store) *Engine { return &Engine{store: s} }

const findDependenciesSQL = `
WITH RECURSIVE deps(id, depth, path) AS (
	SELECT target_id, 1, source_id || '->' || target_id
	FROM edges
	WHERE source_id = ?

	UNION

	SELECT e.target_id, d.depth + 1, d.path || '->' || e.target_id
	FROM deps d
	JOIN edges e ON e.source_id = d.id
	WHERE d.depth < ?
	  AND instr(d.path, e.target_id) = 0
)
SELECT DISTINCT n.` + nodeCols + `, d.depth
FROM deps d
JOIN nodes n ON n.id = d.id
ORDER BY d.depth ASC, n.name ASC`

const findCalleesSQL = `
WITH RECURSIVE callees(id, depth, path) AS (
	SELECT target_id, 1, source_id || '->' || target_id
	FROM edges
	WHERE source_id = ? AND kind = 'calls'

	UNION

	SELECT e.target_id, c.depth + 1, c.path || '->' || e.target_id
	FROM callees c
	JOIN edges e ON e.source_id = c.id AND e.kind = 'calls'
	WHERE c.depth < ?
	  AND instr(c.path, e.target_id) = 0
)
SELECT DISTINCT n.` + nodeCols + `, c.depth
FROM callees c
JOIN nodes n ON n.id = c.id
ORDER BY c.depth ASC, n.name ASC`

const findCallersSQL = `
WITH RECURSIVE callers(id, depth, path) AS (
	SELECT source_id, 1, target_id || '<-' || source_id
	FROM edges
	WHERE target_id = ? AND kind = 'calls'

	UNION

	SELECT e.source_id, c.depth + 1, c.path || '<-' || e.source_id
	FROM callers c
	JOIN edges e ON e.target_id = c.id AND e.kind = 'calls'
	WHERE c.depth < ?
	  AND instr(c.path, e.source_id) = 0
)
SELECT DISTINCT n.` + nodeCols + `, c.depth
FROM callers c
JOIN nodes n ON n.id = c.id
ORDER BY c.depth ASC, n.name ASC`

const findTestsSQL = `
WITH RECURSIVE callers(id, depth, path) AS (
	SELECT source_id, 1, target_id || '<-' || source_id
	FROM edges
	WHERE target_id = ?

	UNION

	SELECT e.source_id, c.depth + 1, c.path || '<-' || e.source_id
	FROM callers c
	JOIN edges e ON e.target_id = c.id
	WHERE c.depth < 5
	  AND instr(c.path, e.source_id) = 0
)
SELECT DISTINCT n.` + nodeCols + `
FROM callers c
JOIN nodes n ON n.id = c.id
WHERE (
	n.file_path LIKE '%test%'
	OR n.file_path LIKE '%spec%'
	OR n.file_path LIKE '%__tests__%'
	OR n.name LIKE 'test%'
	OR n.name LIKE '%Test'
	OR n.name LIKE '%test'
)
ORDER BY n.file_path ASC, n.start_line ASC`

const neighborhoodNodesSQL = `
WITH RECURSIVE
	outgoing(id, depth, path) AS (
		SELECT ?, 0, ?
		UNION
		SELECT e.target_id, o.depth + 1, o.path || '->' || e.target_id
		FROM outgoing o
		JOIN edges e ON e.source_id = o.id
		WHERE o.depth < ? AND instr(o.path, e.target_id) = 0
	),
	incoming(id, depth, path) AS (
		SELECT ?, 0, ?
		UNION
		SELECT e.source_id, i.depth + 1, i.path || '<-' || e.source_id
		FROM incoming i
		JOIN edges e ON e.target_id = i.id
		WHERE i.depth < ? AND instr(i.path, e.source_id) = 0
	)
SELECT DISTINCT n.` + nodeCols + `
FROM nodes n
WHERE n.id IN (SELECT id FROM outgoing UNION SELECT id FROM incoming)
ORDER BY n.name ASC`

const nodeCols = `id, kind, name, qualified_name, file_path, start_line, end_line, start_column, end_column, language, signature, body, doc_comment, exported, has_exported, name_tokens, is_test, source_hash`

func scanNodeRow(rows *sql.Rows) (graphmodel.Node, error) {
	var n graphmodel.Node
	var kind string
	var exported, hasExported, isTest int
	err := rows.Scan(&n.ID, &kind, &n.Name, &n.QualifiedName, &n.FilePath, &n.StartLine, &n.EndLine,
		&n.StartColumn, &n.EndColumn, &n.Language, &n.Signature, &n.Body, &n.DocComment,
		&exported, &hasExported, &n.NameTokens, &isTest, &n.SourceHash)
	if err != nil {
		return graphmodel.Node{}, err
	}
	n.Kind = graphmodel.NodeKind(kind)
	n.Exported = exported != 0
	n.HasExported = hasExported != 0
	n.IsTest = isTest != 0
	return n, nil
}

// FindDependencies walks outgoing edges of any kind from nodeID up to
// maxDepth hops, cycle-guarded by path-membership checks in the CTE.
func (e *Engine) FindDependencies(ctx context.Context, nodeID string, maxDepth int) ([]NodeWithDepth, error) {
	return e.queryDepthRows(ctx, findDependenciesSQL, nodeID, maxDepth)
}

// FindCallees walks only "calls" edges forward: what does this function call?
func (e *Engine) FindCallees(ctx context.Context, nodeID string, maxDepth int) ([]NodeWithDepth, error) {
	if maxDepth <= 0 {
		return nil, nil
	}
	return e.queryDepthRows(ctx, findCalleesSQL, nodeID, maxDepth)
}

// FindCallers walks only "calls" edges backward: who calls this function?
func (e *Engine) FindCallers(ctx context.Context, nodeID string, maxDepth int) ([]NodeWithDepth, error) {
	if maxDepth <= 0 {
		return nil, nil
	}
	return e.queryDepthRows(ctx, findCallersSQL, nodeID, maxDepth)
}

// scanNodeWithDepth scans a row shaped as (node columns..., depth), the
// shape shared by findDependenciesSQL, findCalleesSQL, and findCallersSQL.
func scanNodeWithDepth(rows *sql.Rows) (NodeWithDepth, error) {
	var n graphmodel.Node
	var kind string
	var exported, hasExported, isTest int
	var depth int
	err := rows.Scan(&n.ID, &kind, &n.Name, &n.QualifiedName, &n.FilePath, &n.StartLine, &n.EndLine,
		&n.StartColumn, &n.EndColumn, &n.Language, &n.Signature, &n.Body, &n.DocComment,
		&exported, &hasExported, &n.NameTokens, &isTest, &n.SourceHash, &depth)
	if err != nil {
		return NodeWithDepth{}, err
	}
	n.Kind = graphmodel.NodeKind(kind)
	n.Exported = exported != 0
	n.HasExported = hasExported != 0
	n.IsTest = isTest != 0
	return NodeWithDepth{Node: n, Depth: depth}, nil
}

// queryDepthRows runs one of the depth-annotated recursive queries and
// scans each row as (node columns..., depth).
func (e *Engine) queryDepthRows(ctx context.Context, query, nodeID string, maxDepth int) ([]NodeWithDepth, error) {
	rows, err := e.store.DB().QueryContext(ctx, query, nodeID, maxDepth)
	if err != nil {
		return nil, apperrors.Search("traversal_query", err)
	}
	defer rows.Close()

	var out []NodeWithDepth
	for rows.Next() {
		nd, err := scanNodeWithDepth(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, nd)
	}
	return out, rows.Err()
}

// FindTransitiveDeps finds all transitively reachable nodes from nodeID,
// using a generous depth limit of 50 to capture the full dependency tree.
func (e *Engine) FindTransitiveDeps(ctx context.Context, nodeID string) ([]graphmodel.Node, error) {
	deps, err := e.FindDependencies(ctx, nodeID, 50)
	if err != nil {
		return nil, err
	}
	nodes := make([]graphmodel.Node, len(deps))
	for i, d := range deps {
		nodes[i] = d.Node
	}
	return nodes, nil
}

// FindTests finds test files/functions that reference or call nodeID,
// directly or transitively (depth capped at 5), filtered to names/paths
// that look test-related.
func (e *Engine) FindTests(ctx context.Context, nodeID string) ([]graphmodel.Node, error) {
	rows, err := e.store.DB().QueryContext(ctx, findTestsSQL, nodeID)
	if err != nil {
		return nil, apperrors.Search("find_tests", err)
	}
	defer rows.Close()

	var out []graphmodel.Node
	for rows.Next() {
		n, err := scanNodeRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// GetNeighborhood returns the subgraph reachable from nodeID within
// radius hops in either direction, plus every edge between those nodes.
func (e *Engine) GetNeighborhood(ctx context.Context, nodeID string, radius int) (Neighborhood, error) {
	rows, err := e.store.DB().QueryContext(ctx, neighborhoodNodesSQL, nodeID, "", radius, nodeID, "", radius)
	if err != nil {
		return Neighborhood{}, apperrors.Search("neighborhood_nodes", err)
	}
	var nodes []graphmodel.Node
	for rows.Next() {
		n, err := scanNodeRow(rows)
		if err != nil {
			rows.Close()
			return Neighborhood{}, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return Neighborhood{}, err
	}
	rows.Close()

	if len(nodes) == 0 {
		return Neighborhood{}, nil
	}

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf(
		`SELECT source_id, target_id, kind, file_path, line, metadata FROM edges WHERE source_id IN (%s) AND target_id IN (%s)`,
		placeholders, placeholders)

	args := make([]any, 0, len(ids)*2)
	for _, id := range ids {
		args = append(args, id)
	}
	for _, id := range ids {
		args = append(args, id)
	}

	edgeRows, err := e.store.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return Neighborhood{}, apperrors.Search("neighborhood_edges", err)
	}
	defer edgeRows.Close()

	var edges []graphmodel.Edge
	for edgeRows.Next() {
		var ed graphmodel.Edge
		var kind, metaJSON string
		if err := edgeRows.Scan(&ed.SourceID, &ed.TargetID, &kind, &ed.FilePath, &ed.Line, &metaJSON); err != nil {
			return Neighborhood{}, err
		}
		ed.Kind = graphmodel.EdgeKind(kind)
		if metaJSON != "" {
			var meta map[string]string
			if json.Unmarshal([]byte(metaJSON), &meta) == nil {
				ed.Metadata = meta
			}
		}
		edges = append(edges, ed)
	}
	return Neighborhood{Nodes: nodes, Edges: edges}, edgeRows.Err()
}

// FindCallPath finds the shortest call path between fromID and toID via
// BFS over "calls" edges only, returning nil if no path exists within
// maxDepth hops. The returned path includes both endpoints.
func (e *Engine) FindCallPath(ctx context.Context, fromID, toID string, maxDepth int) ([]graphmodel.Node, error) {
	if fromID == toID {
		n, ok, err := e.getNode(ctx, fromID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return []graphmodel.Node{n}, nil
	}

	type queueEntry struct {
		id   string
		path []string
	}
	queue := []queueEntry{{id: fromID, path: []string{fromID}}}
	visited := map[string]bool{fromID: true}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		edgesUsed := len(cur.path) - 1
		if edgesUsed >= maxDepth {
			continue
		}

		neighbors, err := e.calleeIDs(ctx, cur.id)
		if err != nil {
			return nil, err
		}

		for _, neighbor := range neighbors {
			if neighbor == toID {
				fullPath := append(append([]string{}, cur.path...), neighbor)
				return e.hydratePath(ctx, fullPath)
			}
			if !visited[neighbor] {
				visited[neighbor] = true
				newPath := append(append([]string{}, cur.path...), neighbor)
				queue = append(queue, queueEntry{id: neighbor, path: newPath})
			}
		}
	}
	return nil, nil
}

func (e *Engine) calleeIDs(ctx context.Context, nodeID string) ([]string, error) {
	rows, err := e.store.DB().QueryContext(ctx, `SELECT target_id FROM edges WHERE source_id = ? AND kind = 'calls'`, nodeID)
	if err != nil {
		return nil, apperrors.Search("callee_ids", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (e *Engine) hydratePath(ctx context.Context, ids []string) ([]graphmodel.Node, error) {
	out := make([]graphmodel.Node, 0, len(ids))
	for _, id := range ids {
		n, ok, err := e.getNode(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (e *Engine) getNode(ctx context.Context, id string) (graphmodel.Node, bool, error) {
	row := e.store.DB().QueryRowContext(ctx, `SELECT `+nodeCols+` FROM nodes WHERE id = ?`, id)
	var n graphmodel.Node
	var kind string
	var exported, hasExported, isTest int
	err := row.Scan(&n.ID, &kind, &n.Name, &n.QualifiedName, &n.FilePath, &n.StartLine, &n.EndLine,
		&n.StartColumn, &n.EndColumn, &n.Language, &n.Signature, &n.Body, &n.DocComment,
		&exported, &hasExported, &n.NameTokens, &isTest, &n.SourceHash)
	if err == sql.ErrNoRows {
		return graphmodel.Node{}, false, nil
	}
	if err != nil {
		return graphmodel.Node{}, false, err
	}
	n.Kind = graphmodel.NodeKind(kind)
	n.Exported = exported != 0
	n.HasExported = hasExported != 0
	n.IsTest = isTest != 0
	return n, true, nil
}

// DetectCycles loads the full edge list and runs Tarjan's SCC algorithm
// with an explicit stack (not recursion, to tolerate deep graphs),
// returning only components of size >= 2 (actual cycles).
func (e *Engine) DetectCycles(ctx context.Context) ([]Cycle, error) {
	rows, err := e.store.DB().QueryContext(ctx, `SELECT source_id, target_id FROM edges`)
	if err != nil {
		return nil, apperrors.Search("detect_cycles", err)
	}
	defer rows.Close()

	adj := make(map[string][]string)
	nodeSet := make(map[string]bool)
	for rows.Next() {
		var source, target string
		if err := rows.Scan(&source, &target); err != nil {
			return nil, err
		}
		nodeSet[source] = true
		nodeSet[target] = true
		adj[source] = append(adj[source], target)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sccs := tarjanSCC(nodeSet, adj)

	var cycles []Cycle
	for _, scc := range sccs {
		if len(scc) >= 2 {
			cycles = append(cycles, Cycle{NodeIDs: scc})
		}
	}
	return cycles, nil
}
