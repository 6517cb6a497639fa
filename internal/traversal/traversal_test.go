package traversal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codegraph/internal/graphmodel"
	"github.com/standardbeagle/codegraph/internal/store"
)

func setupEngine(t *testing.T) (*Engine, *store.Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewEngine(s), s, ctx
}

func mustNode(t *testing.T, s *store.Store, ctx context.Context, name, file string, line int) graphmodel.Node {
	t.Helper()
	n := graphmodel.Node{
		Kind: graphmodel.KindFunction, Name: name, FilePath: file,
		StartLine: line, EndLine: line + 2, Language: "go",
	}
	n.ID = graphmodel.MakeNodeID(n.Kind, n.FilePath, n.Name, n.StartLine)
	n.Finalize()
	require.NoError(t, s.UpsertNode(ctx, n))
	return n
}

func mustCallEdge(t *testing.T, s *store.Store, ctx context.Context, from, to graphmodel.Node) {
	t.Helper()
	require.NoError(t, s.UpsertEdge(ctx, graphmodel.Edge{
		SourceID: from.ID, TargetID: to.ID, Kind: graphmodel.EdgeCalls, FilePath: from.FilePath, Line: from.StartLine,
	}))
}

func TestFindCallPathDirectNeighbor(t *testing.T) {
	e, s, ctx := setupEngine(t)
	a := mustNode(t, s, ctx, "A", "f.go", 1)
	b := mustNode(t, s, ctx, "B", "f.go", 10)
	mustCallEdge(t, s, ctx, a, b)

	path, err := e.FindCallPath(ctx, a.ID, b.ID, 5)
	require.NoError(t, err)
	require.Len(t, path, 2)
	assert.Equal(t, "A", path[0].Name)
	assert.Equal(t, "B", path[1].Name)
}

func TestFindCallPathThroughIntermediary(t *testing.T) {
	e, s, ctx := setupEngine(t)
	a := mustNode(t, s, ctx, "A", "f.go", 1)
	b := mustNode(t, s, ctx, "B", "f.go", 10)
	c := mustNode(t, s, ctx, "C", "f.go", 20)
	mustCallEdge(t, s, ctx, a, b)
	mustCallEdge(t, s, ctx, b, c)

	path, err := e.FindCallPath(ctx, a.ID, c.ID, 5)
	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{path[0].Name, path[1].Name, path[2].Name})
}

func TestFindCallPathNoPath(t *testing.T) {
	e, s, ctx := setupEngine(t)
	a := mustNode(t, s, ctx, "A", "f.go", 1)
	b := mustNode(t, s, ctx, "B", "f.go", 10)

	path, err := e.FindCallPath(ctx, a.ID, b.ID, 5)
	require.NoError(t, err)
	assert.Nil(t, path)
}

func TestFindCallPathSameNode(t *testing.T) {
	e, s, ctx := setupEngine(t)
	a := mustNode(t, s, ctx, "A", "f.go", 1)

	path, err := e.FindCallPath(ctx, a.ID, a.ID, 5)
	require.NoError(t, err)
	require.Len(t, path, 1)
	assert.Equal(t, "A", path[0].Name)
}

func TestFindCallPathRespectsMaxDepth(t *testing.T) {
	e, s, ctx := setupEngine(t)
	a := mustNode(t, s, ctx, "A", "f.go", 1)
	b := mustNode(t, s, ctx, "B", "f.go", 10)
	c := mustNode(t, s, ctx, "C", "f.go", 20)
	mustCallEdge(t, s, ctx, a, b)
	mustCallEdge(t, s, ctx, b, c)

	path, err := e.FindCallPath(ctx, a.ID, c.ID, 1)
	require.NoError(t, err)
	assert.Nil(t, path)
}

func TestFindCallPathNonexistentNode(t *testing.T) {
	e, _, ctx := setupEngine(t)
	path, err := e.FindCallPath(ctx, "function:f.go:A:1", "function:f.go:B:10", 5)
	require.NoError(t, err)
	assert.Nil(t, path)
}

func TestFindCallPathDiamondShortest(t *testing.T) {
	e, s, ctx := setupEngine(t)
	a := mustNode(t, s, ctx, "A", "f.go", 1)
	b := mustNode(t, s, ctx, "B", "f.go", 10)
	c := mustNode(t, s, ctx, "C", "f.go", 20)
	d := mustNode(t, s, ctx, "D", "f.go", 30)
	mustCallEdge(t, s, ctx, a, b)
	mustCallEdge(t, s, ctx, a, c)
	mustCallEdge(t, s, ctx, b, d)
	mustCallEdge(t, s, ctx, c, d)

	path, err := e.FindCallPath(ctx, a.ID, d.ID, 5)
	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, "A", path[0].Name)
	assert.Equal(t, "D", path[2].Name)
}

func TestFindCallPathDisconnectedNodes(t *testing.T) {
	e, s, ctx := setupEngine(t)
	a := mustNode(t, s, ctx, "A", "f.go", 1)
	b := mustNode(t, s, ctx, "B", "other.go", 1)

	path, err := e.FindCallPath(ctx, a.ID, b.ID, 5)
	require.NoError(t, err)
	assert.Nil(t, path)
}

func TestFindCallPathIgnoresImportEdges(t *testing.T) {
	e, s, ctx := setupEngine(t)
	a := mustNode(t, s, ctx, "A", "f.go", 1)
	b := mustNode(t, s, ctx, "B", "f.go", 10)
	require.NoError(t, s.UpsertEdge(ctx, graphmodel.Edge{
		SourceID: a.ID, TargetID: b.ID, Kind: graphmodel.EdgeImports, FilePath: "f.go", Line: 1,
	}))

	path, err := e.FindCallPath(ctx, a.ID, b.ID, 5)
	require.NoError(t, err)
	assert.Nil(t, path)
}

func TestFindCallPathInCyclicGraph(t *testing.T) {
	e, s, ctx := setupEngine(t)
	a := mustNode(t, s, ctx, "A", "f.go", 1)
	b := mustNode(t, s, ctx, "B", "f.go", 10)
	c := mustNode(t, s, ctx, "C", "f.go", 20)
	mustCallEdge(t, s, ctx, a, b)
	mustCallEdge(t, s, ctx, b, c)
	mustCallEdge(t, s, ctx, c, a)

	path, err := e.FindCallPath(ctx, a.ID, c.ID, 10)
	require.NoError(t, err)
	require.Len(t, path, 3)
}

func TestFindCalleesAndCallers(t *testing.T) {
	e, s, ctx := setupEngine(t)
	a := mustNode(t, s, ctx, "A", "f.go", 1)
	b := mustNode(t, s, ctx, "B", "f.go", 10)
	mustCallEdge(t, s, ctx, a, b)

	callees, err := e.FindCallees(ctx, a.ID, 3)
	require.NoError(t, err)
	require.Len(t, callees, 1)
	assert.Equal(t, "B", callees[0].Node.Name)
	assert.Equal(t, 1, callees[0].Depth)

	callers, err := e.FindCallers(ctx, b.ID, 3)
	require.NoError(t, err)
	require.Len(t, callers, 1)
	assert.Equal(t, "A", callers[0].Node.Name)
}

func TestFindCalleesZeroDepthIsEmpty(t *testing.T) {
	e, s, ctx := setupEngine(t)
	a := mustNode(t, s, ctx, "A", "f.go", 1)
	b := mustNode(t, s, ctx, "B", "f.go", 10)
	mustCallEdge(t, s, ctx, a, b)

	callees, err := e.FindCallees(ctx, a.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, callees)
}

func TestFindDependenciesFollowsAnyEdgeKind(t *testing.T) {
	e, s, ctx := setupEngine(t)
	a := mustNode(t, s, ctx, "A", "f.go", 1)
	b := mustNode(t, s, ctx, "B", "f.go", 10)
	require.NoError(t, s.UpsertEdge(ctx, graphmodel.Edge{
		SourceID: a.ID, TargetID: b.ID, Kind: graphmodel.EdgeImports, FilePath: "f.go", Line: 1,
	}))

	deps, err := e.FindDependencies(ctx, a.ID, 3)
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, "B", deps[0].Node.Name)
}

func TestFindTransitiveDepsUsesDepth50(t *testing.T) {
	e, s, ctx := setupEngine(t)
	// A 60-node chain: only the 50 nodes within depth 50 are returned.
	first := mustNode(t, s, ctx, "N", "f.go", 1000)
	prev := first
	for i := 1; i < 60; i++ {
		n := mustNode(t, s, ctx, "N", "f.go", 1000+i)
		mustCallEdge(t, s, ctx, prev, n)
		prev = n
	}

	nodes, err := e.FindTransitiveDeps(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 50)
}

func TestFindTestsMatchesTestFilePath(t *testing.T) {
	e, s, ctx := setupEngine(t)
	target := mustNode(t, s, ctx, "Compute", "svc/compute.go", 1)
	test := mustNode(t, s, ctx, "TestCompute", "svc/compute_test.go", 1)
	mustCallEdge(t, s, ctx, test, target)

	tests, err := e.FindTests(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, "TestCompute", tests[0].Name)
}

func TestGetNeighborhoodIncludesBothDirections(t *testing.T) {
	e, s, ctx := setupEngine(t)
	a := mustNode(t, s, ctx, "A", "f.go", 1)
	b := mustNode(t, s, ctx, "B", "f.go", 10)
	c := mustNode(t, s, ctx, "C", "f.go", 20)
	mustCallEdge(t, s, ctx, a, b)
	mustCallEdge(t, s, ctx, c, a)

	nbh, err := e.GetNeighborhood(ctx, a.ID, 1)
	require.NoError(t, err)
	names := map[string]bool{}
	for _, n := range nbh.Nodes {
		names[n.Name] = true
	}
	assert.True(t, names["A"])
	assert.True(t, names["B"])
	assert.True(t, names["C"])
}

func TestDetectCyclesFindsSimpleCycle(t *testing.T) {
	e, s, ctx := setupEngine(t)
	a := mustNode(t, s, ctx, "A", "f.go", 1)
	b := mustNode(t, s, ctx, "B", "f.go", 10)
	c := mustNode(t, s, ctx, "C", "f.go", 20)
	mustCallEdge(t, s, ctx, a, b)
	mustCallEdge(t, s, ctx, b, c)
	mustCallEdge(t, s, ctx, c, a)

	cycles, err := e.DetectCycles(ctx)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []string{a.ID, b.ID, c.ID}, cycles[0].NodeIDs)
}

func TestDetectCyclesIgnoresAcyclicGraph(t *testing.T) {
	e, s, ctx := setupEngine(t)
	a := mustNode(t, s, ctx, "A", "f.go", 1)
	b := mustNode(t, s, ctx, "B", "f.go", 10)
	mustCallEdge(t, s, ctx, a, b)

	cycles, err := e.DetectCycles(ctx)
	require.NoError(t, err)
	assert.Empty(t, cycles)
}

func TestDetectCyclesHandlesDeepChainWithoutRecursionOverflow(t *testing.T) {
	e, s, ctx := setupEngine(t)
	const chainLen = 2000
	var prev graphmodel.Node
	for i := 0; i < chainLen; i++ {
		n := mustNode(t, s, ctx, "N", "f.go", i+1)
		if i > 0 {
			mustCallEdge(t, s, ctx, prev, n)
		}
		prev = n
	}

	cycles, err := e.DetectCycles(ctx)
	require.NoError(t, err)
	assert.Empty(t, cycles)
}
