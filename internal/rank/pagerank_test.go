package rank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codegraph/internal/graphmodel"
	"github.com/standardbeagle/codegraph/internal/store"
)

func setupStore(t *testing.T) (*store.Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, ctx
}

func mkNode(name, file string, line int) graphmodel.Node {
	n := graphmodel.Node{Kind: graphmodel.KindFunction, Name: name, FilePath: file, StartLine: line, EndLine: line + 2, Language: "go"}
	n.ID = graphmodel.MakeNodeID(n.Kind, n.FilePath, n.Name, n.StartLine)
	n.Finalize()
	return n
}

func mkEdge(from, to graphmodel.Node) graphmodel.Edge {
	return graphmodel.Edge{SourceID: from.ID, TargetID: to.ID, Kind: graphmodel.EdgeCalls, FilePath: from.FilePath, Line: from.StartLine}
}

func TestPageRankSumsToApproximatelyOne(t *testing.T) {
	s, ctx := setupStore(t)
	a := mkNode("A", "f.go", 1)
	b := mkNode("B", "f.go", 10)
	c := mkNode("C", "f.go", 20)
	require.NoError(t, s.UpsertNodes(ctx, []graphmodel.Node{a, b, c}))
	require.NoError(t, s.UpsertEdge(ctx, mkEdge(a, b)))
	require.NoError(t, s.UpsertEdge(ctx, mkEdge(a, c)))
	require.NoError(t, s.UpsertEdge(ctx, mkEdge(b, c)))

	ranks, err := PageRank(ctx, s, 0)
	require.NoError(t, err)
	require.Len(t, ranks, 3)

	var total float64
	for _, r := range ranks {
		total += r
	}
	assert.InDelta(t, 1.0, total, 0.01)
}

func TestPageRankFavorsMoreReferencedNode(t *testing.T) {
	s, ctx := setupStore(t)
	a := mkNode("A", "f.go", 1)
	b := mkNode("B", "f.go", 10)
	c := mkNode("C", "f.go", 20)
	require.NoError(t, s.UpsertNodes(ctx, []graphmodel.Node{a, b, c}))
	// B and C both point at A; A has no outgoing edges.
	require.NoError(t, s.UpsertEdge(ctx, mkEdge(b, a)))
	require.NoError(t, s.UpsertEdge(ctx, mkEdge(c, a)))

	ranks, err := PageRank(ctx, s, 0)
	require.NoError(t, err)
	assert.Greater(t, ranks[a.ID], ranks[b.ID])
	assert.Greater(t, ranks[a.ID], ranks[c.ID])
}

func TestPageRankEmptyGraph(t *testing.T) {
	s, ctx := setupStore(t)
	ranks, err := PageRank(ctx, s, 0)
	require.NoError(t, err)
	assert.Empty(t, ranks)
}

func TestImpactScoresSortedDescending(t *testing.T) {
	s, ctx := setupStore(t)
	a := mkNode("A", "f.go", 1)
	b := mkNode("B", "f.go", 10)
	require.NoError(t, s.UpsertNodes(ctx, []graphmodel.Node{a, b}))
	require.NoError(t, s.UpsertEdge(ctx, mkEdge(b, a)))

	scores, err := ImpactScores(ctx, s)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, a.ID, scores[0].NodeID)
	assert.GreaterOrEqual(t, scores[0].Impact, scores[1].Impact)
}
