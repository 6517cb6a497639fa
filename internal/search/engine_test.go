package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codegraph/internal/graphmodel"
	"github.com/standardbeagle/codegraph/internal/store"
)

func TestDetectIntentSymbolLookup(t *testing.T) {
	assert.Equal(t, SymbolLookup, DetectIntent("getUserById"))
	assert.Equal(t, SymbolLookup, DetectIntent("user_repository"))
}

func TestDetectIntentSemanticSearch(t *testing.T) {
	assert.Equal(t, SemanticSearch, DetectIntent("how do I find all the users"))
}

func TestDetectIntentHybridOnEmpty(t *testing.T) {
	assert.Equal(t, Hybrid, DetectIntent(""))
}

func TestWeightsForSymbolLookupFavorsFTS(t *testing.T) {
	w := WeightsFor(SymbolLookup)
	assert.Greater(t, w.FTSWeight, w.VecWeight)
}

func TestWeightsForSemanticSearchFavorsVector(t *testing.T) {
	w := WeightsFor(SemanticSearch)
	assert.Greater(t, w.VecWeight, w.FTSWeight)
}

func TestSanitizeFTSQueryQuotesAndStripsOperators(t *testing.T) {
	assert.Equal(t, `"foo" OR "bar"`, sanitizeFTSQuery("foo* (bar)"))
}

func TestSanitizeFTSQueryEmptyOnAllOperators(t *testing.T) {
	assert.Equal(t, "", sanitizeFTSQuery("***"))
}

func TestBuildSnippetPrefersDocComment(t *testing.T) {
	assert.Equal(t, "does a thing", buildSnippet("Foo", "func Foo()", "does a thing\nmore detail"))
}

func TestBuildSnippetFallsBackToSignature(t *testing.T) {
	assert.Equal(t, "func Foo()", buildSnippet("Foo", "func Foo()", ""))
}

func TestBuildSnippetFallsBackToName(t *testing.T) {
	assert.Equal(t, "Foo", buildSnippet("Foo", "", ""))
}

func TestFuseWeightedTopRankBonus(t *testing.T) {
	fts := []Result{{NodeID: "a"}, {NodeID: "b"}}
	fused := FuseWeighted(fts, nil, nil, 60, BlendWeights{FTSWeight: 1, VecWeight: 1})
	require.Len(t, fused, 2)
	assert.Equal(t, "a", fused[0].NodeID)
	assert.Greater(t, fused[0].Score, fused[1].Score)
}

func TestFuseWeightedBreaksTiesByNodeIDAscending(t *testing.T) {
	fts := []Result{{NodeID: "zzz"}}
	vec := []Result{{NodeID: "aaa"}}
	fused := FuseWeighted(fts, vec, nil, 60, BlendWeights{FTSWeight: 1, VecWeight: 1})
	require.Len(t, fused, 2)
	require.Equal(t, fused[0].Score, fused[1].Score)
	assert.Equal(t, "aaa", fused[0].NodeID)
	assert.Equal(t, "zzz", fused[1].NodeID)
}

func TestFuseWeightedMergesAcrossSignals(t *testing.T) {
	ftsScore := 1.0
	fts := []Result{{NodeID: "a", FTSScore: &ftsScore}}
	vec := []Result{{NodeID: "a"}}
	fused := FuseWeighted(fts, vec, nil, 60, BlendWeights{FTSWeight: 1, VecWeight: 1})
	require.Len(t, fused, 1)
	assert.NotNil(t, fused[0].FTSScore)
}

func setupEngine(t *testing.T) (*Engine, context.Context) {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	n := graphmodel.Node{
		Kind: graphmodel.KindFunction, Name: "GetUserByID", FilePath: "svc/user.go",
		StartLine: 10, EndLine: 12, Language: "go", Signature: "func GetUserByID(id int) *User",
		DocComment: "GetUserByID fetches a user by id.",
	}
	n.Finalize()
	require.NoError(t, s.UpsertNode(ctx, n))

	return NewEngine(s, nil), ctx
}

func TestEngineSearchByKeywordFindsMatch(t *testing.T) {
	e, ctx := setupEngine(t)
	results, err := e.Search(ctx, "GetUserByID", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "GetUserByID", results[0].Name)
}

func TestEngineSearchRespectsNodeTypeFilter(t *testing.T) {
	e, ctx := setupEngine(t)
	results, err := e.Search(ctx, "GetUserByID", Options{NodeType: "class"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngineSearchAnnotatesImpact(t *testing.T) {
	e, ctx := setupEngine(t)
	results, err := e.Search(ctx, "GetUserByID", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Greater(t, results[0].Impact, 0.0)
}

func TestEngineSearchFilesAggregatesByFile(t *testing.T) {
	e, ctx := setupEngine(t)
	files, err := e.SearchFiles(ctx, "GetUserByID", 10)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "svc/user.go", files[0].FilePath)
}
