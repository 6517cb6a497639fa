package search

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReranker struct {
	scoreFor map[string]float64
}

func (f *fakeReranker) Rerank(ctx context.Context, query string, results []Result, topK int) ([]Result, error) {
	out := make([]Result, len(results))
	copy(out, results)
	for i := range out {
		out[i].Score = f.scoreFor[out[i].NodeID]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func TestDeepSearchAppliesRerankerOrdering(t *testing.T) {
	e, ctx := setupEngine(t)

	reranker := &fakeReranker{scoreFor: map[string]float64{}}
	results, err := e.Search(ctx, "GetUserByID", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	reranker.scoreFor[results[0].NodeID] = 0.9

	out, err := DeepSearch(ctx, e, reranker, "GetUserByID", 20, 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, results[0].NodeID, out[0].NodeID)
	assert.Equal(t, 0.9, out[0].Score)
}

func TestDeepSearchReturnsNilWithoutReranker(t *testing.T) {
	e, ctx := setupEngine(t)
	out, err := DeepSearch(ctx, e, nil, "GetUserByID", 20, 5)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDeepSearchReturnsNilOnEmptyCandidates(t *testing.T) {
	e, ctx := setupEngine(t)
	reranker := &fakeReranker{scoreFor: map[string]float64{}}
	out, err := DeepSearch(ctx, e, reranker, "no such symbol anywhere zzz", 20, 5)
	require.NoError(t, err)
	assert.Empty(t, out)
}
