package search

import "context"

// Reranker scores a query against pre-fused candidates, typically with a
// cross-encoder model that sees the query and document jointly. Modeled
// as an injectable seam per _examples/original_source/src/graph/reranker.rs
// ("Reranker"/"deep_search"): no concrete cross-encoder ships here, but
// DeepSearch's contract mirrors the original's compositor so one can be
// wired in later without changing Engine's public surface.
type Reranker interface {
	// Rerank scores each of results against query and returns them
	// reordered by that score, descending, truncated to topK. Score
	// fields other than Score are expected to be preserved for
	// provenance (FTSScore/VecScore stay intact; Score is replaced).
	Rerank(ctx context.Context, query string, results []Result, topK int) ([]Result, error)
}

// DeepSearch composes a hybrid search with a cross-encoder rerank pass:
// it runs Search for a generous candidate pool, then re-orders that pool
// through reranker and truncates to topK. It is the Go analogue of the
// original's free-standing deep_search function.
func DeepSearch(ctx context.Context, e *Engine, reranker Reranker, query string, candidatePool, topK int) ([]Result, error) {
	candidates, err := e.Search(ctx, query, Options{Limit: candidatePool})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 || topK == 0 || reranker == nil {
		return nil, nil
	}
	return reranker.Rerank(ctx, query, candidates, topK)
}
