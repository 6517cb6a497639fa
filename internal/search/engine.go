package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/standardbeagle/codegraph/internal/apperrors"
	"github.com/standardbeagle/codegraph/internal/graphmodel"
	"github.com/standardbeagle/codegraph/internal/rank"
	"github.com/standardbeagle/codegraph/internal/store"
)

// rankWeight is the "Ranking" component's share of the final score
// (spec.md §2: Ranking 6%), added on top of the RRF fusion total.
const rankWeight = 0.06

// Embedder converts query text into a fixed-length vector. It is an
// external collaborator per spec.md §9: the engine only requires
// "text -> vector" and treats the vector space as opaque. A nil Embedder
// disables the vector-search signal entirely; FTS5 keyword search and
// fusion still function.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Options controls search behaviour (spec.md §4.5).
type Options struct {
	Limit    int
	Language string
	NodeType string
	MinScore float64
}

// defaultOptions returns the spec's documented defaults: {20, any, any, 0}.
func defaultOptions(o Options) Options {
	if o.Limit <= 0 {
		o.Limit = 20
	}
	return o
}

// FileResult aggregates keyword matches at the file level.
type FileResult struct {
	FilePath       string
	MatchedSymbols int
	TopSymbols     []string
	RelevanceScore float64
}

// Engine answers ranked text and semantic queries over a store's node set.
type Engine struct {
	store    *store.Store
	embedder Embedder

	ranksOnce sync.Once
	ranks     map[string]float64
}

// NewEngine constructs a search engine over store, with an optional
// embedder for the vector-similarity signal.
func NewEngine(s *store.Store, embedder Embedder) *Engine {
	return &Engine{store: s, embedder: embedder}
}

const fusionK = 60

// Search executes a hybrid search: FTS5 keyword + vector similarity,
// fused via RRF, blended by detected query intent, and filtered per
// options.
func (e *Engine) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	opts = defaultOptions(opts)
	fetchLimit := opts.Limit * 3

	ftsResults, err := e.searchByKeyword(ctx, query, fetchLimit)
	if err != nil {
		return nil, apperrors.Search("keyword_search", err)
	}
	vecResults := e.searchBySimilarity(ctx, query, fetchLimit)

	var expansionResults []Result
	expansions := expandQuery(query)
	if len(expansions) > 1 {
		expandedQuery := strings.Join(expansions[1:], " OR ")
		safe := sanitizeFTSQuery(expandedQuery)
		if safe != "" {
			expansionResults, _ = e.searchByKeywordRaw(ctx, safe, fetchLimit)
		}
	}

	weights := WeightsFor(DetectIntent(query))
	fused := FuseWeighted(ftsResults, vecResults, expansionResults, fusionK, weights)
	e.applyImpact(ctx, fused)

	if opts.Language != "" || opts.NodeType != "" || opts.MinScore > 0 {
		fused = e.applyFilters(ctx, fused, opts)
	}

	if len(fused) > opts.Limit {
		fused = fused[:opts.Limit]
	}
	return fused, nil
}

// applyImpact blends each result's PageRank-derived impact score
// (internal/rank) into its fused Score and re-sorts, ties broken by node
// id ascending. The graph-wide PageRank pass runs once per Engine and is
// cached, since it does not change between queries against the same
// indexed snapshot.
func (e *Engine) applyImpact(ctx context.Context, results []Result) {
	ranks := e.impactRanks(ctx)
	if len(ranks) == 0 {
		return
	}
	for i := range results {
		results[i].Impact = ranks[results[i].NodeID]
		results[i].Score += rankWeight * results[i].Impact
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].NodeID < results[j].NodeID
	})
}

// impactRanks computes and caches PageRank-based impact scores over the
// full graph (spec.md §2 "Ranking"). Returns an empty map if the pass
// fails, degrading search to fusion-only scoring.
func (e *Engine) impactRanks(ctx context.Context) map[string]float64 {
	e.ranksOnce.Do(func() {
		scores, err := rank.ImpactScores(ctx, e.store)
		if err != nil {
			e.ranks = map[string]float64{}
			return
		}
		e.ranks = make(map[string]float64, len(scores))
		for _, s := range scores {
			e.ranks[s.NodeID] = s.Impact
		}
	})
	return e.ranks
}

func (e *Engine) applyFilters(ctx context.Context, results []Result, opts Options) []Result {
	out := results[:0:0]
	for _, r := range results {
		if opts.NodeType != "" && r.Kind != opts.NodeType {
			continue
		}
		if opts.MinScore > 0 && r.Score < opts.MinScore {
			continue
		}
		if opts.Language != "" {
			n, ok, err := e.store.GetNode(ctx, r.NodeID)
			if err != nil || !ok || n.Language != opts.Language {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// searchByKeyword runs a sanitized FTS5 keyword search against query.
func (e *Engine) searchByKeyword(ctx context.Context, query string, limit int) ([]Result, error) {
	safe := sanitizeFTSQuery(query)
	if safe == "" {
		return nil, nil
	}
	return e.searchByKeywordRaw(ctx, safe, limit)
}

// searchByKeywordRaw runs an already-sanitized FTS5 (or fallback LIKE)
// query and returns up to limit candidates ordered by BM25 rank.
func (e *Engine) searchByKeywordRaw(ctx context.Context, safeQuery string, limit int) ([]Result, error) {
	if e.store.FTSAvailable {
		return e.ftsSearch(ctx, safeQuery, limit)
	}
	return e.likeFallbackSearch(ctx, safeQuery, limit)
}

func (e *Engine) ftsSearch(ctx context.Context, safeQuery string, limit int) ([]Result, error) {
	const query = `
		SELECT n.id, n.name, n.kind, n.file_path, n.signature, n.doc_comment,
		       bm25(fts_nodes, 10.0, 8.0, 5.0, 3.0, 1.0, 7.0) AS rank
		FROM fts_nodes fts
		JOIN nodes n ON n.id = fts.node_id
		WHERE fts_nodes MATCH ?
		ORDER BY rank
		LIMIT ?`
	rows, err := e.store.DB().QueryContext(ctx, query, safeQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("fts search: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var id, name, kind, filePath, signature, docComment string
		var rank float64
		if err := rows.Scan(&id, &name, &kind, &filePath, &signature, &docComment, &rank); err != nil {
			return nil, err
		}
		score := -rank
		out = append(out, Result{
			NodeID:   id,
			Name:     name,
			Kind:     kind,
			FilePath: filePath,
			FTSScore: &score,
			Snippet:  buildSnippet(name, signature, docComment),
		})
	}
	return out, rows.Err()
}

// likeFallbackSearch degrades keyword search to a LIKE scan over the
// plain fts_nodes fallback table when the linked sqlite3 driver was not
// built with FTS5 support.
func (e *Engine) likeFallbackSearch(ctx context.Context, safeQuery string, limit int) ([]Result, error) {
	terms := strings.Fields(strings.ReplaceAll(safeQuery, `"`, ""))
	if len(terms) == 0 {
		return nil, nil
	}

	var clauses []string
	var args []any
	for _, t := range terms {
		clauses = append(clauses, "(name LIKE ? OR name_tokens LIKE ? OR doc_comment LIKE ? OR signature LIKE ?)")
		pattern := "%" + t + "%"
		args = append(args, pattern, pattern, pattern, pattern)
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT n.id, n.name, n.kind, n.file_path, n.signature, n.doc_comment
		FROM %s fts
		JOIN nodes n ON n.id = fts.node_id
		WHERE %s
		LIMIT ?`, "fts_nodes", strings.Join(clauses, " OR "))

	rows, err := e.store.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("like fallback search: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var id, name, kind, filePath, signature, docComment string
		if err := rows.Scan(&id, &name, &kind, &filePath, &signature, &docComment); err != nil {
			return nil, err
		}
		out = append(out, Result{
			NodeID:   id,
			Name:     name,
			Kind:     kind,
			FilePath: filePath,
			Snippet:  buildSnippet(name, signature, docComment),
		})
	}
	return out, rows.Err()
}

// searchBySimilarity embeds query and ranks stored node vectors by cosine
// similarity. Returns nil if no embedder is configured or embedding
// fails — the engine degrades to the keyword-only signal.
func (e *Engine) searchBySimilarity(ctx context.Context, query string, limit int) []Result {
	if e.embedder == nil {
		return nil
	}
	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil || len(queryVec) == 0 {
		return nil
	}

	vectors, err := e.store.AllEmbeddings(ctx)
	if err != nil || len(vectors) == 0 {
		return nil
	}

	type scored struct {
		nodeID string
		sim    float64
	}
	var ranked []scored
	for nodeID, vec := range vectors {
		ranked = append(ranked, scored{nodeID, store.CosineSimilarity(queryVec, vec)})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].sim > ranked[j].sim })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	var out []Result
	for _, r := range ranked {
		n, ok, err := e.store.GetNode(ctx, r.nodeID)
		if err != nil || !ok {
			continue
		}
		sim := r.sim
		out = append(out, Result{
			NodeID:   n.ID,
			Name:     n.Name,
			Kind:     string(n.Kind),
			FilePath: n.FilePath,
			VecScore: &sim,
			Snippet:  n.Name,
		})
	}
	return out
}

// SearchFiles groups FTS5 keyword matches by file, aggregates BM25
// scores, and returns the top limit files by total relevance, per
// graph/search.rs::search_files.
func (e *Engine) SearchFiles(ctx context.Context, query string, limit int) ([]FileResult, error) {
	safe := sanitizeFTSQuery(query)
	if safe == "" {
		return nil, nil
	}
	fetchLimit := limit * 10

	results, err := e.searchByKeywordRaw(ctx, safe, fetchLimit)
	if err != nil {
		return nil, apperrors.Search("search_files", err)
	}

	type accum struct {
		count   int
		symbols []struct {
			name  string
			score float64
		}
		total float64
	}
	byFile := make(map[string]*accum)
	for _, r := range results {
		score := 0.0
		if r.FTSScore != nil {
			score = *r.FTSScore
		}
		a, ok := byFile[r.FilePath]
		if !ok {
			a = &accum{}
			byFile[r.FilePath] = a
		}
		a.count++
		a.symbols = append(a.symbols, struct {
			name  string
			score float64
		}{r.Name, score})
		a.total += score
	}

	var out []FileResult
	for filePath, a := range byFile {
		sort.Slice(a.symbols, func(i, j int) bool { return a.symbols[i].score > a.symbols[j].score })
		top := make([]string, 0, 5)
		for i, s := range a.symbols {
			if i >= 5 {
				break
			}
			top = append(top, s.name)
		}
		out = append(out, FileResult{
			FilePath:       filePath,
			MatchedSymbols: a.count,
			TopSymbols:     top,
			RelevanceScore: a.total,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RelevanceScore > out[j].RelevanceScore })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// sanitizeFTSQuery strips FTS5 operator characters from each token and
// quotes the token for exact matching, joining with OR for broad recall.
func sanitizeFTSQuery(query string) string {
	var tokens []string
	for _, tok := range strings.Fields(query) {
		clean := strings.Map(func(r rune) rune {
			switch r {
			case '*', '"', '(', ')', '{', '}', '[', ']', '^', '~', ':':
				return -1
			}
			return r
		}, tok)
		if clean == "" {
			continue
		}
		tokens = append(tokens, `"`+clean+`"`)
	}
	return strings.Join(tokens, " OR ")
}

// buildSnippet derives a short display snippet from a node's name,
// signature, and doc comment: first line of documentation, else a
// compacted signature truncated at 120 characters, else the bare name.
func buildSnippet(name, signature, docComment string) string {
	if docComment != "" {
		if firstLine := strings.TrimSpace(strings.SplitN(docComment, "\n", 2)[0]); firstLine != "" {
			return firstLine
		}
	}
	if signature != "" {
		truncated := signature
		overflow := len(truncated) > 120
		if overflow {
			truncated = truncated[:120]
		}
		compacted := strings.Join(strings.Fields(truncated), " ")
		if overflow {
			return compacted + "..."
		}
		return compacted
	}
	return name
}

// expandQuery generates alternative search terms for query: the query
// itself, plus each camelCase/snake_case word segment (spec.md §4.5's
// "expanded-term search" signal). No external thesaurus is assumed to be
// available, so expansion is purely morphological.
func expandQuery(query string) []string {
	terms := []string{query}
	seen := map[string]bool{strings.ToLower(query): true}
	for _, word := range strings.Fields(query) {
		for _, seg := range graphmodel.SplitIdentifier(word) {
			if seg == "" || seen[seg] {
				continue
			}
			seen[seg] = true
			terms = append(terms, seg)
		}
	}
	return terms
}
