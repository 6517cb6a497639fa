// Package rank implements PageRank-based importance scoring over the
// code graph (SPEC_FULL.md §3 "Supplemented features"): a power-iteration
// PageRank pass plus an impact score that blends PageRank with raw
// in-degree, used to annotate search results and dead-code findings.
//
// There is no original_source file for this — graph/mod.rs references a
// "ranking" module that was not included in the retrieval pack — so the
// algorithm follows the textbook power-iteration formulation instead of
// a ported file, at the parameters SPEC_FULL.md calls out: damping 0.85,
// up to 100 iterations, convergence threshold 1e-6.
package rank

import (
	"context"
	"sort"

	"github.com/standardbeagle/codegraph/internal/apperrors"
	"github.com/standardbeagle/codegraph/internal/store"
)

const (
	defaultDamping       = 0.85
	maxIterations        = 100
	convergenceThreshold = 1e-6
)

// Score is one node's computed importance.
type Score struct {
	NodeID   string
	PageRank float64
	InDegree int
	Impact   float64
}

// PageRank computes the PageRank of every node in the store's graph over
// all edge kinds, using damping as the teleport-avoidance factor (0.85
// when damping <= 0). Iterates until the L1 change between successive
// ranks drops below 1e-6, or maxIterations (100) is reached.
func PageRank(ctx context.Context, s *store.Store, damping float64) (map[string]float64, error) {
	if damping <= 0 {
		damping = defaultDamping
	}

	nodes, err := s.GetAllNodes(ctx)
	if err != nil {
		return nil, apperrors.Storage("pagerank_nodes", err)
	}
	edges, err := s.GetAllEdges(ctx)
	if err != nil {
		return nil, apperrors.Storage("pagerank_edges", err)
	}

	n := len(nodes)
	if n == 0 {
		return map[string]float64{}, nil
	}

	ids := make([]string, n)
	idxOf := make(map[string]int, n)
	for i, node := range nodes {
		ids[i] = node.ID
		idxOf[node.ID] = i
	}

	outLinks := make([][]int, n)
	outDegree := make([]int, n)
	inDegree := make([]int, n)
	for _, e := range edges {
		src, ok := idxOf[e.SourceID]
		if !ok {
			continue
		}
		dst, ok := idxOf[e.TargetID]
		if !ok {
			continue
		}
		outLinks[src] = append(outLinks[src], dst)
		outDegree[src]++
		inDegree[dst]++
	}

	rank := make([]float64, n)
	initial := 1.0 / float64(n)
	for i := range rank {
		rank[i] = initial
	}

	base := (1 - damping) / float64(n)

	for iter := 0; iter < maxIterations; iter++ {
		next := make([]float64, n)
		for i := range next {
			next[i] = base
		}

		// Dangling nodes (no outgoing edges) redistribute their rank
		// uniformly, the standard PageRank fix for sinks.
		var danglingMass float64
		for i, deg := range outDegree {
			if deg == 0 {
				danglingMass += rank[i]
			}
		}
		danglingShare := damping * danglingMass / float64(n)
		for i := range next {
			next[i] += danglingShare
		}

		for src, targets := range outLinks {
			if len(targets) == 0 {
				continue
			}
			share := damping * rank[src] / float64(len(targets))
			for _, dst := range targets {
				next[dst] += share
			}
		}

		var delta float64
		for i := range rank {
			diff := next[i] - rank[i]
			if diff < 0 {
				diff = -diff
			}
			delta += diff
		}
		rank = next
		if delta < convergenceThreshold {
			break
		}
	}

	out := make(map[string]float64, n)
	for i, id := range ids {
		out[id] = rank[i]
	}
	return out, nil
}

// ImpactScores computes PageRank and blends it with raw in-degree into a
// single Impact figure per node, sorted descending by Impact. Weighting
// PageRank at 0.7 and normalized in-degree at 0.3 favors the recursive
// "important things point to me" signal while still rewarding raw
// fan-in for newly-added nodes PageRank hasn't equilibrated around yet.
func ImpactScores(ctx context.Context, s *store.Store) ([]Score, error) {
	ranks, err := PageRank(ctx, s, defaultDamping)
	if err != nil {
		return nil, err
	}

	edges, err := s.GetAllEdges(ctx)
	if err != nil {
		return nil, apperrors.Storage("impact_scores_edges", err)
	}
	inDegree := make(map[string]int)
	maxIn := 0
	for _, e := range edges {
		inDegree[e.TargetID]++
		if inDegree[e.TargetID] > maxIn {
			maxIn = inDegree[e.TargetID]
		}
	}

	out := make([]Score, 0, len(ranks))
	for id, pr := range ranks {
		normalizedIn := 0.0
		if maxIn > 0 {
			normalizedIn = float64(inDegree[id]) / float64(maxIn)
		}
		out = append(out, Score{
			NodeID:   id,
			PageRank: pr,
			InDegree: inDegree[id],
			Impact:   0.7*pr + 0.3*normalizedIn,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Impact != out[j].Impact {
			return out[i].Impact > out[j].Impact
		}
		return out[i].NodeID < out[j].NodeID
	})
	return out, nil
}
