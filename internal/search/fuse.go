package search

import "sort"

// Result is a single search hit with composite RRF scoring (spec.md §4.5).
type Result struct {
	NodeID   string
	Name     string
	Kind     string
	FilePath string
	Score    float64
	FTSScore *float64
	VecScore *float64
	Impact   float64
	Snippet  string
}

// fuseEntry tracks one node's accumulated RRF total alongside the best
// Result seen for it so far.
type fuseEntry struct {
	result Result
	total  float64
}

// FuseWeighted merges ftsResults, vecResults, and expansionResults (FTS
// hits from query-expansion terms, scored at half the FTS weight) using
// Reciprocal Rank Fusion with a top-rank bonus, per
// graph/search.rs::fuse_results_weighted.
func FuseWeighted(ftsResults, vecResults, expansionResults []Result, k int, weights BlendWeights) []Result {
	kf := float64(k)
	byID := make(map[string]*fuseEntry)

	accumulate := func(results []Result, weight float64, isFTS bool) {
		for rank, r := range results {
			rrf := weight / (kf + float64(rank) + 1.0)
			entry, ok := byID[r.NodeID]
			if !ok {
				copy := r
				byID[r.NodeID] = &fuseEntry{result: copy, total: rrf}
				continue
			}
			entry.total += rrf
			if isFTS {
				entry.result.FTSScore = r.FTSScore
			} else {
				entry.result.VecScore = r.VecScore
			}
		}
	}

	accumulate(ftsResults, weights.FTSWeight, true)
	accumulate(vecResults, weights.VecWeight, false)
	accumulate(expansionResults, weights.FTSWeight*0.5, true)

	bonus := func(results []Result) {
		for rank, r := range results {
			entry, ok := byID[r.NodeID]
			if !ok {
				continue
			}
			switch rank {
			case 0:
				entry.total += 0.05
			case 1, 2:
				entry.total += 0.02
			}
		}
	}
	bonus(ftsResults)
	bonus(vecResults)

	fused := make([]Result, 0, len(byID))
	for _, entry := range byID {
		entry.result.Score = entry.total
		fused = append(fused, entry.result)
	}
	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].NodeID < fused[j].NodeID
	})
	return fused
}
