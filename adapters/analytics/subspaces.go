package analytics

import (
	"insightminer/ports"
)

// maxSubspaces bounds enumeration on wide datasets.
const maxSubspaces = 512

// combinations returns every non-empty subset of keys with at most limit members,
// smaller subsets first, members in input order.
func combinations(keys []string, limit int) [][]string {
	if limit > len(keys) {
		limit = len(keys)
	}
	var out [][]string
	var walk func(start int, cur []string, size int)
	walk = func(start int, cur []string, size int) {
		if len(cur) == size {
			out = append(out, append([]string(nil), cur...))
			return
		}
		for i := start; i < len(keys); i++ {
			walk(i+1, append(cur, keys[i]), size)
		}
	}
	for size := 1; size <= limit; size++ {
		walk(0, nil, size)
	}
	return out
}

// enumerateSubspaces crosses dimension combinations drawn from each dimension
// cluster with measure combinations drawn from each measure cluster. The
// second result reports whether the list was truncated.
func enumerateSubspaces(dimClusters, meaClusters []ports.FieldCluster, maxDimensions, maxMeasures int) ([]ports.Subspace, bool) {
	var dimSets, meaSets [][]string
	for _, c := range dimClusters {
		dimSets = append(dimSets, combinations(c.Keys, maxDimensions)...)
	}
	for _, c := range meaClusters {
		meaSets = append(meaSets, combinations(c.Keys, maxMeasures)...)
	}

	var out []ports.Subspace
	for _, d := range dimSets {
		for _, m := range meaSets {
			if len(out) == maxSubspaces {
				return out, true
			}
			out = append(out, ports.Subspace{Dimensions: d, Measures: m})
		}
	}
	return out, false
}
