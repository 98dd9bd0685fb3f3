package analytics

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"insightminer/domain/dataset"
	"insightminer/ports"
)

// clusterRole partitions the fields of one role into connected components of
// the graph whose edges join fields with |association| >= threshold.
// Components list keys in graph order and are ordered by their first key.
func clusterRole(g *dataset.CorrelationGraph, role dataset.FieldRole, threshold float64) []ports.FieldCluster {
	keys := g.Keys(role)
	ug := simple.NewUndirectedGraph()
	for i := range keys {
		ug.AddNode(simple.Node(i))
	}
	for i := range keys {
		for j := i + 1; j < len(keys); j++ {
			if g.Strength(role, i, j) >= threshold {
				ug.SetEdge(ug.NewEdge(simple.Node(i), simple.Node(j)))
			}
		}
	}

	components := topo.ConnectedComponents(ug)
	indexed := make([][]int, 0, len(components))
	for _, comp := range components {
		ids := make([]int, len(comp))
		for i, n := range comp {
			ids[i] = int(n.ID())
		}
		sort.Ints(ids)
		indexed = append(indexed, ids)
	}
	sort.Slice(indexed, func(a, b int) bool { return indexed[a][0] < indexed[b][0] })

	out := make([]ports.FieldCluster, len(indexed))
	for i, ids := range indexed {
		members := make([]string, len(ids))
		for j, id := range ids {
			members[j] = keys[id]
		}
		out[i] = ports.FieldCluster{Role: role, Keys: members}
	}
	return out
}
