// Package neighbors picks candidate extension fields from the correlation graph.
package neighbors

import (
	"sort"
	"strings"

	"insightminer/domain/dataset"
	"insightminer/internal"
)

// GroupSuffix qualifies derived fields produced by grouping a base field.
const GroupSuffix = "(group)"

// Selector ranks fields of one graph by association to a seed set.
type Selector struct {
	graph       *dataset.CorrelationGraph
	cardinality map[string]int
	logger      *internal.Logger
}

// NewSelector creates a selector over graph. Field cardinalities dampen
// high-cardinality candidates; fields absent from fields have unknown cardinality.
func NewSelector(graph *dataset.CorrelationGraph, fields []dataset.Field, logger *internal.Logger) *Selector {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	card := make(map[string]int, len(fields))
	for _, f := range fields {
		if f.Cardinality > 0 {
			card[f.Key] = f.Cardinality
		}
	}
	return &Selector{graph: graph, cardinality: card, logger: logger}
}

type candidate struct {
	key      string
	index    int
	strength float64
	score    float64
	known    bool
}

// Select returns up to k keys of role, excluding seeds, ranked by
// strength/cardinality descending where strength is the strongest absolute
// association to any seed. Candidates below threshold are dropped first.
// Fields of unknown cardinality rank after all others. An empty seed list
// falls back to CenterFields.
func (s *Selector) Select(role dataset.FieldRole, seeds []string, k int, threshold float64) []string {
	if k <= 0 || s.graph == nil {
		return nil
	}
	if len(seeds) == 0 {
		return s.CenterFields(role, k)
	}

	excluded := make(map[int]bool, len(seeds))
	var seedIdx []int
	for _, seed := range seeds {
		idx := s.resolve(role, seed)
		if idx < 0 {
			s.logger.Debug("seed %q not in %s graph, no neighbors from it", seed, role)
			continue
		}
		excluded[idx] = true
		seedIdx = append(seedIdx, idx)
	}
	if len(seedIdx) == 0 {
		return nil
	}

	var cands []candidate
	for i, key := range s.graph.Keys(role) {
		if excluded[i] || isSeedKey(key, seeds) {
			continue
		}
		var strength float64
		for _, si := range seedIdx {
			if v := s.graph.Strength(role, si, i); v > strength {
				strength = v
			}
		}
		if strength < threshold {
			continue
		}
		c := candidate{key: key, index: i, strength: strength}
		if n, ok := s.cardinality[key]; ok {
			c.known = true
			c.score = strength / float64(n)
		}
		cands = append(cands, c)
	}

	sort.SliceStable(cands, func(a, b int) bool {
		ca, cb := cands[a], cands[b]
		if ca.known != cb.known {
			return ca.known
		}
		if ca.known && ca.score != cb.score {
			return ca.score > cb.score
		}
		if ca.strength != cb.strength {
			return ca.strength > cb.strength
		}
		return ca.index < cb.index
	})

	return topKeys(cands, k)
}

// CenterFields ranks fields of role by their summed absolute association to
// every other field and returns the top k.
func (s *Selector) CenterFields(role dataset.FieldRole, k int) []string {
	if k <= 0 || s.graph == nil {
		return nil
	}
	keys := s.graph.Keys(role)
	cands := make([]candidate, len(keys))
	for i, key := range keys {
		var sum float64
		for j := range keys {
			if i != j {
				sum += s.graph.Strength(role, i, j)
			}
		}
		cands[i] = candidate{key: key, index: i, strength: sum}
	}
	sort.SliceStable(cands, func(a, b int) bool {
		if cands[a].strength != cands[b].strength {
			return cands[a].strength > cands[b].strength
		}
		return cands[a].index < cands[b].index
	})
	return topKeys(cands, k)
}

// resolve finds key in the graph, trying the group-qualified form and then
// the unqualified form before giving up.
func (s *Selector) resolve(role dataset.FieldRole, key string) int {
	if idx := s.graph.IndexOf(role, key); idx >= 0 {
		return idx
	}
	if idx := s.graph.IndexOf(role, key+GroupSuffix); idx >= 0 {
		return idx
	}
	if base, ok := strings.CutSuffix(key, GroupSuffix); ok {
		return s.graph.IndexOf(role, base)
	}
	return -1
}

func isSeedKey(key string, seeds []string) bool {
	for _, s := range seeds {
		if s == key {
			return true
		}
	}
	return false
}

func topKeys(cands []candidate, k int) []string {
	if len(cands) > k {
		cands = cands[:k]
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.key
	}
	return out
}
