// Package insight defines the explained candidate views produced per explain call.
package insight

import (
	"sort"

	"insightminer/domain/dataset"
	"insightminer/domain/predicate"
)

// StrategyType tags which strategy produced an insight space.
type StrategyType string

const (
	SelectionDimensionDistribution StrategyType = "selection_dim_distribution"
	SelectionMeasureDistribution   StrategyType = "selection_mea_distribution"
	ChildrenMajorFactor            StrategyType = "children_major_factor"
	ChildrenOutlier                StrategyType = "children_outlier"
)

// Title is a short human label for a strategy type.
func (s StrategyType) Title() string {
	switch s {
	case SelectionDimensionDistribution:
		return "Selection shifts dimension distribution"
	case SelectionMeasureDistribution:
		return "Correlated measure diverges"
	case ChildrenMajorFactor:
		return "Major factor"
	case ChildrenOutlier:
		return "Outlier"
	}
	return string(s)
}

// Evidence is the strategy-specific detail needed to reconstruct an explanation.
type Evidence struct {
	// ChildKey is the chosen group value of the extension dimension (children strategies).
	ChildKey      *dataset.Value `json:"childKey,omitempty"`
	RawScore      float64        `json:"rawScore"`
	MaxDivergence *float64       `json:"maxDivergence,omitempty"`
	MinDivergence *float64       `json:"minDivergence,omitempty"`
	Op            string         `json:"op,omitempty"`
}

// Space is one ranked candidate explanation. It is never mutated after creation.
type Space struct {
	BaseDimensions   []string              `json:"dimensions"`
	BaseMeasures     []dataset.MeasureRef  `json:"measures"`
	ExtendDimensions []string              `json:"extendDimensions"`
	ExtendMeasures   []dataset.MeasureRef  `json:"extendMeasures"`
	Type             StrategyType          `json:"type"`
	Score            float64               `json:"score"`
	Description      Evidence              `json:"description"`
	Predicates       []predicate.Predicate `json:"predicates"`
}

// Dimensions returns base and extension dimensions combined.
func (s Space) Dimensions() []string {
	return dataset.UnionKeys(s.BaseDimensions, s.ExtendDimensions...)
}

// Measures returns base and extension measures combined.
func (s Space) Measures() []dataset.MeasureRef {
	out := make([]dataset.MeasureRef, 0, len(s.BaseMeasures)+len(s.ExtendMeasures))
	seen := make(map[dataset.MeasureRef]bool)
	for _, m := range append(append([]dataset.MeasureRef{}, s.BaseMeasures...), s.ExtendMeasures...) {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// SortByScore orders spaces descending by score, stable across ties.
func SortByScore(spaces []Space) {
	sort.SliceStable(spaces, func(i, j int) bool {
		return spaces[i].Score > spaces[j].Score
	})
}
