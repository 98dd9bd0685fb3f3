package explain

import (
	"context"
	"math"
	"sort"

	"insightminer/domain/dataset"
	"insightminer/domain/predicate"
	"insightminer/internal/distribution"
)

// Candidate is one scored result of a strategy, before it becomes an insight space.
type Candidate struct {
	// Dimensions are the extension dimensions (one per children or selection candidate).
	Dimensions []string `json:"dimensions,omitempty"`
	// Measures are the extension measures of a correlated-measure candidate.
	Measures []dataset.MeasureRef `json:"measures,omitempty"`
	// ChildKey is the chosen group of the extension dimension.
	ChildKey      *dataset.Value `json:"key,omitempty"`
	Score         float64        `json:"score"`
	MaxDivergence *float64       `json:"max,omitempty"`
	MinDivergence *float64       `json:"min,omitempty"`
}

// ChildrenResult holds the two children strategies. MajorList is ascending by
// score, OutlierList descending.
type ChildrenResult struct {
	MajorList   []Candidate `json:"majorList"`
	OutlierList []Candidate `json:"outlierList"`
}

// ExplainByChildren finds, for each neighbor dimension of dimensions, the child
// group that best reconstructs the unfiltered parent distribution (major
// factor) and the one that deviates most from it (outlier).
func (e *Explainer) ExplainByChildren(ctx context.Context, preds []predicate.Predicate, dimensions []string, measures []dataset.MeasureRef, k int) (ChildrenResult, error) {
	if err := predicate.ValidateAll(preds); err != nil {
		return ChildrenResult{}, err
	}
	var t tally
	res, err := e.explainByChildren(ctx, preds, dimensions, measures, k, &t)
	if err != nil {
		return ChildrenResult{}, err
	}
	return res, t.err()
}

// ExplainBySelection ranks neighbor dimensions by how much the selection
// reshapes their distribution relative to the unconditional one.
func (e *Explainer) ExplainBySelection(ctx context.Context, preds []predicate.Predicate, dimensions []string, measures []dataset.MeasureRef, k int) ([]Candidate, error) {
	if err := predicate.ValidateAll(preds); err != nil {
		return nil, err
	}
	var t tally
	res, err := e.explainBySelection(ctx, preds, dimensions, measures, k, &t)
	if err != nil {
		return nil, err
	}
	return res, t.err()
}

// ExplainByCorMeasures ranks neighbor measures, each under every aggregation
// operator, by how strongly they align with or oppose the view's measures.
func (e *Explainer) ExplainByCorMeasures(ctx context.Context, preds []predicate.Predicate, dimensions []string, measures []dataset.MeasureRef, k int) ([]Candidate, error) {
	if err := predicate.ValidateAll(preds); err != nil {
		return nil, err
	}
	var t tally
	res, err := e.explainByCorMeasures(ctx, preds, dimensions, measures, k, &t)
	if err != nil {
		return nil, err
	}
	return res, t.err()
}

type childGroup struct {
	value dataset.Value
	rows  []dataset.Row
}

// groupBy splits rows by the value under key, in first-seen order.
func groupBy(rows []dataset.Row, key string) []childGroup {
	index := make(map[string]int)
	var groups []childGroup
	for _, r := range rows {
		v := r.Get(key)
		gk := v.GroupKey()
		i, ok := index[gk]
		if !ok {
			i = len(groups)
			index[gk] = i
			groups = append(groups, childGroup{value: v})
		}
		groups[i].rows = append(groups[i].rows, r)
	}
	return groups
}

func (e *Explainer) explainByChildren(ctx context.Context, preds []predicate.Predicate, dimensions []string, measures []dataset.MeasureRef, k int, t *tally) (ChildrenResult, error) {
	res := ChildrenResult{MajorList: []Candidate{}, OutlierList: []Candidate{}}
	if len(measures) == 0 {
		return res, nil
	}
	keys := dataset.CellKeys(measures)

	parent, err := e.rows(dimensions, measures, t)
	if err != nil {
		return res, nil
	}

	for _, ext := range e.selector.Select(dataset.RoleDimension, dimensions, k, e.opts.SelectorThreshold) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		child, err := e.rows(dataset.UnionKeys(dimensions, ext), measures, t)
		if err != nil {
			continue
		}
		groups := groupBy(predicate.Filter(child, preds), ext)
		if len(groups) == 0 {
			e.logger.Debug("children of %s: no rows left after filtering", ext)
			continue
		}

		majorIdx, majorScore := -1, math.Inf(1)
		outlierIdx, outlierScore := -1, math.Inf(-1)
		for i, g := range groups {
			synced, normParent := distribution.NormalizeWithParent(g.rows, parent, keys, true)
			if d := distribution.Deviation(normParent, synced, dimensions, keys); d < majorScore {
				majorIdx, majorScore = i, d
			}
			own, normParent := distribution.NormalizeWithParent(g.rows, parent, keys, false)
			if d := distribution.Deviation(normParent, own, dimensions, keys); d > outlierScore {
				outlierIdx, outlierScore = i, d
			}
		}

		majorKey := groups[majorIdx].value
		res.MajorList = append(res.MajorList, Candidate{
			Dimensions: []string{ext},
			ChildKey:   &majorKey,
			Score:      majorScore,
		})
		outlierKey := groups[outlierIdx].value
		res.OutlierList = append(res.OutlierList, Candidate{
			Dimensions: []string{ext},
			ChildKey:   &outlierKey,
			Score:      outlierScore,
		})
	}

	sort.SliceStable(res.MajorList, func(i, j int) bool { return res.MajorList[i].Score < res.MajorList[j].Score })
	sort.SliceStable(res.OutlierList, func(i, j int) bool { return res.OutlierList[i].Score > res.OutlierList[j].Score })
	return res, nil
}

func (e *Explainer) explainBySelection(ctx context.Context, preds []predicate.Predicate, dimensions []string, measures []dataset.MeasureRef, k int, t *tally) ([]Candidate, error) {
	out := []Candidate{}
	if len(measures) == 0 {
		return out, nil
	}
	keys := dataset.CellKeys(measures)

	for _, ext := range e.selector.Select(dataset.RoleDimension, dimensions, k, e.opts.SelectorThreshold) {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		parent, err := e.rows([]string{ext}, measures, t)
		if err != nil {
			continue
		}
		child, err := e.rows(dataset.UnionKeys(dimensions, ext), measures, t)
		if err != nil {
			continue
		}
		child = predicate.Filter(child, preds)
		if len(child) == 0 {
			e.logger.Debug("selection over %s: no rows left after filtering", ext)
			continue
		}

		normChild, normParent := distribution.NormalizeWithParent(child, parent, keys, false)
		score := distribution.Compare(normChild, normParent, []string{ext}, keys) / float64(2*len(keys))
		out = append(out, Candidate{Dimensions: []string{ext}, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (e *Explainer) explainByCorMeasures(ctx context.Context, preds []predicate.Predicate, dimensions []string, measures []dataset.MeasureRef, k int, t *tally) ([]Candidate, error) {
	out := []Candidate{}
	if len(measures) == 0 {
		return out, nil
	}
	// each base measure is re-aggregated under the candidate's operator
	baseKeys := dataset.UnionKeys(nil, dataset.MeasureKeys(measures)...)

	for _, cand := range e.selector.Select(dataset.RoleMeasure, baseKeys, k, e.opts.SelectorThreshold) {
		for _, op := range dataset.AllOps {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			refs := make([]dataset.MeasureRef, 0, len(baseKeys)+1)
			for _, key := range baseKeys {
				refs = append(refs, dataset.MeasureRef{Key: key, Op: op})
			}
			refs = append(refs, dataset.MeasureRef{Key: cand, Op: op})

			rows, err := e.rows(dimensions, refs, t)
			if err != nil {
				continue
			}
			rows = predicate.Filter(rows, preds)
			if len(rows) == 0 {
				continue
			}
			norm := distribution.NormalizeRelative(rows, append(append([]string{}, baseKeys...), cand))

			maxDiv, minDiv := math.Inf(-1), math.Inf(1)
			for _, base := range baseKeys {
				var d float64
				for _, r := range norm {
					d += math.Abs(r.Get(base).FloatOrZero() - r.Get(cand).FloatOrZero())
				}
				d /= 2
				maxDiv = math.Max(maxDiv, d)
				minDiv = math.Min(minDiv, d)
			}

			out = append(out, Candidate{
				Measures:      []dataset.MeasureRef{{Key: cand, Op: op}},
				Score:         math.Max(1-minDiv, maxDiv),
				MaxDivergence: &maxDiv,
				MinDivergence: &minDiv,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}
