package explain

import (
	"context"
	"fmt"

	"insightminer/domain/dataset"
	"insightminer/domain/insight"
	"insightminer/domain/predicate"
)

// Explain runs every applicable strategy and returns the insight spaces whose
// significance reaches the configured threshold.
//
// The selection strategies run only when the view has dimensions and the
// selection has predicates. The children strategies always run, without
// predicates. Output keeps strategy order (selection dimensions, selection
// measures, major factors, outliers) and each strategy's internal order; use
// insight.SortByScore for a single global ranking.
//
// Per-candidate failures are skipped. The call fails only on a malformed
// predicate, when the context is done or when no cuboid at all could be
// retrieved.
func (e *Explainer) Explain(ctx context.Context, preds []predicate.Predicate, dimensions []string, measures []dataset.MeasureRef) ([]insight.Space, error) {
	if err := predicate.ValidateAll(preds); err != nil {
		return nil, err
	}
	var t tally
	spaces := []insight.Space{}
	k := e.opts.K

	if len(dimensions) > 0 && len(preds) > 0 {
		sel, err := e.explainBySelection(ctx, preds, dimensions, measures, k, &t)
		if err != nil {
			return nil, fmt.Errorf("selection strategy: %w", err)
		}
		for _, c := range sel {
			spaces = append(spaces, e.space(insight.SelectionDimensionDistribution, c, c.Score, preds, dimensions, measures))
		}

		cor, err := e.explainByCorMeasures(ctx, preds, dimensions, measures, k, &t)
		if err != nil {
			return nil, fmt.Errorf("correlated measure strategy: %w", err)
		}
		for _, c := range cor {
			spaces = append(spaces, e.space(insight.SelectionMeasureDistribution, c, c.Score, preds, dimensions, measures))
		}
	}

	children, err := e.explainByChildren(ctx, nil, dimensions, measures, k, &t)
	if err != nil {
		return nil, fmt.Errorf("children strategy: %w", err)
	}
	scale := float64(2 * len(measures))
	for _, c := range children.MajorList {
		spaces = append(spaces, e.space(insight.ChildrenMajorFactor, c, 1-c.Score/scale, nil, dimensions, measures))
	}
	for _, c := range children.OutlierList {
		spaces = append(spaces, e.space(insight.ChildrenOutlier, c, c.Score/scale, nil, dimensions, measures))
	}

	if err := t.err(); err != nil {
		return nil, err
	}

	kept := spaces[:0]
	for _, s := range spaces {
		if s.Score >= e.opts.Threshold {
			kept = append(kept, s)
		}
	}
	e.logger.Debug("explain produced %d spaces, %d above threshold %.2f", len(spaces), len(kept), e.opts.Threshold)
	return kept, nil
}

// space builds an insight space from a strategy candidate. significance is
// the comparable score; the raw strategy score stays in the evidence.
func (e *Explainer) space(kind insight.StrategyType, c Candidate, significance float64, preds []predicate.Predicate, dimensions []string, measures []dataset.MeasureRef) insight.Space {
	if preds == nil {
		preds = []predicate.Predicate{}
	}
	s := insight.Space{
		BaseDimensions:   append([]string{}, dimensions...),
		BaseMeasures:     append([]dataset.MeasureRef{}, measures...),
		ExtendDimensions: append([]string{}, c.Dimensions...),
		ExtendMeasures:   append([]dataset.MeasureRef{}, c.Measures...),
		Type:             kind,
		Score:            significance,
		Description: insight.Evidence{
			ChildKey:      c.ChildKey,
			RawScore:      c.Score,
			MaxDivergence: c.MaxDivergence,
			MinDivergence: c.MinDivergence,
		},
		Predicates: append([]predicate.Predicate{}, preds...),
	}
	if len(c.Measures) == 1 {
		s.Description.Op = string(c.Measures[0].Op)
	}
	return s
}
