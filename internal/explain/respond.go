package explain

import (
	"context"

	"insightminer/domain/dataset"
	"insightminer/domain/insight"
	"insightminer/domain/predicate"
)

// Query is the current view plus the selection signal of one explain call.
type Query struct {
	Dimensions []string
	Measures   []dataset.MeasureRef
	Filters    map[string][]dataset.Value
}

// QueryFromRequest resolves the current space of a request. View measures take
// the operator declared for them in the request, sum otherwise.
func QueryFromRequest(req insight.ExplainRequest) Query {
	ops := make(map[string]dataset.AggregationOp, len(req.Measures))
	for _, m := range req.Measures {
		ops[m.Key] = m.Op
	}
	measures := make([]dataset.MeasureRef, 0, len(req.CurrentSpace.Measures))
	for _, key := range req.CurrentSpace.Measures {
		op, ok := ops[key]
		if !ok || op == "" {
			op = dataset.OpSum
		}
		measures = append(measures, dataset.MeasureRef{Key: key, Op: op})
	}
	return Query{
		Dimensions: append([]string{}, req.CurrentSpace.Dimensions...),
		Measures:   measures,
		Filters:    req.Filters,
	}
}

// Respond turns the query's filters into predicates over the view's
// dimensions, explains, and packages spaces, their visual mappings and the
// field semantic types.
func (e *Explainer) Respond(ctx context.Context, q Query) (insight.ExplainResponse, error) {
	preds, ignored := predicate.FromFilters(q.Filters, q.Dimensions, nil)
	if len(ignored) > 0 {
		e.logger.Debug("filters on %v ignored: not dimensions of the current view", ignored)
	}

	spaces, err := e.Explain(ctx, preds, q.Dimensions, q.Measures)
	if err != nil {
		return insight.EmptyResponse(), err
	}

	resp := insight.EmptyResponse()
	resp.Explanations = spaces
	resp.VisualizableSpaces = e.VisualizeAll(spaces)
	for _, f := range e.fields {
		resp.FieldSemanticTypes = append(resp.FieldSemanticTypes, dataset.FieldType{Key: f.Key, Type: f.SemanticType})
	}
	return resp, nil
}
