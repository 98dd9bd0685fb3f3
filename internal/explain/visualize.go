package explain

import (
	"insightminer/domain/dataset"
	"insightminer/domain/insight"
	"insightminer/domain/predicate"
)

// Geom types understood by renderers.
const (
	GeomInterval = "interval"
	GeomLine     = "line"
	GeomPoint    = "point"
)

// Schema assigns the fields of a view to visual channels: the first dimension
// and first measure take position, the second dimension color, further
// dimensions facets, and a second measure size. A temporal leading dimension
// draws lines, a view without dimensions draws points, anything else bars.
func (e *Explainer) Schema(dimensions []string, measures []dataset.MeasureRef) insight.Schema {
	meaKeys := dataset.CellKeys(measures)
	var s insight.Schema
	if len(dimensions) == 0 {
		s.Position = append([]string{}, firstN(meaKeys, 2)...)
		if len(meaKeys) > 2 {
			s.Size = []string{meaKeys[2]}
		}
		s.GeomType = GeomPoint
		return s
	}

	s.Position = []string{dimensions[0]}
	if len(meaKeys) > 0 {
		s.Position = append(s.Position, meaKeys[0])
	}
	if len(dimensions) > 1 {
		s.Color = []string{dimensions[1]}
	}
	if len(dimensions) > 2 {
		s.Facets = append([]string{}, dimensions[2:]...)
	}
	if len(meaKeys) > 1 {
		s.Size = []string{meaKeys[1]}
	}

	s.GeomType = GeomInterval
	if e.semanticType(dimensions[0]) == dataset.SemanticTemporal {
		s.GeomType = GeomLine
	}
	return s
}

// Visualize maps an insight space onto its schema and the aggregated rows to
// draw. Selection spaces keep only rows matching the predicates on the view's
// dimensions.
func (e *Explainer) Visualize(s insight.Space) (insight.VisualizableSpace, error) {
	dims := s.Dimensions()
	measures := s.Measures()
	vs := insight.VisualizableSpace{Schema: e.Schema(dims, measures), DataView: []dataset.Row{}}

	var t tally
	rows, err := e.rows(dims, measures, &t)
	if err != nil {
		return vs, err
	}
	if s.Type == insight.SelectionDimensionDistribution || s.Type == insight.SelectionMeasureDistribution {
		rows = predicate.Filter(rows, applicable(s.Predicates, dims))
	}
	vs.DataView = rows
	return vs, nil
}

// VisualizeAll maps every space, index for index. A space whose rows cannot
// be retrieved keeps its schema with an empty data view.
func (e *Explainer) VisualizeAll(spaces []insight.Space) []insight.VisualizableSpace {
	out := make([]insight.VisualizableSpace, len(spaces))
	for i, s := range spaces {
		vs, err := e.Visualize(s)
		if err != nil {
			e.logger.Warn("visualizing %s space %v: %v", s.Type, s.Dimensions(), err)
		}
		out[i] = vs
	}
	return out
}

func (e *Explainer) semanticType(key string) dataset.SemanticType {
	for _, f := range e.fields {
		if f.Key == key {
			return f.SemanticType
		}
	}
	return dataset.SemanticNominal
}

func applicable(preds []predicate.Predicate, dims []string) []predicate.Predicate {
	var out []predicate.Predicate
	for _, p := range preds {
		for _, d := range dims {
			if p.Key == d {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func firstN(keys []string, n int) []string {
	if len(keys) > n {
		return keys[:n]
	}
	return keys
}
