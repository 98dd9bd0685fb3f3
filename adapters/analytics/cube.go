package analytics

import (
	"fmt"
	"sync"

	"github.com/montanaflynn/stats"

	"insightminer/domain/core"
	"insightminer/domain/dataset"
	"insightminer/ports"
)

// cube memoizes cuboids by dimension set and their aggregations by measure set.
// It holds an immutable snapshot of the rows it was built from.
type cube struct {
	rows       []dataset.Row
	dimensions map[string]bool
	measures   map[string]bool

	mu      sync.Mutex
	cuboids map[core.CuboidHash]*cuboid
}

func newCube(rows []dataset.Row, dimensions, measures []string) *cube {
	c := &cube{
		rows:       rows,
		dimensions: make(map[string]bool, len(dimensions)),
		measures:   make(map[string]bool, len(measures)),
		cuboids:    make(map[core.CuboidHash]*cuboid),
	}
	for _, d := range dimensions {
		c.dimensions[d] = true
	}
	for _, m := range measures {
		c.measures[m] = true
	}
	return c
}

// Cuboid returns the memoized grouping over dimensions. Order of dimensions
// does not matter for identity, but output rows list them in the given order.
func (c *cube) Cuboid(dimensions []string) (ports.Cuboid, error) {
	for _, d := range dimensions {
		if !c.dimensions[d] {
			return nil, core.NewFieldNotFoundError(d)
		}
	}
	key := core.NewCuboidHash(dimensions, nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok := c.cuboids[key]; ok {
		return cb.withOrder(dimensions), nil
	}
	cb := newCuboid(c, dimensions)
	c.cuboids[key] = cb
	return cb.withOrder(dimensions), nil
}

// cuboidCount reports how many groupings are materialized.
func (c *cube) cuboidCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cuboids)
}

type group struct {
	key  dataset.Row
	rows []int
}

type cuboid struct {
	cube       *cube
	dimensions []string
	groups     []group

	mu   sync.Mutex
	aggs map[core.CuboidHash][]dataset.Row
}

// newCuboid groups the cube rows by dimensions, keeping first-seen group order.
func newCuboid(c *cube, dimensions []string) *cuboid {
	cb := &cuboid{
		cube:       c,
		dimensions: append([]string(nil), dimensions...),
		aggs:       make(map[core.CuboidHash][]dataset.Row),
	}
	index := make(map[string]int)
	for i, r := range c.rows {
		gk := groupKey(r, dimensions)
		gi, ok := index[gk]
		if !ok {
			key := make(dataset.Row, len(dimensions))
			for _, d := range dimensions {
				key[d] = r.Get(d)
			}
			gi = len(cb.groups)
			index[gk] = gi
			cb.groups = append(cb.groups, group{key: key})
		}
		cb.groups[gi].rows = append(cb.groups[gi].rows, i)
	}
	return cb
}

func groupKey(r dataset.Row, dimensions []string) string {
	var b []byte
	for _, d := range dimensions {
		b = append(b, r.Get(d).GroupKey()...)
		b = append(b, 0x1f)
	}
	return string(b)
}

// orderedCuboid shares the grouping of a memoized cuboid but reports the
// caller's dimension order.
type orderedCuboid struct {
	*cuboid
	order []string
}

func (cb *cuboid) withOrder(dimensions []string) ports.Cuboid {
	return &orderedCuboid{cuboid: cb, order: append([]string(nil), dimensions...)}
}

func (o *orderedCuboid) Dimensions() []string {
	return append([]string(nil), o.order...)
}

// AggregatedRows returns one row per group holding the group's dimension values
// and each measure aggregated with the op at the same index, under the column
// named by dataset.CellKeys. Results are memoized; callers receive copies.
func (cb *cuboid) AggregatedRows(measures []string, ops []dataset.AggregationOp) ([]dataset.Row, error) {
	if len(measures) != len(ops) {
		return nil, fmt.Errorf("got %d measures but %d aggregation ops", len(measures), len(ops))
	}
	refs := make([]dataset.MeasureRef, len(measures))
	names := make([]string, len(measures))
	for i, m := range measures {
		if !cb.cube.measures[m] {
			return nil, core.NewFieldNotFoundError(m)
		}
		refs[i] = dataset.MeasureRef{Key: m, Op: ops[i]}
		names[i] = refs[i].String()
	}
	cells := dataset.CellKeys(refs)
	key := core.NewCuboidHash(nil, names)

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if rows, ok := cb.aggs[key]; ok {
		return dataset.CloneRows(rows), nil
	}

	rows := make([]dataset.Row, 0, len(cb.groups))
	for _, g := range cb.groups {
		out := g.key.Clone()
		for i, m := range measures {
			v, err := aggregate(cb.cube.rows, g.rows, m, ops[i])
			if err != nil {
				return nil, err
			}
			out[cells[i]] = v
		}
		rows = append(rows, out)
	}
	cb.aggs[key] = rows
	return dataset.CloneRows(rows), nil
}

// aggregate applies op to the numeric values of measure within one group.
// Count counts numeric cells; an all-non-numeric group sums to 0 and yields
// null for mean, min and max.
func aggregate(all []dataset.Row, idx []int, measure string, op dataset.AggregationOp) (dataset.Value, error) {
	data := make(stats.Float64Data, 0, len(idx))
	for _, i := range idx {
		if f, ok := all[i].Measure(measure); ok {
			data = append(data, f)
		}
	}

	switch op {
	case dataset.OpCount:
		return dataset.Number(float64(len(data))), nil
	case dataset.OpSum:
		if len(data) == 0 {
			return dataset.Number(0), nil
		}
		s, err := stats.Sum(data)
		return dataset.Number(s), err
	case dataset.OpMean, dataset.OpMin, dataset.OpMax:
		if len(data) == 0 {
			return dataset.Null(), nil
		}
		var f float64
		var err error
		switch op {
		case dataset.OpMean:
			f, err = stats.Mean(data)
		case dataset.OpMin:
			f, err = stats.Min(data)
		default:
			f, err = stats.Max(data)
		}
		if err != nil {
			return dataset.Null(), fmt.Errorf("aggregate %s(%s): %w", op, measure, err)
		}
		return dataset.Number(f), nil
	}
	return dataset.Null(), fmt.Errorf("%w: %q", core.ErrUnknownOp, op)
}
