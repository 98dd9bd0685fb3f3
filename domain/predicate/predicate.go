// Package predicate models row filters derived from a selection.
package predicate

import (
	"encoding/json"
	"fmt"
	"sort"

	"insightminer/domain/core"
	"insightminer/domain/dataset"
)

// Kind distinguishes membership filters from range filters.
type Kind string

const (
	Discrete   Kind = "discrete"
	Continuous Kind = "continuous"
)

// Predicate keeps a row when its value under Key is in Values (discrete) or
// within Range inclusive (continuous). A discrete predicate with no values
// matches nothing.
type Predicate struct {
	Key    string
	Kind   Kind
	Values []dataset.Value
	Range  [2]float64
}

// wirePredicate carries only the fields of the predicate's kind.
type wirePredicate struct {
	Key    string          `json:"key"`
	Kind   Kind            `json:"type"`
	Values []dataset.Value `json:"values,omitempty"`
	Range  *[2]float64     `json:"range,omitempty"`
}

// MarshalJSON writes values for discrete predicates and range for continuous ones.
func (p Predicate) MarshalJSON() ([]byte, error) {
	w := wirePredicate{Key: p.Key, Kind: p.Kind}
	if p.Kind == Continuous {
		r := p.Range
		w.Range = &r
	} else {
		w.Values = p.Values
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes and validates a predicate. A continuous predicate
// must carry a range.
func (p *Predicate) UnmarshalJSON(data []byte) error {
	var w wirePredicate
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	decoded := Predicate{Key: w.Key, Kind: w.Kind, Values: w.Values}
	if w.Kind == Continuous {
		if w.Range == nil {
			return fmt.Errorf("%w: %s has no range", core.ErrInvalidPredicate, w.Key)
		}
		decoded.Range = *w.Range
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*p = decoded
	return nil
}

// NewDiscrete builds a membership predicate.
func NewDiscrete(key string, values ...dataset.Value) Predicate {
	return Predicate{Key: key, Kind: Discrete, Values: values}
}

// NewContinuous builds an inclusive range predicate. Bounds are reordered if needed.
func NewContinuous(key string, lo, hi float64) Predicate {
	if lo > hi {
		lo, hi = hi, lo
	}
	return Predicate{Key: key, Kind: Continuous, Range: [2]float64{lo, hi}}
}

// Validate checks the predicate is well formed.
func (p Predicate) Validate() error {
	if p.Key == "" {
		return fmt.Errorf("%w: empty key", core.ErrInvalidPredicate)
	}
	switch p.Kind {
	case Discrete:
		return nil
	case Continuous:
		if p.Range[0] > p.Range[1] {
			return fmt.Errorf("%w: %s range [%v, %v] is inverted", core.ErrInvalidPredicate, p.Key, p.Range[0], p.Range[1])
		}
		return nil
	}
	return fmt.Errorf("%w: %s has unknown kind %q", core.ErrInvalidPredicate, p.Key, p.Kind)
}

// ValidateAll returns the first invalid predicate's error.
func ValidateAll(preds []Predicate) error {
	for _, p := range preds {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Match reports whether row satisfies p.
func (p Predicate) Match(row dataset.Row) bool {
	v := row.Get(p.Key)
	switch p.Kind {
	case Discrete:
		for _, allowed := range p.Values {
			if v.Equal(allowed) {
				return true
			}
		}
		return false
	case Continuous:
		f, ok := v.Float()
		return ok && p.Range[0] <= f && f <= p.Range[1]
	}
	return false
}

func (p Predicate) String() string {
	if p.Kind == Continuous {
		return fmt.Sprintf("%s in [%v, %v]", p.Key, p.Range[0], p.Range[1])
	}
	return fmt.Sprintf("%s in %v", p.Key, p.Values)
}

// MatchAll reports whether row satisfies preds. Predicates on different keys
// must all hold; predicates sharing a key are alternatives, so
// [{age=18}, {age=17}] keeps rows of either age.
func MatchAll(row dataset.Row, preds []Predicate) bool {
	matched := make(map[string]bool, len(preds))
	for _, p := range preds {
		if !matched[p.Key] && p.Match(row) {
			matched[p.Key] = true
		}
	}
	for _, p := range preds {
		if !matched[p.Key] {
			return false
		}
	}
	return true
}

// Filter returns the rows satisfying preds as MatchAll defines it. An empty
// predicate list passes every row. The input slice is never modified.
func Filter(rows []dataset.Row, preds []Predicate) []dataset.Row {
	if len(preds) == 0 {
		return append([]dataset.Row(nil), rows...)
	}
	out := make([]dataset.Row, 0, len(rows))
	for _, r := range rows {
		if MatchAll(r, preds) {
			out = append(out, r)
		}
	}
	return out
}

// Build derives predicates from a selection: one discrete predicate per
// dimension holding the distinct observed values, one continuous predicate per
// measure spanning the observed [min, max]. Measures without any numeric value
// in the selection produce no predicate.
func Build(selection []dataset.Row, dimensions, measures []string) []Predicate {
	preds := make([]Predicate, 0, len(dimensions)+len(measures))
	for _, key := range dimensions {
		var values []dataset.Value
		seen := make(map[string]bool)
		for _, r := range selection {
			v := r.Get(key)
			gk := v.GroupKey()
			if seen[gk] {
				continue
			}
			seen[gk] = true
			values = append(values, v)
		}
		preds = append(preds, NewDiscrete(key, values...))
	}
	for _, key := range measures {
		lo, hi, found := 0.0, 0.0, false
		for _, r := range selection {
			f, ok := r.Measure(key)
			if !ok {
				continue
			}
			if !found {
				lo, hi, found = f, f, true
				continue
			}
			if f < lo {
				lo = f
			}
			if f > hi {
				hi = f
			}
		}
		if found {
			preds = append(preds, NewContinuous(key, lo, hi))
		}
	}
	return preds
}

// FromFilters converts a UI selection signal into predicates. Declared
// dimensions become discrete predicates; declared measures with exactly two
// numeric bounds become continuous predicates. The second return lists the keys
// that were ignored. Output is ordered by key.
func FromFilters(filters map[string][]dataset.Value, dimensions, measures []string) ([]Predicate, []string) {
	isDim := make(map[string]bool, len(dimensions))
	for _, d := range dimensions {
		isDim[d] = true
	}
	isMea := make(map[string]bool, len(measures))
	for _, m := range measures {
		isMea[m] = true
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var preds []Predicate
	var ignored []string
	for _, key := range keys {
		values := filters[key]
		switch {
		case isDim[key]:
			preds = append(preds, NewDiscrete(key, values...))
		case isMea[key] && len(values) == 2 && values[0].IsNumber() && values[1].IsNumber():
			preds = append(preds, NewContinuous(key, values[0].FloatOrZero(), values[1].FloatOrZero()))
		default:
			ignored = append(ignored, key)
		}
	}
	return preds, ignored
}
