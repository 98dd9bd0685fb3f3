package dataset

import (
	"fmt"
	"strings"

	"insightminer/domain/core"
)

// Row is one record: field key to cell value. Rows of one dataset share a key set.
type Row map[string]Value

// Get returns the value under key, null when absent.
func (r Row) Get(key string) Value {
	v, ok := r[key]
	if !ok {
		return Null()
	}
	return v
}

// Measure returns the numeric value under key. Missing and non-numeric values
// report ok=false so callers decide on their own policy.
func (r Row) Measure(key string) (float64, bool) {
	return r.Get(key).Float()
}

// Clone returns a shallow copy that can be modified without touching r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// MatchesOn reports whether r and o hold Equal values for every key.
func (r Row) MatchesOn(o Row, keys []string) bool {
	for _, k := range keys {
		if !r.Get(k).Equal(o.Get(k)) {
			return false
		}
	}
	return true
}

// CloneRows deep-copies a row slice.
func CloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

// FieldRole distinguishes grouping fields from aggregated ones.
type FieldRole string

const (
	RoleDimension FieldRole = "dimension"
	RoleMeasure   FieldRole = "measure"
)

// SemanticType is the visual-encoding type of a field.
type SemanticType string

const (
	SemanticQuantitative SemanticType = "quantitative"
	SemanticNominal      SemanticType = "nominal"
	SemanticOrdinal      SemanticType = "ordinal"
	SemanticTemporal     SemanticType = "temporal"
)

// Field describes a declared field. Cardinality 0 means unknown.
type Field struct {
	Key          string       `json:"key"`
	Role         FieldRole    `json:"role"`
	Cardinality  int          `json:"cardinality"`
	SemanticType SemanticType `json:"semanticType"`
}

// FieldType is the {key, type} pair reported back to renderers.
type FieldType struct {
	Key  string       `json:"key"`
	Type SemanticType `json:"type"`
}

// AggregationOp is the operator a measure is aggregated with inside a cuboid.
type AggregationOp string

const (
	OpSum   AggregationOp = "sum"
	OpCount AggregationOp = "count"
	OpMean  AggregationOp = "mean"
	OpMin   AggregationOp = "min"
	OpMax   AggregationOp = "max"
)

// AllOps lists the operators tried by the correlated-measure strategy, in order.
var AllOps = []AggregationOp{OpMin, OpMax, OpSum, OpCount, OpMean}

// ParseOp accepts the canonical names plus the common "avg"/"average" alias.
func ParseOp(s string) (AggregationOp, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sum":
		return OpSum, nil
	case "count":
		return OpCount, nil
	case "mean", "avg", "average":
		return OpMean, nil
	case "min":
		return OpMin, nil
	case "max":
		return OpMax, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownOp, s)
}

// MeasureRef names a measure together with its aggregation operator. The
// operator is part of its identity.
type MeasureRef struct {
	Key string        `json:"key"`
	Op  AggregationOp `json:"op"`
}

func (m MeasureRef) String() string {
	return m.Key + ":" + string(m.Op)
}

// ParseMeasureRef parses "key" or "key:op".
func ParseMeasureRef(s string) (MeasureRef, error) {
	key, opText, _ := strings.Cut(s, ":")
	key = strings.TrimSpace(key)
	if key == "" {
		return MeasureRef{}, fmt.Errorf("measure reference %q has no key", s)
	}
	op, err := ParseOp(opText)
	if err != nil {
		return MeasureRef{}, err
	}
	return MeasureRef{Key: key, Op: op}, nil
}

// MeasureKeys returns the keys of refs in order.
func MeasureKeys(refs []MeasureRef) []string {
	keys := make([]string, len(refs))
	for i, m := range refs {
		keys[i] = m.Key
	}
	return keys
}

// MeasureOps returns the operators of refs in order.
func MeasureOps(refs []MeasureRef) []AggregationOp {
	ops := make([]AggregationOp, len(refs))
	for i, m := range refs {
		ops[i] = m.Op
	}
	return ops
}

// UnionKeys appends the keys of extra missing from base, keeping order.
func UnionKeys(base []string, extra ...string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, k := range append(append([]string{}, base...), extra...) {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// CellKeys names the column each ref occupies in an aggregated row. A key
// requested under one operator keeps its bare name; a key requested under
// several operators is qualified as "key:op" so the cells do not collide.
func CellKeys(refs []MeasureRef) []string {
	ops := make(map[string]map[AggregationOp]bool, len(refs))
	for _, m := range refs {
		if ops[m.Key] == nil {
			ops[m.Key] = make(map[AggregationOp]bool)
		}
		ops[m.Key][m.Op] = true
	}
	keys := make([]string, len(refs))
	for i, m := range refs {
		if len(ops[m.Key]) > 1 {
			keys[i] = m.String()
			continue
		}
		keys[i] = m.Key
	}
	return keys
}
