package distribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightminer/domain/dataset"
)

func rows(cat string, values ...float64) []dataset.Row {
	out := make([]dataset.Row, len(values))
	for i, v := range values {
		out[i] = dataset.Row{
			"cat": dataset.String(string(rune('a' + i))),
			"grp": dataset.String(cat),
			"v":   dataset.Number(v),
		}
	}
	return out
}

func TestNormalizeRelative_ScaleInvariant(t *testing.T) {
	small := NormalizeRelative(rows("x", 1, 2, 3), []string{"v"})
	large := NormalizeRelative(rows("x", 100, 200, 300), []string{"v"})
	for i := range small {
		assert.InDelta(t, small[i].Get("v").FloatOrZero(), large[i].Get("v").FloatOrZero(), 1e-12)
	}
}

func TestNormalizeRelative_ZeroTotal(t *testing.T) {
	out := NormalizeRelative(rows("x", 0, 0), []string{"v"})
	for _, r := range out {
		f, ok := r.Measure("v")
		require.True(t, ok)
		assert.Zero(t, f)
	}
}

func TestNormalizeRelative_DoesNotMutateInput(t *testing.T) {
	in := rows("x", 2, 2)
	_ = NormalizeRelative(in, []string{"v"})
	assert.Equal(t, 2.0, in[0].Get("v").FloatOrZero())
}

func TestNormalizeRelative_NonNumericCountsAsZero(t *testing.T) {
	in := []dataset.Row{{"v": dataset.Number(4)}, {"v": dataset.String("n/a")}}
	out := NormalizeRelative(in, []string{"v"})
	assert.Equal(t, 1.0, out[0].Get("v").FloatOrZero())
	assert.Equal(t, 0.0, out[1].Get("v").FloatOrZero())
}

func TestNormalizeWithParent(t *testing.T) {
	parent := rows("p", 10, 30)
	child := rows("c", 5, 5)

	synced, normParent := NormalizeWithParent(child, parent, []string{"v"}, true)
	assert.InDelta(t, 0.125, synced[0].Get("v").FloatOrZero(), 1e-12)
	assert.InDelta(t, 0.75, normParent[1].Get("v").FloatOrZero(), 1e-12)

	shape, _ := NormalizeWithParent(child, parent, []string{"v"}, false)
	assert.InDelta(t, 0.5, shape[0].Get("v").FloatOrZero(), 1e-12)
}

func TestCompare_IdenticalIsZero(t *testing.T) {
	x := rows("x", 3, 1, 4, 1, 5)
	assert.Zero(t, Compare(x, x, []string{"cat"}, []string{"v"}))
}

func TestCompare_NonNegativeAndOrphans(t *testing.T) {
	a := rows("x", 1, 2)
	b := rows("x", 2)
	// a: {a:1, b:2}, b: {a:2}; pair a/a differs by 1, orphan b adds 2
	assert.InDelta(t, 3.0, Compare(a, b, []string{"cat"}, []string{"v"}), 1e-12)
	assert.InDelta(t, 3.0, Compare(b, a, []string{"cat"}, []string{"v"}), 1e-12)
}

func TestCompare_ConsumesEachRowOnce(t *testing.T) {
	a := []dataset.Row{
		{"cat": dataset.String("a"), "v": dataset.Number(1)},
		{"cat": dataset.String("a"), "v": dataset.Number(1)},
	}
	b := []dataset.Row{{"cat": dataset.String("a"), "v": dataset.Number(1)}}
	assert.InDelta(t, 1.0, Compare(a, b, []string{"cat"}, []string{"v"}), 1e-12)
}

func TestCompare_NumericAndTextualKeysMatch(t *testing.T) {
	a := []dataset.Row{{"age": dataset.Number(18), "v": dataset.Number(0.5)}}
	b := []dataset.Row{{"age": dataset.String("18"), "v": dataset.Number(0.5)}}
	assert.Zero(t, Compare(a, b, []string{"age"}, []string{"v"}))
}

func TestDeviation_UnmatchedReferenceContributesFully(t *testing.T) {
	ref := rows("r", 0.25, 0.75)
	group := []dataset.Row{{"cat": dataset.String("a"), "v": dataset.Number(0.25)}}
	assert.InDelta(t, 0.75, Deviation(ref, group, []string{"cat"}, []string{"v"}), 1e-12)
}
