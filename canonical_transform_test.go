package codice

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalTransform_Values(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"integer", "42", 42.0},
		{"padded integer", "  42\t", 42.0},
		{"negative decimal", "-3.50", -3.5},
		{"explicit plus", "+7", 7.0},
		{"leading zeros", "007", 7.0},
		{"exponent stays text", "1e5", "1e5"},
		{"thousands separator stays text", "1 000", "1 000"},
		{"bare fraction stays text", ".5", ".5"},
		{"trailing dot stays text", "5.", "5."},
		{"hex stays text", "0x10", "0x10"},
		{"word", " setosa ", "setosa"},
		{"empty", "", nil},
		{"blank", "   ", nil},
		{"nil", nil, nil},
		{"NaN", math.NaN(), nil},
		{"bool passes through", true, true},
		{"number passes through", 2.5, 2.5},
		{"non-ascii digits stay text", "٣", "٣"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := CanonicalTransform(Record{"v": tt.in})
			assert.Equal(t, tt.want, out["v"])
		})
	}
}

func TestCanonicalTransform_NegativeZero(t *testing.T) {
	out := CanonicalTransform(Record{"v": "-0.00"})
	v, ok := out["v"].(float64)
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
	assert.False(t, math.Signbit(v))
}

func TestCanonicalTransform_OverflowStaysText(t *testing.T) {
	huge := "1"
	for i := 0; i < 400; i++ {
		huge += "0"
	}
	out := CanonicalTransform(Record{"v": huge})
	assert.Equal(t, huge, out["v"])
}

func TestCanonicalTransform_ByteOrderMarkTrimmed(t *testing.T) {
	out := CanonicalTransform(Record{"v": "\uFEFF12"})
	assert.Equal(t, 12.0, out["v"])
}

func TestCanonicalTransform_DoesNotMutateInput(t *testing.T) {
	in := Record{"b": " 2 ", "a": "x"}
	out := CanonicalTransform(in)

	assert.Equal(t, " 2 ", in["b"])
	assert.Equal(t, Record{"a": "x", "b": 2.0}, out)
	assert.Equal(t, []string{"a", "b"}, out.Keys())
}

func TestRecordKeys_Sorted(t *testing.T) {
	r := Record{"petal_width": 1.0, "Species": "x", "a": nil, "_id": 3.0}
	assert.Equal(t, []string{"Species", "_id", "a", "petal_width"}, r.Keys())
}
