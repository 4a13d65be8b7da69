package assertion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"ints", 4, 4, true},
		{"int vs float", 4, 4.0, true},
		{"strings differ", "x", "y", false},
		{"nil vs nil", nil, nil, true},
		{"nil vs zero", nil, 0, false},
		{"slices order matters", []int{1, 2}, []int{2, 1}, false},
		{
			"key order ignored",
			map[string]any{"a": 1, "b": []any{"x", true}},
			map[string]any{"b": []any{"x", true}, "a": 1},
			true,
		},
		{
			"struct vs map",
			struct {
				A int    `json:"a"`
				B string `json:"b"`
			}{1, "z"},
			map[string]any{"b": "z", "a": 1},
			true,
		},
		{"composed vs decomposed", "caf\u00e9", "cafe\u0301", false},
		{
			"keys compare by code point",
			map[string]any{"caf\u00e9": 1, "cafe\u0301": 2},
			map[string]any{"caf\u00e9": 2},
			false,
		},
		{"large ints keep precision", int64(9007199254740993), int64(9007199254740992), false},
		{"large ints equal", uint64(18446744073709551615), uint64(18446744073709551615), true},
		{"exponent vs integer", 1e3, 1000, true},
		{"channel never equal", make(chan int), nil, false},
		{"nan never equal", math.NaN(), math.NaN(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestEqual_DeepCopyIsReflexive(t *testing.T) {
	original := map[string]any{
		"nested": map[string]any{"k": []any{1, "two", nil}},
		"flag":   false,
	}
	cp, err := Normalize(original)
	require.NoError(t, err)

	assert.True(t, Equal(original, cp))
	assert.True(t, Equal(cp, original))
}

func TestNormalize_UnserializableErrors(t *testing.T) {
	_, err := Normalize(func() {})
	assert.Error(t, err)
}
