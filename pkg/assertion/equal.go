package assertion

import (
	"bytes"
	"encoding/json"
	"math/big"

	"github.com/google/go-cmp/cmp"
)

// numbers compares JSON numbers by value, so 4 and 4.0 match while
// integers past float64 precision stay distinct.
var numbers = cmp.Comparer(func(a, b json.Number) bool {
	ra, ok := new(big.Rat).SetString(a.String())
	if !ok {
		return false
	}
	rb, ok := new(big.Rat).SetString(b.String())
	if !ok {
		return false
	}
	return ra.Cmp(rb) == 0
})

// Equal reports whether a and b are structurally equal as JSON
// values. Object key order is irrelevant, strings compare by code
// point, and any value that fails to serialize makes the comparison
// false.
func Equal(a, b any) bool {
	na, err := Normalize(a)
	if err != nil {
		return false
	}
	nb, err := Normalize(b)
	if err != nil {
		return false
	}
	return cmp.Equal(na, nb, numbers)
}

// Normalize converts v into its generic JSON form: nil, bool,
// json.Number, string, []any or map[string]any.
func Normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
