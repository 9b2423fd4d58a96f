package enums

import (
	"fmt"
	"slices"
)

func oneOf[T ~string](v T, set []T) bool {
	return slices.Contains(set, v)
}

// parse converts raw into T when it names a member of set. kind appears in
// the error.
func parse[T ~string](kind string, set []T, raw string) (T, error) {
	if v := T(raw); oneOf(v, set) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, raw)
}
