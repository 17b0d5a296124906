// Package util holds small generic helpers.
package util

import "slices"

// FindFunc returns the first element of s that satisfies f.
func FindFunc[S ~[]E, E any](s S, f func(E) bool) (e E, ok bool) {
	i := slices.IndexFunc(s, f)
	if i < 0 {
		return e, false
	}
	return s[i], true
}
