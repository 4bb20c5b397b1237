// Package utils holds miscellaneous utility functions
package utils

import "sort"

// SortedKeys returns the keys of a string-keyed map in lexical order
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
