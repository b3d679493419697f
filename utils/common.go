package utils

import "sort"

const (
	NODETOL = 1.e-12
)

// UniqueSortedInts sorts and removes repeated values in place
func UniqueSortedInts(vals []int) []int {
	if len(vals) < 2 {
		return vals
	}
	sort.Ints(vals)
	n := 1
	for i := 1; i < len(vals); i++ {
		if vals[i] != vals[n-1] {
			vals[n] = vals[i]
			n++
		}
	}
	return vals[:n]
}
