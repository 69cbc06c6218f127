package utils

import (
	"fmt"
)

type Index []int

func NewIndex(N int) (I Index) {
	return make(Index, N)
}

func NewRange(rmin, rmax int) (r Index) {
	var (
		size = rmax - rmin + 1 // INCLUSIVE RANGE
	)
	r = make(Index, size)
	for i := range r {
		r[i] = i + rmin
	}
	return
}

func NewFromFloat(IF []float64) (r Index) {
	r = make(Index, len(IF))
	for i, val := range IF {
		r[i] = int(val)
	}
	return
}

func (I Index) Add(val int) (r Index) {
	r = make(Index, len(I))
	for i, ival := range I {
		r[i] = val + ival
	}
	return r
}

func (I Index) Subset(J Index) (r Index) {
	r = make(Index, len(J))
	for j, val := range J {
		r[j] = I[val]
	}
	return
}

func (I Index) Contains(val int) bool {
	for _, ival := range I {
		if ival == val {
			return true
		}
	}
	return false
}

func (I Index) Min() (min int) {
	if len(I) == 0 {
		panic(fmt.Errorf("empty index has no minimum"))
	}
	min = I[0]
	for _, ival := range I[1:] {
		if ival < min {
			min = ival
		}
	}
	return
}

// PrefixSum converts per-bin counts stored one slot up, [0, n0, n1, ...],
// into cumulative offsets [0, n0, n0+n1, ...] in place.
func PrefixSum(counts Index) {
	for i := 1; i < len(counts); i++ {
		counts[i] += counts[i-1]
	}
}
