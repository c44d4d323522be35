// Package lookup computes the render-distance keyed tables the chunk window
// depends on and caches them on disk.
package lookup

import (
	"cmp"
	"slices"
)

// MaxRenderDistance is the largest supported render distance in chunks.
const MaxRenderDistance = 32

// Diameter returns the table edge length for render distance d.
func Diameter(d int) int {
	return 2*d + 1
}

// Offset returns the per-axis offset of table index i from the table centre.
func Offset(d, i int) (dx, dy, dz int) {
	n := Diameter(d)
	return i%n - d, (i/n)%n - d, i/(n*n) - d
}

// DistSq returns the squared chunk distance of table index i from the centre.
func DistSq(d, i int) int {
	dx, dy, dz := Offset(d, i)
	return dx*dx + dy*dy + dz*dz
}

// Visible reports whether table index i lies inside the loaded sphere.
func Visible(d, i int) bool {
	return DistSq(d, i) < d*d+2
}

// BuildOrder returns every table index sorted by squared distance from the
// centre, ties broken by index.
func BuildOrder(d int) []int {
	n := Diameter(d)
	order := make([]int, n*n*n)
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, orderCmp(d))
	return order
}

// orderCmp compares table indices by squared distance, then by index.
func orderCmp(d int) func(a, b int) int {
	return func(a, b int) int {
		if c := cmp.Compare(DistSq(d, a), DistSq(d, b)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	}
}

// IsOrder reports whether vals is the chunk order for d: a permutation of
// every table index, sorted as BuildOrder sorts it.
func IsOrder(d int, vals []int) bool {
	n := Diameter(d)
	if len(vals) != n*n*n || !isPermutation(vals) {
		return false
	}
	less := orderCmp(d)
	for k := 1; k < len(vals); k++ {
		if less(vals[k-1], vals[k]) >= 0 {
			return false
		}
	}
	return true
}

// CountVisible returns the number of visible cells for render distance d.
func CountVisible(d int) int {
	n := Diameter(d)
	count := 0
	for i := 0; i < n*n*n; i++ {
		if Visible(d, i) {
			count++
		}
	}
	return count
}

// BuildChunksMax returns CountVisible for every d in [0, MaxRenderDistance].
func BuildChunksMax() []int {
	out := make([]int, MaxRenderDistance+1)
	for d := range out {
		out[d] = CountVisible(d)
	}
	return out
}
