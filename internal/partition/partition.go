// Package partition splits work across a fixed number of workers.
package partition

// Bounds returns the half-open range [start, end) of items owned by the
// worker at index when total items are divided into parts contiguous
// chunks. The first total%parts workers receive one extra item, so chunk
// sizes never differ by more than one.
func Bounds(total, parts, index int) (start, end int) {
	base := total / parts
	rem := total % parts

	if index < rem {
		start = index * (base + 1)
		end = start + base + 1
		return start, end
	}

	start = rem*(base+1) + (index-rem)*base
	end = start + base
	return start, end
}

// Distribute deals items round-robin into parts buckets: item i lands in
// bucket i%parts. Buckets are always non-nil, even when left empty.
func Distribute[T any](items []T, parts int) [][]T {
	buckets := make([][]T, parts)
	for i := range buckets {
		buckets[i] = []T{}
	}
	for i, item := range items {
		idx := i % parts
		buckets[idx] = append(buckets[idx], item)
	}
	return buckets
}
