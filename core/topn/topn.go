// Package topn selects the first k elements of an ordering without sorting
// the whole input.
package topn

import "slices"

// Select returns the k elements that rank first under cmp, in order.
//
// cmp follows the slices.SortStableFunc contract: negative when a ranks ahead
// of b. The result matches a stable full sort truncated to k. items is never
// modified. Cost is O(n·k) once n exceeds k.
func Select[T any](items []T, cmp func(a, b T) int, k int) []T {
	if k <= 0 {
		return []T{}
	}
	if len(items) <= k {
		out := make([]T, len(items))
		copy(out, items)
		slices.SortStableFunc(out, cmp)
		return out
	}
	out := make([]T, k)
	copy(out, items[:k])
	slices.SortStableFunc(out, cmp)
	for _, item := range items[k:] {
		// ties keep the earlier element, as a stable sort would
		if cmp(item, out[k-1]) >= 0 {
			continue
		}
		j := k - 2
		for j >= 0 && cmp(item, out[j]) < 0 {
			out[j+1] = out[j]
			j--
		}
		out[j+1] = item
	}
	return out
}
