package algebraic

import "sort"

// powerMultiset returns every distinct sub-multiset of multiset, including
// the empty subset and the full multiset itself. Grounded on
// original_source's power_multiset (a sort-then-backtrack generator that
// skips duplicate elements at each branch to avoid emitting the same
// sub-multiset twice); implemented here by grouping into (value, count)
// pairs and choosing 0..count copies of each distinct value, which
// produces exactly the same set of sub-multisets without the
// remove/insert backtracking dance.
func powerMultiset(multiset []uint64) [][]uint64 {
	sorted := append([]uint64(nil), multiset...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	type group struct {
		value uint64
		count int
	}
	var groups []group
	for _, v := range sorted {
		if n := len(groups); n > 0 && groups[n-1].value == v {
			groups[n-1].count++
		} else {
			groups = append(groups, group{value: v, count: 1})
		}
	}

	result := [][]uint64{{}}
	for _, g := range groups {
		next := make([][]uint64, 0, len(result)*(g.count+1))
		for _, subset := range result {
			for take := 0; take <= g.count; take++ {
				extended := append(append([]uint64(nil), subset...), repeat(g.value, take)...)
				next = append(next, extended)
			}
		}
		result = next
	}
	return result
}

func repeat(v uint64, n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
