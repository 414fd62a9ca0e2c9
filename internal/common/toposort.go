package common

import (
	"fmt"
	"slices"
)

// TopoSort orders the indices 0..n-1 so that every index follows the indices
// deps returns for it. Schema hashing uses it to visit nested shapes before
// the shapes that embed them, since a parent's hash covers its children's.
//
// Among the indices ready at any step the smallest comes first, so equal
// inputs give equal orders. A cycle is an error naming the indices on it.
func TopoSort(n int, deps func(i int) []int) ([]int, error) {
	if n <= 0 {
		return nil, nil
	}

	pending := make([]int, n)
	dependents := make([][]int, n)

	for i := range n {
		for _, d := range deps(i) {
			if d < 0 || d >= n {
				return nil, fmt.Errorf("index %d depends on %d, outside [0, %d)", i, d, n)
			}

			pending[i]++
			dependents[d] = append(dependents[d], i)
		}
	}

	var ready []int
	for i, p := range pending {
		if p == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, j := range dependents[next] {
			if pending[j]--; pending[j] == 0 {
				k, _ := slices.BinarySearch(ready, j)
				ready = slices.Insert(ready, k, j)
			}
		}
	}

	if len(order) < n {
		var stuck []int
		for i, p := range pending {
			if p > 0 {
				stuck = append(stuck, i)
			}
		}

		return nil, fmt.Errorf("dependency cycle among %v", stuck)
	}

	return order, nil
}
