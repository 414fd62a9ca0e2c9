package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopoSort_Order(t *testing.T) {
	order, err := TopoSort(3, func(i int) []int {
		if i == 0 {
			return nil
		}

		return []int{i - 1}
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestTopoSort_ChildrenBeforeParents(t *testing.T) {
	// 0 embeds 2, 2 embeds 1.
	order, err := TopoSort(3, func(i int) []int {
		switch i {
		case 0:
			return []int{2}
		case 2:
			return []int{1}
		default:
			return nil
		}
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 0}, order)
}

func TestTopoSort_Cycle(t *testing.T) {
	_, err := TopoSort(3, func(i int) []int {
		switch i {
		case 1:
			return []int{2}
		case 2:
			return []int{1}
		default:
			return nil
		}
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[1 2]")
}

func TestTopoSort_OutOfRange(t *testing.T) {
	_, err := TopoSort(2, func(i int) []int { return []int{5} })
	require.Error(t, err)
}

func TestTopoSort_PicksSmallestReadyIndex(t *testing.T) {
	// 3 depends on 0 and 2; 1 is free.
	order, err := TopoSort(4, func(i int) []int {
		if i == 3 {
			return []int{2, 0}
		}

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, order)

	empty, err := TopoSort(0, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
