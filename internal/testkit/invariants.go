package testkit

import (
	"fmt"
	"sort"
)

// CheckPartition verifies that groups partition ids: every observed thread id
// appears in exactly one group and no group invents an id.
func CheckPartition(ids []string, groups [][]string) error {
	want := make(map[string]int, len(ids))
	for _, id := range ids {
		want[id]++
	}
	got := make(map[string]int, len(ids))
	for gi, g := range groups {
		if len(g) == 0 {
			return fmt.Errorf("group %d is empty", gi)
		}
		for _, id := range g {
			got[id]++
		}
	}
	for id, n := range want {
		if got[id] != n {
			return fmt.Errorf("thread %q seen %d time(s) in input, %d in groups", id, n, got[id])
		}
	}
	for id := range got {
		if _, ok := want[id]; !ok {
			return fmt.Errorf("thread %q is in a group but not in the input", id)
		}
	}
	return nil
}

// CheckRanked verifies that group sizes never increase.
func CheckRanked(groups [][]string) error {
	sizes := make([]int, len(groups))
	for i, g := range groups {
		sizes[i] = len(g)
	}
	if !sort.SliceIsSorted(sizes, func(i, j int) bool { return sizes[i] > sizes[j] }) {
		return fmt.Errorf("group sizes not in descending order: %v", sizes)
	}
	return nil
}
