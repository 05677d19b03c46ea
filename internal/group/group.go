// Package group merges threads with byte-identical stacks and ranks the
// resulting groups by how many threads share them.
package group

import (
	"sort"
	"strings"

	"st/internal/stack"
)

// Group is the set of threads whose frame blocks are identical.
type Group struct {
	Text string   // frame block, the grouping key
	IDs  []string // contributing thread ids in discovery order
}

// Count returns the number of contributing threads.
func (g Group) Count() int { return len(g.IDs) }

// JoinedIDs returns the ids separated by ", ".
func (g Group) JoinedIDs() string { return strings.Join(g.IDs, ", ") }

// Build groups threads by frame text. Groups are returned in the order
// their text was first seen.
func Build(threads ...[]stack.Thread) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, batch := range threads {
		for _, th := range batch {
			key := th.Text()
			if i, ok := index[key]; ok {
				groups[i].IDs = append(groups[i].IDs, th.ID)
				continue
			}
			index[key] = len(groups)
			groups = append(groups, Group{Text: key, IDs: []string{th.ID}})
		}
	}
	return groups
}

// Rank orders groups by contributor count, largest first. Groups of equal
// size keep their discovery order. The input slice is not modified.
func Rank(groups []Group) []Group {
	ranked := make([]Group, len(groups))
	copy(ranked, groups)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count() > ranked[j].Count()
	})
	return ranked
}
