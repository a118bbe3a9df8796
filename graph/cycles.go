// ABOUTME: Finds reference cycles with go-moremath's strongly connected components
// ABOUTME: Reports groups of objects that strongly reference each other

package graph

import (
	"slices"

	"github.com/aclements/go-moremath/graph/graphalg"
)

// Cycles returns every group of objects that reach each other through
// strong references, including objects that reference themselves. IDs
// within a group ascend and groups are ordered by their first ID.
func Cycles(g Graph) [][]ObjID {
	x := Index(g)
	scc := graphalg.SCC(x, 0)

	var cycles [][]ObjID
	for cid := 0; cid < scc.NumNodes(); cid++ {
		nodes := scc.Subnodes(cid)
		if len(nodes) == 1 && !slices.Contains(x.Out(nodes[0]), nodes[0]) {
			continue
		}
		ids := make([]ObjID, len(nodes))
		for i, n := range nodes {
			ids[i] = x.ID(n)
		}
		slices.Sort(ids)
		cycles = append(cycles, ids)
	}
	slices.SortFunc(cycles, func(a, b []ObjID) int {
		switch {
		case a[0] < b[0]:
			return -1
		case a[0] > b[0]:
			return 1
		}
		return 0
	})
	return cycles
}
