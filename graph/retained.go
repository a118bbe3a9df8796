// ABOUTME: Calculates retained sizes from the dominator tree
// ABOUTME: An object retains itself plus everything it dominates

package graph

import "slices"

// RetainedSize returns, for every reachable object, the bytes that would
// become garbage if the references to it were dropped.
func RetainedSize(g Graph) map[ObjID]uint64 {
	return retained(g, Dominators(g))
}

// RetainedSizeOf returns the retained size of each object in ids that is
// reachable. Unreachable and unknown objects are left out.
func RetainedSizeOf(g Graph, ids []ObjID) map[ObjID]uint64 {
	all := RetainedSize(g)
	result := make(map[ObjID]uint64, len(ids))
	for _, id := range ids {
		if size, ok := all[id]; ok {
			result[id] = size
		}
	}
	return result
}

func retained(g Graph, idom map[ObjID]ObjID) map[ObjID]uint64 {
	tree := DominatorTree(idom)

	// Pre-order walk, reversed so children precede their dominator.
	order := make([]ObjID, 0, len(tree))
	stack := []ObjID{RootID}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, n)
		stack = append(stack, tree[n]...)
	}
	slices.Reverse(order)

	sizes := make(map[ObjID]uint64, len(order))
	for _, n := range order {
		var size uint64
		if obj := g.GetObject(n); obj != nil {
			size = obj.Size
		}
		for _, child := range tree[n] {
			size += sizes[child]
		}
		sizes[n] = size
	}
	delete(sizes, RootID)
	return sizes
}
