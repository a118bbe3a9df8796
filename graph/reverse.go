// ABOUTME: Builds reverse strong edges for graph traversal
// ABOUTME: Maps objects to their referrers for paths-to-roots

package graph

// ReverseEdges maps each object to the objects that strongly reference it.
// Referrers appear in ascending ID order.
type ReverseEdges map[ObjID][]ObjID

// BuildReverseEdges creates a map of reverse edges. Weak references are
// left out since they do not keep their target alive.
func BuildReverseEdges(g Graph) ReverseEdges {
	reverse := make(ReverseEdges)

	g.ForEachObject(func(obj *Object) {
		for _, targetID := range obj.Ptrs {
			refs := reverse[targetID]
			if n := len(refs); n > 0 && refs[n-1] == obj.ID {
				continue
			}
			reverse[targetID] = append(refs, obj.ID)
		}
	})

	return reverse
}
