// ABOUTME: BFS search for the reference chains that keep an object alive
// ABOUTME: Implements K-shortest paths to the root set with cycle detection

package graph

import "strings"

// maxFrontier bounds the BFS queue on densely connected heaps.
const maxFrontier = 1 << 16

// Path is a chain of strong references from a target back to a root
type Path struct {
	IDs []ObjID // Target first, root last
}

// Format renders the path root first, as the chain a reader would
// follow from the root set down to the target.
func (p Path) Format(g Graph) string {
	var b strings.Builder
	for i := len(p.IDs) - 1; i >= 0; i-- {
		if i != len(p.IDs)-1 {
			b.WriteString(" -> ")
		}
		if obj := g.GetObject(p.IDs[i]); obj != nil {
			b.WriteString(obj.Name())
		} else {
			b.WriteString(p.IDs[i].String())
		}
	}
	return b.String()
}

// PathsToRoots finds up to maxPaths shortest reference chains from an
// object to a root. An object that is unreachable has no paths.
func PathsToRoots(g Graph, from ObjID, maxPaths int) []Path {
	if maxPaths <= 0 || g.GetObject(from) == nil {
		return nil
	}

	reverse := BuildReverseEdges(g)

	rootSet := make(map[ObjID]bool)
	for _, id := range g.GetRoots().IDs {
		rootSet[id] = true
	}

	if rootSet[from] {
		return []Path{{IDs: []ObjID{from}}}
	}

	type searchNode struct {
		id   ObjID
		path []ObjID
	}

	var result []Path
	queue := []searchNode{{id: from, path: []ObjID{from}}}

	for len(queue) > 0 && len(result) < maxPaths {
		node := queue[0]
		queue = queue[1:]

		for _, referrerID := range reverse[node.id] {
			if containsID(node.path, referrerID) {
				continue
			}

			newPath := make([]ObjID, len(node.path)+1)
			copy(newPath, node.path)
			newPath[len(node.path)] = referrerID

			if rootSet[referrerID] {
				result = append(result, Path{IDs: newPath})
				if len(result) >= maxPaths {
					break
				}
				continue
			}
			if len(queue) < maxFrontier {
				queue = append(queue, searchNode{id: referrerID, path: newPath})
			}
		}
	}

	return result
}

func containsID(ids []ObjID, id ObjID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
