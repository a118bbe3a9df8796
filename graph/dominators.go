// ABOUTME: Immediate dominators of the heap graph over the root set
// ABOUTME: Lengauer-Tarjan with path compression over the dense index

package graph

import "slices"

// Dominators returns the immediate dominator of every object reachable
// from the root set through strong references. Objects whose only
// dominator is the root set map to RootID. Unreachable objects are
// absent.
func Dominators(g Graph) map[ObjID]ObjID {
	return Index(g).dominators()
}

const none = -1

// domState holds the Lengauer-Tarjan arrays, indexed by node.
type domState struct {
	dfnum    []int
	vertex   []int // DFS number -> node
	parent   []int
	semi     []int
	ancestor []int
	best     []int
	path     []int
}

func (x *Indexed) dominators() map[ObjID]ObjID {
	n := x.NumNodes()
	pred := make([][]int, n)
	for v := 0; v < n; v++ {
		for _, w := range x.out[v] {
			pred[w] = append(pred[w], v)
		}
	}

	d := &domState{
		dfnum:    make([]int, n),
		vertex:   make([]int, 0, n),
		parent:   make([]int, n),
		semi:     make([]int, n),
		ancestor: make([]int, n),
		best:     make([]int, n),
	}
	for i := range d.dfnum {
		d.dfnum[i] = none
		d.ancestor[i] = none
	}
	x.number(d)

	idom := make([]int, n)
	samedom := make([]int, n)
	bucket := make([][]int, n)
	for i := range samedom {
		samedom[i] = none
	}

	for i := len(d.vertex) - 1; i > 0; i-- {
		w := d.vertex[i]
		p := d.parent[w]
		s := p
		for _, v := range pred[w] {
			if d.dfnum[v] == none {
				continue
			}
			sp := v
			if d.dfnum[v] > d.dfnum[w] {
				sp = d.semi[d.eval(v)]
			}
			if d.dfnum[sp] < d.dfnum[s] {
				s = sp
			}
		}
		d.semi[w] = s
		bucket[s] = append(bucket[s], w)
		d.ancestor[w] = p
		d.best[w] = w

		for _, v := range bucket[p] {
			y := d.eval(v)
			if d.semi[y] == d.semi[v] {
				idom[v] = p
			} else {
				samedom[v] = y
			}
		}
		bucket[p] = nil
	}

	result := make(map[ObjID]ObjID, len(d.vertex))
	for i := 1; i < len(d.vertex); i++ {
		w := d.vertex[i]
		if samedom[w] != none {
			idom[w] = idom[samedom[w]]
		}
		result[x.ID(w)] = x.ID(idom[w])
	}
	return result
}

// number assigns DFS preorder numbers from node 0 without recursion.
func (x *Indexed) number(d *domState) {
	type frame struct{ v, next int }
	d.dfnum[0] = 0
	d.parent[0] = none
	d.vertex = append(d.vertex, 0)
	stack := []frame{{0, 0}}
	for len(stack) > 0 {
		top := len(stack) - 1
		v, next := stack[top].v, stack[top].next
		if next == len(x.out[v]) {
			stack = stack[:top]
			continue
		}
		stack[top].next++
		w := x.out[v][next]
		if d.dfnum[w] != none {
			continue
		}
		d.dfnum[w] = len(d.vertex)
		d.parent[w] = v
		d.vertex = append(d.vertex, w)
		stack = append(stack, frame{w, 0})
	}
}

// eval returns the ancestor of v with the lowest semidominator, compressing
// the forest path as it goes. v must already be linked.
func (d *domState) eval(v int) int {
	d.path = d.path[:0]
	for u := v; d.ancestor[d.ancestor[u]] != none; u = d.ancestor[u] {
		d.path = append(d.path, u)
	}
	for i := len(d.path) - 1; i >= 0; i-- {
		u := d.path[i]
		a := d.ancestor[u]
		b := d.best[a]
		d.ancestor[u] = d.ancestor[a]
		if d.dfnum[d.semi[b]] < d.dfnum[d.semi[d.best[u]]] {
			d.best[u] = b
		}
	}
	return d.best[v]
}

// DominatorTree inverts an immediate dominator map. Children are listed
// in ascending ID order; RootID holds the top of the tree.
func DominatorTree(idom map[ObjID]ObjID) map[ObjID][]ObjID {
	tree := map[ObjID][]ObjID{RootID: {}}
	for node := range idom {
		if _, ok := tree[node]; !ok {
			tree[node] = []ObjID{}
		}
	}
	for node, dom := range idom {
		tree[dom] = append(tree[dom], node)
	}
	for _, children := range tree {
		slices.Sort(children)
	}
	return tree
}

// Dominates reports whether every strong path from the root set to node
// passes through dom. An object dominates itself.
func Dominates(idom map[ObjID]ObjID, dom, node ObjID) bool {
	if _, ok := idom[node]; !ok {
		return false
	}
	for {
		if node == dom {
			return true
		}
		if node == RootID {
			return false
		}
		node = idom[node]
	}
}
