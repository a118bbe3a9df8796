// ABOUTME: Dense node numbering of a snapshot for graph algorithms
// ABOUTME: Node 0 is the root set; edges to unknown objects are dropped

package graph

// Indexed numbers the objects of a Graph densely so that it satisfies the
// go-moremath graph.Graph interface. Node 0 stands for the root set and
// has an edge to every root. Out reports strong edges only.
type Indexed struct {
	ids   []ObjID
	nodes map[ObjID]int
	out   [][]int
	weak  [][]int
}

// Index builds the dense view of g. Nodes follow ascending ID order.
func Index(g Graph) *Indexed {
	x := &Indexed{
		ids:   make([]ObjID, 1, g.NumObjects()+1),
		nodes: make(map[ObjID]int, g.NumObjects()+1),
	}
	x.nodes[RootID] = 0
	g.ForEachObject(func(obj *Object) {
		x.nodes[obj.ID] = len(x.ids)
		x.ids = append(x.ids, obj.ID)
	})

	x.out = make([][]int, len(x.ids))
	x.weak = make([][]int, len(x.ids))
	x.out[0] = x.resolve(g.GetRoots().IDs)
	for n := 1; n < len(x.ids); n++ {
		obj := g.GetObject(x.ids[n])
		x.out[n] = x.resolve(obj.Ptrs)
		x.weak[n] = x.resolve(obj.Weak)
	}
	return x
}

func (x *Indexed) resolve(ids []ObjID) []int {
	var out []int
	for _, id := range ids {
		if n, ok := x.nodes[id]; ok && id != RootID {
			out = append(out, n)
		}
	}
	return out
}

// NumNodes returns the number of objects plus one for the root set.
func (x *Indexed) NumNodes() int { return len(x.ids) }

// Out returns the nodes node i references strongly.
func (x *Indexed) Out(i int) []int { return x.out[i] }

// Weak returns the nodes node i references weakly.
func (x *Indexed) Weak(i int) []int { return x.weak[i] }

// ID returns the object ID of node i.
func (x *Indexed) ID(i int) ObjID { return x.ids[i] }

// Node returns the node number of id.
func (x *Indexed) Node(id ObjID) (int, bool) {
	n, ok := x.nodes[id]
	return n, ok
}
