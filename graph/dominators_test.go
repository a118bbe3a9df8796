// ABOUTME: Tests for immediate dominators and the dominator tree
// ABOUTME: Covers chains, diamonds, cycles, weak edges, multiple roots and large heaps

package graph

import (
	"fmt"
	"reflect"
	"testing"
	"time"
)

func TestDominators(t *testing.T) {
	tests := []struct {
		name     string
		graph    Graph
		expected map[ObjID]ObjID // node -> immediate dominator
	}{
		{
			name: "linear chain",
			graph: func() Graph {
				g := NewMemGraph()
				g.AddObject(&Object{ID: 1, Type: "table"})
				g.AddObject(&Object{ID: 2, Type: "closure", Ptrs: []ObjID{3}})
				g.AddObject(&Object{ID: 3, Type: "upvalue", Ptrs: []ObjID{4}})
				g.AddObject(&Object{ID: 4, Type: "string"})
				g.SetRoots(Roots{IDs: []ObjID{2}})
				return g
			}(),
			expected: map[ObjID]ObjID{2: RootID, 3: 2, 4: 3},
		},
		{
			name: "diamond",
			graph: func() Graph {
				g := NewMemGraph()
				g.AddObject(&Object{ID: 1, Type: "table", Ptrs: []ObjID{2, 3}})
				g.AddObject(&Object{ID: 2, Type: "table", Ptrs: []ObjID{4}})
				g.AddObject(&Object{ID: 3, Type: "table", Ptrs: []ObjID{4}})
				g.AddObject(&Object{ID: 4, Type: "string"})
				g.SetRoots(Roots{IDs: []ObjID{1}})
				return g
			}(),
			expected: map[ObjID]ObjID{1: RootID, 2: 1, 3: 1, 4: 1},
		},
		{
			name: "cycle with exit",
			graph: func() Graph {
				g := NewMemGraph()
				g.AddObject(&Object{ID: 1, Type: "table", Ptrs: []ObjID{2}})
				g.AddObject(&Object{ID: 2, Type: "table", Ptrs: []ObjID{3}})
				g.AddObject(&Object{ID: 3, Type: "table", Ptrs: []ObjID{4}})
				g.AddObject(&Object{ID: 4, Type: "table", Ptrs: []ObjID{2, 5}})
				g.AddObject(&Object{ID: 5, Type: "userdata"})
				g.SetRoots(Roots{IDs: []ObjID{1}})
				return g
			}(),
			expected: map[ObjID]ObjID{1: RootID, 2: 1, 3: 2, 4: 3, 5: 4},
		},
		{
			name: "weak edge adds no path",
			graph: func() Graph {
				g := NewMemGraph()
				g.AddObject(&Object{ID: 1, Type: "table", Ptrs: []ObjID{2, 3}})
				g.AddObject(&Object{ID: 2, Type: "table", Ptrs: []ObjID{4}})
				g.AddObject(&Object{ID: 3, Type: "table", Weak: []ObjID{4}})
				g.AddObject(&Object{ID: 4, Type: "userdata"})
				g.SetRoots(Roots{IDs: []ObjID{1}})
				return g
			}(),
			expected: map[ObjID]ObjID{1: RootID, 2: 1, 3: 1, 4: 2},
		},
		{
			name: "unreachable left out",
			graph: func() Graph {
				g := NewMemGraph()
				g.AddObject(&Object{ID: 1, Type: "table", Ptrs: []ObjID{2}})
				g.AddObject(&Object{ID: 2, Type: "string"})
				g.AddObject(&Object{ID: 3, Type: "table", Ptrs: []ObjID{2}})
				g.SetRoots(Roots{IDs: []ObjID{1}})
				return g
			}(),
			expected: map[ObjID]ObjID{1: RootID, 2: 1},
		},
		{
			name: "shared by two roots",
			graph: func() Graph {
				g := NewMemGraph()
				g.AddObject(&Object{ID: 1, Type: "thread", Ptrs: []ObjID{3}})
				g.AddObject(&Object{ID: 2, Type: "table", Ptrs: []ObjID{3}})
				g.AddObject(&Object{ID: 3, Type: "table"})
				g.SetRoots(Roots{IDs: []ObjID{1, 2}})
				return g
			}(),
			expected: map[ObjID]ObjID{1: RootID, 2: RootID, 3: RootID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dom := Dominators(tt.graph)
			if !reflect.DeepEqual(dom, tt.expected) {
				t.Errorf("Dominators() = %v, want %v", dom, tt.expected)
			}
		})
	}
}

func TestDominatorTree(t *testing.T) {
	g := NewMemGraph()
	g.AddObject(&Object{ID: 1, Type: "table", Ptrs: []ObjID{2, 3}})
	g.AddObject(&Object{ID: 2, Type: "table", Ptrs: []ObjID{4}})
	g.AddObject(&Object{ID: 3, Type: "table", Ptrs: []ObjID{4, 5}})
	g.AddObject(&Object{ID: 4, Type: "string"})
	g.AddObject(&Object{ID: 5, Type: "string"})
	g.SetRoots(Roots{IDs: []ObjID{1}})

	tree := DominatorTree(Dominators(g))
	expected := map[ObjID][]ObjID{
		RootID: {1},
		1:      {2, 3, 4},
		2:      {},
		3:      {5},
		4:      {},
		5:      {},
	}
	if !reflect.DeepEqual(tree, expected) {
		t.Errorf("DominatorTree() = %v, want %v", tree, expected)
	}
}

func TestDominates(t *testing.T) {
	g := heapFixture()
	idom := Dominators(g)

	tests := []struct {
		dom, node ObjID
		want      bool
	}{
		{2, 5, true},
		{3, 4, true},
		{4, 4, true},
		{RootID, 5, true},
		{6, 4, false},
		{5, 4, false},
		{1, 99, false},
	}
	for _, tt := range tests {
		if got := Dominates(idom, tt.dom, tt.node); got != tt.want {
			t.Errorf("Dominates(%d, %d) = %v, want %v", tt.dom, tt.node, got, tt.want)
		}
	}
}

// treeParent is the parent of node i in treeHeap.
func treeParent(i int) ObjID { return ObjID((i-2)/10 + 1) }

// treeHeap builds n tables where each node references up to ten
// children and its parent.
func treeHeap(n int) *MemGraph {
	g := NewMemGraph()
	for i := 1; i <= n; i++ {
		obj := &Object{ID: ObjID(i), Type: "table", Size: 40}
		if i > 1 {
			obj.Ptrs = append(obj.Ptrs, treeParent(i))
		}
		for c := 10*(i-1) + 2; c <= 10*(i-1)+11 && c <= n; c++ {
			obj.Ptrs = append(obj.Ptrs, ObjID(c))
		}
		g.AddObject(obj)
	}
	g.SetRoots(Roots{IDs: []ObjID{1}})
	return g
}

func TestDominatorsLargeHeap(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large heap test in short mode")
	}

	for _, n := range []int{1000, 100000} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			g := treeHeap(n)
			start := time.Now()
			dom := Dominators(g)
			elapsed := time.Since(start)

			if len(dom) != n {
				t.Fatalf("got %d dominators, want %d", len(dom), n)
			}
			for id, d := range dom {
				if id == 1 {
					continue
				}
				if want := treeParent(int(id)); d != want {
					t.Fatalf("idom(%d) = %d, want %d", id, d, want)
				}
			}
			if elapsed > 30*time.Second {
				t.Errorf("took %v for n=%d", elapsed, n)
			}
		})
	}
}

func TestDominatorsDeepChain(t *testing.T) {
	const n = 50000
	g := NewMemGraph()
	for i := 1; i <= n; i++ {
		obj := &Object{ID: ObjID(i), Type: "table", Size: 1}
		if i < n {
			obj.Ptrs = []ObjID{ObjID(i + 1)}
		}
		g.AddObject(obj)
	}
	g.SetRoots(Roots{IDs: []ObjID{1}})

	sizes := RetainedSize(g)
	if sizes[1] != n {
		t.Errorf("head retains %d, want %d", sizes[1], n)
	}
	if sizes[n] != 1 {
		t.Errorf("tail retains %d, want 1", sizes[n])
	}
}

func BenchmarkDominators(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			g := treeHeap(n)
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = Dominators(g)
			}
		})
	}
}
