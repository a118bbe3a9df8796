// ABOUTME: Tests for the paths-to-roots search
// ABOUTME: Validates shortest chains, weak edges, cycles, limits and formatting

package graph

import (
	"reflect"
	"testing"
)

// heapFixture models globals holding a closure whose upvalue refers to a
// table, plus a weak cache that also points at the table.
//
//	1 globals -> 2 closure -> 3 upvalue -> 4 table -> 5 string
//	1 globals -> 6 cache ~~weak~~> 4
func heapFixture() *MemGraph {
	g := NewMemGraph()
	g.AddObject(&Object{ID: 1, Type: "table", Ptrs: []ObjID{2, 6}})
	g.AddObject(&Object{ID: 2, Type: "closure", Ptrs: []ObjID{3}})
	g.AddObject(&Object{ID: 3, Type: "upvalue", Ptrs: []ObjID{4}})
	g.AddObject(&Object{ID: 4, Type: "table", Ptrs: []ObjID{5}})
	g.AddObject(&Object{ID: 5, Type: "string", Label: "payload"})
	g.AddObject(&Object{ID: 6, Type: "table", Weak: []ObjID{4}})
	g.SetRoots(Roots{IDs: []ObjID{1}})
	return g
}

func TestPathsToRoots(t *testing.T) {
	g := heapFixture()

	tests := []struct {
		name     string
		from     ObjID
		maxPaths int
		want     []Path
	}{
		{"root itself", 1, 5, []Path{{IDs: []ObjID{1}}}},
		{"one hop", 2, 5, []Path{{IDs: []ObjID{2, 1}}}},
		{"through upvalue", 5, 5, []Path{{IDs: []ObjID{5, 4, 3, 2, 1}}}},
		{"weak referrer ignored", 4, 5, []Path{{IDs: []ObjID{4, 3, 2, 1}}}},
		{"zero limit", 4, 0, nil},
		{"unknown object", 99, 5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := PathsToRoots(g, tt.from, tt.maxPaths)
			if !reflect.DeepEqual(paths, tt.want) {
				t.Errorf("PathsToRoots() = %v, want %v", paths, tt.want)
			}
		})
	}
}

func TestPathsWithCycles(t *testing.T) {
	// 1 (root) -> 2 -> 3 -> 2
	g := NewMemGraph()
	g.AddObject(&Object{ID: 1, Type: "table", Ptrs: []ObjID{2}})
	g.AddObject(&Object{ID: 2, Type: "table", Ptrs: []ObjID{3}})
	g.AddObject(&Object{ID: 3, Type: "table", Ptrs: []ObjID{2, 3}})
	g.SetRoots(Roots{IDs: []ObjID{1}})

	paths := PathsToRoots(g, 3, 5)
	want := []Path{{IDs: []ObjID{3, 2, 1}}}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("PathsToRoots() with cycle = %v, want %v", paths, want)
	}
}

func TestUnreachableGarbage(t *testing.T) {
	// A cycle that nothing roots has no paths.
	g := heapFixture()
	g.AddObject(&Object{ID: 7, Type: "table", Ptrs: []ObjID{8}})
	g.AddObject(&Object{ID: 8, Type: "table", Ptrs: []ObjID{7}})

	if paths := PathsToRoots(g, 8, 5); len(paths) != 0 {
		t.Errorf("expected no paths for garbage, got %v", paths)
	}
}

func TestMultipleRootsAndLimit(t *testing.T) {
	g := NewMemGraph()
	g.AddObject(&Object{ID: 1, Type: "thread", Ptrs: []ObjID{4}})
	g.AddObject(&Object{ID: 2, Type: "table", Ptrs: []ObjID{4}})
	g.AddObject(&Object{ID: 3, Type: "table", Ptrs: []ObjID{4}})
	g.AddObject(&Object{ID: 4, Type: "userdata"})
	g.SetRoots(Roots{IDs: []ObjID{1, 2, 3}})

	paths := PathsToRoots(g, 4, 5)
	want := []Path{{IDs: []ObjID{4, 1}}, {IDs: []ObjID{4, 2}}, {IDs: []ObjID{4, 3}}}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("PathsToRoots() = %v, want %v", paths, want)
	}

	if paths := PathsToRoots(g, 4, 2); len(paths) != 2 {
		t.Errorf("expected 2 paths with limit 2, got %d", len(paths))
	}
}

func TestPathFormat(t *testing.T) {
	g := heapFixture()
	paths := PathsToRoots(g, 5, 1)
	if len(paths) != 1 {
		t.Fatalf("expected one path, got %v", paths)
	}
	want := `table #1.0 -> closure #2.0 -> upvalue #3.0 -> table #4.0 -> string #5.0 "payload"`
	if got := paths[0].Format(g); got != want {
		t.Errorf("Format() = %q\nwant %q", got, want)
	}

	missing := Path{IDs: []ObjID{9, 1}}
	if got := missing.Format(g); got != "table #1.0 -> #9.0" {
		t.Errorf("Format() with unknown object = %q", got)
	}
}
