// ABOUTME: Tests for the snapshot graph and its dense index
// ABOUTME: Validates ordering, replacement, roots, naming and edge resolution

package graph

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestForEachObjectOrder(t *testing.T) {
	g := NewMemGraph()
	for _, id := range []ObjID{7, 3, 11, 1} {
		g.AddObject(&Object{ID: id, Type: "table"})
	}

	var got []ObjID
	g.ForEachObject(func(obj *Object) { got = append(got, obj.ID) })
	want := []ObjID{1, 3, 7, 11}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}

	g.AddObject(&Object{ID: 2, Type: "string"})
	got = got[:0]
	g.ForEachObject(func(obj *Object) { got = append(got, obj.ID) })
	want = []ObjID{1, 2, 3, 7, 11}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order after add = %v, want %v", got, want)
	}
}

func TestAddObjectReplaces(t *testing.T) {
	g := NewMemGraph()
	g.AddObject(&Object{ID: 1, Type: "table", Size: 10})
	g.AddObject(&Object{ID: 1, Type: "userdata", Size: 20})

	if g.NumObjects() != 1 {
		t.Fatalf("NumObjects = %d, want 1", g.NumObjects())
	}
	if obj := g.GetObject(1); obj.Type != "userdata" || obj.Size != 20 {
		t.Errorf("GetObject(1) = %+v, want the replacement", obj)
	}
	count := 0
	g.ForEachObject(func(*Object) { count++ })
	if count != 1 {
		t.Errorf("iterated %d objects, want 1", count)
	}
	if g.GetObject(2) != nil {
		t.Error("GetObject of unknown ID should be nil")
	}
}

func TestRoots(t *testing.T) {
	g := NewMemGraph()
	g.SetRoots(Roots{IDs: []ObjID{4, 2}})
	if got := g.GetRoots().IDs; !reflect.DeepEqual(got, []ObjID{4, 2}) {
		t.Errorf("roots = %v", got)
	}
}

func TestObjectName(t *testing.T) {
	tests := []struct {
		obj  Object
		want string
	}{
		{Object{ID: 1<<32 | 5, Type: "table"}, "table #5.1"},
		{Object{ID: 1<<32 | 2, Type: "string", Label: "x"}, `string #2.1 "x"`},
		{Object{ID: 1<<32 | 2, Type: "string", Label: "abcdefghijklmnopqrstuvwxyz"}, `string #2.1 "abcdefghijklmnopqrstuvwx..."`},
	}
	for _, tt := range tests {
		if got := tt.obj.Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
	}
	if RootID.String() != "roots" {
		t.Errorf("RootID.String() = %q", RootID.String())
	}
}

func TestIndex(t *testing.T) {
	g := NewMemGraph()
	g.AddObject(&Object{ID: 10, Type: "table", Ptrs: []ObjID{20, 99}, Weak: []ObjID{30}})
	g.AddObject(&Object{ID: 20, Type: "closure", Ptrs: []ObjID{RootID}})
	g.AddObject(&Object{ID: 30, Type: "userdata"})
	g.SetRoots(Roots{IDs: []ObjID{10, 42}})

	x := Index(g)
	if x.NumNodes() != 4 {
		t.Fatalf("NumNodes = %d, want 4", x.NumNodes())
	}
	for n, id := range []ObjID{RootID, 10, 20, 30} {
		if x.ID(n) != id {
			t.Errorf("ID(%d) = %d, want %d", n, x.ID(n), id)
		}
		if got, ok := x.Node(id); !ok || got != n {
			t.Errorf("Node(%d) = %d, %v; want %d", id, got, ok, n)
		}
	}
	if _, ok := x.Node(99); ok {
		t.Error("dangling ID should have no node")
	}

	if got := x.Out(0); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("root edges = %v, want [1]", got)
	}
	if got := x.Out(1); !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("strong edges of 10 = %v, want [2]", got)
	}
	if got := x.Weak(1); !reflect.DeepEqual(got, []int{3}) {
		t.Errorf("weak edges of 10 = %v, want [3]", got)
	}
	if got := x.Out(2); len(got) != 0 {
		t.Errorf("edges into the root set should be dropped, got %v", got)
	}
}

func TestBuildReverseEdges(t *testing.T) {
	g := NewMemGraph()
	g.AddObject(&Object{ID: 3, Type: "table", Ptrs: []ObjID{1, 1}})
	g.AddObject(&Object{ID: 2, Type: "table", Ptrs: []ObjID{1}, Weak: []ObjID{4}})
	g.AddObject(&Object{ID: 1, Type: "string"})
	g.AddObject(&Object{ID: 4, Type: "userdata"})

	rev := BuildReverseEdges(g)
	if got := rev[1]; !reflect.DeepEqual(got, []ObjID{2, 3}) {
		t.Errorf("referrers of 1 = %v, want [2 3]", got)
	}
	if _, ok := rev[4]; ok {
		t.Error("weak references should not appear as referrers")
	}
}

func TestNameTruncatesOnRuneBoundary(t *testing.T) {
	prefix := "string " + ObjID(1).String() + " "
	tests := []struct {
		label string
		want  string
	}{
		{"short", `"short"`},
		{strings.Repeat("a", 30), `"` + strings.Repeat("a", 24) + `..."`},
		// byte 24 is the last byte of the eighth three-byte rune
		{"a" + strings.Repeat("\u4e16", 10), `"a` + strings.Repeat("\u4e16", 7) + `..."`},
		{"a" + strings.Repeat("\u00e9", 20), `"a` + strings.Repeat("\u00e9", 11) + `..."`},
	}
	for _, tt := range tests {
		obj := &Object{ID: 1, Type: "string", Label: tt.label}
		got := obj.Name()
		if !utf8.ValidString(got) {
			t.Errorf("Name(%q) = %q is not valid UTF-8", tt.label, got)
		}
		if got != prefix+tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.label, got, prefix+tt.want)
		}
	}
}
