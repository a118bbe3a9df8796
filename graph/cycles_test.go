// ABOUTME: Tests for reference cycle detection and dot rendering
// ABOUTME: Checks SCC grouping, self references and graphviz attributes

package graph

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestCycles(t *testing.T) {
	g := NewMemGraph()
	g.AddObject(&Object{ID: 1, Type: "table", Ptrs: []ObjID{2}})
	g.AddObject(&Object{ID: 2, Type: "table", Ptrs: []ObjID{3}})
	g.AddObject(&Object{ID: 3, Type: "table", Ptrs: []ObjID{2, 4}})
	g.AddObject(&Object{ID: 4, Type: "table", Ptrs: []ObjID{4}})
	g.AddObject(&Object{ID: 5, Type: "closure", Ptrs: []ObjID{6}})
	g.AddObject(&Object{ID: 6, Type: "upvalue", Ptrs: []ObjID{5}})
	g.AddObject(&Object{ID: 7, Type: "table", Weak: []ObjID{8}})
	g.AddObject(&Object{ID: 8, Type: "table", Ptrs: []ObjID{7}})
	g.SetRoots(Roots{IDs: []ObjID{1}})

	got := Cycles(g)
	want := [][]ObjID{{2, 3}, {4}, {5, 6}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Cycles() = %v, want %v", got, want)
	}
}

func TestCyclesNone(t *testing.T) {
	if got := Cycles(heapFixture()); len(got) != 0 {
		t.Errorf("Cycles() = %v, want none", got)
	}
}

func TestWriteDot(t *testing.T) {
	g := NewMemGraph()
	g.AddObject(&Object{ID: 1, Type: "table", Size: 64, Color: "black", Ptrs: []ObjID{2}, Weak: []ObjID{3}})
	g.AddObject(&Object{ID: 2, Type: "string", Size: 20, Color: "gray", Label: "k"})
	g.AddObject(&Object{ID: 3, Type: "userdata", Size: 8, Color: "white"})
	g.SetRoots(Roots{IDs: []ObjID{1}})

	var buf bytes.Buffer
	if err := WriteDot(&buf, g); err != nil {
		t.Fatalf("WriteDot: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`digraph "heap" {`,
		`n0 [shape="diamond",label="roots"];`,
		`n0 -> n1;`,
		`n1 [shape="box",style="filled",fillcolor="gray20",fontcolor="white",label="table #1.0\n64 B"];`,
		`n1 -> n2;`,
		`n1 -> n3 [style="dashed"];`,
		`fillcolor="gray70",label="string #2.0 \"k\"\n20 B"`,
		`fillcolor="white",label="userdata #3.0\n8 B"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dot output missing %s\n%s", want, out)
		}
	}
}
