// ABOUTME: JSON snapshot format, readable and writable
// ABOUTME: Objects carry tag, size, color, list, string contents and both edge kinds

package heapdump

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/prateek/tricolor/graph"
)

// JSON reads and writes snapshots as a single JSON document
type JSON struct{}

type jsonDump struct {
	Objects []jsonObject  `json:"objects"`
	Roots   []graph.ObjID `json:"roots"`
}

type jsonObject struct {
	ID    graph.ObjID   `json:"id"`
	Type  string        `json:"type"`
	Size  uint64        `json:"size"`
	Color string        `json:"color,omitempty"`
	List  string        `json:"list,omitempty"`
	Label string        `json:"label,omitempty"`
	Ptrs  []graph.ObjID `json:"ptrs"`
	Weak  []graph.ObjID `json:"weak,omitempty"`
}

func (JSON) Name() string { return "json" }

// CanParse checks if the input looks like our JSON format
func (JSON) CanParse(r io.Reader) bool {
	buf := make([]byte, 1024)
	n, err := r.Read(buf)
	if err != nil && err != io.EOF {
		return false
	}
	if n == 0 {
		return false
	}

	// The preview may end mid-document.
	dec := json.NewDecoder(bytes.NewReader(buf[:n]))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return false
	}
	tok, err := dec.Token()
	return err == nil && tok == "objects"
}

// Parse reads the JSON dump and builds a graph
func (JSON) Parse(r io.Reader) (graph.Graph, error) {
	var dump jsonDump
	if err := json.NewDecoder(r).Decode(&dump); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	g := graph.NewMemGraph()
	for i, obj := range dump.Objects {
		if obj.ID == graph.RootID {
			return nil, fmt.Errorf("object at index %d missing ID", i)
		}
		g.AddObject(&graph.Object{
			ID:    obj.ID,
			Type:  obj.Type,
			Size:  obj.Size,
			Color: obj.Color,
			List:  obj.List,
			Label: obj.Label,
			Ptrs:  obj.Ptrs,
			Weak:  obj.Weak,
		})
	}
	g.SetRoots(graph.Roots{IDs: dump.Roots})
	return g, nil
}

// Write encodes g as indented JSON with objects in ID order
func (JSON) Write(w io.Writer, g graph.Graph) error {
	dump := jsonDump{
		Objects: make([]jsonObject, 0, g.NumObjects()),
		Roots:   g.GetRoots().IDs,
	}
	if dump.Roots == nil {
		dump.Roots = []graph.ObjID{}
	}
	g.ForEachObject(func(obj *graph.Object) {
		ptrs := obj.Ptrs
		if ptrs == nil {
			ptrs = []graph.ObjID{}
		}
		dump.Objects = append(dump.Objects, jsonObject{
			ID:    obj.ID,
			Type:  obj.Type,
			Size:  obj.Size,
			Color: obj.Color,
			List:  obj.List,
			Label: obj.Label,
			Ptrs:  ptrs,
			Weak:  obj.Weak,
		})
	})
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dump)
}

func init() {
	Register(JSON{})
}
