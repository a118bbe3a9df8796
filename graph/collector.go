// ABOUTME: Snapshots a live collector heap into a MemGraph
// ABOUTME: Records strong and weak edges, colors, and the root set

package graph

import "github.com/prateek/tricolor/gc"

type weakTraverser interface {
	TraverseWeak(t gc.Tracer)
}

// FromCollector snapshots every object in c. The root set holds the
// handles c's roots report plus every fixed object, since fixed objects
// are never collected.
func FromCollector(c *gc.Collector) *MemGraph {
	g := NewMemGraph()
	var roots Roots
	seen := make(map[ObjID]bool)
	addRoot := func(h gc.Handle) {
		id := ObjID(h)
		if h.IsNil() || seen[id] {
			return
		}
		seen[id] = true
		roots.IDs = append(roots.IDs, id)
	}

	c.EachObject(func(info gc.ObjectInfo) {
		obj := &Object{
			ID:    ObjID(info.Handle),
			Type:  info.Tag.String(),
			Size:  info.Size,
			Color: info.Mark.Color().String(),
			List:  info.List,
		}
		_ = c.References(info.Handle, func(r gc.Handle) {
			if !r.IsNil() {
				obj.Ptrs = append(obj.Ptrs, ObjID(r))
			}
		})
		if p, ok := c.Payload(info.Handle); ok {
			if w, ok := p.(weakTraverser); ok {
				w.TraverseWeak(gc.TracerFunc(func(r gc.Handle) {
					if !r.IsNil() {
						obj.Weak = append(obj.Weak, ObjID(r))
					}
				}))
			}
		}
		if s, ok := c.StringOf(info.Handle); ok {
			obj.Label = s
		}
		if info.Mark.Has(gc.Fixed) {
			addRoot(info.Handle)
		}
		g.AddObject(obj)
	})

	c.EachRoot(addRoot)
	g.SetRoots(roots)
	return g
}
