// ABOUTME: Graph interface and in-memory implementation
// ABOUTME: Stores heap snapshots and iterates them in ID order

package graph

import (
	"slices"
	"sync"
)

// Graph represents a heap object graph
type Graph interface {
	// AddObject adds or replaces an object
	AddObject(obj *Object)

	// GetObject retrieves an object by ID, or nil
	GetObject(id ObjID) *Object

	// NumObjects returns the total number of objects
	NumObjects() int

	// ForEachObject iterates over all objects in ascending ID order
	ForEachObject(fn func(*Object))

	// SetRoots sets the root set
	SetRoots(roots Roots)

	// GetRoots returns the root set
	GetRoots() Roots
}

// MemGraph is an in-memory implementation of Graph
type MemGraph struct {
	mu      sync.RWMutex
	objects map[ObjID]*Object
	order   []ObjID // sorted lazily
	sorted  bool
	roots   Roots
}

// NewMemGraph creates an empty graph
func NewMemGraph() *MemGraph {
	return &MemGraph{
		objects: make(map[ObjID]*Object),
		sorted:  true,
	}
}

// AddObject adds an object, replacing any object with the same ID
func (g *MemGraph) AddObject(obj *Object) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.objects[obj.ID]; !ok {
		g.order = append(g.order, obj.ID)
		g.sorted = false
	}
	g.objects[obj.ID] = obj
}

// GetObject retrieves an object by ID
func (g *MemGraph) GetObject(id ObjID) *Object {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.objects[id]
}

// NumObjects returns the total number of objects
func (g *MemGraph) NumObjects() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.objects)
}

// ForEachObject iterates over all objects in ascending ID order
func (g *MemGraph) ForEachObject(fn func(*Object)) {
	g.mu.Lock()
	if !g.sorted {
		slices.Sort(g.order)
		g.sorted = true
	}
	order := g.order
	g.mu.Unlock()

	for _, id := range order {
		fn(g.GetObject(id))
	}
}

// SetRoots sets the root set
func (g *MemGraph) SetRoots(roots Roots) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.roots = roots
}

// GetRoots returns the root set
func (g *MemGraph) GetRoots() Roots {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.roots
}
