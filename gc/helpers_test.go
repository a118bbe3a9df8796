// ABOUTME: Test fixtures: a minimal object model over the collector
// ABOUTME: Nodes with strong references, weak maps and an editable root set

package gc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// node is a traversable payload holding strong references.
type node struct {
	refs []Handle
}

func (n *node) Traverse(t Tracer) {
	for _, r := range n.refs {
		t.Mark(r)
	}
}

// weakMap is a table-like payload whose sides are weak according to mode.
type weakMap struct {
	mode    WeakMode
	entries map[Handle]Handle
}

func newWeakMap(mode WeakMode) *weakMap {
	return &weakMap{mode: mode, entries: make(map[Handle]Handle)}
}

func (w *weakMap) Traverse(t Tracer) {
	for k, v := range w.entries {
		if w.mode&WeakKeys == 0 {
			t.Mark(k)
		}
		if w.mode&WeakValues == 0 {
			t.Mark(v)
		}
	}
}

func (w *weakMap) WeakMode() WeakMode { return w.mode }

func (w *weakMap) ClearWeak(cleared func(h Handle, isKey bool) bool) int {
	n := 0
	for k, v := range w.entries {
		if (w.mode&WeakKeys != 0 && cleared(k, true)) || (w.mode&WeakValues != 0 && cleared(v, false)) {
			delete(w.entries, k)
			n++
		}
	}
	return n
}

// rootSet is an editable list of roots.
type rootSet struct {
	hs []Handle
}

func (r *rootSet) MarkRoots(t Tracer) {
	for _, h := range r.hs {
		t.Mark(h)
	}
}

func (r *rootSet) add(h Handle) { r.hs = append(r.hs, h) }

func (r *rootSet) remove(h Handle) {
	for i, x := range r.hs {
		if x == h {
			r.hs = append(r.hs[:i], r.hs[i+1:]...)
			return
		}
	}
}

func newTestCollector(t *testing.T, cfg Config) (*Collector, *rootSet) {
	t.Helper()
	roots := &rootSet{}
	cfg.Debug = true
	return New(roots, cfg), roots
}

// newStopped returns a collector that only collects when asked to.
func newStopped(t *testing.T) (*Collector, *rootSet) {
	t.Helper()
	c, roots := newTestCollector(t, Config{})
	_, err := c.Control(OpStop, 0)
	require.NoError(t, err)
	return c, roots
}

func allocNode(t *testing.T, c *Collector, size uint64) (Handle, *node) {
	t.Helper()
	n := &node{}
	h, err := c.Allocate(TagTable, size, n)
	require.NoError(t, err)
	return h, n
}

// runUntil single-steps the collector until it reaches phase p.
func runUntil(t *testing.T, c *Collector, p Phase) {
	t.Helper()
	for i := 0; c.phase != p; i++ {
		require.Less(t, i, 1_000_000, "collector never reached %s", p)
		c.singleStep()
	}
}

// reachable returns every handle reachable from the roots along strong
// references.
func reachable(c *Collector) []Handle {
	seen := make(map[Handle]bool)
	var out []Handle
	var stack []Handle
	c.EachRoot(func(h Handle) { stack = append(stack, h) })
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if h.IsNil() || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
		_ = c.References(h, func(r Handle) { stack = append(stack, r) })
	}
	return out
}
