// ABOUTME: Heap consistency checks used by debug mode and tests
// ABOUTME: Detects black-to-white edges while marking and dangling edges after it

package gc

// CheckInvariant walks the heap and returns an *InvariantError for the first
// reference that breaks the collector's guarantees. While marking, no black
// object may reference a white one. Outside marking, no live object may
// reference a freed or condemned one.
func (c *Collector) CheckInvariant() error {
	var bad *InvariantError
	for l := listObjects; l < numLists && bad == nil; l++ {
		c.heap.each(l, func(idx uint32, s *slot) {
			if bad != nil {
				return
			}
			bad = c.checkSlot(idx, s)
		})
	}
	if bad != nil {
		return bad
	}
	return nil
}

func (c *Collector) checkSlot(idx uint32, s *slot) *InvariantError {
	tr, ok := s.payload.(Traverser)
	if !ok {
		return nil
	}
	if c.phase == PhasePropagate && !s.mark.IsBlack() {
		return nil
	}
	if c.phase != PhasePropagate && c.isDead(s.mark) {
		return nil
	}
	owner := c.heap.handleOf(idx)
	var bad *InvariantError
	tr.Traverse(TracerFunc(func(h Handle) {
		if bad != nil || h.IsNil() {
			return
		}
		r, ok := c.heap.lookup(h)
		switch {
		case !ok:
			bad = &InvariantError{Phase: c.phase, Owner: owner, Referent: h, Reason: "stale reference"}
		case r.mark.Has(Fixed):
		case c.phase == PhasePropagate && r.mark.IsWhite():
			bad = &InvariantError{Phase: c.phase, Owner: owner, Referent: h, Reason: "black references white"}
		case c.phase != PhasePropagate && c.isDead(r.mark):
			bad = &InvariantError{Phase: c.phase, Owner: owner, Referent: h, Reason: "live references condemned"}
		}
	}))
	return bad
}

// checkDebug panics when debug checking is enabled and the heap is
// inconsistent.
func (c *Collector) checkDebug() {
	if !c.debug {
		return
	}
	if err := c.CheckInvariant(); err != nil {
		panic(err)
	}
}
