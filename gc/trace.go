// ABOUTME: Mark phase: root marking, gray propagation and the atomic step
// ABOUTME: Blackens gray objects and grays their white children

package gc

// marker is the Tracer handed to payloads during marking. It counts the
// references it is given so propagation can charge for them.
type marker struct {
	c       *Collector
	visited int
}

func (m *marker) Mark(h Handle) {
	m.visited++
	m.c.markObject(h)
}

// markObject grays h if it is white. Stale handles are ignored.
func (c *Collector) markObject(h Handle) {
	s, ok := c.heap.lookup(h)
	if !ok || !s.mark.IsWhite() {
		return
	}
	c.reallyMark(h.index(), s)
}

// reallyMark turns a white object gray and queues it for scanning.
// Terminal objects go straight to black.
func (c *Collector) reallyMark(idx uint32, s *slot) {
	s.mark = s.mark.toGray()
	if _, ok := s.payload.(Traverser); !ok {
		s.mark = s.mark.grayToBlack()
		return
	}
	c.gray = append(c.gray, idx)
}

// markRoots starts a cycle: resets the work lists and grays the root set.
func (c *Collector) markRoots() {
	c.gray = c.gray[:0]
	c.grayAgain = c.grayAgain[:0]
	c.weak = c.weak[:0]
	c.markRootSet()
	c.phase = PhasePropagate
	c.log.Debug("gc: cycle start", "bytes", c.totalBytes, "threshold", c.threshold)
}

func (c *Collector) markRootSet() {
	m := &marker{c: c}
	if c.roots != nil {
		c.roots.MarkRoots(m)
	}
	if !c.constructing.IsNil() {
		c.markObject(c.constructing)
	}
}

// propagateMark scans one gray object and returns the work it cost: one
// unit for the object plus one per reference visited.
func (c *Collector) propagateMark() int {
	n := len(c.gray)
	idx := c.gray[n-1]
	c.gray = c.gray[:n-1]
	s := &c.heap.slots[idx]
	if !s.mark.IsGray() {
		// Queued twice, for example by a barrier; already scanned.
		return 1
	}
	s.mark = s.mark.grayToBlack()

	m := &marker{c: c}
	if tr, ok := s.payload.(Traverser); ok {
		tr.Traverse(m)
	}
	// Re-read the slot: traversal may have grown the arena.
	s = &c.heap.slots[idx]

	if w, ok := s.payload.(Weak); ok {
		mode := w.WeakMode()
		s.mark = s.mark.without(weakBits).with(mode.marks())
		if mode != WeakNone {
			// Weak tables stay gray until the atomic step clears them.
			s.mark = s.mark.blackToGray()
			c.weak = append(c.weak, idx)
		}
	}
	if s.tag == TagThread {
		// Stack writes carry no barrier, so threads are rescanned in the
		// atomic step.
		s.mark = s.mark.blackToGray()
		c.grayAgain = append(c.grayAgain, idx)
	}
	return 1 + m.visited
}

// propagateAll drains the gray list and returns the total work.
func (c *Collector) propagateAll() int {
	work := 0
	for len(c.gray) > 0 {
		work += c.propagateMark()
	}
	return work
}

// atomic finishes marking without yielding to the mutator, then flips the
// current white so unmarked objects become condemned.
func (c *Collector) atomic() {
	c.markRootSet()
	c.propagateAll()

	// Weak tables were left gray; rescan them with everything reached since.
	c.gray = append(c.gray, c.weak...)
	c.weak = c.weak[:0]
	c.propagateAll()

	again := c.grayAgain
	c.grayAgain = nil
	c.gray = append(c.gray, again...)
	c.propagateAll()

	pendingBytes := c.separate(false)
	c.markPending()
	c.propagateAll()

	c.clearWeak()

	c.white = otherWhite(c.white)
	c.grayAgain = c.grayAgain[:0]
	c.weak = c.weak[:0]

	if pendingBytes > c.totalBytes {
		pendingBytes = c.totalBytes
	}
	c.estimate = c.totalBytes - pendingBytes
	c.sweepCursor = c.heap.lists[listStrings].head
	c.phase = PhaseSweepString
}
