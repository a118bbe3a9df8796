// ABOUTME: Sweeper for the strings and objects generation lists
// ABOUTME: Frees condemned objects and whitens survivors for the next cycle

package gc

// sweepStep sweeps at most max objects from the sweep cursor and returns
// the work done and whether the list is exhausted.
//
// Objects allocated during the sweep are linked at the list head, behind
// the cursor, so they are never visited by the sweep that saw them born.
func (c *Collector) sweepStep(max int) (work int, done bool) {
	for n := 0; c.sweepCursor != 0 && n < max; n++ {
		idx := c.sweepCursor
		s := &c.heap.slots[idx]
		c.sweepCursor = s.next
		work += SweepCost

		if !c.isDead(s.mark) {
			s.mark = s.mark.whiten(c.white)
			continue
		}
		if s.mark.Has(Finalizable) && !s.mark.Has(Finalized) {
			s.mark = s.mark.with(Finalized)
			c.heap.move(idx, listPending)
			continue
		}
		c.free(idx)
	}
	return work, c.sweepCursor == 0
}

// sweepList runs one sweep step for the current sweep phase and advances
// the phase when the list is exhausted.
func (c *Collector) sweepList() int {
	before := c.totalBytes
	work, done := c.sweepStep(SweepMax)
	if freed := before - c.totalBytes; freed < c.estimate {
		c.estimate -= freed
	} else {
		c.estimate = 0
	}
	if done {
		switch c.phase {
		case PhaseSweepString:
			c.sweepCursor = c.heap.lists[listObjects].head
			c.phase = PhaseSweep
		case PhaseSweep:
			c.phase = PhaseFinalize
		}
	}
	return work
}

// sweepAll frees every object on list whose mark is not protected by keep.
// It is used at teardown.
func (c *Collector) sweepAll(list listID, keep Mark) {
	c.heap.each(list, func(idx uint32, s *slot) {
		if keep != 0 && s.mark&keep != 0 {
			return
		}
		c.free(idx)
	})
}
