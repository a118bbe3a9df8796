// ABOUTME: Write barriers that restore the tri-color invariant after stores
// ABOUTME: Forward barrier marks the child; backward barrier re-grays a table

package gc

// Barrier must be called after referent is stored into owner. While
// marking, a white referent of a black owner is marked on the spot; during
// sweep the owner is whitened instead so it is not asked again.
func (c *Collector) Barrier(owner, referent Handle) {
	o, ok := c.heap.lookup(owner)
	if !ok || !o.mark.IsBlack() {
		return
	}
	r, ok := c.heap.lookup(referent)
	if !ok || !r.mark.IsWhite() {
		return
	}
	c.stats.Barriers++
	if c.phase == PhasePropagate {
		c.reallyMark(referent.index(), r)
		return
	}
	o.mark = o.mark.whiten(c.white)
}

// BarrierBack must be called after any reference is stored into table t.
// A black table is turned gray again and queued for a rescan in the atomic
// step, which is cheaper than chasing every child of a densely written table.
func (c *Collector) BarrierBack(t Handle) {
	s, ok := c.heap.lookup(t)
	if !ok || !s.mark.IsBlack() {
		return
	}
	c.stats.Barriers++
	if c.phase == PhasePropagate {
		s.mark = s.mark.blackToGray()
		c.grayAgain = append(c.grayAgain, t.index())
		return
	}
	s.mark = s.mark.whiten(c.white)
}
