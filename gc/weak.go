// ABOUTME: Weak-table resolver run at the end of marking
// ABOUTME: Removes entries whose weak key or value did not survive the mark

package gc

// isCleared reports whether a weak reference to h must be dropped. Strings
// are values and are kept alive instead. Finalized tables and userdata are
// cleared as values but kept as keys, so a finalizer can still be looked up
// by key.
func (c *Collector) isCleared(h Handle, isKey bool) bool {
	s, ok := c.heap.lookup(h)
	if !ok {
		return true
	}
	if s.tag == TagString {
		c.markObject(h)
		return false
	}
	if s.mark.IsWhite() {
		return true
	}
	return !isKey && s.mark.Has(Finalized)
}

// clearWeak asks every weak table reached this cycle to drop cleared
// entries. It must run before the white flip, while unmarked is readable.
func (c *Collector) clearWeak() {
	for _, idx := range c.weak {
		w, ok := c.heap.slots[idx].payload.(Weak)
		if !ok {
			continue
		}
		n := w.ClearWeak(c.isCleared)
		c.stats.WeakCleared += uint64(n)
	}
}
