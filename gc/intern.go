// ABOUTME: Interned string table owned by the collector
// ABOUTME: Deduplicates strings and resurrects ones condemned but not yet swept

package gc

// stringHeader approximates the per-string overhead charged to the heap.
const stringHeader = 24

// Intern returns the handle of the string s, allocating it on the strings
// list if no live copy exists.
func (c *Collector) Intern(s string) (Handle, error) {
	if idx, ok := c.strings[s]; ok {
		sl := &c.heap.slots[idx]
		if c.isDead(sl.mark) {
			// Condemned by this cycle but still unswept: bring it back.
			sl.mark = sl.mark.whiten(c.white)
		}
		return c.heap.handleOf(idx), nil
	}
	h, err := c.allocate(TagString, stringHeader+uint64(len(s)), s, listStrings)
	if err != nil {
		return Nil, err
	}
	c.strings[s] = h.index()
	return h, nil
}

// Lookup returns the interned handle for s without allocating.
func (c *Collector) Lookup(s string) (Handle, bool) {
	idx, ok := c.strings[s]
	if !ok {
		return Nil, false
	}
	return c.heap.handleOf(idx), true
}

// StringOf returns the contents of the string object h.
func (c *Collector) StringOf(h Handle) (string, bool) {
	s, ok := c.heap.lookup(h)
	if !ok || s.tag != TagString {
		return "", false
	}
	str, ok := s.payload.(string)
	return str, ok
}
