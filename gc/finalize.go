// ABOUTME: Finalizer manager: separation, resurrection and invocation
// ABOUTME: Each object's finalizer runs at most once; failures are recorded

package gc

import (
	"fmt"
	"slices"
)

// Finalizer is called with the object being finalized. The object may be
// resurrected by storing h somewhere reachable.
type Finalizer func(h Handle) error

// SetFinalizer attaches fn to h, or removes the finalizer when fn is nil.
// Only tables and userdata can carry finalizers.
func (c *Collector) SetFinalizer(h Handle, fn Finalizer) error {
	s, ok := c.heap.lookup(h)
	if !ok {
		return ErrStaleHandle
	}
	if s.tag != TagTable && s.tag != TagUserdata {
		return fmt.Errorf("%s %s: %w", s.tag, h, ErrNotFinalizable)
	}
	if fn == nil {
		s.mark = s.mark.without(Finalizable)
		delete(c.finalizers, h.index())
		return nil
	}
	s.mark = s.mark.with(Finalizable)
	c.finalizers[h.index()] = fn
	return nil
}

// separate moves finalizable objects that have not been finalized yet onto
// the pending list. With all set every such object moves; otherwise only
// unmarked ones. It returns the bytes moved.
func (c *Collector) separate(all bool) uint64 {
	idxs := make([]uint32, 0, len(c.finalizers))
	for idx := range c.finalizers {
		idxs = append(idxs, idx)
	}
	slices.Sort(idxs)

	var moved uint64
	for _, idx := range idxs {
		s := &c.heap.slots[idx]
		if s.list != listObjects || s.mark.Has(Finalized) {
			continue
		}
		if !all && !s.mark.IsWhite() {
			continue
		}
		s.mark = s.mark.with(Finalized)
		c.heap.move(idx, listPending)
		moved += s.size
	}
	return moved
}

// markPending marks every object waiting for its finalizer, so that it and
// everything it references survive until the finalizer has run.
func (c *Collector) markPending() {
	c.heap.each(listPending, func(idx uint32, s *slot) {
		s.mark = s.mark.whiten(c.white)
		c.reallyMark(idx, s)
	})
}

// runFinalizers runs up to n pending finalizers and returns how many ran.
// Each object goes back to the objects list as current white before its
// finalizer is called; if nothing stores it, the next cycle frees it.
func (c *Collector) runFinalizers(n int) int {
	ran := 0
	for ran < n {
		idx := c.heap.lists[listPending].head
		if idx == 0 {
			break
		}
		c.heap.move(idx, listObjects)
		s := &c.heap.slots[idx]
		s.mark = s.mark.whiten(c.white).without(Finalizable)
		fn := c.finalizers[idx]
		delete(c.finalizers, idx)
		h := c.heap.handleOf(idx)
		if fn != nil {
			c.callFinalizer(h, s.tag, fn)
		}
		ran++
	}
	return ran
}

func (c *Collector) callFinalizer(h Handle, tag Tag, fn Finalizer) {
	c.stats.FinalizersRun++
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn(h)
	}()
	if err == nil {
		return
	}
	ferr := &FinalizerError{Object: h, Tag: tag, Err: err}
	c.stats.FinalizerErrors++
	c.log.Warn("gc: finalizer failed", "object", h.String(), "tag", tag.String(), "err", err)
	if c.onError != nil {
		c.onError(ferr)
	}
}

// Pending returns the number of objects waiting for their finalizer.
func (c *Collector) Pending() int {
	return c.heap.lists[listPending].count
}
