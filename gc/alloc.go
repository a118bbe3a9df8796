// ABOUTME: Allocator: links new objects as current white and tracks byte debt
// ABOUTME: Retries once after a full collection when storage is exhausted

package gc

import "fmt"

// Allocate creates a heap object of the given tag and size holding payload.
// It may run a collection increment first. Strings should be created with
// Intern instead.
func (c *Collector) Allocate(tag Tag, size uint64, payload any) (Handle, error) {
	list := listObjects
	if tag == TagString {
		list = listStrings
	}
	return c.allocate(tag, size, payload, list)
}

func (c *Collector) allocate(tag Tag, size uint64, payload any, list listID) (Handle, error) {
	if c.closed {
		return Nil, ErrClosed
	}
	// Step before linking so the new object cannot be condemned by a white
	// flip that happens inside this call.
	if !c.running && c.totalBytes+size >= c.threshold {
		c.Step()
	}
	if err := c.reserve(size); err != nil {
		return Nil, fmt.Errorf("allocate %s of %d bytes: %w", tag, size, err)
	}
	h := c.heap.register(tag, size, payload, list, c.white)
	c.totalBytes += size
	c.stats.Allocs++
	c.stats.TotalAlloc += size
	return h, nil
}

// reserve claims size bytes from storage, running one full collection and
// retrying once on failure. Inside a running collection no retry is made.
func (c *Collector) reserve(size uint64) error {
	err := c.storage.Reserve(size)
	if err == nil {
		return nil
	}
	if c.running {
		return err
	}
	c.log.Debug("gc: allocation failed, collecting", "size", size, "bytes", c.totalBytes)
	c.running = true
	c.fullCycle()
	c.running = false
	return c.storage.Reserve(size)
}

// free releases the slot at idx and its storage.
func (c *Collector) free(idx uint32) {
	s := &c.heap.slots[idx]
	if s.tag == TagString {
		if str, ok := s.payload.(string); ok && c.strings[str] == idx {
			delete(c.strings, str)
		}
	}
	delete(c.finalizers, idx)
	size := c.heap.release(idx)
	c.storage.Release(size)
	if size > c.totalBytes {
		size = c.totalBytes
	}
	c.totalBytes -= size
	c.stats.Frees++
	c.stats.TotalFreed += size
}

// SetConstructing stores h in the single construction slot, which is marked
// as a root, and returns the previous occupant. Runtimes use it to protect an
// object that is not yet reachable while further allocations happen.
func (c *Collector) SetConstructing(h Handle) Handle {
	prev := c.constructing
	c.constructing = h
	if c.phase == PhasePropagate && !h.IsNil() {
		c.markObject(h)
	}
	return prev
}

// Fix makes h permanent: ordinary cycles never free it. Fixed objects must
// be terminal.
func (c *Collector) Fix(h Handle) error {
	s, ok := c.heap.lookup(h)
	if !ok {
		return ErrStaleHandle
	}
	s.mark = s.mark.with(Fixed)
	return nil
}

// FixSuper makes h survive until the collector is closed. It is used for
// the main thread, which is also reached through the root set.
func (c *Collector) FixSuper(h Handle) error {
	s, ok := c.heap.lookup(h)
	if !ok {
		return ErrStaleHandle
	}
	s.mark = s.mark.with(Fixed | SuperFixed)
	return nil
}
