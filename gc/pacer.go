// ABOUTME: Pacer and phase state machine driving incremental collection
// ABOUTME: Converts allocation debt into bounded work and retunes the threshold

package gc

import "math"

// singleStep performs the smallest unit of work for the current phase and
// returns its cost.
func (c *Collector) singleStep() int {
	switch c.phase {
	case PhasePause:
		c.markRoots()
		return 0
	case PhasePropagate:
		if len(c.gray) > 0 {
			return c.propagateMark()
		}
		c.atomic()
		return 0
	case PhaseSweepString, PhaseSweep:
		return c.sweepList()
	case PhaseFinalize:
		if c.runFinalizers(1) > 0 {
			return FinalizeCost
		}
		c.finishCycle()
		return 0
	default:
		panic("gc: unknown phase")
	}
}

// finishCycle returns to pause and computes the next threshold.
func (c *Collector) finishCycle() {
	c.phase = PhasePause
	c.debt = 0
	c.setThreshold()
	c.stats.Cycles++
	c.stats.ThresholdHistory = append(c.stats.ThresholdHistory, c.threshold)
	if n := len(c.stats.ThresholdHistory); n > historyLen {
		c.stats.ThresholdHistory = c.stats.ThresholdHistory[n-historyLen:]
	}
	c.log.Debug("gc: cycle done", "bytes", c.totalBytes, "estimate", c.estimate, "threshold", c.threshold)
}

// setThreshold sets the next trigger to Pause percent of the retained bytes.
func (c *Collector) setThreshold() {
	if c.stopped {
		c.threshold = math.MaxUint64
		return
	}
	t := c.estimate / 100 * uint64(c.pause)
	if t < StepSize {
		t = StepSize
	}
	c.threshold = t
}

// MaybeStep runs an increment when allocation has reached the threshold.
// It is the advisory entry point for interpreter safe points.
func (c *Collector) MaybeStep() bool {
	if c.totalBytes < c.threshold {
		return false
	}
	return c.Step()
}

// Step runs one bounded increment of collection work and reports whether a
// cycle completed. From pause it starts a new cycle by marking the roots.
func (c *Collector) Step() bool {
	if c.running || c.closed {
		return false
	}
	c.running = true
	defer func() { c.running = false }()

	lim := StepSize / 100 * c.stepMul
	if lim <= 0 {
		lim = math.MaxInt / 2
	}
	if c.totalBytes > c.threshold {
		c.debt += c.totalBytes - c.threshold
	}
	completed := false
	for {
		lim -= c.singleStep()
		if c.phase == PhasePause {
			completed = true
			break
		}
		if lim <= 0 {
			break
		}
	}
	if !completed {
		if c.debt < StepSize {
			c.threshold = c.totalBytes + StepSize
		} else {
			c.debt -= StepSize
			c.threshold = c.totalBytes
		}
	}
	if c.stopped {
		c.threshold = math.MaxUint64
	}
	c.stats.Steps++
	c.checkDebug()
	return completed
}

// Collect runs a full collection synchronously, ignoring the step budget,
// and leaves the collector in pause.
func (c *Collector) Collect() error {
	if c.closed {
		return ErrClosed
	}
	if c.running {
		return ErrReentrant
	}
	c.running = true
	defer func() { c.running = false }()
	c.fullCycle()
	c.checkDebug()
	return nil
}

func (c *Collector) fullCycle() {
	if c.phase <= PhasePropagate {
		// Abandon the partial mark: sweeping without a flip condemns
		// nothing and whitens everything.
		c.gray = c.gray[:0]
		c.grayAgain = c.grayAgain[:0]
		c.weak = c.weak[:0]
		c.sweepCursor = c.heap.lists[listStrings].head
		c.phase = PhaseSweepString
	}
	for c.phase != PhaseFinalize {
		c.singleStep()
	}
	c.markRoots()
	for c.phase != PhasePause {
		c.singleStep()
	}
	c.stats.FullCycles++
}

// Close runs every outstanding finalizer and frees all objects, fixed ones
// included. The collector cannot be used afterwards.
func (c *Collector) Close() error {
	if c.closed {
		return nil
	}
	if c.running {
		return ErrReentrant
	}
	c.running = true
	defer func() { c.running = false }()

	// Finalizers may create new finalizable objects; keep going until none
	// are left.
	for c.separate(true) > 0 || c.Pending() > 0 {
		c.runFinalizers(math.MaxInt)
	}
	c.sweepAll(listStrings, 0)
	c.sweepAll(listObjects, 0)
	c.sweepAll(listPending, 0)
	c.gray, c.grayAgain, c.weak = nil, nil, nil
	c.constructing = Nil
	c.phase = PhasePause
	c.closed = true
	c.log.Debug("gc: closed", "frees", c.stats.Frees)
	return nil
}
