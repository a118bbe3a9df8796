// ABOUTME: Control interface mirroring the host API's collectgarbage options
// ABOUTME: Stop, restart, collect, count, step and tuning of pause and stepmul

package gc

import (
	"fmt"
	"math"
)

// Op selects a Control operation.
type Op int

const (
	// OpStop disables automatic increments until OpRestart.
	OpStop Op = iota
	// OpRestart re-enables automatic increments.
	OpRestart
	// OpCollect runs a full cycle.
	OpCollect
	// OpCount returns the bytes in use divided by 1024.
	OpCount
	// OpCountB returns the bytes in use modulo 1024.
	OpCountB
	// OpStep runs increments worth arg KiB of allocation; the result is 1
	// if a cycle finished.
	OpStep
	// OpSetPause sets the pause percentage and returns the previous one.
	OpSetPause
	// OpSetStepMul sets the step multiplier and returns the previous one.
	OpSetStepMul
)

var opNames = [...]string{"stop", "restart", "collect", "count", "countb", "step", "setpause", "setstepmul"}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return fmt.Sprintf("Op(%d)", int(o))
	}
	return opNames[o]
}

// ParseOp returns the Op with the given name.
func ParseOp(name string) (Op, error) {
	for i, n := range opNames {
		if n == name {
			return Op(i), nil
		}
	}
	return 0, fmt.Errorf("unknown gc option %q", name)
}

// Control performs op and returns its integer result.
func (c *Collector) Control(op Op, arg int) (int, error) {
	if c.closed {
		return 0, ErrClosed
	}
	switch op {
	case OpStop:
		c.stopped = true
		c.threshold = math.MaxUint64
	case OpRestart:
		c.stopped = false
		c.threshold = c.totalBytes
	case OpCollect:
		return 0, c.Collect()
	case OpCount:
		return int(c.totalBytes >> 10), nil
	case OpCountB:
		return int(c.totalBytes & 0x3ff), nil
	case OpStep:
		if c.running {
			return 0, ErrReentrant
		}
		return c.stepKiB(arg), nil
	case OpSetPause:
		prev := c.pause
		c.pause = arg
		if c.pause <= 0 {
			c.pause = 1
		}
		return prev, nil
	case OpSetStepMul:
		prev := c.stepMul
		c.stepMul = arg
		if c.stepMul <= 0 {
			c.stepMul = 1
		}
		return prev, nil
	default:
		return 0, fmt.Errorf("gc control %s: unsupported", op)
	}
	return 0, nil
}

// stepKiB pretends kib KiB were allocated and runs increments until that
// debt is paid. It returns 1 if a cycle completed.
func (c *Collector) stepKiB(kib int) int {
	stopped := c.stopped
	c.stopped = false
	defer func() {
		c.stopped = stopped
		if stopped {
			c.threshold = math.MaxUint64
		}
	}()

	a := uint64(0)
	if kib > 0 {
		a = uint64(kib) << 10
	}
	if a <= c.totalBytes {
		c.threshold = c.totalBytes - a
	} else {
		c.threshold = 0
	}
	for c.threshold <= c.totalBytes {
		if c.Step() {
			return 1
		}
	}
	return 0
}
