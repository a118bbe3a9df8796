// ABOUTME: Collector context: configuration, phase state and introspection
// ABOUTME: One Collector per runtime instance; not safe for concurrent use

// Package gc implements an incremental, non-moving, tri-color mark-and-sweep
// collector for a single-threaded dynamic-language runtime.
//
// The collector advances in bounded increments driven by allocation debt,
// through the phases pause, propagate, sweep-strings, sweep and finalize.
// The mutator must call Barrier or BarrierBack after every store of a heap
// reference into an existing heap object.
package gc

import (
	"io"
	"log/slog"
)

// Tuning constants for the incremental step.
const (
	// StepSize is the allocation granularity, in bytes, between steps.
	StepSize = 1024
	// SweepMax is the number of objects swept per sweep step.
	SweepMax = 40
	// SweepCost is the work charged per swept object.
	SweepCost = 10
	// FinalizeCost is the work charged per finalizer call.
	FinalizeCost = 100

	DefaultPause     = 200
	DefaultStepMul   = 200
	DefaultThreshold = 16 * StepSize

	historyLen = 32
)

// Phase is the collector state.
type Phase uint8

const (
	PhasePause Phase = iota
	PhasePropagate
	PhaseSweepString
	PhaseSweep
	PhaseFinalize
)

func (p Phase) String() string {
	switch p {
	case PhasePause:
		return "pause"
	case PhasePropagate:
		return "propagate"
	case PhaseSweepString:
		return "sweep-strings"
	case PhaseSweep:
		return "sweep"
	case PhaseFinalize:
		return "finalize"
	default:
		return "!err"
	}
}

// Config tunes a Collector. Zero fields take defaults.
type Config struct {
	// Pause sets the next threshold to Pause percent of the bytes retained
	// by the last cycle.
	Pause int
	// StepMul scales the work done per increment, in percent.
	StepMul int
	// Threshold is the byte count that starts the first cycle.
	Threshold uint64
	// Storage provides the bytes behind allocations.
	Storage Storage
	// Logger receives cycle and finalizer diagnostics.
	Logger *slog.Logger
	// OnError is called with every *FinalizerError.
	OnError func(error)
	// Debug checks the tri-color invariant after every increment and
	// panics on violation.
	Debug bool
}

// Collector holds all collector state for one runtime instance.
type Collector struct {
	heap    *Heap
	roots   Roots
	storage Storage
	log     *slog.Logger
	onError func(error)
	debug   bool

	phase      Phase
	white      Mark
	totalBytes uint64
	threshold  uint64
	estimate   uint64
	debt       uint64
	pause      int
	stepMul    int
	stopped    bool

	gray      []uint32
	grayAgain []uint32
	weak      []uint32

	sweepCursor uint32

	strings      map[string]uint32
	finalizers   map[uint32]Finalizer
	constructing Handle

	running bool
	closed  bool

	stats Stats
}

// New creates a collector over the given root set.
func New(roots Roots, cfg Config) *Collector {
	c := &Collector{
		heap:       newHeap(),
		roots:      roots,
		storage:    cfg.Storage,
		log:        cfg.Logger,
		onError:    cfg.OnError,
		debug:      cfg.Debug,
		white:      White0,
		threshold:  cfg.Threshold,
		pause:      cfg.Pause,
		stepMul:    cfg.StepMul,
		strings:    make(map[string]uint32),
		finalizers: make(map[uint32]Finalizer),
	}
	if c.storage == nil {
		c.storage = NewLimitStorage(0)
	}
	if c.log == nil {
		c.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.pause <= 0 {
		c.pause = DefaultPause
	}
	if c.stepMul <= 0 {
		c.stepMul = DefaultStepMul
	}
	if c.threshold == 0 {
		c.threshold = DefaultThreshold
	}
	return c
}

// SetRoots replaces the root set. It is used by runtimes that create their
// root objects through the collector itself.
func (c *Collector) SetRoots(r Roots) { c.roots = r }

// Phase returns the current collector state.
func (c *Collector) Phase() Phase { return c.phase }

// BytesInUse returns the bytes held by live and not yet swept objects.
func (c *Collector) BytesInUse() uint64 { return c.totalBytes }

// Threshold returns the byte count at which the next increment runs.
func (c *Collector) Threshold() uint64 { return c.threshold }

// Estimate returns the bytes retained by the last completed cycle.
func (c *Collector) Estimate() uint64 { return c.estimate }

// Debt returns the accumulated allocation debt of the running cycle.
func (c *Collector) Debt() uint64 { return c.debt }

// Running reports whether a collection increment or finalizer is executing.
func (c *Collector) Running() bool { return c.running }

// Len returns the number of objects in the heap.
func (c *Collector) Len() int { return c.heap.Len() }

// Flags returns the header mark of h.
func (c *Collector) Flags(h Handle) (Mark, error) {
	s, ok := c.heap.lookup(h)
	if !ok {
		return 0, ErrStaleHandle
	}
	return s.mark, nil
}

// Color returns the tri-color state of h.
func (c *Collector) Color(h Handle) (Color, error) {
	m, err := c.Flags(h)
	if err != nil {
		return 0, err
	}
	return m.Color(), nil
}

// Tag returns the type tag of h.
func (c *Collector) Tag(h Handle) (Tag, error) {
	s, ok := c.heap.lookup(h)
	if !ok {
		return 0, ErrStaleHandle
	}
	return s.tag, nil
}

// Payload returns the object-model value stored for h.
func (c *Collector) Payload(h Handle) (any, bool) {
	s, ok := c.heap.lookup(h)
	if !ok {
		return nil, false
	}
	return s.payload, true
}

// IsAlive reports whether h names an object that has not been freed and
// is not condemned by the running sweep.
func (c *Collector) IsAlive(h Handle) bool {
	s, ok := c.heap.lookup(h)
	return ok && !c.isDead(s.mark)
}

// IsWhite reports whether h is white. Stale handles are not white.
func (c *Collector) IsWhite(h Handle) bool {
	s, ok := c.heap.lookup(h)
	return ok && s.mark.IsWhite()
}

// isDead reports whether m carries the condemned white. Only sweep phases
// hold condemned objects.
func (c *Collector) isDead(m Mark) bool {
	if m.Has(Fixed) {
		return false
	}
	return m&otherWhite(c.white)&whiteBits != 0
}

// ObjectInfo describes one heap object for snapshots.
type ObjectInfo struct {
	Handle Handle
	Tag    Tag
	Size   uint64
	Mark   Mark
	List   string
}

// EachObject calls fn for every object in the heap, ordinary objects first,
// then strings, then objects pending finalization.
func (c *Collector) EachObject(fn func(ObjectInfo)) {
	for l := listObjects; l < numLists; l++ {
		c.heap.each(l, func(idx uint32, s *slot) {
			fn(ObjectInfo{
				Handle: c.heap.handleOf(idx),
				Tag:    s.tag,
				Size:   s.size,
				Mark:   s.mark,
				List:   l.String(),
			})
		})
	}
}

// References calls fn for every strong reference held by h.
func (c *Collector) References(h Handle, fn func(Handle)) error {
	s, ok := c.heap.lookup(h)
	if !ok {
		return ErrStaleHandle
	}
	if tr, ok := s.payload.(Traverser); ok {
		tr.Traverse(TracerFunc(fn))
	}
	return nil
}

// EachRoot calls fn for every handle in the root set, including the
// object under construction.
func (c *Collector) EachRoot(fn func(Handle)) {
	if c.roots != nil {
		c.roots.MarkRoots(TracerFunc(fn))
	}
	if !c.constructing.IsNil() {
		fn(c.constructing)
	}
}
