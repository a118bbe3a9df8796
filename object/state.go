// ABOUTME: Runtime instance: owns the collector, globals, registry and main thread
// ABOUTME: Supplies the root set and the value stack used to anchor temporaries

// Package object is the mutator side of the runtime: values, heap payloads
// and the operations that store references while issuing the write
// barriers the collector requires.
package object

import (
	"errors"
	"fmt"

	"github.com/prateek/tricolor/gc"
)

// Approximate object sizes charged to the collector.
const (
	tableSize    = 56
	closureSize  = 32
	upvalueSlot  = 8
	userdataSize = 40
	threadSize   = 112
	upvalueSize  = 40
)

var (
	// ErrWrongType is returned when an operation is applied to an object
	// of the wrong kind.
	ErrWrongType = errors.New("object: wrong type")

	// ErrInvalidKey is returned for nil and NaN table keys.
	ErrInvalidKey = errors.New("object: invalid table key")

	// ErrStackUnderflow is returned when popping more values than the
	// stack holds.
	ErrStackUnderflow = errors.New("object: stack underflow")

	// ErrOutOfRange is returned for stack levels and upvalue slots that
	// do not exist.
	ErrOutOfRange = errors.New("object: index out of range")
)

// State is one runtime instance.
type State struct {
	gc       *gc.Collector
	globals  gc.Handle
	registry gc.Handle
	main     gc.Handle
	mainTh   *Thread
	modeKey  Value
}

// New creates a runtime with an empty global table.
func New(cfg gc.Config) (*State, error) {
	s := &State{}
	s.gc = gc.New(s, cfg)

	s.mainTh = &Thread{}
	main, err := s.gc.Allocate(gc.TagThread, threadSize, s.mainTh)
	if err != nil {
		return nil, fmt.Errorf("main thread: %w", err)
	}
	s.main = main
	if err := s.gc.FixSuper(main); err != nil {
		return nil, err
	}
	if s.globals, err = s.NewTable(); err != nil {
		return nil, fmt.Errorf("globals: %w", err)
	}
	if s.registry, err = s.NewTable(); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	mode, err := s.gc.Intern("__mode")
	if err != nil {
		return nil, err
	}
	if err := s.gc.Fix(mode); err != nil {
		return nil, err
	}
	s.modeKey = Ref(mode)
	return s, nil
}

// MarkRoots reports the globals, the registry and the main thread.
func (s *State) MarkRoots(t gc.Tracer) {
	for _, h := range []gc.Handle{s.globals, s.registry, s.main} {
		if !h.IsNil() {
			t.Mark(h)
		}
	}
}

// Collector returns the collector that owns this state's heap.
func (s *State) Collector() *gc.Collector { return s.gc }

func (s *State) Globals() gc.Handle { return s.globals }

func (s *State) Registry() gc.Handle { return s.registry }

func (s *State) MainThread() gc.Handle { return s.main }

// GC performs a collector control operation.
func (s *State) GC(op gc.Op, arg int) (int, error) { return s.gc.Control(op, arg) }

// Close runs every pending finalizer and frees the heap.
func (s *State) Close() error {
	s.mainTh.stack = nil
	s.mainTh.open = nil
	return s.gc.Close()
}

// Push places v on top of the main thread's stack, which is part of the
// root set.
func (s *State) Push(v Value) { s.mainTh.stack = append(s.mainTh.stack, v) }

// Pop removes n values from the stack.
func (s *State) Pop(n int) error {
	if n < 0 || n > len(s.mainTh.stack) {
		return fmt.Errorf("pop %d of %d: %w", n, len(s.mainTh.stack), ErrStackUnderflow)
	}
	return s.SetTop(len(s.mainTh.stack) - n)
}

// SetTop resizes the stack to n slots, filling new slots with nil.
// Upvalues open above the new top are closed first.
func (s *State) SetTop(n int) error {
	if n < 0 {
		return fmt.Errorf("set top %d: %w", n, ErrStackUnderflow)
	}
	if n < len(s.mainTh.stack) {
		s.CloseUpvalues(n)
		clear(s.mainTh.stack[n:])
		s.mainTh.stack = s.mainTh.stack[:n]
		return nil
	}
	for len(s.mainTh.stack) < n {
		s.mainTh.stack = append(s.mainTh.stack, Nil)
	}
	return nil
}

// Top returns the number of values on the stack.
func (s *State) Top() int { return len(s.mainTh.stack) }

// Index returns stack slot i; negative indices count from the top.
func (s *State) Index(i int) Value {
	if i < 0 {
		i += len(s.mainTh.stack)
	}
	if i < 0 || i >= len(s.mainTh.stack) {
		return Nil
	}
	return s.mainTh.stack[i]
}

// anchor pushes the given values so they survive allocations made before
// the returned function is called.
func (s *State) anchor(vs ...Value) func() {
	top := len(s.mainTh.stack)
	s.mainTh.stack = append(s.mainTh.stack, vs...)
	return func() {
		clear(s.mainTh.stack[top:])
		s.mainTh.stack = s.mainTh.stack[:top]
	}
}

// Table returns the table payload of h.
func (s *State) Table(h gc.Handle) (*Table, error) { return payload[*Table](s, h, "table") }

// Thread returns the thread payload of h.
func (s *State) Thread(h gc.Handle) (*Thread, error) { return payload[*Thread](s, h, "thread") }

// Closure returns the closure payload of h.
func (s *State) Closure(h gc.Handle) (*Closure, error) { return payload[*Closure](s, h, "closure") }

// Userdata returns the userdata payload of h.
func (s *State) Userdata(h gc.Handle) (*Userdata, error) { return payload[*Userdata](s, h, "userdata") }

// Upvalue returns the upvalue payload of h.
func (s *State) Upvalue(h gc.Handle) (*Upvalue, error) { return payload[*Upvalue](s, h, "upvalue") }

func payload[T any](s *State, h gc.Handle, want string) (T, error) {
	var zero T
	p, ok := s.gc.Payload(h)
	if !ok {
		return zero, fmt.Errorf("%s: %w", h, gc.ErrStaleHandle)
	}
	v, ok := p.(T)
	if !ok {
		tag, _ := s.gc.Tag(h)
		return zero, fmt.Errorf("%s is a %s, not a %s: %w", h, tag, want, ErrWrongType)
	}
	return v, nil
}

// ToString renders v for display; strings are quoted.
func (s *State) ToString(v Value) string {
	h, ok := v.Handle()
	if !ok {
		return v.String()
	}
	if str, ok := s.gc.StringOf(h); ok {
		return fmt.Sprintf("%q", str)
	}
	tag, err := s.gc.Tag(h)
	if err != nil {
		return "<dead " + h.String() + ">"
	}
	return tag.String() + ": " + h.String()
}
