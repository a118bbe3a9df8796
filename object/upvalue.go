// ABOUTME: Upvalue operations: opening on a stack slot, closing and assignment
// ABOUTME: Closing copies the slot into the upvalue and issues a forward barrier

package object

import (
	"fmt"
	"slices"
	"sort"

	"github.com/prateek/tricolor/gc"
)

// OpenUpvalue returns the upvalue aliasing main-stack slot level, creating
// it if needed.
func (s *State) OpenUpvalue(level int) (gc.Handle, error) {
	th := s.mainTh
	if level < 0 || level >= len(th.stack) {
		return gc.Nil, fmt.Errorf("open upvalue at %d of %d: %w", level, len(th.stack), ErrOutOfRange)
	}
	i := sort.Search(len(th.open), func(i int) bool { return s.upvalueLevel(th.open[i]) >= level })
	if i < len(th.open) && s.upvalueLevel(th.open[i]) == level {
		return th.open[i], nil
	}
	h, err := s.gc.Allocate(gc.TagUpvalue, upvalueSize, &Upvalue{thread: s.main, level: level})
	if err != nil {
		return gc.Nil, err
	}
	th.open = slices.Insert(th.open, i, h)
	return h, nil
}

func (s *State) upvalueLevel(h gc.Handle) int {
	u, err := s.Upvalue(h)
	if err != nil {
		return -1
	}
	return u.level
}

// CloseUpvalues closes every open upvalue at or above level.
func (s *State) CloseUpvalues(level int) {
	th := s.mainTh
	i := sort.Search(len(th.open), func(i int) bool { return s.upvalueLevel(th.open[i]) >= level })
	for _, h := range th.open[i:] {
		u, err := s.Upvalue(h)
		if err != nil {
			continue
		}
		u.closed = th.stack[u.level]
		u.thread = gc.Nil
		if r, ok := u.closed.Handle(); ok {
			s.gc.Barrier(h, r)
		}
	}
	clear(th.open[i:])
	th.open = th.open[:i]
}

// GetUpvalue returns the current value of upvalue u.
func (s *State) GetUpvalue(h gc.Handle) (Value, error) {
	u, err := s.Upvalue(h)
	if err != nil {
		return Nil, err
	}
	if u.IsOpen() {
		th, err := s.Thread(u.thread)
		if err != nil {
			return Nil, err
		}
		return th.stack[u.level], nil
	}
	return u.closed, nil
}

// SetUpvalue assigns v to upvalue u.
func (s *State) SetUpvalue(h gc.Handle, v Value) error {
	u, err := s.Upvalue(h)
	if err != nil {
		return err
	}
	if u.IsOpen() {
		th, err := s.Thread(u.thread)
		if err != nil {
			return err
		}
		// Stack slots are rescanned at the end of marking.
		th.stack[u.level] = v
		return nil
	}
	u.closed = v
	if r, ok := v.Handle(); ok {
		s.gc.Barrier(h, r)
	}
	return nil
}

// SetClosureUpvalue makes slot i of closure cl refer to upvalue u.
func (s *State) SetClosureUpvalue(cl gc.Handle, i int, u gc.Handle) error {
	c, err := s.Closure(cl)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(c.upvalues) {
		return fmt.Errorf("closure %s has %d upvalues, not %d: %w", c.Name, len(c.upvalues), i+1, ErrOutOfRange)
	}
	if _, err := s.Upvalue(u); err != nil {
		return err
	}
	c.upvalues[i] = u
	s.gc.Barrier(cl, u)
	return nil
}
