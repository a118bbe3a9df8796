// ABOUTME: Allocation and store operations of the object model
// ABOUTME: Every store of a reference into a heap object is followed by its barrier

package object

import (
	"fmt"
	"slices"

	"github.com/prateek/tricolor/gc"
)

// NewTable allocates an empty table.
func (s *State) NewTable() (gc.Handle, error) {
	return s.gc.Allocate(gc.TagTable, tableSize, newTable())
}

// NewString returns the interned string str.
func (s *State) NewString(str string) (Value, error) {
	h, err := s.gc.Intern(str)
	if err != nil {
		return Nil, err
	}
	return Ref(h), nil
}

// NewUserdata allocates a userdata block of size bytes wrapping data.
func (s *State) NewUserdata(data any, size uint64) (gc.Handle, error) {
	return s.gc.Allocate(gc.TagUserdata, userdataSize+size, &Userdata{Data: data, env: s.globals})
}

// NewThread allocates an empty execution stack.
func (s *State) NewThread() (gc.Handle, error) {
	return s.gc.Allocate(gc.TagThread, threadSize, &Thread{})
}

// NewClosure allocates a closure with nup fresh closed upvalues holding
// nil. The constants must already be reachable.
func (s *State) NewClosure(name string, nup int, constants []Value) (gc.Handle, error) {
	cl := &Closure{
		Name:      name,
		upvalues:  make([]gc.Handle, nup),
		constants: slices.Clone(constants),
		env:       s.globals,
	}
	restore := s.anchor(constants...)
	h, err := s.gc.Allocate(gc.TagClosure, closureSize+upvalueSlot*uint64(nup), cl)
	restore()
	if err != nil {
		return gc.Nil, err
	}

	// The closure is not stored anywhere yet; keep it alive while its
	// upvalues are allocated.
	prev := s.gc.SetConstructing(h)
	defer s.gc.SetConstructing(prev)
	for i := range cl.upvalues {
		u, err := s.gc.Allocate(gc.TagUpvalue, upvalueSize, &Upvalue{})
		if err != nil {
			return gc.Nil, fmt.Errorf("closure %s upvalue %d: %w", name, i, err)
		}
		cl.upvalues[i] = u
		s.gc.Barrier(h, u)
	}
	return h, nil
}

// SetField stores t[k] = v. Storing nil removes the entry.
func (s *State) SetField(t gc.Handle, k, v Value) error {
	tbl, err := s.Table(t)
	if err != nil {
		return err
	}
	if !k.validKey() {
		return fmt.Errorf("set %s[%s]: %w", t, k, ErrInvalidKey)
	}
	if v.IsNil() {
		delete(tbl.entries, k)
		return nil
	}
	tbl.entries[k] = v
	if k.kind == KindRef || v.kind == KindRef {
		s.gc.BarrierBack(t)
	}
	return nil
}

// GetField returns t[k].
func (s *State) GetField(t gc.Handle, k Value) (Value, error) {
	tbl, err := s.Table(t)
	if err != nil {
		return Nil, err
	}
	return tbl.entries[k], nil
}

// SetFieldString stores t[name] = v, interning name.
func (s *State) SetFieldString(t gc.Handle, name string, v Value) error {
	restore := s.anchor(Ref(t), v)
	defer restore()
	key, err := s.NewString(name)
	if err != nil {
		return err
	}
	return s.SetField(t, key, v)
}

// GetFieldString returns t[name] without allocating.
func (s *State) GetFieldString(t gc.Handle, name string) (Value, error) {
	key, ok := s.gc.Lookup(name)
	if !ok {
		if _, err := s.Table(t); err != nil {
			return Nil, err
		}
		return Nil, nil
	}
	return s.GetField(t, Ref(key))
}

// SetGlobal stores a global variable.
func (s *State) SetGlobal(name string, v Value) error {
	return s.SetFieldString(s.globals, name, v)
}

// GetGlobal returns a global variable, or nil.
func (s *State) GetGlobal(name string) (Value, error) {
	return s.GetFieldString(s.globals, name)
}

// SetMetatable sets the metatable of a table or userdata; gc.Nil removes
// it. A table takes its weak mode from the metatable's __mode field.
// The mode is read once, here; later edits to __mode are not seen until
// the metatable is set again.
func (s *State) SetMetatable(obj, mt gc.Handle) error {
	var mode gc.WeakMode
	if !mt.IsNil() {
		meta, err := s.Table(mt)
		if err != nil {
			return fmt.Errorf("metatable: %w", err)
		}
		if m, ok := meta.entries[s.modeKey].Handle(); ok {
			if str, ok := s.gc.StringOf(m); ok {
				mode = gc.ParseWeakMode(str)
			}
		}
	}

	p, ok := s.gc.Payload(obj)
	if !ok {
		return fmt.Errorf("%s: %w", obj, gc.ErrStaleHandle)
	}
	switch o := p.(type) {
	case *Table:
		o.meta = mt
		o.mode = mode
		s.gc.BarrierBack(obj)
	case *Userdata:
		o.meta = mt
		s.gc.Barrier(obj, mt)
	default:
		tag, _ := s.gc.Tag(obj)
		return fmt.Errorf("set metatable of %s: %w", tag, ErrWrongType)
	}
	return nil
}

// SetMode sets the weak mode of table t directly.
func (s *State) SetMode(t gc.Handle, mode gc.WeakMode) error {
	tbl, err := s.Table(t)
	if err != nil {
		return err
	}
	tbl.mode = mode
	s.gc.BarrierBack(t)
	return nil
}

// SetEnv sets the environment table of a closure or userdata.
func (s *State) SetEnv(obj, env gc.Handle) error {
	p, ok := s.gc.Payload(obj)
	if !ok {
		return fmt.Errorf("%s: %w", obj, gc.ErrStaleHandle)
	}
	switch o := p.(type) {
	case *Closure:
		o.env = env
	case *Userdata:
		o.env = env
	default:
		tag, _ := s.gc.Tag(obj)
		return fmt.Errorf("set environment of %s: %w", tag, ErrWrongType)
	}
	s.gc.Barrier(obj, env)
	return nil
}

// SetFinalizer attaches fn to a table or userdata; nil removes it.
func (s *State) SetFinalizer(h gc.Handle, fn func(h gc.Handle) error) error {
	if fn == nil {
		return s.gc.SetFinalizer(h, nil)
	}
	return s.gc.SetFinalizer(h, gc.Finalizer(fn))
}
