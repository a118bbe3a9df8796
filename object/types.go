// ABOUTME: Heap payloads for tables, closures, userdata, threads and upvalues
// ABOUTME: Each reports its strong references to the collector; tables may be weak

package object

import (
	"sort"

	"github.com/prateek/tricolor/gc"
)

// Table is an associative array with an optional metatable.
type Table struct {
	entries map[Value]Value
	meta    gc.Handle
	mode    gc.WeakMode
}

func newTable() *Table {
	return &Table{entries: make(map[Value]Value)}
}

// Get returns the value stored under k.
func (t *Table) Get(k Value) Value { return t.entries[k] }

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Metatable returns the metatable handle, or gc.Nil.
func (t *Table) Metatable() gc.Handle { return t.meta }

// Keys returns the keys in a stable order: non-references first by value,
// then references by handle.
func (t *Table) Keys() []Value {
	keys := make([]Value, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.kind != b.kind {
			return a.kind < b.kind
		}
		if a.kind == KindRef {
			return a.ref < b.ref
		}
		return a.num < b.num
	})
	return keys
}

func (t *Table) Traverse(tr gc.Tracer) {
	if !t.meta.IsNil() {
		tr.Mark(t.meta)
	}
	for k, v := range t.entries {
		if t.mode&gc.WeakKeys == 0 {
			k.mark(tr)
		}
		if t.mode&gc.WeakValues == 0 {
			v.mark(tr)
		}
	}
}

// TraverseWeak reports the references the table holds only weakly.
func (t *Table) TraverseWeak(tr gc.Tracer) {
	for k, v := range t.entries {
		if t.mode&gc.WeakKeys != 0 {
			k.mark(tr)
		}
		if t.mode&gc.WeakValues != 0 {
			v.mark(tr)
		}
	}
}

func (t *Table) WeakMode() gc.WeakMode { return t.mode }

func (t *Table) ClearWeak(cleared func(h gc.Handle, isKey bool) bool) int {
	n := 0
	for k, v := range t.entries {
		if t.mode&gc.WeakKeys != 0 && k.kind == KindRef && cleared(k.ref, true) {
			delete(t.entries, k)
			n++
			continue
		}
		if t.mode&gc.WeakValues != 0 && v.kind == KindRef && cleared(v.ref, false) {
			delete(t.entries, k)
			n++
		}
	}
	return n
}

// Closure is a function instance: its captured upvalues and constants.
type Closure struct {
	Name      string
	upvalues  []gc.Handle
	constants []Value
	env       gc.Handle
}

// Upvalue returns the i-th captured upvalue.
func (c *Closure) Upvalue(i int) gc.Handle { return c.upvalues[i] }

// NumUpvalues returns the number of upvalue slots.
func (c *Closure) NumUpvalues() int { return len(c.upvalues) }

func (c *Closure) Traverse(tr gc.Tracer) {
	if !c.env.IsNil() {
		tr.Mark(c.env)
	}
	for _, u := range c.upvalues {
		if !u.IsNil() {
			tr.Mark(u)
		}
	}
	for _, k := range c.constants {
		k.mark(tr)
	}
}

// Userdata is an opaque host object with an optional metatable.
type Userdata struct {
	Data any
	meta gc.Handle
	env  gc.Handle
}

// Metatable returns the metatable handle, or gc.Nil.
func (u *Userdata) Metatable() gc.Handle { return u.meta }

func (u *Userdata) Traverse(tr gc.Tracer) {
	if !u.meta.IsNil() {
		tr.Mark(u.meta)
	}
	if !u.env.IsNil() {
		tr.Mark(u.env)
	}
}

// Thread is an execution stack. Its slots are written without barriers, so
// the collector rescans threads at the end of marking.
type Thread struct {
	stack []Value
	// open upvalues, ordered by stack level
	open []gc.Handle
}

// Top returns the number of live stack slots.
func (th *Thread) Top() int { return len(th.stack) }

// Index returns the value in stack slot i.
func (th *Thread) Index(i int) Value { return th.stack[i] }

func (th *Thread) Traverse(tr gc.Tracer) {
	for _, v := range th.stack {
		v.mark(tr)
	}
	for _, u := range th.open {
		tr.Mark(u)
	}
}

// Upvalue is a variable captured by closures. While open it aliases a
// thread stack slot; once closed it owns its value.
type Upvalue struct {
	thread gc.Handle
	level  int
	closed Value
}

// IsOpen reports whether the upvalue still aliases a stack slot.
func (u *Upvalue) IsOpen() bool { return !u.thread.IsNil() }

func (u *Upvalue) Traverse(tr gc.Tracer) {
	if u.IsOpen() {
		tr.Mark(u.thread)
		return
	}
	u.closed.mark(tr)
}
