// ABOUTME: Contracts between the collector and the object model
// ABOUTME: Root enumeration, per-type traversal and weak-table capabilities

package gc

import "strings"

// Tracer receives the references an object or the root set holds.
type Tracer interface {
	Mark(h Handle)
}

// TracerFunc adapts a function to the Tracer interface.
type TracerFunc func(h Handle)

// Mark calls f(h).
func (f TracerFunc) Mark(h Handle) { f(h) }

// Roots enumerates the root set: globals, registry, the running thread's
// stack and open upvalues. The collector never owns roots.
type Roots interface {
	MarkRoots(t Tracer)
}

// RootsFunc adapts a function to the Roots interface.
type RootsFunc func(t Tracer)

// MarkRoots calls f(t).
func (f RootsFunc) MarkRoots(t Tracer) { f(t) }

// Traverser is implemented by payloads that hold references. Payloads
// without it are terminal and are blackened as soon as they are reached.
type Traverser interface {
	// Traverse reports every strong reference. Weak sides of a weak
	// table must not be reported.
	Traverse(t Tracer)
}

// Weak is implemented by payloads that may hold weak references.
type Weak interface {
	WeakMode() WeakMode
	// ClearWeak removes every entry whose weak side is cleared and
	// returns the number of entries removed.
	ClearWeak(cleared func(h Handle, isKey bool) bool) int
}

// WeakMode selects which sides of a table's entries are weak.
type WeakMode uint8

const (
	WeakKeys WeakMode = 1 << iota
	WeakValues

	WeakNone WeakMode = 0
	WeakBoth          = WeakKeys | WeakValues
)

// ParseWeakMode reads a mode string: 'k' makes keys weak, 'v' values.
func ParseWeakMode(s string) WeakMode {
	var m WeakMode
	if strings.ContainsRune(s, 'k') {
		m |= WeakKeys
	}
	if strings.ContainsRune(s, 'v') {
		m |= WeakValues
	}
	return m
}

func (m WeakMode) String() string {
	var sb strings.Builder
	if m&WeakKeys != 0 {
		sb.WriteByte('k')
	}
	if m&WeakValues != 0 {
		sb.WriteByte('v')
	}
	return sb.String()
}

func (m WeakMode) marks() Mark {
	var mk Mark
	if m&WeakKeys != 0 {
		mk |= WeakKey
	}
	if m&WeakValues != 0 {
		mk |= WeakValue
	}
	return mk
}
