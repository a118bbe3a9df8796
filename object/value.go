// ABOUTME: Tagged runtime values: nil, boolean, number or a heap reference
// ABOUTME: Values are comparable and can be used directly as table keys

package object

import (
	"math"
	"strconv"

	"github.com/prateek/tricolor/gc"
)

// Kind is the dynamic type of a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindRef:
		return "ref"
	default:
		return "!err"
	}
}

// Value is a runtime value. The zero Value is nil.
type Value struct {
	kind Kind
	num  float64
	ref  gc.Handle
}

// Nil is the nil value.
var Nil Value

// Bool returns a boolean value.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, num: 1}
	}
	return Value{kind: KindBool}
}

// Number returns a number value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Ref returns a value referring to a heap object. Ref(gc.Nil) is nil.
func Ref(h gc.Handle) Value {
	if h.IsNil() {
		return Nil
	}
	return Value{kind: KindRef, ref: h}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNil() bool { return v.kind == KindNil }

// Truthy reports whether v is neither nil nor false.
func (v Value) Truthy() bool { return !(v.kind == KindNil || (v.kind == KindBool && v.num == 0)) }

// Float returns the number held by v, or 0.
func (v Value) Float() float64 { return v.num }

// Handle returns the referenced object, if any.
func (v Value) Handle() (gc.Handle, bool) {
	if v.kind != KindRef {
		return gc.Nil, false
	}
	return v.ref, true
}

// validKey reports whether v can index a table.
func (v Value) validKey() bool {
	return v.kind != KindNil && !(v.kind == KindNumber && math.IsNaN(v.num))
}

func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return strconv.FormatBool(v.num != 0)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', 14, 64)
	default:
		return v.ref.String()
	}
}

// mark reports v to t if it is a reference.
func (v Value) mark(t gc.Tracer) {
	if v.kind == KindRef {
		t.Mark(v.ref)
	}
}
