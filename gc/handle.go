// ABOUTME: Generation-checked handles and object type tags
// ABOUTME: Handles name arena slots and reject use after the slot is reused

package gc

import "fmt"

// Handle names a heap object. The low 32 bits hold the arena slot index,
// the high 32 bits the slot generation. The zero Handle is Nil.
type Handle uint64

// Nil is the handle that refers to no object.
const Nil Handle = 0

func makeHandle(idx, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(idx))
}

func (h Handle) index() uint32 { return uint32(h) }
func (h Handle) gen() uint32   { return uint32(h >> 32) }

// IsNil reports whether h is the Nil handle.
func (h Handle) IsNil() bool { return h == Nil }

func (h Handle) String() string {
	if h == Nil {
		return "nil"
	}
	return fmt.Sprintf("#%d.%d", h.index(), h.gen())
}

// Tag identifies the kind of a heap object.
type Tag uint8

const (
	TagString Tag = iota + 1
	TagTable
	TagClosure
	TagUserdata
	TagThread
	TagUpvalue
)

func (t Tag) String() string {
	switch t {
	case TagString:
		return "string"
	case TagTable:
		return "table"
	case TagClosure:
		return "closure"
	case TagUserdata:
		return "userdata"
	case TagThread:
		return "thread"
	case TagUpvalue:
		return "upvalue"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// Tags lists every object tag in declaration order.
var Tags = []Tag{TagString, TagTable, TagClosure, TagUserdata, TagThread, TagUpvalue}
