// ABOUTME: Object header mark bits and tri-color predicates
// ABOUTME: Encodes white0/white1/black plus finalizer, weak and fixed flags

package gc

import "strings"

// Mark is the per-object flag set stored in every header.
type Mark uint16

const (
	White0 Mark = 1 << iota
	White1
	Black
	// Finalizable is set on objects with a registered finalizer.
	Finalizable
	// Finalized is set once an object has been queued for finalization,
	// so its finalizer never runs twice.
	Finalized
	WeakKey
	WeakValue
	// Fixed objects are never collected by an ordinary cycle.
	Fixed
	// SuperFixed objects survive teardown until the collector closes.
	SuperFixed
)

const (
	whiteBits = White0 | White1
	colorBits = whiteBits | Black
	weakBits  = WeakKey | WeakValue
)

// IsWhite reports whether the object has not been reached this cycle.
func (m Mark) IsWhite() bool { return m&whiteBits != 0 }

// IsBlack reports whether the object has been reached and scanned.
func (m Mark) IsBlack() bool { return m&Black != 0 }

// IsGray reports whether the object is reached but not yet scanned.
func (m Mark) IsGray() bool { return !m.IsBlack() && !m.IsWhite() }

// Has reports whether every bit of flag is set.
func (m Mark) Has(flag Mark) bool { return m&flag == flag }

func (m Mark) with(flag Mark) Mark    { return m | flag }
func (m Mark) without(flag Mark) Mark { return m &^ flag }

// toGray clears every color bit.
func (m Mark) toGray() Mark { return m &^ colorBits }

// grayToBlack sets the black bit on a gray object.
func (m Mark) grayToBlack() Mark { return m | Black }

// blackToGray clears the black bit.
func (m Mark) blackToGray() Mark { return m &^ Black }

// whiten recolors the object with the given white, dropping black/gray state.
func (m Mark) whiten(white Mark) Mark { return m&^colorBits | white&whiteBits }

// otherWhite returns the white that is not w.
func otherWhite(w Mark) Mark { return w ^ whiteBits }

// Color is the tri-color view of a mark, for introspection.
type Color uint8

const (
	ColorWhite Color = iota
	ColorGray
	ColorBlack
)

func (c Color) String() string {
	switch c {
	case ColorWhite:
		return "white"
	case ColorGray:
		return "gray"
	case ColorBlack:
		return "black"
	default:
		return "!err"
	}
}

// Color returns the tri-color classification of m.
func (m Mark) Color() Color {
	switch {
	case m.IsBlack():
		return ColorBlack
	case m.IsWhite():
		return ColorWhite
	default:
		return ColorGray
	}
}

var markNames = []struct {
	bit  Mark
	name string
}{
	{White0, "white0"},
	{White1, "white1"},
	{Black, "black"},
	{Finalizable, "finalizable"},
	{Finalized, "finalized"},
	{WeakKey, "weakkey"},
	{WeakValue, "weakvalue"},
	{Fixed, "fixed"},
	{SuperFixed, "superfixed"},
}

// String lists the set flags, or "gray" when no color bit is set.
func (m Mark) String() string {
	var parts []string
	if m.IsGray() {
		parts = append(parts, "gray")
	}
	for _, n := range markNames {
		if m&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
