// ABOUTME: Core data types for heap snapshots of the collector
// ABOUTME: Defines Object, ObjID, and Roots structures

package graph

import (
	"unicode/utf8"

	"github.com/prateek/tricolor/gc"
)

// ObjID identifies an object in a snapshot. Snapshots taken from a
// collector use the numeric value of the object's handle, so ID 0 never
// names an object and is reserved for the root set.
type ObjID uint64

// RootID is the pseudo-object that refers to every root.
const RootID ObjID = 0

func (id ObjID) String() string {
	if id == RootID {
		return "roots"
	}
	return gc.Handle(id).String()
}

// Object represents a single heap object
type Object struct {
	ID    ObjID   // Handle value
	Type  string  // Tag name, e.g. "table"
	Size  uint64  // Accounted size in bytes
	Color string  // white, gray or black when the snapshot was taken
	List  string  // Collector list holding the object
	Label string  // String contents, empty for other objects
	Ptrs  []ObjID // Strong references
	Weak  []ObjID // References held only weakly
}

// Name renders the object for humans: its type and ID, plus the contents
// of strings.
func (o *Object) Name() string {
	if o.Label != "" {
		return o.Type + " " + o.ID.String() + " " + quote(o.Label)
	}
	return o.Type + " " + o.ID.String()
}

func quote(s string) string {
	const max = 24
	if len(s) > max {
		n := max
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		s = s[:n] + "..."
	}
	return `"` + s + `"`
}

// Roots represents the set of objects the collector marks first
type Roots struct {
	IDs []ObjID
}
