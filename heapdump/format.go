// ABOUTME: Format interfaces for heap snapshot files
// ABOUTME: A format may read snapshots, write them, or both

// Package heapdump reads and writes heap snapshots in several file
// formats.
package heapdump

import (
	"io"

	"github.com/prateek/tricolor/graph"
)

// Format names a snapshot file format.
type Format interface {
	Name() string
}

// Parser is implemented by formats that can be read back.
type Parser interface {
	Format

	// CanParse checks if this parser can handle the given dump format
	// The reader should be treated as a preview - implementations should
	// read a small amount to detect format and not consume the entire stream
	CanParse(r io.Reader) bool

	// Parse reads the dump and builds a graph
	// The reader will be a fresh reader positioned at the start
	Parse(r io.Reader) (graph.Graph, error)
}

// Writer is implemented by formats that can encode a snapshot.
type Writer interface {
	Format
	Write(w io.Writer, g graph.Graph) error
}
