// ABOUTME: Registry of snapshot formats
// ABOUTME: Looks formats up by name for writing and detects them when reading

package heapdump

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/prateek/tricolor/graph"
)

var (
	// ErrNoParser is returned when no parser can handle the dump format
	ErrNoParser = errors.New("no parser found for dump format")

	// ErrUnknownFormat is returned for names nothing registered
	ErrUnknownFormat = errors.New("unknown dump format")

	// ErrNotWritable is returned when a format cannot encode snapshots
	ErrNotWritable = errors.New("dump format is read-only")
)

// formatRegistry holds registered formats in registration order
type formatRegistry struct {
	mu      sync.RWMutex
	formats []Format
}

var registry = &formatRegistry{}

// Register adds a format, replacing any format with the same name
func Register(f Format) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	for i, old := range registry.formats {
		if old.Name() == f.Name() {
			registry.formats[i] = f
			return
		}
	}
	registry.formats = append(registry.formats, f)
}

// Lookup returns the format registered under name
func Lookup(name string) (Format, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	for _, f := range registry.formats {
		if f.Name() == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Names lists the registered formats alphabetically
func Names() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	names := make([]string, 0, len(registry.formats))
	for _, f := range registry.formats {
		names = append(names, f.Name())
	}
	sort.Strings(names)
	return names
}

// Write encodes g to w in the named format
func Write(w io.Writer, name string, g graph.Graph) error {
	f, err := Lookup(name)
	if err != nil {
		return err
	}
	fw, ok := f.(Writer)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotWritable, name)
	}
	return fw.Write(w, g)
}

// Open reads a heap dump and returns a graph
// It tries each registered parser to find one that can handle the format
func Open(r io.Reader) (graph.Graph, error) {
	detectBuf := make([]byte, 4096)
	n, err := io.ReadFull(r, detectBuf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}

	registry.mu.RLock()
	formats := append([]Format(nil), registry.formats...)
	registry.mu.RUnlock()

	for _, f := range formats {
		parser, ok := f.(Parser)
		if !ok {
			continue
		}
		if parser.CanParse(bytes.NewReader(detectBuf[:n])) {
			return parser.Parse(io.MultiReader(bytes.NewReader(detectBuf[:n]), r))
		}
	}

	return nil, ErrNoParser
}
