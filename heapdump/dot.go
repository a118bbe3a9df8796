// ABOUTME: Write-only Graphviz format for snapshots
// ABOUTME: Delegates rendering to the graph package

package heapdump

import (
	"io"

	"github.com/prateek/tricolor/graph"
)

// Dot renders a snapshot for Graphviz
type Dot struct{}

func (Dot) Name() string { return "dot" }

func (Dot) Write(w io.Writer, g graph.Graph) error {
	return graph.WriteDot(w, g)
}

func init() {
	Register(Dot{})
}
