// ABOUTME: Root package carrying the version and the overview of the module
// ABOUTME: The collector lives in gc, the mutator in object, heap analysis in graph

// Package tricolor is an incremental tri-color mark-and-sweep collector for
// an embeddable dynamic-language runtime.
//
// The gc package owns the heap: allocation, the phase machine, write
// barriers, weak tables, finalizers and pacing. The object package is the
// mutator that stores references through the barriers. Snapshots of the
// live heap can be analyzed with graph (paths to roots, dominators,
// retained sizes, cycles) and written out with heapdump.
package tricolor

// Version is the semantic version of the module
const Version = "0.1.0-dev"
