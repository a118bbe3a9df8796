// ABOUTME: Collector statistics: cumulative counters plus a point-in-time snapshot
// ABOUTME: Filled by ReadStats in the manner of runtime.ReadMemStats

package gc

import (
	"fmt"
	"strings"

	"github.com/inhies/go-bytesize"
)

// Stats records collector activity since New.
type Stats struct {
	// Cumulative counters.
	Cycles          uint64
	FullCycles      uint64
	Steps           uint64
	Allocs          uint64
	Frees           uint64
	TotalAlloc      uint64
	TotalFreed      uint64
	Barriers        uint64
	FinalizersRun   uint64
	FinalizerErrors uint64
	WeakCleared     uint64

	// ThresholdHistory holds the thresholds chosen at the end of the most
	// recent cycles, oldest first.
	ThresholdHistory []uint64

	// Snapshot, valid at the time of ReadStats.
	Phase      Phase
	BytesInUse uint64
	Threshold  uint64
	Estimate   uint64
	Debt       uint64
	Objects    int
	Strings    int
	Pending    int
}

// ReadStats populates s with the current statistics.
func (c *Collector) ReadStats(s *Stats) {
	*s = c.stats
	s.ThresholdHistory = append([]uint64(nil), c.stats.ThresholdHistory...)
	s.Phase = c.phase
	s.BytesInUse = c.totalBytes
	s.Threshold = c.threshold
	s.Estimate = c.estimate
	s.Debt = c.debt
	s.Objects = c.heap.lists[listObjects].count
	s.Strings = c.heap.lists[listStrings].count
	s.Pending = c.heap.lists[listPending].count
}

func (s *Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "phase:      %s\n", s.Phase)
	fmt.Fprintf(&b, "in use:     %s (%d objects, %d strings, %d pending)\n",
		fmtBytes(s.BytesInUse), s.Objects, s.Strings, s.Pending)
	fmt.Fprintf(&b, "threshold:  %s\n", fmtBytes(s.Threshold))
	fmt.Fprintf(&b, "estimate:   %s\n", fmtBytes(s.Estimate))
	fmt.Fprintf(&b, "cycles:     %d (%d full, %d steps)\n", s.Cycles, s.FullCycles, s.Steps)
	fmt.Fprintf(&b, "allocated:  %s in %d objects\n", fmtBytes(s.TotalAlloc), s.Allocs)
	fmt.Fprintf(&b, "freed:      %s in %d objects\n", fmtBytes(s.TotalFreed), s.Frees)
	fmt.Fprintf(&b, "barriers:   %d\n", s.Barriers)
	fmt.Fprintf(&b, "finalizers: %d run, %d failed\n", s.FinalizersRun, s.FinalizerErrors)
	fmt.Fprintf(&b, "weak:       %d entries cleared\n", s.WeakCleared)
	return b.String()
}

func fmtBytes(n uint64) string {
	if n == ^uint64(0) {
		return "unlimited"
	}
	return bytesize.New(float64(n)).String()
}
