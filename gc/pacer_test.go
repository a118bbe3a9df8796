// ABOUTME: Tests for the pacer and the incremental step state machine
// ABOUTME: Verifies bounded increments, threshold convergence and history

package gc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepIsIncremental(t *testing.T) {
	c, roots := newTestCollector(t, Config{StepMul: 1, Threshold: 1 << 30})
	for i := 0; i < 200; i++ {
		h, _ := allocNode(t, c, 32)
		roots.add(h)
	}

	assert.False(t, c.Step(), "a tiny budget cannot finish a cycle")
	assert.Equal(t, PhasePropagate, c.Phase())

	seen := map[Phase]bool{}
	steps := 1
	for !c.Step() {
		seen[c.Phase()] = true
		steps++
		require.Less(t, steps, 10_000)
	}
	assert.Greater(t, steps, 10)
	assert.True(t, seen[PhaseSweep])
	assert.Equal(t, PhasePause, c.Phase())
	assert.Equal(t, 200, c.Len())
}

func TestMaybeStepBelowThreshold(t *testing.T) {
	c, _ := newTestCollector(t, Config{Threshold: 1 << 20})
	allocNode(t, c, 64)
	assert.False(t, c.MaybeStep())

	var st Stats
	c.ReadStats(&st)
	assert.Equal(t, uint64(0), st.Steps)
}

func TestPacingConverges(t *testing.T) {
	c, roots := newTestCollector(t, Config{})
	const liveObjects, objSize = 100, 100
	liveBytes := uint64(liveObjects * objSize)
	for i := 0; i < liveObjects; i++ {
		h, _ := allocNode(t, c, objSize)
		roots.add(h)
	}

	var peak uint64
	for i := 0; i < 20000; i++ {
		allocNode(t, c, objSize)
		if b := c.BytesInUse(); b > peak {
			peak = b
		}
	}

	var st Stats
	c.ReadStats(&st)
	require.Greater(t, st.Cycles, uint64(10))
	require.Len(t, st.ThresholdHistory, historyLen)

	want := float64(liveBytes) * DefaultPause / 100
	last := st.ThresholdHistory[len(st.ThresholdHistory)-1]
	assert.InEpsilon(t, want, float64(last), 0.25)
	for _, th := range st.ThresholdHistory[historyLen-8:] {
		assert.InEpsilon(t, float64(last), float64(th), 0.1)
	}
	assert.Less(t, peak, 3*liveBytes)
}

func TestThresholdFollowsPause(t *testing.T) {
	tests := []struct {
		pause int
		want  uint64
	}{
		{100, 8000},
		{200, 16000},
		{400, 32000},
		{1, StepSize},
	}
	for _, tt := range tests {
		c, roots := newTestCollector(t, Config{Pause: tt.pause, Threshold: 1 << 30})
		for i := 0; i < 10; i++ {
			h, _ := allocNode(t, c, 800)
			roots.add(h)
		}
		allocNode(t, c, 5000)
		require.NoError(t, c.Collect())
		assert.Equal(t, tt.want, c.Threshold(), "pause %d", tt.pause)
		assert.Equal(t, uint64(8000), c.Estimate())
	}
}

func TestStatsSnapshot(t *testing.T) {
	c, roots := newStopped(t)
	h, _ := allocNode(t, c, 2048)
	roots.add(h)
	_, err := c.Intern("k")
	require.NoError(t, err)
	require.NoError(t, c.Collect())

	var st Stats
	c.ReadStats(&st)
	assert.Equal(t, 1, st.Objects)
	assert.Equal(t, 0, st.Strings)
	assert.Equal(t, uint64(2048), st.BytesInUse)
	assert.Equal(t, uint64(1), st.Cycles)
	assert.Equal(t, uint64(2), st.Allocs)
	assert.Equal(t, uint64(1), st.Frees)

	out := st.String()
	assert.Contains(t, out, "phase:      pause")
	assert.Contains(t, out, "threshold:  unlimited")
	assert.Contains(t, out, "cycles:     1 (1 full")
}
