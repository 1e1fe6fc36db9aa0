package telemetry

import (
	"math"
	"testing"
)

const dt60 = float32(1.0 / 60.0)

// TestCollectorWindowing verifies windows flush on the configured cadence and
// counters reset between windows.
func TestCollectorWindowing(t *testing.T) {
	c := NewCollector(1.0, dt60) // 60-tick windows

	if c.ShouldFlush(59) {
		t.Error("window must not flush early")
	}
	if !c.ShouldFlush(60) {
		t.Fatal("window must flush at its duration")
	}

	c.Record(NewHooksetEvent(10, 1, 0))
	c.Record(NewCatchEvent(20, 1, 0, 2.5))

	stats := c.Flush(60, PopulationSample{Predators: 3})
	if stats.WindowStartTick != 0 || stats.WindowEndTick != 60 {
		t.Errorf("window bounds = [%d,%d], want [0,60]", stats.WindowStartTick, stats.WindowEndTick)
	}
	if stats.Hooksets != 1 || stats.Catches != 1 {
		t.Errorf("hooksets=%d catches=%d, want 1/1", stats.Hooksets, stats.Catches)
	}
	if stats.PredCount != 3 {
		t.Errorf("predators = %d, want 3", stats.PredCount)
	}

	// The next window starts fresh.
	if c.ShouldFlush(119) {
		t.Error("second window must not flush early")
	}
	next := c.Flush(120, PopulationSample{})
	if next.Hooksets != 0 || next.Catches != 0 {
		t.Errorf("counters leaked into the next window: %+v", next)
	}
}

// TestCollectorCatchRate verifies the catch rate is catches over hooksets,
// zero when no hooksets occurred.
func TestCollectorCatchRate(t *testing.T) {
	c := NewCollector(1.0, dt60)
	for i := 0; i < 4; i++ {
		c.Record(NewHooksetEvent(int32(i), uint32(i), 0))
	}
	c.Record(NewCatchEvent(50, 1, 0, 1.0))

	stats := c.Flush(60, PopulationSample{})
	if stats.CatchRate != 0.25 {
		t.Errorf("catch rate = %v, want 0.25", stats.CatchRate)
	}

	empty := c.Flush(120, PopulationSample{})
	if empty.CatchRate != 0 {
		t.Errorf("catch rate with no hooksets = %v, want 0", empty.CatchRate)
	}
}

// TestCollectorLineBreaks verifies only line-break escapes count toward the
// line break counter.
func TestCollectorLineBreaks(t *testing.T) {
	c := NewCollector(1.0, dt60)
	c.Record(NewEscapeEvent(1, 1, 0, "line_broken"))
	c.Record(NewEscapeEvent(2, 2, 0, "released"))
	c.Record(NewEscapeEvent(3, 3, 0, "fish_lost"))

	stats := c.Flush(60, PopulationSample{})
	if stats.Escapes != 3 {
		t.Errorf("escapes = %d, want 3", stats.Escapes)
	}
	if stats.LineBreaks != 1 {
		t.Errorf("line breaks = %d, want 1", stats.LineBreaks)
	}
}

// TestCollectorCatchWeights verifies landed weight aggregation.
func TestCollectorCatchWeights(t *testing.T) {
	c := NewCollector(1.0, dt60)
	c.Record(NewCatchEvent(1, 1, 0, 2.0))
	c.Record(NewCatchEvent(2, 2, 0, 6.0))

	stats := c.Flush(60, PopulationSample{})
	if stats.CatchWeightMean != 4.0 {
		t.Errorf("catch weight mean = %v, want 4.0", stats.CatchWeightMean)
	}
	if stats.CatchWeightMax != 6.0 {
		t.Errorf("catch weight max = %v, want 6.0", stats.CatchWeightMax)
	}
}

// TestComputeDistribution verifies the summary statistics on a known sample.
func TestComputeDistribution(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeDistribution([]float64{10, 20, 30, 40, 50})
	if math.Abs(mean-30) > 1e-9 {
		t.Errorf("mean = %v, want 30", mean)
	}
	if std <= 0 {
		t.Errorf("std = %v, want positive", std)
	}
	if p10 > p50 || p50 > p90 {
		t.Errorf("percentiles out of order: p10=%v p50=%v p90=%v", p10, p50, p90)
	}
	if p50 != 30 {
		t.Errorf("p50 = %v, want 30", p50)
	}

	mean, std, p10, p50, p90 = ComputeDistribution(nil)
	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("an empty sample must produce zeros")
	}
}
