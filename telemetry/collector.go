package telemetry

// PopulationSample is a point-in-time census taken at window end.
type PopulationSample struct {
	Predators  int
	SchoolFish int
	Schools    int
	Food       int
	Hungers    []float64 // one entry per live predator
}

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int32
	dt                  float32

	windowStartTick int32

	// Event counters for current window
	hooksets     int
	catches      int
	escapes      int
	lineBreaks   int
	consumptions int
	grazes       int
	migrations   int
	spawns       int
	despawns     int

	catchWeights []float64
}

// NewCollector creates a stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(windowDurationSec/float64(dt) + 0.5)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}
	return &Collector{
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// Record accumulates one event into the current window.
func (c *Collector) Record(ev Event) {
	switch ev.Type {
	case EventHookset:
		c.hooksets++
	case EventCatch:
		c.catches++
		c.catchWeights = append(c.catchWeights, float64(ev.Amount))
	case EventEscape:
		c.escapes++
		if ev.Reason == "line_broken" {
			c.lineBreaks++
		}
	case EventConsumption:
		c.consumptions++
	case EventGraze:
		c.grazes++
	case EventMigration:
		c.migrations++
	case EventSpawn:
		c.spawns++
	case EventDespawn:
		c.despawns++
	}
}

// ShouldFlush reports whether the current window has elapsed at the given tick.
func (c *Collector) ShouldFlush(tick int32) bool {
	return tick-c.windowStartTick >= c.windowDurationTicks
}

// Flush closes the current window, combining its counters with the census,
// and starts the next window.
func (c *Collector) Flush(tick int32, sample PopulationSample) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   tick,
		SimTimeSec:      float64(tick) * float64(c.dt),

		PredCount:   sample.Predators,
		SchoolFish:  sample.SchoolFish,
		SchoolCount: sample.Schools,
		FoodCount:   sample.Food,

		Hooksets:     c.hooksets,
		Catches:      c.catches,
		Escapes:      c.escapes,
		LineBreaks:   c.lineBreaks,
		Consumptions: c.consumptions,
		Grazes:       c.grazes,
		Migrations:   c.migrations,
		Spawns:       c.spawns,
		Despawns:     c.despawns,
	}

	if c.hooksets > 0 {
		stats.CatchRate = float64(c.catches) / float64(c.hooksets)
	}

	stats.HungerMean, stats.HungerStd, stats.HungerP10, stats.HungerP50, stats.HungerP90 =
		ComputeDistribution(sample.Hungers)

	if len(c.catchWeights) > 0 {
		var sum, max float64
		for _, w := range c.catchWeights {
			sum += w
			if w > max {
				max = w
			}
		}
		stats.CatchWeightMean = sum / float64(len(c.catchWeights))
		stats.CatchWeightMax = max
	}

	c.reset(tick)
	return stats
}

// reset clears counters and starts a new window at the given tick.
func (c *Collector) reset(tick int32) {
	c.windowStartTick = tick
	c.hooksets = 0
	c.catches = 0
	c.escapes = 0
	c.lineBreaks = 0
	c.consumptions = 0
	c.grazes = 0
	c.migrations = 0
	c.spawns = 0
	c.despawns = 0
	c.catchWeights = c.catchWeights[:0]
}
