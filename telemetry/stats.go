package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population counts at window end
	PredCount   int `csv:"predators"`
	SchoolFish  int `csv:"school_fish"`
	SchoolCount int `csv:"schools"`
	FoodCount   int `csv:"food"`

	// Angling activity during window
	Hooksets   int     `csv:"hooksets"`
	Catches    int     `csv:"catches"`
	Escapes    int     `csv:"escapes"`
	LineBreaks int     `csv:"line_breaks"`
	CatchRate  float64 `csv:"catch_rate"`

	// Ecosystem activity during window
	Consumptions int `csv:"consumptions"`
	Grazes       int `csv:"grazes"`
	Migrations   int `csv:"migrations"`
	Spawns       int `csv:"spawns"`
	Despawns     int `csv:"despawns"`

	// Predator hunger distribution (sampled at window end)
	HungerMean float64 `csv:"hunger_mean"`
	HungerStd  float64 `csv:"hunger_std"`
	HungerP10  float64 `csv:"hunger_p10"`
	HungerP50  float64 `csv:"hunger_p50"`
	HungerP90  float64 `csv:"hunger_p90"`

	// Landed weight distribution during window
	CatchWeightMean float64 `csv:"catch_weight_mean"`
	CatchWeightMax  float64 `csv:"catch_weight_max"`
}

// ComputeDistribution calculates mean, standard deviation, and the 10/50/90
// percentiles of a sample. Empty samples produce zeros.
func ComputeDistribution(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.MeanStdDev(values, nil)
	if n == 1 {
		std = 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("predators", s.PredCount),
		slog.Int("school_fish", s.SchoolFish),
		slog.Int("schools", s.SchoolCount),
		slog.Int("food", s.FoodCount),
		slog.Int("hooksets", s.Hooksets),
		slog.Int("catches", s.Catches),
		slog.Int("escapes", s.Escapes),
		slog.Int("line_breaks", s.LineBreaks),
		slog.Float64("catch_rate", s.CatchRate),
		slog.Int("consumptions", s.Consumptions),
		slog.Int("grazes", s.Grazes),
		slog.Int("migrations", s.Migrations),
		slog.Int("spawns", s.Spawns),
		slog.Int("despawns", s.Despawns),
		slog.Float64("hunger_mean", s.HungerMean),
		slog.Float64("hunger_std", s.HungerStd),
		slog.Float64("hunger_p10", s.HungerP10),
		slog.Float64("hunger_p50", s.HungerP50),
		slog.Float64("hunger_p90", s.HungerP90),
		slog.Float64("catch_weight_mean", s.CatchWeightMean),
		slog.Float64("catch_weight_max", s.CatchWeightMax),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
