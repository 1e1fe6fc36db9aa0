// Package main provides CMA-ES tuning for the behavior and fight parameters
// that shape the catch loop.
package main

import (
	"github.com/pelagic-games/strike/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable parameters. Tick
// counters tune in seconds-scale ranges and round on apply.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Behavior
			{Name: "feeding_threshold", Min: 30, Max: 80, Default: 55},
			{Name: "strike_window_ticks", Min: 20, Max: 90, Default: 45},
			{Name: "wary_strike_penalty", Min: 0.3, Max: 0.9, Default: 0.6},
			{Name: "ambush_strike_bonus", Min: 1.0, Max: 2.5, Default: 1.6},
			{Name: "interest_speed_weight", Min: 0.3, Max: 0.8, Default: 0.6},
			{Name: "interest_depth_weight", Min: 0.1, Max: 0.5, Default: 0.25},
			{Name: "interest_decay", Min: 0.01, Max: 0.2, Default: 0.05},
			// Fight
			{Name: "reel_tension", Min: 2, Max: 15, Default: 6},
			{Name: "resistance_scale", Min: 0.4, Max: 3.0, Default: 1.2},
			{Name: "tension_decay", Min: 0.5, Max: 4.0, Default: 1.5},
			{Name: "break_threshold", Min: 50, Max: 95, Default: 85},
			{Name: "stamina_drain_scale", Min: 0.1, Max: 1.0, Default: 0.35},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct. Order must
// match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	v := pv.Clamp(values)

	cfg.Behavior.FeedingThreshold = v[0]
	cfg.Behavior.StrikeWindowTicks = int32(v[1] + 0.5)
	cfg.Behavior.WaryStrikePenalty = v[2]
	cfg.Behavior.AmbushStrikeBonus = v[3]
	cfg.Behavior.InterestSpeedWeight = v[4]
	cfg.Behavior.InterestDepthWeight = v[5]
	cfg.Behavior.InterestDecay = v[6]

	cfg.Fight.ReelTension = v[7]
	cfg.Fight.ResistanceScale = v[8]
	cfg.Fight.TensionDecay = v[9]
	cfg.Fight.BreakThreshold = v[10]
	cfg.Fight.StaminaDrainScale = v[11]
}
