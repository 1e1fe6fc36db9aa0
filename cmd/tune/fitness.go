package main

import (
	"math"
	"sync"

	"github.com/pelagic-games/strike/config"
	"github.com/pelagic-games/strike/sim"
	"github.com/pelagic-games/strike/telemetry"
)

// Balance targets. Fitness measures squared distance from this feel: about
// half of hooksets land, fights last around twenty seconds, and line breaks
// stay rare but possible.
const (
	targetCatchRate    = 0.5
	targetFightSec     = 20.0
	targetBreakRate    = 0.1
	minHooksetsPerHour = 20.0
)

// FitnessEvaluator runs headless scripted sessions and scores the catch loop.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int32
	seeds      []int64
	baseConfig *config.Config

	mu          sync.Mutex
	lastSummary runSummary
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxTicks:   maxTicks,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// runSummary aggregates the catch-loop outcomes of one session.
type runSummary struct {
	hooksets   int
	catches    int
	escapes    int
	lineBreaks int
	fightTicks int32 // total ticks spent in fights that ended
	simTicks   int32
}

// LastSummary returns the aggregate summary of the most recent evaluation.
func (fe *FitnessEvaluator) LastSummary() runSummary {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSummary
}

// Evaluate computes fitness for a parameter vector (lower = better). All
// seeds run in parallel; each gets its own simulation and config copy.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	summaries := make([]runSummary, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			summaries[idx] = fe.runSession(x, s)
		}(i, seed)
	}
	wg.Wait()

	var total runSummary
	for _, r := range summaries {
		total.hooksets += r.hooksets
		total.catches += r.catches
		total.escapes += r.escapes
		total.lineBreaks += r.lineBreaks
		total.fightTicks += r.fightTicks
		total.simTicks += r.simTicks
	}

	fe.mu.Lock()
	fe.lastSummary = total
	fe.mu.Unlock()

	return fitnessOf(total, fe.baseConfig.Physics.DT)
}

// fitnessOf scores a summary against the balance targets.
func fitnessOf(r runSummary, dt float64) float64 {
	simHours := float64(r.simTicks) * dt / 3600
	if simHours <= 0 {
		return 1e9
	}

	hooksetsPerHour := float64(r.hooksets) / simHours
	if r.hooksets == 0 {
		// Nothing ever hooked: dominate the score by activity shortfall.
		return 100 + minHooksetsPerHour
	}

	catchRate := float64(r.catches) / float64(r.hooksets)
	breakRate := float64(r.lineBreaks) / float64(r.hooksets)

	resolved := r.catches + r.escapes
	var meanFightSec float64
	if resolved > 0 {
		meanFightSec = float64(r.fightTicks) * dt / float64(resolved)
	}

	score := 0.0
	score += sq(catchRate-targetCatchRate) * 10
	score += sq(breakRate-targetBreakRate) * 10
	score += sq(meanFightSec-targetFightSec) / sq(targetFightSec)
	if hooksetsPerHour < minHooksetsPerHour {
		score += (minHooksetsPerHour - hooksetsPerHour) / minHooksetsPerHour * 5
	}
	return score
}

func sq(x float64) float64 {
	return x * x
}

// runSession executes one headless scripted session.
func (fe *FitnessEvaluator) runSession(x []float64, seed int64) runSummary {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	s := sim.New(cfg, seed)
	stock(s, cfg)

	var r runSummary
	var fightStart int32 = -1

	reelCadence := int(cfg.Fight.ReelMinIntervalTicks + 4)
	cx := cfg.Derived.WorldW32 / 2
	cy := cfg.Derived.WorldH32 / 2
	orbit := cfg.Derived.WorldH32 * 0.3
	lap := 40 * float64(cfg.Derived.TicksPerSec)

	for t := 0; int32(t) < fe.maxTicks; t++ {
		if _, fighting := s.ActiveFight(); fighting {
			if t%reelCadence == 0 {
				s.Reel(0.8)
			}
		} else {
			angle := float64(t) * 2 * math.Pi / lap
			px := cx + orbit*float32(math.Cos(angle))
			py := cy + orbit*float32(math.Sin(angle))
			depth := cfg.Derived.Floor32 * 0.4 * (1 + float32(math.Sin(angle*0.3)))
			speed := orbit * 2 * math.Pi / float32(lap) * float32(cfg.Derived.TicksPerSec)

			if _, _, _, _, active := s.Lure(); !active {
				s.CastLure(px, py, depth)
			} else {
				s.MoveLure(px, py, depth, speed)
			}
			if t%30 == 0 {
				s.AttemptHookset()
			}
		}

		s.Step()

		for _, ev := range s.DrainEvents() {
			switch ev.Type {
			case telemetry.EventHookset:
				r.hooksets++
				fightStart = ev.Tick
			case telemetry.EventCatch:
				r.catches++
				if fightStart >= 0 {
					r.fightTicks += ev.Tick - fightStart
					fightStart = -1
				}
			case telemetry.EventEscape:
				r.escapes++
				if ev.Reason == "line_broken" {
					r.lineBreaks++
				}
				if fightStart >= 0 {
					r.fightTicks += ev.Tick - fightStart
					fightStart = -1
				}
			}
		}
	}

	r.simTicks = fe.maxTicks
	return r
}

// stock seeds the lake the same way for every run.
func stock(s *sim.Simulation, cfg *config.Config) {
	catalog := s.Catalog()
	w := cfg.Derived.WorldW32
	h := cfg.Derived.WorldH32

	for i := 0; i < catalog.Len(); i++ {
		sp := catalog.Get(uint8(i))
		if sp.Schooling.Enabled {
			for j := 0; j < 3; j++ {
				s.SpawnSchool(sp.Name, w*(0.2+0.3*float32(j)), h*(0.25+0.25*float32(j%2)),
					(sp.DepthMin+sp.DepthMax)/2, 25)
			}
			continue
		}
		for j := 0; j < 6; j++ {
			s.SpawnPredator(sp.Name, w*(0.1+0.15*float32(j)), h*(0.2+0.1*float32(j)),
				sp.DepthMin+(sp.DepthMax-sp.DepthMin)*float32(j)/6)
		}
	}
}

// copyConfig creates a copy of the base config safe to mutate per run.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg, _ := config.Load("")

	cfg.World = fe.baseConfig.World
	cfg.Physics = fe.baseConfig.Physics
	cfg.Population = fe.baseConfig.Population
	cfg.Behavior = fe.baseConfig.Behavior
	cfg.Flock = fe.baseConfig.Flock
	cfg.Fight = fe.baseConfig.Fight
	cfg.Food = fe.baseConfig.Food
	cfg.Telemetry = fe.baseConfig.Telemetry
	cfg.Species = fe.baseConfig.Species
	cfg.Derived = fe.baseConfig.Derived

	return cfg
}
