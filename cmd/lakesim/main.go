// Package main runs a headless simulation session with a scripted angler,
// writing telemetry CSVs for balance review.
package main

import (
	"flag"
	"log"
	"log/slog"
	"math"
	"os"

	"github.com/pelagic-games/strike/config"
	"github.com/pelagic-games/strike/sim"
	"github.com/pelagic-games/strike/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Config YAML file (empty = embedded defaults)")
	seed := flag.Int64("seed", 42, "Simulation seed")
	ticks := flag.Int("ticks", 108000, "Ticks to run (60/s)")
	outputDir := flag.String("output", "", "Output directory for CSVs (empty = disabled)")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Cfg()

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		log.Fatalf("failed to create output: %v", err)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		log.Fatalf("failed to write config: %v", err)
	}

	s := sim.New(cfg, *seed)
	seedPopulation(s, cfg)

	angler := newScriptedAngler(cfg)

	var catches, escapes int
	for t := 0; t < *ticks; t++ {
		angler.drive(s)
		s.Step()

		events := s.DrainEvents()
		for _, ev := range events {
			switch ev.Type {
			case telemetry.EventCatch:
				catches++
			case telemetry.EventEscape:
				escapes++
			}
		}
		if err := out.WriteEvents(events); err != nil {
			log.Fatalf("failed to write events: %v", err)
		}
		for _, stats := range s.DrainStats() {
			if err := out.WriteStats(stats); err != nil {
				log.Fatalf("failed to write stats: %v", err)
			}
		}
	}

	predators, members, food := s.Counts()
	slog.Info("run_complete",
		"ticks", *ticks,
		"sim_time_sec", float64(*ticks)*cfg.Physics.DT,
		"catches", catches,
		"escapes", escapes,
		"predators", predators,
		"school_fish", members,
		"food", food,
	)
}

// seedPopulation stocks the lake: schools for schooling species, a handful
// of roaming predators for everything else.
func seedPopulation(s *sim.Simulation, cfg *config.Config) {
	catalog := s.Catalog()
	w := cfg.Derived.WorldW32
	h := cfg.Derived.WorldH32

	for i := 0; i < catalog.Len(); i++ {
		sp := catalog.Get(uint8(i))
		if sp.Schooling.Enabled {
			for j := 0; j < 3; j++ {
				x := w * (0.2 + 0.3*float32(j))
				y := h * (0.25 + 0.25*float32(j%2))
				depth := (sp.DepthMin + sp.DepthMax) / 2
				s.SpawnSchool(sp.Name, x, y, depth, 25)
			}
			continue
		}
		for j := 0; j < 6; j++ {
			x := w * (0.1 + 0.15*float32(j))
			y := h * (0.2 + 0.1*float32(j))
			depth := sp.DepthMin + (sp.DepthMax-sp.DepthMin)*float32(j)/6
			s.SpawnPredator(sp.Name, x, y, depth)
		}
	}

	s.SpawnFoodCluster(w*0.3, h*0.4, 5)
	s.SpawnFoodCluster(w*0.7, h*0.6, 8)
}

// scriptedAngler trolls a slow circuit through the lake, sets the hook on a
// fixed cadence, and reels steadily through fights. Crude, but it exercises
// the full catch loop without a human.
type scriptedAngler struct {
	cfg   *config.Config
	tick  int
	cx    float32
	cy    float32
	orbit float32
}

func newScriptedAngler(cfg *config.Config) *scriptedAngler {
	return &scriptedAngler{
		cfg:   cfg,
		cx:    cfg.Derived.WorldW32 / 2,
		cy:    cfg.Derived.WorldH32 / 2,
		orbit: cfg.Derived.WorldH32 * 0.3,
	}
}

func (a *scriptedAngler) drive(s *sim.Simulation) {
	a.tick++

	if _, fighting := s.ActiveFight(); fighting {
		// Reel on a cadence the resolver accepts, letting tension decay
		// between pulls.
		if a.tick%int(a.cfg.Fight.ReelMinIntervalTicks+4) == 0 {
			s.Reel(0.8)
		}
		return
	}

	// One lap roughly every 40 sim-seconds, depth slowly cycling through
	// the water column.
	angle := float64(a.tick) * 2 * math.Pi / (40 * float64(a.cfg.Derived.TicksPerSec))
	x := a.cx + a.orbit*float32(math.Cos(angle))
	y := a.cy + a.orbit*float32(math.Sin(angle))
	depth := a.cfg.Derived.Floor32 * 0.4 * (1 + float32(math.Sin(angle*0.3)))
	speed := a.orbit * 2 * math.Pi / (40 * float32(a.cfg.Derived.TicksPerSec)) * float32(a.cfg.Derived.TicksPerSec)

	if _, _, _, _, active := s.Lure(); !active {
		s.CastLure(x, y, depth)
		return
	}
	s.MoveLure(x, y, depth, speed)

	// Periodic hookset attempts catch fish mid-strike often enough for
	// balance statistics.
	if a.tick%30 == 0 {
		s.AttemptHookset()
	}
}
