// Package sim wires the world, systems, and player input into a fixed-tick
// simulation registry.
package sim

import (
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pelagic-games/strike/components"
	"github.com/pelagic-games/strike/config"
	"github.com/pelagic-games/strike/species"
	"github.com/pelagic-games/strike/systems"
	"github.com/pelagic-games/strike/telemetry"
)

// Simulation owns the ECS world and advances it one fixed tick at a time.
// All mutation happens inside Step; the command methods only queue input
// for the next tick, so a caller driving Step from a single goroutine needs
// no locking.
type Simulation struct {
	cfg     *config.Config
	catalog *species.Catalog
	world   *ecs.World
	rng     *rand.Rand

	predMapper *ecs.Map4[components.Position, components.Velocity, components.Organism, components.Predator]
	memMapper  *ecs.Map4[components.Position, components.Velocity, components.Organism, components.SchoolMember]
	foodMapper *ecs.Map2[components.Position, components.Food]

	posMap  *ecs.Map1[components.Position]
	velMap  *ecs.Map1[components.Velocity]
	orgMap  *ecs.Map1[components.Organism]
	predMap *ecs.Map1[components.Predator]
	memMap  *ecs.Map1[components.SchoolMember]

	predFilter ecs.Filter4[components.Position, components.Velocity, components.Organism, components.Predator]
	memFilter  ecs.Filter3[components.Position, components.Organism, components.SchoolMember]
	foodFilter ecs.Filter2[components.Position, components.Food]

	flock     *systems.FlockSystem
	decision  *systems.DecisionSystem
	foodChain *systems.FoodChainSystem
	fight     *systems.FightSystem

	memberGrid *systems.SpatialGrid
	foodGrid   *systems.SpatialGrid
	predGrid   *systems.SpatialGrid

	schools map[uint32]*systems.SchoolInfo

	tick         int32
	nextID       uint32
	nextSchoolID uint32

	predCount   int
	memberCount int
	foodCount   int

	lure             systems.LureState
	hooksetRequested bool
	reelRequested    bool
	reelIntensity    float32
	cutRequested     bool

	session *systems.FightSession

	events    []telemetry.Event
	collector *telemetry.Collector
	stats     []telemetry.WindowStats

	fcCtx         systems.FoodChainContext
	toRemove      []ecs.Entity
	lastFoodSpawn int32
}

// New creates a simulation from configuration with a deterministic seed.
// Two simulations built from the same config and seed, fed identical input
// sequences, produce identical state tick for tick.
func New(cfg *config.Config, seed int64) *Simulation {
	world := ecs.NewWorld()
	catalog := species.NewCatalog(cfg.Species)
	cell := float32(cfg.Physics.GridCellSize)

	s := &Simulation{
		cfg:     cfg,
		catalog: catalog,
		world:   world,
		rng:     rand.New(rand.NewSource(seed)),

		predMapper: ecs.NewMap4[components.Position, components.Velocity, components.Organism, components.Predator](world),
		memMapper:  ecs.NewMap4[components.Position, components.Velocity, components.Organism, components.SchoolMember](world),
		foodMapper: ecs.NewMap2[components.Position, components.Food](world),

		posMap:  ecs.NewMap1[components.Position](world),
		velMap:  ecs.NewMap1[components.Velocity](world),
		orgMap:  ecs.NewMap1[components.Organism](world),
		predMap: ecs.NewMap1[components.Predator](world),
		memMap:  ecs.NewMap1[components.SchoolMember](world),

		predFilter: *ecs.NewFilter4[components.Position, components.Velocity, components.Organism, components.Predator](world),
		memFilter:  *ecs.NewFilter3[components.Position, components.Organism, components.SchoolMember](world),
		foodFilter: *ecs.NewFilter2[components.Position, components.Food](world),

		flock:     systems.NewFlockSystem(world),
		decision:  systems.NewDecisionSystem(world),
		foodChain: systems.NewFoodChainSystem(world),
		fight:     systems.NewFightSystem(world),

		memberGrid: systems.NewSpatialGrid(cfg.Derived.WorldW32, cfg.Derived.WorldH32, cell),
		foodGrid:   systems.NewSpatialGrid(cfg.Derived.WorldW32, cfg.Derived.WorldH32, cell),
		predGrid:   systems.NewSpatialGrid(cfg.Derived.WorldW32, cfg.Derived.WorldH32, cell),

		schools: make(map[uint32]*systems.SchoolInfo),

		nextID:       1,
		nextSchoolID: 1,

		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Derived.DT32),
	}

	return s
}

// Tick returns the current tick counter.
func (s *Simulation) Tick() int32 {
	return s.tick
}

// Catalog returns the resolved species catalog.
func (s *Simulation) Catalog() *species.Catalog {
	return s.catalog
}

// Counts returns the live predator, school member, and food counts.
func (s *Simulation) Counts() (predators, members, food int) {
	return s.predCount, s.memberCount, s.foodCount
}

// ActiveFight returns a copy of the running fight session, if any.
func (s *Simulation) ActiveFight() (systems.FightSession, bool) {
	if s.session == nil {
		return systems.FightSession{}, false
	}
	return *s.session, true
}

// Step advances the simulation by one tick: flocking, predator decisions,
// food chain resolution on final positions, then the fight contest, with
// entity removal deferred to the end of the tick.
func (s *Simulation) Step() {
	s.tick++

	s.rebuildGrids()
	s.censusSchools()

	flockCtx := systems.FlockContext{
		Tick:       s.tick,
		Catalog:    s.catalog,
		Cfg:        s.cfg,
		MemberGrid: s.memberGrid,
		FoodGrid:   s.foodGrid,
		PredGrid:   s.predGrid,
	}
	s.flock.Update(&flockCtx)

	decCtx := systems.DecisionContext{
		Tick:             s.tick,
		Catalog:          s.catalog,
		Cfg:              s.cfg,
		Rng:              s.rng,
		Lure:             s.lure,
		Schools:          s.schools,
		HooksetRequested: s.hooksetRequested,
		MemberGrid:       s.memberGrid,
	}
	s.decision.Update(&decCtx)
	if decCtx.HookedSet {
		s.beginFight(decCtx.Hooked)
	}

	s.runFoodChain()

	if s.session != nil {
		s.runFight()
	}

	s.despawnMigrated()
	s.autoSpawnFood()
	s.applyRemovals()

	s.flushStatsWindow()

	s.hooksetRequested = false
	s.reelRequested = false
	s.reelIntensity = 0
	s.cutRequested = false
}

// rebuildGrids repopulates the three spatial grids and refreshes the live
// entity counts.
func (s *Simulation) rebuildGrids() {
	s.memberGrid.Clear()
	s.foodGrid.Clear()
	s.predGrid.Clear()

	s.memberCount = 0
	memQuery := s.memFilter.Query()
	for memQuery.Next() {
		pos, org, _ := memQuery.Get()
		if !org.Alive {
			continue
		}
		s.memberGrid.Insert(memQuery.Entity(), pos.X, pos.Y)
		s.memberCount++
	}

	s.foodCount = 0
	foodQuery := s.foodFilter.Query()
	for foodQuery.Next() {
		pos, food := foodQuery.Get()
		if food.Consumed {
			continue
		}
		s.foodGrid.Insert(foodQuery.Entity(), pos.X, pos.Y)
		s.foodCount++
	}

	s.predCount = 0
	predQuery := s.predFilter.Query()
	for predQuery.Next() {
		pos, _, org, _ := predQuery.Get()
		if !org.Alive {
			continue
		}
		s.predGrid.Insert(predQuery.Entity(), pos.X, pos.Y)
		s.predCount++
	}
}

// censusSchools rebuilds the school summary map from live members. Schools
// with no remaining members simply vanish from the map.
func (s *Simulation) censusSchools() {
	for k := range s.schools {
		delete(s.schools, k)
	}

	query := s.memFilter.Query()
	for query.Next() {
		pos, org, mem := query.Get()
		if !org.Alive {
			continue
		}
		info, ok := s.schools[mem.SchoolID]
		if !ok {
			info = &systems.SchoolInfo{ID: mem.SchoolID, SpeciesID: org.SpeciesID}
			s.schools[mem.SchoolID] = info
		}
		info.X += pos.X
		info.Y += pos.Y
		info.Depth += pos.Depth
		info.Members++
	}

	for _, info := range s.schools {
		inv := 1 / float32(info.Members)
		info.X *= inv
		info.Y *= inv
		info.Depth *= inv
	}
}

// beginFight opens the fight session for a freshly hooked predator.
func (s *Simulation) beginFight(hooked ecs.Entity) {
	session := s.fight.Begin(hooked, s.tick, s.catalog)
	if session == nil {
		return
	}
	s.session = session
	s.lure.Held = true
	s.hooksetRequested = false
	s.emit(telemetry.NewHooksetEvent(s.tick, session.OrganismID, session.SpeciesID))
	slog.Debug("hookset",
		"tick", s.tick,
		"organism", session.OrganismID,
		"species", s.catalog.Get(session.SpeciesID).Name,
		"stamina", session.MaxStamina,
	)
}

// runFoodChain executes the resolver and converts its outputs into events
// and deferred removals.
func (s *Simulation) runFoodChain() {
	s.fcCtx = systems.FoodChainContext{
		Tick:         s.tick,
		Catalog:      s.catalog,
		Cfg:          s.cfg,
		Schools:      s.schools,
		FoodGrid:     s.foodGrid,
		MemberGrid:   s.memberGrid,
		Consumptions: s.fcCtx.Consumptions[:0],
		Expired:      s.fcCtx.Expired[:0],
		Migrations:   s.fcCtx.Migrations[:0],
	}
	s.foodChain.Update(&s.fcCtx)

	for _, c := range s.fcCtx.Consumptions {
		eaterOrg := s.orgMap.Get(c.Predator)
		if c.FoodResource {
			s.emit(telemetry.NewGrazeEvent(s.tick, eaterOrg.ID, eaterOrg.SpeciesID))
			continue
		}
		preyOrg := s.orgMap.Get(c.Prey)
		preySp := s.catalog.Get(c.PreySpecies)
		s.emit(telemetry.NewConsumptionEvent(s.tick, eaterOrg.ID, preyOrg.ID, c.PredatorSpecies, preySp.NutritionValue))
	}

	for _, e := range s.fcCtx.Migrations {
		org := s.orgMap.Get(e)
		s.emit(telemetry.NewMigrationEvent(s.tick, org.ID, org.SpeciesID))
	}

	s.toRemove = append(s.toRemove, s.fcCtx.Expired...)
}

// runFight advances the active fight session and settles its outcome.
func (s *Simulation) runFight() {
	fctx := systems.FightContext{
		Tick:          s.tick,
		Cfg:           s.cfg,
		Catalog:       s.catalog,
		ReelRequested: s.reelRequested,
		ReelIntensity: s.reelIntensity,
		AnchorX:       s.lure.X,
		AnchorY:       s.lure.Y,
	}

	if s.cutRequested {
		s.fight.Release(s.session, &fctx)
	} else {
		s.fight.Update(s.session, &fctx)
	}

	switch fctx.Outcome {
	case systems.FightLanded:
		s.emit(telemetry.NewCatchEvent(s.tick, s.session.OrganismID, s.session.SpeciesID, s.session.Weight))
		s.emit(telemetry.NewDespawnEvent(s.tick, s.session.OrganismID, s.session.SpeciesID, "landed"))
		s.toRemove = append(s.toRemove, s.session.Predator)
		slog.Info("catch",
			"tick", s.tick,
			"organism", s.session.OrganismID,
			"species", s.catalog.Get(s.session.SpeciesID).Name,
			"weight", s.session.Weight,
			"fight_ticks", s.tick-s.session.StartTick,
		)
		s.endFight()
	case systems.FightEscaped:
		s.emit(telemetry.NewEscapeEvent(s.tick, s.session.OrganismID, s.session.SpeciesID, fctx.EscapeReason))
		slog.Info("escape",
			"tick", s.tick,
			"organism", s.session.OrganismID,
			"species", s.catalog.Get(s.session.SpeciesID).Name,
			"reason", fctx.EscapeReason,
		)
		s.endFight()
	}
}

// endFight clears the session and frees the line.
func (s *Simulation) endFight() {
	s.session = nil
	s.lure.Held = false
}

// despawnMigrated removes migrating predators that have swum out of the
// playable area.
func (s *Simulation) despawnMigrated() {
	const margin float32 = 40

	query := s.predFilter.Query()
	for query.Next() {
		pos, _, org, pred := query.Get()
		if !org.Alive || pred.State != components.StateMigrating {
			continue
		}
		if pos.X < -margin || pos.X > s.cfg.Derived.WorldW32+margin ||
			pos.Y < -margin || pos.Y > s.cfg.Derived.WorldH32+margin {
			org.Alive = false
			s.toRemove = append(s.toRemove, query.Entity())
			s.emit(telemetry.NewDespawnEvent(s.tick, org.ID, org.SpeciesID, "migrated"))
		}
	}
}

// autoSpawnFood spawns a food cluster at a random location on the
// configured interval.
func (s *Simulation) autoSpawnFood() {
	interval := s.cfg.Food.SpawnIntervalTicks
	if interval <= 0 {
		return
	}
	if s.tick-s.lastFoodSpawn < interval {
		return
	}
	s.lastFoodSpawn = s.tick

	x := s.rng.Float32() * s.cfg.Derived.WorldW32
	y := s.rng.Float32() * s.cfg.Derived.WorldH32
	depth := s.rng.Float32() * s.cfg.Derived.Floor32
	s.SpawnFoodCluster(x, y, depth)
}

// applyRemovals removes all entities queued during the tick. Each entity is
// removed through the mapper matching its archetype, mirroring how it was
// created.
func (s *Simulation) applyRemovals() {
	for _, e := range s.toRemove {
		if !s.world.Alive(e) {
			continue
		}
		switch {
		case s.predMap.HasAll(e):
			s.predMapper.Remove(e)
		case s.memMap.HasAll(e):
			s.memMapper.Remove(e)
		default:
			s.foodMapper.Remove(e)
		}
	}
	s.toRemove = s.toRemove[:0]
}

// emit appends an event to the caller-facing queue and the stats collector.
func (s *Simulation) emit(ev telemetry.Event) {
	s.events = append(s.events, ev)
	s.collector.Record(ev)
}

// flushStatsWindow closes the stats window when due.
func (s *Simulation) flushStatsWindow() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	sample := telemetry.PopulationSample{
		Predators:  s.predCount,
		SchoolFish: s.memberCount,
		Schools:    len(s.schools),
		Food:       s.foodCount,
	}
	query := s.predFilter.Query()
	for query.Next() {
		_, _, org, pred := query.Get()
		if org.Alive {
			sample.Hungers = append(sample.Hungers, float64(pred.Hunger))
		}
	}

	stats := s.collector.Flush(s.tick, sample)
	s.stats = append(s.stats, stats)
	stats.LogStats()
}

// DrainEvents returns all events emitted since the last drain.
func (s *Simulation) DrainEvents() []telemetry.Event {
	out := s.events
	s.events = nil
	return out
}

// DrainStats returns all stats windows closed since the last drain.
func (s *Simulation) DrainStats() []telemetry.WindowStats {
	out := s.stats
	s.stats = nil
	return out
}
