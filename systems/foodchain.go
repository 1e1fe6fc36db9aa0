package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pelagic-games/strike/components"
	"github.com/pelagic-games/strike/config"
	"github.com/pelagic-games/strike/species"
)

// Consumption records one predator-prey consumption for telemetry.
type Consumption struct {
	Predator        ecs.Entity
	Prey            ecs.Entity
	PredatorSpecies uint8
	PreySpecies     uint8
	PreySchool      uint32
	FoodResource    bool // true when the "prey" was a background food resource
}

// FoodChainContext carries per-tick inputs and outputs for the resolver.
type FoodChainContext struct {
	Tick    int32
	Catalog *species.Catalog
	Cfg     *config.Config

	Schools    map[uint32]*SchoolInfo
	FoodGrid   *SpatialGrid
	MemberGrid *SpatialGrid

	// Outputs, appended by Update and drained by the registry.
	Consumptions []Consumption
	Expired      []ecs.Entity // dead prey and spent food, removed after the tick
	Migrations   []ecs.Entity // predators that started starvation migration
}

// FoodChainSystem resolves consumption on final tick positions and tracks
// prey sightings for starvation migration. Consumption runs against live
// state but removal is deferred, so a prey entity eaten this tick reads as
// dead to every later consumer in the same pass.
type FoodChainSystem struct {
	world      *ecs.World
	predFilter ecs.Filter3[components.Position, components.Organism, components.Predator]
	memFilter  ecs.Filter3[components.Position, components.Organism, components.SchoolMember]
	foodFilter ecs.Filter2[components.Position, components.Food]

	posMap  *ecs.Map1[components.Position]
	orgMap  *ecs.Map1[components.Organism]
	memMap  *ecs.Map1[components.SchoolMember]
	foodMap *ecs.Map1[components.Food]

	scratch []Neighbor
}

// NewFoodChainSystem creates a food chain resolver over the given world.
func NewFoodChainSystem(w *ecs.World) *FoodChainSystem {
	return &FoodChainSystem{
		world:      w,
		predFilter: *ecs.NewFilter3[components.Position, components.Organism, components.Predator](w),
		memFilter:  *ecs.NewFilter3[components.Position, components.Organism, components.SchoolMember](w),
		foodFilter: *ecs.NewFilter2[components.Position, components.Food](w),
		posMap:     ecs.NewMap1[components.Position](w),
		orgMap:     ecs.NewMap1[components.Organism](w),
		memMap:     ecs.NewMap1[components.SchoolMember](w),
		foodMap:    ecs.NewMap1[components.Food](w),
	}
}

// Update runs one resolver pass: food aging, predator consumption, school
// grazing, and sighting bookkeeping.
func (s *FoodChainSystem) Update(ctx *FoodChainContext) {
	s.ageFood(ctx)
	s.resolvePredators(ctx)
	s.resolveGrazing(ctx)
}

// ageFood decrements food lifespans and queues expired or consumed
// resources for removal.
func (s *FoodChainSystem) ageFood(ctx *FoodChainContext) {
	query := s.foodFilter.Query()
	for query.Next() {
		_, food := query.Get()
		if food.Consumed {
			ctx.Expired = append(ctx.Expired, query.Entity())
			continue
		}
		food.LifespanTicks--
		if food.LifespanTicks <= 0 {
			food.Consumed = true
			ctx.Expired = append(ctx.Expired, query.Entity())
		}
	}
}

// resolvePredators handles prey consumption and starvation sightings for
// every free-swimming predator.
func (s *FoodChainSystem) resolvePredators(ctx *FoodChainContext) {
	cfg := ctx.Cfg

	query := s.predFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, org, pred := query.Get()

		if !org.Alive || pred.State == components.StateHooked || pred.State == components.StateMigrating {
			continue
		}

		sp := ctx.Catalog.Get(org.SpeciesID)

		// Locked prey within range is eaten on this tick's final
		// positions. An already-dead target means another predator got
		// there first this tick; the consumption is a no-op.
		if pred.State == components.StateHunting && pred.Target.Kind == components.TargetPrey {
			s.tryConsume(entity, pos, org, pred, sp, ctx)
		}

		// Sighting bookkeeping: any eligible live school in detection
		// range resets the starvation clock.
		if s.sightsPrey(pos, sp, ctx) {
			pred.LastSightTick = ctx.Tick
		} else if ctx.Tick-pred.LastSightTick > cfg.Behavior.MigrationTimeout {
			if !pred.MigrateSignal && pred.State != components.StateMigrating {
				pred.MigrateSignal = true
				ctx.Migrations = append(ctx.Migrations, entity)
			}
		}
	}
}

// tryConsume eats the locked prey if it is alive, legal, and within the
// eater's consumption range.
func (s *FoodChainSystem) tryConsume(
	entity ecs.Entity,
	pos *components.Position,
	org *components.Organism,
	pred *components.Predator,
	sp *species.Species,
	ctx *FoodChainContext,
) {
	prey := pred.Target.Entity
	if !s.world.Alive(prey) || !s.orgMap.HasAll(prey) {
		return
	}
	preyOrg := s.orgMap.Get(prey)
	if !preyOrg.Alive {
		return
	}
	preySp := ctx.Catalog.Get(preyOrg.SpeciesID)
	if !ctx.Catalog.CanEat(sp, preySp) {
		return
	}
	preyPos := s.posMap.Get(prey)
	if distanceSq3(pos.X, pos.Y, pos.Depth, preyPos.X, preyPos.Y, preyPos.Depth) > sp.ConsumptionRange*sp.ConsumptionRange {
		return
	}

	preyOrg.Alive = false
	ctx.Expired = append(ctx.Expired, prey)

	var school uint32
	if mem := s.memMap.Get(prey); mem != nil {
		school = mem.SchoolID
	}
	ctx.Consumptions = append(ctx.Consumptions, Consumption{
		Predator:        entity,
		Prey:            prey,
		PredatorSpecies: org.SpeciesID,
		PreySpecies:     preyOrg.SpeciesID,
		PreySchool:      school,
	})

	pred.Hunger -= preySp.NutritionValue
	pred.ClampVitals()
	pred.State = components.StateFeeding
	pred.FeedTicks = ctx.Cfg.Behavior.FeedingTicks
	pred.Target = components.NoTarget()
	pred.LastSightTick = ctx.Tick
}

// sightsPrey reports whether any eligible live school is inside the
// predator's detection envelope.
func (s *FoodChainSystem) sightsPrey(pos *components.Position, sp *species.Species, ctx *FoodChainContext) bool {
	for _, info := range ctx.Schools {
		if info.Members == 0 {
			continue
		}
		preySp := ctx.Catalog.Get(info.SpeciesID)
		if !ctx.Catalog.CanEat(sp, preySp) {
			continue
		}
		if distanceSq3(pos.X, pos.Y, pos.Depth, info.X, info.Y, info.Depth) <= sp.DetectRange*sp.DetectRange {
			return true
		}
	}
	return false
}

// resolveGrazing lets schooling fish consume background food resources.
// The consumed flag makes a same-tick second bite a no-op; removal happens
// on the next tick's aging pass.
func (s *FoodChainSystem) resolveGrazing(ctx *FoodChainContext) {
	cfg := ctx.Cfg
	rangeSq := float32(cfg.Food.ConsumptionRange * cfg.Food.ConsumptionRange)

	query := s.memFilter.Query()
	for query.Next() {
		pos, org, _ := query.Get()
		if !org.Alive {
			continue
		}
		sp := ctx.Catalog.Get(org.SpeciesID)
		if !ctx.Catalog.CanEatCategory(sp, species.Plankton) {
			continue
		}

		neighbors := s.scratch[:0]
		neighbors = ctx.FoodGrid.QueryRadiusInto(neighbors, pos.X, pos.Y, pos.Depth,
			float32(cfg.Food.ConsumptionRange), query.Entity(), s.posMap)
		for i := range neighbors {
			n := &neighbors[i]
			food := s.foodMap.Get(n.E)
			if food.Consumed || n.DistSq > rangeSq {
				continue
			}
			food.Consumed = true
			ctx.Consumptions = append(ctx.Consumptions, Consumption{
				Predator:        query.Entity(),
				Prey:            n.E,
				PredatorSpecies: org.SpeciesID,
				FoodResource:    true,
			})
			break
		}
		s.scratch = neighbors[:0]
	}
}
