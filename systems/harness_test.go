package systems

import (
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pelagic-games/strike/components"
	"github.com/pelagic-games/strike/config"
	"github.com/pelagic-games/strike/species"
)

// testSpecies is a minimal two-species catalog with known numbers: an
// ambush apex fish and a schooling baitfish it eats.
func testSpecies() []config.SpeciesConfig {
	return []config.SpeciesConfig{
		{
			Name:              "pike",
			Category:          "gamefish",
			Style:             "ambush",
			StaminaClass:      "very_high",
			CruiseSpeed:       30,
			BurstSpeed:        90,
			DetectRange:       80,
			DetectVertical:    10,
			Aggressiveness:    0.7,
			OptimalLureSpeed:  40,
			StrikeDistance:    8,
			InterestThreshold: 2,
			NutritionValue:    40,
			ConsumptionRange:  6,
			DepthMin:          2,
			DepthMax:          12,
			DepthBonus:        0.3,
			BaseWeight:        4,
			Eats:              []string{"baitfish"},
		},
		{
			Name:           "minnow",
			Category:       "baitfish",
			Style:          "schooling",
			StaminaClass:   "low",
			CruiseSpeed:    40,
			BurstSpeed:     60,
			DetectRange:    30,
			DetectVertical: 5,
			NutritionValue: 15,
			BaseWeight:     0.05,
			Eats:           []string{"plankton"},
			EatenBy:        []string{"gamefish", "panfish"},
			Schooling: config.SchoolingConfig{
				Enabled:          true,
				SeparationRadius: 5,
				AlignmentRadius:  12,
				CohesionRadius:   20,
				SeparationWeight: 1.5,
				AlignmentWeight:  1.0,
				CohesionWeight:   0.8,
				FoodWeight:       0.3,
				PanicRadius:      30,
				PanicSpeedMult:   1.8,
			},
		},
	}
}

// approx32 compares float32 values with a small absolute tolerance.
func approx32(a, b float32) bool {
	return absf(a-b) < 1e-3
}

// fixture wires a world, catalog, and grids for system tests.
type fixture struct {
	world   *ecs.World
	cfg     *config.Config
	catalog *species.Catalog
	rng     *rand.Rand

	predMapper *ecs.Map4[components.Position, components.Velocity, components.Organism, components.Predator]
	memMapper  *ecs.Map4[components.Position, components.Velocity, components.Organism, components.SchoolMember]
	foodMapper *ecs.Map2[components.Position, components.Food]

	posMap  *ecs.Map1[components.Position]
	orgMap  *ecs.Map1[components.Organism]
	predMap *ecs.Map1[components.Predator]
	memMap  *ecs.Map1[components.SchoolMember]
	foodMap *ecs.Map1[components.Food]
	velMap  *ecs.Map1[components.Velocity]

	memberGrid *SpatialGrid
	foodGrid   *SpatialGrid
	predGrid   *SpatialGrid

	nextID uint32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	cfg.Species = testSpecies()

	world := ecs.NewWorld()
	cell := float32(cfg.Physics.GridCellSize)

	return &fixture{
		world:   world,
		cfg:     cfg,
		catalog: species.NewCatalog(cfg.Species),
		rng:     rand.New(rand.NewSource(1)),

		predMapper: ecs.NewMap4[components.Position, components.Velocity, components.Organism, components.Predator](world),
		memMapper:  ecs.NewMap4[components.Position, components.Velocity, components.Organism, components.SchoolMember](world),
		foodMapper: ecs.NewMap2[components.Position, components.Food](world),

		posMap:  ecs.NewMap1[components.Position](world),
		orgMap:  ecs.NewMap1[components.Organism](world),
		predMap: ecs.NewMap1[components.Predator](world),
		memMap:  ecs.NewMap1[components.SchoolMember](world),
		foodMap: ecs.NewMap1[components.Food](world),
		velMap:  ecs.NewMap1[components.Velocity](world),

		memberGrid: NewSpatialGrid(cfg.Derived.WorldW32, cfg.Derived.WorldH32, cell),
		foodGrid:   NewSpatialGrid(cfg.Derived.WorldW32, cfg.Derived.WorldH32, cell),
		predGrid:   NewSpatialGrid(cfg.Derived.WorldW32, cfg.Derived.WorldH32, cell),

		nextID: 1,
	}
}

func (f *fixture) speciesID(t *testing.T, name string) uint8 {
	t.Helper()
	id, ok := f.catalog.IndexOf(name)
	if !ok {
		t.Fatalf("unknown test species %q", name)
	}
	return id
}

func (f *fixture) addPredator(t *testing.T, name string, x, y, depth, hunger float32) ecs.Entity {
	t.Helper()
	id := f.nextID
	f.nextID++

	pos := components.Position{X: x, Y: y, Depth: depth}
	vel := components.Velocity{}
	org := components.Organism{
		ID:        id,
		SpeciesID: f.speciesID(t, name),
		Weight:    f.catalog.Get(f.speciesID(t, name)).BaseWeight,
		Visible:   true,
		Alive:     true,
	}
	pred := components.Predator{
		Hunger: hunger,
		Health: 100,
		State:  components.StateIdle,
		Target: components.NoTarget(),
	}
	return f.predMapper.NewEntity(&pos, &vel, &org, &pred)
}

func (f *fixture) addMember(t *testing.T, name string, schoolID uint32, x, y, depth float32) ecs.Entity {
	t.Helper()
	id := f.nextID
	f.nextID++

	pos := components.Position{X: x, Y: y, Depth: depth}
	vel := components.Velocity{}
	org := components.Organism{
		ID:        id,
		SpeciesID: f.speciesID(t, name),
		Weight:    0.05,
		Visible:   true,
		Alive:     true,
	}
	mem := components.SchoolMember{SchoolID: schoolID}
	return f.memMapper.NewEntity(&pos, &vel, &org, &mem)
}

func (f *fixture) addFood(x, y, depth float32, lifespan int32) ecs.Entity {
	pos := components.Position{X: x, Y: y, Depth: depth}
	food := components.Food{LifespanTicks: lifespan}
	return f.foodMapper.NewEntity(&pos, &food)
}

// rebuildGrids mirrors the registry's per-tick grid rebuild.
func (f *fixture) rebuildGrids() {
	f.memberGrid.Clear()
	f.foodGrid.Clear()
	f.predGrid.Clear()

	memFilter := ecs.NewFilter3[components.Position, components.Organism, components.SchoolMember](f.world)
	memQuery := memFilter.Query()
	for memQuery.Next() {
		pos, org, _ := memQuery.Get()
		if org.Alive {
			f.memberGrid.Insert(memQuery.Entity(), pos.X, pos.Y)
		}
	}

	foodFilter := ecs.NewFilter2[components.Position, components.Food](f.world)
	foodQuery := foodFilter.Query()
	for foodQuery.Next() {
		pos, food := foodQuery.Get()
		if !food.Consumed {
			f.foodGrid.Insert(foodQuery.Entity(), pos.X, pos.Y)
		}
	}

	predFilter := ecs.NewFilter3[components.Position, components.Organism, components.Predator](f.world)
	predQuery := predFilter.Query()
	for predQuery.Next() {
		pos, org, _ := predQuery.Get()
		if org.Alive {
			f.predGrid.Insert(predQuery.Entity(), pos.X, pos.Y)
		}
	}
}
