package systems

import (
	"testing"

	"github.com/pelagic-games/strike/components"
)

func newFoodChainContext(f *fixture, tick int32) FoodChainContext {
	return FoodChainContext{
		Tick:       tick,
		Catalog:    f.catalog,
		Cfg:        f.cfg,
		Schools:    map[uint32]*SchoolInfo{},
		FoodGrid:   f.foodGrid,
		MemberGrid: f.memberGrid,
	}
}

// TestConsumptionHappyPath verifies a hunting fish with locked prey in range
// eats it: the prey dies, hunger drops by its nutrition value, and the eater
// enters its feeding pause.
func TestConsumptionHappyPath(t *testing.T) {
	f := newFixture(t)
	fc := NewFoodChainSystem(f.world)

	hunter := f.addPredator(t, "pike", 400, 400, 5, 80)
	prey := f.addMember(t, "minnow", 1, 403, 400, 5)

	pred := f.predMap.Get(hunter)
	pred.State = components.StateHunting
	pred.Target = components.PreyTarget(prey)

	ctx := newFoodChainContext(f, 1)
	fc.Update(&ctx)

	if f.orgMap.Get(prey).Alive {
		t.Error("expected the prey to be dead after consumption")
	}
	if len(ctx.Consumptions) != 1 {
		t.Fatalf("expected 1 consumption, got %d", len(ctx.Consumptions))
	}
	c := ctx.Consumptions[0]
	if c.Predator != hunter || c.Prey != prey {
		t.Error("consumption records the wrong entities")
	}
	if c.PreySchool != 1 {
		t.Errorf("expected prey school 1, got %d", c.PreySchool)
	}

	minnow := f.catalog.Get(f.speciesID(t, "minnow"))
	if want := 80 - minnow.NutritionValue; !approx32(pred.Hunger, want) {
		t.Errorf("hunger = %v, want %v", pred.Hunger, want)
	}
	if pred.State != components.StateFeeding {
		t.Errorf("expected feeding, got %v", pred.State)
	}
	if pred.FeedTicks != f.cfg.Behavior.FeedingTicks {
		t.Errorf("feed ticks = %d, want %d", pred.FeedTicks, f.cfg.Behavior.FeedingTicks)
	}

	found := false
	for _, e := range ctx.Expired {
		if e == prey {
			found = true
		}
	}
	if !found {
		t.Error("expected the prey queued for removal")
	}
}

// TestSameTickDoubleConsumption verifies two fish locked on one prey resolve
// to a single consumption; the loser's attempt is a no-op against the
// already-dead entity.
func TestSameTickDoubleConsumption(t *testing.T) {
	f := newFixture(t)
	fc := NewFoodChainSystem(f.world)

	a := f.addPredator(t, "pike", 398, 400, 5, 80)
	b := f.addPredator(t, "pike", 402, 400, 5, 80)
	prey := f.addMember(t, "minnow", 1, 400, 400, 5)

	predA := f.predMap.Get(a)
	predB := f.predMap.Get(b)
	for _, p := range []*components.Predator{predA, predB} {
		p.State = components.StateHunting
		p.Target = components.PreyTarget(prey)
	}

	ctx := newFoodChainContext(f, 1)
	fc.Update(&ctx)

	if len(ctx.Consumptions) != 1 {
		t.Fatalf("expected exactly 1 consumption, got %d", len(ctx.Consumptions))
	}
	fed := 0
	for _, p := range []*components.Predator{predA, predB} {
		if p.State == components.StateFeeding {
			fed++
		}
	}
	if fed != 1 {
		t.Errorf("expected exactly one feeding fish, got %d", fed)
	}
}

// TestIllegalDietIsNoOp verifies a locked target outside the eater's diet is
// never consumed even in range.
func TestIllegalDietIsNoOp(t *testing.T) {
	f := newFixture(t)
	fc := NewFoodChainSystem(f.world)

	hunter := f.addPredator(t, "pike", 400, 400, 5, 80)
	other := f.addPredator(t, "pike", 403, 400, 5, 30)

	pred := f.predMap.Get(hunter)
	pred.State = components.StateHunting
	pred.Target = components.PreyTarget(other)

	ctx := newFoodChainContext(f, 1)
	fc.Update(&ctx)

	if len(ctx.Consumptions) != 0 {
		t.Fatalf("expected no consumption, got %d", len(ctx.Consumptions))
	}
	if !f.orgMap.Get(other).Alive {
		t.Error("the illegal target must survive")
	}
}

// TestHungerClampsAtZero verifies eating past satiation floors hunger at
// zero instead of going negative.
func TestHungerClampsAtZero(t *testing.T) {
	f := newFixture(t)
	fc := NewFoodChainSystem(f.world)

	hunter := f.addPredator(t, "pike", 400, 400, 5, 5)
	prey := f.addMember(t, "minnow", 1, 403, 400, 5)

	pred := f.predMap.Get(hunter)
	pred.State = components.StateHunting
	pred.Target = components.PreyTarget(prey)

	ctx := newFoodChainContext(f, 1)
	fc.Update(&ctx)

	if pred.Hunger != 0 {
		t.Errorf("hunger = %v, want 0", pred.Hunger)
	}
}

// TestStarvationRaisesMigration verifies a fish that has gone a full timeout
// without sighting eligible prey raises its migration signal exactly once.
func TestStarvationRaisesMigration(t *testing.T) {
	f := newFixture(t)
	fc := NewFoodChainSystem(f.world)

	entity := f.addPredator(t, "pike", 400, 400, 5, 80)
	pred := f.predMap.Get(entity)

	tick := f.cfg.Behavior.MigrationTimeout + 1
	ctx := newFoodChainContext(f, tick)
	fc.Update(&ctx)

	if !pred.MigrateSignal {
		t.Fatal("expected the migration signal after the sighting timeout")
	}
	if len(ctx.Migrations) != 1 || ctx.Migrations[0] != entity {
		t.Fatalf("expected one migration for the starving fish, got %d", len(ctx.Migrations))
	}

	// A second pass must not re-raise an already-pending signal.
	ctx2 := newFoodChainContext(f, tick+1)
	fc.Update(&ctx2)
	if len(ctx2.Migrations) != 0 {
		t.Errorf("expected no duplicate migration, got %d", len(ctx2.Migrations))
	}
}

// TestSightingResetsStarvationClock verifies an eligible school in detection
// range keeps the starvation clock pinned to the current tick.
func TestSightingResetsStarvationClock(t *testing.T) {
	f := newFixture(t)
	fc := NewFoodChainSystem(f.world)

	entity := f.addPredator(t, "pike", 400, 400, 5, 80)
	pred := f.predMap.Get(entity)

	tick := f.cfg.Behavior.MigrationTimeout + 1
	ctx := newFoodChainContext(f, tick)
	ctx.Schools[1] = &SchoolInfo{ID: 1, SpeciesID: f.speciesID(t, "minnow"), Members: 5, X: 430, Y: 400, Depth: 5}
	fc.Update(&ctx)

	if pred.MigrateSignal {
		t.Error("a sighted school must suppress migration")
	}
	if pred.LastSightTick != tick {
		t.Errorf("last sight tick = %d, want %d", pred.LastSightTick, tick)
	}
}

// TestFoodLifespanExpiry verifies food resources age out and consumed ones
// are swept on the next pass.
func TestFoodLifespanExpiry(t *testing.T) {
	f := newFixture(t)
	fc := NewFoodChainSystem(f.world)

	stale := f.addFood(400, 400, 5, 1)
	fresh := f.addFood(500, 400, 5, 1000)

	ctx := newFoodChainContext(f, 1)
	fc.Update(&ctx)

	if !f.foodMap.Get(stale).Consumed {
		t.Error("expected the stale resource consumed on expiry")
	}
	if f.foodMap.Get(fresh).Consumed {
		t.Error("the fresh resource must survive")
	}
	if len(ctx.Expired) != 1 || ctx.Expired[0] != stale {
		t.Fatalf("expected only the stale resource queued, got %d", len(ctx.Expired))
	}
}

// TestGrazingConsumesOneResource verifies a schooling fish grazes exactly one
// food resource per tick and marks it consumed for idempotence.
func TestGrazingConsumesOneResource(t *testing.T) {
	f := newFixture(t)
	fc := NewFoodChainSystem(f.world)

	f.addMember(t, "minnow", 1, 400, 400, 5)
	f.addFood(401, 400, 5, 1000)
	f.addFood(399, 400, 5, 1000)
	f.rebuildGrids()

	ctx := newFoodChainContext(f, 1)
	fc.Update(&ctx)

	grazes := 0
	for _, c := range ctx.Consumptions {
		if c.FoodResource {
			grazes++
		}
	}
	if grazes != 1 {
		t.Fatalf("expected one graze per tick, got %d", grazes)
	}

	// The bitten resource is flagged for next tick's sweep.
	for _, c := range ctx.Consumptions {
		if c.FoodResource && !f.foodMap.Get(c.Prey).Consumed {
			t.Error("expected the grazed resource flagged consumed")
		}
	}
}
