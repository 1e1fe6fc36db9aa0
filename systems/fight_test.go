package systems

import (
	"testing"

	"github.com/pelagic-games/strike/components"
)

func hookFish(t *testing.T, f *fixture, fs *FightSystem) (*FightSession, *components.Predator, *components.Organism) {
	t.Helper()
	entity := f.addPredator(t, "pike", 400, 400, 5, 30)
	pred := f.predMap.Get(entity)
	pred.State = components.StateHooked
	pred.Target = components.LureTarget()

	session := fs.Begin(entity, 1, f.catalog)
	if session == nil {
		t.Fatal("expected a fight session for a live hooked fish")
	}
	return session, pred, f.orgMap.Get(entity)
}

// TestFightBeginStaminaPool verifies the stamina pool is health scaled by the
// species stamina class.
func TestFightBeginStaminaPool(t *testing.T) {
	f := newFixture(t)
	fs := NewFightSystem(f.world)

	session, pred, org := hookFish(t, f, fs)

	sp := f.catalog.Get(f.speciesID(t, "pike"))
	want := pred.Health * sp.Stamina.Multiplier()
	if !approx32(session.MaxStamina, want) {
		t.Errorf("stamina pool = %v, want %v", session.MaxStamina, want)
	}
	if session.Stamina != session.MaxStamina {
		t.Error("a fresh fish starts at full stamina")
	}
	if session.Weight != org.Weight {
		t.Error("session weight must copy the organism weight")
	}
}

// TestLineBreaksAtThreshold verifies tension reaching the break threshold
// exactly snaps the line: the fish escapes and swims off wary.
func TestLineBreaksAtThreshold(t *testing.T) {
	f := newFixture(t)
	f.cfg.Fight.ReelTension = 4
	f.cfg.Fight.ResistanceScale = 0
	f.cfg.Fight.TensionDecay = 0
	f.cfg.Fight.BreakThreshold = 8
	f.cfg.Fight.ReelMinIntervalTicks = 1
	fs := NewFightSystem(f.world)

	session, pred, org := hookFish(t, f, fs)

	ctx := FightContext{Tick: 2, Cfg: f.cfg, Catalog: f.catalog, ReelRequested: true, ReelIntensity: 1, AnchorX: 500, AnchorY: 400}
	fs.Update(session, &ctx)
	if ctx.Outcome != FightOngoing {
		t.Fatalf("tension below the threshold must continue, got %v", ctx.Outcome)
	}

	ctx.Tick = 3
	fs.Update(session, &ctx)
	if ctx.Outcome != FightEscaped {
		t.Fatalf("expected an escape at the threshold, got %v", ctx.Outcome)
	}
	if ctx.EscapeReason != EscapeLineBroken {
		t.Errorf("escape reason = %q, want %q", ctx.EscapeReason, EscapeLineBroken)
	}
	if !org.Alive {
		t.Error("a line break must not kill the fish")
	}
	if pred.State != components.StateIdle {
		t.Errorf("escaped fish state = %v, want idle", pred.State)
	}
	if pred.WaryTicks != f.cfg.Behavior.WaryTicks {
		t.Errorf("wary ticks = %d, want %d", pred.WaryTicks, f.cfg.Behavior.WaryTicks)
	}
}

// TestSteadyPressureLandsFish verifies draining the stamina pool to zero
// lands the fish.
func TestSteadyPressureLandsFish(t *testing.T) {
	f := newFixture(t)
	f.cfg.Fight.ReelTension = 5
	f.cfg.Fight.ResistanceScale = 0.5
	f.cfg.Fight.TensionDecay = 5
	f.cfg.Fight.BreakThreshold = 85
	f.cfg.Fight.ReelMinIntervalTicks = 2
	f.cfg.Fight.StaminaDrainScale = 50
	fs := NewFightSystem(f.world)

	session, _, org := hookFish(t, f, fs)

	var outcome FightOutcome
	for tick := int32(2); tick < 5000; tick++ {
		ctx := FightContext{
			Tick:          tick,
			Cfg:           f.cfg,
			Catalog:       f.catalog,
			ReelRequested: tick%2 == 0,
			ReelIntensity: 1,
			AnchorX:       500,
			AnchorY:       400,
		}
		fs.Update(session, &ctx)
		if ctx.Outcome != FightOngoing {
			outcome = ctx.Outcome
			break
		}
	}

	if outcome != FightLanded {
		t.Fatalf("expected the fish landed, got %v", outcome)
	}
	if org.Alive {
		t.Error("a landed fish is dead pending removal")
	}
	if session.Stamina != 0 {
		t.Errorf("stamina = %v, want 0", session.Stamina)
	}
}

// TestReelRateLimiting verifies reel actions inside the minimum interval are
// dropped and decay applies instead.
func TestReelRateLimiting(t *testing.T) {
	f := newFixture(t)
	fs := NewFightSystem(f.world)

	session, _, _ := hookFish(t, f, fs)
	cfg := f.cfg

	ctx := FightContext{Tick: 2, Cfg: cfg, Catalog: f.catalog, ReelRequested: true, ReelIntensity: 1, AnchorX: 500, AnchorY: 400}
	fs.Update(session, &ctx)

	afterFirst := float32(cfg.Fight.ReelTension) + float32(cfg.Fight.ResistanceScale)*session.StaminaRatio()
	if absf(session.Tension-afterFirst) > 0.1 {
		t.Fatalf("tension after accepted reel = %v, want about %v", session.Tension, afterFirst)
	}

	// One tick later the reel is inside the interval: dropped, tension
	// decays and only fish resistance is added.
	before := session.Tension
	ctx.Tick = 3
	fs.Update(session, &ctx)

	want := before - float32(cfg.Fight.TensionDecay) + float32(cfg.Fight.ResistanceScale)*session.StaminaRatio()
	if absf(session.Tension-want) > 0.1 {
		t.Errorf("tension after dropped reel = %v, want about %v", session.Tension, want)
	}
	if session.LastReelTick != 2 {
		t.Errorf("last reel tick = %d, want 2", session.LastReelTick)
	}
}

// TestRelentlessReelingBreaksOnStrongFish verifies reeling every tick against
// a very high stamina fish snaps the line long before the fish tires.
func TestRelentlessReelingBreaksOnStrongFish(t *testing.T) {
	f := newFixture(t)
	f.cfg.Fight.ReelMinIntervalTicks = 1
	fs := NewFightSystem(f.world)

	session, _, org := hookFish(t, f, fs)

	var outcome FightOutcome
	var reason string
	for tick := int32(2); tick < 1000; tick++ {
		ctx := FightContext{Tick: tick, Cfg: f.cfg, Catalog: f.catalog, ReelRequested: true, ReelIntensity: 1, AnchorX: 500, AnchorY: 400}
		fs.Update(session, &ctx)
		if ctx.Outcome != FightOngoing {
			outcome = ctx.Outcome
			reason = ctx.EscapeReason
			break
		}
	}

	if outcome != FightEscaped || reason != EscapeLineBroken {
		t.Fatalf("expected a line break, got outcome=%v reason=%q", outcome, reason)
	}
	if !org.Alive {
		t.Error("the escaped fish must survive")
	}
	if session.StaminaRatio() < 0.5 {
		t.Errorf("a fast break should leave most stamina, ratio=%v", session.StaminaRatio())
	}
}

// TestCutLineReleasesWary verifies a player release reports its own escape
// reason and leaves the fish wary.
func TestCutLineReleasesWary(t *testing.T) {
	f := newFixture(t)
	fs := NewFightSystem(f.world)

	session, pred, org := hookFish(t, f, fs)

	ctx := FightContext{Tick: 2, Cfg: f.cfg, Catalog: f.catalog}
	fs.Release(session, &ctx)

	if ctx.Outcome != FightEscaped || ctx.EscapeReason != EscapeReleased {
		t.Fatalf("expected a released escape, got outcome=%v reason=%q", ctx.Outcome, ctx.EscapeReason)
	}
	if !org.Alive {
		t.Error("a released fish survives")
	}
	if !pred.Wary() {
		t.Error("a released fish swims off wary")
	}
}

// TestFightFishLost verifies a session whose fish died out from under it
// reports the loss instead of panicking.
func TestFightFishLost(t *testing.T) {
	f := newFixture(t)
	fs := NewFightSystem(f.world)

	session, _, org := hookFish(t, f, fs)
	org.Alive = false

	ctx := FightContext{Tick: 2, Cfg: f.cfg, Catalog: f.catalog}
	fs.Update(session, &ctx)

	if ctx.Outcome != FightEscaped || ctx.EscapeReason != EscapeFishLost {
		t.Errorf("expected a fish-lost escape, got outcome=%v reason=%q", ctx.Outcome, ctx.EscapeReason)
	}
}
