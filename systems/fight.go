package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pelagic-games/strike/components"
	"github.com/pelagic-games/strike/config"
	"github.com/pelagic-games/strike/species"
)

// FightOutcome is the per-tick result of the fight resolver.
type FightOutcome uint8

const (
	FightOngoing FightOutcome = iota
	FightLanded               // stamina exhausted, fish landed
	FightEscaped              // line broke or the fish got off
)

// Escape reasons reported with FightEscaped.
const (
	EscapeLineBroken = "line_broken"
	EscapeFishLost   = "fish_lost" // hooked predator despawned mid-fight
	EscapeReleased   = "released"  // player cut the line
)

// FightSession is the single active tension/stamina contest. At most one
// session exists at a time; while it runs, the hooked predator's decision
// state machine is suspended.
type FightSession struct {
	Predator   ecs.Entity
	OrganismID uint32
	SpeciesID  uint8
	Weight     float32

	Tension    float32
	Stamina    float32
	MaxStamina float32

	StartTick    int32
	LastReelTick int32
}

// StaminaRatio returns remaining stamina as a 0..1 fraction.
func (f *FightSession) StaminaRatio() float32 {
	if f.MaxStamina <= 0 {
		return 0
	}
	return f.Stamina / f.MaxStamina
}

// FightContext carries per-tick inputs and outputs for the fight resolver.
type FightContext struct {
	Tick    int32
	Cfg     *config.Config
	Catalog *species.Catalog

	// ReelRequested is the player's reel action for this tick. Actions
	// arriving faster than the minimum reel interval are dropped.
	ReelRequested bool
	ReelIntensity float32 // 0..1, scales the tension added by a reel

	// Anchor is the line anchor point the fish is being pulled toward.
	AnchorX, AnchorY float32

	Outcome      FightOutcome
	EscapeReason string
}

// FightSystem advances the tension/stamina contest each tick.
type FightSystem struct {
	world   *ecs.World
	posMap  *ecs.Map1[components.Position]
	orgMap  *ecs.Map1[components.Organism]
	predMap *ecs.Map1[components.Predator]
}

// NewFightSystem creates a fight resolver over the given world.
func NewFightSystem(w *ecs.World) *FightSystem {
	return &FightSystem{
		world:   w,
		posMap:  ecs.NewMap1[components.Position](w),
		orgMap:  ecs.NewMap1[components.Organism](w),
		predMap: ecs.NewMap1[components.Predator](w),
	}
}

// alive reports whether the session's fish still exists in the world.
func (s *FightSystem) alive(f *FightSession) bool {
	return s.world.Alive(f.Predator) && s.predMap.HasAll(f.Predator)
}

// Begin opens a session for a freshly hooked predator. The stamina pool is
// the fish's health scaled by its species stamina class.
func (s *FightSystem) Begin(hooked ecs.Entity, tick int32, catalog *species.Catalog) *FightSession {
	if !s.world.Alive(hooked) || !s.predMap.HasAll(hooked) {
		return nil
	}
	org := s.orgMap.Get(hooked)
	pred := s.predMap.Get(hooked)
	sp := catalog.Get(org.SpeciesID)
	pool := pred.Health * sp.Stamina.Multiplier()
	return &FightSession{
		Predator:     hooked,
		OrganismID:   org.ID,
		SpeciesID:    org.SpeciesID,
		Weight:       org.Weight,
		Stamina:      pool,
		MaxStamina:   pool,
		StartTick:    tick,
		LastReelTick: tick - 1<<20, // first reel is always accepted
	}
}

// Update advances the session one tick and reports its outcome in ctx.
// On FightLanded the registry removes the predator; on FightEscaped the
// resolver has already returned it to free swimming, wary.
func (s *FightSystem) Update(f *FightSession, ctx *FightContext) {
	cfg := ctx.Cfg
	ctx.Outcome = FightOngoing
	ctx.EscapeReason = ""

	if !s.alive(f) {
		ctx.Outcome = FightEscaped
		ctx.EscapeReason = EscapeFishLost
		return
	}
	org := s.orgMap.Get(f.Predator)
	pred := s.predMap.Get(f.Predator)
	if !org.Alive {
		ctx.Outcome = FightEscaped
		ctx.EscapeReason = EscapeFishLost
		return
	}

	// Reel input, rate limited. A dropped action still decays tension.
	reeled := false
	if ctx.ReelRequested && ctx.Tick-f.LastReelTick >= cfg.Fight.ReelMinIntervalTicks {
		intensity := ctx.ReelIntensity
		if intensity <= 0 || intensity > 1 {
			intensity = 1
		}
		f.Tension += float32(cfg.Fight.ReelTension) * intensity
		f.LastReelTick = ctx.Tick
		reeled = true
	}
	if !reeled {
		f.Tension -= float32(cfg.Fight.TensionDecay)
		if f.Tension < 0 {
			f.Tension = 0
		}
	}

	// Fish resistance scales with remaining stamina: a fresh fish fights
	// the line hard, a spent one barely pulls.
	f.Tension += float32(cfg.Fight.ResistanceScale) * f.StaminaRatio()

	// Holding tension drains the fish.
	f.Stamina -= float32(cfg.Fight.StaminaDrainScale) * f.Tension * cfg.Derived.DT32

	if f.Tension >= float32(cfg.Fight.BreakThreshold) {
		s.release(org, pred, cfg)
		ctx.Outcome = FightEscaped
		ctx.EscapeReason = EscapeLineBroken
		return
	}

	if f.Stamina <= 0 {
		f.Stamina = 0
		org.Alive = false
		ctx.Outcome = FightLanded
		return
	}

	s.moveHooked(f, org, ctx)
}

// Release ends the session on the player's terms (cut line). The fish swims
// off wary.
func (s *FightSystem) Release(f *FightSession, ctx *FightContext) {
	ctx.Outcome = FightEscaped
	ctx.EscapeReason = EscapeReleased
	if !s.alive(f) {
		ctx.EscapeReason = EscapeFishLost
		return
	}
	s.release(s.orgMap.Get(f.Predator), s.predMap.Get(f.Predator), ctx.Cfg)
}

// release returns the fish to free swimming with its post-escape wariness.
func (s *FightSystem) release(org *components.Organism, pred *components.Predator, cfg *config.Config) {
	pred.State = components.StateIdle
	pred.Target = components.NoTarget()
	pred.Interest = 0
	pred.WaryTicks = cfg.Behavior.WaryTicks
	org.Speed = 0
}

// moveHooked drags the fish toward the anchor while it is being reeled and
// lets it run when slack. Run strength falls off with stamina.
func (s *FightSystem) moveHooked(f *FightSession, org *components.Organism, ctx *FightContext) {
	pos := s.posMap.Get(f.Predator)
	cfg := ctx.Cfg
	sp := ctx.Catalog.Get(f.SpeciesID)
	dt := cfg.Derived.DT32

	toAnchor := headingToward(pos.X, pos.Y, ctx.AnchorX, ctx.AnchorY)
	if f.Tension > float32(cfg.Fight.BreakThreshold)*0.5 {
		// Line taut: the fish loses ground toward the anchor.
		pull := sp.CruiseSpeed * (1 - f.StaminaRatio())
		org.Heading = toAnchor
		org.Speed = pull
	} else {
		// Slack line: the fish runs.
		org.Heading = toAnchor + 3.14159265
		org.Speed = sp.BurstSpeed * f.StaminaRatio()
	}

	vx, vy := velocityFromHeading(org.Heading, org.Speed)
	pos.X = clamp32(pos.X+vx*dt, 0, cfg.Derived.WorldW32)
	pos.Y = clamp32(pos.Y+vy*dt, 0, cfg.Derived.WorldH32)
	pos.Depth = clamp32(pos.Depth, 0, cfg.Derived.Floor32)
}
