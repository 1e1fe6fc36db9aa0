package systems

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pelagic-games/strike/components"
	"github.com/pelagic-games/strike/config"
	"github.com/pelagic-games/strike/species"
)

// LureState is the decision engine's read-only view of the player lure.
type LureState struct {
	X, Y, Depth float32
	Speed       float32 // retrieve speed magnitude
	Active      bool    // a lure is in the water
	Held        bool    // a fight session currently owns the line
}

// Engageable reports whether a fish may take the lure. While a fight session
// owns the line, other predators still track the lure's position but cannot
// open a second fight on it.
func (l *LureState) Engageable() bool {
	return l.Active && !l.Held
}

// SchoolInfo summarizes one live school for target selection.
type SchoolInfo struct {
	ID        uint32
	SpeciesID uint8
	Members   int
	X, Y      float32 // centroid
	Depth     float32
}

// DecisionContext carries per-tick inputs and outputs for the decision pass.
type DecisionContext struct {
	Tick    int32
	Catalog *species.Catalog
	Cfg     *config.Config
	Rng     *rand.Rand

	Lure    LureState
	Schools map[uint32]*SchoolInfo

	// HooksetRequested is the player's hookset attempt for this tick. The
	// first predator in registry order that satisfies the striking
	// conditions consumes it; any further request is a no-op.
	HooksetRequested bool

	// Hooked is set when a predator transitioned to the hooked state this
	// tick; the registry hands it to the fight resolver.
	Hooked    ecs.Entity
	HookedSet bool

	MemberGrid *SpatialGrid
}

// DecisionSystem runs the per-predator behavioral state machine and produces
// movement. Predators in a fight session are excluded entirely; their
// position is driven by fight physics.
type DecisionSystem struct {
	world  *ecs.World
	filter ecs.Filter4[components.Position, components.Velocity, components.Organism, components.Predator]
	posMap *ecs.Map1[components.Position]
	orgMap *ecs.Map1[components.Organism]
	memMap *ecs.Map1[components.SchoolMember]

	scratch []Neighbor
}

// NewDecisionSystem creates a decision system over the given world.
func NewDecisionSystem(w *ecs.World) *DecisionSystem {
	return &DecisionSystem{
		world:  w,
		filter: *ecs.NewFilter4[components.Position, components.Velocity, components.Organism, components.Predator](w),
		posMap: ecs.NewMap1[components.Position](w),
		orgMap: ecs.NewMap1[components.Organism](w),
		memMap: ecs.NewMap1[components.SchoolMember](w),
	}
}

// Update advances every free-swimming predator by one tick.
func (s *DecisionSystem) Update(ctx *DecisionContext) {
	cfg := ctx.Cfg
	dt := cfg.Derived.DT32

	query := s.filter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, vel, org, pred := query.Get()

		if !org.Alive || pred.State == components.StateHooked {
			continue
		}

		// Metabolism: hunger builds every tick the fish swims free, so a
		// fed fish eventually crosses the feeding threshold again.
		pred.Hunger += float32(cfg.Behavior.HungerRate) * dt

		s.tickTimers(pred)
		s.validateTarget(pred, ctx)

		sp := ctx.Catalog.Get(org.SpeciesID)

		// Schooling-only species never engage the lure or hunt through
		// this engine; their movement belongs to the flock controller.
		if sp.Style == species.StyleSchooling {
			continue
		}

		// Starvation migration preempts everything except an active
		// fight. The signal is raised by the food chain resolver.
		if pred.MigrateSignal && pred.State != components.StateMigrating {
			pred.MigrateSignal = false
			s.beginMigration(pos, pred, cfg)
		}

		switch pred.State {
		case components.StateIdle:
			s.updateIdle(pos, org, pred, sp, ctx)
		case components.StateInvestigating:
			s.updateInvestigating(pos, org, pred, sp, ctx)
		case components.StateChasing:
			s.updateChasing(pos, org, pred, sp, ctx)
		case components.StateStriking:
			s.updateStriking(entity, pos, org, pred, sp, ctx)
		case components.StateHunting:
			s.updateHunting(entity, pos, org, pred, sp, ctx)
		case components.StateFeeding:
			pred.FeedTicks--
			org.Speed = 0
			if pred.FeedTicks <= 0 {
				pred.State = components.StateIdle
				pred.Target = components.NoTarget()
			}
		case components.StateMigrating:
			org.Heading = pred.MigrateHeading
			org.Speed = sp.BurstSpeed * float32(cfg.Behavior.MigrationSpeedMult)
		}

		pred.ClampVitals()

		// Integrate movement from heading and speed. Migrating predators
		// are allowed to leave the playable area; everyone else is kept
		// inside the lake.
		vel.X = float32(math.Cos(float64(org.Heading))) * org.Speed
		vel.Y = float32(math.Sin(float64(org.Heading))) * org.Speed
		pos.X += vel.X * dt
		pos.Y += vel.Y * dt
		pos.Depth += vel.VDepth * dt

		if pred.State != components.StateMigrating {
			pos.X = clamp32(pos.X, 0, cfg.Derived.WorldW32)
			pos.Y = clamp32(pos.Y, 0, cfg.Derived.WorldH32)
		}
		pos.Depth = clamp32(pos.Depth, 0, cfg.Derived.Floor32)

		org.AgeTicks++
	}
}

// tickTimers decrements the predator's tick counters; none go negative.
func (s *DecisionSystem) tickTimers(pred *components.Predator) {
	if pred.CommitTicks > 0 {
		pred.CommitTicks--
	}
	if pred.AbandonTicks > 0 {
		pred.AbandonTicks--
	}
	if pred.WaryTicks > 0 {
		pred.WaryTicks--
	}
}

// validateTarget converts a dangling target reference into an immediate
// state reset rather than letting it propagate.
func (s *DecisionSystem) validateTarget(pred *components.Predator, ctx *DecisionContext) {
	switch pred.Target.Kind {
	case components.TargetPrey:
		e := pred.Target.Entity
		if !s.world.Alive(e) || !s.orgMap.HasAll(e) || !s.orgMap.Get(e).Alive {
			pred.Target = components.NoTarget()
			if pred.State == components.StateHunting {
				pred.State = components.StateIdle
			}
		}
	case components.TargetSchool:
		if info, ok := ctx.Schools[pred.Target.School]; !ok || info.Members == 0 {
			if pred.State == components.StateHunting {
				s.abandonSchool(pred, ctx.Cfg)
			} else {
				pred.Target = components.NoTarget()
			}
		}
	}
}

// abandonSchool drops the hunted school and starts its re-target cooldown.
func (s *DecisionSystem) abandonSchool(pred *components.Predator, cfg *config.Config) {
	pred.AbandonedSchool = pred.Target.School
	pred.AbandonTicks = cfg.Behavior.AbandonCooldownTicks
	pred.Target = components.NoTarget()
	pred.CommitTicks = 0
	pred.State = components.StateIdle
}

// lureInEnvelope checks the species' depth-zone-modified detection envelope.
func lureInEnvelope(pos *components.Position, sp *species.Species, lure *LureState) bool {
	dx := lure.X - pos.X
	dy := lure.Y - pos.Y
	if dx*dx+dy*dy > sp.DetectRange*sp.DetectRange {
		return false
	}
	return absf(lure.Depth-pos.Depth) <= sp.DetectVertical
}

// nearestEligibleSchool finds the closest huntable school within detection
// range, honoring the abandon cooldown.
func (s *DecisionSystem) nearestEligibleSchool(
	pos *components.Position,
	sp *species.Species,
	pred *components.Predator,
	ctx *DecisionContext,
) *SchoolInfo {
	var best *SchoolInfo
	var bestDistSq float32 = sp.DetectRange * sp.DetectRange
	for _, info := range ctx.Schools {
		if info.Members == 0 {
			continue
		}
		if pred.AbandonTicks > 0 && info.ID == pred.AbandonedSchool {
			continue
		}
		preySp := ctx.Catalog.Get(info.SpeciesID)
		if !ctx.Catalog.CanEat(sp, preySp) {
			continue
		}
		distSq := distanceSq3(pos.X, pos.Y, pos.Depth, info.X, info.Y, info.Depth)
		if distSq <= bestDistSq {
			bestDistSq = distSq
			best = info
		}
	}
	return best
}

// updateIdle handles detection. When both a lure and a prey school are in
// range, prey-hunting wins only if hunger strictly exceeds the feeding
// threshold; otherwise lure aggression is the primary behavior.
func (s *DecisionSystem) updateIdle(
	pos *components.Position,
	org *components.Organism,
	pred *components.Predator,
	sp *species.Species,
	ctx *DecisionContext,
) {
	cfg := ctx.Cfg

	if pred.Hunger > float32(cfg.Behavior.FeedingThreshold) {
		if school := s.nearestEligibleSchool(pos, sp, pred, ctx); school != nil {
			pred.State = components.StateHunting
			pred.Target = components.SchoolTarget(school.ID)
			pred.CommitTicks = cfg.Behavior.CommitTicks
			return
		}
	}

	if ctx.Lure.Active && lureInEnvelope(pos, sp, &ctx.Lure) {
		pred.State = components.StateInvestigating
		pred.Target = components.LureTarget()
		pred.Interest = 0
		return
	}

	// Idle wander: slow cruise with an occasional random turn.
	org.Speed = sp.CruiseSpeed * 0.3
	if ctx.Rng.Float32() < 0.02 {
		org.Heading += (ctx.Rng.Float32() - 0.5) * 1.2
	}
}

// interestGain scores one tick of lure presentation: closeness of the lure
// speed to the species optimum, a depth-zone bonus, and a random draw, all
// scaled by aggressiveness.
func interestGain(sp *species.Species, lure *LureState, cfg *config.Config, rng *rand.Rand) float32 {
	opt := sp.OptimalLureSpeed
	if opt < 1 {
		opt = 1
	}
	closeness := 1 - absf(lure.Speed-sp.OptimalLureSpeed)/opt
	if closeness < 0 {
		closeness = 0
	}

	var depthBonus float32
	if lure.Depth >= sp.DepthMin && lure.Depth <= sp.DepthMax {
		depthBonus = sp.DepthBonus
	}

	gain := float32(cfg.Behavior.InterestSpeedWeight)*closeness +
		float32(cfg.Behavior.InterestDepthWeight)*depthBonus +
		float32(cfg.Behavior.InterestRandomWeight)*rng.Float32()
	return gain * (0.5 + sp.Aggressiveness)
}

// updateInvestigating accumulates interest until it clears the species
// threshold or decays back to idle.
func (s *DecisionSystem) updateInvestigating(
	pos *components.Position,
	org *components.Organism,
	pred *components.Predator,
	sp *species.Species,
	ctx *DecisionContext,
) {
	cfg := ctx.Cfg

	// A huntable school still outranks the lure once hunger crosses the
	// feeding gate.
	if pred.Hunger > float32(cfg.Behavior.FeedingThreshold) {
		if school := s.nearestEligibleSchool(pos, sp, pred, ctx); school != nil {
			pred.State = components.StateHunting
			pred.Target = components.SchoolTarget(school.ID)
			pred.CommitTicks = cfg.Behavior.CommitTicks
			pred.Interest = 0
			return
		}
	}

	if !ctx.Lure.Active || !lureInEnvelope(pos, sp, &ctx.Lure) {
		pred.Interest -= float32(cfg.Behavior.InterestDecay)
		if pred.Interest <= 0 {
			pred.Interest = 0
			pred.State = components.StateIdle
			pred.Target = components.NoTarget()
		}
		return
	}

	gain := interestGain(sp, &ctx.Lure, cfg, ctx.Rng)
	if gain <= 0.01 {
		// Persistent speed mismatch bleeds interest away.
		pred.Interest -= float32(cfg.Behavior.InterestDecay)
	} else {
		pred.Interest += gain
	}
	if pred.Interest <= 0 {
		pred.Interest = 0
		pred.State = components.StateIdle
		pred.Target = components.NoTarget()
		return
	}

	if pred.Interest >= sp.InterestThreshold {
		pred.State = components.StateChasing
		return
	}

	// Ambush fish hold and watch; pursuit fish close immediately.
	if sp.Style == species.StyleAmbush {
		org.Speed = 0
		org.Heading = headingToward(pos.X, pos.Y, ctx.Lure.X, ctx.Lure.Y)
	} else {
		org.Heading = headingToward(pos.X, pos.Y, ctx.Lure.X, ctx.Lure.Y)
		org.Speed = sp.CruiseSpeed
	}
}

// strikeDistance returns the effective strike threshold: larger for ambush
// bursts, reduced while wary after an escape.
func strikeDistance(sp *species.Species, pred *components.Predator, cfg *config.Config) float32 {
	d := sp.StrikeDistance
	if sp.Style == species.StyleAmbush {
		d *= float32(cfg.Behavior.AmbushStrikeBonus)
	}
	if pred.Wary() {
		d *= float32(cfg.Behavior.WaryStrikePenalty)
	}
	return d
}

// updateChasing closes on the lure at burst speed until strike distance.
func (s *DecisionSystem) updateChasing(
	pos *components.Position,
	org *components.Organism,
	pred *components.Predator,
	sp *species.Species,
	ctx *DecisionContext,
) {
	cfg := ctx.Cfg

	dx := ctx.Lure.X - pos.X
	dy := ctx.Lure.Y - pos.Y
	dz := ctx.Lure.Depth - pos.Depth
	distSq := dx*dx + dy*dy + dz*dz

	// Lost the lure entirely: give up.
	lostRange := sp.DetectRange * 1.5
	if !ctx.Lure.Active || distSq > lostRange*lostRange {
		pred.State = components.StateIdle
		pred.Target = components.NoTarget()
		pred.Interest = 0
		return
	}

	// Strike posture requires a free line; while another fish is hooked
	// the chaser keeps shadowing the lure instead.
	sd := strikeDistance(sp, pred, cfg)
	if ctx.Lure.Engageable() && distSq <= sd*sd {
		pred.State = components.StateStriking
		pred.StrikeTicks = cfg.Behavior.StrikeWindowTicks
		return
	}

	org.Heading = headingToward(pos.X, pos.Y, ctx.Lure.X, ctx.Lure.Y)
	org.Speed = sp.BurstSpeed
}

// updateStriking holds the strike posture for the hookset window. The first
// striking predator in registry order consumes the hookset request; once the
// hook is taken every other striker stands down immediately.
func (s *DecisionSystem) updateStriking(
	entity ecs.Entity,
	pos *components.Position,
	org *components.Organism,
	pred *components.Predator,
	sp *species.Species,
	ctx *DecisionContext,
) {
	cfg := ctx.Cfg

	if ctx.HooksetRequested && !ctx.HookedSet && ctx.Lure.Engageable() {
		d := distance3(pos.X, pos.Y, pos.Depth, ctx.Lure.X, ctx.Lure.Y, ctx.Lure.Depth)
		if d <= strikeDistance(sp, pred, cfg)*1.5 {
			pred.State = components.StateHooked
			pred.Target = components.LureTarget()
			ctx.Hooked = entity
			ctx.HookedSet = true
			ctx.HooksetRequested = false
			org.Speed = 0
			return
		}
	}

	// Another fish holds the line; there is nothing left to strike at.
	if ctx.HookedSet || ctx.Lure.Held {
		pred.State = components.StateIdle
		pred.Target = components.NoTarget()
		pred.Interest = 0
		return
	}

	pred.StrikeTicks--
	if pred.StrikeTicks <= 0 {
		// Missed strike: the fish never hooks.
		pred.State = components.StateIdle
		pred.Target = components.NoTarget()
		pred.Interest = 0
		return
	}

	org.Heading = headingToward(pos.X, pos.Y, ctx.Lure.X, ctx.Lure.Y)
	org.Speed = sp.BurstSpeed
}

// updateHunting pursues the committed school, picking off the nearest
// member once close. The consumption itself is resolved by the food chain.
func (s *DecisionSystem) updateHunting(
	entity ecs.Entity,
	pos *components.Position,
	org *components.Organism,
	pred *components.Predator,
	sp *species.Species,
	ctx *DecisionContext,
) {
	var tx, ty, tz float32

	switch pred.Target.Kind {
	case components.TargetSchool:
		info, ok := ctx.Schools[pred.Target.School]
		if !ok || info.Members == 0 {
			s.abandonSchool(pred, ctx.Cfg)
			return
		}
		tx, ty, tz = info.X, info.Y, info.Depth

		// A school that outran pursuit is dropped, but only once the
		// commitment window has elapsed; a committed hunter keeps chasing.
		giveUp := sp.DetectRange * 2
		if pred.CommitTicks <= 0 &&
			distanceSq3(pos.X, pos.Y, pos.Depth, tx, ty, tz) > giveUp*giveUp {
			s.abandonSchool(pred, ctx.Cfg)
			return
		}

		// Near the school: lock onto the closest member.
		if distanceSq3(pos.X, pos.Y, pos.Depth, tx, ty, tz) < sp.DetectRange*sp.DetectRange*0.25 {
			if prey := s.nearestSchoolMember(entity, pos, pred.Target.School, sp, ctx); !prey.IsZero() {
				pred.Target = components.PreyTarget(prey)
				pred.Target.School = 0
			}
		}
	case components.TargetPrey:
		// Validated at the top of Update; the entity is alive this tick.
		tPos := s.posMap.Get(pred.Target.Entity)
		tx, ty, tz = tPos.X, tPos.Y, tPos.Depth
	default:
		pred.State = components.StateIdle
		return
	}

	org.Heading = headingToward(pos.X, pos.Y, tx, ty)
	org.Speed = sp.BurstSpeed
	if absf(tz-pos.Depth) > 0.5 {
		if tz > pos.Depth {
			pos.Depth += sp.CruiseSpeed * 0.5 * ctx.Cfg.Derived.DT32
		} else {
			pos.Depth -= sp.CruiseSpeed * 0.5 * ctx.Cfg.Derived.DT32
		}
	}
}

// nearestSchoolMember finds the closest live member of the given school.
func (s *DecisionSystem) nearestSchoolMember(
	self ecs.Entity,
	pos *components.Position,
	schoolID uint32,
	sp *species.Species,
	ctx *DecisionContext,
) ecs.Entity {
	var best ecs.Entity
	var bestDistSq float32 = sp.DetectRange * sp.DetectRange

	neighbors := s.scratch[:0]
	neighbors = ctx.MemberGrid.QueryRadiusInto(neighbors, pos.X, pos.Y, pos.Depth, sp.DetectRange, self, s.posMap)
	for i := range neighbors {
		n := &neighbors[i]
		if !s.memMap.HasAll(n.E) || s.memMap.Get(n.E).SchoolID != schoolID {
			continue
		}
		if !s.orgMap.Get(n.E).Alive {
			continue
		}
		if n.DistSq < bestDistSq {
			bestDistSq = n.DistSq
			best = n.E
		}
	}
	s.scratch = neighbors[:0]
	return best
}

// beginMigration points the predator at the nearest lake edge; it swims off
// at elevated speed and is removed once outside the playable area.
func (s *DecisionSystem) beginMigration(pos *components.Position, pred *components.Predator, cfg *config.Config) {
	w := cfg.Derived.WorldW32
	h := cfg.Derived.WorldH32

	// Distances to the four edges; head for the closest.
	heading := float32(math.Pi) // toward x=0
	best := pos.X
	if w-pos.X < best {
		best = w - pos.X
		heading = 0
	}
	if pos.Y < best {
		best = pos.Y
		heading = -float32(math.Pi) / 2
	}
	if h-pos.Y < best {
		heading = float32(math.Pi) / 2
	}

	pred.State = components.StateMigrating
	pred.Target = components.NoTarget()
	pred.MigrateHeading = heading
	pred.Interest = 0
}
