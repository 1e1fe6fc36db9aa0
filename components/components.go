// Package components defines ECS components for the simulation.
package components

import "github.com/mlange-42/ark/ecs"

// Position represents an entity's world position. Depth runs from 0 at the
// surface down to the lake floor.
type Position struct {
	X, Y  float32
	Depth float32
}

// Velocity represents an entity's velocity, including vertical drift.
type Velocity struct {
	X, Y   float32
	VDepth float32
}

// Organism bundles identity and physical state shared by every live entity.
type Organism struct {
	ID        uint32
	SpeciesID uint8
	Weight    float32 // kg
	Heading   float32 // radians
	Speed     float32 // current speed, world units per second
	Visible   bool
	AgeTicks  int32
	Alive     bool
}

// SchoolMember marks a schooling prey organism and its school binding.
// Every member belongs to exactly one school.
type SchoolMember struct {
	SchoolID   uint32
	Panic      bool
	PanicTicks int32 // remaining panic hold
}

// BehaviorState is the predator decision-engine state.
type BehaviorState uint8

const (
	StateIdle BehaviorState = iota
	StateInvestigating
	StateChasing
	StateStriking
	StateHooked
	StateHunting
	StateFeeding
	StateMigrating
)

// String returns the state name.
func (s BehaviorState) String() string {
	switch s {
	case StateInvestigating:
		return "investigating"
	case StateChasing:
		return "chasing"
	case StateStriking:
		return "striking"
	case StateHooked:
		return "hooked"
	case StateHunting:
		return "hunting"
	case StateFeeding:
		return "feeding"
	case StateMigrating:
		return "migrating"
	default:
		return "idle"
	}
}

// TargetKind discriminates the predator target union.
type TargetKind uint8

const (
	TargetNone TargetKind = iota
	TargetLure
	TargetPrey
	TargetSchool
)

// Target is a tagged union: exactly one target kind is set at a time.
// Entity is valid only for TargetPrey; School only for TargetSchool.
type Target struct {
	Kind   TargetKind
	Entity ecs.Entity
	School uint32
}

// NoTarget returns the empty target.
func NoTarget() Target {
	return Target{Kind: TargetNone}
}

// LureTarget returns a target bound to the player lure.
func LureTarget() Target {
	return Target{Kind: TargetLure}
}

// PreyTarget returns a target bound to a single prey entity.
func PreyTarget(e ecs.Entity) Target {
	return Target{Kind: TargetPrey, Entity: e}
}

// SchoolTarget returns a target bound to a school.
func SchoolTarget(id uint32) Target {
	return Target{Kind: TargetSchool, School: id}
}

// Predator holds the decision-engine state for a lure-capable fish.
// Hunger and Health are clamped to [0,100]; higher hunger means hungrier.
type Predator struct {
	Hunger float32
	Health float32
	State  BehaviorState
	Target Target

	Interest float32 // accumulated lure interest while investigating

	CommitTicks     int32  // remaining hunting commitment
	AbandonedSchool uint32 // last school abandoned mid-hunt
	AbandonTicks    int32  // cooldown before re-targeting AbandonedSchool
	FeedTicks       int32  // remaining feeding pause
	StrikeTicks     int32  // remaining hookset window while striking
	WaryTicks       int32  // post-escape wariness, raises the strike threshold

	LastSightTick  int32 // last tick any eligible prey was visible
	MigrateSignal  bool  // raised by the food chain resolver on sighting starvation
	MigrateHeading float32
}

// ClampVitals clamps hunger and health to their [0,100] bounds.
func (p *Predator) ClampVitals() {
	if p.Hunger < 0 {
		p.Hunger = 0
	} else if p.Hunger > 100 {
		p.Hunger = 100
	}
	if p.Health < 0 {
		p.Health = 0
	} else if p.Health > 100 {
		p.Health = 100
	}
}

// Wary reports whether the predator is in the post-escape wary sub-state.
func (p *Predator) Wary() bool {
	return p.WaryTicks > 0
}

// Food is the background plankton-tier resource. Not player-catchable;
// purely a feeder for schooling prey.
type Food struct {
	LifespanTicks int32
	Consumed      bool
}
