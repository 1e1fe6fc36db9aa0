package components

import "gopkg.in/yaml.v3"

// PredatorSnapshot is a serializable capture of one predator's full state.
// Reconstructing a predator from its snapshot yields identical subsequent
// tick behavior given identical inputs, so snapshots double as a determinism
// probe. Target entities are stored by organism ID; the registry resolves
// them back to live entities on restore.
type PredatorSnapshot struct {
	ID        uint32  `yaml:"id"`
	SpeciesID uint8   `yaml:"species_id"`
	Weight    float32 `yaml:"weight"`
	Heading   float32 `yaml:"heading"`
	Speed     float32 `yaml:"speed"`
	AgeTicks  int32   `yaml:"age_ticks"`

	X      float32 `yaml:"x"`
	Y      float32 `yaml:"y"`
	Depth  float32 `yaml:"depth"`
	VX     float32 `yaml:"vx"`
	VY     float32 `yaml:"vy"`
	VDepth float32 `yaml:"vdepth"`

	Hunger   float32 `yaml:"hunger"`
	Health   float32 `yaml:"health"`
	State    uint8   `yaml:"state"`
	Interest float32 `yaml:"interest"`

	TargetKind   uint8  `yaml:"target_kind"`
	TargetID     uint32 `yaml:"target_id"` // organism ID for prey targets
	TargetSchool uint32 `yaml:"target_school"`

	CommitTicks     int32  `yaml:"commit_ticks"`
	AbandonedSchool uint32 `yaml:"abandoned_school"`
	AbandonTicks    int32  `yaml:"abandon_ticks"`
	FeedTicks       int32  `yaml:"feed_ticks"`
	StrikeTicks     int32  `yaml:"strike_ticks"`
	WaryTicks       int32  `yaml:"wary_ticks"`
	LastSightTick   int32  `yaml:"last_sight_tick"`
}

// CapturePredator builds a snapshot from live components. targetID must be
// the organism ID behind Target.Entity (0 when the target is not a prey
// entity).
func CapturePredator(org *Organism, pos *Position, vel *Velocity, pred *Predator, targetID uint32) PredatorSnapshot {
	return PredatorSnapshot{
		ID:        org.ID,
		SpeciesID: org.SpeciesID,
		Weight:    org.Weight,
		Heading:   org.Heading,
		Speed:     org.Speed,
		AgeTicks:  org.AgeTicks,

		X:      pos.X,
		Y:      pos.Y,
		Depth:  pos.Depth,
		VX:     vel.X,
		VY:     vel.Y,
		VDepth: vel.VDepth,

		Hunger:   pred.Hunger,
		Health:   pred.Health,
		State:    uint8(pred.State),
		Interest: pred.Interest,

		TargetKind:   uint8(pred.Target.Kind),
		TargetID:     targetID,
		TargetSchool: pred.Target.School,

		CommitTicks:     pred.CommitTicks,
		AbandonedSchool: pred.AbandonedSchool,
		AbandonTicks:    pred.AbandonTicks,
		FeedTicks:       pred.FeedTicks,
		StrikeTicks:     pred.StrikeTicks,
		WaryTicks:       pred.WaryTicks,
		LastSightTick:   pred.LastSightTick,
	}
}

// Apply writes the snapshot back into live components. The target entity, if
// any, must be resolved by the caller from TargetID.
func (s *PredatorSnapshot) Apply(org *Organism, pos *Position, vel *Velocity, pred *Predator, target Target) {
	org.ID = s.ID
	org.SpeciesID = s.SpeciesID
	org.Weight = s.Weight
	org.Heading = s.Heading
	org.Speed = s.Speed
	org.AgeTicks = s.AgeTicks
	org.Visible = true
	org.Alive = true

	pos.X = s.X
	pos.Y = s.Y
	pos.Depth = s.Depth
	vel.X = s.VX
	vel.Y = s.VY
	vel.VDepth = s.VDepth

	pred.Hunger = s.Hunger
	pred.Health = s.Health
	pred.State = BehaviorState(s.State)
	pred.Interest = s.Interest
	pred.Target = target
	pred.CommitTicks = s.CommitTicks
	pred.AbandonedSchool = s.AbandonedSchool
	pred.AbandonTicks = s.AbandonTicks
	pred.FeedTicks = s.FeedTicks
	pred.StrikeTicks = s.StrikeTicks
	pred.WaryTicks = s.WaryTicks
	pred.LastSightTick = s.LastSightTick
	pred.ClampVitals()
}

// MarshalYAML-compatible helpers for snapshot persistence.

// Encode serializes the snapshot to YAML.
func (s *PredatorSnapshot) Encode() ([]byte, error) {
	return yaml.Marshal(s)
}

// DecodePredatorSnapshot parses a YAML snapshot.
func DecodePredatorSnapshot(data []byte) (PredatorSnapshot, error) {
	var s PredatorSnapshot
	err := yaml.Unmarshal(data, &s)
	return s, err
}
