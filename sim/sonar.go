package sim

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pelagic-games/strike/components"
)

// SonarContact is one visible organism as reported to the display layer.
// Internal decision state stays internal; the display infers activity from
// motion alone.
type SonarContact struct {
	ID        uint32
	Species   string
	X, Y      float32
	Depth     float32
	Heading   float32
	Speed     float32
	Weight    float32
	Schooling bool
}

// Sonar appends all visible organisms to dst and returns it. Pass a reused
// slice to avoid allocation.
func (s *Simulation) Sonar(dst []SonarContact) []SonarContact {
	predQuery := s.predFilter.Query()
	for predQuery.Next() {
		pos, _, org, _ := predQuery.Get()
		if !org.Alive || !org.Visible {
			continue
		}
		dst = append(dst, SonarContact{
			ID:      org.ID,
			Species: s.catalog.Get(org.SpeciesID).Name,
			X:       pos.X,
			Y:       pos.Y,
			Depth:   pos.Depth,
			Heading: org.Heading,
			Speed:   org.Speed,
			Weight:  org.Weight,
		})
	}

	memQuery := s.memFilter.Query()
	for memQuery.Next() {
		pos, org, _ := memQuery.Get()
		if !org.Alive || !org.Visible {
			continue
		}
		dst = append(dst, SonarContact{
			ID:        org.ID,
			Species:   s.catalog.Get(org.SpeciesID).Name,
			X:         pos.X,
			Y:         pos.Y,
			Depth:     pos.Depth,
			Heading:   org.Heading,
			Speed:     org.Speed,
			Weight:    org.Weight,
			Schooling: true,
		})
	}

	return dst
}

// SnapshotPredator captures the full state of the predator with the given
// organism ID. A predator rebuilt from its snapshot behaves identically on
// subsequent ticks given identical inputs.
func (s *Simulation) SnapshotPredator(id uint32) (components.PredatorSnapshot, bool) {
	query := s.predFilter.Query()
	for query.Next() {
		pos, vel, org, pred := query.Get()
		if org.ID != id || !org.Alive {
			continue
		}

		var targetID uint32
		if pred.Target.Kind == components.TargetPrey && s.world.Alive(pred.Target.Entity) {
			targetID = s.orgMap.Get(pred.Target.Entity).ID
		}

		snap := components.CapturePredator(org, pos, vel, pred, targetID)
		query.Close()
		return snap, true
	}
	return components.PredatorSnapshot{}, false
}

// RestorePredator rebuilds a predator from a snapshot. Prey targets are
// re-resolved by organism ID; a target that no longer exists restores as no
// target (the decision engine resets such a predator to idle anyway).
// Returns false when the predator cap is reached.
func (s *Simulation) RestorePredator(snap components.PredatorSnapshot) bool {
	if s.predCount >= s.cfg.Population.MaxPredators {
		return false
	}

	target := components.Target{Kind: components.TargetKind(snap.TargetKind), School: snap.TargetSchool}
	if target.Kind == components.TargetPrey {
		if e, ok := s.findOrganism(snap.TargetID); ok {
			target.Entity = e
		} else {
			target = components.NoTarget()
		}
	}

	var pos components.Position
	var vel components.Velocity
	var org components.Organism
	var pred components.Predator
	snap.Apply(&org, &pos, &vel, &pred, target)

	s.predMapper.NewEntity(&pos, &vel, &org, &pred)
	s.predCount++

	if snap.ID >= s.nextID {
		s.nextID = snap.ID + 1
	}
	return true
}

// findOrganism resolves an organism ID to its live entity.
func (s *Simulation) findOrganism(id uint32) (ecs.Entity, bool) {
	if id == 0 {
		return ecs.Entity{}, false
	}

	memQuery := s.memFilter.Query()
	for memQuery.Next() {
		_, org, _ := memQuery.Get()
		if org.ID == id && org.Alive {
			e := memQuery.Entity()
			memQuery.Close()
			return e, true
		}
	}

	predQuery := s.predFilter.Query()
	for predQuery.Next() {
		_, _, org, _ := predQuery.Get()
		if org.ID == id && org.Alive {
			e := predQuery.Entity()
			predQuery.Close()
			return e, true
		}
	}

	return ecs.Entity{}, false
}
