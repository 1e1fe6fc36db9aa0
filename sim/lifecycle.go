package sim

import (
	"math"

	"github.com/pelagic-games/strike/components"
	"github.com/pelagic-games/strike/species"
	"github.com/pelagic-games/strike/telemetry"
)

// SpawnPredator creates one lure-capable fish of the named species near the
// given position. Returns the organism ID, or false when the species is
// unknown or the predator cap is reached (the request is dropped silently
// on a full lake).
func (s *Simulation) SpawnPredator(name string, x, y, depth float32) (uint32, bool) {
	speciesID, ok := s.catalog.IndexOf(name)
	if !ok {
		return 0, false
	}
	if s.predCount >= s.cfg.Population.MaxPredators {
		return 0, false
	}
	sp := s.catalog.Get(speciesID)

	id := s.newPredator(speciesID, sp, x, y, depth)
	s.predCount++
	s.emit(telemetry.NewSpawnEvent(s.tick, id, speciesID))
	return id, true
}

// newPredator builds the entity; callers handle caps and events.
func (s *Simulation) newPredator(speciesID uint8, sp *species.Species, x, y, depth float32) uint32 {
	id := s.nextID
	s.nextID++

	pos := components.Position{
		X:     s.clampX(x),
		Y:     s.clampY(y),
		Depth: s.clampDepth(depth),
	}
	vel := components.Velocity{}
	org := components.Organism{
		ID:        id,
		SpeciesID: speciesID,
		Weight:    sp.BaseWeight * (0.7 + s.rng.Float32()*0.6),
		Heading:   s.rng.Float32() * 2 * math.Pi,
		Visible:   true,
		Alive:     true,
	}
	pred := components.Predator{
		Hunger:        30 + s.rng.Float32()*40,
		Health:        100,
		State:         components.StateIdle,
		Target:        components.NoTarget(),
		LastSightTick: s.tick,
	}

	s.predMapper.NewEntity(&pos, &vel, &org, &pred)
	return id
}

// SpawnSchool creates a school of the named species centered on the given
// position. Members beyond the school-member cap are dropped; the school ID
// and the number actually spawned are returned. A count of zero spawns no
// school.
func (s *Simulation) SpawnSchool(name string, x, y, depth float32, count int) (uint32, int) {
	speciesID, ok := s.catalog.IndexOf(name)
	if !ok || count <= 0 {
		return 0, 0
	}
	sp := s.catalog.Get(speciesID)

	room := s.cfg.Population.MaxSchoolMembers - s.memberCount
	if room <= 0 {
		return 0, 0
	}
	if count > room {
		count = room
	}

	schoolID := s.nextSchoolID
	s.nextSchoolID++

	// Scatter members in a disc sized to the cohesion radius so the
	// school starts coherent.
	radius := sp.Schooling.CohesionRadius
	if radius <= 0 {
		radius = 10
	}
	heading := s.rng.Float32() * 2 * math.Pi

	for i := 0; i < count; i++ {
		id := s.nextID
		s.nextID++

		a := s.rng.Float32() * 2 * math.Pi
		r := s.rng.Float32() * radius
		pos := components.Position{
			X:     s.clampX(x + float32(math.Cos(float64(a)))*r),
			Y:     s.clampY(y + float32(math.Sin(float64(a)))*r),
			Depth: s.clampDepth(depth + (s.rng.Float32()-0.5)*4),
		}
		vel := components.Velocity{
			X: float32(math.Cos(float64(heading))) * sp.CruiseSpeed * 0.5,
			Y: float32(math.Sin(float64(heading))) * sp.CruiseSpeed * 0.5,
		}
		org := components.Organism{
			ID:        id,
			SpeciesID: speciesID,
			Weight:    sp.BaseWeight * (0.8 + s.rng.Float32()*0.4),
			Heading:   heading,
			Visible:   true,
			Alive:     true,
		}
		mem := components.SchoolMember{SchoolID: schoolID}

		s.memMapper.NewEntity(&pos, &vel, &org, &mem)
		s.memberCount++
		s.emit(telemetry.NewSpawnEvent(s.tick, id, speciesID))
	}

	return schoolID, count
}

// SpawnFoodCluster scatters a cluster of background food resources around
// the given position. Resources beyond the food cap are dropped.
func (s *Simulation) SpawnFoodCluster(x, y, depth float32) int {
	count := s.cfg.Food.ClusterSize
	room := s.cfg.Population.MaxFood - s.foodCount
	if room <= 0 {
		return 0
	}
	if count > room {
		count = room
	}
	radius := float32(s.cfg.Food.ClusterRadius)

	for i := 0; i < count; i++ {
		a := s.rng.Float32() * 2 * math.Pi
		r := s.rng.Float32() * radius
		pos := components.Position{
			X:     s.clampX(x + float32(math.Cos(float64(a)))*r),
			Y:     s.clampY(y + float32(math.Sin(float64(a)))*r),
			Depth: s.clampDepth(depth + (s.rng.Float32()-0.5)*3),
		}
		food := components.Food{LifespanTicks: s.cfg.Food.LifespanTicks}

		s.foodMapper.NewEntity(&pos, &food)
		s.foodCount++
	}

	return count
}

func (s *Simulation) clampX(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > s.cfg.Derived.WorldW32 {
		return s.cfg.Derived.WorldW32
	}
	return x
}

func (s *Simulation) clampY(y float32) float32 {
	if y < 0 {
		return 0
	}
	if y > s.cfg.Derived.WorldH32 {
		return s.cfg.Derived.WorldH32
	}
	return y
}

func (s *Simulation) clampDepth(d float32) float32 {
	if d < 0 {
		return 0
	}
	if d > s.cfg.Derived.Floor32 {
		return s.cfg.Derived.Floor32
	}
	return d
}
