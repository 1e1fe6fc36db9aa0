package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pelagic-games/strike/components"
	"github.com/pelagic-games/strike/config"
	"github.com/pelagic-games/strike/species"
)

// FlockSystem computes emergent movement for schooling prey. Each member
// blends separation, alignment, and cohesion over neighbors of its own
// school, with a panic override near predators and a mild pull toward sighted
// food. Contributions are summed as vectors, then speed-clamped.
type FlockSystem struct {
	filter  ecs.Filter4[components.Position, components.Velocity, components.Organism, components.SchoolMember]
	posMap  *ecs.Map1[components.Position]
	velMap  *ecs.Map1[components.Velocity]
	memMap  *ecs.Map1[components.SchoolMember]
	orgMap  *ecs.Map1[components.Organism]
	foodMap *ecs.Map1[components.Food]

	scratch []Neighbor
}

// NewFlockSystem creates a flock system over the given world.
func NewFlockSystem(w *ecs.World) *FlockSystem {
	return &FlockSystem{
		filter:  *ecs.NewFilter4[components.Position, components.Velocity, components.Organism, components.SchoolMember](w),
		posMap:  ecs.NewMap1[components.Position](w),
		velMap:  ecs.NewMap1[components.Velocity](w),
		memMap:  ecs.NewMap1[components.SchoolMember](w),
		orgMap:  ecs.NewMap1[components.Organism](w),
		foodMap: ecs.NewMap1[components.Food](w),
	}
}

// FlockContext carries per-tick inputs for the flock update.
type FlockContext struct {
	Tick       int32
	Catalog    *species.Catalog
	Cfg        *config.Config
	MemberGrid *SpatialGrid // schooling prey
	FoodGrid   *SpatialGrid // background food resources
	PredGrid   *SpatialGrid // predators, for the panic override
}

// Update advances every schooling member by one tick. Steering is
// recomputed only every steer_interval_ticks per member (staggered by
// organism ID); between recomputes the current velocity integrates.
func (s *FlockSystem) Update(ctx *FlockContext) {
	cfg := ctx.Cfg
	dt := cfg.Derived.DT32
	interval := cfg.Flock.SteerIntervalTicks
	if interval < 1 {
		interval = 1
	}
	floor := cfg.Derived.Floor32

	query := s.filter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, vel, org, mem := query.Get()

		if !org.Alive {
			continue
		}

		sp := ctx.Catalog.Get(org.SpeciesID)
		if !sp.Schooling.Enabled {
			continue
		}

		if mem.PanicTicks > 0 {
			mem.PanicTicks--
			if mem.PanicTicks == 0 {
				mem.Panic = false
			}
		}

		if (ctx.Tick+int32(org.ID))%interval == 0 {
			s.steer(entity, pos, vel, org, mem, sp, ctx)
		}

		maxSpeed := sp.CruiseSpeed
		if mem.Panic {
			maxSpeed = sp.CruiseSpeed * sp.Schooling.PanicSpeedMult
		}
		vel.X, vel.Y, vel.VDepth = speedClamp(vel.X, vel.Y, vel.VDepth, maxSpeed)

		pos.X += vel.X * dt
		pos.Y += vel.Y * dt
		pos.Depth += vel.VDepth * dt

		// Keep members inside the lake and the water column.
		pos.X = clamp32(pos.X, 0, cfg.Derived.WorldW32)
		pos.Y = clamp32(pos.Y, 0, cfg.Derived.WorldH32)
		pos.Depth = clamp32(pos.Depth, 0, floor)

		org.Speed = float32(math.Sqrt(float64(vel.X*vel.X + vel.Y*vel.Y + vel.VDepth*vel.VDepth)))
		if org.Speed > 0.01 {
			org.Heading = float32(math.Atan2(float64(vel.Y), float64(vel.X)))
		}
		org.AgeTicks++
	}
}

// steer recomputes the member's velocity from its neighborhood.
func (s *FlockSystem) steer(
	entity ecs.Entity,
	pos *components.Position,
	vel *components.Velocity,
	org *components.Organism,
	mem *components.SchoolMember,
	sp *species.Species,
	ctx *FlockContext,
) {
	cfg := ctx.Cfg
	sch := &sp.Schooling

	sepW := sch.SeparationWeight
	alignW := sch.AlignmentWeight
	cohW := sch.CohesionWeight

	// Panic override: a predator in the threat radius scatters the school
	// into a looser, faster formation and supersedes the normal blend.
	var fleeX, fleeY, fleeD float32
	threats := s.scratch[:0]
	threats = ctx.PredGrid.QueryRadiusInto(threats, pos.X, pos.Y, pos.Depth, sch.PanicRadius, entity, s.posMap)
	if len(threats) > 0 {
		mem.Panic = true
		mem.PanicTicks = cfg.Flock.PanicHoldTicks
		sepW *= float32(cfg.Flock.PanicSepMult)
		cohW *= float32(cfg.Flock.PanicCohMult)
		for i := range threats {
			t := &threats[i]
			d := float32(math.Sqrt(float64(t.DistSq)))
			if d < 0.001 {
				continue
			}
			// Away from the threat, stronger when closer.
			scale := (sch.PanicRadius - d) / sch.PanicRadius / d
			fleeX -= t.DX * scale
			fleeY -= t.DY * scale
			fleeD -= t.DDepth * scale
		}
	}
	s.scratch = threats[:0]

	var sepX, sepY, sepD float32
	var alignX, alignY, alignD float32
	var cohX, cohY, cohD float32
	var alignCount, cohCount int

	neighbors := s.scratch[:0]
	neighbors = ctx.MemberGrid.QueryRadiusInto(neighbors, pos.X, pos.Y, pos.Depth, sch.CohesionRadius, entity, s.posMap)
	for i := range neighbors {
		n := &neighbors[i]
		nMem := s.memMap.Get(n.E)
		if nMem == nil || nMem.SchoolID != mem.SchoolID {
			continue
		}
		nOrg := s.orgMap.Get(n.E)
		if nOrg == nil || !nOrg.Alive {
			continue
		}

		// Separation: push away from overlapping neighbors.
		if n.DistSq < sch.SeparationRadius*sch.SeparationRadius {
			sepX -= n.DX
			sepY -= n.DY
			sepD -= n.DDepth
		}

		// Alignment: match the average neighbor velocity.
		if n.DistSq < sch.AlignmentRadius*sch.AlignmentRadius {
			if nVel := s.velMap.Get(n.E); nVel != nil {
				alignX += nVel.X
				alignY += nVel.Y
				alignD += nVel.VDepth
				alignCount++
			}
		}

		// Cohesion: steer toward the neighborhood centroid.
		cohX += n.DX
		cohY += n.DY
		cohD += n.DDepth
		cohCount++
	}
	s.scratch = neighbors[:0]

	// A school of one has no neighbors: every contribution resolves to
	// zero and the member keeps swimming on its current velocity.
	if alignCount > 0 {
		inv := 1 / float32(alignCount)
		alignX = alignX*inv - vel.X
		alignY = alignY*inv - vel.Y
		alignD = alignD*inv - vel.VDepth
	}
	if cohCount > 0 {
		inv := 1 / float32(cohCount)
		cohX *= inv
		cohY *= inv
		cohD *= inv
	}

	// Food attraction: weighted below flee/panic but above alignment.
	var foodX, foodY, foodD float32
	if sch.FoodWeight > 0 && !mem.Panic {
		attractRange := float32(cfg.Food.AttractionRange)
		found := s.scratch[:0]
		found = ctx.FoodGrid.QueryRadiusInto(found, pos.X, pos.Y, pos.Depth, attractRange, ecs.Entity{}, s.posMap)
		var best *Neighbor
		for i := range found {
			f := s.foodMap.Get(found[i].E)
			if f == nil || f.Consumed {
				continue
			}
			if best == nil || found[i].DistSq < best.DistSq {
				best = &found[i]
			}
		}
		if best != nil {
			d := float32(math.Sqrt(float64(best.DistSq)))
			if d > 0.001 {
				foodX = best.DX / d
				foodY = best.DY / d
				foodD = best.DDepth / d
			}
		}
		s.scratch = found[:0]
	}

	fleeW := float32(cfg.Flock.PanicFleeWeight)
	vel.X += sepX*sepW + alignX*alignW + cohX*cohW + foodX*sch.FoodWeight*sp.CruiseSpeed + fleeX*fleeW*sp.CruiseSpeed
	vel.Y += sepY*sepW + alignY*alignW + cohY*cohW + foodY*sch.FoodWeight*sp.CruiseSpeed + fleeY*fleeW*sp.CruiseSpeed
	vel.VDepth += sepD*sepW + alignD*alignW + cohD*cohW + foodD*sch.FoodWeight*sp.CruiseSpeed + fleeD*fleeW*sp.CruiseSpeed
}
