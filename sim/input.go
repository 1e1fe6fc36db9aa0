package sim

// Player input. Commands queue for the next Step; none mutate world state
// directly.

// CastLure puts the lure in the water at the given position.
func (s *Simulation) CastLure(x, y, depth float32) {
	if s.lure.Held {
		return
	}
	s.lure.X = s.clampX(x)
	s.lure.Y = s.clampY(y)
	s.lure.Depth = s.clampDepth(depth)
	s.lure.Speed = 0
	s.lure.Active = true
}

// MoveLure updates the lure position and retrieve speed. Ignored while no
// lure is in the water or a fight holds the line.
func (s *Simulation) MoveLure(x, y, depth, speed float32) {
	if !s.lure.Active || s.lure.Held {
		return
	}
	s.lure.X = s.clampX(x)
	s.lure.Y = s.clampY(y)
	s.lure.Depth = s.clampDepth(depth)
	s.lure.Speed = speed
}

// RetrieveLure takes the lure out of the water. Any predator mid-approach
// loses its target on the next tick. Ignored during a fight; cut the line
// instead.
func (s *Simulation) RetrieveLure() {
	if s.lure.Held {
		return
	}
	s.lure.Active = false
	s.lure.Speed = 0
}

// AttemptHookset requests a hookset on the next tick. The first striking
// predator in registry order takes the hook; with no striking predator the
// attempt fizzles.
func (s *Simulation) AttemptHookset() {
	if !s.lure.Active || s.lure.Held {
		return
	}
	s.hooksetRequested = true
}

// Reel requests a reel action for the next tick with the given intensity in
// (0, 1]. Actions arriving faster than the minimum reel interval are
// dropped by the fight resolver.
func (s *Simulation) Reel(intensity float32) {
	if s.session == nil {
		return
	}
	s.reelRequested = true
	s.reelIntensity = intensity
}

// CutLine gives up the active fight; the fish escapes wary.
func (s *Simulation) CutLine() {
	if s.session == nil {
		return
	}
	s.cutRequested = true
}

// Lure returns the current lure state.
func (s *Simulation) Lure() (x, y, depth, speed float32, active bool) {
	return s.lure.X, s.lure.Y, s.lure.Depth, s.lure.Speed, s.lure.Active
}
