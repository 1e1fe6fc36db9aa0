package systems

import "math"

// clamp32 clamps x to [min, max].
func clamp32(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}

// distance3 returns the 3D distance between two points.
func distance3(x1, y1, d1, x2, y2, d2 float32) float32 {
	dx := x2 - x1
	dy := y2 - y1
	dz := d2 - d1
	return float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
}

// distanceSq3 returns the squared 3D distance between two points.
func distanceSq3(x1, y1, d1, x2, y2, d2 float32) float32 {
	dx := x2 - x1
	dy := y2 - y1
	dz := d2 - d1
	return dx*dx + dy*dy + dz*dz
}

// speedClamp rescales a velocity vector so its magnitude does not exceed
// maxSpeed. Zero vectors pass through untouched.
func speedClamp(vx, vy, vz, maxSpeed float32) (float32, float32, float32) {
	sq := vx*vx + vy*vy + vz*vz
	if sq <= maxSpeed*maxSpeed || sq == 0 {
		return vx, vy, vz
	}
	scale := maxSpeed / float32(math.Sqrt(float64(sq)))
	return vx * scale, vy * scale, vz * scale
}

// headingToward returns the heading angle from (x1,y1) to (x2,y2).
func headingToward(x1, y1, x2, y2 float32) float32 {
	return float32(math.Atan2(float64(y2-y1), float64(x2-x1)))
}

// velocityFromHeading converts a heading and speed to a velocity vector.
func velocityFromHeading(heading, speed float32) (float32, float32) {
	return float32(math.Cos(float64(heading))) * speed,
		float32(math.Sin(float64(heading))) * speed
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
