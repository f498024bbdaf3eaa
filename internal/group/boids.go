package group

import "hunt-and-hide/sim/internal/geom"

// flock is the positional snapshot one boids evaluation runs against.
type flockmate struct {
	pos geom.Vec3
	vel geom.Vec3
}

// separationVector pushes away from close flockmates, each contribution
// weighted by 1/distance and the sum averaged. No neighbors yields zero.
func separationVector(self geom.Vec3, others []flockmate, separationDistance float64) geom.Vec3 {
	if separationDistance <= 0 {
		return geom.Vec3{}
	}
	var sum geom.Vec3
	count := 0
	for _, other := range others {
		dist := self.FlatDistance(other.pos)
		if dist <= geom.Epsilon || dist > separationDistance {
			continue
		}
		away := self.Sub(other.pos).Flat().Normalize()
		sum = sum.Add(away.Scale(1 / dist))
		count++
	}
	if count == 0 {
		return geom.Vec3{}
	}
	return sum.Scale(1 / float64(count))
}

// alignmentVector steers toward the average heading of nearby flockmates,
// relative to the agent's own heading. No neighbors yields zero.
func alignmentVector(self geom.Vec3, selfVel geom.Vec3, others []flockmate, neighborDistance float64) geom.Vec3 {
	if neighborDistance <= 0 {
		return geom.Vec3{}
	}
	var sum geom.Vec3
	count := 0
	for _, other := range others {
		if self.FlatDistance(other.pos) > neighborDistance {
			continue
		}
		sum = sum.Add(other.vel.Flat().Normalize())
		count++
	}
	if count == 0 {
		return geom.Vec3{}
	}
	return sum.Scale(1 / float64(count)).Sub(selfVel.Flat().Normalize())
}

// cohesionVector points toward the centroid of nearby flockmates. No
// neighbors yields zero.
func cohesionVector(self geom.Vec3, others []flockmate, neighborDistance float64) geom.Vec3 {
	if neighborDistance <= 0 {
		return geom.Vec3{}
	}
	var sum geom.Vec3
	count := 0
	for _, other := range others {
		if self.FlatDistance(other.pos) > neighborDistance {
			continue
		}
		sum = sum.Add(other.pos)
		count++
	}
	if count == 0 {
		return geom.Vec3{}
	}
	centroid := sum.Scale(1 / float64(count))
	return centroid.Sub(self).Flat().Normalize()
}
