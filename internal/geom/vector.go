package geom

import (
	"fmt"
	"math"
)

// Epsilon bounds float comparisons across the simulation.
const Epsilon = 1e-9

// Vec3 is a point or direction in world space. Y is up; agents move on the
// XZ plane and keep Y at ground height.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// String implements fmt.Stringer.
func (v Vec3) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product of v and other.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// LenSqr returns the squared magnitude. Use for comparisons to avoid the
// square root.
func (v Vec3) LenSqr() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Len returns the magnitude of v.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.LenSqr())
}

// FlatLen returns the magnitude of v projected onto the XZ plane.
func (v Vec3) FlatLen() float64 {
	return math.Hypot(v.X, v.Z)
}

// Normalize returns a unit vector in the same direction, or the zero vector
// when v is effectively zero.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < Epsilon {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Flat returns v with its Y component zeroed.
func (v Vec3) Flat() Vec3 {
	return Vec3{X: v.X, Z: v.Z}
}

// Distance returns the Euclidean distance between v and other.
func (v Vec3) Distance(other Vec3) float64 {
	return v.Sub(other).Len()
}

// FlatDistance returns the distance between v and other ignoring Y.
func (v Vec3) FlatDistance(other Vec3) float64 {
	return v.Sub(other).FlatLen()
}

// Lerp interpolates from v toward target by t in [0, 1].
func (v Vec3) Lerp(target Vec3, t float64) Vec3 {
	return v.Add(target.Sub(v).Scale(t))
}

// IsZero reports whether every component is within Epsilon of zero.
func (v Vec3) IsZero() bool {
	return math.Abs(v.X) <= Epsilon && math.Abs(v.Y) <= Epsilon && math.Abs(v.Z) <= Epsilon
}

// Eq reports whether v and other are approximately equal.
func (v Vec3) Eq(other Vec3) bool {
	return math.Abs(v.X-other.X) <= Epsilon &&
		math.Abs(v.Y-other.Y) <= Epsilon &&
		math.Abs(v.Z-other.Z) <= Epsilon
}

// AngleDeg returns the unsigned angle in degrees between v and other on the
// XZ plane. Either vector being zero yields 180 so that cone checks treat it
// as "never inside".
func (v Vec3) AngleDeg(other Vec3) float64 {
	a := v.Flat()
	b := other.Flat()
	la := a.Len()
	lb := b.Len()
	if la < Epsilon || lb < Epsilon {
		return 180
	}
	cos := a.Dot(b) / (la * lb)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}

// LocalToWorld converts a leader-local offset (forward = +Z, right = +X)
// into a world-space displacement given the leader's forward direction.
// A zero forward falls back to +Z so offsets stay usable while the leader
// is stationary.
func LocalToWorld(offset, forward Vec3) Vec3 {
	f := forward.Flat().Normalize()
	if f.IsZero() {
		f = Vec3{Z: 1}
	}
	right := Vec3{X: f.Z, Z: -f.X}
	return right.Scale(offset.X).Add(f.Scale(offset.Z))
}

// Clamp limits value to the range [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
