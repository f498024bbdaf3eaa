package group

import (
	"math"

	"hunt-and-hide/sim/internal/geom"
)

// FormationKind selects the follower layout in leader-follower mode.
type FormationKind int

const (
	Line FormationKind = iota
	VFormation
	Column
	Wedge
)

func (k FormationKind) String() string {
	switch k {
	case Line:
		return "line"
	case VFormation:
		return "v-formation"
	case Column:
		return "column"
	case Wedge:
		return "wedge"
	default:
		return "unknown"
	}
}

// FormationOffset returns the leader-local offset for the follower at the
// given 0-based index (leader excluded), with the leader facing +Z. It is a
// pure function of (kind, index, spacing).
//
// The wedge layout intentionally reuses the historical row arithmetic, which
// doubles up positions at some row boundaries.
func FormationOffset(kind FormationKind, index int, spacing float64) geom.Vec3 {
	switch kind {
	case Line:
		return geom.Vec3{Z: -float64(index+1) * spacing}
	case VFormation:
		side := 1.0
		if index%2 != 0 {
			side = -1
		}
		row := float64(index/2 + 1)
		return geom.Vec3{X: side * row * spacing, Z: -row * spacing}
	case Column:
		side := 1.0
		if index%2 != 0 {
			side = -1
		}
		row := float64(index / 2)
		return geom.Vec3{X: side * spacing / 2, Z: -row * spacing}
	case Wedge:
		row := math.Floor(math.Sqrt(float64(index + 1)))
		posInRow := float64(index) - (row*row - 1)
		return geom.Vec3{X: (posInRow - row) * spacing, Z: -row * spacing}
	default:
		return geom.Vec3{}
	}
}
