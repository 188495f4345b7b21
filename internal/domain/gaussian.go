package domain

import (
	"fmt"
	"math"
)

// QuatNormTolerance is the allowed deviation of a rotation quaternion's
// magnitude from 1.0.
const QuatNormTolerance = 1e-3

// GaussianSet holds the per-splat attributes produced by one inference call.
// All five attribute slices have the same length. The set is created once per
// request, never mutated after validation, and discarded after encoding.
type GaussianSet struct {
	Positions [][3]float32
	Rotations [][4]float32 // scalar-first unit quaternions (w, x, y, z)
	Scales    [][3]float32
	Colors    [][3]float32
	Opacities []float32
}

// Len returns the number of Gaussians in the set.
func (g *GaussianSet) Len() int {
	return len(g.Positions)
}

// Validate checks the structural invariants: equal attribute lengths,
// unit-norm quaternions, positive scales, and opacities in [0, 1].
func (g *GaussianSet) Validate() error {
	n := len(g.Positions)
	if len(g.Rotations) != n || len(g.Scales) != n || len(g.Colors) != n || len(g.Opacities) != n {
		return fmt.Errorf("attribute length mismatch: positions=%d rotations=%d scales=%d colors=%d opacities=%d",
			n, len(g.Rotations), len(g.Scales), len(g.Colors), len(g.Opacities))
	}

	for i := 0; i < n; i++ {
		q := g.Rotations[i]
		norm := math.Sqrt(float64(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3]))
		if math.Abs(norm-1.0) > QuatNormTolerance {
			return fmt.Errorf("gaussian %d: quaternion norm %f out of tolerance", i, norm)
		}

		for axis, s := range g.Scales[i] {
			if s <= 0 || math.IsNaN(float64(s)) {
				return fmt.Errorf("gaussian %d: non-positive scale %f on axis %d", i, s, axis)
			}
		}

		if o := g.Opacities[i]; o < 0 || o > 1 || math.IsNaN(float64(o)) {
			return fmt.Errorf("gaussian %d: opacity %f outside [0,1]", i, o)
		}
	}

	return nil
}
