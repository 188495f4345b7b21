package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validSet(n int) *GaussianSet {
	set := &GaussianSet{
		Positions: make([][3]float32, n),
		Rotations: make([][4]float32, n),
		Scales:    make([][3]float32, n),
		Colors:    make([][3]float32, n),
		Opacities: make([]float32, n),
	}
	for i := 0; i < n; i++ {
		set.Positions[i] = [3]float32{float32(i), 0, 1}
		set.Rotations[i] = [4]float32{1, 0, 0, 0}
		set.Scales[i] = [3]float32{0.1, 0.2, 0.3}
		set.Colors[i] = [3]float32{0.5, 0.5, 0.5}
		set.Opacities[i] = 0.8
	}
	return set
}

func TestGaussianSetValidate(t *testing.T) {
	assert.NoError(t, validSet(5).Validate())
	assert.NoError(t, validSet(0).Validate())
}

func TestGaussianSetValidate_LengthMismatch(t *testing.T) {
	set := validSet(5)
	set.Opacities = set.Opacities[:4]
	assert.ErrorContains(t, set.Validate(), "length mismatch")
}

func TestGaussianSetValidate_QuaternionNorm(t *testing.T) {
	set := validSet(3)
	set.Rotations[1] = [4]float32{0.5, 0.5, 0, 0}
	assert.ErrorContains(t, set.Validate(), "quaternion norm")

	// Within tolerance passes.
	set = validSet(1)
	set.Rotations[0] = [4]float32{1.0005, 0, 0, 0}
	assert.NoError(t, set.Validate())
}

func TestGaussianSetValidate_OpacityBounds(t *testing.T) {
	set := validSet(2)
	set.Opacities[0] = 1.2
	assert.ErrorContains(t, set.Validate(), "opacity")

	set = validSet(2)
	set.Opacities[1] = -0.01
	assert.ErrorContains(t, set.Validate(), "opacity")

	set = validSet(2)
	set.Opacities[0] = 0
	set.Opacities[1] = 1
	assert.NoError(t, set.Validate())
}

func TestGaussianSetValidate_NonPositiveScale(t *testing.T) {
	set := validSet(2)
	set.Scales[0][2] = 0
	assert.ErrorContains(t, set.Validate(), "scale")
}
