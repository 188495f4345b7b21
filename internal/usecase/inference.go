package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"

	"splat-service/internal/domain"
)

// minDisparity guards the depth division; predictions at or beyond this
// disparity clamp to a far plane instead of producing infinities.
const minDisparity = 1e-4

// InferenceEngine runs one forward pass per request and converts the model's
// normalized-device-coordinate output into metric 3D Gaussian parameters.
//
// Camera convention: right-handed, x-right, y-down, z-forward, pinhole camera
// at the original image center with the resolved focal length. The
// unprojection is a fixed coordinate transform, not a learned step.
type InferenceEngine struct {
	runtime   domain.ModelRuntime
	inputSize int
}

func NewInferenceEngine(runtime domain.ModelRuntime, inputSize int) *InferenceEngine {
	return &InferenceEngine{runtime: runtime, inputSize: inputSize}
}

// Infer produces the metric GaussianSet for a prepared image. Device memory
// exhaustion surfaces as ErrInferenceResourceExhausted; any other execution
// fault as ErrInferenceFailed.
func (e *InferenceEngine) Infer(ctx context.Context, prep *PreparedImage, handle *domain.ModelHandle) (*domain.GaussianSet, error) {
	if handle == nil {
		return nil, fmt.Errorf("%w: no model handle", domain.ErrInferenceFailed)
	}

	disparity := float32(prep.FocalPx / float64(prep.Width))

	ndc, err := e.runtime.Predict(ctx, prep.Tensor, disparity)
	if err != nil {
		if errors.Is(err, domain.ErrInferenceResourceExhausted) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInferenceFailed, err)
	}

	set, err := e.unproject(ndc, prep)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInferenceFailed, err)
	}

	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInferenceFailed, err)
	}

	return set, nil
}

// unproject maps NDC-frame Gaussians to metric space. Positions carry
// (x_ndc, y_ndc, disparity) with xy in [-1, 1] over the internal resolution;
// depth is the disparity reciprocal and rays go through intrinsics rescaled
// from the original image to the internal square, exactly mirroring the
// resize applied during preprocessing.
func (e *InferenceEngine) unproject(ndc *domain.GaussianSet, prep *PreparedImage) (*domain.GaussianSet, error) {
	if err := lengthsMatch(ndc); err != nil {
		return nil, err
	}

	s := float64(e.inputSize)
	fx := prep.FocalPx * s / float64(prep.Width)
	fy := prep.FocalPx * s / float64(prep.Height)
	cx := float64(prep.Width) / 2 * s / float64(prep.Width)
	cy := float64(prep.Height) / 2 * s / float64(prep.Height)

	n := ndc.Len()
	out := &domain.GaussianSet{
		Positions: make([][3]float32, n),
		Rotations: make([][4]float32, n),
		Scales:    make([][3]float32, n),
		Colors:    make([][3]float32, n),
		Opacities: make([]float32, n),
	}

	for i := 0; i < n; i++ {
		p := ndc.Positions[i]

		px := (float64(p[0]) + 1) / 2 * s
		py := (float64(p[1]) + 1) / 2 * s
		d := math.Max(float64(p[2]), minDisparity)
		z := 1 / d

		out.Positions[i] = [3]float32{
			float32((px - cx) * z / fx),
			float32((py - cy) * z / fy),
			float32(z),
		}

		// Lateral NDC extents span s/2 pixels per unit; depth scale uses the
		// mean lateral factor to stay isotropic for square pixels.
		kx := z * s / (2 * fx)
		ky := z * s / (2 * fy)
		kz := (kx + ky) / 2
		sc := ndc.Scales[i]
		out.Scales[i] = [3]float32{
			float32(math.Max(float64(sc[0])*kx, math.SmallestNonzeroFloat32)),
			float32(math.Max(float64(sc[1])*ky, math.SmallestNonzeroFloat32)),
			float32(math.Max(float64(sc[2])*kz, math.SmallestNonzeroFloat32)),
		}

		out.Rotations[i] = normalizeQuat(ndc.Rotations[i])
		out.Colors[i] = ndc.Colors[i]
		out.Opacities[i] = clamp01(ndc.Opacities[i])
	}

	return out, nil
}

func lengthsMatch(g *domain.GaussianSet) error {
	n := len(g.Positions)
	if len(g.Rotations) != n || len(g.Scales) != n || len(g.Colors) != n || len(g.Opacities) != n {
		return fmt.Errorf("runtime returned ragged attribute arrays (n=%d)", n)
	}
	return nil
}

func normalizeQuat(q [4]float32) [4]float32 {
	norm := math.Sqrt(float64(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3]))
	if norm == 0 || math.IsNaN(norm) {
		return [4]float32{1, 0, 0, 0}
	}
	inv := float32(1 / norm)
	return [4]float32{q[0] * inv, q[1] * inv, q[2] * inv, q[3] * inv}
}

func clamp01(v float32) float32 {
	switch {
	case v < 0 || math.IsNaN(float64(v)):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
