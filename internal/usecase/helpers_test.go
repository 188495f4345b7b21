package usecase

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"splat-service/internal/domain"
)

func makePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func makeGaussianSet(n int) *domain.GaussianSet {
	set := &domain.GaussianSet{
		Positions: make([][3]float32, n),
		Rotations: make([][4]float32, n),
		Scales:    make([][3]float32, n),
		Colors:    make([][3]float32, n),
		Opacities: make([]float32, n),
	}
	for i := 0; i < n; i++ {
		set.Positions[i] = [3]float32{float32(i) * 0.25, float32(i) * -0.5, 1.5 + float32(i)*0.1}
		set.Rotations[i] = [4]float32{1, 0, 0, 0}
		set.Scales[i] = [3]float32{0.01, 0.02, 0.03}
		set.Colors[i] = [3]float32{0.2, 0.4, 0.6}
		set.Opacities[i] = 0.9
	}
	return set
}

// makeNDCSet builds a runtime-shaped set: positions are (x_ndc, y_ndc,
// disparity) and the other attributes are raw model output.
func makeNDCSet(n int) *domain.GaussianSet {
	set := &domain.GaussianSet{
		Positions: make([][3]float32, n),
		Rotations: make([][4]float32, n),
		Scales:    make([][3]float32, n),
		Colors:    make([][3]float32, n),
		Opacities: make([]float32, n),
	}
	for i := 0; i < n; i++ {
		set.Positions[i] = [3]float32{float32(i%3)*0.2 - 0.2, float32(i%5)*0.1 - 0.2, 0.5}
		set.Rotations[i] = [4]float32{2, 0, 0, 0} // unnormalized on purpose
		set.Scales[i] = [3]float32{0.05, 0.05, 0.05}
		set.Colors[i] = [3]float32{0.1, 0.2, 0.3}
		set.Opacities[i] = 0.7
	}
	return set
}
