package usecase

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"splat-service/internal/domain"
)

// PreparedImage is the output of preprocessing: the model-input tensor plus
// the camera information needed later for unprojection.
type PreparedImage struct {
	Tensor  *domain.ImageTensor
	FocalPx float64
	Width   int // original image width
	Height  int // original image height
}

// Preprocessor normalizes arbitrary input images into the fixed square CHW
// tensor the model expects. Pure transform: identical inputs always produce
// identical outputs.
type Preprocessor struct {
	inputSize   int
	focalFactor float64
}

func NewPreprocessor(inputSize int, focalFactor float64) *Preprocessor {
	return &Preprocessor{inputSize: inputSize, focalFactor: focalFactor}
}

// Prepare decodes the image, resizes it bilinearly to the model input
// resolution, and resolves the focal length. A nil override triggers the
// heuristic f_px = max(width, height) * focalFactor.
func (p *Preprocessor) Prepare(imageBytes []byte, fPxOverride *float64) (*PreparedImage, error) {
	if len(imageBytes) == 0 {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrInvalidImage)
	}

	src, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: zero-area image", domain.ErrInvalidImage)
	}

	fPx := 0.0
	if fPxOverride != nil {
		fPx = *fPxOverride
	} else {
		fPx = float64(max(width, height)) * p.focalFactor
	}
	if fPx <= 0 {
		return nil, fmt.Errorf("%w: non-positive focal length %f", domain.ErrInvalidImage, fPx)
	}

	resized := image.NewNRGBA(image.Rect(0, 0, p.inputSize, p.inputSize))
	xdraw.BiLinear.Scale(resized, resized.Bounds(), src, bounds, xdraw.Src, nil)

	tensor := &domain.ImageTensor{
		Data:     make([]float32, 3*p.inputSize*p.inputSize),
		Channels: 3,
		Height:   p.inputSize,
		Width:    p.inputSize,
	}

	plane := p.inputSize * p.inputSize
	for y := 0; y < p.inputSize; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < p.inputSize; x++ {
			i := y*p.inputSize + x
			tensor.Data[i] = float32(row[x*4]) / 255.0
			tensor.Data[plane+i] = float32(row[x*4+1]) / 255.0
			tensor.Data[2*plane+i] = float32(row[x*4+2]) / 255.0
		}
	}

	return &PreparedImage{
		Tensor:  tensor,
		FocalPx: fPx,
		Width:   width,
		Height:  height,
	}, nil
}
