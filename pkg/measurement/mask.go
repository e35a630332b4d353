package measurement

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

// Threshold separates wound from background; values strictly above it are
// wound pixels.
const Threshold = 0.5

var ErrInvalidMask = errors.New("invalid mask")

// BinaryMask is a row-major height x width grid in the pixel space of the
// frame it was derived from. It is never mutated after construction.
type BinaryMask struct {
	width  int
	height int
	values []float32
}

// NewBinaryMask copies values, which must hold width*height entries.
func NewBinaryMask(width, height int, values []float32) (*BinaryMask, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: negative size %dx%d", ErrInvalidMask, width, height)
	}
	if len(values) != width*height {
		return nil, fmt.Errorf("%w: %d values for %dx%d", ErrInvalidMask, len(values), width, height)
	}
	v := make([]float32, len(values))
	copy(v, values)
	return &BinaryMask{width: width, height: height, values: v}, nil
}

// FromGray maps 8-bit intensities onto [0, 1].
func FromGray(img *image.Gray) *BinaryMask {
	b := img.Bounds()
	m := &BinaryMask{width: b.Dx(), height: b.Dy(), values: make([]float32, b.Dx()*b.Dy())}
	for y := 0; y < m.height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+m.width]
		for x, p := range row {
			m.values[y*m.width+x] = float32(p) / 255
		}
	}
	return m
}

// DecodePNG reads a mask where 0 is background and 255 is wound. Colour images
// are converted to gray first.
func DecodePNG(r io.Reader) (*BinaryMask, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMask, err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		b := img.Bounds()
		gray = image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	}
	return FromGray(gray), nil
}

func (m *BinaryMask) Width() int  { return m.width }
func (m *BinaryMask) Height() int { return m.height }

func (m *BinaryMask) At(x, y int) float32 {
	return m.values[y*m.width+x]
}

func (m *BinaryMask) isWound(x, y int) bool {
	return m.values[y*m.width+x] > Threshold
}

// Resample thresholds the mask and scales it bilinearly to width x height, the
// way model output is brought back to the captured frame's resolution.
func (m *BinaryMask) Resample(width, height int) *BinaryMask {
	if width == m.width && height == m.height {
		return m
	}
	if m.width == 0 || m.height == 0 || width <= 0 || height <= 0 {
		w, h := max(width, 0), max(height, 0)
		return &BinaryMask{width: w, height: h, values: make([]float32, w*h)}
	}

	src := image.NewGray(image.Rect(0, 0, m.width, m.height))
	for i, v := range m.values {
		if v > Threshold {
			src.Pix[i] = 255
		}
	}

	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	return FromGray(dst)
}
