// Package measurement computes wound area and perimeter from a segmentation
// mask, in pixels and, when a scale is known, in centimeters.
package measurement

import (
	"WoundMonitor/pkg/calibration"
	"WoundMonitor/pkg/geometry"
	"errors"
	"fmt"
)

var ErrDimensionMismatch = errors.New("mask dimensions do not match frame")

// Measurement is the result of one capture. AreaCm2 and PerimeterCm are nil
// when no scale was available, which is distinct from a zero measurement.
type Measurement struct {
	AreaPixels      int      `json:"area_pixels"`
	PerimeterPixels int      `json:"perimeter_pixels"`
	AreaCm2         *float64 `json:"area_cm2"`
	PerimeterCm     *float64 `json:"perimeter_cm"`
	Calibrated      bool     `json:"calibrated"`
}

// Measure counts wound pixels and 4-connected boundary pixels. A wound pixel
// is on the perimeter when it touches the mask border or when its left, right,
// upper or lower neighbour is background. Diagonal neighbours are ignored.
func Measure(mask *BinaryMask, cal *calibration.State) Measurement {
	var m Measurement

	if mask != nil {
		w, h := mask.width, mask.height
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if !mask.isWound(x, y) {
					continue
				}
				m.AreaPixels++

				if x == 0 || x == w-1 || y == 0 || y == h-1 ||
					!mask.isWound(x-1, y) || !mask.isWound(x+1, y) ||
					!mask.isWound(x, y-1) || !mask.isWound(x, y+1) {
					m.PerimeterPixels++
				}
			}
		}
	}

	if cal != nil && geometry.IsFinitePositive(cal.PixelsPerCm) {
		ppc := cal.PixelsPerCm
		area := float64(m.AreaPixels) / (ppc * ppc)
		perimeter := float64(m.PerimeterPixels) / ppc
		m.AreaCm2 = &area
		m.PerimeterCm = &perimeter
		m.Calibrated = true
	}

	return m
}

// MeasureFrame is Measure for a mask that claims to describe a frame of the
// given size. The mask's own dimensions are authoritative; a mismatch is a
// caller bug and is reported rather than measured.
func MeasureFrame(mask *BinaryMask, frameWidth, frameHeight int, cal *calibration.State) (Measurement, error) {
	if mask == nil {
		return Measurement{}, fmt.Errorf("%w: nil mask", ErrInvalidMask)
	}
	if mask.width != frameWidth || mask.height != frameHeight {
		return Measurement{}, fmt.Errorf("%w: mask %dx%d, frame %dx%d",
			ErrDimensionMismatch, mask.width, mask.height, frameWidth, frameHeight)
	}
	return Measure(mask, cal), nil
}
