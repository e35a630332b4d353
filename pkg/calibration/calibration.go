// Package calibration turns a detected QR fiducial into a pixels-per-centimeter
// scale.
package calibration

import (
	"WoundMonitor/pkg/geometry"
	"fmt"
)

// DefaultReferenceSizeCm is the printed side length of the QR fiducial.
const DefaultReferenceSizeCm = 2.5

type Method string

const (
	// MethodAxisAligned averages the horizontal span of the top edge and the
	// vertical span of the left edge. Biased for rotated codes but matches
	// historical measurements.
	MethodAxisAligned Method = "axis_aligned"
	// MethodEdgeMean averages the Euclidean length of all four edges.
	MethodEdgeMean Method = "edge_mean"
)

func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case "", MethodAxisAligned:
		return MethodAxisAligned, nil
	case MethodEdgeMean:
		return MethodEdgeMean, nil
	default:
		return "", fmt.Errorf("unknown calibration method %q", s)
	}
}

// State is the scale derived from one detection. A nil *State means the frame
// is not calibrated.
type State struct {
	PixelsPerCm float64              `json:"pixels_per_cm"`
	SourceQuad  geometry.QuadCorners `json:"source_quad"`
}

// Calibrate derives the scale with the axis-aligned method.
func Calibrate(quad *geometry.QuadCorners, referenceSizeCm float64) *State {
	return CalibrateWith(quad, referenceSizeCm, MethodAxisAligned)
}

// CalibrateWith returns nil when quad is nil or when the resulting scale is not
// a finite positive number.
func CalibrateWith(quad *geometry.QuadCorners, referenceSizeCm float64, method Method) *State {
	if quad == nil || !geometry.IsFinitePositive(referenceSizeCm) {
		return nil
	}

	ppc := SizePixels(*quad, method) / referenceSizeCm
	if !geometry.IsFinitePositive(ppc) {
		return nil
	}

	return &State{PixelsPerCm: ppc, SourceQuad: *quad}
}

// SizePixels is the apparent side length of the fiducial in pixels.
func SizePixels(quad geometry.QuadCorners, method Method) float64 {
	switch method {
	case MethodEdgeMean:
		var sum float64
		for _, l := range quad.EdgeLengths() {
			sum += l
		}
		return sum / 4
	default:
		w, h := quad.AxisExtents()
		return (w + h) / 2
	}
}
