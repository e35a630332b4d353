package entity

import (
	"WoundMonitor/pkg/calibration"
	"WoundMonitor/pkg/geometry"
	"time"
)

// SessionCalibration is the latest scale of a live calibration stream, shared
// with capture requests through the cache.
type SessionCalibration struct {
	SessionID   string               `json:"session_id"`
	PixelsPerCm float64              `json:"pixels_per_cm"`
	Quad        geometry.QuadCorners `json:"quad"`
	Payload     string               `json:"payload,omitempty"`
	ObservedAt  time.Time            `json:"observed_at"`
}

func (s *SessionCalibration) State() *calibration.State {
	if s == nil || !geometry.IsFinitePositive(s.PixelsPerCm) {
		return nil
	}
	return &calibration.State{PixelsPerCm: s.PixelsPerCm, SourceQuad: s.Quad}
}
