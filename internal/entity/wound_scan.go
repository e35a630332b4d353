package entity

import (
	"WoundMonitor/internal/api/wound"
	"WoundMonitor/pkg/measurement"
	"strings"
	"time"
)

// WoundScan is one persisted capture: who, when, where on the body, and what
// was measured.
type WoundScan struct {
	ID            string                  `json:"id"`
	PatientID     string                  `json:"patient_id"`
	ProviderID    string                  `json:"provider_id"`
	WoundLocation string                  `json:"wound_location"`
	ImageURL      string                  `json:"image_url"`
	QRPayload     string                  `json:"qr_payload"`
	PixelsPerCm   *float64                `json:"pixels_per_cm"`
	Measurement   measurement.Measurement `json:"measurement"`
	CreatedAt     time.Time               `json:"created_at"`
}

func (s *WoundScan) Validate() error {
	if strings.TrimSpace(s.PatientID) == "" {
		return wound.ErrInvalidPatientID
	}

	m := s.Measurement
	if m.AreaPixels < 0 || m.PerimeterPixels < 0 || m.PerimeterPixels > m.AreaPixels {
		return wound.ErrInvalidMeasurement
	}

	if m.Calibrated != (m.AreaCm2 != nil && m.PerimeterCm != nil) {
		return wound.ErrInvalidMeasurement
	}

	if m.Calibrated && (s.PixelsPerCm == nil || *s.PixelsPerCm <= 0) {
		return wound.ErrInvalidMeasurement
	}

	return nil
}
