package wound

import (
	"WoundMonitor/pkg/geometry"
	"WoundMonitor/pkg/measurement"
	"WoundMonitor/pkg/trend"
)

type CaptureScanRequest struct {
	PatientID     string `form:"patient_id" json:"patient_id" validate:"required,max=64,printascii"`
	WoundLocation string `form:"wound_location" json:"wound_location" validate:"required,max=64,printascii"`
	SessionID     string `form:"session_id" json:"session_id" validate:"omitempty,max=64,printascii"`
}

type ProgressQuery struct {
	Location string `query:"location" validate:"omitempty,max=64,printascii"`
	Limit    int    `query:"limit" validate:"omitempty,min=1,max=200"`
}

type ScanResponse struct {
	ID               string                  `json:"id"`
	PatientID        string                  `json:"patient_id"`
	ProviderID       string                  `json:"provider_id"`
	WoundLocation    string                  `json:"wound_location"`
	ImageURL         string                  `json:"image_url"`
	QRPayload        string                  `json:"qr_payload,omitempty"`
	PixelsPerCm      *float64                `json:"pixels_per_cm"`
	Measurement      measurement.Measurement `json:"measurement"`
	ProviderNotified bool                    `json:"provider_notified,omitempty"`
	CreatedAt        string                  `json:"created_at"`
}

// CalibrationFrameResponse is written back for every frame of the live
// calibration stream.
type CalibrationFrameResponse struct {
	Detected    bool                  `json:"detected"`
	PixelsPerCm *float64              `json:"pixels_per_cm"`
	Corners     *geometry.QuadCorners `json:"corners,omitempty"`
	Payload     string                `json:"payload,omitempty"`
	Error       string                `json:"error,omitempty"`
}

type CalibrationResponse struct {
	SessionID   string               `json:"session_id"`
	PixelsPerCm float64              `json:"pixels_per_cm"`
	Corners     geometry.QuadCorners `json:"corners"`
	Payload     string               `json:"payload,omitempty"`
	ObservedAt  string               `json:"observed_at"`
}

type ProgressResponse struct {
	PatientID     string `json:"patient_id"`
	WoundLocation string `json:"wound_location,omitempty"`
	trend.Progress
}

type VisionService string

const (
	QRDetection  VisionService = "QR"
	Segmentation VisionService = "SEGMENTATION"
)
