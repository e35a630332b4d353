package entity

import "WoundMonitor/pkg/geometry"

// QRDetectionResult is the detector service's answer for one frame. Corners
// are [x, y] pairs in TL, TR, BR, BL order.
type QRDetectionResult struct {
	Detected bool                  `json:"detected"`
	Data     string                `json:"data,omitempty"`
	Corners  [][]float64           `json:"corners,omitempty"`
	Error    string                `json:"error,omitempty"`
	Quad     *geometry.QuadCorners `json:"quad,omitempty"`
}

type SegmentationResult struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Mask   string `json:"mask"`
	Error  string `json:"error,omitempty"`
}
