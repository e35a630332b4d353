package woundService

import (
	"WoundMonitor/internal/api/wound"
	"WoundMonitor/internal/entity"
	"context"
	"errors"
	"testing"
	"time"
)

func TestProcessCalibrationFrame_detected(t *testing.T) {
	f := newFixture(t)
	f.vision.qr = &entity.QRDetectionResult{Detected: true, Data: "PATIENT-7", Quad: square50()}

	tracker := f.svc.NewTracker()
	resp, err := f.svc.ProcessCalibrationFrame(context.Background(), "sess-1", tracker, []byte("frame"))
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Detected || resp.PixelsPerCm == nil || *resp.PixelsPerCm != 20 {
		t.Fatalf("%+v", resp)
	}
	if resp.Payload != "PATIENT-7" || resp.Corners == nil {
		t.Fatalf("%+v", resp)
	}
	if tracker.Current() == nil || tracker.Current().PixelsPerCm != 20 {
		t.Fatal("tracker not updated")
	}

	cached, ok := f.redis.store["sess-1"]
	if !ok || cached.PixelsPerCm != 20 || cached.Payload != "PATIENT-7" {
		t.Fatalf("cache = %+v", cached)
	}
	if f.redis.ttl != 5*time.Second {
		t.Fatalf("ttl = %v", f.redis.ttl)
	}
}

func TestProcessCalibrationFrame_missClearsState(t *testing.T) {
	f := newFixture(t)
	tracker := f.svc.NewTracker()

	f.vision.qr = &entity.QRDetectionResult{Detected: true, Quad: square50()}
	if _, err := f.svc.ProcessCalibrationFrame(context.Background(), "sess-1", tracker, nil); err != nil {
		t.Fatal(err)
	}

	f.vision.qr = &entity.QRDetectionResult{Detected: false}
	resp, err := f.svc.ProcessCalibrationFrame(context.Background(), "sess-1", tracker, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Detected || resp.PixelsPerCm != nil {
		t.Fatalf("%+v", resp)
	}
	if tracker.Current() != nil {
		t.Fatal("stale calibration kept after miss")
	}
	if _, ok := f.redis.store["sess-1"]; ok {
		t.Fatal("stale calibration left in cache")
	}
}

func TestProcessCalibrationFrame_detectorError(t *testing.T) {
	f := newFixture(t)
	tracker := f.svc.NewTracker()
	tracker.Observe(square50())

	f.vision.qrErr = errBoom
	resp, err := f.svc.ProcessCalibrationFrame(context.Background(), "", tracker, nil)
	if !errors.Is(err, errBoom) {
		t.Fatalf("err = %v", err)
	}
	if resp.Error == "" || resp.Detected {
		t.Fatalf("%+v", resp)
	}
	if tracker.Current() != nil {
		t.Fatal("detector failure must clear the tracker")
	}
}

func TestProcessCalibrationFrame_degenerateQuad(t *testing.T) {
	f := newFixture(t)
	tracker := f.svc.NewTracker()
	quad := square50()
	quad.TopRight = quad.TopLeft
	quad.BottomRight = quad.TopLeft
	quad.BottomLeft = quad.TopLeft

	f.vision.qr = &entity.QRDetectionResult{Detected: true, Quad: quad}
	resp, err := f.svc.ProcessCalibrationFrame(context.Background(), "sess-1", tracker, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.PixelsPerCm != nil || tracker.Current() != nil {
		t.Fatalf("degenerate quad calibrated: %+v", resp)
	}
}

func TestGetSessionCalibration(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.GetSessionCalibration(context.Background(), "nope"); !errors.Is(err, wound.ErrCalibrationNotFound) {
		t.Fatalf("err = %v", err)
	}

	f.redis.store["s"] = entity.SessionCalibration{SessionID: "s", PixelsPerCm: 12}
	cal, err := f.svc.GetSessionCalibration(context.Background(), "s")
	if err != nil || cal.PixelsPerCm != 12 {
		t.Fatalf("%+v %v", cal, err)
	}
}
