package woundService

import (
	"WoundMonitor/internal/api/wound"
	"WoundMonitor/internal/entity"
	"WoundMonitor/pkg/calibration"
	contextPkg "WoundMonitor/pkg/context"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"time"
)

// ProcessCalibrationFrame runs QR detection on one live frame and folds the
// result into tracker. A detector failure counts as a miss. The tracker state
// is mirrored to the cache so capture requests of the same session can use it.
func (s *woundService) ProcessCalibrationFrame(ctx context.Context, sessionID string, tracker *calibration.Tracker, frame []byte) (wound.CalibrationFrameResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	result, err := s.vision.DetectQR(ctx, frame)
	if err != nil {
		tracker.Observe(nil)
		s.forgetSession(ctx, sessionID)

		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": sessionID,
			"error":      err.Error(),
		}).Warn("QR detection failed")

		return wound.CalibrationFrameResponse{Error: err.Error()}, err
	}

	if !result.Detected || result.Quad == nil {
		tracker.Observe(nil)
		s.forgetSession(ctx, sessionID)
		return wound.CalibrationFrameResponse{}, nil
	}

	state := tracker.Observe(result.Quad)
	resp := wound.CalibrationFrameResponse{
		Detected: true,
		Corners:  result.Quad,
		Payload:  result.Data,
	}
	if state == nil {
		s.forgetSession(ctx, sessionID)
		return resp, nil
	}

	ppc := state.PixelsPerCm
	resp.PixelsPerCm = &ppc

	if sessionID != "" {
		cal := entity.SessionCalibration{
			SessionID:   sessionID,
			PixelsPerCm: state.PixelsPerCm,
			Quad:        state.SourceQuad,
			Payload:     result.Data,
			ObservedAt:  time.Now(),
		}
		if err := s.redis.SetCalibration(ctx, cal, s.cfg.CalibrationTTL); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"session_id": sessionID,
				"error":      err.Error(),
			}).Error("Failed to cache session calibration")
		}
	}

	return resp, nil
}

func (s *woundService) forgetSession(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := s.redis.DeleteCalibration(ctx, sessionID); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to clear session calibration")
	}
}

func (s *woundService) GetSessionCalibration(ctx context.Context, sessionID string) (entity.SessionCalibration, error) {
	cal, err := s.redis.GetCalibration(ctx, sessionID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to read session calibration")
		return entity.SessionCalibration{}, wound.ErrInternalServerError
	}
	if cal == nil || cal.State() == nil {
		return entity.SessionCalibration{}, wound.ErrCalibrationNotFound
	}
	return *cal, nil
}

// resolveCalibration prefers the live session's scale and falls back to a
// single QR detection on the still image.
func (s *woundService) resolveCalibration(ctx context.Context, sessionID string, image []byte) (*calibration.State, string) {
	requestID := contextPkg.GetRequestID(ctx)

	if sessionID != "" {
		cal, err := s.redis.GetCalibration(ctx, sessionID)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"session_id": sessionID,
				"error":      err.Error(),
			}).Warn("Session calibration lookup failed")
		}
		if state := cal.State(); state != nil {
			return state, cal.Payload
		}
	}

	result, err := s.vision.DetectQR(ctx, image)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Still image QR detection failed, measuring without scale")
		return nil, ""
	}
	if !result.Detected {
		return nil, ""
	}

	state := calibration.CalibrateWith(result.Quad, s.cfg.ReferenceSizeCm, s.cfg.Method)
	if state == nil {
		return nil, ""
	}
	return state, result.Data
}
