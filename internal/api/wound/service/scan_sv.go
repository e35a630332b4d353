package woundService

import (
	"WoundMonitor/internal/api/wound"
	"WoundMonitor/internal/entity"
	"WoundMonitor/pkg/calibration"
	contextPkg "WoundMonitor/pkg/context"
	"WoundMonitor/pkg/measurement"
	"WoundMonitor/pkg/response"
	"WoundMonitor/pkg/trend"
	"errors"
	"fmt"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
	"time"
)

func (s *woundService) CaptureScan(ctx context.Context, provider entity.UserLoginData, req wound.CaptureScanRequest, image []byte) (CaptureResult, error) {
	requestID := contextPkg.GetRequestID(ctx)

	info, err := s.utils.DecodeImageConfig(image)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Captured image could not be decoded")
		return CaptureResult{}, response.Wrap(wound.ErrInvalidImage, err)
	}

	cal, payload := s.resolveCalibration(ctx, req.SessionID, image)

	mask, err := s.vision.Segment(ctx, image)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Wound segmentation failed")
		if errors.Is(err, measurement.ErrDimensionMismatch) {
			return CaptureResult{}, response.Wrap(wound.ErrMaskDimension, err)
		}
		return CaptureResult{}, response.Wrap(wound.ErrSegmentationUnavailable, err)
	}

	// The vision client has already checked the mask against its declared
	// size; resampling brings it to the frame the scale was measured on.
	m := measurement.Measure(mask.Resample(info.Width, info.Height), cal)

	now := time.Now()
	id, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate ULID")
		return CaptureResult{}, wound.ErrCreateScan
	}

	scan := entity.WoundScan{
		ID:            id,
		PatientID:     req.PatientID,
		ProviderID:    provider.ID,
		WoundLocation: req.WoundLocation,
		QRPayload:     payload,
		PixelsPerCm:   scaleOf(cal),
		Measurement:   m,
		CreatedAt:     now,
	}
	if err := scan.Validate(); err != nil {
		return CaptureResult{}, err
	}

	key := fmt.Sprintf("scans/%s/%d%s", req.PatientID, now.UnixMilli(), info.Extension)
	imageURL, err := s.s3.UploadImage(ctx, key, image, info.ContentType)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to upload scan image")
		return CaptureResult{}, response.Wrap(wound.ErrFailedToUploadImage, err)
	}
	scan.ImageURL = imageURL

	repo, err := s.woundRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		s.discardImage(ctx, imageURL)
		return CaptureResult{}, wound.ErrCreateScan
	}

	if err := repo.Scan.CreateScan(ctx, scan); err != nil {
		s.discardImage(ctx, imageURL)
		return CaptureResult{}, wound.ErrCreateScan
	}

	s.log.WithFields(logrus.Fields{
		"request_id":  requestID,
		"scan_id":     scan.ID,
		"patient_id":  scan.PatientID,
		"calibrated":  m.Calibrated,
		"area_pixels": m.AreaPixels,
	}).Info("Wound scan captured")

	result := CaptureResult{
		Scan:             scan,
		ProviderNotified: s.notifyProvider(ctx, provider, scan),
	}
	result.Scan.ImageURL = s.presign(ctx, imageURL)

	return result, nil
}

// notifyProvider mails the capturing provider when a calibrated scan is larger
// than the configured threshold. Mail failures never fail the capture.
func (s *woundService) notifyProvider(ctx context.Context, provider entity.UserLoginData, scan entity.WoundScan) bool {
	area := scan.Measurement.AreaCm2
	if area == nil || *area <= s.cfg.NotifyAreaThresholdCm2 || provider.Email == "" {
		return false
	}

	subject := fmt.Sprintf("Wound scan alert: patient %s", scan.PatientID)
	body := fmt.Sprintf(
		"A wound scan of patient %s (%s) measured %.2f cm2, above the alert threshold of %.2f cm2.\r\nScan ID: %s\r\nCaptured at: %s",
		scan.PatientID, scan.WoundLocation, *area, s.cfg.NotifyAreaThresholdCm2, scan.ID, scan.CreatedAt.Format(time.RFC3339),
	)

	if err := s.mailer.SendProviderNotification(provider.Email, subject, body); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":  contextPkg.GetRequestID(ctx),
			"scan_id":     scan.ID,
			"provider_id": provider.ID,
			"error":       err.Error(),
		}).Error("Failed to notify provider")
		return false
	}
	return true
}

// GetScanByID returns a scan only to the provider who captured it.
func (s *woundService) GetScanByID(ctx context.Context, id string, providerID string) (entity.WoundScan, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.woundRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return entity.WoundScan{}, wound.ErrInternalServerError
	}

	scan, err := repo.Scan.GetScanByID(ctx, id)
	if err != nil {
		return entity.WoundScan{}, err
	}

	if scan.ProviderID != providerID {
		s.log.WithFields(logrus.Fields{
			"request_id":  requestID,
			"scan_id":     id,
			"provider_id": providerID,
		}).Warn("Provider attempted to read a scan they did not capture")
		return entity.WoundScan{}, wound.ErrScanNotOwned
	}

	scan.ImageURL = s.presign(ctx, scan.ImageURL)
	return scan, nil
}

func (s *woundService) DeleteScan(ctx context.Context, id string, providerID string) error {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.woundRepository.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return wound.ErrInternalServerError
	}

	scan, err := repo.Scan.GetScanByID(ctx, id)
	if err != nil {
		_ = repo.Rollback()
		return err
	}

	if scan.ProviderID != providerID {
		_ = repo.Rollback()
		s.log.WithFields(logrus.Fields{
			"request_id":  requestID,
			"scan_id":     id,
			"provider_id": providerID,
		}).Warn("Provider attempted to delete a scan they did not capture")
		return wound.ErrScanNotOwned
	}

	if err := repo.Scan.DeleteScan(ctx, id); err != nil {
		_ = repo.Rollback()
		if errors.Is(err, wound.ErrScanNotFound) {
			return err
		}
		return wound.ErrDeleteScan
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit scan deletion")
		return wound.ErrDeleteScan
	}

	// The row is gone at this point, so a stale image is only logged.
	if scan.ImageURL != "" {
		if err := s.s3.DeleteFile(scan.ImageURL); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"scan_id":    id,
				"image_url":  scan.ImageURL,
				"error":      err.Error(),
			}).Error("Failed to delete scan image")
		}
	}

	return nil
}

func (s *woundService) GetProgress(ctx context.Context, patientID string, query wound.ProgressQuery) (trend.Progress, error) {
	requestID := contextPkg.GetRequestID(ctx)

	limit := query.Limit
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}

	repo, err := s.woundRepository.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return trend.Progress{}, wound.ErrInternalServerError
	}

	scans, err := repo.Scan.GetScansByPatient(ctx, patientID, query.Location, limit)
	if err != nil {
		return trend.Progress{}, wound.ErrInternalServerError
	}

	points := make([]trend.Point, 0, len(scans))
	for _, scan := range scans {
		points = append(points, trend.Point{
			ID:        scan.ID,
			Timestamp: scan.CreatedAt,
			AreaCm2:   scan.Measurement.AreaCm2,
		})
	}

	return trend.Timeline(points), nil
}

func (s *woundService) presign(ctx context.Context, fileURL string) string {
	if fileURL == "" {
		return ""
	}
	presigned, err := s.s3.PresignUrl(fileURL)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Warn("Failed to presign scan image")
		return fileURL
	}
	return presigned
}

func (s *woundService) discardImage(ctx context.Context, fileURL string) {
	if err := s.s3.DeleteFile(fileURL); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Error("Failed to delete scan image after insert failure")
	}
}

func scaleOf(cal *calibration.State) *float64 {
	if cal == nil {
		return nil
	}
	ppc := cal.PixelsPerCm
	return &ppc
}
