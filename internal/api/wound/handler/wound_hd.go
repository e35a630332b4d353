package woundHandler

import (
	"WoundMonitor/internal/api/wound"
	"WoundMonitor/internal/entity"
	contextPkg "WoundMonitor/pkg/context"
	"WoundMonitor/pkg/handlerUtil"
	jwtPkg "WoundMonitor/pkg/jwt"
	"WoundMonitor/pkg/log"
	"WoundMonitor/pkg/utils"
	"errors"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
	"time"
)

const captureTimeout = 30 * time.Second

func (h *WoundHandler) CaptureScan(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), captureTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing capture scan request")

	provider, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	var req wound.CaptureScanRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	file, err := ctx.FormFile("image")
	if err != nil {
		return errHandler.HandleValidationError(ctx, requestID, errors.New("image file is required"), ctx.Path())
	}

	if err := h.utils.ValidateImageFile(file); err != nil {
		if errors.Is(err, utils.ErrFileTooLarge) {
			return errHandler.Handle(ctx, requestID, wound.ErrImageTooLarge, ctx.Path(), "validate_image")
		}
		return errHandler.Handle(ctx, requestID, wound.ErrInvalidImage, ctx.Path(), "validate_image")
	}

	image, err := h.utils.ReadFile(file)
	if err != nil {
		return errHandler.Handle(ctx, requestID, wound.ErrInvalidImage, ctx.Path(), "read_image")
	}

	result, err := h.woundService.CaptureScan(c, provider, req, image)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "capture_scan")
	}

	resp := toScanResponse(result.Scan)
	resp.ProviderNotified = result.ProviderNotified

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, resp)
	}
}

func (h *WoundHandler) GetScanByID(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	provider, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	id := ctx.Params("id")
	if id == "" {
		return errHandler.HandleValidationError(ctx, requestID, errors.New("scan ID is required"), ctx.Path())
	}

	scan, err := h.woundService.GetScanByID(c, id, provider.ID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_scan")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, toScanResponse(scan))
	}
}

func (h *WoundHandler) DeleteScan(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	provider, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	id := ctx.Params("id")
	if id == "" {
		return errHandler.HandleValidationError(ctx, requestID, errors.New("scan ID is required"), ctx.Path())
	}

	if err := h.woundService.DeleteScan(c, id, provider.ID); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "delete_scan")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, fiber.Map{
			"message": "Scan deleted successfully",
		})
	}
}

func (h *WoundHandler) GetProgress(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	patientID := ctx.Params("patientID")
	if patientID == "" {
		return errHandler.Handle(ctx, requestID, wound.ErrInvalidPatientID, ctx.Path(), "get_progress")
	}

	var query wound.ProgressQuery
	if err := ctx.QueryParser(&query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	progress, err := h.woundService.GetProgress(c, patientID, query)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_progress")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, wound.ProgressResponse{
			PatientID:     patientID,
			WoundLocation: query.Location,
			Progress:      progress,
		})
	}
}

func (h *WoundHandler) GetSessionCalibration(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	cal, err := h.woundService.GetSessionCalibration(c, ctx.Params("sessionID"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_calibration")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, wound.CalibrationResponse{
			SessionID:   cal.SessionID,
			PixelsPerCm: cal.PixelsPerCm,
			Corners:     cal.Quad,
			Payload:     cal.Payload,
			ObservedAt:  cal.ObservedAt.Format(time.RFC3339Nano),
		})
	}
}

func toScanResponse(scan entity.WoundScan) wound.ScanResponse {
	return wound.ScanResponse{
		ID:            scan.ID,
		PatientID:     scan.PatientID,
		ProviderID:    scan.ProviderID,
		WoundLocation: scan.WoundLocation,
		ImageURL:      scan.ImageURL,
		QRPayload:     scan.QRPayload,
		PixelsPerCm:   scan.PixelsPerCm,
		Measurement:   scan.Measurement,
		CreatedAt:     scan.CreatedAt.Format(time.RFC3339),
	}
}
