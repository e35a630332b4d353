package wound

import (
	"WoundMonitor/pkg/response"
	"net/http"
)

var (
	ErrScanNotFound            = response.NewError(http.StatusNotFound, "scan not found")
	ErrScanNotOwned            = response.NewError(http.StatusForbidden, "scan does not belong to provider")
	ErrInvalidImage            = response.NewError(http.StatusBadRequest, "uploaded file is not a supported image")
	ErrImageTooLarge           = response.NewError(http.StatusBadRequest, "image exceeds size limit")
	ErrInvalidPatientID        = response.NewError(http.StatusBadRequest, "invalid patient id")
	ErrInvalidMeasurement      = response.NewError(http.StatusBadRequest, "invalid measurement")
	ErrCalibrationNotFound     = response.NewError(http.StatusNotFound, "no calibration for session")
	ErrSegmentationUnavailable = response.NewError(http.StatusServiceUnavailable, "segmentation unavailable")
	ErrMaskDimension           = response.NewError(http.StatusInternalServerError, "mask does not match captured frame")
	ErrFailedToUploadImage     = response.NewError(http.StatusInternalServerError, "failed to upload scan image")
	ErrCreateScan              = response.NewError(http.StatusInternalServerError, "failed to create scan")
	ErrDeleteScan              = response.NewError(http.StatusInternalServerError, "failed to delete scan")
	ErrInternalServerError     = response.NewError(http.StatusInternalServerError, "internal server error")
)
