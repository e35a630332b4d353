package woundHandler

import (
	"WoundMonitor/internal/api/wound"
	woundService "WoundMonitor/internal/api/wound/service"
	"WoundMonitor/internal/entity"
	"WoundMonitor/pkg/calibration"
	contextPkg "WoundMonitor/pkg/context"
	"WoundMonitor/pkg/geometry"
	jwtPkg "WoundMonitor/pkg/jwt"
	"WoundMonitor/pkg/measurement"
	"WoundMonitor/pkg/trend"
	"WoundMonitor/pkg/utils"
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

type fakeMiddleware struct{}

func (fakeMiddleware) NewRateLimiter(ctx *fiber.Ctx) error { return ctx.Next() }

func (fakeMiddleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	if ctx.Get(fiber.HeaderAuthorization) == "" {
		return ctx.SendStatus(fiber.StatusUnauthorized)
	}
	jwtPkg.SetUserLoginData(ctx, entity.UserLoginData{ID: "prov-1", Email: "nurse@clinic.test"})
	ctx.Locals(contextPkg.ProviderIDLocal, "prov-1")
	return ctx.Next()
}

func (fakeMiddleware) NewRequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error { return c.Next() }
}

func (fakeMiddleware) LoggerConfig() fiber.Handler {
	return func(c *fiber.Ctx) error { return c.Next() }
}

func (fakeMiddleware) GetRequestID(ctx *fiber.Ctx) string { return "test-request" }

type fakeService struct {
	mu        sync.Mutex
	captured  wound.CaptureScanRequest
	provider  entity.UserLoginData
	image     []byte
	deleteErr error
	query     wound.ProgressQuery
	frames    int
	trackers  int
	readerID  string
}

var errDetectorDown = errors.New("detector down")

func (f *fakeService) NewTracker() *calibration.Tracker {
	f.mu.Lock()
	f.trackers++
	f.mu.Unlock()
	return calibration.NewTracker(calibration.DefaultReferenceSizeCm, calibration.MethodAxisAligned)
}

// ProcessCalibrationFrame treats the frame bytes as a script: "qr" is a 50px
// fiducial, "current" reports the tracker without observing, "fail" is a
// detector error and anything else is a miss.
func (f *fakeService) ProcessCalibrationFrame(ctx context.Context, sessionID string, tracker *calibration.Tracker, frame []byte) (wound.CalibrationFrameResponse, error) {
	f.mu.Lock()
	f.frames++
	f.mu.Unlock()

	var state *calibration.State
	switch string(frame) {
	case "qr":
		quad := &geometry.QuadCorners{
			TopLeft:     geometry.Point2D{X: 10, Y: 10},
			TopRight:    geometry.Point2D{X: 60, Y: 10},
			BottomRight: geometry.Point2D{X: 60, Y: 60},
			BottomLeft:  geometry.Point2D{X: 10, Y: 60},
		}
		state = tracker.Observe(quad)
		resp := wound.CalibrationFrameResponse{Detected: true, Corners: quad, Payload: sessionID}
		if state != nil {
			ppc := state.PixelsPerCm
			resp.PixelsPerCm = &ppc
		}
		return resp, nil
	case "current":
		resp := wound.CalibrationFrameResponse{Payload: "current"}
		if state = tracker.Current(); state != nil {
			ppc := state.PixelsPerCm
			resp.PixelsPerCm = &ppc
		}
		return resp, nil
	case "fail":
		tracker.Observe(nil)
		return wound.CalibrationFrameResponse{Error: errDetectorDown.Error()}, errDetectorDown
	default:
		tracker.Observe(nil)
		return wound.CalibrationFrameResponse{}, nil
	}
}

func (f *fakeService) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}

func (f *fakeService) GetSessionCalibration(ctx context.Context, sessionID string) (entity.SessionCalibration, error) {
	if sessionID != "known" {
		return entity.SessionCalibration{}, wound.ErrCalibrationNotFound
	}
	return entity.SessionCalibration{SessionID: sessionID, PixelsPerCm: 20, ObservedAt: time.Now()}, nil
}

func (f *fakeService) CaptureScan(ctx context.Context, provider entity.UserLoginData, req wound.CaptureScanRequest, image []byte) (woundService.CaptureResult, error) {
	f.captured, f.provider, f.image = req, provider, image
	area, perimeter, ppc := 0.25, 1.8, 20.0
	return woundService.CaptureResult{
		Scan: entity.WoundScan{
			ID:            "scan-1",
			PatientID:     req.PatientID,
			ProviderID:    provider.ID,
			WoundLocation: req.WoundLocation,
			PixelsPerCm:   &ppc,
			Measurement:   measurement.Measurement{AreaPixels: 100, PerimeterPixels: 36, AreaCm2: &area, PerimeterCm: &perimeter, Calibrated: true},
			CreatedAt:     time.Now(),
		},
	}, nil
}

func (f *fakeService) GetScanByID(ctx context.Context, id string, providerID string) (entity.WoundScan, error) {
	f.readerID = providerID
	switch id {
	case "scan-1":
		return entity.WoundScan{ID: id, PatientID: "pat-1", ProviderID: providerID, CreatedAt: time.Now()}, nil
	case "scan-foreign":
		return entity.WoundScan{}, wound.ErrScanNotOwned
	default:
		return entity.WoundScan{}, wound.ErrScanNotFound
	}
}

func (f *fakeService) DeleteScan(ctx context.Context, id string, providerID string) error {
	return f.deleteErr
}

func (f *fakeService) GetProgress(ctx context.Context, patientID string, query wound.ProgressQuery) (trend.Progress, error) {
	f.query = query
	return trend.Timeline(nil), nil
}

func newTestApp(t *testing.T) (*fiber.App, *fakeService) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := &fakeService{}
	h := New(logger, validator.New(), fakeMiddleware{}, svc, utils.New())

	app := fiber.New()
	h.Start(app.Group("/api/v1"))
	return app, svc
}

func multipartCapture(t *testing.T, fields map[string]string, withImage bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if withImage {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="image"; filename="wound.png"`)
		header.Set("Content-Type", "image/png")
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(part, image.NewGray(image.Rect(0, 0, 8, 8))); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return body, w.FormDataContentType()
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	if req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer test")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	return resp, body
}

func TestCaptureScan(t *testing.T) {
	app, svc := newTestApp(t)

	body, contentType := multipartCapture(t, map[string]string{
		"patient_id":     "pat-1",
		"wound_location": "left_heel",
		"session_id":     "sess-1",
	}, true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wounds/scans", body)
	req.Header.Set("Content-Type", contentType)

	resp, raw := do(t, app, req)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d body = %s", resp.StatusCode, raw)
	}
	if svc.captured.SessionID != "sess-1" || svc.provider.ID != "prov-1" || len(svc.image) == 0 {
		t.Fatalf("captured %+v by %+v", svc.captured, svc.provider)
	}

	var got wound.ScanResponse
	if err := jsoniter.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != "scan-1" || got.Measurement.AreaCm2 == nil || *got.Measurement.AreaCm2 != 0.25 {
		t.Fatalf("%+v", got)
	}
}

func TestCaptureScan_validation(t *testing.T) {
	app, _ := newTestApp(t)

	tests := []struct {
		name   string
		fields map[string]string
		image  bool
	}{
		{"missing patient", map[string]string{"wound_location": "heel"}, true},
		{"missing location", map[string]string{"patient_id": "p"}, true},
		{"missing image", map[string]string{"patient_id": "p", "wound_location": "heel"}, false},
		{"line break in patient", map[string]string{"patient_id": "p1\r\nBcc: attacker@evil.test", "wound_location": "heel"}, true},
		{"line feed in location", map[string]string{"patient_id": "p1", "wound_location": "heel\nBcc: attacker@evil.test"}, true},
		{"control char in session", map[string]string{"patient_id": "p1", "wound_location": "heel", "session_id": "s\r1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartCapture(t, tt.fields, tt.image)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/wounds/scans", body)
			req.Header.Set("Content-Type", contentType)

			resp, raw := do(t, app, req)
			if resp.StatusCode != fiber.StatusBadRequest {
				t.Fatalf("status = %d body = %s", resp.StatusCode, raw)
			}
		})
	}
}

func TestGetScanByID(t *testing.T) {
	app, svc := newTestApp(t)

	resp, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/wounds/scans/scan-1", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if svc.readerID != "prov-1" {
		t.Fatalf("reader = %q, want the token's provider", svc.readerID)
	}

	resp, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/wounds/scans/scan-foreign", nil))
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	resp, raw := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/wounds/scans/other", nil))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d body = %s", resp.StatusCode, raw)
	}
}

func TestDeleteScan(t *testing.T) {
	app, svc := newTestApp(t)

	resp, _ := do(t, app, httptest.NewRequest(http.MethodDelete, "/api/v1/wounds/scans/scan-1", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	svc.deleteErr = wound.ErrScanNotOwned
	resp, _ = do(t, app, httptest.NewRequest(http.MethodDelete, "/api/v1/wounds/scans/scan-1", nil))
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestGetProgress(t *testing.T) {
	app, svc := newTestApp(t)

	resp, raw := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/wounds/patients/pat-1/progress?location=left_heel&limit=10", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d body = %s", resp.StatusCode, raw)
	}
	if svc.query.Location != "left_heel" || svc.query.Limit != 10 {
		t.Fatalf("%+v", svc.query)
	}

	var got wound.ProgressResponse
	if err := jsoniter.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got.PatientID != "pat-1" || len(got.Recommendations) == 0 {
		t.Fatalf("%+v", got)
	}

	resp, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/wounds/patients/pat-1/progress?limit=1000", nil))
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestGetSessionCalibration(t *testing.T) {
	app, _ := newTestApp(t)

	resp, raw := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/wounds/calibration/known", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d body = %s", resp.StatusCode, raw)
	}
	resp, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/wounds/calibration/unknown", nil))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestRoutesRequireToken(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wounds/scans/scan-1", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestCalibrationWebSocket_requiresUpgrade(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/wounds/calibration/ws", nil))
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
