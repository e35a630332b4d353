package woundService

import (
	"WoundMonitor/internal/api/wound"
	woundRepository "WoundMonitor/internal/api/wound/repository"
	"WoundMonitor/internal/entity"
	"WoundMonitor/pkg/geometry"
	"WoundMonitor/pkg/measurement"
	"WoundMonitor/pkg/utils"
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type fakeVision struct {
	qr      *entity.QRDetectionResult
	qrErr   error
	mask    *measurement.BinaryMask
	maskErr error
	qrCalls int
}

func (f *fakeVision) DetectQR(ctx context.Context, frame []byte) (*entity.QRDetectionResult, error) {
	f.qrCalls++
	return f.qr, f.qrErr
}

func (f *fakeVision) Segment(ctx context.Context, frame []byte) (*measurement.BinaryMask, error) {
	return f.mask, f.maskErr
}

func (f *fakeVision) IsConnected(service wound.VisionService) bool { return true }
func (f *fakeVision) Reconnect(service wound.VisionService) error  { return nil }
func (f *fakeVision) CloseConnections()                             {}

type fakeRedis struct {
	mu    sync.Mutex
	store map[string]entity.SessionCalibration
	ttl   time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{store: map[string]entity.SessionCalibration{}}
}

func (f *fakeRedis) SetCalibration(ctx context.Context, cal entity.SessionCalibration, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[cal.SessionID] = cal
	f.ttl = ttl
	return nil
}

func (f *fakeRedis) GetCalibration(ctx context.Context, sessionID string) (*entity.SessionCalibration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cal, ok := f.store[sessionID]
	if !ok {
		return nil, nil
	}
	return &cal, nil
}

func (f *fakeRedis) DeleteCalibration(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.store, sessionID)
	return nil
}

type fakeS3 struct {
	uploaded  map[string][]byte
	deleted   []string
	uploadErr error
	deleteErr error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{uploaded: map[string][]byte{}}
}

func (f *fakeS3) UploadImage(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploaded[key] = body
	return "https://bucket.s3.amazonaws.com/" + key, nil
}

func (f *fakeS3) PresignUrl(fileUrl string) (string, error) {
	return fileUrl + "?signed", nil
}

func (f *fakeS3) DeleteFile(fileUrl string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, fileUrl)
	return nil
}

type sentMail struct{ to, subject, body string }

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendProviderNotification(to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, body})
	return nil
}

type fakeScanRepo struct {
	scans     map[string]entity.WoundScan
	createErr error
}

func (f *fakeScanRepo) CreateScan(ctx context.Context, scan entity.WoundScan) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.scans[scan.ID] = scan
	return nil
}

func (f *fakeScanRepo) GetScanByID(ctx context.Context, id string) (entity.WoundScan, error) {
	scan, ok := f.scans[id]
	if !ok {
		return entity.WoundScan{}, wound.ErrScanNotFound
	}
	return scan, nil
}

func (f *fakeScanRepo) GetScansByPatient(ctx context.Context, patientID string, location string, limit int) ([]entity.WoundScan, error) {
	var out []entity.WoundScan
	for _, s := range f.scans {
		if s.PatientID == patientID && (location == "" || s.WoundLocation == location) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeScanRepo) DeleteScan(ctx context.Context, id string) error {
	if _, ok := f.scans[id]; !ok {
		return wound.ErrScanNotFound
	}
	delete(f.scans, id)
	return nil
}

type fakeRepository struct {
	scan      *fakeScanRepo
	commits   int
	rollbacks int
}

func (f *fakeRepository) NewClient(tx bool) (woundRepository.Client, error) {
	return woundRepository.Client{
		Scan:     f.scan,
		Commit:   func() error { f.commits++; return nil },
		Rollback: func() error { f.rollbacks++; return nil },
	}, nil
}

type fixture struct {
	svc    IWoundService
	vision *fakeVision
	redis  *fakeRedis
	s3     *fakeS3
	mailer *fakeMailer
	repo   *fakeRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		vision: &fakeVision{},
		redis:  newFakeRedis(),
		s3:     newFakeS3(),
		mailer: &fakeMailer{},
		repo:   &fakeRepository{scan: &fakeScanRepo{scans: map[string]entity.WoundScan{}}},
	}
	f.svc = NewWoundService(logger, wound.DefaultConfig(), f.repo, f.vision, f.redis, f.s3, f.mailer, utils.New())
	return f
}

// square50 is an axis-aligned 50 px QR outline; with the 2.5 cm default it
// calibrates to 20 px/cm.
func square50() *geometry.QuadCorners {
	return &geometry.QuadCorners{
		TopLeft:     geometry.Point2D{X: 10, Y: 10},
		TopRight:    geometry.Point2D{X: 60, Y: 10},
		BottomRight: geometry.Point2D{X: 60, Y: 60},
		BottomLeft:  geometry.Point2D{X: 10, Y: 60},
	}
}

func pngFrame(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// squareMask returns a w x h mask with a filled side x side square at the
// origin.
func squareMask(t *testing.T, w, h, side int) *measurement.BinaryMask {
	t.Helper()
	values := make([]float32, w*h)
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			values[y*w+x] = 1
		}
	}
	m, err := measurement.NewBinaryMask(w, h, values)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

var errBoom = errors.New("boom")
