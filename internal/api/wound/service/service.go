package woundService

import (
	"WoundMonitor/internal/api/wound"
	woundRepository "WoundMonitor/internal/api/wound/repository"
	"WoundMonitor/internal/entity"
	"WoundMonitor/pkg/calibration"
	"WoundMonitor/pkg/redis"
	"WoundMonitor/pkg/s3"
	"WoundMonitor/pkg/smtp"
	"WoundMonitor/pkg/trend"
	"WoundMonitor/pkg/utils"
	websocketPkg "WoundMonitor/pkg/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IWoundService interface {
	NewTracker() *calibration.Tracker
	ProcessCalibrationFrame(ctx context.Context, sessionID string, tracker *calibration.Tracker, frame []byte) (wound.CalibrationFrameResponse, error)
	GetSessionCalibration(ctx context.Context, sessionID string) (entity.SessionCalibration, error)
	CaptureScan(ctx context.Context, provider entity.UserLoginData, req wound.CaptureScanRequest, image []byte) (CaptureResult, error)
	GetScanByID(ctx context.Context, id string, providerID string) (entity.WoundScan, error)
	DeleteScan(ctx context.Context, id string, providerID string) error
	GetProgress(ctx context.Context, patientID string, query wound.ProgressQuery) (trend.Progress, error)
}

type CaptureResult struct {
	Scan             entity.WoundScan
	ProviderNotified bool
}

type woundService struct {
	log             *logrus.Logger
	cfg             wound.Config
	woundRepository woundRepository.Repository
	vision          websocketPkg.IWebsocket
	redis           redis.IRedis
	s3              s3.ItfS3
	mailer          smtp.ItfSmtp
	utils           utils.IUtils
}

func NewWoundService(
	log *logrus.Logger,
	cfg wound.Config,
	wr woundRepository.Repository,
	vision websocketPkg.IWebsocket,
	redis redis.IRedis,
	s3 s3.ItfS3,
	mailer smtp.ItfSmtp,
	utils utils.IUtils,
) IWoundService {
	return &woundService{
		log:             log,
		cfg:             cfg,
		woundRepository: wr,
		vision:          vision,
		redis:           redis,
		s3:              s3,
		mailer:          mailer,
		utils:           utils,
	}
}

func (s *woundService) NewTracker() *calibration.Tracker {
	return calibration.NewTracker(s.cfg.ReferenceSizeCm, s.cfg.Method)
}
