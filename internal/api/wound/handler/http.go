package woundHandler

import (
	woundService "WoundMonitor/internal/api/wound/service"
	"WoundMonitor/internal/middleware"
	"WoundMonitor/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type WoundHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	woundService woundService.IWoundService
	utils        utils.IUtils
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	ws woundService.IWoundService,
	utils utils.IUtils,
) *WoundHandler {
	return &WoundHandler{
		log:          log,
		validator:    validate,
		middleware:   middleware,
		woundService: ws,
		utils:        utils,
	}
}

func (h *WoundHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	wounds := srv.Group("/wounds", h.middleware.NewRateLimiter, h.middleware.NewTokenMiddleware)

	wounds.Use("/calibration/ws", wsMiddleware)
	wounds.Get("/calibration/ws", websocket.New(h.handleCalibrationWebSocket))
	wounds.Get("/calibration/:sessionID", h.GetSessionCalibration)

	wounds.Post("/scans", h.CaptureScan)
	wounds.Get("/scans/:id", h.GetScanByID)
	wounds.Delete("/scans/:id", h.DeleteScan)

	wounds.Get("/patients/:patientID/progress", h.GetProgress)
}
