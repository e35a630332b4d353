package config

import (
	"WoundMonitor/database/postgres"
	"WoundMonitor/internal/api/wound"
	woundHandler "WoundMonitor/internal/api/wound/handler"
	woundRepository "WoundMonitor/internal/api/wound/repository"
	woundService "WoundMonitor/internal/api/wound/service"
	"WoundMonitor/internal/middleware"
	"WoundMonitor/pkg/redis"
	"WoundMonitor/pkg/s3"
	"WoundMonitor/pkg/smtp"
	"WoundMonitor/pkg/utils"
	websocketPkg "WoundMonitor/pkg/websocket"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"os"
)

type ServerOption func(*Server) error

type Server struct {
	engine       *fiber.App
	db           *sqlx.DB
	log          *logrus.Logger
	middleware   middleware.Middleware
	validator    *validator.Validate
	utils        utils.IUtils
	handlers     []handler
	redisServer  redis.IRedis
	smtpMailer   smtp.ItfSmtp
	visionClient websocketPkg.IWebsocket
	s3Client     s3.ItfS3
	woundConfig  wound.Config
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{woundConfig: wound.DefaultConfig()}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithSMTPMailer(smtpMailer smtp.ItfSmtp) ServerOption {
	return func(s *Server) error {
		s.smtpMailer = smtpMailer
		return nil
	}
}

func WithVisionClient(client websocketPkg.IWebsocket) ServerOption {
	return func(s *Server) error {
		s.visionClient = client
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

// WithWoundConfig reads the calibration and notification settings from the
// environment.
func WithWoundConfig() ServerOption {
	return func(s *Server) error {
		cfg, err := wound.LoadConfig()
		if err != nil {
			return fmt.Errorf("invalid wound configuration: %w", err)
		}
		s.woundConfig = cfg
		return nil
	}
}

func (s *Server) RegisterHandler() {
	woundRepo := woundRepository.New(s.db, s.log)
	woundServices := woundService.NewWoundService(s.log, s.woundConfig, woundRepo, s.visionClient, s.redisServer, s.s3Client, s.smtpMailer, s.utils)
	woundHandlers := woundHandler.New(s.log, s.validator, s.middleware, woundServices, s.utils)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, woundHandlers)
}

func (s *Server) Run() error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.LoggerConfig())
	router := s.engine.Group("/api/v1")

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

func (s *Server) Shutdown() error {
	if s.visionClient != nil {
		s.visionClient.CloseConnections()
	}
	if err := s.engine.Shutdown(); err != nil {
		return err
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
