package main

import (
	"WoundMonitor/internal/config"
	"WoundMonitor/pkg/log"
	"WoundMonitor/pkg/redis"
	"WoundMonitor/pkg/smtp"
	websocketPkg "WoundMonitor/pkg/websocket"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"os"
	"os/signal"
	"syscall"
)

// bootstrap loads the env files before the logger is built, since LOG_LEVEL,
// LOG_DIR and APP_ENV are read once when the logger is created.
func bootstrap(envFiles ...string) *logrus.Logger {
	envErr := godotenv.Load(envFiles...)

	logger := log.NewLogger()
	if envErr != nil {
		logger.Warnf("No .env file loaded: %v", envErr)
	}
	return logger
}

func main() {
	logger := bootstrap()

	fiberApp := config.NewFiber(logger)
	validator := config.NewValidator()
	redisServer := redis.New()
	smtpMailer := smtp.New()
	visionClient := websocketPkg.NewVisionClient(logger)

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithWoundConfig(),
		config.WithDatabase(),
		config.WithRedisServer(redisServer),
		config.WithSMTPMailer(smtpMailer),
		config.WithVisionClient(visionClient),
		config.WithMiddleware(),
		config.WithS3Client(),
		config.WithUtils(),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")
	if err := server.Shutdown(); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
