package log

import (
	contextPkg "WoundMonitor/pkg/context"
	"context"
	"fmt"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

const (
	RequestIDKey  = "request_id"
	ProviderIDKey = "provider_id"
)

type Fields = logrus.Fields

// NewLogger returns the process-wide logger. LOG_LEVEL picks the level
// (default debug) and LOG_DIR the rotated file location; APP_ENV=test logs to
// stderr only.
func NewLogger() *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()
		logger.SetLevel(levelFromEnv(os.Getenv("LOG_LEVEL")))

		logger.SetFormatter(&formatter.Formatter{
			NoColors:        os.Getenv("LOG_NO_COLOR") != "",
			TimestampFormat: "02 Jan 06 - 15:04:05",
			HideKeys:        false,
			CallerFirst:     true,
			CustomCallerFormatter: func(f *runtime.Frame) string {
				s := strings.Split(f.Function, ".")
				funcName := s[len(s)-1]
				return fmt.Sprintf(" \x1b[%dm[%s:%d][%s()]", 34, path.Base(f.File), f.Line, funcName)
			},
		})

		writers := []io.Writer{os.Stderr}
		if os.Getenv("APP_ENV") != "test" {
			writers = append(writers, fileWriter(os.Getenv("LOG_DIR")))
		}

		logger.SetOutput(io.MultiWriter(writers...))
		logger.SetReportCaller(true)
	})

	return logger
}

func fileWriter(dir string) io.Writer {
	if dir == "" {
		dir = "./storage/logs"
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, fmt.Sprintf("wound-monitor-%s.log", time.Now().Format("2006-01-02"))),
		LocalTime:  true,
		Compress:   true,
		MaxSize:    100,
		MaxAge:     14,
		MaxBackups: 5,
	}
}

func levelFromEnv(v string) logrus.Level {
	if v == "" {
		return logrus.DebugLevel
	}
	level, err := logrus.ParseLevel(v)
	if err != nil {
		return logrus.DebugLevel
	}
	return level
}

// WithRequestID tags an entry with the request id carried by ctx and, when
// the work is done for an authenticated provider, that provider's id.
func WithRequestID(ctx context.Context, l *logrus.Logger) *logrus.Entry {
	if ctx == nil {
		return l.WithField(RequestIDKey, "unknown")
	}

	fields := Fields{RequestIDKey: contextPkg.GetRequestID(ctx)}
	if providerID := contextPkg.GetProviderID(ctx); providerID != "" {
		fields[ProviderIDKey] = providerID
	}
	return l.WithFields(fields)
}
