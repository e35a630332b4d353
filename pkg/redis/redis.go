package redis

import (
	"WoundMonitor/internal/entity"
	"context"
	"errors"
	"fmt"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"os"
	"strconv"
	"time"
)

const calibrationKeyPrefix = "calibration:"

type IRedis interface {
	SetCalibration(ctx context.Context, calibration entity.SessionCalibration, expiration time.Duration) error
	GetCalibration(ctx context.Context, sessionID string) (*entity.SessionCalibration, error)
	DeleteCalibration(ctx context.Context, sessionID string) error
}

type redisClient struct {
	client *redis.Client
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client}
}

func calibrationKey(sessionID string) string {
	return calibrationKeyPrefix + sessionID
}

func (r *redisClient) SetCalibration(ctx context.Context, calibration entity.SessionCalibration, expiration time.Duration) error {
	key := calibrationKey(calibration.SessionID)

	payload, err := jsoniter.Marshal(calibration)
	if err != nil {
		return fmt.Errorf("encode calibration: %w", err)
	}

	if err := r.client.Set(ctx, key, payload, expiration).Err(); err != nil {
		logrus.Error(fmt.Sprintf("Error setting calibration for key %s: %v", key, err))
		return err
	}
	return nil
}

// GetCalibration returns nil without error when the session has no current
// calibration.
func (r *redisClient) GetCalibration(ctx context.Context, sessionID string) (*entity.SessionCalibration, error) {
	key := calibrationKey(sessionID)

	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		logrus.Debug(fmt.Sprintf("Calibration not found for key %s", key))
		return nil, nil
	} else if err != nil {
		logrus.Error(fmt.Sprintf("Error getting calibration for key %s: %v", key, err))
		return nil, err
	}

	var calibration entity.SessionCalibration
	if err := jsoniter.Unmarshal(val, &calibration); err != nil {
		return nil, fmt.Errorf("decode calibration %s: %w", key, err)
	}
	return &calibration, nil
}

func (r *redisClient) DeleteCalibration(ctx context.Context, sessionID string) error {
	key := calibrationKey(sessionID)

	result, err := r.client.Del(ctx, key).Result()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error deleting calibration for key %s: %v", key, err))
		return err
	}

	if result == 0 {
		logrus.Debug(fmt.Sprintf("Calibration key %s not found for deletion", key))
	}
	return nil
}
