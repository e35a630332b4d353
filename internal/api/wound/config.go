package wound

import (
	"WoundMonitor/pkg/calibration"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	DefaultCalibrationTTL         = 5 * time.Second
	DefaultNotifyAreaThresholdCm2 = 5.0
	DefaultHistoryLimit           = 50
)

type Config struct {
	ReferenceSizeCm        float64
	Method                 calibration.Method
	CalibrationTTL         time.Duration
	NotifyAreaThresholdCm2 float64
	HistoryLimit           int
}

func DefaultConfig() Config {
	return Config{
		ReferenceSizeCm:        calibration.DefaultReferenceSizeCm,
		Method:                 calibration.MethodAxisAligned,
		CalibrationTTL:         DefaultCalibrationTTL,
		NotifyAreaThresholdCm2: DefaultNotifyAreaThresholdCm2,
		HistoryLimit:           DefaultHistoryLimit,
	}
}

// LoadConfig reads the CALIBRATION_* and NOTIFY_* environment variables on top
// of DefaultConfig.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	method, err := calibration.ParseMethod(os.Getenv("CALIBRATION_METHOD"))
	if err != nil {
		return Config{}, err
	}
	cfg.Method = method

	if v := os.Getenv("CALIBRATION_REFERENCE_CM"); v != "" {
		ref, err := strconv.ParseFloat(v, 64)
		if err != nil || ref <= 0 {
			return Config{}, fmt.Errorf("invalid CALIBRATION_REFERENCE_CM %q", v)
		}
		cfg.ReferenceSizeCm = ref
	}

	if v := os.Getenv("CALIBRATION_TTL_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return Config{}, fmt.Errorf("invalid CALIBRATION_TTL_SECONDS %q", v)
		}
		cfg.CalibrationTTL = time.Duration(secs) * time.Second
	}

	if v := os.Getenv("NOTIFY_AREA_THRESHOLD_CM2"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil || threshold < 0 {
			return Config{}, fmt.Errorf("invalid NOTIFY_AREA_THRESHOLD_CM2 %q", v)
		}
		cfg.NotifyAreaThresholdCm2 = threshold
	}

	return cfg, nil
}
