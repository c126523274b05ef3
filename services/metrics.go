package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Nappiz/tcmudah-storefront/logger"
)

// MetricsRecorder is satisfied by the CloudWatch metrics client.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
	RecordValue(ctx context.Context, metricName string, value float64, dimensions map[string]string) error
}

// recordCount ships a counter in the background so requests never wait on CloudWatch.
func recordCount(ctx context.Context, m MetricsRecorder, name string, dims map[string]string) {
	if m == nil {
		return
	}
	go func() {
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := m.RecordCount(bg, name, dims); err != nil {
			logger.Log.Warn("metric not recorded", zap.String("metric", name), zap.Error(err))
		}
	}()
}

func recordValue(ctx context.Context, m MetricsRecorder, name string, value float64, dims map[string]string) {
	if m == nil {
		return
	}
	go func() {
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := m.RecordValue(bg, name, value, dims); err != nil {
			logger.Log.Warn("metric not recorded", zap.String("metric", name), zap.Error(err))
		}
	}()
}
