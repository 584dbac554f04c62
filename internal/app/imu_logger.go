package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/imu_gesture/internal/bus"
	"github.com/relabs-tech/imu_gesture/internal/config"
	"github.com/relabs-tech/imu_gesture/internal/imu"
	"github.com/relabs-tech/imu_gesture/internal/sensors"
	"github.com/relabs-tech/imu_gesture/internal/shtp"
)

// LoggerOptions controls RunIMULogger.
type LoggerOptions struct {
	Header   bool
	Duration time.Duration // 0 runs until cancelled
}

// RunIMULogger writes one CSV row per fused sample to w.
func RunIMULogger(ctx context.Context, w io.Writer, opts LoggerOptions) error {
	cfg := config.Get()
	dev, err := bus.Open(cfg)
	if err != nil {
		return fmt.Errorf("open %s bus: %w", cfg.BusType, err)
	}
	defer dev.Close()

	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}
	return logSamples(ctx, cfg, dev, w, opts.Header)
}

func logSamples(ctx context.Context, cfg *config.Config, b shtp.Bus, w io.Writer, header bool) error {
	logger := log.WithField("component", "logger")
	dev := sensors.NewBNO08x(b, cfg.MaxFrameSize)
	if err := dev.EnableReports(cfg.SampleRateHz, sensors.GestureReports...); err != nil {
		return fmt.Errorf("enable reports: %w", err)
	}

	out := csv.NewWriter(w)
	defer out.Flush()
	if header {
		if err := out.Write(imu.CSVHeader); err != nil {
			return err
		}
	}

	var fuser sensors.Fuser
	start := time.Now()
	rows := 0
	retry := newReadRetry(logger)
	for {
		select {
		case <-ctx.Done():
			logger.Infof("wrote %d rows", rows)
			return nil
		default:
		}

		events, err := dev.Next(time.Now().Add(cfg.ReadTimeoutDuration()))
		if err != nil {
			if errors.Is(err, shtp.ErrNotOpen) {
				return err
			}
			if !retry.failed(ctx, err) {
				logger.Infof("wrote %d rows", rows)
				return nil
			}
			continue
		}
		retry.ok()
		changed := false
		for _, ev := range events {
			if fuser.Update(ev) {
				changed = true
			}
		}
		if !changed {
			continue
		}
		s, ok := fuser.Sample(time.Since(start).Seconds())
		if !ok {
			continue
		}
		if err := out.Write(s.CSVRecord()); err != nil {
			return err
		}
		rows++
		if rows%100 == 0 {
			out.Flush()
		}
	}
}
