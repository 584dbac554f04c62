// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/imu_gesture/internal/bus"
	"github.com/relabs-tech/imu_gesture/internal/config"
	"github.com/relabs-tech/imu_gesture/internal/sensors"
	"github.com/relabs-tech/imu_gesture/internal/shtp"
)

const identifyTimeout = 500 * time.Millisecond

// RunGestureProducer reads the configured bus, detects gestures and
// publishes them to MQTT and stdout until ctx is cancelled.
func RunGestureProducer(ctx context.Context, noMQTT bool) error {
	cfg := config.Get()
	logger := log.WithField("component", "producer")
	logger.Infof("starting gesture producer on %s bus", cfg.BusType)

	dev, err := bus.Open(cfg)
	if err != nil {
		return fmt.Errorf("open %s bus: %w", cfg.BusType, err)
	}
	defer dev.Close()

	var pub fanout
	pub = append(pub, newWriterPublisher(os.Stdout, cfg.OutputFormat))
	if noMQTT || cfg.MQTTBroker == "" {
		logger.Info("MQTT disabled, printing only")
	} else {
		client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		logger.Infof("connected to MQTT at %s", cfg.MQTTBroker)
		pub = append(pub, &mqttPublisher{client: client, cfg: cfg})
	}

	return runPipeline(ctx, cfg, dev, pub)
}

// runPipeline brings the hub up and loops until ctx is done or the bus
// goes away. Other read errors are logged and retried with backoff.
func runPipeline(ctx context.Context, cfg *config.Config, b shtp.Bus, pub Publisher) error {
	logger := log.WithField("component", "pipeline")
	dev := sensors.NewBNO08x(b, cfg.MaxFrameSize)

	p, err := NewPipeline(dev, cfg.Gesture)
	if err != nil {
		return err
	}

	if id, err := dev.Identify(identifyTimeout); err != nil {
		logger.Warnf("identify: %v", err)
	} else {
		p.SetProduct(id)
	}

	if err := dev.EnableReports(cfg.SampleRateHz, sensors.GestureReports...); err != nil {
		return fmt.Errorf("enable reports: %w", err)
	}
	logger.Infof("reports enabled at %d Hz, calibrating for %.1fs", cfg.SampleRateHz, cfg.Gesture.BaselineWindow)

	sampleEvery := time.Duration(cfg.SamplePublishInterval) * time.Millisecond
	statusEvery := time.Duration(cfg.StatusInterval) * time.Millisecond
	var lastSample, lastStatus time.Time
	calibrated := false
	retry := newReadRetry(logger)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		st, err := p.Step(time.Now().Add(cfg.ReadTimeoutDuration()))
		if err != nil {
			if errors.Is(err, shtp.ErrNotOpen) {
				return err
			}
			if !retry.failed(ctx, err) {
				return nil
			}
			continue
		}
		retry.ok()

		now := time.Now()
		if st.HaveSample {
			if !calibrated && p.det.Calibrated() {
				calibrated = true
				base, _ := p.det.Baseline()
				logger.Infof("calibrated, baseline=(%.3f,%.3f,%.3f)", base.X, base.Y, base.Z)
			}
			if sampleEvery > 0 && now.Sub(lastSample) >= sampleEvery {
				lastSample = now
				if err := pub.PublishSample(NewSampleRecord(st.Sample)); err != nil {
					logger.Warnf("publish sample: %v", err)
				}
			}
		}
		if st.HaveGesture {
			if err := pub.PublishGesture(NewGestureEvent(st.Gesture, now)); err != nil {
				logger.Warnf("publish gesture: %v", err)
			}
		}
		if statusEvery > 0 && now.Sub(lastStatus) >= statusEvery {
			lastStatus = now
			if err := pub.PublishStatus(p.Status()); err != nil {
				logger.Warnf("publish status: %v", err)
			}
		}
	}
}
