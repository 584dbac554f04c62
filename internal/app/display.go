// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/imu_gesture/internal/config"
	"github.com/relabs-tech/imu_gesture/internal/gesture"
	"github.com/relabs-tech/imu_gesture/internal/orientation"
)

const (
	displayWidth  = 128
	displayHeight = 64
	lineHeight    = 14
)

// displayData holds the latest data for the screen.
type displayData struct {
	mu      sync.RWMutex
	gesture *GestureEvent
	pose    *orientation.Pose
	count   int
}

// RunDisplay shows the last gesture and the current orientation on an
// SSD1306 OLED until ctx is cancelled.
func RunDisplay(ctx context.Context) error {
	cfg := config.Get()
	logger := log.WithField("component", "display")

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	logger.Infof("display initialized: %s", dev)

	if err := dev.Draw(dev.Bounds(), renderLines("IMU gesture", "Waiting..."), image.Point{}); err != nil {
		logger.Warnf("splash: %v", err)
	}

	data := &displayData{}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeJSON(client, cfg.TopicGesture, logger, func(ev GestureEvent) {
		data.mu.Lock()
		data.gesture = &ev
		data.count++
		data.mu.Unlock()
	}); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.TopicSample, logger, func(rec SampleRecord) {
		data.mu.Lock()
		data.pose = &rec.Pose
		data.mu.Unlock()
	}); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			data.mu.RLock()
			img := renderGesture(data.gesture, data.pose, data.count)
			data.mu.RUnlock()
			if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
				logger.Warnf("draw: %v", err)
			}
		}
	}
}

// renderGesture lays out the screen: label, delta-v, pose.
func renderGesture(ev *GestureEvent, pose *orientation.Pose, count int) *image1bit.VerticalLSB {
	lines := []string{"Gesture", "Waiting..."}
	if ev != nil {
		lines = []string{
			fmt.Sprintf("%-8s #%d", ev.Label, count),
			fmt.Sprintf("dv %+.2f m/s", axisDelta(ev.Result)),
		}
	}
	if pose != nil {
		lines = append(lines,
			fmt.Sprintf("R%6.1f P%6.1f", pose.Roll, pose.Pitch),
			fmt.Sprintf("Y%6.1f", pose.Yaw),
		)
	}
	return renderLines(lines...)
}

// axisDelta is the velocity change along the winning axis.
func axisDelta(r gesture.Result) float64 {
	switch r.Axis {
	case gesture.AxisX:
		return r.DeltaV.X
	case gesture.AxisY:
		return r.DeltaV.Y
	default:
		return r.DeltaV.Z
	}
}

func renderLines(lines ...string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, 12+i*lineHeight)
		drawer.DrawString(line)
	}
	return img
}
