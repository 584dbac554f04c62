// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/imu_gesture/internal/bus"
	"github.com/relabs-tech/imu_gesture/internal/config"
	"github.com/relabs-tech/imu_gesture/internal/orientation"
)

// RunMockConsole runs the full pipeline against the simulated hub and
// prints detected gestures. No hardware or broker is needed.
func RunMockConsole(ctx context.Context) error {
	cfg := *config.Get()
	cfg.StatusInterval = 0

	sim := bus.NewSim(orientation.NewMockSource())
	defer sim.Close()

	log.WithField("component", "console").Info("simulated hub: one burst per period, cycling UP DOWN FORWARD BACKWARD RIGHT LEFT")
	return runPipeline(ctx, &cfg, sim, newWriterPublisher(os.Stdout, cfg.OutputFormat))
}
