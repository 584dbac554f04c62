// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/relabs-tech/imu_gesture/internal/app"
	"github.com/relabs-tech/imu_gesture/internal/config"
)

func main() {
	var (
		configPath string
		local      bool
	)

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve live gestures over HTTP and websocket",
		Long: `web serves /api/gesture, /api/orientation and /api/status, streams every
record on /ws and serves static files from ./web.

By default records come from the MQTT topics gesture_producer publishes to.
With --local the pipeline runs in this process on the configured bus.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.LoadConfig(configPath, cmd.Flags().Changed("config")); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.RunWeb(ctx, local)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "config file (KEY=VALUE)")
	cmd.Flags().BoolVar(&local, "local", false, "run the pipeline in-process instead of subscribing to MQTT")

	if err := fang.Execute(context.Background(), cmd); err != nil {
		os.Exit(1)
	}
}
