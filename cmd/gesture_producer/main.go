// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// gesture_producer reads a BNO08x sensor hub, classifies hand gestures
// and publishes them to MQTT and stdout.
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

var version = "dev"

func main() {
	var (
		configPath string
		noMQTT     bool
	)

	cmd := &cobra.Command{
		Use:   "gesture_producer",
		Short: "Detect directional hand gestures from a BNO08x",
		Long: `gesture_producer enables the accelerometer and game rotation vector
reports on a BNO08x sensor hub, calibrates a gravity baseline while the
device is held still, then prints and publishes one line per detected
UP/DOWN/FORWARD/BACKWARD/RIGHT/LEFT gesture.

Set BUS_TYPE=sim to run without hardware.`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.LoadConfig(configPath, cmd.Flags().Changed("config")); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.RunGestureProducer(ctx, noMQTT)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "config file (KEY=VALUE)")
	cmd.Flags().BoolVar(&noMQTT, "no-mqtt", false, "print only, do not connect to the broker")

	cmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.LoadConfig(configPath, cmd.Flags().Changed("config")); err != nil {
				return err
			}
			return config.Get().WriteYAML(cmd.OutOrStdout())
		},
	})

	if err := fang.Execute(context.Background(), cmd); err != nil {
		os.Exit(1)
	}
}
