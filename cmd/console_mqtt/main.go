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
	var configPath string

	cmd := &cobra.Command{
		Use:          "console_mqtt",
		Short:        "Print gestures and status published by gesture_producer",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.LoadConfig(configPath, cmd.Flags().Changed("config")); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.RunConsoleMQTT(ctx)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "config file (KEY=VALUE)")

	if err := fang.Execute(context.Background(), cmd); err != nil {
		os.Exit(1)
	}
}
