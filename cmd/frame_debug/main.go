// frame_debug dumps raw SHTP frames and their decoded reports.
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
		opts       app.FrameDebugOptions
	)

	cmd := &cobra.Command{
		Use:          "frame_debug",
		Short:        "Print every frame read from the sensor hub",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.LoadConfig(configPath, cmd.Flags().Changed("config")); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.RunFrameDebug(ctx, cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "config file (KEY=VALUE)")
	cmd.Flags().IntVar(&opts.Channel, "channel", -1, "only print frames on this channel (0-5)")
	cmd.Flags().BoolVar(&opts.Enable, "enable", false, "enable accelerometer and game rotation reports first")

	if err := fang.Execute(context.Background(), cmd); err != nil {
		os.Exit(1)
	}
}
