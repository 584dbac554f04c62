// imu_logger records fused samples as CSV for offline analysis.
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
		noHeader   bool
		opts       app.LoggerOptions
	)

	cmd := &cobra.Command{
		Use:   "imu_logger",
		Short: "Write fused accelerometer and orientation samples as CSV",
		Example: `  imu_logger --duration 3s > data/up_01.csv
  BUS_TYPE=sim imu_logger --duration 10s`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.LoadConfig(configPath, cmd.Flags().Changed("config")); err != nil {
				return err
			}
			opts.Header = !noHeader
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.RunIMULogger(ctx, cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "config file (KEY=VALUE)")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "omit the CSV header row")
	cmd.Flags().DurationVarP(&opts.Duration, "duration", "d", 0, "stop after this long (0 runs until interrupted)")

	if err := fang.Execute(context.Background(), cmd); err != nil {
		os.Exit(1)
	}
}
