// gesture_offline classifies gestures in CSV logs written by imu_logger.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/relabs-tech/imu_gesture/internal/app"
	"github.com/relabs-tech/imu_gesture/internal/config"
)

func main() {
	var (
		configPath string
		stream     bool
	)

	cmd := &cobra.Command{
		Use:   "gesture_offline FILE...",
		Short: "Classify the gesture recorded in each CSV file",
		Long: `gesture_offline classifies the single gesture in each recording. When the
file name names a direction (up_01.csv, left-3.csv, back.csv) the result is
checked against it and reported as OK or MISMATCH.

Detector thresholds come from the GESTURE_* config keys.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.LoadConfig(configPath, cmd.Flags().Changed("config")); err != nil {
				return err
			}
			return app.RunOffline(args, config.Get().Gesture, stream, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "config file (KEY=VALUE)")
	cmd.Flags().BoolVar(&stream, "stream", false, "also replay each file through the live detector")

	if err := fang.Execute(context.Background(), cmd); err != nil {
		os.Exit(1)
	}
}
