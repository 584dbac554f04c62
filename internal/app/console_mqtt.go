package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/imu_gesture/internal/config"
)

// RunConsoleMQTT prints gestures and status records published by a
// producer until ctx is cancelled.
func RunConsoleMQTT(ctx context.Context) error {
	cfg := config.Get()
	logger := log.WithField("component", "console")

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	logger.Infof("connected to MQTT broker at %s", cfg.MQTTBroker)

	if err := subscribeJSON(client, cfg.TopicGesture, logger, func(ev GestureEvent) {
		fmt.Printf("[GESTURE] %s\n", ev.Result)
	}); err != nil {
		return err
	}

	if err := subscribeJSON(client, cfg.TopicStatus, logger, func(st StatusRecord) {
		fmt.Printf("[STATUS]  up=%.0fs frames=%d samples=%d gestures=%d errors=%d calibrated=%t\n",
			st.Uptime, st.Frames, st.Samples, st.Gestures, st.Errors, st.Calibrated)
	}); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
