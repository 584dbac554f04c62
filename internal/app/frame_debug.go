package app

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/imu_gesture/internal/bus"
	"github.com/relabs-tech/imu_gesture/internal/config"
	"github.com/relabs-tech/imu_gesture/internal/sensors"
	"github.com/relabs-tech/imu_gesture/internal/sh2"
	"github.com/relabs-tech/imu_gesture/internal/shtp"
)

// FrameDebugOptions controls RunFrameDebug.
type FrameDebugOptions struct {
	Channel int  // -1 prints every channel
	Enable  bool // send the gesture Set Feature commands first
}

// RunFrameDebug prints every frame read from the bus and what decodes
// from it.
func RunFrameDebug(ctx context.Context, w io.Writer, opts FrameDebugOptions) error {
	cfg := config.Get()
	dev, err := bus.Open(cfg)
	if err != nil {
		return fmt.Errorf("open %s bus: %w", cfg.BusType, err)
	}
	defer dev.Close()
	return dumpFrames(ctx, cfg, dev, w, opts)
}

func dumpFrames(ctx context.Context, cfg *config.Config, b shtp.Bus, w io.Writer, opts FrameDebugOptions) error {
	logger := log.WithField("component", "frame_debug")
	tr := shtp.New(b, shtp.WithMaxFrameSize(cfg.MaxFrameSize))

	if opts.Enable {
		for _, id := range sensors.GestureReports {
			if err := sh2.Enable(tr, id, cfg.SampleRateHz); err != nil {
				return fmt.Errorf("enable %s: %w", id, err)
			}
		}
	}

	retry := newReadRetry(logger)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		f, ok, err := tr.ReadFrame(time.Now().Add(cfg.ReadTimeoutDuration()))
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
		if !ok || (opts.Channel >= 0 && int(f.Channel) != opts.Channel) {
			continue
		}
		writeFrame(w, f)
	}
}

func writeFrame(w io.Writer, f shtp.Frame) {
	fmt.Fprintf(w, "ch=%d(%s) seq=%d len=%d %s\n", f.Channel, f.Channel, f.Sequence, f.Len(), hex.EncodeToString(f.Payload))
	if id, ok := sh2.ParseProductID(f.Payload); ok {
		fmt.Fprintf(w, "  product id: %s\n", id)
		return
	}
	for _, ev := range sh2.DecodeAll(f.Payload) {
		fmt.Fprintf(w, "  %s\n", describeEvent(ev))
	}
}

func describeEvent(ev sh2.Event) string {
	switch e := ev.(type) {
	case sh2.Accelerometer:
		return fmt.Sprintf("%s acc=%s (%.3f, %.3f, %.3f) m/s^2", e.ID(), e.Status(), e.Accel.X, e.Accel.Y, e.Accel.Z)
	case sh2.LinearAcceleration:
		return fmt.Sprintf("%s acc=%s (%.3f, %.3f, %.3f) m/s^2", e.ID(), e.Status(), e.Accel.X, e.Accel.Y, e.Accel.Z)
	case sh2.Gyroscope:
		return fmt.Sprintf("%s acc=%s (%.3f, %.3f, %.3f) rad/s", e.ID(), e.Status(), e.Rate.X, e.Rate.Y, e.Rate.Z)
	case sh2.GameRotation:
		q := e.Quat
		return fmt.Sprintf("%s acc=%s w=%.4f i=%.4f j=%.4f k=%.4f", e.ID(), e.Status(), q.W, q.I, q.J, q.K)
	default:
		return ev.ID().String()
	}
}
