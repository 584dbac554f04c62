// Package gesture classifies short acceleration bursts into one of six
// directions. Samples are rotated into a world frame with the device
// orientation, a gravity baseline is estimated once, and each burst is
// integrated into a delta-velocity whose dominant axis gives the label.
package gesture

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/imu_gesture/internal/imu"
)

var ErrInvalidConfig = errors.New("gesture: invalid config")

// retention is how many half windows of history the detector keeps.
const retention = 2.5

// Config holds the detector thresholds. Times are in seconds, magnitudes
// in m/s² except MinAxisDelta which is in m/s.
type Config struct {
	BaselineWindow     float64 `json:"baseline_window" yaml:"baseline_window"`
	HalfWindow         float64 `json:"half_window" yaml:"half_window"`
	MinDynThreshold    float64 `json:"min_dyn_threshold" yaml:"min_dyn_threshold"`
	MinPeakMagnitude   float64 `json:"min_peak_magnitude" yaml:"min_peak_magnitude"`
	MinGestureInterval float64 `json:"min_gesture_interval" yaml:"min_gesture_interval"`
	MinAxisDelta       float64 `json:"min_axis_delta" yaml:"min_axis_delta"`
}

// DefaultConfig returns the thresholds used by the command line tools.
func DefaultConfig() Config {
	return Config{
		BaselineWindow:     0.2,
		HalfWindow:         0.3,
		MinDynThreshold:    0.5,
		MinPeakMagnitude:   1.5,
		MinGestureInterval: 0.8,
		MinAxisDelta:       0.5,
	}
}

func (c Config) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"baseline window", c.BaselineWindow},
		{"half window", c.HalfWindow},
		{"min dynamic threshold", c.MinDynThreshold},
		{"min peak magnitude", c.MinPeakMagnitude},
		{"min gesture interval", c.MinGestureInterval},
		{"min axis delta", c.MinAxisDelta},
	}
	for _, f := range fields {
		if !(f.v > 0) {
			return fmt.Errorf("%w: %s must be > 0, got %v", ErrInvalidConfig, f.name, f.v)
		}
	}
	// The buffer must be able to span the baseline window or calibration
	// never completes.
	if c.BaselineWindow > retention*c.HalfWindow {
		return fmt.Errorf("%w: baseline window %v exceeds %v half windows (%v)",
			ErrInvalidConfig, c.BaselineWindow, retention, retention*c.HalfWindow)
	}
	return nil
}

// Detector is a streaming gesture classifier. It is not safe for
// concurrent use.
type Detector struct {
	cfg Config
	win window

	calibrated  bool
	baseline    imu.Vec3
	baselineEnd float64

	lastGesture float64
	pending     Result
	hasPending  bool
}

func New(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg, lastGesture: -1e9}, nil
}

func (d *Detector) Config() Config { return d.cfg }

// Calibrated reports whether the gravity baseline has been fixed.
func (d *Detector) Calibrated() bool { return d.calibrated }

// Baseline returns the world-frame gravity estimate once calibrated.
func (d *Detector) Baseline() (imu.Vec3, bool) { return d.baseline, d.calibrated }

// Buffered is the number of samples currently held.
func (d *Detector) Buffered() int { return d.win.len() }

// AddSample feeds one observation. t must not decrease between calls.
// accel is in the sensor frame and q is the orientation used to bring it
// into the world frame.
func (d *Detector) AddSample(t float64, accel imu.Vec3, q imu.Quat) {
	d.win.push(sample{t: t, accel: q.Rotate(accel), quat: q})
	d.win.evict(t, retention*d.cfg.HalfWindow)

	if !d.calibrated {
		d.calibrate()
		return
	}
	d.detect()
}

// PollResult returns the pending gesture, if any, and clears it.
func (d *Detector) PollResult() (Result, bool) {
	if !d.hasPending {
		return Result{}, false
	}
	r := d.pending
	d.pending, d.hasPending = Result{}, false
	return r, true
}

// calibrate fixes the baseline once the buffer covers the baseline window
// with at least three samples.
func (d *Detector) calibrate() {
	if d.win.len() < 3 {
		return
	}
	t0 := d.win.at(0).t
	if d.win.back().t-t0 < d.cfg.BaselineWindow {
		return
	}
	mean, n := d.win.mean(d.cfg.BaselineWindow)
	if n < 3 {
		return
	}
	d.baseline = mean
	d.baselineEnd = t0 + d.cfg.BaselineWindow
	d.calibrated = true
}

func (d *Detector) detect() {
	if d.win.len() < 3 {
		return
	}
	tNow := d.win.back().t
	if tNow-d.lastGesture < d.cfg.MinGestureInterval {
		return
	}

	ip, mag := d.win.peak(d.baseline, d.baselineEnd)
	if ip < 0 || mag < d.cfg.MinPeakMagnitude {
		return
	}

	tPeak := d.win.at(ip).t
	start, end := d.win.span(tPeak-d.cfg.HalfWindow, tPeak+d.cfg.HalfWindow)
	if end-start <= 2 {
		return
	}

	dv, duration := d.win.integrate(start, end, d.baseline, d.cfg.MinDynThreshold)
	axis, sign, size := dominant(dv)
	if size < d.cfg.MinAxisDelta {
		return
	}

	d.pending = Result{
		TCenter:  tPeak,
		Duration: duration,
		DeltaV:   dv,
		Baseline: d.baseline,
		Axis:     axis,
		Sign:     sign,
		Label:    DirectionOf(axis, sign),
	}
	d.hasPending = true
	d.lastGesture = tNow
}
