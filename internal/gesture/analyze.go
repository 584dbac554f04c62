package gesture

import (
	"errors"
	"math"

	"github.com/relabs-tech/imu_gesture/internal/imu"
)

var ErrTooFewSamples = errors.New("gesture: need at least 3 samples")

// Analysis is the outcome of classifying a whole recording at once.
type Analysis struct {
	Result
	Start, End int     // window sample range, end exclusive
	Peak       float64 // largest |a - baseline|, m/s²
	Magnitude  float64 // |dv| along the dominant axis, m/s
}

// Analyze classifies a recording holding a single gesture. The baseline is
// the mean over the first BaselineWindow seconds and the window is centered
// on the global peak. Either one widens to the whole recording if it would
// hold fewer than three samples. No peak or magnitude gate is applied; callers
// compare Magnitude themselves.
func Analyze(samples []imu.Sample, cfg Config) (Analysis, error) {
	if err := cfg.Validate(); err != nil {
		return Analysis{}, err
	}
	if len(samples) < 3 {
		return Analysis{}, ErrTooFewSamples
	}

	var w window
	for _, s := range samples {
		w.push(sample{t: s.T, accel: s.Quat.Rotate(s.Accel), quat: s.Quat})
	}

	baseline, n := w.mean(cfg.BaselineWindow)
	if n < 3 {
		baseline, _ = w.mean(math.Inf(1))
	}

	ip, peak := w.peak(baseline, w.at(0).t)
	tPeak := w.at(ip).t
	start, end := w.span(tPeak-cfg.HalfWindow, tPeak+cfg.HalfWindow)
	if end-start < 3 {
		start, end = 0, w.len()
	}

	dv, duration := w.integrate(start, end, baseline, cfg.MinDynThreshold)
	axis, sign, size := dominant(dv)
	return Analysis{
		Result: Result{
			TCenter:  tPeak,
			Duration: duration,
			DeltaV:   dv,
			Baseline: baseline,
			Axis:     axis,
			Sign:     sign,
			Label:    DirectionOf(axis, sign),
		},
		Start:     start,
		End:       end,
		Peak:      peak,
		Magnitude: size,
	}, nil
}
