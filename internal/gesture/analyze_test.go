package gesture

import (
	"errors"
	"math"
	"testing"

	"github.com/relabs-tech/imu_gesture/internal/imu"
)

func recording(dir imu.Vec3, q imu.Quat) []imu.Sample {
	bursts := []burst{{start: 0.5, dir: dir}}
	var out []imu.Sample
	for i := 0; i <= 150; i++ {
		ts := float64(i) / 100
		out = append(out, imu.Sample{T: ts, Accel: q.Conj().Rotate(worldAccel(ts, bursts)), Quat: q})
	}
	return out
}

func TestAnalyze(t *testing.T) {
	q := imu.AxisAngle(imu.Vec3{Z: 1}, 1.2)
	a, err := Analyze(recording(imu.Vec3{Y: -1}, q), DefaultConfig())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if a.Label != Backward {
		t.Errorf("Label = %s, want BACKWARD", a.Label)
	}
	if a.TCenter < 0.55 || a.TCenter > 0.65 {
		t.Errorf("TCenter = %.3f, want the burst peak near 0.6", a.TCenter)
	}
	if a.Start >= a.End || a.End-a.Start > 61 {
		t.Errorf("window = [%d,%d), want at most ±0.3s around the peak", a.Start, a.End)
	}
	if a.Magnitude < 0.9 || a.Magnitude > 1.1 {
		t.Errorf("Magnitude = %.3f, want about 1.02", a.Magnitude)
	}
	if a.Peak < 7.5 {
		t.Errorf("Peak = %.3f, want about 8", a.Peak)
	}
}

func TestAnalyzeShortRecording(t *testing.T) {
	samples := recording(imu.Vec3{X: 1}, imu.Identity)[:2]
	if _, err := Analyze(samples, DefaultConfig()); !errors.Is(err, ErrTooFewSamples) {
		t.Errorf("Analyze() error = %v, want ErrTooFewSamples", err)
	}

	sparse := []imu.Sample{
		{T: 0, Accel: gravity, Quat: imu.Identity},
		{T: 1, Accel: gravity.Add(imu.Vec3{Z: 3}), Quat: imu.Identity},
		{T: 2, Accel: gravity, Quat: imu.Identity},
	}
	a, err := Analyze(sparse, DefaultConfig())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if a.Start != 0 || a.End != 3 {
		t.Errorf("window = [%d,%d), want whole recording", a.Start, a.End)
	}
	// One sample in the baseline window: the whole recording is averaged.
	if want := gravity.Z + 1; math.Abs(a.Baseline.Z-want) > 1e-9 || a.Baseline.X != 0 || a.Baseline.Y != 0 {
		t.Errorf("Baseline = %+v, want (0, 0, %.1f)", a.Baseline, want)
	}
	if a.Label != Right {
		t.Errorf("Label = %s, want RIGHT", a.Label)
	}
}
