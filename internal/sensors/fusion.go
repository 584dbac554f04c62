package sensors

import (
	"github.com/relabs-tech/imu_gesture/internal/imu"
	"github.com/relabs-tech/imu_gesture/internal/sh2"
)

// Fuser merges the report streams into samples by keeping the last known
// value of each. A sample exists once both acceleration and orientation
// have been seen.
type Fuser struct {
	accel     imu.Vec3
	gyro      imu.Vec3
	quat      imu.Quat
	haveAccel bool
	haveQuat  bool
}

// Update records ev. It reports whether ev changed a fused value.
func (f *Fuser) Update(ev sh2.Event) bool {
	switch e := ev.(type) {
	case sh2.Accelerometer:
		f.accel, f.haveAccel = e.Accel, true
	case sh2.GameRotation:
		f.quat, f.haveQuat = e.Quat, true
	case sh2.Gyroscope:
		f.gyro = e.Rate
	default:
		return false
	}
	return true
}

func (f *Fuser) Ready() bool { return f.haveAccel && f.haveQuat }

// Sample returns the fused state stamped with t.
func (f *Fuser) Sample(t float64) (imu.Sample, bool) {
	if !f.Ready() {
		return imu.Sample{}, false
	}
	return imu.Sample{T: t, Accel: f.accel, Gyro: f.gyro, Quat: f.quat}, true
}
