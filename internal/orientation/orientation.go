package orientation

import (
	"math"

	"github.com/relabs-tech/imu_gesture/internal/imu"
)

// Pose is orientation as Tait-Bryan angles in degrees.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Source produces the motion seen by a device at time t (seconds since
// start): sensor-frame acceleration, angular rate and orientation.
type Source interface {
	At(t float64) imu.Sample
}

// PoseFromQuat converts an orientation quaternion to roll/pitch/yaw
// (Z-Y-X convention). Pitch is clamped at ±90° near gimbal lock.
func PoseFromQuat(q imu.Quat) Pose {
	q = q.Normalize()

	sinr := 2 * (q.W*q.I + q.J*q.K)
	cosr := 1 - 2*(q.I*q.I+q.J*q.J)
	roll := math.Atan2(sinr, cosr)

	sinp := 2 * (q.W*q.J - q.K*q.I)
	var pitch float64
	if math.Abs(sinp) >= 1 {
		pitch = math.Copysign(math.Pi/2, sinp)
	} else {
		pitch = math.Asin(sinp)
	}

	siny := 2 * (q.W*q.K + q.I*q.J)
	cosy := 1 - 2*(q.J*q.J+q.K*q.K)
	yaw := math.Atan2(siny, cosy)

	return Pose{
		Roll:  roll * 180.0 / math.Pi,
		Pitch: pitch * 180.0 / math.Pi,
		Yaw:   yaw * 180.0 / math.Pi,
	}
}
