// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"github.com/relabs-tech/imu_gesture/internal/gesture"
	"github.com/relabs-tech/imu_gesture/internal/imu"
)

// MockSource is a scripted hand: it rests for Rest seconds, then every
// Period seconds makes a single-axis burst, cycling through all six
// directions, while slowly turning about the vertical axis.
//
// Each burst is a half-sine push of Amplitude over Pulse seconds followed
// by a gentler half-sine brake of BrakeAmplitude over Brake seconds.
type MockSource struct {
	Rest           float64
	Period         float64
	Pulse          float64
	Amplitude      float64
	Brake          float64
	BrakeAmplitude float64
	YawRate        float64 // rad/s
	Gravity        imu.Vec3
}

// NewMockSource creates a mock source with values the default detector
// thresholds classify reliably.
func NewMockSource() *MockSource {
	return &MockSource{
		Rest:           1.0,
		Period:         1.5,
		Pulse:          0.2,
		Amplitude:      8,
		Brake:          0.6,
		BrakeAmplitude: 1.2,
		YawRate:        0.3,
		Gravity:        imu.Vec3{Z: 9.81},
	}
}

// Burst returns the start time and direction of the i-th burst.
func (m *MockSource) Burst(i int) (float64, gesture.Direction) {
	return m.Rest + float64(i)*m.Period, gesture.Directions[i%len(gesture.Directions)]
}

// WorldAccel is the world-frame acceleration at t, gravity included.
func (m *MockSource) WorldAccel(t float64) imu.Vec3 {
	if t < m.Rest {
		return m.Gravity
	}
	i := int((t - m.Rest) / m.Period)
	start, dir := m.Burst(i)
	phase := t - start

	var a float64
	switch {
	case phase < m.Pulse:
		a = m.Amplitude * math.Sin(math.Pi*phase/m.Pulse)
	case phase < m.Pulse+m.Brake:
		a = -m.BrakeAmplitude * math.Sin(math.Pi*(phase-m.Pulse)/m.Brake)
	}

	axis, sign := gesture.AxisOf(dir)
	if sign == gesture.Negative {
		a = -a
	}
	dyn := imu.Vec3{}
	switch axis {
	case gesture.AxisX:
		dyn.X = a
	case gesture.AxisY:
		dyn.Y = a
	default:
		dyn.Z = a
	}
	return m.Gravity.Add(dyn)
}

func (m *MockSource) At(t float64) imu.Sample {
	q := imu.AxisAngle(imu.Vec3{Z: 1}, m.YawRate*t)
	return imu.Sample{
		T:     t,
		Accel: q.Conj().Rotate(m.WorldAccel(t)),
		Gyro:  imu.Vec3{Z: m.YawRate},
		Quat:  q,
	}
}
