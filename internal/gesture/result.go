// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gesture

import (
	"fmt"
	"math"

	"github.com/relabs-tech/imu_gesture/internal/imu"
)

type Axis string

const (
	AxisX Axis = "X"
	AxisY Axis = "Y"
	AxisZ Axis = "Z"
)

type Sign string

const (
	Positive Sign = "+"
	Negative Sign = "-"
)

// Direction is the label of a classified burst. The mapping from world axes
// is fixed by how the sensor is mounted on the hand.
type Direction string

const (
	Up       Direction = "UP"
	Down     Direction = "DOWN"
	Forward  Direction = "FORWARD"
	Backward Direction = "BACKWARD"
	Right    Direction = "RIGHT"
	Left     Direction = "LEFT"
)

// Directions lists every label in axis order.
var Directions = []Direction{Up, Down, Forward, Backward, Right, Left}

// DirectionOf maps a dominant axis and sign to a label.
func DirectionOf(axis Axis, sign Sign) Direction {
	pos := sign == Positive
	switch axis {
	case AxisX:
		if pos {
			return Up
		}
		return Down
	case AxisY:
		if pos {
			return Forward
		}
		return Backward
	default:
		if pos {
			return Right
		}
		return Left
	}
}

// AxisOf is the inverse of DirectionOf.
func AxisOf(d Direction) (Axis, Sign) {
	switch d {
	case Up:
		return AxisX, Positive
	case Down:
		return AxisX, Negative
	case Forward:
		return AxisY, Positive
	case Backward:
		return AxisY, Negative
	case Right:
		return AxisZ, Positive
	default:
		return AxisZ, Negative
	}
}

// dominant picks the axis with the largest |dv| component. Ties go to X,
// then Y. The sign is positive when that component is >= 0.
func dominant(dv imu.Vec3) (Axis, Sign, float64) {
	ax, ay, az := math.Abs(dv.X), math.Abs(dv.Y), math.Abs(dv.Z)
	axis, val := AxisZ, dv.Z
	switch {
	case ax >= ay && ax >= az:
		axis, val = AxisX, dv.X
	case ay >= ax && ay >= az:
		axis, val = AxisY, dv.Y
	}
	sign := Positive
	if val < 0 {
		sign = Negative
	}
	return axis, sign, math.Abs(val)
}

// Result is one classified gesture.
type Result struct {
	TCenter  float64   `json:"t_center"` // timestamp of the peak, s
	Duration float64   `json:"duration"` // s
	DeltaV   imu.Vec3  `json:"delta_v"`  // world frame, m/s
	Baseline imu.Vec3  `json:"baseline"` // world frame gravity estimate, m/s²
	Axis     Axis      `json:"axis"`
	Sign     Sign      `json:"sign"`
	Label    Direction `json:"label"`
}

// String renders the one-line form printed by the command line tools.
func (r Result) String() string {
	return fmt.Sprintf("t=%.3f dir=%s axis=%s%s dv=(%.3f,%.3f,%.3f) dur=%.3f",
		r.TCenter, r.Label, r.Axis, r.Sign,
		r.DeltaV.X, r.DeltaV.Y, r.DeltaV.Z, r.Duration)
}
