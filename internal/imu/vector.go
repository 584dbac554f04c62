// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import "math"

// Vec3 is a 3-vector in m/s² or rad/s depending on the reading.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(k float64) Vec3 { return Vec3{v.X * k, v.Y * k, v.Z * k} }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Norm returns the Euclidean length.
func (v Vec3) Norm() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Quat is an orientation quaternion, W being the real part.
type Quat struct {
	W float64 `json:"w"`
	I float64 `json:"i"`
	J float64 `json:"j"`
	K float64 `json:"k"`
}

// Identity is the no-rotation quaternion.
var Identity = Quat{W: 1}

// Vector returns the imaginary part.
func (q Quat) Vector() Vec3 { return Vec3{q.I, q.J, q.K} }

// Conj returns the conjugate, which is the inverse rotation for a unit quaternion.
func (q Quat) Conj() Quat { return Quat{q.W, -q.I, -q.J, -q.K} }

func (q Quat) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.I*q.I + q.J*q.J + q.K*q.K)
}

// Normalize scales q to unit length. A zero quaternion becomes Identity.
func (q Quat) Normalize() Quat {
	n := q.Norm()
	if n == 0 {
		return Identity
	}
	return Quat{q.W / n, q.I / n, q.J / n, q.K / n}
}

// Rotate applies q to v:
//
//	t  = 2 (q_vec × v)
//	v' = v + w t + q_vec × t
//
// q is expected to be a unit quaternion.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := q.Vector()
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// AxisAngle builds a unit quaternion rotating by angle radians around axis.
func AxisAngle(axis Vec3, angle float64) Quat {
	n := axis.Norm()
	if n == 0 {
		return Identity
	}
	s := math.Sin(angle/2) / n
	return Quat{W: math.Cos(angle / 2), I: axis.X * s, J: axis.Y * s, K: axis.Z * s}
}
