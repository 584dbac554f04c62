// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sh2 decodes SH-2 sensor reports carried in SHTP payloads and
// builds the commands that turn those reports on.
package sh2

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/relabs-tech/imu_gesture/internal/imu"
)

// ReportID is the first byte of every SH-2 record.
type ReportID uint8

const (
	ReportAccelerometer       ReportID = 0x01
	ReportGyroscopeCalibrated ReportID = 0x02
	ReportLinearAcceleration  ReportID = 0x04
	ReportGameRotationVector  ReportID = 0x08
	ReportProductIDResponse   ReportID = 0xF8
	ReportProductIDRequest    ReportID = 0xF9
	ReportTimestampRebase     ReportID = 0xFA
	ReportBaseTimestamp       ReportID = 0xFB
	ReportGetFeatureResponse  ReportID = 0xFC
	ReportSetFeatureCommand   ReportID = 0xFD
	ReportGetFeatureRequest   ReportID = 0xFE
)

func (id ReportID) String() string {
	switch id {
	case ReportAccelerometer:
		return "accelerometer"
	case ReportGyroscopeCalibrated:
		return "gyroscope"
	case ReportLinearAcceleration:
		return "linear-acceleration"
	case ReportGameRotationVector:
		return "game-rotation-vector"
	case ReportProductIDResponse:
		return "product-id-response"
	case ReportBaseTimestamp:
		return "base-timestamp"
	case ReportTimestampRebase:
		return "timestamp-rebase"
	case ReportGetFeatureResponse:
		return "get-feature-response"
	default:
		return fmt.Sprintf("report(0x%02X)", uint8(id))
	}
}

// Accuracy is the status estimate carried in the low two bits of byte 2.
type Accuracy uint8

const (
	AccuracyUnreliable Accuracy = iota
	AccuracyLow
	AccuracyMedium
	AccuracyHigh
)

func (a Accuracy) String() string {
	switch a {
	case AccuracyUnreliable:
		return "unreliable"
	case AccuracyLow:
		return "low"
	case AccuracyMedium:
		return "medium"
	case AccuracyHigh:
		return "high"
	default:
		return fmt.Sprintf("accuracy(%d)", uint8(a))
	}
}

// Q-point scales.
const (
	scaleQ8  = 1.0 / 256
	scaleQ9  = 1.0 / 512
	scaleQ14 = 1.0 / 16384
)

// Event is one decoded sensor report. The concrete type is one of
// Accelerometer, LinearAcceleration, Gyroscope or GameRotation.
type Event interface {
	ID() ReportID
	Status() Accuracy
	sensorEvent()
}

// Accelerometer is total acceleration (gravity included) in m/s².
type Accelerometer struct {
	Accuracy Accuracy
	Accel    imu.Vec3
}

// LinearAcceleration is acceleration with gravity removed, in m/s².
type LinearAcceleration struct {
	Accuracy Accuracy
	Accel    imu.Vec3
}

// Gyroscope is calibrated angular rate in rad/s.
type Gyroscope struct {
	Accuracy Accuracy
	Rate     imu.Vec3
}

// GameRotation is the game rotation vector, a unit quaternion not
// referenced to magnetic north.
type GameRotation struct {
	Accuracy Accuracy
	Quat     imu.Quat
}

func (Accelerometer) ID() ReportID      { return ReportAccelerometer }
func (LinearAcceleration) ID() ReportID { return ReportLinearAcceleration }
func (Gyroscope) ID() ReportID          { return ReportGyroscopeCalibrated }
func (GameRotation) ID() ReportID       { return ReportGameRotationVector }

func (e Accelerometer) Status() Accuracy      { return e.Accuracy }
func (e LinearAcceleration) Status() Accuracy { return e.Accuracy }
func (e Gyroscope) Status() Accuracy          { return e.Accuracy }
func (e GameRotation) Status() Accuracy       { return e.Accuracy }

func (Accelerometer) sensorEvent()      {}
func (LinearAcceleration) sensorEvent() {}
func (Gyroscope) sensorEvent()          {}
func (GameRotation) sensorEvent()       {}

const (
	reportHeaderLen = 4
	timestampLen    = 5
)

// ReportLength is the size of a sensor report with the given id, or 0 if
// the id is not a report this package understands.
func ReportLength(id ReportID) int {
	switch id {
	case ReportAccelerometer, ReportLinearAcceleration, ReportGyroscopeCalibrated:
		return 10
	case ReportGameRotationVector:
		return 12
	default:
		return 0
	}
}

// Decode interprets payload as a single sensor report starting at byte 0.
// ok is false for unknown ids and for payloads shorter than the report.
func Decode(payload []byte) (ev Event, ok bool) {
	if len(payload) < reportHeaderLen {
		return nil, false
	}
	id := ReportID(payload[0])
	need := ReportLength(id)
	if need == 0 || len(payload) < need {
		return nil, false
	}
	acc := Accuracy(payload[2] & 0x03)

	switch id {
	case ReportAccelerometer:
		return Accelerometer{Accuracy: acc, Accel: vec3(payload, scaleQ8)}, true
	case ReportLinearAcceleration:
		return LinearAcceleration{Accuracy: acc, Accel: vec3(payload, scaleQ8)}, true
	case ReportGyroscopeCalibrated:
		return Gyroscope{Accuracy: acc, Rate: vec3(payload, scaleQ9)}, true
	case ReportGameRotationVector:
		return GameRotation{Accuracy: acc, Quat: imu.Quat{
			I: fixed(payload, 4, scaleQ14),
			J: fixed(payload, 6, scaleQ14),
			K: fixed(payload, 8, scaleQ14),
			W: fixed(payload, 10, scaleQ14),
		}}, true
	}
	return nil, false
}

// DecodeAll decodes every report in a sensor channel payload. Timestamp
// records (base timestamp, rebase) are skipped; decoding stops at the first
// id it cannot size.
func DecodeAll(payload []byte) []Event {
	var events []Event
	p := payload
	for len(p) > 0 {
		id := ReportID(p[0])
		if id == ReportBaseTimestamp || id == ReportTimestampRebase {
			if len(p) < timestampLen {
				break
			}
			p = p[timestampLen:]
			continue
		}
		n := ReportLength(id)
		if n == 0 || len(p) < n {
			break
		}
		if ev, ok := Decode(p[:n]); ok {
			events = append(events, ev)
		}
		p = p[n:]
	}
	return events
}

// EncodeReport is the inverse of Decode, used to synthesize device traffic.
// Values outside the Q-point range saturate.
func EncodeReport(ev Event, seq uint8) ([]byte, error) {
	buf := make([]byte, ReportLength(ev.ID()))
	if len(buf) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReport, ev.ID())
	}
	buf[0] = byte(ev.ID())
	buf[1] = seq
	buf[2] = byte(ev.Status() & 0x03)

	switch e := ev.(type) {
	case Accelerometer:
		putVec3(buf, e.Accel, scaleQ8)
	case LinearAcceleration:
		putVec3(buf, e.Accel, scaleQ8)
	case Gyroscope:
		putVec3(buf, e.Rate, scaleQ9)
	case GameRotation:
		putFixed(buf, 4, e.Quat.I, scaleQ14)
		putFixed(buf, 6, e.Quat.J, scaleQ14)
		putFixed(buf, 8, e.Quat.K, scaleQ14)
		putFixed(buf, 10, e.Quat.W, scaleQ14)
	}
	return buf, nil
}

func fixed(b []byte, off int, scale float64) float64 {
	return float64(int16(binary.LittleEndian.Uint16(b[off:]))) * scale
}

func vec3(b []byte, scale float64) imu.Vec3 {
	return imu.Vec3{X: fixed(b, 4, scale), Y: fixed(b, 6, scale), Z: fixed(b, 8, scale)}
}

func putFixed(b []byte, off int, v, scale float64) {
	raw := math.Round(v / scale)
	raw = math.Max(math.MinInt16, math.Min(math.MaxInt16, raw))
	binary.LittleEndian.PutUint16(b[off:], uint16(int16(raw)))
}

func putVec3(b []byte, v imu.Vec3, scale float64) {
	putFixed(b, 4, v.X, scale)
	putFixed(b, 6, v.Y, scale)
	putFixed(b, 8, v.Z, scale)
}
