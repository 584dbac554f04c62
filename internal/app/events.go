// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/imu_gesture/internal/gesture"
	"github.com/relabs-tech/imu_gesture/internal/imu"
	"github.com/relabs-tech/imu_gesture/internal/orientation"
	"github.com/relabs-tech/imu_gesture/internal/sensors"
	"github.com/relabs-tech/imu_gesture/internal/sh2"
)

// GestureEvent is a detected gesture as published on TOPIC_GESTURE and
// printed in json output mode.
type GestureEvent struct {
	ID   string `json:"id"`
	Time string `json:"time"`
	gesture.Result
}

func NewGestureEvent(r gesture.Result, now time.Time) GestureEvent {
	return GestureEvent{
		ID:     uuid.NewString(),
		Time:   now.UTC().Format(time.RFC3339Nano),
		Result: r,
	}
}

// SampleRecord is a fused sample with its orientation, published on
// TOPIC_SAMPLE for live views.
type SampleRecord struct {
	imu.Sample
	Pose orientation.Pose `json:"pose"`
}

func NewSampleRecord(s imu.Sample) SampleRecord {
	return SampleRecord{Sample: s, Pose: orientation.PoseFromQuat(s.Quat)}
}

// StatusRecord summarizes the pipeline, published on TOPIC_STATUS.
type StatusRecord struct {
	sensors.Stats
	Time       string         `json:"time"`
	Uptime     float64        `json:"uptime"`
	Samples    uint64         `json:"samples"`
	Gestures   uint64         `json:"gestures"`
	Calibrated bool           `json:"calibrated"`
	Baseline   *imu.Vec3      `json:"baseline,omitempty"`
	Product    *sh2.ProductID `json:"product,omitempty"`
}
