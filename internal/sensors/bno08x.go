// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/imu_gesture/internal/sh2"
	"github.com/relabs-tech/imu_gesture/internal/shtp"
)

var ErrNoProductID = errors.New("sensors: no product id response")

// GestureReports are the features the gesture pipeline needs.
var GestureReports = []sh2.ReportID{sh2.ReportAccelerometer, sh2.ReportGameRotationVector}

// Stats counts what came off the bus.
type Stats struct {
	Frames  uint64 `json:"frames"`
	Events  uint64 `json:"events"`
	Misses  uint64 `json:"misses"`  // sensor frames with nothing decodable
	Skipped uint64 `json:"skipped"` // frames on non-sensor channels
	Errors  uint64 `json:"errors"`
}

// BNO08x talks SH-2 to a sensor hub over an already-open bus.
type BNO08x struct {
	tr    *shtp.Transport
	stats Stats
	log   *log.Entry
}

func NewBNO08x(b shtp.Bus, maxFrame int) *BNO08x {
	return &BNO08x{
		tr:  shtp.New(b, shtp.WithMaxFrameSize(maxFrame)),
		log: log.WithField("component", "bno08x"),
	}
}

func (d *BNO08x) Transport() *shtp.Transport { return d.tr }

func (d *BNO08x) Stats() Stats { return d.stats }

// Identify asks the hub for its product id and waits up to timeout for the
// answer. Other traffic read meanwhile is discarded.
func (d *BNO08x) Identify(timeout time.Duration) (sh2.ProductID, error) {
	if err := d.tr.WriteFrame(shtp.ChannelControl, sh2.ProductIDRequest); err != nil {
		return sh2.ProductID{}, fmt.Errorf("product id request: %w", err)
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		f, ok, err := d.tr.ReadFrame(deadline)
		if err != nil {
			d.stats.Errors++
			return sh2.ProductID{}, fmt.Errorf("product id response: %w", err)
		}
		if !ok {
			break
		}
		d.stats.Frames++
		if f.Channel != shtp.ChannelControl {
			continue
		}
		if id, ok := sh2.ParseProductID(f.Payload); ok {
			d.log.Infof("bno08x: %s", id)
			return id, nil
		}
	}
	return sh2.ProductID{}, ErrNoProductID
}

// EnableReports turns on each report at hz.
func (d *BNO08x) EnableReports(hz int, ids ...sh2.ReportID) error {
	for _, id := range ids {
		if err := sh2.Enable(d.tr, id, hz); err != nil {
			return err
		}
		d.log.Debugf("bno08x: enabled %s at %d Hz", id, hz)
	}
	return nil
}

// Next reads at most one frame and returns the sensor events in it.
// A nil slice with a nil error means there was nothing to use: no data
// before the deadline, a frame on a non-sensor channel, or nothing
// decodable.
func (d *BNO08x) Next(deadline time.Time) ([]sh2.Event, error) {
	f, ok, err := d.tr.ReadFrame(deadline)
	if err != nil {
		d.stats.Errors++
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	d.stats.Frames++

	if !IsSensorChannel(f.Channel) {
		d.stats.Skipped++
		return nil, nil
	}
	events := sh2.DecodeAll(f.Payload)
	if len(events) == 0 {
		d.stats.Misses++
		return nil, nil
	}
	d.stats.Events += uint64(len(events))
	return events, nil
}

// IsSensorChannel reports whether reports may arrive on ch. The hub uses
// the control channel and the three report channels for sensor data.
func IsSensorChannel(ch shtp.Channel) bool {
	return ch >= shtp.ChannelControl && ch <= shtp.ChannelGyroRotation
}
