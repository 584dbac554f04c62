// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bus

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/imu_gesture/internal/shtp"
)

// DefaultI2CAddr is the BNO08x address with SA0 pulled high.
const DefaultI2CAddr = 0x4A

var hostOnce sync.Once
var hostErr error

// initHost runs periph's driver registration once per process.
func initHost() error {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	return hostErr
}

// I2C exposes an SHTP device on an I2C bus as a byte stream.
//
// The hub answers every read transaction starting with a frame header, so
// a frame is fetched in two transactions: one for the header to learn its
// length and one for the whole frame. The bytes are then handed out to
// Read callers until used up.
type I2C struct {
	bus     i2c.BusCloser
	dev     *i2c.Dev
	pending []byte
	maxRead int
	poll    time.Duration
}

// OpenI2C opens the named bus ("" for the first one) and addresses the
// device at addr. Frames longer than maxRead are not fetched; only their
// header is passed on, for the transport to reject.
func OpenI2C(name string, addr uint16, maxRead int) (*I2C, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open I2C bus %q: %w", name, err)
	}
	if maxRead < shtp.HeaderSize {
		maxRead = shtp.DefaultMaxFrameSize
	}
	return &I2C{
		bus:     b,
		dev:     &i2c.Dev{Bus: b, Addr: addr},
		maxRead: maxRead,
		poll:    2 * time.Millisecond,
	}, nil
}

func (d *I2C) String() string {
	if d.dev == nil {
		return "i2c(closed)"
	}
	return fmt.Sprintf("i2c(%s@0x%02X)", d.bus, d.dev.Addr)
}

func (d *I2C) Read(p []byte, deadline time.Time) (int, error) {
	if d.dev == nil {
		return 0, shtp.ErrNotOpen
	}
	for len(d.pending) == 0 {
		got, err := d.fetch()
		if err != nil {
			return 0, err
		}
		if got {
			break
		}
		if !time.Now().Add(d.poll).Before(deadline) {
			return 0, nil
		}
		time.Sleep(d.poll)
	}
	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

// fetch pulls the next frame off the device. It reports false when the
// hub has nothing queued.
func (d *I2C) fetch() (bool, error) {
	var hdr [shtp.HeaderSize]byte
	if err := d.dev.Tx(nil, hdr[:]); err != nil {
		return false, fmt.Errorf("i2c read header: %w", err)
	}
	h, err := shtp.DecodeHeader(hdr[:])
	if err != nil {
		return false, err
	}
	if h.Length == 0 {
		return false, nil
	}
	if h.Length < shtp.HeaderSize || h.Length > d.maxRead {
		d.pending = append(d.pending[:0], hdr[:]...)
		return true, nil
	}

	frame := make([]byte, h.Length)
	if err := d.dev.Tx(nil, frame); err != nil {
		return false, fmt.Errorf("i2c read frame: %w", err)
	}
	again, err := shtp.DecodeHeader(frame)
	if err != nil {
		return false, err
	}
	if again.Length != h.Length {
		return false, fmt.Errorf("%w: length changed between reads (%d, then %d)",
			shtp.ErrInvalidHeader, h.Length, again.Length)
	}
	d.pending = frame
	return true, nil
}

func (d *I2C) Write(p []byte) (int, error) {
	if d.dev == nil {
		return 0, shtp.ErrNotOpen
	}
	if err := d.dev.Tx(p, nil); err != nil {
		return 0, fmt.Errorf("i2c write: %w", err)
	}
	return len(p), nil
}

func (d *I2C) Close() error {
	if d.dev == nil {
		return shtp.ErrNotOpen
	}
	d.dev = nil
	d.pending = nil
	return d.bus.Close()
}
