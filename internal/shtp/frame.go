// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package shtp implements the Sensor Hub Transport Protocol framing used by
// BNO08x devices: a 4-byte header (length, channel, sequence) followed by
// the payload, multiplexed over a handful of logical channels.
package shtp

import (
	"encoding/binary"
	"fmt"
)

// Channel identifies a logical SHTP sub-stream.
type Channel uint8

const (
	ChannelCommand      Channel = 0
	ChannelExecutable   Channel = 1
	ChannelControl      Channel = 2 // sensor hub control: set feature, product id
	ChannelSensorReport Channel = 3
	ChannelWakeReport   Channel = 4
	ChannelGyroRotation Channel = 5

	// NumChannels is the number of channels with a sequence counter.
	NumChannels = 6
)

func (c Channel) String() string {
	switch c {
	case ChannelCommand:
		return "command"
	case ChannelExecutable:
		return "executable"
	case ChannelControl:
		return "control"
	case ChannelSensorReport:
		return "sensor"
	case ChannelWakeReport:
		return "wake"
	case ChannelGyroRotation:
		return "gyro-rv"
	default:
		return fmt.Sprintf("channel(%d)", uint8(c))
	}
}

const (
	HeaderSize          = 4
	DefaultMaxFrameSize = 512

	continuationBit = 0x8000
	lengthMask      = 0x7FFF
)

// Header is the decoded 4-byte frame prefix.
type Header struct {
	Length       int // total frame length including the header
	Continuation bool
	Channel      Channel
	Sequence     uint8
}

// DecodeHeader parses the first HeaderSize bytes of b. Length bounds are
// checked by the transport, not here.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d header bytes", ErrInvalidHeader, len(b))
	}
	raw := binary.LittleEndian.Uint16(b[0:2])
	return Header{
		Length:       int(raw & lengthMask),
		Continuation: raw&continuationBit != 0,
		Channel:      Channel(b[2]),
		Sequence:     b[3],
	}, nil
}

// Encode writes h into b[0:HeaderSize]. The continuation bit is always clear.
func (h Header) Encode(b []byte) {
	binary.LittleEndian.PutUint16(b[0:2], uint16(h.Length)&lengthMask)
	b[2] = byte(h.Channel)
	b[3] = h.Sequence
}

// Frame is one SHTP message. Payload is owned by the frame.
type Frame struct {
	Channel  Channel
	Sequence uint8
	Payload  []byte
}

// Len is the on-wire length of f including the header.
func (f Frame) Len() int { return len(f.Payload) + HeaderSize }

// Marshal returns the header followed by the payload.
func (f Frame) Marshal() []byte {
	buf := make([]byte, f.Len())
	Header{Length: f.Len(), Channel: f.Channel, Sequence: f.Sequence}.Encode(buf)
	copy(buf[HeaderSize:], f.Payload)
	return buf
}
