package sh2

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/relabs-tech/imu_gesture/internal/shtp"
)

var (
	ErrRateOutOfRange = errors.New("sh2: sample rate out of range")
	ErrUnknownReport  = errors.New("sh2: unknown report")
)

const (
	// SetFeatureLen is the size of a Set Feature command.
	SetFeatureLen = 17

	MinRateHz = 50
	MaxRateHz = 100
)

// IntervalForRate converts a sample rate to the report interval in µs.
func IntervalForRate(hz int) (uint32, error) {
	if hz < MinRateHz || hz > MaxRateHz {
		return 0, fmt.Errorf("%w: %d Hz not in [%d,%d]", ErrRateOutOfRange, hz, MinRateHz, MaxRateHz)
	}
	return uint32(1_000_000 / hz), nil
}

// EncodeEnable builds the Set Feature command that makes the hub report id
// every intervalUS microseconds. Layout:
//
//	0      0xFD
//	1      feature report id
//	2      feature flags (0)
//	3..4   change sensitivity (0)
//	5..8   report interval, µs, little endian
//	9..12  batch interval (0)
//	13..16 sensor-specific config (0)
func EncodeEnable(id ReportID, intervalUS uint32) []byte {
	cmd := make([]byte, SetFeatureLen)
	cmd[0] = byte(ReportSetFeatureCommand)
	cmd[1] = byte(id)
	binary.LittleEndian.PutUint32(cmd[5:9], intervalUS)
	return cmd
}

// ParseSetFeature is the device-side view of EncodeEnable.
func ParseSetFeature(payload []byte) (id ReportID, intervalUS uint32, ok bool) {
	if len(payload) < SetFeatureLen || ReportID(payload[0]) != ReportSetFeatureCommand {
		return 0, 0, false
	}
	return ReportID(payload[1]), binary.LittleEndian.Uint32(payload[5:9]), true
}

// FrameWriter is the part of shtp.Transport commands need.
type FrameWriter interface {
	WriteFrame(ch shtp.Channel, payload []byte) error
}

// Enable asks the hub to report id at hz. The command goes out on the
// control channel; the hub answers by starting to send reports.
func Enable(w FrameWriter, id ReportID, hz int) error {
	interval, err := IntervalForRate(hz)
	if err != nil {
		return err
	}
	if err := w.WriteFrame(shtp.ChannelControl, EncodeEnable(id, interval)); err != nil {
		return fmt.Errorf("enable %s: %w", id, err)
	}
	return nil
}

// ProductIDRequest asks the hub to identify itself.
var ProductIDRequest = []byte{byte(ReportProductIDRequest), 0}

const productIDLen = 16

// ProductID is the hub's answer to ProductIDRequest.
type ProductID struct {
	ResetCause uint8  `json:"reset_cause"`
	SWMajor    uint8  `json:"sw_major"`
	SWMinor    uint8  `json:"sw_minor"`
	PartNumber uint32 `json:"part_number"`
	Build      uint32 `json:"build"`
	Patch      uint16 `json:"patch"`
}

func (p ProductID) String() string {
	return fmt.Sprintf("part %d v%d.%d.%d build %d", p.PartNumber, p.SWMajor, p.SWMinor, p.Patch, p.Build)
}

// ParseProductID decodes a product id response record.
func ParseProductID(payload []byte) (ProductID, bool) {
	if len(payload) < productIDLen || ReportID(payload[0]) != ReportProductIDResponse {
		return ProductID{}, false
	}
	return ProductID{
		ResetCause: payload[1],
		SWMajor:    payload[2],
		SWMinor:    payload[3],
		PartNumber: binary.LittleEndian.Uint32(payload[4:8]),
		Build:      binary.LittleEndian.Uint32(payload[8:12]),
		Patch:      binary.LittleEndian.Uint16(payload[12:14]),
	}, true
}

// Encode renders p as a product id response record.
func (p ProductID) Encode() []byte {
	buf := make([]byte, productIDLen)
	buf[0] = byte(ReportProductIDResponse)
	buf[1] = p.ResetCause
	buf[2] = p.SWMajor
	buf[3] = p.SWMinor
	binary.LittleEndian.PutUint32(buf[4:8], p.PartNumber)
	binary.LittleEndian.PutUint32(buf[8:12], p.Build)
	binary.LittleEndian.PutUint16(buf[12:14], p.Patch)
	return buf
}
