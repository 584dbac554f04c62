package sensors

import (
	"errors"
	"testing"
	"time"

	"github.com/relabs-tech/imu_gesture/internal/bus"
	"github.com/relabs-tech/imu_gesture/internal/imu"
	"github.com/relabs-tech/imu_gesture/internal/sh2"
	"github.com/relabs-tech/imu_gesture/internal/shtp"
)

func frame(ch shtp.Channel, payload ...[]byte) []byte {
	var p []byte
	for _, b := range payload {
		p = append(p, b...)
	}
	return shtp.Frame{Channel: ch, Payload: p}.Marshal()
}

func report(t *testing.T, ev sh2.Event) []byte {
	t.Helper()
	b, err := sh2.EncodeReport(ev, 0)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func deadline() time.Time { return time.Now().Add(20 * time.Millisecond) }

func TestNext(t *testing.T) {
	stub := bus.NewStub()
	dev := NewBNO08x(stub, shtp.DefaultMaxFrameSize)

	accel := report(t, sh2.Accelerometer{Accuracy: sh2.AccuracyHigh, Accel: imu.Vec3{Z: 9.75}})
	quat := report(t, sh2.GameRotation{Quat: imu.Identity})
	stamp := []byte{byte(sh2.ReportBaseTimestamp), 1, 0, 0, 0}

	stub.Inject(frame(shtp.ChannelSensorReport, stamp, accel, quat))
	stub.Inject(frame(shtp.ChannelCommand, []byte{0, 1, 2}))
	stub.Inject(frame(shtp.ChannelGyroRotation, []byte{0x33, 0, 0, 0}))
	stub.Inject(frame(shtp.ChannelWakeReport, accel))

	events, err := dev.Next(deadline())
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if len(events) != 2 || events[0].ID() != sh2.ReportAccelerometer || events[1].ID() != sh2.ReportGameRotationVector {
		t.Fatalf("Next() = %v, want accelerometer and rotation vector", events)
	}

	for i, what := range []string{"command channel", "undecodable"} {
		events, err = dev.Next(deadline())
		if err != nil || events != nil {
			t.Errorf("Next() #%d (%s) = %v, %v, want nothing", i+2, what, events, err)
		}
	}

	events, err = dev.Next(deadline())
	if err != nil || len(events) != 1 {
		t.Errorf("Next() on wake channel = %v, %v, want one event", events, err)
	}

	events, err = dev.Next(deadline())
	if err != nil || events != nil {
		t.Errorf("Next() with no data = %v, %v", events, err)
	}

	want := Stats{Frames: 4, Events: 3, Misses: 1, Skipped: 1}
	if got := dev.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestNextCountsErrors(t *testing.T) {
	stub := bus.NewStub()
	stub.Inject([]byte{2, 0, 3, 0})
	dev := NewBNO08x(stub, shtp.DefaultMaxFrameSize)

	if _, err := dev.Next(deadline()); !errors.Is(err, shtp.ErrInvalidHeader) {
		t.Errorf("Next() error = %v, want ErrInvalidHeader", err)
	}
	if dev.Stats().Errors != 1 {
		t.Errorf("Errors = %d, want 1", dev.Stats().Errors)
	}
}

func TestEnableReports(t *testing.T) {
	stub := bus.NewStub()
	dev := NewBNO08x(stub, shtp.DefaultMaxFrameSize)

	if err := dev.EnableReports(100, GestureReports...); err != nil {
		t.Fatalf("EnableReports() error = %v", err)
	}
	written := stub.Written()
	if len(written) != len(GestureReports) {
		t.Fatalf("wrote %d frames, want %d", len(written), len(GestureReports))
	}
	for i, w := range written {
		h, err := shtp.DecodeHeader(w)
		if err != nil {
			t.Fatal(err)
		}
		if h.Channel != shtp.ChannelControl || h.Sequence != uint8(i) {
			t.Errorf("frame %d header = %+v", i, h)
		}
		id, interval, ok := sh2.ParseSetFeature(w[shtp.HeaderSize:])
		if !ok || id != GestureReports[i] || interval != 10000 {
			t.Errorf("frame %d = %s every %d µs", i, id, interval)
		}
	}

	if err := dev.EnableReports(10, sh2.ReportAccelerometer); !errors.Is(err, sh2.ErrRateOutOfRange) {
		t.Errorf("EnableReports(10 Hz) error = %v, want ErrRateOutOfRange", err)
	}
}

func TestIdentify(t *testing.T) {
	stub := bus.NewStub()
	dev := NewBNO08x(stub, shtp.DefaultMaxFrameSize)

	want := sh2.ProductID{SWMajor: 3, SWMinor: 2, PartNumber: 10003608, Build: 1}
	stub.Inject(frame(shtp.ChannelSensorReport, report(t, sh2.Accelerometer{})))
	stub.Inject(frame(shtp.ChannelControl, want.Encode()))

	got, err := dev.Identify(100 * time.Millisecond)
	if err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	if got != want {
		t.Errorf("Identify() = %+v, want %+v", got, want)
	}
	if w := stub.Written(); len(w) != 1 || w[0][2] != byte(shtp.ChannelControl) || w[0][4] != byte(sh2.ReportProductIDRequest) {
		t.Errorf("request = % X", w)
	}
}

func TestIdentifyNoAnswer(t *testing.T) {
	dev := NewBNO08x(bus.NewStub(), shtp.DefaultMaxFrameSize)
	if _, err := dev.Identify(20 * time.Millisecond); !errors.Is(err, ErrNoProductID) {
		t.Errorf("Identify() error = %v, want ErrNoProductID", err)
	}
}

func TestIsSensorChannel(t *testing.T) {
	for ch := shtp.Channel(0); ch < 8; ch++ {
		want := ch >= 2 && ch <= 5
		if got := IsSensorChannel(ch); got != want {
			t.Errorf("IsSensorChannel(%d) = %v, want %v", ch, got, want)
		}
	}
}
