package shtp_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/relabs-tech/imu_gesture/internal/bus"
	"github.com/relabs-tech/imu_gesture/internal/shtp"
)

func soon() time.Time { return time.Now().Add(50 * time.Millisecond) }

func TestWriteThenReadLoopback(t *testing.T) {
	lb := bus.NewLoopback()
	tr := shtp.New(lb)

	payload := []byte{0xFD, 0x01, 0, 0, 0, 0x10, 0x27, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	if err := tr.WriteFrame(shtp.ChannelControl, payload); err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}

	written := lb.Written()
	if len(written) != 1 {
		t.Fatalf("got %d writes, want 1", len(written))
	}
	want := append([]byte{21, 0, byte(shtp.ChannelControl), 0}, payload...)
	if !bytes.Equal(written[0], want) {
		t.Errorf("wire bytes = % X, want % X", written[0], want)
	}

	f, ok, err := tr.ReadFrame(soon())
	if err != nil || !ok {
		t.Fatalf("ReadFrame() = ok %v, err %v", ok, err)
	}
	if f.Channel != shtp.ChannelControl || f.Sequence != 0 {
		t.Errorf("frame = ch %d seq %d, want ch %d seq 0", f.Channel, f.Sequence, shtp.ChannelControl)
	}
	if !bytes.Equal(f.Payload, payload) {
		t.Errorf("payload = % X, want % X", f.Payload, payload)
	}
	if f.Len() != 21 {
		t.Errorf("Len() = %d, want 21", f.Len())
	}
}

func TestReadFrameLengthBounds(t *testing.T) {
	tests := []struct {
		name    string
		wire    []byte
		maxSize int
		wantErr error
		wantLen int
	}{
		{
			name:    "header only",
			wire:    []byte{4, 0, 3, 9},
			maxSize: 512,
			wantLen: 0,
		},
		{
			name:    "continuation bit masked",
			wire:    []byte{6, 0x80, 3, 1, 0xAA, 0xBB},
			maxSize: 512,
			wantLen: 2,
		},
		{
			name:    "exactly max",
			wire:    append([]byte{8, 0, 3, 0}, 1, 2, 3, 4),
			maxSize: 8,
			wantLen: 4,
		},
		{
			name:    "length below header",
			wire:    []byte{3, 0, 3, 0},
			maxSize: 512,
			wantErr: shtp.ErrInvalidHeader,
		},
		{
			name:    "zero length",
			wire:    []byte{0, 0, 0, 0},
			maxSize: 512,
			wantErr: shtp.ErrInvalidHeader,
		},
		{
			name:    "one over max",
			wire:    []byte{9, 0, 3, 0},
			maxSize: 8,
			wantErr: shtp.ErrOversizeFrame,
		},
		{
			name:    "oversize with continuation bit",
			wire:    []byte{0x01, 0x82, 3, 0},
			maxSize: 512,
			wantErr: shtp.ErrOversizeFrame,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := bus.NewStub()
			stub.Inject(tt.wire)
			tr := shtp.New(stub, shtp.WithMaxFrameSize(tt.maxSize))

			f, ok, err := tr.ReadFrame(soon())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ReadFrame() error = %v, want %v", err, tt.wantErr)
				}
				if ok {
					t.Error("ReadFrame() ok = true on error")
				}
				return
			}
			if err != nil || !ok {
				t.Fatalf("ReadFrame() = ok %v, err %v", ok, err)
			}
			if len(f.Payload) != tt.wantLen {
				t.Errorf("payload length = %d, want %d", len(f.Payload), tt.wantLen)
			}
		})
	}
}

func TestReadFrameSplitAcrossReads(t *testing.T) {
	stub := bus.NewStub()
	stub.Chunk = 3
	stub.Inject([]byte{9, 0, 5, 7, 1, 2, 3, 4, 5})
	tr := shtp.New(stub)

	f, ok, err := tr.ReadFrame(soon())
	if err != nil || !ok {
		t.Fatalf("ReadFrame() = ok %v, err %v", ok, err)
	}
	if f.Channel != shtp.ChannelGyroRotation || f.Sequence != 7 {
		t.Errorf("frame = ch %d seq %d, want ch 5 seq 7", f.Channel, f.Sequence)
	}
	if !bytes.Equal(f.Payload, []byte{1, 2, 3, 4, 5}) {
		t.Errorf("payload = % X", f.Payload)
	}
}

func TestReadFrameNoData(t *testing.T) {
	tr := shtp.New(bus.NewStub())

	start := time.Now()
	_, ok, err := tr.ReadFrame(time.Now().Add(20 * time.Millisecond))
	if err != nil {
		t.Fatalf("ReadFrame() error = %v, want nil", err)
	}
	if ok {
		t.Error("ReadFrame() ok = true with nothing on the bus")
	}
	if time.Since(start) > time.Second {
		t.Error("ReadFrame() did not honour its deadline")
	}
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	stub := bus.NewStub()
	stub.Inject([]byte{10, 0, 3, 0, 1, 2})
	tr := shtp.New(stub)

	_, ok, err := tr.ReadFrame(time.Now().Add(20 * time.Millisecond))
	if !errors.Is(err, shtp.ErrTimeout) {
		t.Fatalf("ReadFrame() error = %v, want ErrTimeout", err)
	}
	if ok {
		t.Error("ReadFrame() ok = true for a truncated frame")
	}
}

func TestSequencePerChannel(t *testing.T) {
	stub := bus.NewStub()
	tr := shtp.New(stub)

	for i := 0; i < 300; i++ {
		if err := tr.WriteFrame(shtp.ChannelCommand, []byte{byte(i)}); err != nil {
			t.Fatalf("WriteFrame(%d) error = %v", i, err)
		}
	}
	if err := tr.WriteFrame(shtp.ChannelExecutable, []byte{0}); err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}

	written := stub.Written()
	if got := written[255][3]; got != 255 {
		t.Errorf("frame 255 sequence = %d, want 255", got)
	}
	if got := written[256][3]; got != 0 {
		t.Errorf("frame 256 sequence = %d, want 0 after wrap", got)
	}
	if got := written[300][3]; got != 0 {
		t.Errorf("first executable frame sequence = %d, want 0", got)
	}
	if got := tr.NextSequence(shtp.ChannelCommand); got != 300%256 {
		t.Errorf("NextSequence(command) = %d, want %d", got, 300%256)
	}
	if got := tr.NextSequence(shtp.ChannelExecutable); got != 1 {
		t.Errorf("NextSequence(executable) = %d, want 1", got)
	}
	if got := tr.NextSequence(shtp.ChannelControl); got != 0 {
		t.Errorf("NextSequence(control) = %d, want 0", got)
	}
}

func TestWriteFrameErrors(t *testing.T) {
	t.Run("oversize leaves bus untouched", func(t *testing.T) {
		stub := bus.NewStub()
		tr := shtp.New(stub, shtp.WithMaxFrameSize(16))
		err := tr.WriteFrame(shtp.ChannelControl, make([]byte, 13))
		if !errors.Is(err, shtp.ErrOversizeFrame) {
			t.Fatalf("WriteFrame() error = %v, want ErrOversizeFrame", err)
		}
		if len(stub.Written()) != 0 {
			t.Error("oversize frame reached the bus")
		}
		if tr.NextSequence(shtp.ChannelControl) != 0 {
			t.Error("oversize frame consumed a sequence number")
		}
	})

	t.Run("short write", func(t *testing.T) {
		stub := bus.NewStub()
		stub.WriteCap = 3
		tr := shtp.New(stub)
		err := tr.WriteFrame(shtp.ChannelControl, []byte{1, 2, 3})
		if !errors.Is(err, shtp.ErrIO) {
			t.Fatalf("WriteFrame() error = %v, want ErrIO", err)
		}
	})

	t.Run("bus failure", func(t *testing.T) {
		stub := bus.NewStub()
		stub.FailWrites(errors.New("remote I/O error"))
		tr := shtp.New(stub)
		err := tr.WriteFrame(shtp.ChannelControl, []byte{1})
		if !errors.Is(err, shtp.ErrIO) {
			t.Fatalf("WriteFrame() error = %v, want ErrIO", err)
		}
	})

	t.Run("unknown channel", func(t *testing.T) {
		tr := shtp.New(bus.NewStub())
		err := tr.WriteFrame(shtp.Channel(6), []byte{1})
		if !errors.Is(err, shtp.ErrInvalidHeader) {
			t.Fatalf("WriteFrame() error = %v, want ErrInvalidHeader", err)
		}
	})
}

func TestNotOpen(t *testing.T) {
	var nilStub *bus.Stub
	for name, b := range map[string]shtp.Bus{"nil": nil, "nil stub": nilStub} {
		tr := shtp.New(b)
		if _, _, err := tr.ReadFrame(soon()); !errors.Is(err, shtp.ErrNotOpen) {
			t.Errorf("%s: ReadFrame() error = %v, want ErrNotOpen", name, err)
		}
		if err := tr.WriteFrame(shtp.ChannelControl, nil); !errors.Is(err, shtp.ErrNotOpen) {
			t.Errorf("%s: WriteFrame() error = %v, want ErrNotOpen", name, err)
		}
	}

	stub := bus.NewStub()
	stub.Close()
	tr := shtp.New(stub)
	if _, _, err := tr.ReadFrame(soon()); !errors.Is(err, shtp.ErrNotOpen) {
		t.Errorf("ReadFrame() on closed bus error = %v, want ErrNotOpen", err)
	}
}

func TestWithMaxFrameSizeIgnoresBadValues(t *testing.T) {
	for _, n := range []int{0, 3, 0x8000} {
		if got := shtp.New(nil, shtp.WithMaxFrameSize(n)).MaxFrameSize(); got != shtp.DefaultMaxFrameSize {
			t.Errorf("WithMaxFrameSize(%d): MaxFrameSize() = %d, want default", n, got)
		}
	}
}
