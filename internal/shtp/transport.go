package shtp

import (
	"fmt"
	"reflect"
	"time"
)

// Transport reads and writes frames over a Bus. It owns the outbound
// sequence counters and is not safe for concurrent use.
type Transport struct {
	bus      Bus
	maxFrame int
	seq      [NumChannels]uint8
	hdr      [HeaderSize]byte
}

type Option func(*Transport)

// WithMaxFrameSize sets the largest accepted frame, header included.
// Values outside [HeaderSize, 32767] are ignored.
func WithMaxFrameSize(n int) Option {
	return func(t *Transport) {
		if n >= HeaderSize && n <= lengthMask {
			t.maxFrame = n
		}
	}
}

// New wraps an open bus. A nil bus, or a nil pointer of a Bus type, yields
// a transport whose every call fails with ErrNotOpen.
func New(bus Bus, opts ...Option) *Transport {
	if isNilBus(bus) {
		bus = nil
	}
	t := &Transport{bus: bus, maxFrame: DefaultMaxFrameSize}
	for _, o := range opts {
		o(t)
	}
	return t
}

func isNilBus(b Bus) bool {
	if b == nil {
		return true
	}
	v := reflect.ValueOf(b)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func (t *Transport) MaxFrameSize() int { return t.maxFrame }

// NextSequence returns the sequence number the next frame on ch will carry.
func (t *Transport) NextSequence(ch Channel) uint8 {
	if int(ch) >= NumChannels {
		return 0
	}
	return t.seq[ch]
}

// ReadFrame reads one frame, waiting until deadline for it to start.
//
// ok is false with a nil error when no data arrived before the deadline.
// Once the first byte is in, the rest of the frame must arrive before the
// same deadline or ErrTimeout is returned. A header whose length is below
// HeaderSize (ErrInvalidHeader) or above the maximum (ErrOversizeFrame) is
// discarded; the caller re-polls.
func (t *Transport) ReadFrame(deadline time.Time) (f Frame, ok bool, err error) {
	if t.bus == nil {
		return Frame{}, false, ErrNotOpen
	}

	hdr := t.hdr[:]
	n, err := t.bus.Read(hdr, deadline)
	if err != nil {
		return Frame{}, false, busError("read header", err)
	}
	if n == 0 {
		return Frame{}, false, nil
	}
	if err := t.readFull(hdr[n:], deadline); err != nil {
		return Frame{}, false, fmt.Errorf("read header: %w", err)
	}

	h, err := DecodeHeader(hdr)
	if err != nil {
		return Frame{}, false, err
	}
	if h.Length < HeaderSize {
		return Frame{}, false, fmt.Errorf("%w: length %d", ErrInvalidHeader, h.Length)
	}
	if h.Length > t.maxFrame {
		return Frame{}, false, fmt.Errorf("%w: length %d > %d", ErrOversizeFrame, h.Length, t.maxFrame)
	}

	payload := make([]byte, h.Length-HeaderSize)
	if err := t.readFull(payload, deadline); err != nil {
		return Frame{}, false, fmt.Errorf("read payload on %s: %w", h.Channel, err)
	}

	return Frame{Channel: h.Channel, Sequence: h.Sequence, Payload: payload}, true, nil
}

func (t *Transport) readFull(p []byte, deadline time.Time) error {
	for len(p) > 0 {
		n, err := t.bus.Read(p, deadline)
		if err != nil {
			return busError("read", err)
		}
		p = p[n:]
		if n == 0 && !time.Now().Before(deadline) {
			return fmt.Errorf("%w: %d bytes short", ErrTimeout, len(p))
		}
	}
	return nil
}

// WriteFrame sends payload on ch in a single bus write.
//
// The channel's sequence counter advances once the frame is built, so a
// failed write still consumes a sequence number.
func (t *Transport) WriteFrame(ch Channel, payload []byte) error {
	if t.bus == nil {
		return ErrNotOpen
	}
	total := len(payload) + HeaderSize
	if total > t.maxFrame {
		return fmt.Errorf("%w: length %d > %d", ErrOversizeFrame, total, t.maxFrame)
	}
	if int(ch) >= NumChannels {
		return fmt.Errorf("%w: no sequence counter for %s", ErrInvalidHeader, ch)
	}

	seq := t.seq[ch]
	t.seq[ch]++

	buf := Frame{Channel: ch, Sequence: seq, Payload: payload}.Marshal()
	n, err := t.bus.Write(buf)
	if err != nil {
		return busError(fmt.Sprintf("write %s", ch), err)
	}
	if n != len(buf) {
		return fmt.Errorf("%w: short write on %s: %d of %d bytes", ErrIO, ch, n, len(buf))
	}
	return nil
}
