package bus

import (
	"sort"
	"sync"
	"time"

	"github.com/relabs-tech/imu_gesture/internal/imu"
	"github.com/relabs-tech/imu_gesture/internal/orientation"
	"github.com/relabs-tech/imu_gesture/internal/sh2"
	"github.com/relabs-tech/imu_gesture/internal/shtp"
)

const standardGravity = 9.80665

// maxLag bounds how far behind real time report generation may fall
// before intervals are skipped.
const maxLag = 100 * time.Millisecond

// SimProductID is what the simulated hub reports as its identity.
var SimProductID = sh2.ProductID{SWMajor: 3, SWMinor: 2, PartNumber: 10004563, Build: 7, Patch: 13}

// Sim is a simulated sensor hub. It accepts Set Feature commands and
// product id requests like the real device and emits sensor reports for
// the enabled features at their requested interval, sampling a motion
// Source. Reports due at the same instant share one frame on the sensor
// report channel, behind a base timestamp record.
type Sim struct {
	mu     sync.Mutex
	src    orientation.Source
	start  time.Time
	out    []byte
	seq    [shtp.NumChannels]uint8
	rseq   uint8
	closed bool
	notify chan struct{}

	interval map[sh2.ReportID]time.Duration
	due      map[sh2.ReportID]time.Duration
}

func NewSim(src orientation.Source) *Sim {
	return &Sim{
		src:      src,
		start:    time.Now(),
		notify:   make(chan struct{}, 1),
		interval: map[sh2.ReportID]time.Duration{},
		due:      map[sh2.ReportID]time.Duration{},
	}
}

func (s *Sim) String() string { return "sim" }

// Enabled returns the report interval of every enabled feature.
func (s *Sim) Enabled() map[sh2.ReportID]time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[sh2.ReportID]time.Duration, len(s.interval))
	for id, iv := range s.interval {
		out[id] = iv
	}
	return out
}

func (s *Sim) Read(p []byte, deadline time.Time) (int, error) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return 0, shtp.ErrNotOpen
		}
		if len(s.out) == 0 {
			s.generate(time.Since(s.start))
		}
		if len(s.out) > 0 {
			n := copy(p, s.out)
			s.out = s.out[n:]
			s.mu.Unlock()
			return n, nil
		}
		next, ok := s.nextDue()
		s.mu.Unlock()

		if !time.Now().Before(deadline) {
			return 0, nil
		}
		wake := deadline
		if ok {
			if at := s.start.Add(next); at.Before(wake) {
				wake = at
			}
		}
		timer := time.NewTimer(time.Until(wake))
		select {
		case <-s.notify:
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (s *Sim) Write(p []byte) (int, error) {
	h, err := shtp.DecodeHeader(p)
	if err != nil {
		return 0, err
	}
	if h.Length > len(p) || h.Length < shtp.HeaderSize {
		return 0, shtp.ErrInvalidHeader
	}
	payload := p[shtp.HeaderSize:h.Length]

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, shtp.ErrNotOpen
	}

	if h.Channel == shtp.ChannelControl && len(payload) > 0 {
		if id, us, ok := sh2.ParseSetFeature(payload); ok {
			s.setFeature(id, time.Duration(us)*time.Microsecond)
		} else if sh2.ReportID(payload[0]) == sh2.ReportProductIDRequest {
			s.queue(shtp.ChannelControl, SimProductID.Encode())
		}
	}
	return len(p), nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return shtp.ErrNotOpen
	}
	s.closed = true
	return nil
}

func (s *Sim) setFeature(id sh2.ReportID, interval time.Duration) {
	if sh2.ReportLength(id) == 0 {
		return
	}
	if interval <= 0 {
		delete(s.interval, id)
		delete(s.due, id)
		return
	}
	s.interval[id] = interval
	s.due[id] = time.Since(s.start) + interval
}

func (s *Sim) queue(ch shtp.Channel, payload []byte) {
	f := shtp.Frame{Channel: ch, Sequence: s.seq[ch], Payload: payload}
	s.seq[ch]++
	s.out = append(s.out, f.Marshal()...)
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Sim) nextDue() (time.Duration, bool) {
	var next time.Duration
	ok := false
	for _, d := range s.due {
		if !ok || d < next {
			next, ok = d, true
		}
	}
	return next, ok
}

// generate queues one frame for every report instant up to elapsed.
func (s *Sim) generate(elapsed time.Duration) {
	for id, d := range s.due {
		if elapsed-d > maxLag {
			iv := s.interval[id]
			s.due[id] = d + (elapsed-d)/iv*iv
		}
	}
	for {
		at, ok := s.nextDue()
		if !ok || at > elapsed {
			return
		}
		var ids []sh2.ReportID
		for id, d := range s.due {
			if d == at {
				ids = append(ids, id)
				s.due[id] = d + s.interval[id]
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		sample := s.src.At(at.Seconds())
		payload := []byte{byte(sh2.ReportBaseTimestamp), 0, 0, 0, 0}
		for _, id := range ids {
			rec, err := sh2.EncodeReport(simEvent(id, sample), s.rseq)
			if err != nil {
				continue
			}
			payload = append(payload, rec...)
		}
		s.rseq++
		s.queue(shtp.ChannelSensorReport, payload)
	}
}

func simEvent(id sh2.ReportID, m imu.Sample) sh2.Event {
	switch id {
	case sh2.ReportAccelerometer:
		return sh2.Accelerometer{Accuracy: sh2.AccuracyHigh, Accel: m.Accel}
	case sh2.ReportLinearAcceleration:
		g := m.Quat.Conj().Rotate(imu.Vec3{Z: standardGravity})
		return sh2.LinearAcceleration{Accuracy: sh2.AccuracyHigh, Accel: m.Accel.Sub(g)}
	case sh2.ReportGyroscopeCalibrated:
		return sh2.Gyroscope{Accuracy: sh2.AccuracyHigh, Rate: m.Gyro}
	default:
		return sh2.GameRotation{Accuracy: sh2.AccuracyHigh, Quat: m.Quat}
	}
}
