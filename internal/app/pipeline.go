package app

import (
	"time"

	"github.com/relabs-tech/imu_gesture/internal/gesture"
	"github.com/relabs-tech/imu_gesture/internal/imu"
	"github.com/relabs-tech/imu_gesture/internal/sensors"
	"github.com/relabs-tech/imu_gesture/internal/sh2"
)

// Pipeline runs frames through decoding, fusion and the detector. One
// goroutine owns it.
type Pipeline struct {
	dev   *sensors.BNO08x
	fuser sensors.Fuser
	det   *gesture.Detector
	start time.Time
	now   func() time.Time

	samples  uint64
	gestures uint64
	product  *sh2.ProductID
}

// Step is what one read produced. Either part may be absent.
type Step struct {
	Sample      imu.Sample
	HaveSample  bool
	Gesture     gesture.Result
	HaveGesture bool
}

func NewPipeline(dev *sensors.BNO08x, cfg gesture.Config) (*Pipeline, error) {
	det, err := gesture.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Pipeline{dev: dev, det: det, start: time.Now(), now: time.Now}, nil
}

func (p *Pipeline) SetProduct(id sh2.ProductID) { p.product = &id }

// Step reads at most one frame. Sample time is seconds since the pipeline
// was created.
func (p *Pipeline) Step(deadline time.Time) (Step, error) {
	events, err := p.dev.Next(deadline)
	if err != nil || len(events) == 0 {
		return Step{}, err
	}

	changed := false
	for _, ev := range events {
		if p.fuser.Update(ev) {
			changed = true
		}
	}
	if !changed {
		return Step{}, nil
	}

	s, ok := p.fuser.Sample(p.now().Sub(p.start).Seconds())
	if !ok {
		return Step{}, nil
	}
	p.samples++
	p.det.AddSample(s.T, s.Accel, s.Quat)

	st := Step{Sample: s, HaveSample: true}
	if r, ok := p.det.PollResult(); ok {
		p.gestures++
		st.Gesture, st.HaveGesture = r, true
	}
	return st, nil
}

func (p *Pipeline) Status() StatusRecord {
	now := p.now()
	rec := StatusRecord{
		Stats:      p.dev.Stats(),
		Time:       now.UTC().Format(time.RFC3339),
		Uptime:     now.Sub(p.start).Seconds(),
		Samples:    p.samples,
		Gestures:   p.gestures,
		Calibrated: p.det.Calibrated(),
		Product:    p.product,
	}
	if b, ok := p.det.Baseline(); ok {
		rec.Baseline = &b
	}
	return rec
}
