package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/imu_gesture/internal/config"
)

// Publisher delivers pipeline output somewhere.
type Publisher interface {
	PublishGesture(GestureEvent) error
	PublishSample(SampleRecord) error
	PublishStatus(StatusRecord) error
}

// writerPublisher prints gestures as text lines or NDJSON.
type writerPublisher struct {
	w      io.Writer
	json   bool
	logger *log.Entry
}

func newWriterPublisher(w io.Writer, format string) *writerPublisher {
	return &writerPublisher{w: w, json: format == "json", logger: log.WithField("component", "output")}
}

func (p *writerPublisher) PublishGesture(ev GestureEvent) error {
	if p.json {
		return p.line(ev)
	}
	_, err := fmt.Fprintln(p.w, ev.Result.String())
	return err
}

func (p *writerPublisher) PublishSample(SampleRecord) error { return nil }

func (p *writerPublisher) PublishStatus(st StatusRecord) error {
	if p.json {
		return p.line(st)
	}
	p.logger.Infof("status: frames=%d events=%d misses=%d skipped=%d errors=%d samples=%d gestures=%d calibrated=%t",
		st.Frames, st.Events, st.Misses, st.Skipped, st.Errors, st.Samples, st.Gestures, st.Calibrated)
	return nil
}

func (p *writerPublisher) line(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(p.w, "%s\n", b)
	return err
}

// mqttPublisher publishes each record as JSON on its topic. Samples and
// status are retained; gestures are not, so a new subscriber only sees
// gestures made after it connected.
type mqttPublisher struct {
	client mqtt.Client
	cfg    *config.Config
}

func (p *mqttPublisher) PublishGesture(ev GestureEvent) error {
	return publishJSON(p.client, p.cfg.TopicGesture, false, ev)
}

func (p *mqttPublisher) PublishSample(s SampleRecord) error {
	return publishJSON(p.client, p.cfg.TopicSample, true, s)
}

func (p *mqttPublisher) PublishStatus(st StatusRecord) error {
	return publishJSON(p.client, p.cfg.TopicStatus, true, st)
}

// fanout sends to every publisher and joins the errors.
type fanout []Publisher

func (f fanout) PublishGesture(ev GestureEvent) error {
	var errs []error
	for _, p := range f {
		errs = append(errs, p.PublishGesture(ev))
	}
	return errors.Join(errs...)
}

func (f fanout) PublishSample(s SampleRecord) error {
	var errs []error
	for _, p := range f {
		errs = append(errs, p.PublishSample(s))
	}
	return errors.Join(errs...)
}

func (f fanout) PublishStatus(st StatusRecord) error {
	var errs []error
	for _, p := range f {
		errs = append(errs, p.PublishStatus(st))
	}
	return errors.Join(errs...)
}
