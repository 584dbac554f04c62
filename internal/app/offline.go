package app

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/imu_gesture/internal/gesture"
	"github.com/relabs-tech/imu_gesture/internal/imu"
)

// RunOffline analyzes recorded CSV logs. Files that fail to load are
// reported and skipped; the returned error says how many failed.
func RunOffline(paths []string, cfg gesture.Config, stream bool, w io.Writer) error {
	failed := 0
	for _, path := range paths {
		if err := analyzeFile(path, cfg, stream, w); err != nil {
			fmt.Fprintf(w, "%s: ERROR: %v\n\n", path, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}

func analyzeFile(path string, cfg gesture.Config, stream bool, w io.Writer) error {
	samples, err := readSamples(path)
	if err != nil {
		return err
	}
	a, err := gesture.Analyze(samples, cfg)
	if err != nil {
		return err
	}

	b, dv := a.Baseline, a.DeltaV
	fmt.Fprintf(w, "=== %s ===\n", path)
	fmt.Fprintf(w, "  baseline: (%.3f, %.3f, %.3f) m/s^2\n", b.X, b.Y, b.Z)
	fmt.Fprintf(w, "  window: samples %d..%d (n=%d), duration=%.3f s, peak=%.3f m/s^2\n",
		a.Start, a.End, a.End-a.Start, a.Duration, a.Peak)
	fmt.Fprintf(w, "  dv: (%.3f, %.3f, %.3f) m/s\n", dv.X, dv.Y, dv.Z)
	fmt.Fprintf(w, "  dominant axis: %s %s  |dv|=%.3f\n", a.Axis, a.Sign, a.Magnitude)
	fmt.Fprintf(w, "  predicted: %s\n", a.Label)
	if want, ok := labelFromName(path); ok {
		verdict := "OK"
		if want != a.Label {
			verdict = "MISMATCH"
		}
		fmt.Fprintf(w, "  expected (from file name): %s  ->  %s\n", want, verdict)
	}

	if stream {
		det, err := gesture.New(cfg)
		if err != nil {
			return err
		}
		n := 0
		for _, s := range samples {
			det.AddSample(s.T, s.Accel, s.Quat)
			if r, ok := det.PollResult(); ok {
				fmt.Fprintf(w, "  stream: %s\n", r)
				n++
			}
		}
		fmt.Fprintf(w, "  stream: %d gesture(s)\n", n)
	}
	fmt.Fprintln(w)
	return nil
}

func readSamples(path string) ([]imu.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	idx, err := imu.NewColumnIndex(header)
	if err != nil {
		return nil, err
	}

	var samples []imu.Sample
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		s, err := idx.ParseRecord(rec)
		if err != nil {
			log.Debugf("offline: %s line %d: %v", path, line, err)
			continue
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// labelFromName picks the direction named in a file name such as
// "up_03.csv" or "swipe-left.csv". "back" counts as BACKWARD.
func labelFromName(path string) (gesture.Direction, bool) {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	words := strings.FieldsFunc(base, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, word := range words {
		switch word {
		case "up":
			return gesture.Up, true
		case "down":
			return gesture.Down, true
		case "left":
			return gesture.Left, true
		case "right":
			return gesture.Right, true
		case "forward":
			return gesture.Forward, true
		case "back", "backward":
			return gesture.Backward, true
		}
	}
	return "", false
}
