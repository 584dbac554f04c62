package imu

import (
	"errors"
	"fmt"
	"strconv"
)

// Sample is one fused reading: the last known acceleration, angular rate
// and game rotation vector at time T (seconds since the stream started).
type Sample struct {
	T     float64 `json:"t"`
	Accel Vec3    `json:"accel"` // sensor frame, m/s²
	Gyro  Vec3    `json:"gyro"`  // rad/s
	Quat  Quat    `json:"quat"`
}

// CSVHeader is the column layout of recorded logs.
var CSVHeader = []string{"t", "ax", "ay", "az", "gx", "gy", "gz", "qw", "qi", "qj", "qk"}

var ErrMissingColumn = errors.New("imu: missing csv column")

// CSVRecord renders s in CSVHeader order.
func (s Sample) CSVRecord() []string {
	vals := []float64{
		s.T,
		s.Accel.X, s.Accel.Y, s.Accel.Z,
		s.Gyro.X, s.Gyro.Y, s.Gyro.Z,
		s.Quat.W, s.Quat.I, s.Quat.J, s.Quat.K,
	}
	rec := make([]string, len(vals))
	for i, v := range vals {
		rec[i] = strconv.FormatFloat(v, 'g', 9, 64)
	}
	return rec
}

// ColumnIndex maps a header row to column positions. Gyro columns are
// optional; every other column of CSVHeader is required.
type ColumnIndex map[string]int

func NewColumnIndex(header []string) (ColumnIndex, error) {
	idx := ColumnIndex{}
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range []string{"t", "ax", "ay", "az", "qw", "qi", "qj", "qk"} {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}
	return idx, nil
}

// ParseRecord reads one CSV row laid out as described by idx.
func (idx ColumnIndex) ParseRecord(rec []string) (Sample, error) {
	get := func(name string) (float64, error) {
		i, ok := idx[name]
		if !ok {
			return 0, nil
		}
		if i >= len(rec) {
			return 0, fmt.Errorf("column %q: short row", name)
		}
		v, err := strconv.ParseFloat(rec[i], 64)
		if err != nil {
			return 0, fmt.Errorf("column %q: %w", name, err)
		}
		return v, nil
	}

	var vals [11]float64
	for i, name := range CSVHeader {
		v, err := get(name)
		if err != nil {
			return Sample{}, err
		}
		vals[i] = v
	}
	return Sample{
		T:     vals[0],
		Accel: Vec3{vals[1], vals[2], vals[3]},
		Gyro:  Vec3{vals[4], vals[5], vals[6]},
		Quat:  Quat{vals[7], vals[8], vals[9], vals[10]},
	}, nil
}
