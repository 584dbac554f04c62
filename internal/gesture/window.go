package gesture

import "github.com/relabs-tech/imu_gesture/internal/imu"

// sample is one buffered observation with acceleration already in the
// world frame.
type sample struct {
	t     float64
	accel imu.Vec3
	quat  imu.Quat
}

// window is an ordered, index-addressable queue of samples. Old samples
// leave from the front by timestamp, not by count.
type window struct {
	buf  []sample
	head int
}

func (w *window) push(s sample) {
	w.buf = append(w.buf, s)
}

// evict drops front samples more than span seconds older than t.
func (w *window) evict(t, span float64) {
	for w.len() > 0 && t-w.at(0).t > span {
		w.head++
	}
	if w.head == len(w.buf) {
		w.buf = w.buf[:0]
		w.head = 0
	} else if w.head > 64 && 2*w.head > len(w.buf) {
		n := copy(w.buf, w.buf[w.head:])
		w.buf = w.buf[:n]
		w.head = 0
	}
}

func (w *window) len() int { return len(w.buf) - w.head }

func (w *window) at(i int) sample { return w.buf[w.head+i] }

func (w *window) back() sample { return w.buf[len(w.buf)-1] }

// mean averages the samples within span seconds of the oldest one.
func (w *window) mean(span float64) (imu.Vec3, int) {
	var sum imu.Vec3
	n := 0
	if w.len() == 0 {
		return sum, 0
	}
	t0 := w.at(0).t
	for i := 0; i < w.len(); i++ {
		s := w.at(i)
		if s.t-t0 > span {
			break
		}
		sum = sum.Add(s.accel)
		n++
	}
	if n == 0 {
		return sum, 0
	}
	return sum.Scale(1 / float64(n)), n
}

// peak returns the index of the sample from minT on whose acceleration is
// furthest from baseline, and that distance. idx is -1 if none qualifies.
func (w *window) peak(baseline imu.Vec3, minT float64) (idx int, mag float64) {
	idx, mag = -1, -1
	for i := 0; i < w.len(); i++ {
		s := w.at(i)
		if s.t < minT {
			continue
		}
		if m := s.accel.Sub(baseline).Norm(); m > mag {
			idx, mag = i, m
		}
	}
	return idx, mag
}

// span returns the half-open index range [start, end) of samples whose
// timestamps fall in [from, to].
func (w *window) span(from, to float64) (start, end int) {
	for start < w.len() && w.at(start).t < from {
		start++
	}
	end = start
	for end < w.len() && w.at(end).t <= to {
		end++
	}
	return start, end
}

// integrate sums (a - baseline)·dt over [start, end) using the later sample
// of each pair. Pairs whose dynamic acceleration is below minDyn are skipped.
func (w *window) integrate(start, end int, baseline imu.Vec3, minDyn float64) (dv imu.Vec3, duration float64) {
	if end-start < 1 {
		return dv, 0
	}
	duration = w.at(end-1).t - w.at(start).t
	for i := start + 1; i < end; i++ {
		prev, curr := w.at(i-1), w.at(i)
		dt := curr.t - prev.t
		if dt <= 0 {
			continue
		}
		dyn := curr.accel.Sub(baseline)
		if dyn.Norm() < minDyn {
			continue
		}
		dv = dv.Add(dyn.Scale(dt))
	}
	return dv, duration
}
