package shtp

import "time"

// Bus is an already-open byte channel to the sensor hub.
//
// Read fills p with up to len(p) bytes and must return no later than
// deadline. Returning 0, nil means nothing arrived in time. Write sends all
// of p or fails; a short count with a nil error is treated as an I/O fault.
type Bus interface {
	Read(p []byte, deadline time.Time) (int, error)
	Write(p []byte) (int, error)
}
