package bus

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/imu_gesture/internal/shtp"
)

// Serial reads a raw SHTP byte stream from a serial port, as forwarded by
// a USB bridge microcontroller sitting on the hub's I2C or SPI lines.
//
// The port is opened non-blocking with a 100 ms inter-character timeout,
// so a Read may return up to that long after its deadline.
type Serial struct {
	port io.ReadWriteCloser
	name string
}

func OpenSerial(name string, baud uint) (*Serial, error) {
	options := serial.OpenOptions{
		PortName:              name,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       0,
		InterCharacterTimeout: 100,
	}
	port, err := serial.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	return &Serial{port: port, name: name}, nil
}

func (s *Serial) String() string { return "serial(" + s.name + ")" }

func (s *Serial) Read(p []byte, deadline time.Time) (int, error) {
	if s.port == nil {
		return 0, shtp.ErrNotOpen
	}
	for {
		n, err := s.port.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("serial read: %w", err)
		}
		if !time.Now().Before(deadline) {
			return 0, nil
		}
	}
}

func (s *Serial) Write(p []byte) (int, error) {
	if s.port == nil {
		return 0, shtp.ErrNotOpen
	}
	n, err := s.port.Write(p)
	if err != nil {
		return n, fmt.Errorf("serial write: %w", err)
	}
	return n, nil
}

func (s *Serial) Close() error {
	if s.port == nil {
		return shtp.ErrNotOpen
	}
	err := s.port.Close()
	s.port = nil
	return err
}
