package bus

import (
	"fmt"
	"io"

	"github.com/relabs-tech/imu_gesture/internal/config"
	"github.com/relabs-tech/imu_gesture/internal/orientation"
	"github.com/relabs-tech/imu_gesture/internal/shtp"
)

// Device is an open bus the caller must close.
type Device interface {
	shtp.Bus
	io.Closer
}

// Open opens the bus selected by cfg.BusType.
func Open(cfg *config.Config) (Device, error) {
	switch cfg.BusType {
	case config.BusI2C:
		return OpenI2C(cfg.I2CBus, cfg.I2CAddr, cfg.MaxFrameSize)
	case config.BusSerial:
		return OpenSerial(cfg.SerialPort, cfg.SerialBaudRate)
	case config.BusSim:
		return NewSim(orientation.NewMockSource()), nil
	default:
		return nil, fmt.Errorf("unknown bus type %q", cfg.BusType)
	}
}
