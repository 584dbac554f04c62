package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/imu_gesture/internal/config"
)

// LoadConfig initializes the global config and logging. A default path
// that does not exist falls back to built-in defaults; a path given
// explicitly must exist.
func LoadConfig(path string, explicit bool) error {
	if !explicit {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	if err := config.InitGlobal(path); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	SetupLogging(config.Get())
	if path == "" {
		log.Debug("config: no config file, using defaults and environment")
	} else {
		log.Debugf("config: loaded %s", path)
	}
	return nil
}

// SetupLogging applies the configured level and format to the standard
// logrus logger. Logs go to stderr so stdout stays machine readable.
func SetupLogging(cfg *config.Config) {
	log.SetOutput(os.Stderr)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("config: invalid LOG_LEVEL %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
