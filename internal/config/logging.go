package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// SetupLogging applies the configured log level to the standard logrus logger
func (c *Config) SetupLogging() error {
	level := c.Log.Level
	if level == "" {
		level = "info"
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	logrus.SetLevel(parsed)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}
