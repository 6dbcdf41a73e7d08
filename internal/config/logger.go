package config

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. LOG_LEVEL picks the threshold
// (default info), LOG_PRETTY=y switches to the human console writer for
// local runs.
func NewLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(GetEnv("LOG_LEVEL", "info")))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if GetEnv("LOG_PRETTY", "n") == "y" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
