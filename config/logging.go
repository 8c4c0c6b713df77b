package config

import (
	"os"

	"github.com/phuslu/log"
)

// NewLogger builds the process logger, format json writes one object per line to stderr.
func NewLogger(cfg LoggingConfig) *log.Logger {
	logger := &log.Logger{
		Level:      log.ParseLevel(cfg.Level),
		TimeFormat: "2006-01-02T15:04:05Z07:00",
	}

	if cfg.Format == "json" {
		logger.Writer = &log.IOWriter{Writer: os.Stderr}
	} else {
		logger.Writer = &log.ConsoleWriter{
			Writer:         os.Stderr,
			ColorOutput:    log.IsTerminal(os.Stderr.Fd()),
			QuoteString:    true,
			EndWithMessage: true,
		}
	}

	return logger
}
