// Package logger configures the logrus logger shared by every playlist2git component.
package logger

import (
	"io"
	"os"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
)

// Config for logger initialization
type Config struct {
	Level  string // trace, debug, info, warn, error
	Format string // text or json
	Debug  bool   // forces debug level regardless of Level
	Output io.Writer
}

// Configure applies level, formatter and output to log.
// Unknown levels fall back to info; unknown formats fall back to text.
func Configure(log *logrus.Logger, cfg Config) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if cfg.Debug && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		log.SetFormatter(&nested.Formatter{
			FieldsOrder:     []string{"component", "operation"},
			TimestampFormat: "2006-01-02 15:04:05",
			HideKeys:        false,
			NoColors:        cfg.Output != nil,
		})
	}

	if cfg.Output != nil {
		log.SetOutput(cfg.Output)
	} else {
		log.SetOutput(os.Stdout)
	}
}
