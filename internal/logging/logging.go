// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/modchat/modchat/internal/config"
)

// Setup configures the global logger: leveled, human-readable console
// output outside production, and a daily-rotated log file kept for
// seven days.
func Setup(cfg config.LoggingConfig) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(normalizeLevel(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	if cfg.Debug && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	writers := make([]io.Writer, 0, 2)
	if os.Getenv("ENV") != "production" {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		writers = append(writers, os.Stderr)
	}

	if cfg.File != "" {
		rotator, err := rotatelogs.New(
			cfg.File+".%Y%m%d",
			rotatelogs.WithLinkName(cfg.File),
			rotatelogs.WithRotationTime(24*time.Hour),
			rotatelogs.WithMaxAge(7*24*time.Hour),
		)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, rotator)
	}

	log.Logger = log.Output(zerolog.MultiLevelWriter(writers...))
	return nil
}

// normalizeLevel maps the level names accepted in configuration onto
// zerolog's.
func normalizeLevel(level string) string {
	switch strings.ToLower(level) {
	case "":
		return "info"
	case "warning":
		return "warn"
	case "critical":
		return "fatal"
	default:
		return strings.ToLower(level)
	}
}
