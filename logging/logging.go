// Package logging builds the zerolog logger of the finmon commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config of the logger.
type Config struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error disabled"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"` // json or console
	Output string `yaml:"output" default:"stderr"`                                // stdout, stderr, or file path
}

// New returns a logger for cfg, and the closer of its output. Files are
// opened in append mode, the standard streams are never closed.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("invalid log level: %w", err)
	}

	var output io.WriteCloser
	switch cfg.Output {
	case "", "stderr":
		output = nopCloser{os.Stderr}
	case "stdout":
		output = nopCloser{os.Stdout}
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("could not open log file: %w", err)
		}
		output = file
	}
	return build(output, cfg.Format, level), output, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func build(output io.Writer, format string, level zerolog.Level) zerolog.Logger {
	if format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}
