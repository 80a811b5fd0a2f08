// Package logging builds the zap logger used across permmatch.
//
// Logs go to stderr so that --json output on stdout stays machine readable.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the level and encoding.
type Config struct {
	Level  string `koanf:"level" yaml:"level"`   // debug, info, warn, error
	Format string `koanf:"format" yaml:"format"` // console or json
}

// DefaultConfig returns info-level console logging.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "console"}
}

// Validate checks the level and format.
func (c Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Format)
	}
}

// New builds a logger that writes to stderr.
func New(cfg Config) (*zap.Logger, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter builds a logger that writes to w.
func NewWithWriter(cfg Config, w io.Writer) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := zapcore.ParseLevel(cfg.Level)
	core := zapcore.NewCore(newEncoder(cfg.Format), zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core), nil
}

// WithVerbosity adjusts cfg for the --verbose and --quiet flags. Verbose wins.
func WithVerbosity(cfg Config, verbose, quiet bool) Config {
	switch {
	case verbose:
		cfg.Level = "debug"
	case quiet:
		cfg.Level = "warn"
	}
	return cfg
}

func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}
