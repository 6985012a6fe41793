// Package logger configures the process-wide zap logger.
package logger

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelEnv overrides the level chosen by the debug flag
const LevelEnv = "CMTGEN_LOG_LEVEL"

// Config returns a console zap config writing to stderr, so stdout stays
// clean for the commit message.
func Config(debug bool) zap.Config {
	level := zapcore.WarnLevel
	if debug {
		level = zapcore.DebugLevel
	}
	if env := os.Getenv(LevelEnv); env != "" {
		level = parseLogLevel(env, level)
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	enc.TimeKey = ""

	return zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       debug,
		DisableStacktrace: !debug,
		Encoding:          "console",
		EncoderConfig:     enc,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// Init builds the logger and installs it globally for otelzap.Ctx lookups.
// The returned function flushes it.
func Init(debug bool) (*otelzap.Logger, func(), error) {
	base, err := Config(debug).Build()
	if err != nil {
		return nil, nil, errors.Wrap(err, "building logger")
	}

	log := otelzap.New(base)
	undo := otelzap.ReplaceGlobals(log)
	undoZap := zap.ReplaceGlobals(base)

	return log, func() {
		_ = base.Sync()
		undoZap()
		undo()
	}, nil
}

func parseLogLevel(level string, fallback zapcore.Level) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE", "DEBUG":
		return zapcore.DebugLevel
	case "INFO":
		return zapcore.InfoLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return fallback
	}
}
