// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package process

import (
	"os"
	"runtime"

	"github.com/spf13/pflag"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Error is a process error class.
var Error = errs.Class("process")

// LogConfig configures the process logger.
type LogConfig struct {
	Level       string
	Development bool
	Caller      bool
	Stack       bool
	Encoding    string
	Output      string
}

// Log holds the logging flags of the running command.
var Log = LogConfig{
	Level:    "info",
	Encoding: "console",
	Output:   "stderr",
}

// BindLogFlags registers the logging flags on flags.
func BindLogFlags(flags *pflag.FlagSet) {
	flags.StringVar(&Log.Level, "log.level", Log.Level, "the minimum log level to log")
	flags.BoolVar(&Log.Development, "log.development", Log.Development, "if true, set logging to development mode")
	flags.BoolVar(&Log.Caller, "log.caller", Log.Caller, "if true, log function filename and line number")
	flags.BoolVar(&Log.Stack, "log.stack", Log.Stack, "if true, log stack traces")
	flags.StringVar(&Log.Encoding, "log.encoding", Log.Encoding, "configures log encoding. can either be 'console' or 'json'")
	flags.StringVar(&Log.Output, "log.output", Log.Output, "can be stdout, stderr, or a filename")
}

// NewLogger creates a new logger configured by the process flags.
func NewLogger() (*zap.Logger, error) {
	return Log.Build(Log.Output)
}

// Build creates a logger writing to outputPaths.
func (config LogConfig) Build(outputPaths ...string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	levelEncoder := zapcore.CapitalColorLevelEncoder
	if runtime.GOOS == "windows" || config.Encoding == "json" {
		levelEncoder = zapcore.CapitalLevelEncoder
	}

	timeKey := "T"
	if os.Getenv("TIERED_LOG_NOTIME") != "" {
		timeKey = ""
	}

	log, err := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       config.Development,
		DisableCaller:     !config.Caller,
		DisableStacktrace: !config.Stack,
		Encoding:          config.Encoding,
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        timeKey,
			LevelKey:       "L",
			NameKey:        "N",
			CallerKey:      "C",
			MessageKey:     "M",
			StacktraceKey:  "S",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    levelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      outputPaths,
		ErrorOutputPaths: outputPaths,
	}.Build()
	return log, Error.Wrap(err)
}
