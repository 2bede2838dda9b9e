// Package logger configures the process-wide zap logger used by every
// cellarman command. Libraries log through the package-level helpers so
// they stay free of logger plumbing.
package logger

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Initialize builds the global logger. With unstructured output (the
// default for interactive use) messages go to stderr with a short
// human-readable format; setting CELLARMAN_UNSTRUCTURED_LOGS=false
// switches to JSON production output on stdout. Verbose lowers the
// level to debug.
func Initialize(verbose bool) {
	initialize(os.Getenv("CELLARMAN_UNSTRUCTURED_LOGS"), verbose)
}

func initialize(unstructuredEnv string, verbose bool) {
	var config zap.Config
	if unstructuredLogs(unstructuredEnv) {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.Kitchen)
		config.OutputPaths = []string{"stderr"}
		config.DisableStacktrace = true
		config.DisableCaller = true
	} else {
		config = zap.NewProductionConfig()
		config.OutputPaths = []string{"stdout"}
	}

	if verbose {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	zap.ReplaceGlobals(zap.Must(config.Build()))
}

// unstructuredLogs reports whether log output should stay human
// readable. An unset or unparsable value means unstructured.
func unstructuredLogs(value string) bool {
	unstructured, err := strconv.ParseBool(value)
	if err != nil {
		return true
	}
	return unstructured
}

// Sync flushes buffered log entries. Called before process exit.
func Sync() {
	_ = zap.S().Sync()
}

// Debugf logs a formatted message at debug level.
func Debugf(msg string, args ...any) {
	zap.S().Debugf(msg, args...)
}

// Infof logs a formatted message at info level.
func Infof(msg string, args ...any) {
	zap.S().Infof(msg, args...)
}

// Warnf logs a formatted message at warning level.
func Warnf(msg string, args ...any) {
	zap.S().Warnf(msg, args...)
}

// Errorf logs a formatted message at error level.
func Errorf(msg string, args ...any) {
	zap.S().Errorf(msg, args...)
}

// Debugw logs a message at debug level with key-value pairs.
func Debugw(msg string, keysAndValues ...any) {
	zap.S().Debugw(msg, keysAndValues...)
}

// Infow logs a message at info level with key-value pairs.
func Infow(msg string, keysAndValues ...any) {
	zap.S().Infow(msg, keysAndValues...)
}

// Warnw logs a message at warning level with key-value pairs.
func Warnw(msg string, keysAndValues ...any) {
	zap.S().Warnw(msg, keysAndValues...)
}

// Errorw logs a message at error level with key-value pairs.
func Errorw(msg string, keysAndValues ...any) {
	zap.S().Errorw(msg, keysAndValues...)
}
