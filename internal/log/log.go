// Package log wires a single process-wide structured logger on top of
// logrus, exposed through the narrow Logger interface so call sites never
// depend on logrus types directly.
package log

import "sync"

// Logger is the narrow logging surface every package in this module calls
// through. Swapping the backing implementation (e.g. for tests) only
// requires satisfying this interface, not logrus's full API.
type Logger interface {
	Print(args ...interface{})
	Printf(format string, args ...interface{})

	Trace(args ...interface{})
	Tracef(format string, args ...interface{})

	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})

	Panic(args ...interface{})
	Panicf(format string, args ...interface{})

	WithField(field string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	IsTraceEnabled() bool
	IsDebugEnabled() bool
	IsInfoEnabled() bool
}

var (
	once   sync.Once
	logger Logger
)

// GetLogger returns the process-wide logger. Init must have run first;
// callers in this module always run behind cmd's startup path, which calls
// Init before anything logs.
func GetLogger() Logger {
	return logger
}

// Init builds the process-wide logger from cfg. Only the first call takes
// effect — later calls are no-ops, matching the once-per-process lifetime
// of the global logger.
func Init(cfg *LoggerConfig) {
	once.Do(func() {
		if err := initByConfig(cfg); err != nil {
			panic(err)
		}
	})
}
