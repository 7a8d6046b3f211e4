package log

import "gopkg.in/natefinch/lumberjack.v2"

// FileAppenderOpt configures the rotated-file sink added alongside stdout.
// Sizes are in megabytes, ages in days, matching lumberjack's own units.
type FileAppenderOpt struct {
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// AddFileAppender wires a lumberjack-backed rotating file writer into the
// fan-out set and returns m for chaining.
func (m *MultiWriter) AddFileAppender(opt FileAppenderOpt) *MultiWriter {
	return m.Add(&lumberjack.Logger{
		Filename:   opt.Filename,
		MaxSize:    opt.MaxSize,
		MaxBackups: opt.MaxBackups,
		MaxAge:     opt.MaxAge,
		Compress:   opt.Compress,
	})
}
