// Package log wraps logrus behind a small Logger interface.
package log

import (
	"io"
	"sync"
)

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
	mu     sync.RWMutex
	logger Logger
)

func init() {
	l, err := newLogrusAdapter(DefaultConfig())
	if err != nil {
		panic(err)
	}
	logger = l
}

// GetLogger returns the global logger. It is never nil.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetLogger replaces the global logger.
func SetLogger(l Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// Init builds a logger from cfg and installs it globally.
func Init(cfg *LoggerConfig) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	l, err := newLogrusAdapter(cfg)
	if err != nil {
		return err
	}
	SetLogger(l)
	return nil
}

// NewWriterLogger returns a logger that writes the default pattern to w.
func NewWriterLogger(w io.Writer, level string) Logger {
	cfg := DefaultConfig()
	cfg.Level = level
	l, err := newLogrusAdapter(cfg)
	if err != nil {
		// The default console appender cannot fail.
		panic(err)
	}
	l.entry.Logger.SetOutput(w)
	return l
}
