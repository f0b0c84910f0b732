// Package log wraps logrus with the printf-style call shape used throughout
// the service: Info/Warn/Error/Debug(format string, args ...any).
package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLevel parses and applies a level name, defaulting to info on error.
func SetLevel(name string) {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)
}

// Fields is a type alias so callers don't need to import logrus directly.
type Fields = logrus.Fields

// WithFields returns an entry pre-populated with structured fields, e.g.
// log.WithFields(log.Fields{"run_id": id}).Info("dispatching run")
func WithFields(fields Fields) *logrus.Entry {
	return base.WithFields(fields)
}

func Debug(format string, args ...any) { base.Debugf(format, args...) }
func Info(format string, args ...any)  { base.Infof(format, args...) }
func Warn(format string, args ...any)  { base.Warnf(format, args...) }
func Error(format string, args ...any) { base.Errorf(format, args...) }
