package ebytes

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger atomic.Pointer[zap.Logger]

func init() {
	logger.Store(zap.NewNop())
}

// Logger returns the package logger. It is a no-op logger unless SetLogger
// installed one.
func Logger() *zap.Logger {
	return logger.Load()
}

// SetLogger replaces the package logger; nil restores the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l.Named("ebytes"))
}

// debug logs only when debug level is enabled, so callers on slow paths can
// pass fields without building them for the no-op logger.
func debug(msg string, fields ...zapcore.Field) {
	if ce := logger.Load().Check(zapcore.DebugLevel, msg); ce != nil {
		ce.Write(fields...)
	}
}
