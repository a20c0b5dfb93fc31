package transport

import (
	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// waLogger routes whatsmeow logs into zap.
type waLogger struct {
	s *zap.SugaredLogger
}

func newWALogger(logger *zap.Logger, level string) waLog.Logger {
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		logger = logger.WithOptions(zap.IncreaseLevel(lvl))
	}
	return waLogger{s: logger.Sugar()}
}

func (l waLogger) Errorf(msg string, args ...interface{}) { l.s.Errorf(msg, args...) }
func (l waLogger) Warnf(msg string, args ...interface{})  { l.s.Warnf(msg, args...) }
func (l waLogger) Infof(msg string, args ...interface{})  { l.s.Infof(msg, args...) }
func (l waLogger) Debugf(msg string, args ...interface{}) { l.s.Debugf(msg, args...) }

func (l waLogger) Sub(module string) waLog.Logger {
	return waLogger{s: l.s.Named(module)}
}
