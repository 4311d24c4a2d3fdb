package logger

import "github.com/user/timelapse/pkg/ports"

// NoopLogger discards every message. It backs --quiet and most tests.
type NoopLogger struct{}

// NewNoop returns a NoopLogger.
func NewNoop() NoopLogger {
	return NoopLogger{}
}

func (NoopLogger) Debug(string, ...interface{}) {}
func (NoopLogger) Info(string, ...interface{})  {}
func (NoopLogger) Warn(string, ...interface{})  {}
func (NoopLogger) Error(string, ...interface{}) {}

// WithComponent returns l itself; there is no prefix to keep.
func (l NoopLogger) WithComponent(string) ports.Logger {
	return l
}

var (
	_ ports.Logger = NoopLogger{}
	_ ports.Logger = (*ConsoleLogger)(nil)
)
