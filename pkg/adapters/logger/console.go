// Package logger provides logging implementations.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"

	"github.com/user/timelapse/pkg/ports"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

var levelColors = map[ports.LogLevel]string{
	ports.LevelDebug: colorGray,
	ports.LevelWarn:  colorYellow,
	ports.LevelError: colorRed,
}

// console is the destination shared by a logger and its component loggers.
// The ffmpeg reader goroutine logs concurrently with the driver.
type console struct {
	mu     sync.Mutex
	color  bool
	out    io.Writer // debug and info
	errOut io.Writer // warn and error
}

// ConsoleLogger logs messages to the console with color support.
type ConsoleLogger struct {
	level     ports.LogLevel
	component string
	dst       *console
}

// NewConsole creates a new console logger with the specified level.
// Color output is automatically enabled when stdout is a terminal.
func NewConsole(level ports.LogLevel) *ConsoleLogger {
	fd := os.Stdout.Fd()
	return &ConsoleLogger{
		level: level,
		dst: &console{
			color:  isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
			out:    os.Stdout,
			errOut: os.Stderr,
		},
	}
}

// NewConsoleWriter creates a console logger that writes every level to w
// without color.
func NewConsoleWriter(level ports.LogLevel, w io.Writer) *ConsoleLogger {
	return &ConsoleLogger{level: level, dst: &console{out: w, errOut: w}}
}

// Debug logs per-frame details.
func (l *ConsoleLogger) Debug(msg string, args ...interface{}) {
	l.log(ports.LevelDebug, msg, args...)
}

// Info logs run progress.
func (l *ConsoleLogger) Info(msg string, args ...interface{}) {
	l.log(ports.LevelInfo, msg, args...)
}

// Warn logs a recoverable problem.
func (l *ConsoleLogger) Warn(msg string, args ...interface{}) {
	l.log(ports.LevelWarn, msg, args...)
}

// Error logs a failure.
func (l *ConsoleLogger) Error(msg string, args ...interface{}) {
	l.log(ports.LevelError, msg, args...)
}

// WithComponent returns a logger that prefixes messages with component.
// It shares the level and destination of l.
func (l *ConsoleLogger) WithComponent(component string) ports.Logger {
	return &ConsoleLogger{level: l.level, component: component, dst: l.dst}
}

// log translates msg with go-l10n and writes one line.
func (l *ConsoleLogger) log(level ports.LogLevel, msg string, args ...interface{}) {
	if level < l.level {
		return
	}
	text := l10n.F(msg, args...)
	color := l.dst.color

	var line string
	switch {
	case l.component == "":
		line = text
	case color:
		line = fmt.Sprintf("%s[%s]%s %s", colorCyan, l.component, colorReset, text)
	default:
		line = fmt.Sprintf("[%s] %s", l.component, text)
	}
	if c, ok := levelColors[level]; ok && color {
		line = c + line + colorReset
	}

	w := l.dst.out
	if level >= ports.LevelWarn {
		w = l.dst.errOut
	}
	l.dst.mu.Lock()
	defer l.dst.mu.Unlock()
	fmt.Fprintln(w, line)
}
