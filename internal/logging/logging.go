// Package logging reproduces common/logging.py's "[HH:MM:SS] [LEVEL] msg"
// stderr format, but determines color capability once at process start (a
// value, not a global) per the color-TTY-detection redesign note, and
// rotates STATE/daemon.log through lumberjack for the long-running daemon.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Level is one of the four severities the original CLI emits.
type Level string

const (
	Info    Level = "INFO"
	Warning Level = "WARN"
	Error   Level = "ERROR"
	Success Level = "OK"
)

var levelStyles = map[Level]lipgloss.Color{
	Info:    lipgloss.Color("4"), // blue
	Warning: lipgloss.Color("3"), // yellow
	Error:   lipgloss.Color("1"), // red
	Success: lipgloss.Color("2"), // green
}

// Logger writes leveled, optionally colorized lines to stderr and, when a
// file destination is configured, mirrors them through a rotating file
// writer.
type Logger struct {
	color  bool
	styles map[Level]lipgloss.Style
	out    io.Writer
	file   io.Writer
}

// New builds a Logger. Color capability is probed once here (via an isatty
// check against stderr's file descriptor), never re-checked per line.
func New() *Logger {
	colorEnabled := term.IsTerminal(int(os.Stderr.Fd())) &&
		termenv.NewOutput(os.Stderr).Profile != termenv.Ascii

	styles := make(map[Level]lipgloss.Style, len(levelStyles))
	for level, color := range levelStyles {
		styles[level] = lipgloss.NewStyle().Foreground(color).Bold(true)
	}

	return &Logger{color: colorEnabled, styles: styles, out: os.Stderr}
}

// WithFile adds a rotating log-file destination at path, mirroring every
// line written to stderr. Rotation starts a new file at 10MB and keeps at
// most 5 compressed backups, each for at most 28 days.
func (l *Logger) WithFile(path string) *Logger {
	l.file = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	}
	return l
}

func (l *Logger) emit(level Level, format string, args ...interface{}) {
	ts := time.Now().UTC().Format("[15:04:05]")
	message := fmt.Sprintf(format, args...)
	plain := fmt.Sprintf("%s [%s] %s", ts, level, message)

	line := plain
	if l.color {
		line = fmt.Sprintf("%s %s %s", ts, l.styles[level].Render(fmt.Sprintf("[%s]", level)), message)
	}

	fmt.Fprintln(l.out, line)
	if l.file != nil {
		fmt.Fprintln(l.file, plain)
	}
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) { l.emit(Info, format, args...) }

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) { l.emit(Warning, format, args...) }

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) { l.emit(Error, format, args...) }

// Success logs a success message.
func (l *Logger) Success(format string, args ...interface{}) { l.emit(Success, format, args...) }
