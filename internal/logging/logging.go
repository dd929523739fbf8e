// Package logging implements the "leveled logger" capability the core
// consumes: format, color, and file/stdout redirection are its concern, not
// the core's.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pterm/pterm"
)

// Logger is the capability the rest of this codebase depends on. The
// default implementation below renders the fixed log line format and
// colorizes the level tag with pterm when writing to a terminal.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Fatalf(code int, format string, args ...any)
	SetOutput(w io.Writer)
	WithPrefix(prefix string) Logger
}

type level struct {
	name  string
	style *pterm.Style
}

var (
	levelDebug = level{name: "DEBUG", style: pterm.NewStyle(pterm.FgCyan)}
	levelInfo  = level{name: "INFO", style: pterm.NewStyle(pterm.FgLightBlue)}
	levelWarn  = level{name: "WARN", style: pterm.NewStyle(pterm.FgYellow)}
	levelError = level{name: "ERROR", style: pterm.NewStyle(pterm.FgRed)}
	levelFatal = level{name: "FATAL", style: pterm.NewStyle(pterm.FgRed, pterm.Bold)}
)

// DefaultPrefix is the fallback component tag used before daemon mode or a
// role flag narrows it (spec: default prefix "EP").
const DefaultPrefix = "EP"

type defaultLogger struct {
	mu     sync.Mutex
	out    io.Writer
	prefix string
}

// New builds a Logger writing to stdout with the default prefix.
func New() Logger {
	return &defaultLogger{out: os.Stdout, prefix: DefaultPrefix}
}

func (l *defaultLogger) write(lv level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	datetime := time.Now().Format("2006-01-02 15:04:05")
	tag := lv.name
	if pterm.PrintColor {
		tag = lv.style.Sprint(lv.name)
	}
	fmt.Fprintf(l.out, "[%s] [%s] (%s): %s\n", datetime, tag, l.prefix, msg)
}

func (l *defaultLogger) Debugf(format string, args ...any) { l.write(levelDebug, format, args...) }
func (l *defaultLogger) Infof(format string, args ...any)  { l.write(levelInfo, format, args...) }
func (l *defaultLogger) Warnf(format string, args ...any)  { l.write(levelWarn, format, args...) }
func (l *defaultLogger) Errorf(format string, args ...any) { l.write(levelError, format, args...) }

// Fatalf logs at fatal level then terminates the process with code, mirroring
// Panic in spec.md §7: log at fatal level, exit nonzero.
func (l *defaultLogger) Fatalf(code int, format string, args ...any) {
	l.write(levelFatal, format, args...)
	os.Exit(code)
}

func (l *defaultLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

// WithPrefix returns a new Logger sharing the same output but reporting
// under a different component prefix (e.g. "RP", "RPd", "EPd").
func (l *defaultLogger) WithPrefix(prefix string) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &defaultLogger{out: l.out, prefix: prefix}
}

// MultiWriter is a small helper for daemon mode, where log lines go to both
// the log file and stdout.
func MultiWriter(writers ...io.Writer) io.Writer {
	return io.MultiWriter(writers...)
}
