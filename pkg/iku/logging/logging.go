// Package logging provides a minimal, nil-safe logger in the style of the
// teacher's pkg/logging: a chain of prefixed subloggers backed by the
// standard log package, with colored Warn/Error helpers.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
)

func init() {
	log.SetOutput(os.Stdout)
}

// Logger is the main logger type. A nil *Logger is valid and simply discards
// everything written to it, so components can accept a possibly-nil logger
// without special-casing silent mode at every call site.
type Logger struct {
	prefix string
}

// RootLogger is the root logger from which all other loggers derive.
var RootLogger = &Logger{}

// Sublogger creates a new logger with name appended to the receiver's prefix.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}
	return &Logger{prefix: prefix}
}

func (l *Logger) output(line string) {
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	log.Output(3, line)
}

// Println logs a line with semantics equivalent to fmt.Println.
func (l *Logger) Println(v ...any) {
	if l != nil {
		l.output(fmt.Sprintln(v...))
	}
}

// Printf logs a line with semantics equivalent to fmt.Printf.
func (l *Logger) Printf(format string, v ...any) {
	if l != nil {
		l.output(fmt.Sprintf(format, v...))
	}
}

// Warn logs a non-fatal error with a yellow "Warning:" prefix.
func (l *Logger) Warn(err error) {
	if l != nil {
		l.output(color.YellowString("Warning: %v", err))
	}
}

// Warnf logs a formatted non-fatal warning.
func (l *Logger) Warnf(format string, v ...any) {
	if l != nil {
		l.output(color.YellowString("Warning: "+format, v...))
	}
}

// Error logs a fatal-class error with a red "Error:" prefix.
func (l *Logger) Error(err error) {
	if l != nil {
		l.output(color.RedString("Error: %v", err))
	}
}

// Writer returns an io.Writer that logs each line written to it via Println.
// A nil logger returns io.Discard so callers never need to nil-check first.
func (l *Logger) Writer() io.Writer {
	if l == nil {
		return io.Discard
	}
	return &lineWriter{callback: l.Println}
}

// lineWriter splits an input byte stream on newlines and forwards complete
// lines to callback, buffering any trailing partial line between writes.
type lineWriter struct {
	callback func(...any)
	buffer   []byte
}

func (w *lineWriter) Write(data []byte) (int, error) {
	w.buffer = append(w.buffer, data...)

	var processed int
	remaining := w.buffer
	for {
		index := indexByte(remaining, '\n')
		if index == -1 {
			break
		}
		w.callback(trimCarriageReturn(remaining[:index]))
		processed += index + 1
		remaining = remaining[index+1:]
	}

	if processed > 0 {
		leftover := len(w.buffer) - processed
		if leftover > 0 {
			copy(w.buffer[:leftover], w.buffer[processed:])
		}
		w.buffer = w.buffer[:leftover]
	}

	return len(data), nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func trimCarriageReturn(line []byte) string {
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return string(line)
}
