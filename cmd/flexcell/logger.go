package main

import (
	"fmt"
	"io"
	"log"
)

// SimpleLogger writes prefixed log lines. Debug lines are dropped unless verbose.
type SimpleLogger struct {
	prefix  string
	verbose bool
	out     *log.Logger
}

func NewSimpleLogger(w io.Writer, prefix string, verbose bool) *SimpleLogger {
	return &SimpleLogger{prefix: prefix, verbose: verbose, out: log.New(w, "", log.LstdFlags)}
}

func (l *SimpleLogger) Debugf(format string, args ...any) {
	if !l.verbose {
		return
	}
	l.out.Printf("[DEBUG] %s: %s", l.prefix, fmt.Sprintf(format, args...))
}

func (l *SimpleLogger) Infof(format string, args ...any) {
	l.out.Printf("[INFO] %s: %s", l.prefix, fmt.Sprintf(format, args...))
}

func (l *SimpleLogger) Errorf(format string, args ...any) {
	l.out.Printf("[ERROR] %s: %s", l.prefix, fmt.Sprintf(format, args...))
}
