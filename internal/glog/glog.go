// Package glog is a thin wrapper around the standard log package.
package glog

import (
	"log"
	"os"
)

// Logger is a small leveled facade over *log.Logger.
type Logger struct {
	inner *log.Logger
}

// New builds a Logger writing to stderr with a component prefix.
func New(component string) *Logger {
	return &Logger{inner: log.New(os.Stderr, "["+component+"] ", log.LstdFlags)}
}

func (l *Logger) Infof(format string, args ...any)  { l.inner.Printf("INFO  "+format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.inner.Printf("WARN  "+format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.inner.Printf("ERROR "+format, args...) }
