// Package monitoring provides the diagnostic logger shared by the filters.
package monitoring

import (
	"io"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf.
// Filters report degraded steps through it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil sets a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetOutput directs the diagnostic logger to w with the given prefix.
func SetOutput(w io.Writer, prefix string) {
	l := log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
	Logf = l.Printf
}
