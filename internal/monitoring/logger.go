// Package monitoring holds the diagnostic logger used by the search stage
// and the command line tools.
package monitoring

import (
	"fmt"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Capture redirects Logf into the returned slice until restore is called.
// It is meant for tests asserting on progress messages.
func Capture() (lines *[]string, restore func()) {
	original := Logf
	var out []string
	Logf = func(format string, v ...interface{}) {
		out = append(out, fmt.Sprintf(format, v...))
	}
	return &out, func() { Logf = original }
}
