// Package logx is a thin leveled wrapper over the standard library logger,
// matching the teacher's preference for bare `log.Printf` call sites over a
// third-party logging library (see DESIGN.md).
package logx

import (
	"log"
	"os"
)

var std = log.New(os.Stderr, "", log.LstdFlags)

// Debug is gated by CODEGRAPH_DEBUG so normal runs stay quiet.
func Debugf(format string, args ...any) {
	if os.Getenv("CODEGRAPH_DEBUG") == "" {
		return
	}
	std.Printf("DEBUG "+format, args...)
}

func Infof(format string, args ...any) {
	std.Printf("INFO "+format, args...)
}

func Warnf(format string, args ...any) {
	std.Printf("WARN "+format, args...)
}

func Errorf(format string, args ...any) {
	std.Printf("ERROR "+format, args...)
}
