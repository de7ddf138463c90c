// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package logger defines a type for writing to logs.
package logger

import (
	"bytes"
	"log"
)

// Logf is the basic logger type: a printf-like func. Like log.Printf, the
// format need not end in a newline. Logf functions must be safe for concurrent
// use.
type Logf func(format string, args ...any)

// Write implements io.Writer, so that a Logf can receive output of external
// commands. Each write is logged as is, without a trailing newline.
func (f Logf) Write(p []byte) (int, error) {
	if f == nil {
		return len(p), nil
	}
	if s := bytes.TrimRight(p, "\n"); len(s) > 0 {
		f("%s", s)
	}
	return len(p), nil
}

// Default returns f, or log.Printf if f is nil.
func Default(f Logf) Logf {
	if f == nil {
		return log.Printf
	}
	return f
}
