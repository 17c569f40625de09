// File: server/trace.go
// Grounded on the teacher's internal/normalize logNormalize
// convention: a package-level, replaceable func variable writing
// "[component] message" lines, the only ambient logging idiom
// anywhere in the teacher lineage. No structured logging library
// appears in the pack for this domain, so this stays stdlib-only.
package server

import (
	"fmt"
	"os"
)

// Trace is called for every connection-lifecycle transition (accepted,
// handshake-complete, frame-dispatched, closed) when debug tracing is
// enabled. Tests or embedding applications may replace it.
var Trace = func(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "[server] "+msg+"\n", args...)
}

func (s *Server) trace(msg string, args ...any) {
	if s.cfg.EnableDebug {
		Trace(msg, args...)
	}
}
