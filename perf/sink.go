// Package perf is SILO's process-wide benchmarking point emitter, grounded
// on original_source/src/evobench/evobench.cpp's point-kind design: rather
// than a built-in tracer, instrumented call sites emit a named point of a
// given kind and let one process-wide sink decide what to do with it.
package perf

import "sync"

// EventKind mirrors evobench.cpp's point_kind_name table.
type EventKind int

const (
	// Start marks a process-lifetime point (silo.Init).
	Start EventKind = iota
	// Point is an individual, unpaired point.
	Point
	// ScopeStart marks the start of a timed scope.
	ScopeStart
	// ScopeEnd marks the end of a timed scope.
	ScopeEnd
	// End marks process exit (the shutdown func silo.Init returns).
	End
)

func (k EventKind) String() string {
	switch k {
	case Start:
		return "start"
	case Point:
		return "point"
	case ScopeStart:
		return "scopeStart"
	case ScopeEnd:
		return "scopeEnd"
	case End:
		return "end"
	default:
		return "unknown"
	}
}

// SinkFunc receives every Emit call. name identifies the instrumented call
// site (e.g. "query.compile", "mutations.position"); fields carries
// point-specific detail (partition index, row count, elapsed nanoseconds).
type SinkFunc func(name string, kind EventKind, fields map[string]interface{})

var (
	mu   sync.RWMutex
	sink SinkFunc
)

// SetSink installs the process-wide sink. silo.Init calls this; passing nil
// (as the shutdown func silo.Init returns does) makes Emit a no-op.
func SetSink(f SinkFunc) {
	mu.Lock()
	defer mu.Unlock()
	sink = f
}

// Emit reports a point to the installed sink, if any. Safe to call with no
// sink installed (tests, or before silo.Init).
func Emit(name string, kind EventKind, fields map[string]interface{}) {
	mu.RLock()
	f := sink
	mu.RUnlock()
	if f != nil {
		f(name, kind, fields)
	}
}
