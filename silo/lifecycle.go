// Package silo bounds the process-wide state a silo-query process needs
// outside of any single request: the worker pool size and the perf.Sink
// callback, in the same Init/shutdown shape as the teacher's grail.Init.
package silo

import (
	"runtime"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/genspectrum/silo/config"
	"github.com/genspectrum/silo/perf"
)

var workerPoolSize int

// Init sets up the process: delegates to grail.Init for grailbio's own
// ambient setup (flag parsing completion, profiling hooks), resolves the
// worker pool size, and installs a perf.Sink that logs every point at debug
// level. It returns a shutdown func the caller must defer.
func Init(opts *config.Opts) func() {
	grailShutdown := grail.Init()

	n := opts.WorkerPoolSize
	if n <= 0 {
		n = runtime.NumCPU()
	}
	workerPoolSize = n

	perf.SetSink(logSink)
	perf.Emit("silo.init", perf.Start, map[string]interface{}{"workers": n})
	log.Printf("silo: initialized with %d query workers", n)

	return func() {
		perf.Emit("silo.shutdown", perf.End, nil)
		perf.SetSink(nil)
		grailShutdown()
	}
}

// WorkerPoolSize returns the pool size resolved by Init, for traverse.Each
// callers that want to cap fan-out explicitly rather than rely on
// traverse's own default.
func WorkerPoolSize() int {
	return workerPoolSize
}

func logSink(name string, kind perf.EventKind, fields map[string]interface{}) {
	log.Debug.Printf("perf: %s[%s] %v", name, kind, fields)
}
