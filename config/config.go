// Package config holds the small set of process-wide knobs SILO's query
// path and worker pool read at startup, in the teacher's flag-based CLI
// idiom (cmd/bio-pileup/main.go's Opts pattern).
package config

import "flag"

// Opts is the parsed commandline configuration for a silo-query process.
type Opts struct {
	// WorkerPoolSize is resolved by silo.Init (0 means runtime.NumCPU()) and
	// reported by silo.WorkerPoolSize; the traverse.Each fan-outs in query
	// and storage do not read it.
	WorkerPoolSize int
	// DefaultAmbiguityMode is a filter.Mode name ("none", "lowerBound",
	// "upperBound"). It is parsed and stored only: the query engine always
	// compiles a request's top-level expression with filter.None.
	DefaultAmbiguityMode string
	// MutationProportionDefault is parsed and stored only: the Mutations
	// action uses 0 when a request omits minProportion.
	MutationProportionDefault float64
	// ListenAddress is parsed and stored only: silo-query runs no HTTP
	// server.
	ListenAddress string
}

// RegisterFlags binds Opts's fields to fs, mirroring bio-pileup's top-level
// flag.* variable declarations.
func RegisterFlags(fs *flag.FlagSet) *Opts {
	o := &Opts{}
	fs.IntVar(&o.WorkerPoolSize, "parallelism", 0, "Worker pool size reported by silo.WorkerPoolSize; 0 = runtime.NumCPU()")
	fs.StringVar(&o.DefaultAmbiguityMode, "default-ambiguity-mode", "none", "Ambiguity mode name: 'none', 'lowerBound', or 'upperBound' (stored; queries compile with 'none')")
	fs.Float64Var(&o.MutationProportionDefault, "mutation-min-proportion", 0.05, "Mutations minProportion default (stored; the Mutations action uses 0 when a request omits it)")
	fs.StringVar(&o.ListenAddress, "listen", ":8081", "Listen address (stored; silo-query runs no HTTP server)")
	return o
}
