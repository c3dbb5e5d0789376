package config

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterFlagsDefaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	opts := RegisterFlags(fs)
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}

	assert.Equal(t, 0, opts.WorkerPoolSize)
	assert.Equal(t, "none", opts.DefaultAmbiguityMode)
	assert.Equal(t, 0.05, opts.MutationProportionDefault)
	assert.Equal(t, ":8081", opts.ListenAddress)
}

func TestRegisterFlagsParsesOverrides(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	opts := RegisterFlags(fs)
	err := fs.Parse([]string{
		"-parallelism=4",
		"-default-ambiguity-mode=upperBound",
		"-mutation-min-proportion=0.2",
		"-listen=:9090",
	})
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}

	assert.Equal(t, 4, opts.WorkerPoolSize)
	assert.Equal(t, "upperBound", opts.DefaultAmbiguityMode)
	assert.Equal(t, 0.2, opts.MutationProportionDefault)
	assert.Equal(t, ":9090", opts.ListenAddress)
}
