// Package actions implements the §6 Action family: the result-producing
// stage that turns each partition's compiled filter bitmap into output
// records, after query/filter has decided which rows matched.
package actions

import (
	"github.com/genspectrum/silo/bitmap"
	"github.com/genspectrum/silo/storage"
)

// Record is one output row, keyed by output field name. Values are
// JSON-marshalable directly (string, float64, int64, bool, nil, or nested
// Record/[]Record for structured outputs).
type Record map[string]interface{}

// PartitionResult pairs a table partition with its compiled filter's result
// bitmap (§4.9 step 3), the input every Action consumes.
type PartitionResult struct {
	Partition *storage.TablePartition
	Bitmap    *bitmap.Bitmap
}

// Action is a parsed, not-yet-executed action node (§6's tagged JSON union).
type Action interface {
	// Execute consumes every partition's filtered bitmap and produces the
	// action's output rows. Ordering/limit/offset are applied afterwards by
	// the caller (query.Engine), per §5's "sorted after aggregation" rule.
	Execute(table *storage.Table, results []PartitionResult) ([]Record, error)
}
