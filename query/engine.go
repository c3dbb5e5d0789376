package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/grailbio/base/traverse"

	"github.com/genspectrum/silo/query/actions"
	"github.com/genspectrum/silo/query/filter"
	"github.com/genspectrum/silo/query/qerr"
	"github.com/genspectrum/silo/storage"
)

// Engine executes parsed requests against a Table (§4.9).
type Engine struct {
	Table *storage.Table
}

// NewEngine returns an Engine over table.
func NewEngine(table *storage.Table) *Engine {
	return &Engine{Table: table}
}

// Execute runs expr/action over every partition in parallel, then applies
// opts.OrderBy/Limit/Offset to the aggregated output (§4.9, §5).
func (e *Engine) Execute(ctx context.Context, expr filter.Expression, action actions.Action, opts actionOptions) ([]actions.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, qerr.Newf(qerr.Cancelled, "request cancelled before execution")
	}

	results := make([]actions.PartitionResult, len(e.Table.Partitions))
	err := traverse.Each(len(e.Table.Partitions), func(i int) error {
		if err := ctx.Err(); err != nil {
			return cancellationError(err)
		}
		partition := e.Table.Partitions[i]
		op, err := expr.Compile(e.Table, partition, filter.None)
		if err != nil {
			return err
		}
		bm := op.Evaluate()
		results[i] = actions.PartitionResult{Partition: partition, Bitmap: bm.Bitmap()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, cancellationError(err)
	}

	records, err := action.Execute(e.Table, results)
	if err != nil {
		return nil, err
	}

	sortRecords(records, opts.OrderBy)
	return paginate(records, opts.Limit, opts.Offset), nil
}

func cancellationError(err error) error {
	if err == context.DeadlineExceeded {
		return qerr.Newf(qerr.Timeout, "query deadline exceeded")
	}
	return qerr.Newf(qerr.Cancelled, "query cancelled: %s", err)
}

func paginate(records []actions.Record, limit, offset *int) []actions.Record {
	start := 0
	if offset != nil && *offset > 0 {
		start = *offset
	}
	if start >= len(records) {
		return nil
	}
	records = records[start:]
	if limit != nil && *limit < len(records) {
		records = records[:*limit]
	}
	return records
}

// sortRecords stable-sorts records by fields, root-most field first, each
// direction per its Desc flag (§5: "order_by_fields... sorted after
// aggregation").
func sortRecords(records []actions.Record, fields []orderField) {
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		for _, f := range fields {
			cmp := compareValues(records[i][f.Field], records[j][f.Field])
			if cmp == 0 {
				continue
			}
			if f.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// compareValues orders two record values: nil sorts first, then numbers,
// strings and bools compare natively; mismatched types fall back to string
// comparison so sorting never panics on heterogeneous action output.
func compareValues(a, b interface{}) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	switch av := a.(type) {
	case int:
		if bv, ok := b.(int); ok {
			return compareInt64(int64(av), int64(bv))
		}
	case uint64:
		if bv, ok := b.(uint64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return compareInt64(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return compareFloat64(av, bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return compareString(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			return compareBool(av, bv)
		}
	}
	return compareString(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}
