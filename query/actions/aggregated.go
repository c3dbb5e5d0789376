package actions

import (
	"github.com/genspectrum/silo/storage"
)

// Aggregated is the "Aggregated" action (§6): counts matched rows, grouped
// by groupByFields (empty = a single overall count).
type Aggregated struct {
	GroupByFields []string
}

func (a Aggregated) Execute(table *storage.Table, results []PartitionResult) ([]Record, error) {
	if len(a.GroupByFields) == 0 {
		var total uint64
		for _, r := range results {
			total += r.Bitmap.GetCardinality()
		}
		return []Record{{"count": total}}, nil
	}

	type groupKey string
	counts := make(map[groupKey]uint64)
	values := make(map[groupKey]Record)
	for _, r := range results {
		it := r.Bitmap.Iterator()
		for it.HasNext() {
			row := it.Next()
			key, fields := groupKeyFor(r.Partition, table.Schema, a.GroupByFields, row)
			counts[groupKey(key)]++
			if _, ok := values[groupKey(key)]; !ok {
				values[groupKey(key)] = fields
			}
		}
	}
	out := make([]Record, 0, len(counts))
	for key, count := range counts {
		rec := Record{}
		for k, v := range values[key] {
			rec[k] = v
		}
		rec["count"] = count
		out = append(out, rec)
	}
	return out, nil
}

// groupKeyFor builds a deterministic string key plus the corresponding field
// Record for one row's group-by tuple.
func groupKeyFor(partition *storage.TablePartition, schema *storage.Schema, fields []string, row uint32) (string, Record) {
	rec := Record{}
	key := ""
	for _, f := range fields {
		v, _ := partition.RowValue(schema, f, row)
		rec[f] = v
		key += f + "=" + toKeyString(v) + "\x1f"
	}
	return key, rec
}

func toKeyString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "\x00"
	case string:
		return t
	default:
		return stringify(t)
	}
}
