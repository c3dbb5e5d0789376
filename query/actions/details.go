package actions

import "github.com/genspectrum/silo/storage"

// Details is the "Details" action (§6): emits every matched row's metadata
// fields (fields == nil means every non-sequence column of the schema).
type Details struct {
	Fields []string
}

func (d Details) Execute(table *storage.Table, results []PartitionResult) ([]Record, error) {
	fields := d.Fields
	if len(fields) == 0 {
		fields = table.Schema.ColumnNames()
	}
	var out []Record
	for _, r := range results {
		it := r.Bitmap.Iterator()
		for it.HasNext() {
			row := it.Next()
			rec := Record{}
			for _, f := range fields {
				v, _ := r.Partition.RowValue(table.Schema, f, row)
				rec[f] = v
			}
			out = append(out, rec)
		}
	}
	return out, nil
}
