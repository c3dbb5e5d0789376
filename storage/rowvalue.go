package storage

import "time"

// epochDay formats a DateColumn's int32 days-since-epoch value as
// "YYYY-MM-DD", the wire format actions emit metadata dates in.
func epochDay(days int32) string {
	return time.Unix(0, 0).UTC().AddDate(0, 0, int(days)).Format("2006-01-02")
}

// RowValue returns column name's value at row, as a JSON-marshalable Go
// value, dispatching on schema's declared type for name. ok is false if name
// is not a non-sequence column of schema.
func (p *TablePartition) RowValue(schema *Schema, name string, row uint32) (value interface{}, ok bool) {
	col, found := schema.Column(name)
	if !found || col.IsSequence {
		return nil, false
	}
	switch col.Type {
	case ColumnDate:
		c := p.dateColumns[name]
		if c.Values[row] < 0 {
			return nil, true
		}
		return epochDay(c.Values[row]), true
	case ColumnInt:
		c := p.intColumns[name]
		if c.Null.Contains(row) {
			return nil, true
		}
		return c.Values[row], true
	case ColumnFloat:
		c := p.floatColumns[name]
		if c.Null.Contains(row) {
			return nil, true
		}
		return c.Values[row], true
	case ColumnBool:
		c := p.boolColumns[name]
		if c.Null.Contains(row) {
			return nil, true
		}
		return c.True.Contains(row), true
	case ColumnString:
		c := p.stringColumns[name]
		if c.Null.Contains(row) {
			return nil, true
		}
		return c.Values[row], true
	case ColumnIndexedString:
		c := p.indexedStringColumns[name]
		id := c.RowToDict[row]
		if id < 0 {
			return nil, true
		}
		return c.Value(id), true
	case ColumnLineage:
		c := p.lineageColumns[name]
		id := c.RowToDict[row]
		if id < 0 {
			return nil, true
		}
		return c.Value(id), true
	default:
		return nil, false
	}
}
