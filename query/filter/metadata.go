package filter

import (
	"regexp"

	"github.com/genspectrum/silo/query/operators"
	"github.com/genspectrum/silo/query/qerr"
	"github.com/genspectrum/silo/storage"
)

// DateBetween is the "DateBetween" filter (§6): column, From/To (days since
// epoch, nil = unbounded).
type DateBetween struct {
	Column   string
	From, To *int32
}

func (d DateBetween) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	col, ok := partition.DateColumn(d.Column)
	if !ok {
		return nil, badColumn(table, d.Column)
	}
	n := partition.RowCount()
	pred := func(row uint32) bool {
		v := col.Values[row]
		if v < 0 {
			return false // null
		}
		if d.From != nil && v < *d.From {
			return false
		}
		if d.To != nil && v > *d.To {
			return false
		}
		return true
	}
	return operators.NewSelection([]operators.Predicate{pred}, nil, n), nil
}

// IntBetween is the "IntBetween" filter.
type IntBetween struct {
	Column   string
	From, To *int64
}

func (f IntBetween) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	col, ok := partition.IntColumn(f.Column)
	if !ok {
		return nil, badColumn(table, f.Column)
	}
	n := partition.RowCount()
	pred := func(row uint32) bool {
		if col.Null.Contains(row) {
			return false
		}
		v := col.Values[row]
		if f.From != nil && v < *f.From {
			return false
		}
		if f.To != nil && v > *f.To {
			return false
		}
		return true
	}
	return operators.NewSelection([]operators.Predicate{pred}, nil, n), nil
}

// IntEquals is the "IntEquals" filter.
type IntEquals struct {
	Column string
	Value  int64
}

func (f IntEquals) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	col, ok := partition.IntColumn(f.Column)
	if !ok {
		return nil, badColumn(table, f.Column)
	}
	n := partition.RowCount()
	pred := func(row uint32) bool {
		return !col.Null.Contains(row) && col.Values[row] == f.Value
	}
	return operators.NewSelection([]operators.Predicate{pred}, nil, n), nil
}

// FloatBetween is the "FloatBetween" filter.
type FloatBetween struct {
	Column   string
	From, To *float64
}

func (f FloatBetween) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	col, ok := partition.FloatColumn(f.Column)
	if !ok {
		return nil, badColumn(table, f.Column)
	}
	n := partition.RowCount()
	pred := func(row uint32) bool {
		if col.Null.Contains(row) {
			return false
		}
		v := col.Values[row]
		if f.From != nil && v < *f.From {
			return false
		}
		if f.To != nil && v > *f.To {
			return false
		}
		return true
	}
	return operators.NewSelection([]operators.Predicate{pred}, nil, n), nil
}

// FloatEquals is the "FloatEquals" filter.
type FloatEquals struct {
	Column string
	Value  float64
}

func (f FloatEquals) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	col, ok := partition.FloatColumn(f.Column)
	if !ok {
		return nil, badColumn(table, f.Column)
	}
	n := partition.RowCount()
	pred := func(row uint32) bool {
		return !col.Null.Contains(row) && col.Values[row] == f.Value
	}
	return operators.NewSelection([]operators.Predicate{pred}, nil, n), nil
}

// BoolEquals is the "BoolEquals" filter; Value == nil matches null rows.
type BoolEquals struct {
	Column string
	Value  *bool
}

func (f BoolEquals) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	col, ok := partition.BoolColumn(f.Column)
	if !ok {
		return nil, badColumn(table, f.Column)
	}
	n := partition.RowCount()
	if f.Value == nil {
		return operators.NewIndexScan(col.Null, n), nil
	}
	want := *f.Value
	pred := func(row uint32) bool {
		if col.Null.Contains(row) {
			return false
		}
		return col.True.Contains(row) == want
	}
	return operators.NewSelection([]operators.Predicate{pred}, nil, n), nil
}

// StringEquals is the "StringEquals" filter; Value == nil matches null rows.
type StringEquals struct {
	Column string
	Value  *string
}

func (f StringEquals) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	col, ok := partition.StringColumn(f.Column)
	if !ok {
		return nil, badColumn(table, f.Column)
	}
	n := partition.RowCount()
	if f.Value == nil {
		return operators.NewIndexScan(col.Null, n), nil
	}
	want := *f.Value
	pred := func(row uint32) bool {
		return !col.Null.Contains(row) && col.Values[row] == want
	}
	return operators.NewSelection([]operators.Predicate{pred}, nil, n), nil
}

// StringSearch is the "StringSearch" filter: column, searchExpression:regex.
type StringSearch struct {
	Column          string
	SearchExpression string
}

func (f StringSearch) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	col, ok := partition.StringColumn(f.Column)
	if !ok {
		return nil, badColumn(table, f.Column)
	}
	re, err := regexp.Compile(f.SearchExpression)
	if err != nil {
		return nil, qerr.Newf(qerr.BadRequest, "invalid regular expression %q: %s", f.SearchExpression, err)
	}
	n := partition.RowCount()
	pred := func(row uint32) bool {
		return !col.Null.Contains(row) && re.MatchString(col.Values[row])
	}
	return operators.NewSelection([]operators.Predicate{pred}, nil, n), nil
}

// Lineage is the "Lineage" filter (§6): column, Value (nil = match null
// rows), IncludeSublineages.
type Lineage struct {
	Column             string
	Value              *string
	IncludeSublineages bool
}

func (f Lineage) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	col, ok := partition.LineageColumn(f.Column)
	if !ok {
		return nil, badColumn(table, f.Column)
	}
	n := partition.RowCount()
	if f.Value == nil {
		pred := func(row uint32) bool { return col.RowToDict[row] < 0 }
		return operators.NewSelection([]operators.Predicate{pred}, nil, n), nil
	}
	match := make(map[int32]bool)
	if f.IncludeSublineages {
		for _, name := range col.Index.Sublineages(*f.Value) {
			if id, ok := col.DictIndex[name]; ok {
				match[id] = true
			}
		}
	} else {
		canon := col.Index.Canonical(*f.Value)
		if id, ok := col.DictIndex[canon]; ok {
			match[id] = true
		}
	}
	pred := func(row uint32) bool {
		return match[col.RowToDict[row]]
	}
	return operators.NewSelection([]operators.Predicate{pred}, nil, n), nil
}

func badColumn(table *storage.Table, name string) error {
	return &qerr.Error{Kind: qerr.BadRequest, Message: "unknown column " + name, Suggestion: suggestColumnName(table, name)}
}

// suggestColumnName is overridden by query/errs.go's matchr-based lookup; a
// plain empty string is a harmless default within this package's own unit
// tests.
var suggestColumnName = func(table *storage.Table, got string) string { return "" }

// SetColumnSuggester installs the "did you mean" lookup used by badColumn.
// Called once from query's init, since query/errs.go is the only place
// allowed to import both query/filter and the matchr library without
// creating an import cycle.
func SetColumnSuggester(f func(table *storage.Table, got string) string) {
	suggestColumnName = f
}

// SetSequenceSuggester installs the "did you mean" lookup used by
// resolveSequence's BadRequest path.
func SetSequenceSuggester(f func(table *storage.Table, got, alphabetName string) string) {
	suggestSequenceName = f
}
