package storage

import (
	"fmt"

	"github.com/grailbio/base/traverse"

	"github.com/genspectrum/silo/alphabet"
	"github.com/genspectrum/silo/bitmap"
)

// ColumnSchema describes one column of a Table (§3, "schema carries, per
// column, its name, type tag, and (for sequence columns) its reference
// sequence").
type ColumnSchema struct {
	Name string
	Type ColumnType

	// IsSequence, SequenceAlphabet, Reference, and Default apply only to
	// sequence columns; Type is meaningless for them (sequence columns are
	// not one of the ColumnType values; IsSequence distinguishes them).
	IsSequence       bool
	SequenceAlphabet string // "nucleotide" or "aminoAcid"
	Reference        string
	Default          bool
}

// Schema names every column of a Table, in declaration order, and tracks
// which sequence column (if any) of each alphabet is the default used when a
// filter omits sequenceName (§3).
type Schema struct {
	Columns []ColumnSchema

	byName map[string]int // index into Columns
}

// NewSchema returns an empty Schema ready for AddColumn calls.
func NewSchema() *Schema {
	return &Schema{byName: make(map[string]int)}
}

// AddColumn appends col, returning an error if its name is already taken or
// two defaults are declared for the same sequence alphabet.
func (s *Schema) AddColumn(col ColumnSchema) error {
	if _, exists := s.byName[col.Name]; exists {
		return fmt.Errorf("storage: duplicate column name %q", col.Name)
	}
	if col.IsSequence && col.Default {
		if existing, ok := s.DefaultSequenceName(col.SequenceAlphabet); ok {
			return fmt.Errorf("storage: both %q and %q are marked default for alphabet %q", existing, col.Name, col.SequenceAlphabet)
		}
	}
	s.byName[col.Name] = len(s.Columns)
	s.Columns = append(s.Columns, col)
	return nil
}

// Column returns the schema entry for name.
func (s *Schema) Column(name string) (ColumnSchema, bool) {
	i, ok := s.byName[name]
	if !ok {
		return ColumnSchema{}, false
	}
	return s.Columns[i], true
}

// DefaultSequenceName returns the column name flagged default for the given
// alphabet ("nucleotide" or "aminoAcid").
func (s *Schema) DefaultSequenceName(alphabetName string) (string, bool) {
	for _, c := range s.Columns {
		if c.IsSequence && c.Default && c.SequenceAlphabet == alphabetName {
			return c.Name, true
		}
	}
	return "", false
}

// ColumnNames returns every non-sequence column name, for error-suggestion
// purposes (query/errs.go).
func (s *Schema) ColumnNames() []string {
	out := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		if !c.IsSequence {
			out = append(out, c.Name)
		}
	}
	return out
}

// SequenceNames returns every sequence column name for the given alphabet.
func (s *Schema) SequenceNames(alphabetName string) []string {
	var out []string
	for _, c := range s.Columns {
		if c.IsSequence && c.SequenceAlphabet == alphabetName {
			out = append(out, c.Name)
		}
	}
	return out
}

// TablePartition is one shard of rows (§3/§5): one SequenceColumnPartition
// per configured sequence name in both alphabets, plus the non-sequence
// metadata columns, and a row count shared by all of them.
type TablePartition struct {
	Index int // this partition's position within Table.Partitions

	nucleotideColumns map[string]*SequenceColumnPartition[alphabet.Nucleotide]
	aminoAcidColumns  map[string]*SequenceColumnPartition[alphabet.AminoAcid]

	dateColumns          map[string]*DateColumn
	intColumns           map[string]*IntColumn
	floatColumns         map[string]*FloatColumn
	boolColumns          map[string]*BoolColumn
	stringColumns        map[string]*StringColumn
	indexedStringColumns map[string]*IndexedStringColumn
	lineageColumns       map[string]*LineageColumn

	rowCount  uint64
	finalized bool
}

// NewTablePartition allocates an empty partition matching schema. index is
// this partition's position in the owning Table, used for the (partitionId,
// rowId) global row identity (§3).
func NewTablePartition(schema *Schema, index int, lineageAliases map[string]string) (*TablePartition, error) {
	p := &TablePartition{
		Index:                index,
		nucleotideColumns:    make(map[string]*SequenceColumnPartition[alphabet.Nucleotide]),
		aminoAcidColumns:     make(map[string]*SequenceColumnPartition[alphabet.AminoAcid]),
		dateColumns:          make(map[string]*DateColumn),
		intColumns:           make(map[string]*IntColumn),
		floatColumns:         make(map[string]*FloatColumn),
		boolColumns:          make(map[string]*BoolColumn),
		stringColumns:        make(map[string]*StringColumn),
		indexedStringColumns: make(map[string]*IndexedStringColumn),
		lineageColumns:       make(map[string]*LineageColumn),
	}
	for _, col := range schema.Columns {
		if col.IsSequence {
			switch col.SequenceAlphabet {
			case "nucleotide":
				sc, err := NewSequenceColumnPartition[alphabet.Nucleotide](col.Name, col.Reference)
				if err != nil {
					return nil, err
				}
				p.nucleotideColumns[col.Name] = sc
			case "aminoAcid":
				sc, err := NewSequenceColumnPartition[alphabet.AminoAcid](col.Name, col.Reference)
				if err != nil {
					return nil, err
				}
				p.aminoAcidColumns[col.Name] = sc
			default:
				return nil, fmt.Errorf("storage: unknown sequence alphabet %q for column %q", col.SequenceAlphabet, col.Name)
			}
			continue
		}
		switch col.Type {
		case ColumnDate:
			p.dateColumns[col.Name] = &DateColumn{}
		case ColumnInt:
			p.intColumns[col.Name] = &IntColumn{Null: bitmap.New()}
		case ColumnFloat:
			p.floatColumns[col.Name] = &FloatColumn{Null: bitmap.New()}
		case ColumnBool:
			p.boolColumns[col.Name] = NewBoolColumn(0)
		case ColumnString:
			p.stringColumns[col.Name] = &StringColumn{Null: bitmap.New()}
		case ColumnIndexedString:
			p.indexedStringColumns[col.Name] = NewIndexedStringColumn()
		case ColumnLineage:
			p.lineageColumns[col.Name] = NewLineageColumn(lineageAliases)
		default:
			return nil, fmt.Errorf("storage: unknown column type %v for column %q", col.Type, col.Name)
		}
	}
	return p, nil
}

// RowCount returns the number of rows in this partition.
func (p *TablePartition) RowCount() uint64 { return p.rowCount }

// SetRowCount is called by a loader once it knows how many rows this
// partition holds, before Finalize.
func (p *TablePartition) SetRowCount(n uint64) { p.rowCount = n }

// NucleotideColumn returns the nucleotide sequence column named name.
func (p *TablePartition) NucleotideColumn(name string) (*SequenceColumnPartition[alphabet.Nucleotide], bool) {
	c, ok := p.nucleotideColumns[name]
	return c, ok
}

// AminoAcidColumn returns the amino-acid sequence column named name.
func (p *TablePartition) AminoAcidColumn(name string) (*SequenceColumnPartition[alphabet.AminoAcid], bool) {
	c, ok := p.aminoAcidColumns[name]
	return c, ok
}

func (p *TablePartition) DateColumn(name string) (*DateColumn, bool) {
	c, ok := p.dateColumns[name]
	return c, ok
}

func (p *TablePartition) IntColumn(name string) (*IntColumn, bool) {
	c, ok := p.intColumns[name]
	return c, ok
}

func (p *TablePartition) FloatColumn(name string) (*FloatColumn, bool) {
	c, ok := p.floatColumns[name]
	return c, ok
}

func (p *TablePartition) BoolColumn(name string) (*BoolColumn, bool) {
	c, ok := p.boolColumns[name]
	return c, ok
}

func (p *TablePartition) StringColumn(name string) (*StringColumn, bool) {
	c, ok := p.stringColumns[name]
	return c, ok
}

func (p *TablePartition) IndexedStringColumn(name string) (*IndexedStringColumn, bool) {
	c, ok := p.indexedStringColumns[name]
	return c, ok
}

func (p *TablePartition) LineageColumn(name string) (*LineageColumn, bool) {
	c, ok := p.lineageColumns[name]
	return c, ok
}

// Finalize finalizes every sequence column of the partition in parallel.
// Non-sequence columns need no finalization step; their build methods
// already leave them query-ready.
func (p *TablePartition) Finalize() error {
	if p.finalized {
		return nil
	}
	type finalizer interface{ Finalize() error }
	var all []finalizer
	for _, c := range p.nucleotideColumns {
		all = append(all, c)
	}
	for _, c := range p.aminoAcidColumns {
		all = append(all, c)
	}
	err := traverse.Each(len(all), func(i int) error {
		return all[i].Finalize()
	})
	if err != nil {
		return err
	}
	p.finalized = true
	return nil
}

// Table is an ordered list of partitions sharing a Schema (§3). A row is
// globally identified by (partition index, row id within partition).
type Table struct {
	Schema     *Schema
	Partitions []*TablePartition
}

// NewTable returns a Table over schema with no partitions yet.
func NewTable(schema *Schema) *Table {
	return &Table{Schema: schema}
}

// AddPartition appends p to the table. The caller is responsible for having
// built p against the same Schema.
func (t *Table) AddPartition(p *TablePartition) {
	t.Partitions = append(t.Partitions, p)
}

// Finalize finalizes every partition. Partitions are independent, so this
// fans out across partitions rather than only within each one.
func (t *Table) Finalize() error {
	return traverse.Each(len(t.Partitions), func(i int) error {
		return t.Partitions[i].Finalize()
	})
}

// SequenceColumn returns partition p's sequence column named name for
// alphabet A, dispatching to the nucleotide or amino-acid map based on A's
// concrete type. This lets query/filter compile generically over A without
// TablePartition exposing its two backing maps directly.
func SequenceColumn[A alphabet.Alphabet](p *TablePartition, name string) (*SequenceColumnPartition[A], bool) {
	var a A
	switch any(a).(type) {
	case alphabet.Nucleotide:
		c, ok := p.nucleotideColumns[name]
		if !ok {
			return nil, false
		}
		return any(c).(*SequenceColumnPartition[A]), true
	case alphabet.AminoAcid:
		c, ok := p.aminoAcidColumns[name]
		if !ok {
			return nil, false
		}
		return any(c).(*SequenceColumnPartition[A]), true
	default:
		return nil, false
	}
}

// TotalRowCount sums RowCount across every partition.
func (t *Table) TotalRowCount() uint64 {
	var total uint64
	for _, p := range t.Partitions {
		total += p.RowCount()
	}
	return total
}
