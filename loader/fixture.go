// Package loader is a stub boundary: SILO's ingestion pipeline is out of
// scope (see Non-goals), but cmd/silo-query still needs some way to get a
// storage.Table in front of the query engine for its NDJSON test-fixture
// entry point. Fixture reads the minimal JSON shape below and builds a
// single-partition Table directly against the storage builder API, the way
// a real loader would, just without any of a real loader's format
// negotiation, sharding, or remote-object concerns.
package loader

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/grailbio/base/file"
	"github.com/pkg/errors"

	"github.com/genspectrum/silo/alphabet"
	"github.com/genspectrum/silo/storage"
)

// Fixture is the on-disk shape loader.Load reads: one partition's worth of
// sequence and metadata columns, given row-major.
type Fixture struct {
	Nucleotides    map[string]SequenceFixture `json:"nucleotideSequences"`
	AminoAcids     map[string]SequenceFixture `json:"aminoAcidSequences"`
	Metadata       map[string]MetadataFixture `json:"metadata"`
	LineageAliases map[string]string          `json:"lineageAliases"`
}

// SequenceFixture is one sequence column: its reference and one aligned
// string per row (equal length to the reference; gap characters for
// deletions, the alphabet's missing character for missing data). An empty
// row string means "no usable data" (ReadSequence.Valid == false).
type SequenceFixture struct {
	Reference string   `json:"reference"`
	Default   bool     `json:"default"`
	Rows      []string `json:"rows"`
}

// MetadataFixture is one metadata column: a declared type name ("date",
// "int", "float", "bool", "string", "indexedString", "lineage") and one
// value per row (nil = null).
type MetadataFixture struct {
	Type string        `json:"type"`
	Rows []interface{} `json:"rows"`
}

// Load reads path via grailbio/base/file (so even this stub goes through
// the same file abstraction a real loader would use for local/remote
// objects alike) and builds a one-partition Table from it.
func Load(ctx context.Context, path string) (*storage.Table, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "loader: opening fixture %s", path)
	}
	defer f.Close(ctx)
	var fx Fixture
	if err := json.NewDecoder(f.Reader(ctx)).Decode(&fx); err != nil {
		return nil, errors.Wrapf(err, "loader: decoding fixture %s", path)
	}
	return Build(&fx)
}

// Build constructs a one-partition Table from an already-parsed Fixture.
func Build(fx *Fixture) (*storage.Table, error) {
	schema := storage.NewSchema()
	rowCount := 0
	for name, sf := range fx.Nucleotides {
		if err := schema.AddColumn(storage.ColumnSchema{Name: name, IsSequence: true, SequenceAlphabet: "nucleotide", Reference: sf.Reference, Default: sf.Default}); err != nil {
			return nil, err
		}
		rowCount = maxInt(rowCount, len(sf.Rows))
	}
	for name, sf := range fx.AminoAcids {
		if err := schema.AddColumn(storage.ColumnSchema{Name: name, IsSequence: true, SequenceAlphabet: "aminoAcid", Reference: sf.Reference, Default: sf.Default}); err != nil {
			return nil, err
		}
		rowCount = maxInt(rowCount, len(sf.Rows))
	}
	for name, m := range fx.Metadata {
		if err := schema.AddColumn(storage.ColumnSchema{Name: name, Type: columnType(m.Type)}); err != nil {
			return nil, err
		}
		rowCount = maxInt(rowCount, len(m.Rows))
	}

	partition, err := storage.NewTablePartition(schema, 0, fx.LineageAliases)
	if err != nil {
		return nil, err
	}

	for name, sf := range fx.Nucleotides {
		col, _ := partition.NucleotideColumn(name)
		if err := fillSequenceColumn[alphabet.Nucleotide](col, sf); err != nil {
			return nil, err
		}
	}
	for name, sf := range fx.AminoAcids {
		col, _ := partition.AminoAcidColumn(name)
		if err := fillSequenceColumn[alphabet.AminoAcid](col, sf); err != nil {
			return nil, err
		}
	}
	for name, m := range fx.Metadata {
		if err := fillMetadataColumn(partition, name, m); err != nil {
			return nil, err
		}
	}
	partition.SetRowCount(uint64(rowCount))

	table := storage.NewTable(schema)
	table.AddPartition(partition)
	if err := table.Finalize(); err != nil {
		return nil, err
	}
	return table, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func columnType(name string) storage.ColumnType {
	switch name {
	case "date":
		return storage.ColumnDate
	case "int":
		return storage.ColumnInt
	case "float":
		return storage.ColumnFloat
	case "bool":
		return storage.ColumnBool
	case "indexedString":
		return storage.ColumnIndexedString
	case "lineage":
		return storage.ColumnLineage
	default:
		return storage.ColumnString
	}
}

func fillSequenceColumn[A alphabet.Alphabet](col *storage.SequenceColumnPartition[A], sf SequenceFixture) error {
	for _, row := range sf.Rows {
		read, err := col.AppendNewSequenceRead()
		if err != nil {
			return err
		}
		if row != "" {
			read.Valid = true
			read.Offset = 0
			read.Data = row
		}
	}
	return nil
}

func fillMetadataColumn(partition *storage.TablePartition, name string, m MetadataFixture) error {
	switch columnType(m.Type) {
	case storage.ColumnDate:
		col, _ := partition.DateColumn(name)
		col.Values = make([]int32, len(m.Rows))
		for i, v := range m.Rows {
			if v == nil {
				col.Values[i] = -1
				continue
			}
			col.Values[i] = int32(v.(float64))
		}
	case storage.ColumnInt:
		col, _ := partition.IntColumn(name)
		col.Values = make([]int64, len(m.Rows))
		for i, v := range m.Rows {
			if v == nil {
				col.Null.Add(uint32(i))
				continue
			}
			col.Values[i] = int64(v.(float64))
		}
	case storage.ColumnFloat:
		col, _ := partition.FloatColumn(name)
		col.Values = make([]float64, len(m.Rows))
		for i, v := range m.Rows {
			if v == nil {
				col.Null.Add(uint32(i))
				continue
			}
			col.Values[i] = v.(float64)
		}
	case storage.ColumnBool:
		col, _ := partition.BoolColumn(name)
		col.SetLen(len(m.Rows))
		for i, v := range m.Rows {
			if v == nil {
				col.Null.Add(uint32(i))
				continue
			}
			if v.(bool) {
				col.True.Add(uint32(i))
			}
		}
	case storage.ColumnString:
		col, _ := partition.StringColumn(name)
		col.Values = make([]string, len(m.Rows))
		for i, v := range m.Rows {
			if v == nil {
				col.Null.Add(uint32(i))
				continue
			}
			col.Values[i] = v.(string)
		}
	case storage.ColumnIndexedString:
		col, _ := partition.IndexedStringColumn(name)
		col.RowToDict = make([]int32, len(m.Rows))
		for i, v := range m.Rows {
			if v == nil {
				col.RowToDict[i] = -1
				continue
			}
			col.RowToDict[i] = col.Intern(v.(string))
		}
	case storage.ColumnLineage:
		col, _ := partition.LineageColumn(name)
		col.RowToDict = make([]int32, len(m.Rows))
		for i, v := range m.Rows {
			if v == nil {
				col.RowToDict[i] = -1
				continue
			}
			col.RowToDict[i] = col.InternLineage(v.(string))
		}
	default:
		return fmt.Errorf("loader: unknown column type %q for %q", m.Type, name)
	}
	return nil
}
