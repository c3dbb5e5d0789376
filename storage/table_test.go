package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genspectrum/silo/alphabet"
)

func TestSchemaAddColumnRejectsDuplicateName(t *testing.T) {
	s := NewSchema()
	require.NoError(t, s.AddColumn(ColumnSchema{Name: "date", Type: ColumnDate}))
	err := s.AddColumn(ColumnSchema{Name: "date", Type: ColumnInt})
	assert.Error(t, err)
}

func TestSchemaAddColumnRejectsDoubleDefault(t *testing.T) {
	s := NewSchema()
	require.NoError(t, s.AddColumn(ColumnSchema{Name: "main", IsSequence: true, SequenceAlphabet: "nucleotide", Reference: "ACGT", Default: true}))
	err := s.AddColumn(ColumnSchema{Name: "alt", IsSequence: true, SequenceAlphabet: "nucleotide", Reference: "ACGT", Default: true})
	assert.Error(t, err)
}

func TestSchemaColumnNamesExcludesSequenceColumns(t *testing.T) {
	s := NewSchema()
	require.NoError(t, s.AddColumn(ColumnSchema{Name: "main", IsSequence: true, SequenceAlphabet: "nucleotide", Reference: "ACGT"}))
	require.NoError(t, s.AddColumn(ColumnSchema{Name: "date", Type: ColumnDate}))
	assert.Equal(t, []string{"date"}, s.ColumnNames())
	assert.Equal(t, []string{"main"}, s.SequenceNames("nucleotide"))
	assert.Empty(t, s.SequenceNames("aminoAcid"))
}

func TestSchemaDefaultSequenceName(t *testing.T) {
	s := NewSchema()
	require.NoError(t, s.AddColumn(ColumnSchema{Name: "main", IsSequence: true, SequenceAlphabet: "nucleotide", Reference: "ACGT", Default: true}))
	name, ok := s.DefaultSequenceName("nucleotide")
	assert.True(t, ok)
	assert.Equal(t, "main", name)

	_, ok = s.DefaultSequenceName("aminoAcid")
	assert.False(t, ok)
}

func TestNewTablePartitionBuildsDeclaredColumns(t *testing.T) {
	s := NewSchema()
	require.NoError(t, s.AddColumn(ColumnSchema{Name: "main", IsSequence: true, SequenceAlphabet: "nucleotide", Reference: "ACGT"}))
	require.NoError(t, s.AddColumn(ColumnSchema{Name: "date", Type: ColumnDate}))
	require.NoError(t, s.AddColumn(ColumnSchema{Name: "lineage", Type: ColumnLineage}))

	p, err := NewTablePartition(s, 0, map[string]string{"BA": "B.1.1.529"})
	require.NoError(t, err)

	_, ok := p.NucleotideColumn("main")
	assert.True(t, ok)
	_, ok = p.DateColumn("date")
	assert.True(t, ok)
	lc, ok := p.LineageColumn("lineage")
	assert.True(t, ok)
	assert.NotNil(t, lc.Index)

	_, ok = p.DateColumn("nonexistent")
	assert.False(t, ok)
}

func TestTableFinalizeAndRowCount(t *testing.T) {
	s := NewSchema()
	require.NoError(t, s.AddColumn(ColumnSchema{Name: "main", IsSequence: true, SequenceAlphabet: "nucleotide", Reference: "ACGT"}))

	p0, err := NewTablePartition(s, 0, nil)
	require.NoError(t, err)
	col, _ := p0.NucleotideColumn("main")
	_, err = col.AppendNewSequenceRead()
	require.NoError(t, err)
	p0.SetRowCount(1)

	p1, err := NewTablePartition(s, 1, nil)
	require.NoError(t, err)
	col1, _ := p1.NucleotideColumn("main")
	_, err = col1.AppendNewSequenceRead()
	require.NoError(t, err)
	_, err = col1.AppendNewSequenceRead()
	require.NoError(t, err)
	p1.SetRowCount(2)

	table := NewTable(s)
	table.AddPartition(p0)
	table.AddPartition(p1)
	require.NoError(t, table.Finalize())

	assert.Equal(t, uint64(3), table.TotalRowCount())

	generic, ok := SequenceColumn[alphabet.Nucleotide](p0, "main")
	assert.True(t, ok)
	assert.Same(t, col, generic)

	_, ok = SequenceColumn[alphabet.AminoAcid](p0, "main")
	assert.False(t, ok, "wrong alphabet type parameter must not find the nucleotide column")
}

func TestTableFinalizeIsIdempotent(t *testing.T) {
	s := NewSchema()
	require.NoError(t, s.AddColumn(ColumnSchema{Name: "main", IsSequence: true, SequenceAlphabet: "nucleotide", Reference: "AC"}))
	p, err := NewTablePartition(s, 0, nil)
	require.NoError(t, err)
	table := NewTable(s)
	table.AddPartition(p)
	require.NoError(t, table.Finalize())
	require.NoError(t, table.Finalize())
}
