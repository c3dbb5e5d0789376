package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genspectrum/silo/alphabet"
	"github.com/genspectrum/silo/bitmap"
)

func TestParsePositionAndValue(t *testing.T) {
	tests := []struct {
		in       string
		wantPos  uint32
		wantVal  string
		wantErr  bool
	}{
		{"123:ACGT", 123, "ACGT", false},
		{"0:A", 0, "A", false},
		{"noSeparator", 0, "", true},
		{":A", 0, "", true},
		{"5:", 0, "", true},
		{"5x:A", 0, "", true},
	}
	for _, tt := range tests {
		pos, val, err := ParsePositionAndValue(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.wantPos, pos, tt.in)
		assert.Equal(t, tt.wantVal, val, tt.in)
	}
}

func TestChunkTriples(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"AC", nil},
		{"ACG", []string{"ACG"}},
		{"ACGTAC", []string{"ACG", "TAC"}},
		{"ACGTA", []string{"ACG"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, chunkTriples(tt.in), tt.in)
	}
}

func TestValidateInsertionValue(t *testing.T) {
	clean, err := validateInsertionValue[alphabet.Nucleotide]("ACGT")
	require.NoError(t, err)
	assert.Equal(t, "ACGT", clean)

	_, err = validateInsertionValue[alphabet.Nucleotide]("")
	assert.Error(t, err)

	_, err = validateInsertionValue[alphabet.Nucleotide]("ACZT")
	assert.Error(t, err)

	clean, err = validateInsertionValue[alphabet.AminoAcid](`A\*C`)
	require.NoError(t, err)
	assert.Equal(t, "A*C", clean)
}

func TestInsertionIndexSearch(t *testing.T) {
	idx := NewInsertionIndex[alphabet.Nucleotide]()
	require.NoError(t, idx.AddLazily(10, "ACGTACGT", 1))
	require.NoError(t, idx.AddLazily(10, "ACGTACGA", 2))
	require.NoError(t, idx.AddLazily(10, "TTTTTTTT", 3))
	idx.BuildIndex()

	got, err := idx.Search(10, "ACGTACG.")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.GetCardinality())
	assert.True(t, got.Contains(1))
	assert.True(t, got.Contains(2))
	assert.False(t, got.Contains(3))

	got, err = idx.Search(10, "TTTTTTTT")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.GetCardinality())
	assert.True(t, got.Contains(3))

	got, err = idx.Search(999, "ACGTACGT")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.GetCardinality())
}

func TestInsertionIndexAddLazilyAfterBuildPanics(t *testing.T) {
	idx := NewInsertionIndex[alphabet.Nucleotide]()
	idx.BuildIndex()
	assert.Panics(t, func() {
		_ = idx.AddLazily(1, "ACGT", 0)
	})
}

func TestValidatePattern(t *testing.T) {
	assert.NoError(t, ValidatePattern[alphabet.Nucleotide]("ACG.*T"))
	assert.Error(t, ValidatePattern[alphabet.Nucleotide]("ACGZ"))
	assert.Error(t, ValidatePattern[alphabet.Nucleotide]("ACG("))
}

func TestForEachEntry(t *testing.T) {
	idx := NewInsertionIndex[alphabet.Nucleotide]()
	require.NoError(t, idx.AddLazily(5, "AAA", 0))
	require.NoError(t, idx.AddLazily(5, "CCC", 1))
	idx.BuildIndex()

	seen := map[string]uint64{}
	idx.ForEachEntry(func(position uint32, value string, rows *bitmap.Bitmap) {
		assert.EqualValues(t, 5, position)
		seen[value] = rows.GetCardinality()
	})
	assert.Equal(t, map[string]uint64{"AAA": 1, "CCC": 1}, seen)
}
