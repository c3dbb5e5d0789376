package actions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genspectrum/silo/bitmap"
	"github.com/genspectrum/silo/loader"
	"github.com/genspectrum/silo/query/actions"
	"github.com/genspectrum/silo/storage"
)

func buildFixtureTable(t *testing.T) (*storage.Table, func(rows ...uint32) actions.PartitionResult) {
	t.Helper()
	fx := &loader.Fixture{
		Nucleotides: map[string]loader.SequenceFixture{
			"main": {Reference: "ACGT", Default: true, Rows: []string{"ACGT", "ACTT", "AGGT"}},
		},
		Metadata: map[string]loader.MetadataFixture{
			"country": {Type: "string", Rows: []interface{}{"Switzerland", "Germany", "Switzerland"}},
		},
	}
	table, err := loader.Build(fx)
	require.NoError(t, err)

	mkResult := func(rows ...uint32) actions.PartitionResult {
		bm := bitmap.New()
		for _, r := range rows {
			bm.Add(r)
		}
		return actions.PartitionResult{Partition: table.Partitions[0], Bitmap: bm}
	}
	return table, mkResult
}

func TestAggregatedOverallCount(t *testing.T) {
	table, mkResult := buildFixtureTable(t)
	recs, err := actions.Aggregated{}.Execute(table, []actions.PartitionResult{mkResult(0, 1, 2)})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, uint64(3), recs[0]["count"])
}

func TestAggregatedGroupBy(t *testing.T) {
	table, mkResult := buildFixtureTable(t)
	recs, err := actions.Aggregated{GroupByFields: []string{"country"}}.Execute(table, []actions.PartitionResult{mkResult(0, 1, 2)})
	require.NoError(t, err)
	byCountry := map[string]uint64{}
	for _, r := range recs {
		byCountry[r["country"].(string)] = r["count"].(uint64)
	}
	assert.Equal(t, uint64(2), byCountry["Switzerland"])
	assert.Equal(t, uint64(1), byCountry["Germany"])
}

func TestDetailsDefaultFieldsExcludeSequenceColumns(t *testing.T) {
	table, mkResult := buildFixtureTable(t)
	recs, err := actions.Details{}.Execute(table, []actions.PartitionResult{mkResult(1)})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Germany", recs[0]["country"])
	_, hasSeq := recs[0]["main"]
	assert.False(t, hasSeq, "Details with no explicit fields must default to metadata columns only")
}

func TestDetailsExplicitFields(t *testing.T) {
	table, mkResult := buildFixtureTable(t)
	recs, err := actions.Details{Fields: []string{"country"}}.Execute(table, []actions.PartitionResult{mkResult(0, 2)})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Switzerland", recs[0]["country"])
	assert.Equal(t, "Switzerland", recs[1]["country"])
}

func TestFastaReconstructsAlignedSequence(t *testing.T) {
	table, mkResult := buildFixtureTable(t)
	recs, err := actions.Fasta{SequenceNames: []string{"main"}, Aligned: true}.Execute(table, []actions.PartitionResult{mkResult(1)})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "ACTT", recs[0]["main"])
}

func TestFastaUnalignedStripsWindowPaddingAndDeletions(t *testing.T) {
	s := storage.NewSchema()
	require.NoError(t, s.AddColumn(storage.ColumnSchema{Name: "main", IsSequence: true, SequenceAlphabet: "nucleotide", Reference: "ACGT", Default: true}))
	p, err := storage.NewTablePartition(s, 0, nil)
	require.NoError(t, err)
	col, _ := p.NucleotideColumn("main")
	read, err := col.AppendNewSequenceRead()
	require.NoError(t, err)
	// Covers reference positions 1-3 only; position 2 is a real deletion.
	read.Valid = true
	read.Offset = 1
	read.Data = "C-T"
	require.NoError(t, col.Finalize())
	p.SetRowCount(1)

	table := storage.NewTable(s)
	table.AddPartition(p)
	require.NoError(t, table.Finalize())

	bm := bitmap.New()
	bm.Add(0)
	result := actions.PartitionResult{Partition: table.Partitions[0], Bitmap: bm}

	aligned, err := actions.Fasta{SequenceNames: []string{"main"}, Aligned: true}.Execute(table, []actions.PartitionResult{result})
	require.NoError(t, err)
	require.Len(t, aligned, 1)
	assert.Equal(t, "NC-T", aligned[0]["main"], "aligned keeps out-of-window padding and the internal deletion")

	unaligned, err := actions.Fasta{SequenceNames: []string{"main"}, Aligned: false}.Execute(table, []actions.PartitionResult{result})
	require.NoError(t, err)
	require.Len(t, unaligned, 1)
	assert.Equal(t, "CT", unaligned[0]["main"], "unaligned drops the out-of-window base and the real deletion")
}

func TestFastaUnknownSequenceName(t *testing.T) {
	table, mkResult := buildFixtureTable(t)
	_, err := actions.Fasta{SequenceNames: []string{"nope"}}.Execute(table, []actions.PartitionResult{mkResult(0)})
	assert.Error(t, err)
}

func TestMutationsReportsNonReferenceSymbols(t *testing.T) {
	table, mkResult := buildFixtureTable(t)
	recs, err := actions.Mutations{SequenceNames: []string{"main"}}.Execute(table, []actions.PartitionResult{mkResult(0, 1, 2)})
	require.NoError(t, err)
	var mutations []string
	for _, r := range recs {
		mutations = append(mutations, r["mutation"].(string))
	}
	// reference ACGT: row1 ("ACTT") deviates at position 3 (G->T); row2
	// ("AGGT") deviates at position 2 (C->G).
	assert.Contains(t, mutations, "G3T")
	assert.Contains(t, mutations, "C2G")
}

func TestMutationsMinProportionFiltersRareMutations(t *testing.T) {
	table, mkResult := buildFixtureTable(t)
	recs, err := actions.Mutations{SequenceNames: []string{"main"}, MinProportion: 0.9}.Execute(table, []actions.PartitionResult{mkResult(0, 1, 2)})
	require.NoError(t, err)
	assert.Empty(t, recs, "no single mutation reaches 90%% of 3 covered rows")
}

func TestMutationsCoverageIsPerPosition(t *testing.T) {
	fx := &loader.Fixture{
		Nucleotides: map[string]loader.SequenceFixture{
			// position 2 (1-based) is missing (N) in row 3, so its coverage
			// is 3, not 4; every other position is covered by all 4 rows.
			"main": {Reference: "ACGT", Default: true, Rows: []string{"ACGT", "ACTT", "AGGT", "ANGT"}},
		},
	}
	table, err := loader.Build(fx)
	require.NoError(t, err)
	bm := bitmap.New()
	bm.Add(0)
	bm.Add(1)
	bm.Add(2)
	bm.Add(3)
	result := actions.PartitionResult{Partition: table.Partitions[0], Bitmap: bm}

	recs, err := actions.Mutations{SequenceNames: []string{"main"}}.Execute(table, []actions.PartitionResult{result})
	require.NoError(t, err)

	byMutation := map[string]actions.Record{}
	for _, r := range recs {
		byMutation[r["mutation"].(string)] = r
	}

	g3t := byMutation["G3T"]
	require.NotNil(t, g3t, "expected mutation G3T")
	assert.Equal(t, uint64(4), g3t["coverage"], "position 3 is covered by all 4 rows")
	assert.InDelta(t, 0.25, g3t["proportion"], 1e-9)

	c2g := byMutation["C2G"]
	require.NotNil(t, c2g, "expected mutation C2G")
	assert.Equal(t, uint64(3), c2g["coverage"], "position 2 is covered by only 3 rows, row 3 is N there")
	assert.InDelta(t, 1.0/3.0, c2g["proportion"], 1e-9)
}
