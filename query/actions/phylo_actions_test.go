package actions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genspectrum/silo/bitmap"
	"github.com/genspectrum/silo/query/actions"
	"github.com/genspectrum/silo/storage"
)

// buildLineageFixture builds a table with a single "lineage" column holding
// values A.1, A.1.1, A.2 on rows 0, 1, 2 respectively.
func buildLineageFixture(t *testing.T) *storage.Table {
	t.Helper()
	s := storage.NewSchema()
	require.NoError(t, s.AddColumn(storage.ColumnSchema{Name: "lineage", Type: storage.ColumnLineage}))
	p, err := storage.NewTablePartition(s, 0, nil)
	require.NoError(t, err)
	lc, ok := p.LineageColumn("lineage")
	require.True(t, ok)

	for _, v := range []string{"A.1", "A.1.1", "A.2"} {
		id := lc.InternLineage(v)
		lc.RowToDict = append(lc.RowToDict, id)
	}
	p.SetRowCount(3)

	table := storage.NewTable(s)
	table.AddPartition(p)
	require.NoError(t, table.Finalize())
	return table
}

func lineageResult(table *storage.Table, rows ...uint32) []actions.PartitionResult {
	bm := bitmap.New()
	for _, r := range rows {
		bm.Add(r)
	}
	return []actions.PartitionResult{{Partition: table.Partitions[0], Bitmap: bm}}
}

func TestMostRecentCommonAncestorOfMatchedRows(t *testing.T) {
	table := buildLineageFixture(t)
	recs, err := actions.MostRecentCommonAncestor{ColumnName: "lineage"}.Execute(table, lineageResult(table, 0, 1))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "A.1", recs[0]["mostRecentCommonAncestor"])
}

func TestMostRecentCommonAncestorUnknownColumn(t *testing.T) {
	table := buildLineageFixture(t)
	_, err := actions.MostRecentCommonAncestor{ColumnName: "nope"}.Execute(table, lineageResult(table, 0))
	assert.Error(t, err)
}

func TestPhyloSubtreeListsDescendants(t *testing.T) {
	table := buildLineageFixture(t)
	recs, err := actions.PhyloSubtree{ColumnName: "lineage"}.Execute(table, lineageResult(table, 0, 1, 2))
	require.NoError(t, err)

	byNode := map[string][]string{}
	for _, r := range recs {
		byNode[r["node"].(string)] = r["subtree"].([]string)
	}
	assert.Equal(t, []string{"A.1", "A.1.1"}, byNode["A.1"])
	assert.Equal(t, []string{"A.1.1"}, byNode["A.1.1"])
	assert.Equal(t, []string{"A.2"}, byNode["A.2"])
}

func TestPhyloParentsReturnsAncestorChain(t *testing.T) {
	table := buildLineageFixture(t)
	recs, err := actions.PhyloParents{ColumnName: "lineage"}.Execute(table, lineageResult(table, 1))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "A.1.1", recs[0]["node"])
	assert.Equal(t, []string{"A.1", "A"}, recs[0]["parents"])
}

func TestPhyloParentsContractsUnaryNodes(t *testing.T) {
	// A has two children (A.1 and A.2), but A.1.1 is A.1's only child, so A.1
	// is a unary node in the tree (built over all of lineage's distinct dictionary
	// values, A.1/A.1.1/A.2) and gets dropped under ContractUnaryNodes.
	table := buildLineageFixture(t)
	recs, err := actions.PhyloParents{ColumnName: "lineage", ContractUnaryNodes: true}.Execute(table, lineageResult(table, 1))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "A.1.1", recs[0]["node"])
	assert.Equal(t, []string{"A"}, recs[0]["parents"])
}
