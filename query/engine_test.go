package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genspectrum/silo/loader"
	"github.com/genspectrum/silo/query/actions"
	"github.com/genspectrum/silo/query/filter"
	"github.com/genspectrum/silo/storage"
)

func TestPaginateAppliesOffsetThenLimit(t *testing.T) {
	records := []actions.Record{{"i": 0}, {"i": 1}, {"i": 2}, {"i": 3}}
	offset, limit := 1, 2
	got := paginate(records, &limit, &offset)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0]["i"])
	assert.Equal(t, 2, got[1]["i"])
}

func TestPaginateOffsetPastEndYieldsNil(t *testing.T) {
	records := []actions.Record{{"i": 0}}
	offset := 5
	assert.Nil(t, paginate(records, nil, &offset))
}

func TestPaginateNoOptionsReturnsAllRecords(t *testing.T) {
	records := []actions.Record{{"i": 0}, {"i": 1}}
	got := paginate(records, nil, nil)
	assert.Equal(t, records, got)
}

func TestSortRecordsStableByMultipleFields(t *testing.T) {
	records := []actions.Record{
		{"country": "Germany", "count": int64(5)},
		{"country": "Switzerland", "count": int64(2)},
		{"country": "Switzerland", "count": int64(9)},
	}
	sortRecords(records, []orderField{{Field: "country"}, {Field: "count", Desc: true}})
	assert.Equal(t, "Germany", records[0]["country"])
	assert.Equal(t, "Switzerland", records[1]["country"])
	assert.Equal(t, int64(9), records[1]["count"])
	assert.Equal(t, "Switzerland", records[2]["country"])
	assert.Equal(t, int64(2), records[2]["count"])
}

func TestCompareValuesNilsSortFirst(t *testing.T) {
	assert.Equal(t, -1, compareValues(nil, "a"))
	assert.Equal(t, 1, compareValues("a", nil))
	assert.Equal(t, 0, compareValues(nil, nil))
}

func TestCompareValuesNativeTypes(t *testing.T) {
	assert.Equal(t, -1, compareValues(int64(1), int64(2)))
	assert.Equal(t, -1, compareValues(1.5, 2.5))
	assert.Equal(t, -1, compareValues("a", "b"))
	assert.Equal(t, -1, compareValues(false, true))
	assert.Equal(t, 0, compareValues("x", "x"))
}

func buildEngineFixture(t *testing.T) *storage.Table {
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
	return table
}

func TestEngineExecuteFiltersAndAggregates(t *testing.T) {
	table := buildEngineFixture(t)
	engine := NewEngine(table)

	value := "Switzerland"
	expr := filter.StringEquals{Column: "country", Value: &value}
	records, err := engine.Execute(context.Background(), expr, actions.Aggregated{}, actionOptions{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint64(2), records[0]["count"])
}

func TestEngineExecuteAppliesPagination(t *testing.T) {
	table := buildEngineFixture(t)
	engine := NewEngine(table)

	limit := 1
	records, err := engine.Execute(context.Background(), filter.True{}, actions.Details{Fields: []string{"country"}}, actionOptions{
		OrderBy: []orderField{{Field: "country"}},
		Limit:   &limit,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Germany", records[0]["country"])
}

func TestEngineExecuteRejectsCancelledContext(t *testing.T) {
	table := buildEngineFixture(t)
	engine := NewEngine(table)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := engine.Execute(ctx, filter.True{}, actions.Aggregated{}, actionOptions{})
	assert.Error(t, err)
}
