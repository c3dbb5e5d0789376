package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnTypeString(t *testing.T) {
	tests := map[ColumnType]string{
		ColumnDate:          "date",
		ColumnInt:           "int",
		ColumnFloat:         "float",
		ColumnBool:          "bool",
		ColumnString:        "string",
		ColumnIndexedString: "indexedString",
		ColumnLineage:       "lineage",
		ColumnType(99):      "unknown",
	}
	for ct, want := range tests {
		assert.Equal(t, want, ct.String())
	}
}

func TestIndexedStringColumnInternDeduplicates(t *testing.T) {
	c := NewIndexedStringColumn()
	a := c.Intern("hello")
	b := c.Intern("world")
	again := c.Intern("hello")
	assert.Equal(t, a, again)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "hello", c.Value(a))
	assert.Equal(t, "world", c.Value(b))
	assert.Equal(t, "", c.Value(-1))
	assert.Equal(t, 2, len(c.Dict))
}

func TestIndexedStringColumnCompressDictionarySkipsSmallDictionaries(t *testing.T) {
	c := NewIndexedStringColumn()
	c.Intern("short")
	compressed, err := c.CompressDictionary()
	require.NoError(t, err)
	assert.False(t, compressed)
	assert.Equal(t, 0, c.CompressedSize())
}

func TestLineageColumnInternRegistersInIndex(t *testing.T) {
	c := NewLineageColumn(map[string]string{"BA": "B.1.1.529"})
	id1 := c.InternLineage("BA.1")
	id2 := c.InternLineage("BA.1")
	assert.Equal(t, id1, id2)

	sub := c.Index.Sublineages("BA")
	assert.Equal(t, []string{"B.1.1.529.1"}, sub)
}

func TestLineageColumnInternEmptyDoesNotRegister(t *testing.T) {
	c := NewLineageColumn(nil)
	id := c.InternLineage("")
	assert.Equal(t, int32(0), id)
	assert.Empty(t, c.Index.Sublineages(""))
}

func TestBoolColumnMembership(t *testing.T) {
	c := NewBoolColumn(4)
	c.True.Add(1)
	c.True.Add(3)
	c.Null.Add(2)
	assert.Equal(t, 4, c.Len())
	assert.True(t, c.True.Contains(1))
	assert.False(t, c.True.Contains(0))
	assert.True(t, c.Null.Contains(2))
}
