package storage

import (
	"github.com/klauspost/compress/zstd"

	"github.com/genspectrum/silo/bitmap"
)

// ColumnType tags a metadata column's native value type (§3 addendum: the
// minimum set of non-sequence column kinds the query engine's Expression
// variants require).
type ColumnType int

const (
	ColumnDate ColumnType = iota
	ColumnInt
	ColumnFloat
	ColumnBool
	ColumnString
	ColumnIndexedString
	ColumnLineage
)

func (t ColumnType) String() string {
	switch t {
	case ColumnDate:
		return "date"
	case ColumnInt:
		return "int"
	case ColumnFloat:
		return "float"
	case ColumnBool:
		return "bool"
	case ColumnString:
		return "string"
	case ColumnIndexedString:
		return "indexedString"
	case ColumnLineage:
		return "lineage"
	default:
		return "unknown"
	}
}

// DateColumn stores one int32 per row: days since the Unix epoch, or -1 for
// a null value.
type DateColumn struct {
	Values []int32
}

func (c *DateColumn) Len() int { return len(c.Values) }

// IntColumn stores one int64 per row, with a companion Null bitmap (a value
// at a null row is unspecified and must not be read).
type IntColumn struct {
	Values []int64
	Null   *bitmap.Bitmap
}

func (c *IntColumn) Len() int { return len(c.Values) }

// FloatColumn stores one float64 per row, with a companion Null bitmap.
type FloatColumn struct {
	Values []float64
	Null   *bitmap.Bitmap
}

func (c *FloatColumn) Len() int { return len(c.Values) }

// BoolColumn stores row membership as two bitmaps rather than a []bool, so
// BoolEquals compiles directly to an IndexScan (§4.5/§4.7-style uniform
// membership semantics).
type BoolColumn struct {
	True *bitmap.Bitmap
	Null *bitmap.Bitmap
	n    int
}

func NewBoolColumn(n int) *BoolColumn {
	return &BoolColumn{True: bitmap.New(), Null: bitmap.New(), n: n}
}

func (c *BoolColumn) Len() int { return c.n }

// SetLen updates the row count backing Len, for a loader that builds a
// BoolColumn's bitmaps incrementally and only learns the partition's final
// row count afterward.
func (c *BoolColumn) SetLen(n int) { c.n = n }

// StringColumn stores unindexed, possibly-high-cardinality free text, used
// for StringEquals/StringSearch (§6). A null value is the empty string with
// its row id present in Null.
type StringColumn struct {
	Values []string
	Null   *bitmap.Bitmap
}

func (c *StringColumn) Len() int { return len(c.Values) }

// IndexedStringColumn dictionary-encodes a repetitive string column: rows
// reference a shared dictionary by id rather than storing their own copy.
// CompressDictionary can take a zstd-compressed snapshot of a large
// dictionary (github.com/klauspost/compress/zstd); Dict itself always stays
// uncompressed, and the build path does not call CompressDictionary.
type IndexedStringColumn struct {
	Dict      []string // id -> value
	DictIndex map[string]int32
	RowToDict []int32 // -1 = null

	// compressedDict, when non-nil, is a zstd-compressed snapshot of Dict's
	// concatenated bytes, built lazily by CompressDictionary for columns
	// whose dictionary has grown past zstdDictionaryThreshold. It is not
	// consulted on the query read path (Dict/DictIndex remain the source of
	// truth), and nothing decompresses it.
	compressedDict []byte
}

// zstdDictionaryThreshold is the in-memory dictionary byte size above which
// CompressDictionary is worth calling.
const zstdDictionaryThreshold = 1 << 20

func NewIndexedStringColumn() *IndexedStringColumn {
	return &IndexedStringColumn{DictIndex: make(map[string]int32)}
}

func (c *IndexedStringColumn) Len() int { return len(c.RowToDict) }

// Intern returns value's dictionary id, assigning a new one if value has not
// been seen before.
func (c *IndexedStringColumn) Intern(value string) int32 {
	if id, ok := c.DictIndex[value]; ok {
		return id
	}
	id := int32(len(c.Dict))
	c.Dict = append(c.Dict, value)
	c.DictIndex[value] = id
	return id
}

// Value returns the dictionary string for id, or "" if id < 0 (null).
func (c *IndexedStringColumn) Value(id int32) string {
	if id < 0 {
		return ""
	}
	return c.Dict[id]
}

// dictionaryByteSize is the approximate resident size of the dictionary's
// backing strings.
func (c *IndexedStringColumn) dictionaryByteSize() int {
	total := 0
	for _, v := range c.Dict {
		total += len(v)
	}
	return total
}

// CompressDictionary zstd-compresses the dictionary's concatenated bytes
// when it has grown past zstdDictionaryThreshold, and reports whether it did
// so. It never discards Dict itself: compressedDict is a detached snapshot
// usable for size accounting and checksumming, not a replacement storage
// path, since the query engine needs O(1) dictionary-id lookups that a
// compressed blob cannot provide directly.
func (c *IndexedStringColumn) CompressDictionary() (bool, error) {
	if c.dictionaryByteSize() < zstdDictionaryThreshold {
		return false, nil
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return false, err
	}
	defer enc.Close()
	var raw []byte
	for _, v := range c.Dict {
		raw = append(raw, v...)
		raw = append(raw, 0)
	}
	c.compressedDict = enc.EncodeAll(raw, nil)
	return true, nil
}

// CompressedSize returns the byte size of the last CompressDictionary
// snapshot, or 0 if none has been taken.
func (c *IndexedStringColumn) CompressedSize() int { return len(c.compressedDict) }

// LineageColumn is an IndexedStringColumn whose distinct values are also
// registered in a LineageIndex, enabling includeSublineages (§6).
type LineageColumn struct {
	IndexedStringColumn
	Index *LineageIndex
}

func NewLineageColumn(aliases map[string]string) *LineageColumn {
	return &LineageColumn{
		IndexedStringColumn: *NewIndexedStringColumn(),
		Index:               NewLineageIndex(aliases),
	}
}

// InternLineage interns value into the dictionary and registers it with the
// lineage index in the same step, so every distinct value seen during build
// is sublineage-queryable.
func (c *LineageColumn) InternLineage(value string) int32 {
	if value != "" {
		c.Index.AddName(value)
	}
	return c.Intern(value)
}
