package storage

import (
	"fmt"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/pkg/errors"

	"github.com/genspectrum/silo/alphabet"
	"github.com/genspectrum/silo/bitmap"
)

// BufferSize is the default number of buffered reads SequenceColumnPartition
// accumulates before flushing them into the position and missing-symbol
// indices (§4.4).
const BufferSize = 1024

// ReadSequence is one buffered, not-yet-indexed row of a sequence column.
// AppendNewSequenceRead returns a pointer the loader fills in before the next
// call triggers a flush.
type ReadSequence struct {
	// Valid is false for a row with no usable sequence data at all (every
	// position is missing).
	Valid bool
	// Offset is the 0-based reference coordinate the aligned Data starts at.
	Offset int
	// Data is the aligned substring covering [Offset, Offset+len(Data)).
	Data string
}

// ErrPreprocessing reports a build-time failure: an empty reference or an
// illegal character in an aligned sequence (§7).
type ErrPreprocessing struct {
	Reason string
}

func (e *ErrPreprocessing) Error() string { return "preprocessing: " + e.Reason }

// SequenceColumnPartition is one sequence name's column within one table
// partition (§3/§4.4): the reference sequence, the per-position bitmap
// index, the horizontal missing-symbol index, the insertion index, and a
// build-time buffer of unindexed reads.
type SequenceColumnPartition[A alphabet.Alphabet] struct {
	name      string
	reference string

	positions      []SequencePosition[A]
	missingSymbols []*bitmap.Bitmap // length == rowCount after finalize
	insertions     *InsertionIndex[A]

	rowCount   uint64
	lazyBuffer []*ReadSequence
	finalized  bool
}

// NewSequenceColumnPartition returns an empty, build-ready partition for
// sequence name with the given reference sequence.
func NewSequenceColumnPartition[A alphabet.Alphabet](name, reference string) (*SequenceColumnPartition[A], error) {
	if reference == "" {
		return nil, &ErrPreprocessing{Reason: fmt.Sprintf("sequence %q: reference sequence must not be empty", name)}
	}
	positions := make([]SequencePosition[A], len(reference))
	for i := range positions {
		positions[i] = NewSequencePosition[A]()
	}
	return &SequenceColumnPartition[A]{
		name:       name,
		reference:  reference,
		positions:  positions,
		insertions: NewInsertionIndex[A](),
	}, nil
}

// Name returns the sequence name this column holds data for.
func (c *SequenceColumnPartition[A]) Name() string { return c.name }

// Reference returns the reference sequence this column's positions align
// against.
func (c *SequenceColumnPartition[A]) Reference() string { return c.reference }

// RowCount returns the number of rows appended so far (buffered or indexed).
func (c *SequenceColumnPartition[A]) RowCount() uint64 { return c.rowCount }

// Position returns the SequencePosition at reference offset p. Only valid
// after Finalize.
func (c *SequenceColumnPartition[A]) Position(p int) *SequencePosition[A] {
	return &c.positions[p]
}

// Positions returns every position, in reference order.
func (c *SequenceColumnPartition[A]) Positions() []SequencePosition[A] { return c.positions }

// MissingSymbols returns row's horizontal missing-symbol bitmap. Only valid
// after Finalize.
func (c *SequenceColumnPartition[A]) MissingSymbols(row uint32) *bitmap.Bitmap {
	return c.missingSymbols[row]
}

// Insertions returns the partition's insertion index. Only searchable after
// Finalize.
func (c *SequenceColumnPartition[A]) Insertions() *InsertionIndex[A] { return c.insertions }

// AppendNewSequenceRead reserves the next row and returns a pointer the
// loader fills in with the row's aligned data (or leaves Valid=false). If
// the buffer is already at capacity it is flushed first (§4.4).
func (c *SequenceColumnPartition[A]) AppendNewSequenceRead() (*ReadSequence, error) {
	if c.finalized {
		panic("storage: AppendNewSequenceRead called after Finalize")
	}
	if len(c.lazyBuffer) >= BufferSize {
		if err := c.flushBuffer(); err != nil {
			return nil, err
		}
	}
	r := &ReadSequence{}
	c.lazyBuffer = append(c.lazyBuffer, r)
	c.rowCount++
	return r, nil
}

// AppendInsertion records an insertion for the most recently appended row,
// given in "POS:VALUE" syntax (§4.4, §9).
func (c *SequenceColumnPartition[A]) AppendInsertion(posAndValue string) error {
	if c.rowCount == 0 {
		return &ErrInsertionFormat{Reason: "no row to attach insertion to"}
	}
	position, value, err := ParsePositionAndValue(posAndValue)
	if err != nil {
		return err
	}
	return c.insertions.AddLazily(position, value, uint32(c.rowCount-1))
}

// Finalize flushes any remaining buffered reads, builds the insertion index,
// and applies the flip-most-numerous space optimization to every position.
// After Finalize the partition is immutable (§3 "Build-only mutation").
func (c *SequenceColumnPartition[A]) Finalize() error {
	if c.finalized {
		return nil
	}
	if err := c.flushBuffer(); err != nil {
		return err
	}
	c.insertions.BuildIndex()
	if err := c.optimizeBitmaps(); err != nil {
		return err
	}
	c.finalized = true
	return nil
}

func (c *SequenceColumnPartition[A]) flushBuffer() error {
	if len(c.lazyBuffer) == 0 {
		return nil
	}
	span := uint64(len(c.lazyBuffer))
	base := c.rowCount - span
	if err := c.fillIndexes(base, span); err != nil {
		return err
	}
	if err := c.fillMissingBitmaps(base, span); err != nil {
		return err
	}
	c.lazyBuffer = nil
	return nil
}

// fillIndexes implements §4.4's parallel-over-positions index build: for
// each reference position, scan the buffered rows once, then push the
// accumulated row-id lists into SequencePosition.AddValues per symbol.
func (c *SequenceColumnPartition[A]) fillIndexes(base, span uint64) error {
	var a A
	buf := c.lazyBuffer
	return traverse.Each(len(c.positions), func(p int) error {
		idsPerSymbol := alphabet.NewSymbolMap[A, []uint32]()
		for r, read := range buf {
			if !read.Valid {
				continue
			}
			if p < read.Offset || p >= read.Offset+len(read.Data) {
				continue
			}
			ch := read.Data[p-read.Offset]
			sym, ok := a.CharToSymbol(ch)
			if !ok {
				return &ErrPreprocessing{Reason: fmt.Sprintf("sequence %q position %d: illegal character %q", c.name, p, ch)}
			}
			if sym == a.Missing() {
				continue
			}
			idsPerSymbol.Set(sym, append(idsPerSymbol.Get(sym), uint32(base)+uint32(r)))
		}
		idsPerSymbol.ForEach(func(sym alphabet.Symbol, ids []uint32) {
			if len(ids) == 0 {
				return
			}
			c.positions[p].AddValues(sym, ids, base, span)
		})
		return nil
	})
}

// fillMissingBitmaps implements §4.4's parallel-over-rows horizontal index
// build: for each buffered row, mark every position outside its aligned
// coverage window as missing, plus any in-window position whose symbol
// resolves to Missing().
func (c *SequenceColumnPartition[A]) fillMissingBitmaps(base, span uint64) error {
	var a A
	refLen := uint64(len(c.reference))
	buf := c.lazyBuffer
	c.missingSymbols = append(c.missingSymbols, make([]*bitmap.Bitmap, span)...)
	return traverse.Each(int(span), func(r int) error {
		read := buf[r]
		bm := bitmap.New()
		if !read.Valid {
			bm.AddRange(0, refLen)
		} else {
			bm.AddRange(0, uint64(read.Offset))
			bm.AddRange(uint64(read.Offset+len(read.Data)), refLen)
			for i := 0; i < len(read.Data); i++ {
				sym, ok := a.CharToSymbol(read.Data[i])
				if !ok {
					return &ErrPreprocessing{Reason: fmt.Sprintf("sequence %q: illegal character %q", c.name, read.Data[i])}
				}
				if sym == a.Missing() {
					bm.Add(uint32(read.Offset + i))
				}
			}
		}
		bm.RunOptimize()
		c.missingSymbols[base+uint64(r)] = bm
		return nil
	})
}

// MissingAtPosition returns the bitmap of rows whose horizontal
// missing-symbol bitmap contains pos0, i.e. the vertical view of "is this
// position missing" at a single position (§4.7's BitmapSelection and §4.10's
// deleted-symbol count correction both need this view; it is not stored
// directly since the horizontal index is organized per-row).
func (c *SequenceColumnPartition[A]) MissingAtPosition(pos0 int) *bitmap.Bitmap {
	result := bitmap.New()
	for r := uint64(0); r < c.rowCount; r++ {
		if c.missingSymbols[r].Contains(uint32(pos0)) {
			result.Add(uint32(r))
		}
	}
	return result
}

// SymbolAt reconstructs the true symbol stored for row at reference offset
// pos0, undoing the flip/delete transforms and consulting the horizontal
// missing-symbol bitmap first (§4.2, §8 invariant 2: every covered row has
// exactly one symbol at each position). Only valid after Finalize.
func (c *SequenceColumnPartition[A]) SymbolAt(row uint32, pos0 int) alphabet.Symbol {
	var a A
	if c.missingSymbols[row].Contains(uint32(pos0)) {
		return a.Missing()
	}
	p := &c.positions[pos0]
	var deletedSym alphabet.Symbol
	haveDeleted := false
	for _, s := range a.Symbols() {
		if p.IsSymbolDeleted(s) {
			deletedSym, haveDeleted = s, true
			continue
		}
		contains := p.GetBitmap(s).Contains(row)
		if p.IsSymbolFlipped(s) {
			contains = !contains
		}
		if contains {
			return s
		}
	}
	if haveDeleted {
		return deletedSym
	}
	return a.Missing()
}

// optimizeBitmaps applies flip_most_numerous_bitmap to every position in
// parallel, logging how many positions ended up flipped to a non-reference
// symbol (an approximate count of how "mutated" the column is overall).
func (c *SequenceColumnPartition[A]) optimizeBitmaps() error {
	var a A
	deviations := make([]bool, len(c.positions))
	err := traverse.Each(len(c.positions), func(p int) error {
		chosen := c.positions[p].FlipMostNumerousBitmap(c.rowCount)
		if refSym, ok := a.CharToSymbol(c.reference[p]); !ok || chosen != refSym {
			deviations[p] = true
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "optimizeBitmaps")
	}
	n := 0
	for _, d := range deviations {
		if d {
			n++
		}
	}
	log.Printf("storage: sequence %q: flipped %d/%d positions to a non-reference majority symbol", c.name, n, len(c.positions))
	return nil
}
