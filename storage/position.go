package storage

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/genspectrum/silo/alphabet"
	"github.com/genspectrum/silo/bitmap"
)

// SequencePosition is the per-position compressed-bitmap index of §3/§4.2: one
// bitmap per symbol of A, with two optional space-optimizing transforms.
//
// Invariants (enforced by the methods below, never by direct field access
// from other packages):
//   - bitmaps[s] holds row ids with symbol s at this position, except that
//     if flipped == s, the stored bitmap is the complement over [0, n).
//   - if deleted == s, bitmaps[s] is never populated; its membership is
//     reconstructed by callers (query/filter) from every other symbol's
//     bitmap plus the horizontal missing-symbol bitmaps.
//   - flipped and deleted are never both set.
type SequencePosition[A alphabet.Alphabet] struct {
	bitmaps alphabet.SymbolMap[A, *bitmap.Bitmap]
	flipped *alphabet.Symbol
	deleted *alphabet.Symbol
}

// NewSequencePosition returns a position with every symbol bitmap empty and
// no transform applied.
func NewSequencePosition[A alphabet.Alphabet]() SequencePosition[A] {
	p := SequencePosition[A]{bitmaps: alphabet.NewSymbolMap[A, *bitmap.Bitmap]()}
	p.bitmaps.ForEach(func(s alphabet.Symbol, _ *bitmap.Bitmap) {
		p.bitmaps.Set(s, bitmap.New())
	})
	return p
}

// FromInitiallyFlipped returns a position already flagged as flipped for s,
// with every bitmap (including s's) starting empty. Used when a loader knows
// up front which symbol (typically the reference base) should be stored
// flipped, avoiding a second optimization pass after fillIndexes.
func FromInitiallyFlipped[A alphabet.Alphabet](s alphabet.Symbol) SequencePosition[A] {
	p := NewSequencePosition[A]()
	p.flipped = &s
	return p
}

// IsSymbolFlipped reports whether s's stored bitmap is the complement of its
// true membership set.
func (p *SequencePosition[A]) IsSymbolFlipped(s alphabet.Symbol) bool {
	return p.flipped != nil && *p.flipped == s
}

// IsSymbolDeleted reports whether s's membership is implicit rather than
// stored.
func (p *SequencePosition[A]) IsSymbolDeleted(s alphabet.Symbol) bool {
	return p.deleted != nil && *p.deleted == s
}

// FlippedSymbol returns the currently flipped symbol, if any.
func (p *SequencePosition[A]) FlippedSymbol() (alphabet.Symbol, bool) {
	if p.flipped == nil {
		return 0, false
	}
	return *p.flipped, true
}

// DeletedSymbol returns the currently deleted symbol, if any.
func (p *SequencePosition[A]) DeletedSymbol() (alphabet.Symbol, bool) {
	if p.deleted == nil {
		return 0, false
	}
	return *p.deleted, true
}

// GetBitmap returns the stored (possibly flipped or empty-if-deleted)
// representation for s. Callers that need true membership must consult
// IsSymbolFlipped / IsSymbolDeleted first (§4.2).
func (p *SequencePosition[A]) GetBitmap(s alphabet.Symbol) *bitmap.Bitmap {
	return p.bitmaps.Get(s)
}

// AddValues appends row ids for a build batch covering the half-open row
// range [base, base+span). If symbol is the deleted symbol it is silently
// dropped; otherwise the ids are added to bitmaps[symbol], and if symbol is
// also the flipped symbol, [base, base+span) is flipped within that bitmap
// to preserve the flipped invariant incrementally (§4.2).
func (p *SequencePosition[A]) AddValues(symbol alphabet.Symbol, rows []uint32, base, span uint64) {
	if p.IsSymbolDeleted(symbol) {
		return
	}
	bm := p.bitmaps.Get(symbol)
	bm.AddMany(rows)
	if p.IsSymbolFlipped(symbol) {
		bm.Flip(base, base+span)
	}
}

// trueCardinality returns the number of rows that actually carry symbol s,
// undoing the flip transform if necessary. It is not meaningful if s is the
// deleted symbol (deleted membership cannot be derived from stored data
// alone; flipMostNumerous refuses to run in that state).
func (p *SequencePosition[A]) trueCardinality(s alphabet.Symbol, n uint64) uint64 {
	card := p.bitmaps.Get(s).GetCardinality()
	if p.IsSymbolFlipped(s) {
		return n - card
	}
	return card
}

// FlipMostNumerousBitmap determines, among this position's symbols, the one
// with the largest true (post-interpretation) cardinality given the current
// row count n, and makes it the flipped symbol, undoing any previous flip
// first. It returns the (possibly unchanged) flipped symbol.
//
// Calling this again with the same n is a no-op: the previous flip already
// made the chosen symbol's stored cardinality minimal, so no other symbol's
// true cardinality can exceed it without the data itself changing (§8,
// property 3).
//
// FlipMostNumerousBitmap panics if a symbol is currently deleted: a deleted
// bitmap's true cardinality cannot be computed from stored data alone.
func (p *SequencePosition[A]) FlipMostNumerousBitmap(n uint64) alphabet.Symbol {
	if p.deleted != nil {
		panic("storage: cannot flip a position with a deleted symbol")
	}
	var best alphabet.Symbol
	var bestCard uint64
	first := true
	p.bitmaps.ForEach(func(s alphabet.Symbol, _ *bitmap.Bitmap) {
		card := p.trueCardinality(s, n)
		if first || card > bestCard {
			best, bestCard, first = s, card, false
		}
	})
	if p.flipped != nil && *p.flipped == best {
		return best
	}
	if p.flipped != nil {
		prev := *p.flipped
		bm := p.bitmaps.Get(prev)
		bm.Flip(0, n)
		bm.RunOptimize()
	}
	newBM := p.bitmaps.Get(best)
	newBM.Flip(0, n)
	newBM.RunOptimize()
	p.flipped = &best
	return best
}

// MarkDeleted sets s as the position's deleted symbol, clearing its stored
// bitmap. It is the counterpart a loader may call instead of
// FlipMostNumerousBitmap when it wants to represent "this symbol is never
// stored explicitly" (§9's delete-transform open question; unused by the
// default build path, see DESIGN.md). It panics if a different symbol is
// currently flipped, since flipped and deleted are never both set.
func (p *SequencePosition[A]) MarkDeleted(s alphabet.Symbol) {
	if p.flipped != nil && *p.flipped != s {
		panic("storage: cannot delete a symbol at a position with a flipped symbol")
	}
	p.flipped = nil
	p.deleted = &s
	p.bitmaps.Set(s, bitmap.New())
}

// ComputeSize returns the approximate number of bytes occupied by this
// position's stored bitmaps.
func (p *SequencePosition[A]) ComputeSize() uint64 {
	var total uint64
	p.bitmaps.ForEach(func(_ alphabet.Symbol, bm *bitmap.Bitmap) {
		total += bm.GetSizeInBytes()
	})
	return total
}

// ReconstructDeletedMembership computes the implicit membership bitmap of
// the deleted symbol at this position: rows not covered by any other
// symbol's true membership set and not missing at this position. n is the
// partition row count; missingAtPosition is the set of rows whose horizontal
// missing-symbol bitmap contains this position (§4.7).
func (p *SequencePosition[A]) ReconstructDeletedMembership(n uint64, missingAtPosition *roaring.Bitmap) *roaring.Bitmap {
	covered := bitmap.New()
	p.bitmaps.ForEach(func(s alphabet.Symbol, _ *bitmap.Bitmap) {
		if p.IsSymbolDeleted(s) {
			return
		}
		stored := p.bitmaps.Get(s)
		if p.IsSymbolFlipped(s) {
			complement := stored.Clone()
			complement.Flip(0, n)
			covered.Or(complement)
		} else {
			covered.Or(stored)
		}
	})
	result := bitmap.New()
	result.AddRange(0, n)
	result.AndNot(covered)
	result.AndNot(missingAtPosition)
	return result
}
