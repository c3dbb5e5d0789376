// Package bitmap wraps github.com/RoaringBitmap/roaring with the
// CopyOnWriteBitmap handle the query engine needs: an owning-or-borrowing
// pointer that lets Operator.Evaluate mutate an already-owned operand
// in place while never mutating a bitmap borrowed from table storage.
package bitmap

import "github.com/RoaringBitmap/roaring"

// Bitmap is the row-id set type used throughout storage and the query
// engine. It is a thin alias so callers outside this package never import
// roaring directly.
type Bitmap = roaring.Bitmap

// New returns a new, empty Bitmap.
func New() *Bitmap { return roaring.New() }

// FromRange returns a Bitmap containing every row id in [start, end).
func FromRange(start, end uint64) *Bitmap {
	b := roaring.New()
	b.AddRange(start, end)
	return b
}

// CopyOnWriteBitmap is either a borrowed, immutable view of a bitmap owned
// by table storage, or an owned bitmap the holder is free to mutate. It is
// the return type of Operator.Evaluate (§4.5, §4.9).
//
// The zero value is not valid; construct with Borrow or Own.
type CopyOnWriteBitmap struct {
	bm    *Bitmap
	owned bool
}

// Borrow wraps bm without taking ownership. The returned CopyOnWriteBitmap
// must not be mutated directly; call Mutable to get a private copy first.
func Borrow(bm *Bitmap) CopyOnWriteBitmap {
	return CopyOnWriteBitmap{bm: bm, owned: false}
}

// Own wraps bm, which the caller is transferring ownership of. The returned
// CopyOnWriteBitmap may be mutated in place.
func Own(bm *Bitmap) CopyOnWriteBitmap {
	return CopyOnWriteBitmap{bm: bm, owned: true}
}

// Bitmap returns a read-only view. Callers must not mutate the result.
func (c CopyOnWriteBitmap) Bitmap() *Bitmap {
	return c.bm
}

// IsOwned reports whether the wrapped bitmap may be mutated in place.
func (c CopyOnWriteBitmap) IsOwned() bool {
	return c.owned
}

// Mutable returns a bitmap this holder may freely mutate, cloning on first
// mutation if the wrapped bitmap was only borrowed. The receiver is updated
// to own the returned bitmap, so repeated calls do not re-clone.
func (c *CopyOnWriteBitmap) Mutable() *Bitmap {
	if !c.owned {
		c.bm = c.bm.Clone()
		c.owned = true
	}
	return c.bm
}

// Cardinality returns the number of set row ids.
func (c CopyOnWriteBitmap) Cardinality() uint64 {
	return c.bm.GetCardinality()
}

// And intersects other into the receiver in place, cloning first if the
// receiver was only borrowed.
func (c *CopyOnWriteBitmap) And(other *Bitmap) {
	c.Mutable().And(other)
}

// AndNot subtracts other from the receiver in place, cloning first if the
// receiver was only borrowed.
func (c *CopyOnWriteBitmap) AndNot(other *Bitmap) {
	c.Mutable().AndNot(other)
}

// Or unions other into the receiver in place, cloning first if the receiver
// was only borrowed.
func (c *CopyOnWriteBitmap) Or(other *Bitmap) {
	c.Mutable().Or(other)
}

// Flip complements the receiver over [0, n) in place, cloning first if the
// receiver was only borrowed.
func (c *CopyOnWriteBitmap) Flip(n uint64) {
	c.Mutable().Flip(0, n)
}
