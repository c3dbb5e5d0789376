package bitmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/genspectrum/silo/bitmap"
)

func TestFromRange(t *testing.T) {
	b := bitmap.FromRange(2, 5)
	assert.Equal(t, uint64(3), b.GetCardinality())
	assert.True(t, b.Contains(2))
	assert.True(t, b.Contains(4))
	assert.False(t, b.Contains(5))
}

func TestBorrowDoesNotMutateOriginal(t *testing.T) {
	owned := bitmap.FromRange(0, 4)
	cow := bitmap.Borrow(owned)
	assert.False(t, cow.IsOwned())

	other := bitmap.FromRange(10, 12)
	cow.Or(other)

	assert.True(t, cow.IsOwned(), "Mutable() should have cloned and flipped ownership")
	assert.Equal(t, uint64(4), owned.GetCardinality(), "borrowed original must be untouched")
	assert.Equal(t, uint64(6), cow.Bitmap().GetCardinality())
}

func TestOwnAllowsInPlaceMutation(t *testing.T) {
	base := bitmap.FromRange(0, 4)
	cow := bitmap.Own(base)
	assert.True(t, cow.IsOwned())

	cow.And(bitmap.FromRange(2, 10))
	assert.Same(t, base, cow.Bitmap(), "owned mutation should not clone")
	assert.Equal(t, uint64(2), cow.Cardinality())
}

func TestAndNot(t *testing.T) {
	cow := bitmap.Own(bitmap.FromRange(0, 5))
	cow.AndNot(bitmap.FromRange(3, 5))
	assert.Equal(t, uint64(3), cow.Cardinality())
}

func TestFlip(t *testing.T) {
	cow := bitmap.Own(bitmap.FromRange(0, 2))
	cow.Flip(5)
	assert.Equal(t, uint64(3), cow.Cardinality())
	assert.True(t, cow.Bitmap().Contains(2))
	assert.True(t, cow.Bitmap().Contains(4))
	assert.False(t, cow.Bitmap().Contains(0))
}

func TestMutableIsIdempotentAfterFirstClone(t *testing.T) {
	original := bitmap.FromRange(0, 3)
	cow := bitmap.Borrow(original)
	first := cow.Mutable()
	second := cow.Mutable()
	assert.Same(t, first, second, "second Mutable call must not re-clone")
}
