// Package operators implements the bitmap operator algebra of §4.5: the
// small set of row-set operations Expression.Compile lowers filters into.
// Operators are constructed once and evaluated at most once per partition
// query (§4.9); evaluation never fails.
package operators

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/genspectrum/silo/bitmap"
)

// Type tags an Operator's family, for pattern-matching in the simplifier
// (query/filter) without type assertions on every call site.
type Type int

const (
	TypeFull Type = iota
	TypeEmpty
	TypeIndexScan
	TypeComplement
	TypeIntersection
	TypeUnion
	TypeThreshold
	TypeSelection
	TypeBitmapSelection
	TypeBitmapProducer
)

// Operator is the evaluated form of a compiled filter expression (§4.5).
type Operator interface {
	Evaluate() bitmap.CopyOnWriteBitmap
	Type() Type
	String() string
}

// Negate returns the operator whose evaluation is the complement of self's,
// over the same row universe [0, n). Each operator implements the cheapest
// available negation rather than uniformly wrapping in Complement.
func Negate(self Operator, n uint64) Operator {
	switch op := self.(type) {
	case *fullOp:
		return NewEmpty(n)
	case *emptyOp:
		return NewFull(n)
	case *complementOp:
		return op.child
	default:
		return NewComplement(self, n)
	}
}

// --- Full / Empty ---

type fullOp struct{ n uint64 }

// NewFull returns an operator whose evaluation is every row id in [0, n).
func NewFull(n uint64) Operator { return &fullOp{n: n} }

func (o *fullOp) Evaluate() bitmap.CopyOnWriteBitmap {
	return bitmap.Own(bitmap.FromRange(0, o.n))
}
func (o *fullOp) Type() Type     { return TypeFull }
func (o *fullOp) String() string { return fmt.Sprintf("Full(%d)", o.n) }

type emptyOp struct{ n uint64 }

// NewEmpty returns an operator whose evaluation is always the empty set.
func NewEmpty(n uint64) Operator { return &emptyOp{n: n} }

func (o *emptyOp) Evaluate() bitmap.CopyOnWriteBitmap {
	return bitmap.Own(bitmap.New())
}
func (o *emptyOp) Type() Type     { return TypeEmpty }
func (o *emptyOp) String() string { return fmt.Sprintf("Empty(%d)", o.n) }

// UnwrapComplement returns op's child and true if op is a Complement
// operator, letting the simplifier (query/filter) apply De Morgan without a
// type switch on an unexported type.
func UnwrapComplement(op Operator) (Operator, bool) {
	if c, ok := op.(*complementOp); ok {
		return c.child, true
	}
	return nil, false
}

// IntersectionChildren returns op's pos/neg children and true if op is an
// Intersection operator, letting the simplifier absorb a nested Intersection
// into its parent.
func IntersectionChildren(op Operator) (pos, neg []Operator, ok bool) {
	if i, ok := op.(*intersectionOp); ok {
		return i.pos, i.neg, true
	}
	return nil, nil, false
}

// UnionChildren returns op's children and true if op is a Union operator.
func UnionChildren(op Operator) (children []Operator, ok bool) {
	if u, ok := op.(*unionOp); ok {
		return u.children, true
	}
	return nil, false
}

// --- IndexScan ---

type indexScanOp struct {
	bm *bitmap.Bitmap
	n  uint64
}

// NewIndexScan returns an operator wrapping a borrowed, precomputed bitmap
// owned by table storage.
func NewIndexScan(bm *bitmap.Bitmap, n uint64) Operator {
	return &indexScanOp{bm: bm, n: n}
}

func (o *indexScanOp) Evaluate() bitmap.CopyOnWriteBitmap {
	return bitmap.Borrow(o.bm)
}
func (o *indexScanOp) Type() Type     { return TypeIndexScan }
func (o *indexScanOp) String() string { return "IndexScan" }

// --- Complement ---

type complementOp struct {
	child Operator
	n     uint64
}

// NewComplement returns an operator evaluating child then flipping the
// result in place over [0, n).
func NewComplement(child Operator, n uint64) Operator {
	return &complementOp{child: child, n: n}
}

func (o *complementOp) Evaluate() bitmap.CopyOnWriteBitmap {
	cow := o.child.Evaluate()
	cow.Flip(o.n)
	return cow
}
func (o *complementOp) Type() Type     { return TypeComplement }
func (o *complementOp) String() string { return fmt.Sprintf("Complement(%s)", o.child) }

// --- Intersection ---

type intersectionOp struct {
	pos, neg []Operator
	n        uint64
}

// NewIntersection returns an operator for the intersection of pos, minus the
// union of neg. It panics if pos is empty or pos+neg has fewer than two
// children, mirroring §4.5's build-time invariant: callers with no positive
// child must instead build Complement(Union(neg)).
func NewIntersection(pos, neg []Operator, n uint64) Operator {
	if len(pos)+len(neg) < 2 {
		panic("operators: Intersection requires at least 2 children")
	}
	if len(pos) == 0 {
		panic("operators: Intersection requires at least 1 positive child")
	}
	return &intersectionOp{pos: pos, neg: neg, n: n}
}

func (o *intersectionOp) Evaluate() bitmap.CopyOnWriteBitmap {
	type evaluated struct {
		cow bitmap.CopyOnWriteBitmap
		bm  *bitmap.Bitmap
	}
	pos := make([]evaluated, len(o.pos))
	for i, p := range o.pos {
		cow := p.Evaluate()
		pos[i] = evaluated{cow: cow, bm: cow.Bitmap()}
	}
	sort.Slice(pos, func(i, j int) bool {
		return pos[i].bm.GetCardinality() < pos[j].bm.GetCardinality()
	})
	neg := make([]evaluated, len(o.neg))
	for i, n := range o.neg {
		cow := n.Evaluate()
		neg[i] = evaluated{cow: cow, bm: cow.Bitmap()}
	}
	sort.Slice(neg, func(i, j int) bool {
		return neg[i].bm.GetCardinality() > neg[j].bm.GetCardinality()
	})

	result := pos[0].cow
	for _, p := range pos[1:] {
		result.And(p.bm)
	}
	for _, n := range neg {
		result.AndNot(n.bm)
	}
	return result
}
func (o *intersectionOp) Type() Type { return TypeIntersection }
func (o *intersectionOp) String() string {
	return fmt.Sprintf("Intersection(pos=%d, neg=%d)", len(o.pos), len(o.neg))
}

// --- Union ---

type unionOp struct {
	children []Operator
	n        uint64
}

// NewUnion returns an operator for the fast-union (many-way OR) of children.
func NewUnion(children []Operator, n uint64) Operator {
	return &unionOp{children: children, n: n}
}

func (o *unionOp) Evaluate() bitmap.CopyOnWriteBitmap {
	bms := make([]*bitmap.Bitmap, len(o.children))
	for i, c := range o.children {
		bms[i] = c.Evaluate().Bitmap()
	}
	return bitmap.Own(roaring.FastOr(bms...))
}
func (o *unionOp) Type() Type { return TypeUnion }
func (o *unionOp) String() string {
	return fmt.Sprintf("Union(%d children)", len(o.children))
}

// --- Threshold ---

type thresholdOp struct {
	pos, neg []Operator
	k        int
	exact    bool
	n        uint64
}

// NewThreshold returns an operator matching rows satisfied by at least k (or
// exactly k, if exact) of the pos+neg children, where a neg child's match
// condition is the complement of its wrapped operator. Panics if
// 1 <= k < len(pos)+len(neg) does not hold, per §4.5's precondition.
func NewThreshold(pos, neg []Operator, k int, exact bool, n uint64) Operator {
	total := len(pos) + len(neg)
	if k < 1 || k >= total {
		panic("operators: Threshold requires 1 <= k < len(children)")
	}
	return &thresholdOp{pos: pos, neg: neg, k: k, exact: exact, n: n}
}

// Evaluate builds a dynamic-programming table of k+1 running bitmaps: dp[j]
// holds the rows matched by at least j children seen so far. Each child is
// folded in from dp[k] down to dp[1] so a row already counted at level j
// doesn't get double-counted within the same child (standard "at least k of
// n" bitmap DP, grounded on the cardinality-DP shape of storage's Mutations
// formulas).
func (o *thresholdOp) Evaluate() bitmap.CopyOnWriteBitmap {
	// When exact, NewThreshold's precondition k < len(pos)+len(neg) guarantees
	// k+1 is also a reachable match count, so the table extends one level
	// further to support the final "at least k, minus at least k+1" subtraction.
	top := o.k
	if o.exact {
		top = o.k + 1
	}
	dp := make([]*bitmap.Bitmap, top+1)
	dp[0] = bitmap.FromRange(0, o.n) // "at least 0 matches" = every row
	for i := 1; i < len(dp); i++ {
		dp[i] = bitmap.New()
	}
	fold := func(matchBM *bitmap.Bitmap) {
		for j := top; j >= 1; j-- {
			gain := roaring.And(matchBM, dp[j-1])
			dp[j].Or(gain)
		}
	}
	for _, p := range o.pos {
		fold(p.Evaluate().Bitmap())
	}
	for _, n := range o.neg {
		cow := n.Evaluate()
		cow.Flip(o.n)
		fold(cow.Bitmap())
	}
	if !o.exact {
		return bitmap.Own(dp[o.k])
	}
	result := dp[o.k].Clone()
	result.AndNot(dp[o.k+1])
	return bitmap.Own(result)
}
func (o *thresholdOp) Type() Type { return TypeThreshold }
func (o *thresholdOp) String() string {
	return fmt.Sprintf("Threshold(k=%d, exact=%v, pos=%d, neg=%d)", o.k, o.exact, len(o.pos), len(o.neg))
}

// --- Selection ---

// Predicate is a single CPU-evaluated row test used by Selection.
type Predicate func(row uint32) bool

type selectionOp struct {
	predicates []Predicate
	child      Operator
	n          uint64
}

// NewSelection returns an operator applying predicates (ANDed together) over
// either child's result (if non-nil) or [0, n).
func NewSelection(predicates []Predicate, child Operator, n uint64) Operator {
	return &selectionOp{predicates: predicates, child: child, n: n}
}

func (o *selectionOp) Evaluate() bitmap.CopyOnWriteBitmap {
	var base *bitmap.Bitmap
	if o.child != nil {
		base = o.child.Evaluate().Bitmap()
	} else {
		base = bitmap.FromRange(0, o.n)
	}
	result := bitmap.New()
	it := base.Iterator()
	for it.HasNext() {
		row := it.Next()
		match := true
		for _, pred := range o.predicates {
			if !pred(row) {
				match = false
				break
			}
		}
		if match {
			result.Add(row)
		}
	}
	return bitmap.Own(result)
}
// Predicates returns o's predicate list, letting the simplifier hoist them
// into a surrounding And (§4.6).
func (o *selectionOp) Predicates() []Predicate { return o.predicates }

// Child returns o's wrapped child, or nil if it selects over [0, n).
func (o *selectionOp) Child() Operator { return o.child }

func (o *selectionOp) Type() Type { return TypeSelection }
func (o *selectionOp) String() string {
	return fmt.Sprintf("Selection(%d predicates)", len(o.predicates))
}

// --- BitmapSelection ---

// BitmapPredicate is CONTAINS or NOT_CONTAINS, the test BitmapSelection
// applies between each row's horizontal bitmap and a fixed position.
type BitmapPredicate int

const (
	Contains BitmapPredicate = iota
	NotContains
)

type bitmapSelectionOp struct {
	horizontal func(row uint32) *bitmap.Bitmap
	predicate  BitmapPredicate
	position   uint32
	n          uint64
}

// NewBitmapSelection returns an operator scanning horizontal(r).Contains(position)
// for r in [0, n), per §4.5 — used for "is position p missing for row r".
func NewBitmapSelection(horizontal func(row uint32) *bitmap.Bitmap, predicate BitmapPredicate, position uint32, n uint64) Operator {
	return &bitmapSelectionOp{horizontal: horizontal, predicate: predicate, position: position, n: n}
}

func (o *bitmapSelectionOp) Evaluate() bitmap.CopyOnWriteBitmap {
	result := bitmap.New()
	for r := uint64(0); r < o.n; r++ {
		contains := o.horizontal(uint32(r)).Contains(o.position)
		want := o.predicate == Contains
		if contains == want {
			result.Add(uint32(r))
		}
	}
	return bitmap.Own(result)
}
func (o *bitmapSelectionOp) Type() Type { return TypeBitmapSelection }
func (o *bitmapSelectionOp) String() string {
	return fmt.Sprintf("BitmapSelection(pos=%d, predicate=%v)", o.position, o.predicate)
}

// --- BitmapProducer ---

type bitmapProducerOp struct {
	produce func() (*bitmap.Bitmap, error)
	label   string
	err     *error
}

// NewBitmapProducer returns an opaque deferred source operator: produce is
// invoked on every Evaluate call (its result is not cached). Used by
// InsertionContains. If produce fails, Evaluate yields an empty bitmap and,
// when errs is non-nil, stores the error there (Operator.Evaluate itself
// cannot fail per §4.5, so such a caller checks errs after the partition's
// query completes); with a nil errs the error is dropped.
func NewBitmapProducer(label string, produce func() (*bitmap.Bitmap, error), errs *error) Operator {
	return &bitmapProducerOp{produce: produce, label: label, err: errs}
}

func (o *bitmapProducerOp) Evaluate() bitmap.CopyOnWriteBitmap {
	bm, err := o.produce()
	if err != nil {
		if o.err != nil {
			*o.err = err
		}
		return bitmap.Own(bitmap.New())
	}
	return bitmap.Own(bm)
}
func (o *bitmapProducerOp) Type() Type     { return TypeBitmapProducer }
func (o *bitmapProducerOp) String() string { return fmt.Sprintf("BitmapProducer(%s)", o.label) }
