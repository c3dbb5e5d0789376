package filter

import (
	"github.com/genspectrum/silo/query/operators"
	"github.com/genspectrum/silo/storage"
)

// True always matches every row.
type True struct{}

func (True) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	return operators.NewFull(partition.RowCount()), nil
}

// False never matches any row.
type False struct{}

func (False) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	return operators.NewEmpty(partition.RowCount()), nil
}

// And implements the §4.6 And-simplification rule.
type And struct {
	Children []Expression
}

// flattenAnd recursively expands nested Ands into a single child list, so the
// simplifier sees the whole conjunction at once (§4.6 "flatten nested
// And/Intersection").
func flattenAnd(children []Expression) []Expression {
	var out []Expression
	for _, c := range children {
		if and, ok := c.(And); ok {
			out = append(out, flattenAnd(and.Children)...)
			continue
		}
		out = append(out, c)
	}
	return out
}

func (a And) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	n := partition.RowCount()
	flat := flattenAnd(a.Children)
	compiled := make([]operators.Operator, 0, len(flat))
	for _, c := range flat {
		op, err := c.Compile(table, partition, mode)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, op)
	}
	return simplifyAnd(compiled, n), nil
}

// simplifyAnd absorbs Full, short-circuits to Empty, partitions into
// pos/neg (unwrapping Complement children and absorbing nested
// Intersection), hoists Selection predicates, and builds the final operator
// (§4.6).
func simplifyAnd(children []operators.Operator, n uint64) operators.Operator {
	var pos, neg []operators.Operator
	var predicates []operators.Predicate
	for _, c := range children {
		switch c.Type() {
		case operators.TypeFull:
			continue
		case operators.TypeEmpty:
			return operators.NewEmpty(n)
		case operators.TypeIntersection:
			p, ng, _ := operators.IntersectionChildren(c)
			pos = append(pos, p...)
			neg = append(neg, ng...)
			continue
		case operators.TypeSelection:
			if sel, ok := c.(interface {
				Predicates() []operators.Predicate
				Child() operators.Operator
			}); ok {
				predicates = append(predicates, sel.Predicates()...)
				if child := sel.Child(); child != nil {
					pos = append(pos, child)
				}
				continue
			}
		}
		if child, ok := operators.UnwrapComplement(c); ok {
			neg = append(neg, child)
			continue
		}
		pos = append(pos, c)
	}
	var core operators.Operator
	switch {
	case len(pos) == 0 && len(neg) == 0:
		core = nil
	case len(pos) == 0 && len(neg) == 1:
		core = operators.NewComplement(neg[0], n)
	case len(pos)+len(neg) == 1:
		core = pos[0]
	case len(pos) == 0:
		core = operators.NewComplement(operators.NewUnion(neg, n), n)
	default:
		core = operators.NewIntersection(pos, neg, n)
	}
	if len(predicates) == 0 {
		if core == nil {
			return operators.NewFull(n)
		}
		return core
	}
	return operators.NewSelection(predicates, core, n)
}

// Or implements the §4.6 Or-simplification rule.
type Or struct {
	Children []Expression
}

func flattenOr(children []Expression) []Expression {
	var out []Expression
	for _, c := range children {
		if or, ok := c.(Or); ok {
			out = append(out, flattenOr(or.Children)...)
			continue
		}
		out = append(out, c)
	}
	return out
}

func (o Or) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	n := partition.RowCount()
	flat := flattenOr(o.Children)
	compiled := make([]operators.Operator, 0, len(flat))
	for _, c := range flat {
		op, err := c.Compile(table, partition, mode)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, op)
	}
	return simplifyOr(compiled, n), nil
}

// simplifyOr absorbs Empty, short-circuits to Full, and applies De Morgan
// when any child is already a Complement: Or(Complement(a), b, ...) becomes
// Complement(And(negate(Complement(a)) combined with negations of the rest)),
// i.e. Complement(Intersection(negated children)) (§4.6).
func simplifyOr(children []operators.Operator, n uint64) operators.Operator {
	var kept []operators.Operator
	hasComplement := false
	for _, c := range children {
		switch c.Type() {
		case operators.TypeEmpty:
			continue
		case operators.TypeFull:
			return operators.NewFull(n)
		case operators.TypeUnion:
			if u, ok := operators.UnionChildren(c); ok {
				kept = append(kept, u...)
				continue
			}
		}
		if _, ok := operators.UnwrapComplement(c); ok {
			hasComplement = true
		}
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return operators.NewEmpty(n)
	}
	if len(kept) == 1 {
		return kept[0]
	}
	if !hasComplement {
		return operators.NewUnion(kept, n)
	}
	// De Morgan: Or(c0..cn) = Complement(And(negate(c0)..negate(cn))).
	negated := make([]operators.Operator, len(kept))
	for i, c := range kept {
		negated[i] = operators.Negate(c, n)
	}
	inner := simplifyAnd(negated, n)
	return operators.Negate(inner, n)
}

// Not compiles its child with the inverted ambiguity mode, then negates
// (§4.6).
type Not struct {
	Child Expression
}

func (not Not) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	op, err := not.Child.Compile(table, partition, mode.invert())
	if err != nil {
		return nil, err
	}
	return operators.Negate(op, partition.RowCount()), nil
}

// Maybe compiles its child under UpperBound (§4.6).
type Maybe struct {
	Child Expression
}

func (m Maybe) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	return m.Child.Compile(table, partition, UpperBound)
}

// Exact compiles its child under LowerBound (§4.6).
type Exact struct {
	Child Expression
}

func (e Exact) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	return e.Child.Compile(table, partition, LowerBound)
}

// NOf implements the §4.6 N-Of dispatch and exact-k rewriting.
type NOf struct {
	NumberOfMatchers int
	MatchExactly     bool
	Children         []Expression
}

func (nof NOf) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	n := partition.RowCount()
	k := nof.NumberOfMatchers
	compiled := make([]operators.Operator, 0, len(nof.Children))
	for _, c := range nof.Children {
		op, err := c.Compile(table, partition, mode)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, op)
	}

	var pos, neg []operators.Operator
	for _, c := range compiled {
		switch c.Type() {
		case operators.TypeFull:
			k--
			continue
		case operators.TypeEmpty:
			continue
		}
		if child, ok := operators.UnwrapComplement(c); ok {
			neg = append(neg, child)
			continue
		}
		pos = append(pos, c)
	}
	total := len(pos) + len(neg)

	// k < 0 means more Full children were present than nof.NumberOfMatchers
	// required: "at least k" is trivially already satisfied, but "exactly k"
	// cannot be, since those free matches alone overshoot the target.
	if k < 0 {
		if nof.MatchExactly {
			return operators.NewEmpty(n), nil
		}
		return operators.NewFull(n), nil
	}
	// k > total means more matches are required than children remain: neither
	// "at least" nor "exactly" can be satisfied.
	if k > total {
		return operators.NewEmpty(n), nil
	}
	if k == 0 {
		if nof.MatchExactly {
			if total == 0 {
				return operators.NewFull(n), nil
			}
			// exactly 0 of total ⇒ none match ⇒ complement of the union.
			return operators.Negate(simplifyOr(append(append([]operators.Operator{}, pos...), negateAll(neg, n)...), n), n), nil
		}
		return operators.NewFull(n), nil
	}
	if total == 0 {
		return operators.NewEmpty(n), nil
	}
	if k == total {
		return simplifyAnd(append(append([]operators.Operator{}, pos...), negateAll(neg, n)...), n), nil
	}
	if k == 1 && !nof.MatchExactly {
		return simplifyOr(append(append([]operators.Operator{}, pos...), negateAll(neg, n)...), n), nil
	}

	if mode != None && nof.MatchExactly && k < total {
		// Rewrite exactly-k = (at-least-k) \ (at-least-(k+1)) so the ambiguity
		// mode's effect on each child distributes correctly (§4.6).
		atLeastK := operators.NewThreshold(pos, neg, k, false, n)
		atLeastKPlus1 := operators.NewThreshold(pos, neg, k+1, false, n)
		return operators.NewIntersection([]operators.Operator{atLeastK}, []operators.Operator{atLeastKPlus1}, n), nil
	}
	return operators.NewThreshold(pos, neg, k, nof.MatchExactly, n), nil
}

func negateAll(ops []operators.Operator, n uint64) []operators.Operator {
	out := make([]operators.Operator, len(ops))
	for i, o := range ops {
		out[i] = operators.Negate(o, n)
	}
	return out
}
