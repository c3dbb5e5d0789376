// Package alphabet defines the finite symbol sets SILO stores sequence data
// over: Nucleotide and AminoAcid. A Symbol is a small integer that indexes
// directly into fixed-size per-position arrays (SymbolMap), so alphabets are
// zero-size value types rather than runtime-configured tables.
package alphabet

import "fmt"

// Symbol is a single character of an alphabet, represented as its index into
// that alphabet's Symbols() list.
type Symbol uint8

// Alphabet is implemented by zero-size marker types (Nucleotide, AminoAcid).
// Every method is pure and keyed only by the package-level symbol tables, so
// a generic type can hold an Alphabet as a type parameter and construct its
// zero value (var a A) to reach these methods without any per-instance
// state.
type Alphabet interface {
	// Name identifies the alphabet in error messages.
	Name() string
	// Symbols returns every symbol of the alphabet, in SYMBOLS order. This
	// order is the index space bitmaps and SymbolMap values are keyed by.
	Symbols() []Symbol
	// CharToSymbol maps a single input character to a Symbol. ok is false if
	// c does not belong to this alphabet.
	CharToSymbol(c byte) (s Symbol, ok bool)
	// SymbolToChar is the total inverse of CharToSymbol.
	SymbolToChar(s Symbol) byte
	// Missing returns the alphabet's designated "no data" symbol (N for
	// Nucleotide, X for AminoAcid).
	Missing() Symbol
	// Gap returns the alphabet's alignment-gap symbol ('-' for both).
	Gap() Symbol
	// ValidMutationSymbols returns every symbol except Missing; used to
	// enumerate "this position has a mutation" without a reference value.
	ValidMutationSymbols() []Symbol
	// ConcreteMutationSymbols returns the symbols a HasMutation predicate
	// should compare a position against. This excludes Missing, excludes
	// every ambiguity code (Nucleotide's ten IUPAC letters are never, on
	// their own, evidence of a mutation), and for Nucleotide also excludes
	// GAP: only a literal base call counts as "mutated" away from the
	// reference. The alphabets are not symmetric here (AminoAcid has no
	// ambiguity codes and does count GAP/STOP), so each alphabet defines
	// its own set rather than deriving it from ValidMutationSymbols.
	ConcreteMutationSymbols() []Symbol
	// AmbiguitySymbols returns the concrete matches of s under IUPAC-style
	// ambiguity. A concrete symbol's ambiguity class is itself.
	AmbiguitySymbols(s Symbol) []Symbol
}

// SymbolMap is a fixed-size table indexed by Symbol, used for per-position
// bitmap storage (SymbolMap[A, Bitmap]) and other per-symbol state.
type SymbolMap[A Alphabet, V any] struct {
	values []V
}

// NewSymbolMap allocates a SymbolMap sized to A's alphabet.
func NewSymbolMap[A Alphabet, V any]() SymbolMap[A, V] {
	var a A
	return SymbolMap[A, V]{values: make([]V, len(a.Symbols()))}
}

// Get returns the value stored for s.
func (m SymbolMap[A, V]) Get(s Symbol) V {
	return m.values[s]
}

// Set stores v for s.
func (m SymbolMap[A, V]) Set(s Symbol, v V) {
	m.values[s] = v
}

// Len returns the number of symbols in the map (== len(A{}.Symbols())).
func (m SymbolMap[A, V]) Len() int {
	return len(m.values)
}

// ForEach calls f for every (symbol, value) pair, in SYMBOLS order.
func (m SymbolMap[A, V]) ForEach(f func(Symbol, V)) {
	for i, v := range m.values {
		f(Symbol(i), v)
	}
}

// ErrUnknownSymbol is returned by alphabet lookups fed an out-of-alphabet
// character.
type ErrUnknownSymbol struct {
	Alphabet string
	Char     byte
}

func (e *ErrUnknownSymbol) Error() string {
	return fmt.Sprintf("%s: character %q is not a valid symbol", e.Alphabet, e.Char)
}
