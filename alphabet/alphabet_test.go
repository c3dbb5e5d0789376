package alphabet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/genspectrum/silo/alphabet"
)

func TestNucleotideRoundTrip(t *testing.T) {
	var n alphabet.Nucleotide
	for _, s := range n.Symbols() {
		c := n.SymbolToChar(s)
		got, ok := n.CharToSymbol(c)
		assert.True(t, ok, "char %q should round-trip", c)
		assert.Equal(t, s, got)
	}
}

func TestNucleotideCharToSymbolUnknown(t *testing.T) {
	var n alphabet.Nucleotide
	_, ok := n.CharToSymbol('Z')
	assert.False(t, ok)
}

func TestNucleotideMissingIsN(t *testing.T) {
	var n alphabet.Nucleotide
	assert.Equal(t, alphabet.NucN, n.Missing())
}

func TestNucleotideValidMutationSymbolsExcludesMissing(t *testing.T) {
	var n alphabet.Nucleotide
	for _, s := range n.ValidMutationSymbols() {
		assert.NotEqual(t, n.Missing(), s)
	}
	assert.Len(t, n.ValidMutationSymbols(), len(n.Symbols())-1)
}

func TestNucleotideGapIsDash(t *testing.T) {
	var n alphabet.Nucleotide
	assert.Equal(t, alphabet.NucGap, n.Gap())
	assert.Equal(t, byte('-'), n.SymbolToChar(n.Gap()))
}

func TestNucleotideConcreteMutationSymbolsExcludesGapAndAmbiguityCodes(t *testing.T) {
	var n alphabet.Nucleotide
	assert.ElementsMatch(t, []alphabet.Symbol{alphabet.NucA, alphabet.NucC, alphabet.NucG, alphabet.NucT}, n.ConcreteMutationSymbols())
}

func TestNucleotideAmbiguitySymbols(t *testing.T) {
	var n alphabet.Nucleotide
	tests := []struct {
		symbol alphabet.Symbol
		want   []alphabet.Symbol
	}{
		{alphabet.NucA, []alphabet.Symbol{alphabet.NucA}},
		{alphabet.NucR, []alphabet.Symbol{alphabet.NucA, alphabet.NucG, alphabet.NucN}},
		{alphabet.NucY, []alphabet.Symbol{alphabet.NucC, alphabet.NucT, alphabet.NucN}},
	}
	for _, tt := range tests {
		got := n.AmbiguitySymbols(tt.symbol)
		assert.ElementsMatch(t, tt.want, got, "symbol %v", tt.symbol)
	}
}

func TestAminoAcidRoundTrip(t *testing.T) {
	var a alphabet.AminoAcid
	for _, s := range a.Symbols() {
		c := a.SymbolToChar(s)
		got, ok := a.CharToSymbol(c)
		assert.True(t, ok, "char %q should round-trip", c)
		assert.Equal(t, s, got)
	}
}

func TestAminoAcidHasNoAmbiguity(t *testing.T) {
	var a alphabet.AminoAcid
	for _, s := range a.Symbols() {
		assert.Equal(t, []alphabet.Symbol{s}, a.AmbiguitySymbols(s))
	}
}

func TestAminoAcidMissingIsX(t *testing.T) {
	var a alphabet.AminoAcid
	assert.Equal(t, alphabet.AAX, a.Missing())
}

func TestAminoAcidGapIsDash(t *testing.T) {
	var a alphabet.AminoAcid
	assert.Equal(t, alphabet.AAGap, a.Gap())
	assert.Equal(t, byte('-'), a.SymbolToChar(a.Gap()))
}

func TestAminoAcidConcreteMutationSymbolsIncludesGapAndStop(t *testing.T) {
	var a alphabet.AminoAcid
	got := a.ConcreteMutationSymbols()
	assert.Contains(t, got, alphabet.AAGap)
	assert.Contains(t, got, alphabet.AAStop)
	assert.NotContains(t, got, alphabet.AAX)
	assert.Equal(t, a.ValidMutationSymbols(), got)
}

func TestSymbolMap(t *testing.T) {
	m := alphabet.NewSymbolMap[alphabet.Nucleotide, int]()
	assert.Equal(t, 16, m.Len())
	m.Set(alphabet.NucA, 42)
	assert.Equal(t, 42, m.Get(alphabet.NucA))

	seen := make(map[alphabet.Symbol]int)
	m.ForEach(func(s alphabet.Symbol, v int) {
		seen[s] = v
	})
	assert.Equal(t, 42, seen[alphabet.NucA])
	assert.Equal(t, 0, seen[alphabet.NucC])
}

func TestErrUnknownSymbol(t *testing.T) {
	err := &alphabet.ErrUnknownSymbol{Alphabet: "nucleotide", Char: 'Z'}
	assert.Contains(t, err.Error(), "nucleotide")
	assert.Contains(t, err.Error(), "Z")
}
