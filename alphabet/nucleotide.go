package alphabet

// Nucleotide is the alphabet of aligned nucleotide sequence columns: the four
// bases, the alignment gap, the missing-data symbol N, and the ten IUPAC
// ambiguity codes that may appear as a literally basecalled symbol.
type Nucleotide struct{}

// Nucleotide symbol indices, in SYMBOLS order. GAP and N are concrete
// (storable) symbols, not ambiguity codes, even though N also plays the role
// of SYMBOL_MISSING.
const (
	NucA Symbol = iota
	NucC
	NucG
	NucT
	NucGap
	NucN
	NucR
	NucY
	NucS
	NucW
	NucK
	NucM
	NucB
	NucD
	NucH
	NucV
	nucCount
)

var nucleotideChars = [nucCount]byte{
	NucA: 'A', NucC: 'C', NucG: 'G', NucT: 'T', NucGap: '-', NucN: 'N',
	NucR: 'R', NucY: 'Y', NucS: 'S', NucW: 'W', NucK: 'K', NucM: 'M',
	NucB: 'B', NucD: 'D', NucH: 'H', NucV: 'V',
}

var nucleotideFromChar = func() map[byte]Symbol {
	m := make(map[byte]Symbol, nucCount)
	for s, c := range nucleotideChars {
		m[c] = Symbol(s)
	}
	return m
}()

var nucleotideSymbols = func() []Symbol {
	out := make([]Symbol, nucCount)
	for i := range out {
		out[i] = Symbol(i)
	}
	return out
}()

// nucleotideAmbiguity holds, for each ambiguous code, the concrete bases it
// may represent. Concrete symbols (A, C, G, T, GAP, N) are absent here;
// AmbiguitySymbols falls back to {s} for them.
var nucleotideAmbiguity = map[Symbol][]Symbol{
	NucR: {NucA, NucG},
	NucY: {NucC, NucT},
	NucS: {NucG, NucC},
	NucW: {NucA, NucT},
	NucK: {NucG, NucT},
	NucM: {NucA, NucC},
	NucB: {NucC, NucG, NucT},
	NucD: {NucA, NucG, NucT},
	NucH: {NucA, NucC, NucT},
	NucV: {NucA, NucC, NucG},
}

func (Nucleotide) Name() string { return "nucleotide" }

func (Nucleotide) Symbols() []Symbol { return nucleotideSymbols }

func (Nucleotide) CharToSymbol(c byte) (Symbol, bool) {
	s, ok := nucleotideFromChar[c]
	return s, ok
}

func (Nucleotide) SymbolToChar(s Symbol) byte { return nucleotideChars[s] }

func (Nucleotide) Missing() Symbol { return NucN }

func (Nucleotide) Gap() Symbol { return NucGap }

func (a Nucleotide) ValidMutationSymbols() []Symbol {
	out := make([]Symbol, 0, nucCount-1)
	for _, s := range nucleotideSymbols {
		if s != NucN {
			out = append(out, s)
		}
	}
	return out
}

// concreteNucleotideMutationSymbols is the ground-truth set HasMutation
// compares against: the four literal bases only. GAP and the ten IUPAC
// ambiguity codes never count as a mutation on their own.
var concreteNucleotideMutationSymbols = []Symbol{NucA, NucC, NucG, NucT}

func (Nucleotide) ConcreteMutationSymbols() []Symbol {
	return concreteNucleotideMutationSymbols
}

// AmbiguitySymbols implements the §4.1 rule, plus the nucleotide-specific
// addition (§4.1, §4.8) that N always matches an ambiguous query symbol
// under upper-bound evaluation: a position basecalled as N is "could be
// anything", which includes every concrete member of s's ambiguity class.
func (Nucleotide) AmbiguitySymbols(s Symbol) []Symbol {
	concrete, ok := nucleotideAmbiguity[s]
	if !ok {
		return []Symbol{s}
	}
	out := make([]Symbol, len(concrete), len(concrete)+1)
	copy(out, concrete)
	return append(out, NucN)
}
