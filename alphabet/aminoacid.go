package alphabet

// AminoAcid is the alphabet of aligned amino-acid sequence columns: the 20
// standard residues, the alignment gap, STOP, and the missing-data symbol X.
type AminoAcid struct{}

const (
	AAA Symbol = iota
	AAC
	AAD
	AAE
	AAF
	AAG
	AAH
	AAI
	AAK
	AAL
	AAM
	AAN
	AAP
	AAQ
	AAR
	AAS
	AAT
	AAV
	AAW
	AAY
	AAGap
	AAStop
	AAX
	aaCount
)

var aminoAcidChars = [aaCount]byte{
	AAA: 'A', AAC: 'C', AAD: 'D', AAE: 'E', AAF: 'F', AAG: 'G', AAH: 'H',
	AAI: 'I', AAK: 'K', AAL: 'L', AAM: 'M', AAN: 'N', AAP: 'P', AAQ: 'Q',
	AAR: 'R', AAS: 'S', AAT: 'T', AAV: 'V', AAW: 'W', AAY: 'Y',
	AAGap: '-', AAStop: '*', AAX: 'X',
}

var aminoAcidFromChar = func() map[byte]Symbol {
	m := make(map[byte]Symbol, aaCount)
	for s, c := range aminoAcidChars {
		m[c] = Symbol(s)
	}
	return m
}()

var aminoAcidSymbols = func() []Symbol {
	out := make([]Symbol, aaCount)
	for i := range out {
		out[i] = Symbol(i)
	}
	return out
}()

func (AminoAcid) Name() string { return "amino acid" }

func (AminoAcid) Symbols() []Symbol { return aminoAcidSymbols }

func (AminoAcid) CharToSymbol(c byte) (Symbol, bool) {
	s, ok := aminoAcidFromChar[c]
	return s, ok
}

func (AminoAcid) SymbolToChar(s Symbol) byte { return aminoAcidChars[s] }

func (AminoAcid) Missing() Symbol { return AAX }

func (AminoAcid) Gap() Symbol { return AAGap }

func (a AminoAcid) ValidMutationSymbols() []Symbol {
	out := make([]Symbol, 0, aaCount-1)
	for _, s := range aminoAcidSymbols {
		if s != AAX {
			out = append(out, s)
		}
	}
	return out
}

// ConcreteMutationSymbols is every residue except Missing, including GAP and
// STOP: unlike Nucleotide, AminoAcid has no ambiguity codes to exclude, so
// this coincides with ValidMutationSymbols.
func (a AminoAcid) ConcreteMutationSymbols() []Symbol {
	return a.ValidMutationSymbols()
}

// AminoAcid has no ambiguity codes distinct from its concrete residues, so
// every symbol's ambiguity class is itself.
func (AminoAcid) AmbiguitySymbols(s Symbol) []Symbol {
	return []Symbol{s}
}

// StopEscape is the escape sequence ("\*") representing a literal STOP
// symbol inside an insertion value, per §3.
const StopEscape = `\*`
