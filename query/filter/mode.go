// Package filter implements the Expression family of §4.6-§4.8: the
// compile-time simplification engine that lowers a parsed filter tree into a
// query/operators.Operator, plus the ambiguity-mode rewriting for IUPAC
// symbol classes.
package filter

import (
	"github.com/genspectrum/silo/query/operators"
	"github.com/genspectrum/silo/storage"
)

// Mode is the ambiguity-mode policy of §4.6, affecting only SymbolEquals and
// HasMutation compilation.
type Mode int

const (
	// None matches the stored symbol exactly, plus wildcard '.' resolves to
	// the reference base.
	None Mode = iota
	// LowerBound requires the stored symbol to be exactly s.
	LowerBound
	// UpperBound matches any concrete symbol consistent with s under IUPAC.
	UpperBound
)

// invert returns the mode used to compile a Not child: Maybe/Exact override
// the mode directly, but Not itself must flip whichever mode it inherited so
// De Morgan's rewriting of ambiguity classes stays correct under negation.
func (m Mode) invert() Mode {
	switch m {
	case LowerBound:
		return UpperBound
	case UpperBound:
		return LowerBound
	default:
		return None
	}
}

// Expression is a parsed, not-yet-compiled filter node (§6's tagged JSON
// union, after json.go's two-pass decode).
type Expression interface {
	Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error)
}
