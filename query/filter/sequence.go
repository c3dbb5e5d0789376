package filter

import (
	"github.com/genspectrum/silo/alphabet"
	"github.com/genspectrum/silo/bitmap"
	"github.com/genspectrum/silo/query/operators"
	"github.com/genspectrum/silo/query/qerr"
	"github.com/genspectrum/silo/storage"
)

// NucleotideEquals is the "NucleotideEquals" filter of §6/§4.7.
type NucleotideEquals struct {
	SequenceName string
	Position     uint32 // 1-based, as given on the wire
	Symbol       byte   // '.' = reference wildcard
}

func (e NucleotideEquals) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	return compileSymbolEquals[alphabet.Nucleotide](table, partition, mode, e.SequenceName, e.Position, e.Symbol, "nucleotide")
}

// AminoAcidEquals is the "AminoAcidEquals" filter of §6/§4.7.
type AminoAcidEquals struct {
	SequenceName string
	Position     uint32
	Symbol       byte
}

func (e AminoAcidEquals) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	return compileSymbolEquals[alphabet.AminoAcid](table, partition, mode, e.SequenceName, e.Position, e.Symbol, "aminoAcid")
}

// HasNucleotideMutation is "HasNucleotideMutation" (§6, ≡ SymbolEquals(≠ reference), §4.7).
type HasNucleotideMutation struct {
	SequenceName string
	Position     uint32
}

func (h HasNucleotideMutation) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	return compileHasMutation[alphabet.Nucleotide](table, partition, mode, h.SequenceName, h.Position, "nucleotide")
}

// HasAminoAcidMutation is "HasAminoAcidMutation" (§6/§4.7).
type HasAminoAcidMutation struct {
	SequenceName string
	Position     uint32
}

func (h HasAminoAcidMutation) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	return compileHasMutation[alphabet.AminoAcid](table, partition, mode, h.SequenceName, h.Position, "aminoAcid")
}

// NucleotideInsertionContains is "NucleotideInsertionContains" (§6/§4.8).
type NucleotideInsertionContains struct {
	SequenceName string
	Position     uint32
	Value        string
}

func (ic NucleotideInsertionContains) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	return compileInsertionContains[alphabet.Nucleotide](table, partition, ic.SequenceName, ic.Position, ic.Value, "nucleotide")
}

// AminoAcidInsertionContains is "AminoAcidInsertionContains" (§6/§4.8).
type AminoAcidInsertionContains struct {
	SequenceName string
	Position     uint32
	Value        string
}

func (ic AminoAcidInsertionContains) Compile(table *storage.Table, partition *storage.TablePartition, mode Mode) (operators.Operator, error) {
	return compileInsertionContains[alphabet.AminoAcid](table, partition, ic.SequenceName, ic.Position, ic.Value, "aminoAcid")
}

// resolveSequence looks up sequenceName's column of alphabet A, falling back
// to the table's default for alphabetName ("nucleotide"/"aminoAcid") when
// sequenceName is empty, and validates position (1-based) against its
// reference length. It returns the 0-based position on success.
func resolveSequence[A alphabet.Alphabet](table *storage.Table, partition *storage.TablePartition, sequenceName string, position uint32, alphabetName string) (*storage.SequenceColumnPartition[A], uint32, error) {
	name := sequenceName
	if name == "" {
		def, ok := table.Schema.DefaultSequenceName(alphabetName)
		if !ok {
			return nil, 0, qerr.Newf(qerr.QueryParse, "no default %s sequence configured; sequenceName is required", alphabetName)
		}
		name = def
	}
	if position < 1 {
		return nil, 0, qerr.Newf(qerr.QueryParse, "position must be >= 1, got %d", position)
	}
	col, ok := storage.SequenceColumn[A](partition, name)
	if !ok {
		return nil, 0, &qerr.Error{Kind: qerr.BadRequest, Message: "unknown sequence name", Suggestion: suggestSequenceName(table, name, alphabetName)}
	}
	pos0 := position - 1
	if int(pos0) >= len(col.Reference()) {
		return nil, 0, qerr.Newf(qerr.BadRequest, "position %d is out of bounds for sequence %q of length %d", position, name, len(col.Reference()))
	}
	return col, pos0, nil
}

// suggestSequenceName is overridden by query/errs.go's matchr-based lookup
// once the query package is wired up; a plain empty string is a harmless
// default within this package's own unit tests.
var suggestSequenceName = func(table *storage.Table, got, alphabetName string) string { return "" }

func compileSymbolEquals[A alphabet.Alphabet](table *storage.Table, partition *storage.TablePartition, mode Mode, sequenceName string, position uint32, symbolChar byte, alphabetName string) (operators.Operator, error) {
	col, pos0, err := resolveSequence[A](table, partition, sequenceName, position, alphabetName)
	if err != nil {
		return nil, err
	}
	n := partition.RowCount()
	var a A
	var sym alphabet.Symbol
	if symbolChar == '.' {
		refSym, ok := a.CharToSymbol(col.Reference()[pos0])
		if !ok {
			return nil, qerr.Newf(qerr.BadRequest, "reference sequence has an unrecognized character at position %d", position)
		}
		sym = refSym
	} else {
		resolved, ok := a.CharToSymbol(symbolChar)
		if !ok {
			return nil, qerr.Newf(qerr.QueryParse, "symbol %q is not part of the %s alphabet", symbolChar, a.Name())
		}
		sym = resolved
	}
	if mode == UpperBound {
		class := a.AmbiguitySymbols(sym)
		if len(class) == 1 {
			return compileConcreteEquals[A](col, pos0, class[0], n)
		}
		ops := make([]operators.Operator, len(class))
		for i, c := range class {
			op, err := compileConcreteEquals[A](col, pos0, c, n)
			if err != nil {
				return nil, err
			}
			ops[i] = op
		}
		return simplifyOr(ops, n), nil
	}
	return compileConcreteEquals[A](col, pos0, sym, n)
}

// compileConcreteEquals restores uniform membership semantics from the
// flip/delete-optimized storage (§4.7 step 5).
func compileConcreteEquals[A alphabet.Alphabet](col *storage.SequenceColumnPartition[A], pos0 uint32, sym alphabet.Symbol, n uint64) (operators.Operator, error) {
	var a A
	if sym == a.Missing() {
		return operators.NewBitmapSelection(func(row uint32) *bitmap.Bitmap {
			return col.MissingSymbols(row)
		}, operators.Contains, pos0, n), nil
	}
	p := col.Position(int(pos0))
	if p.IsSymbolFlipped(sym) {
		return operators.NewComplement(operators.NewIndexScan(p.GetBitmap(sym), n), n), nil
	}
	if p.IsSymbolDeleted(sym) {
		var others []operators.Operator
		for _, other := range a.Symbols() {
			if other == sym {
				continue
			}
			op, err := compileConcreteEquals[A](col, pos0, other, n)
			if err != nil {
				return nil, err
			}
			others = append(others, op)
		}
		return operators.NewComplement(operators.NewUnion(others, n), n), nil
	}
	return operators.NewIndexScan(p.GetBitmap(sym), n), nil
}

func compileHasMutation[A alphabet.Alphabet](table *storage.Table, partition *storage.TablePartition, mode Mode, sequenceName string, position uint32, alphabetName string) (operators.Operator, error) {
	col, pos0, err := resolveSequence[A](table, partition, sequenceName, position, alphabetName)
	if err != nil {
		return nil, err
	}
	n := partition.RowCount()
	var a A
	refSym, ok := a.CharToSymbol(col.Reference()[pos0])
	if !ok {
		return nil, qerr.Newf(qerr.BadRequest, "reference sequence has an unrecognized character at position %d", position)
	}
	if mode == UpperBound {
		refOp, err := compileConcreteEquals[A](col, pos0, refSym, n)
		if err != nil {
			return nil, err
		}
		return operators.Negate(refOp, n), nil
	}
	var ops []operators.Operator
	for _, s := range a.ConcreteMutationSymbols() {
		if s == refSym {
			continue
		}
		op, err := compileConcreteEquals[A](col, pos0, s, n)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return simplifyOr(ops, n), nil
}

func compileInsertionContains[A alphabet.Alphabet](table *storage.Table, partition *storage.TablePartition, sequenceName string, position uint32, pattern string, alphabetName string) (operators.Operator, error) {
	col, pos0, err := resolveSequence[A](table, partition, sequenceName, position, alphabetName)
	if err != nil {
		return nil, err
	}
	if err := storage.ValidatePattern[A](pattern); err != nil {
		return nil, qerr.Newf(qerr.BadRequest, "%s", err)
	}
	produce := func() (*bitmap.Bitmap, error) {
		return col.Insertions().Search(pos0, pattern)
	}
	return operators.NewBitmapProducer("InsertionContains", produce, nil), nil
}
