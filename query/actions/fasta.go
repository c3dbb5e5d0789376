package actions

import (
	"strings"

	"github.com/genspectrum/silo/alphabet"
	"github.com/genspectrum/silo/storage"
)

// Fasta is the "Fasta"/"FastaAligned" action (§6): reconstructs one or more
// sequence columns per matched row. Aligned selects whether gaps introduced
// by alignment are kept (true, FastaAligned) or stripped (false, Fasta) from
// the emitted string. additionalFields are metadata columns copied alongside
// each sequence.
type Fasta struct {
	SequenceNames    []string
	AdditionalFields []string
	Aligned          bool
}

func (f Fasta) Execute(table *storage.Table, results []PartitionResult) ([]Record, error) {
	var out []Record
	for _, r := range results {
		it := r.Bitmap.Iterator()
		for it.HasNext() {
			row := it.Next()
			rec := Record{}
			for _, f2 := range f.AdditionalFields {
				v, _ := r.Partition.RowValue(table.Schema, f2, row)
				rec[f2] = v
			}
			for _, name := range f.SequenceNames {
				seq, err := reconstructSequence(table, r.Partition, name, row, f.Aligned)
				if err != nil {
					return nil, err
				}
				rec[name] = seq
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

func reconstructSequence(table *storage.Table, partition *storage.TablePartition, name string, row uint32, aligned bool) (string, error) {
	if nuc, ok := storage.SequenceColumn[alphabet.Nucleotide](partition, name); ok {
		return buildSequence[alphabet.Nucleotide](nuc, row, aligned), nil
	}
	if aa, ok := storage.SequenceColumn[alphabet.AminoAcid](partition, name); ok {
		return buildSequence[alphabet.AminoAcid](aa, row, aligned), nil
	}
	return "", badColumn(table, name)
}

func buildSequence[A alphabet.Alphabet](col *storage.SequenceColumnPartition[A], row uint32, aligned bool) string {
	var a A
	ref := col.Reference()
	if aligned {
		var sb strings.Builder
		sb.Grow(len(ref))
		for p := 0; p < len(ref); p++ {
			sb.WriteByte(a.SymbolToChar(col.SymbolAt(row, p)))
		}
		return sb.String()
	}

	// Unaligned reconstruction: drop the read's own deletions (they were
	// never actually sequenced) and drop the Missing padding outside the
	// read's covered window, but keep any in-window explicit no-call (N/X)
	// since that base really was read, just ambiguously. The covered window
	// is the run between the first and last non-Missing position; Missing
	// runs inside it are kept, Missing runs outside it are alignment padding.
	syms := make([]alphabet.Symbol, len(ref))
	lo, hi := -1, -1
	for p := 0; p < len(ref); p++ {
		s := col.SymbolAt(row, p)
		syms[p] = s
		if s != a.Missing() {
			if lo == -1 {
				lo = p
			}
			hi = p
		}
	}

	var sb strings.Builder
	sb.Grow(len(ref))
	for p := lo; p >= 0 && p <= hi; p++ {
		if syms[p] == a.Gap() {
			continue
		}
		sb.WriteByte(a.SymbolToChar(syms[p]))
	}
	return sb.String()
}
