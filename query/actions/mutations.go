package actions

import (
	"fmt"
	"math"

	"github.com/genspectrum/silo/alphabet"
	"github.com/genspectrum/silo/storage"
)

// Mutations is the "Mutations" action, §4.10's worked example: per-position
// symbol frequencies computed directly from the bitmap indices, exploiting
// the flip/delete transforms instead of materializing full row-by-row
// sequences.
type Mutations struct {
	SequenceNames []string // empty = every sequence name in the schema
	MinProportion float64
	Fields        []string // empty = every field
}

var allMutationFields = []string{"mutation", "mutationFrom", "mutationTo", "position", "sequenceName", "count", "coverage", "proportion"}

func (m Mutations) Execute(table *storage.Table, results []PartitionResult) ([]Record, error) {
	if len(results) == 0 {
		return nil, nil
	}
	names := m.SequenceNames
	if len(names) == 0 {
		names = append(table.Schema.SequenceNames("nucleotide"), table.Schema.SequenceNames("aminoAcid")...)
	}
	fields := m.Fields
	if len(fields) == 0 {
		fields = allMutationFields
	}
	wanted := make(map[string]bool, len(fields))
	for _, f := range fields {
		wanted[f] = true
	}

	var out []Record
	for _, name := range names {
		if _, ok := storage.SequenceColumn[alphabet.Nucleotide](results[0].Partition, name); ok {
			recs, err := computeMutations[alphabet.Nucleotide](table, results, name, m.MinProportion, wanted)
			if err != nil {
				return nil, err
			}
			out = append(out, recs...)
			continue
		}
		if _, ok := storage.SequenceColumn[alphabet.AminoAcid](results[0].Partition, name); ok {
			recs, err := computeMutations[alphabet.AminoAcid](table, results, name, m.MinProportion, wanted)
			if err != nil {
				return nil, err
			}
			out = append(out, recs...)
			continue
		}
		return nil, badColumn(table, name)
	}
	return out, nil
}

type mutationKey struct {
	position int
	symbol   alphabet.Symbol
}

func computeMutations[A alphabet.Alphabet](table *storage.Table, results []PartitionResult, sequenceName string, minProportion float64, wanted map[string]bool) ([]Record, error) {
	var a A
	counts := make(map[mutationKey]uint64)
	totals := make(map[int]uint64)
	var refCol *storage.SequenceColumnPartition[A]

	for _, r := range results {
		col, ok := storage.SequenceColumn[A](r.Partition, sequenceName)
		if !ok {
			continue
		}
		if refCol == nil {
			refCol = col
		}
		filterCard := r.Bitmap.GetCardinality()
		full := filterCard == r.Partition.RowCount()
		if !full {
			r.Bitmap.RunOptimize()
		}
		refLen := len(col.Reference())
		for p := 0; p < refLen; p++ {
			pos := col.Position(p)
			deletedSym, hasDeleted := pos.DeletedSymbol()
			missingAtP := col.MissingAtPosition(p)
			var coveredAtP uint64
			if full {
				coveredAtP = r.Partition.RowCount() - missingAtP.GetCardinality()
			} else {
				coveredAtP = filterCard - r.Bitmap.AndCardinality(missingAtP)
			}
			totals[p] += coveredAtP
			deletedCount := coveredAtP
			for _, s := range a.Symbols() {
				if hasDeleted && s == deletedSym {
					continue
				}
				stored := pos.GetBitmap(s)
				var count uint64
				flipped := pos.IsSymbolFlipped(s)
				switch {
				case full && flipped:
					count = r.Partition.RowCount() - stored.GetCardinality()
				case full && !flipped:
					count = stored.GetCardinality()
				case !full && flipped:
					count = r.Bitmap.AndNotCardinality(stored)
				default:
					count = r.Bitmap.AndCardinality(stored)
				}
				counts[mutationKey{p, s}] += count
				if hasDeleted {
					deletedCount -= count
				}
			}
			if hasDeleted {
				counts[mutationKey{p, deletedSym}] += deletedCount
			}
		}
	}
	if refCol == nil {
		return nil, nil
	}

	var out []Record
	for key, count := range counts {
		refSym, ok := a.CharToSymbol(refCol.Reference()[key.position])
		if !ok || key.symbol == refSym {
			continue
		}
		total := totals[key.position]
		threshold := int64(math.Ceil(float64(total) * minProportion))
		if !(int64(count) > threshold-1) {
			continue
		}
		var proportion float64
		if total > 0 {
			proportion = float64(count) / float64(total)
		}
		full := Record{
			"mutation":     fmt.Sprintf("%c%d%c", refCol.Reference()[key.position], key.position+1, a.SymbolToChar(key.symbol)),
			"mutationFrom": string(refCol.Reference()[key.position]),
			"mutationTo":   string(a.SymbolToChar(key.symbol)),
			"position":     key.position + 1,
			"sequenceName": sequenceName,
			"count":        count,
			"coverage":     total,
			"proportion":   proportion,
		}
		rec := Record{}
		for k, v := range full {
			if wanted[k] {
				rec[k] = v
			}
		}
		out = append(out, rec)
	}
	return out, nil
}
