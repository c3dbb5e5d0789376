package actions

import (
	"github.com/genspectrum/silo/alphabet"
	"github.com/genspectrum/silo/bitmap"
	"github.com/genspectrum/silo/storage"
)

// InsertionAggregation is a SPEC_FULL.md addition alongside Mutations: it
// reports, per sequence name and position, the distinct insertion values
// observed among matched rows and how many matched rows carry each one. This
// mirrors Mutations' per-position aggregation shape but operates on
// InsertionIndex entries rather than vertical symbol bitmaps.
type InsertionAggregation struct {
	SequenceNames []string // empty = every sequence name in the schema
}

func (ia InsertionAggregation) Execute(table *storage.Table, results []PartitionResult) ([]Record, error) {
	if len(results) == 0 {
		return nil, nil
	}
	names := ia.SequenceNames
	if len(names) == 0 {
		names = append(table.Schema.SequenceNames("nucleotide"), table.Schema.SequenceNames("aminoAcid")...)
	}
	var out []Record
	for _, name := range names {
		if _, ok := storage.SequenceColumn[alphabet.Nucleotide](results[0].Partition, name); ok {
			out = append(out, computeInsertionAggregation[alphabet.Nucleotide](results, name)...)
			continue
		}
		if _, ok := storage.SequenceColumn[alphabet.AminoAcid](results[0].Partition, name); ok {
			out = append(out, computeInsertionAggregation[alphabet.AminoAcid](results, name)...)
			continue
		}
		return nil, badColumn(table, name)
	}
	return out, nil
}

type insertionKey struct {
	position int
	value    string
}

func computeInsertionAggregation[A alphabet.Alphabet](results []PartitionResult, sequenceName string) []Record {
	counts := make(map[insertionKey]uint64)
	for _, r := range results {
		col, ok := storage.SequenceColumn[A](r.Partition, sequenceName)
		if !ok {
			continue
		}
		col.Insertions().ForEachEntry(func(position uint32, value string, rows *bitmap.Bitmap) {
			if card := r.Bitmap.AndCardinality(rows); card > 0 {
				counts[insertionKey{int(position), value}] += card
			}
		})
	}
	out := make([]Record, 0, len(counts))
	for key, count := range counts {
		out = append(out, Record{
			"sequenceName": sequenceName,
			"position":     key.position + 1,
			"insertion":    key.value,
			"count":        count,
		})
	}
	return out
}
