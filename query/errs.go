// Package query ties the pieces together: JSON request parsing
// (discriminated-union decode into filter.Expression/actions.Action), the
// per-partition fan-out execution engine, and the matchr-based "did you
// mean" suggestions §7's BadRequest errors carry.
package query

import (
	"github.com/antzucaro/matchr"

	"github.com/genspectrum/silo/query/filter"
	"github.com/genspectrum/silo/storage"
)

func init() {
	filter.SetColumnSuggester(suggestColumn)
	filter.SetSequenceSuggester(suggestSequence)
}

// suggestionThreshold is the minimum Jaro-Winkler similarity a candidate
// must clear before it's offered as a "did you mean" suggestion; below this,
// silence is less confusing than a nonsensical guess.
const suggestionThreshold = 0.7

func bestMatch(got string, candidates []string) string {
	best := ""
	bestScore := suggestionThreshold
	for _, c := range candidates {
		score := matchr.JaroWinkler(got, c, true)
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

func suggestColumn(table *storage.Table, got string) string {
	return bestMatch(got, table.Schema.ColumnNames())
}

func suggestSequence(table *storage.Table, got, alphabetName string) string {
	return bestMatch(got, table.Schema.SequenceNames(alphabetName))
}
