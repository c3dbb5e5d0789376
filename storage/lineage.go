package storage

import (
	"strings"

	"github.com/biogo/store/llrb"
)

// lineageKey orders lineage names lexicographically within the llrb.Tree, so
// that every sublineage of a name sits in a contiguous in-order range
// immediately after it (a dotted name's sublineages are exactly the other
// names sharing it as a '.'-delimited prefix). Ordering and traversal here
// are grounded on encoding/bampair/shard_info.go's llrb.Tree-backed
// ShardInfo.
type lineageKey struct {
	name string
}

func (k lineageKey) Compare(other llrb.Comparable) int {
	return strings.Compare(k.name, other.(lineageKey).name)
}

// LineageIndex resolves pango-style lineage aliases (e.g. "BA" standing for
// "B.1.1.529") and answers includeSublineages queries (§6, Lineage filter
// type) over the distinct lineage names seen in a LineageColumn's
// dictionary.
type LineageIndex struct {
	aliases map[string]string // leading dotted component -> its full expansion
	tree    llrb.Tree
	seen    map[string]bool
}

// NewLineageIndex builds an index using the given alias table (loader
// supplied; out of scope for how it is parsed, per spec.md §1).
func NewLineageIndex(aliases map[string]string) *LineageIndex {
	return &LineageIndex{aliases: aliases, seen: make(map[string]bool)}
}

// Canonical expands name's leading alias component, if any, to its full
// dotted form.
func (idx *LineageIndex) Canonical(name string) string {
	if name == "" {
		return name
	}
	parts := strings.SplitN(name, ".", 2)
	expansion, ok := idx.aliases[parts[0]]
	if !ok {
		return name
	}
	if len(parts) == 1 {
		return expansion
	}
	return expansion + "." + parts[1]
}

// AddName registers name (in its canonical form) in the index, so later
// Sublineages queries can find it. Idempotent.
func (idx *LineageIndex) AddName(name string) {
	canon := idx.Canonical(name)
	if idx.seen[canon] {
		return
	}
	idx.seen[canon] = true
	idx.tree.Insert(lineageKey{name: canon})
}

// Sublineages returns every registered name equal to name or nested under it
// (i.e. equal to, or having, name+"." as a dotted prefix), in canonical
// form. name itself need not have been registered.
func (idx *LineageIndex) Sublineages(name string) []string {
	canon := idx.Canonical(name)
	prefix := canon + "."
	var out []string
	idx.tree.Do(func(c llrb.Comparable) bool {
		k := c.(lineageKey).name
		if k == canon || strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
		return false
	})
	return out
}
