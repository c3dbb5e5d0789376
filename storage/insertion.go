package storage

import (
	"container/heap"
	"fmt"
	"regexp"
	"sort"
	"strings"

	farm "github.com/dgryski/go-farm"

	"github.com/genspectrum/silo/alphabet"
	"github.com/genspectrum/silo/bitmap"
)

// ErrInsertionFormat is returned for malformed "POS:VALUE" insertion syntax
// or an insertion value containing a symbol outside its alphabet (§7,
// InsertionFormat errors are surfaced to the loader, never to a query
// client).
type ErrInsertionFormat struct {
	Reason string
}

func (e *ErrInsertionFormat) Error() string { return "insertion format: " + e.Reason }

// insertionEntry is one (value, rows) pair at a position, assigned a stable
// id equal to its index in InsertionIndex.positions[p].entries.
type insertionEntry struct {
	value string
	rows  *bitmap.Bitmap
}

// positionInsertions holds the build-time and finalized state for one
// position of an InsertionIndex.
type positionInsertions struct {
	pending map[string]*bitmap.Bitmap // build-time: value -> rows

	entries []insertionEntry                 // finalized, id-indexed
	trimers [trimerShardCount]map[string][]int32 // finalized: 3-mer -> insertion ids, sharded by trimerShardKey
}

// trimerShardCount shards each position's 3-mer posting-list map, the way
// fusion/kmer_index.go shards its kmer->genelist map, so no single map grows
// past a size where Go's hash map starts thrashing on long insertion
// dictionaries.
const trimerShardCount = 16

// InsertionIndex is the build-time/query-time insertion sub-index of §3/§4.3:
// a map from position to its insertions, each with a 3-mer pre-filter used to
// reject most candidates before a regex is ever run.
type InsertionIndex[A alphabet.Alphabet] struct {
	byPosition map[uint32]*positionInsertions
	built      bool
}

// NewInsertionIndex returns an empty, build-ready InsertionIndex.
func NewInsertionIndex[A alphabet.Alphabet]() *InsertionIndex[A] {
	return &InsertionIndex[A]{byPosition: make(map[uint32]*positionInsertions)}
}

// AddLazily records that row has insertion value at position, during the
// build phase. value must be non-empty and composed only of A's symbols
// (plus the "\*" STOP escape for amino acids, which is unescaped to a
// literal '*' before storage).
func (idx *InsertionIndex[A]) AddLazily(position uint32, value string, row uint32) error {
	if idx.built {
		panic("storage: AddLazily called after BuildIndex")
	}
	clean, err := validateInsertionValue[A](value)
	if err != nil {
		return err
	}
	p, ok := idx.byPosition[position]
	if !ok {
		p = &positionInsertions{pending: make(map[string]*bitmap.Bitmap)}
		idx.byPosition[position] = p
	}
	rows, ok := p.pending[clean]
	if !ok {
		rows = bitmap.New()
		p.pending[clean] = rows
	}
	rows.Add(row)
	return nil
}

// validateInsertionValue unescapes "\*" to '*' and checks every resulting
// character resolves to a symbol of A.
func validateInsertionValue[A alphabet.Alphabet](value string) (string, error) {
	if value == "" {
		return "", &ErrInsertionFormat{Reason: "empty insertion value"}
	}
	var a A
	clean := strings.ReplaceAll(value, alphabet.StopEscape, "*")
	for i := 0; i < len(clean); i++ {
		if _, ok := a.CharToSymbol(clean[i]); !ok {
			return "", &ErrInsertionFormat{Reason: fmt.Sprintf("illegal symbol %q in insertion value %q", clean[i], value)}
		}
	}
	return clean, nil
}

// ParsePositionAndValue splits the loader-facing "POS:VALUE" syntax (§4.4,
// §9). Both parts are required; POS is a non-negative integer.
func ParsePositionAndValue(s string) (position uint32, value string, err error) {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return 0, "", &ErrInsertionFormat{Reason: fmt.Sprintf("missing ':' in %q", s)}
	}
	posStr, value := s[:idx], s[idx+1:]
	if posStr == "" || value == "" {
		return 0, "", &ErrInsertionFormat{Reason: fmt.Sprintf("empty position or value in %q", s)}
	}
	var pos uint64
	for i := 0; i < len(posStr); i++ {
		c := posStr[i]
		if c < '0' || c > '9' {
			return 0, "", &ErrInsertionFormat{Reason: fmt.Sprintf("non-numeric position in %q", s)}
		}
		pos = pos*10 + uint64(c-'0')
	}
	return uint32(pos), value, nil
}

// chunkTriples splits s into its non-overlapping 3-character substrings,
// dropping any remainder shorter than 3 (§4.3).
func chunkTriples(s string) []string {
	var out []string
	for i := 0; i+3 <= len(s); i += 3 {
		out = append(out, s[i:i+3])
	}
	return out
}

// trimerShardKey picks a 3-mer's shard, grounded on fusion/kmer_index.go's
// hashKmer: FarmHash64 of the raw bytes, folded down to trimerShardCount
// buckets.
func trimerShardKey(trimer string) uint64 {
	return farm.Hash64([]byte(trimer)) % trimerShardCount
}

// BuildIndex finalizes every position added via AddLazily: snapshots pending
// insertions into an id-indexed slice, and builds each position's 3-mer
// posting lists.
func (idx *InsertionIndex[A]) BuildIndex() {
	if idx.built {
		return
	}
	for _, p := range idx.byPosition {
		values := make([]string, 0, len(p.pending))
		for v := range p.pending {
			values = append(values, v)
		}
		sort.Strings(values) // deterministic id assignment
		p.entries = make([]insertionEntry, len(values))
		for shard := range p.trimers {
			p.trimers[shard] = make(map[string][]int32)
		}
		for id, v := range values {
			p.entries[id] = insertionEntry{value: v, rows: p.pending[v]}
			seen := make(map[string]bool)
			for _, tri := range chunkTriples(v) {
				if seen[tri] {
					continue
				}
				seen[tri] = true
				shard := p.trimers[trimerShardKey(tri)]
				shard[tri] = append(shard[tri], int32(id))
			}
		}
		p.pending = nil
	}
	idx.built = true
}

// patternTrimers extracts the 3-mer constraints of a search pattern: the
// pattern is split on the literal substring ".*", each remaining run is
// unescaped ("\*" -> "*") and chunked into non-overlapping triplets, and the
// result deduplicated (§4.3 step 2). A triplet containing a single-character
// '.' wildcard is not a literal 3-mer and is skipped.
func patternTrimers(pattern string) []string {
	segments := strings.Split(pattern, ".*")
	seen := make(map[string]bool)
	var out []string
	for _, seg := range segments {
		lit := strings.ReplaceAll(seg, alphabet.StopEscape, "*")
		for _, tri := range chunkTriples(lit) {
			if strings.IndexByte(tri, '.') >= 0 {
				continue
			}
			if !seen[tri] {
				seen[tri] = true
				out = append(out, tri)
			}
		}
	}
	return out
}

// ValidatePattern rejects a search pattern containing characters outside A's
// alphabet plus the "." "*" wildcard/escape grammar (§4.8, §9).
func ValidatePattern[A alphabet.Alphabet](pattern string) error {
	var a A
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '.', '*', '\\':
			continue
		}
		if _, ok := a.CharToSymbol(c); !ok {
			return fmt.Errorf("insertion pattern %q contains character %q outside the %s alphabet and the .*/\\* grammar", pattern, c, a.Name())
		}
	}
	if _, err := regexp.Compile("^" + pattern + "$"); err != nil {
		return fmt.Errorf("insertion pattern %q is not a valid regular expression: %w", pattern, err)
	}
	return nil
}

// trimerHeapItem is one posting-list cursor in the k-way merge of Search.
type trimerHeapItem struct {
	list []int32
	pos  int
}

type trimerHeap []*trimerHeapItem

func (h trimerHeap) Len() int            { return len(h) }
func (h trimerHeap) Less(i, j int) bool  { return h[i].list[h[i].pos] < h[j].list[h[j].pos] }
func (h trimerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *trimerHeap) Push(x interface{}) { *h = append(*h, x.(*trimerHeapItem)) }
func (h *trimerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// intersectPostingLists returns, via a k-way min-heap merge over sorted
// posting lists, every insertion id that appears in all of them (§4.3 step
// 3). Ties (equal front ids across multiple lists) are all consumed
// together before advancing.
func intersectPostingLists(lists [][]int32) []int32 {
	h := make(trimerHeap, 0, len(lists))
	for _, l := range lists {
		if len(l) == 0 {
			return nil
		}
		h = append(h, &trimerHeapItem{list: l})
	}
	heap.Init(&h)
	k := len(lists)
	var out []int32
	for h.Len() > 0 {
		front := h[0].list[h[0].pos]
		count := 0
		// Pop every cursor currently at `front`, advancing each by one.
		var advanced []*trimerHeapItem
		for h.Len() > 0 && h[0].list[h[0].pos] == front {
			item := heap.Pop(&h).(*trimerHeapItem)
			count++
			item.pos++
			if item.pos < len(item.list) {
				advanced = append(advanced, item)
			}
		}
		if count == k {
			out = append(out, front)
		}
		for _, item := range advanced {
			heap.Push(&h, item)
		}
		if len(advanced) < count {
			// At least one list has been exhausted; no further id can appear
			// in every list.
			break
		}
	}
	return out
}

// ForEachEntry calls f once per (position, value) pair recorded in the
// index, with the bitmap of rows carrying that insertion. Only valid after
// BuildIndex (query/actions' InsertionAggregation is the only caller).
func (idx *InsertionIndex[A]) ForEachEntry(f func(position uint32, value string, rows *bitmap.Bitmap)) {
	for position, p := range idx.byPosition {
		for _, e := range p.entries {
			f(position, e.value, e.rows)
		}
	}
}

// Search returns the bitmap of rows whose insertion value at position
// matches the anchored regular expression pattern (§4.3).
func (idx *InsertionIndex[A]) Search(position uint32, pattern string) (*bitmap.Bitmap, error) {
	if err := ValidatePattern[A](pattern); err != nil {
		return nil, err
	}
	result := bitmap.New()
	p, ok := idx.byPosition[position]
	if !ok || len(p.entries) == 0 {
		return result, nil
	}
	re := regexp.MustCompile("^" + pattern + "$")

	triples := patternTrimers(pattern)
	var candidates []int32
	if len(triples) > 0 {
		lists := make([][]int32, 0, len(triples))
		for _, tri := range triples {
			list, ok := p.trimers[trimerShardKey(tri)][tri]
			if !ok {
				// A required 3-mer has no insertion at all: intersection is empty.
				return result, nil
			}
			lists = append(lists, list)
		}
		candidates = intersectPostingLists(lists)
	} else {
		candidates = make([]int32, len(p.entries))
		for i := range p.entries {
			candidates[i] = int32(i)
		}
	}
	for _, id := range candidates {
		entry := p.entries[id]
		if re.MatchString(entry.value) {
			result.Or(entry.rows)
		}
	}
	return result, nil
}
