package searchindex

import (
	"context"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// MemoryBackend is the embedded Backend: documents live in memory,
// keyed by (Index, ID); filter evaluation matches each candidate
// document against the leaf criteria and combines results with
// roaring-bitmap intersection/union/difference for AND/OR/NOT, the
// same bitmap-merge idea cuemby-warren's dependency pack uses for
// range-keyed postings (ethdb/bitmapdb), applied here to an in-memory
// document set rather than a sharded on-disk posting list.
type MemoryBackend struct {
	mu   sync.RWMutex
	docs map[uint8]map[uint32]Document
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[uint8]map[uint32]Document)}
}

func (m *MemoryBackend) Index(_ context.Context, documents []Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range documents {
		byID, ok := m.docs[d.Index]
		if !ok {
			byID = make(map[uint32]Document)
			m.docs[d.Index] = byID
		}
		byID[d.ID] = d
	}
	return nil
}

func (m *MemoryBackend) Unindex(_ context.Context, index uint8, filter Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byID := m.docs[index]
	removed := 0
	for id, d := range byID {
		if matches(d, filter) {
			delete(byID, id)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryBackend) Query(_ context.Context, index uint8, filter Filter, comparators []Comparator) ([]uint32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byID := m.docs[index]
	bm := evaluate(byID, filter)
	ids := bm.ToArray()

	sortByComparators(ids, byID, comparators)
	return ids, nil
}

// evaluate walks byID once per node, combining child results with
// roaring operations. Leaf nodes populate a fresh bitmap by testing
// every candidate directly; this trades an inverted index for
// simplicity, appropriate for the embedded backend's expected corpus
// size (a single account's mail/groupware data, not a global index).
func evaluate(byID map[uint32]Document, f Filter) *roaring.Bitmap {
	switch f.kind {
	case filterAnd:
		result := universe(byID)
		for _, child := range f.children {
			if result.IsEmpty() {
				break
			}
			result = roaring.And(result, evaluate(byID, child))
		}
		return result

	case filterOr:
		result := roaring.New()
		for _, child := range f.children {
			if result.GetCardinality() == uint64(len(byID)) {
				break
			}
			result = roaring.Or(result, evaluate(byID, child))
		}
		return result

	case filterNot:
		return roaring.AndNot(universe(byID), evaluate(byID, f.children[0]))

	case filterDocumentSet:
		bm := roaring.New()
		for _, id := range f.documentSet {
			bm.Add(id)
		}
		return roaring.And(bm, universe(byID))

	default: // filterLeaf
		bm := roaring.New()
		for id, d := range byID {
			if matchesLeaf(d, f) {
				bm.Add(id)
			}
		}
		return bm
	}
}

func universe(byID map[uint32]Document) *roaring.Bitmap {
	bm := roaring.New()
	for id := range byID {
		bm.Add(id)
	}
	return bm
}

func matches(d Document, f Filter) bool {
	byID := map[uint32]Document{d.ID: d}
	return evaluate(byID, f).Contains(d.ID)
}

func matchesLeaf(d Document, f Filter) bool {
	v, ok := d.Fields[f.field]
	if !ok {
		return false
	}
	switch f.op {
	case OpEqual:
		return valuesEqual(v, f.value)
	case OpGreaterThan:
		return compareOrdered(v, f.value) > 0
	case OpLessThan:
		return compareOrdered(v, f.value) < 0
	case OpContains:
		return v.Kind == ValueText && containsToken(v.Text, f.value.Text)
	default:
		return false
	}
}

func valuesEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ValueText:
		return a.Text == b.Text
	case ValueInteger:
		return a.Integer == b.Integer
	case ValueUnsigned:
		return a.Unsigned == b.Unsigned
	case ValueBool:
		return a.Bool == b.Bool
	default:
		return false
	}
}

// compareOrdered returns -1/0/1 for integer/unsigned values; other
// kinds have no ordering and compare equal.
func compareOrdered(a, b Value) int {
	switch a.Kind {
	case ValueInteger:
		switch {
		case a.Integer < b.Integer:
			return -1
		case a.Integer > b.Integer:
			return 1
		default:
			return 0
		}
	case ValueUnsigned:
		switch {
		case a.Unsigned < b.Unsigned:
			return -1
		case a.Unsigned > b.Unsigned:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

// containsToken reports whether any language-agnostic token of text
// equals needle, case-insensitively: the fallback analyzer spec.md
// §4.7 calls for when a language tag is unrecognized.
func containsToken(text, needle string) bool {
	needle = strings.ToLower(needle)
	for _, tok := range tokenize(text) {
		if tok == needle {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

func sortByComparators(ids []uint32, byID map[uint32]Document, comparators []Comparator) {
	if len(comparators) == 0 {
		return
	}
	less := func(i, j int) bool {
		for _, c := range comparators {
			cmp := compareByComparator(ids[i], ids[j], byID, c)
			if cmp != 0 {
				if c.Ascending {
					return cmp < 0
				}
				return cmp > 0
			}
		}
		return false
	}
	insertionSort(ids, less)
}

func compareByComparator(a, b uint32, byID map[uint32]Document, c Comparator) int {
	if c.Rank != nil {
		ra, rb := c.Rank[a], c.Rank[b]
		switch {
		case ra < rb:
			return -1
		case ra > rb:
			return 1
		default:
			return 0
		}
	}
	return compareOrdered(byID[a].Fields[c.Field], byID[b].Fields[c.Field])
}

// insertionSort avoids importing sort.Slice's reflection-based
// comparator just for a small candidate set; document counts per
// index rarely exceed a few thousand for one account.
func insertionSort(ids []uint32, less func(i, j int) bool) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}
