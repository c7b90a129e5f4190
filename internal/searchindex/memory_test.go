package searchindex

import (
	"context"
	"testing"
)

const testIndexMessages uint8 = 1

const (
	fieldSubject uint8 = 0
	fieldSize    uint8 = 1
	fieldFlagged uint8 = 2
)

func seedMessages(t *testing.T, b *MemoryBackend) {
	t.Helper()
	docs := []Document{
		{Index: testIndexMessages, ID: 1, Fields: map[uint8]Value{
			fieldSubject: Text("quarterly report draft", ""),
			fieldSize:    Integer(1000),
			fieldFlagged: Bool(false),
		}},
		{Index: testIndexMessages, ID: 2, Fields: map[uint8]Value{
			fieldSubject: Text("re: quarterly report", ""),
			fieldSize:    Integer(2000),
			fieldFlagged: Bool(true),
		}},
		{Index: testIndexMessages, ID: 3, Fields: map[uint8]Value{
			fieldSubject: Text("lunch plans", ""),
			fieldSize:    Integer(500),
			fieldFlagged: Bool(false),
		}},
	}
	if err := b.Index(context.Background(), docs); err != nil {
		t.Fatalf("Index() error = %v", err)
	}
}

func TestMemoryBackend_QueryEqual(t *testing.T) {
	b := NewMemoryBackend()
	seedMessages(t, b)

	ids, err := b.Query(context.Background(), testIndexMessages,
		Compare(fieldFlagged, OpEqual, Bool(true)), nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != 2 {
		t.Fatalf("Query() = %v, want [2]", ids)
	}
}

func TestMemoryBackend_QueryAndOrNot(t *testing.T) {
	b := NewMemoryBackend()
	seedMessages(t, b)
	ctx := context.Background()

	ids, err := b.Query(ctx, testIndexMessages,
		And(
			Compare(fieldSubject, OpContains, Text("quarterly", "")),
			Not(Compare(fieldFlagged, OpEqual, Bool(true))),
		), nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("And/Not Query() = %v, want [1]", ids)
	}

	ids, err = b.Query(ctx, testIndexMessages,
		Or(
			Compare(fieldSubject, OpContains, Text("lunch", "")),
			Compare(fieldFlagged, OpEqual, Bool(true)),
		), nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("Or Query() = %v, want 2 results", ids)
	}
}

func TestMemoryBackend_QueryDocumentSet(t *testing.T) {
	b := NewMemoryBackend()
	seedMessages(t, b)

	ids, err := b.Query(context.Background(), testIndexMessages, DocumentSet([]uint32{1, 3, 99}), nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("DocumentSet Query() = %v, want 2 results (99 absent)", ids)
	}
}

func TestMemoryBackend_QueryComparatorField(t *testing.T) {
	b := NewMemoryBackend()
	seedMessages(t, b)

	ids, err := b.Query(context.Background(), testIndexMessages, And(),
		[]Comparator{{Field: fieldSize, Ascending: true}})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(ids) != 3 || ids[0] != 3 || ids[1] != 1 || ids[2] != 2 {
		t.Fatalf("Query() ordering = %v, want [3 1 2]", ids)
	}
}

func TestMemoryBackend_QueryComparatorRank(t *testing.T) {
	b := NewMemoryBackend()
	seedMessages(t, b)

	rank := map[uint32]int{1: 2, 2: 0, 3: 1}
	ids, err := b.Query(context.Background(), testIndexMessages, And(),
		[]Comparator{{Rank: rank, Ascending: true}})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(ids) != 3 || ids[0] != 2 || ids[1] != 3 || ids[2] != 1 {
		t.Fatalf("Query() rank ordering = %v, want [2 3 1]", ids)
	}
}

func TestMemoryBackend_Unindex(t *testing.T) {
	b := NewMemoryBackend()
	seedMessages(t, b)
	ctx := context.Background()

	removed, err := b.Unindex(ctx, testIndexMessages, Compare(fieldFlagged, OpEqual, Bool(false)))
	if err != nil {
		t.Fatalf("Unindex() error = %v", err)
	}
	if removed != 2 {
		t.Fatalf("Unindex() removed = %d, want 2", removed)
	}

	ids, err := b.Query(ctx, testIndexMessages, And(), nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != 2 {
		t.Fatalf("Query() after Unindex = %v, want [2]", ids)
	}
}

func TestMemoryBackend_ReindexReplacesDocument(t *testing.T) {
	b := NewMemoryBackend()
	seedMessages(t, b)
	ctx := context.Background()

	if err := b.Index(ctx, []Document{{Index: testIndexMessages, ID: 1, Fields: map[uint8]Value{
		fieldFlagged: Bool(true),
	}}}); err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	ids, err := b.Query(ctx, testIndexMessages, Compare(fieldFlagged, OpEqual, Bool(true)), nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("Query() after reindex = %v, want 2 flagged docs", ids)
	}
}
