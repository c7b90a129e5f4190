package storage

import (
	"context"
	"testing"

	"github.com/cuemby/storectl/pkg/trace"
)

func openTestBoltEngine(t *testing.T) *BoltEngine {
	t.Helper()

	e, err := OpenBoltEngine(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBoltEngine() error = %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestBoltEngine_WritePutThenGet(t *testing.T) {
	e := openTestBoltEngine(t)
	ctx := context.Background()

	_, err := e.Write(ctx, NewWriteBatch().Put([]byte("k"), []byte("v")))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	v, err := e.Get(ctx, []byte("k"))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(v) != "v" {
		t.Errorf("Get() = %q, want %q", v, "v")
	}
}

func TestBoltEngine_AssertHashRejectsMismatch(t *testing.T) {
	e := openTestBoltEngine(t)
	ctx := context.Background()

	_, err := e.Write(ctx, NewWriteBatch().Put([]byte("k"), []byte("v1")))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	_, err = e.Write(ctx, NewWriteBatch().
		AssertHash([]byte("k"), Hash32([]byte("wrong"))).
		Put([]byte("k"), []byte("v2")))

	if !trace.Is(err, trace.AssertFailed) {
		t.Fatalf("Write() error = %v, want trace.AssertFailed", err)
	}

	v, _ := e.Get(ctx, []byte("k"))
	if string(v) != "v1" {
		t.Errorf("failed batch mutated the store: Get() = %q, want unchanged %q", v, "v1")
	}
}

func TestBoltEngine_CounterAddAccumulates(t *testing.T) {
	e := openTestBoltEngine(t)
	ctx := context.Background()

	key := []byte("counter")
	if _, err := e.CounterAdd(ctx, key, 3); err != nil {
		t.Fatalf("CounterAdd() error = %v", err)
	}
	second, err := e.CounterAdd(ctx, key, 4)
	if err != nil || second != 7 {
		t.Fatalf("CounterAdd() = %d, %v, want 7, nil", second, err)
	}
}

func TestBoltEngine_IterateRespectsRange(t *testing.T) {
	e := openTestBoltEngine(t)
	ctx := context.Background()

	batch := NewWriteBatch().
		Put([]byte("a"), []byte("1")).
		Put([]byte("b"), []byte("2")).
		Put([]byte("c"), []byte("3"))
	if _, err := e.Write(ctx, batch); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	it, err := e.Iterate(ctx, []byte("a"), []byte("c"), false, true)
	if err != nil {
		t.Fatalf("Iterate() error = %v", err)
	}
	defer it.Close()

	var got []string
	for it.Next() {
		got = append(got, string(it.Key())+"="+string(it.Value()))
	}

	want := []string{"a=1", "b=2"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBoltEngine_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	e1, err := OpenBoltEngine(dir)
	if err != nil {
		t.Fatalf("OpenBoltEngine() error = %v", err)
	}
	if _, err := e1.Write(ctx, NewWriteBatch().Put([]byte("k"), []byte("v"))); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := e1.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	e2, err := OpenBoltEngine(dir)
	if err != nil {
		t.Fatalf("re-OpenBoltEngine() error = %v", err)
	}
	defer e2.Close()

	v, err := e2.Get(ctx, []byte("k"))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(v) != "v" {
		t.Errorf("Get() after reopen = %q, want %q", v, "v")
	}
}
