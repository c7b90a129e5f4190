package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/cuemby/storectl/pkg/metrics"
	"github.com/cuemby/storectl/pkg/trace"
)

// Range is an optional byte range for Store.Get, with HTTP Range
// semantics: Start is inclusive, End is exclusive. An End of -1 means
// read through EOF.
type Range struct {
	Start int64
	End   int64
}

// Store is a content-addressed, filesystem-backed byte store.
type Store struct {
	basePath string
}

// NewStore creates (if necessary) basePath and returns a Store rooted
// there.
func NewStore(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, trace.WrapErr(trace.Backend, "create blob directory", err)
	}
	return &Store{basePath: basePath}, nil
}

// path shards blobs two hex digits deep, the way git's loose object
// store does, so a single directory never accumulates millions of
// entries.
func (s *Store) path(hash uint64) string {
	name := fmt.Sprintf("%016x", hash)
	return filepath.Join(s.basePath, name[:2], name[2:])
}

// Put streams r to durable storage and returns its content hash and
// size. The write lands in a temp file first and is renamed into
// place, so a reader never observes a partially written blob.
func (s *Store) Put(r io.Reader) (hash uint64, size int64, err error) {
	tmp, err := os.CreateTemp(s.basePath, "upload-*")
	if err != nil {
		return 0, 0, trace.WrapErr(trace.Backend, "create temp blob file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	digest := xxhash.New()
	n, err := io.Copy(io.MultiWriter(tmp, digest), r)
	if err != nil {
		tmp.Close()
		return 0, 0, trace.WrapErr(trace.Backend, "write blob bytes", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, 0, trace.WrapErr(trace.Backend, "close temp blob file", err)
	}

	hash = digest.Sum64()
	finalPath := s.path(hash)
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return 0, 0, trace.WrapErr(trace.Backend, "create blob shard directory", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return 0, 0, trace.WrapErr(trace.Backend, "commit blob file", err)
	}

	metrics.BlobPutsTotal.Inc()
	metrics.BlobBytesWritten.Add(float64(n))
	return hash, n, nil
}

// Get opens the blob at hash, optionally limited to rng. It returns
// trace.BlobNotFound if no file exists for hash.
func (s *Store) Get(hash uint64, rng *Range) (io.ReadCloser, error) {
	f, err := os.Open(s.path(hash))
	if err != nil {
		if os.IsNotExist(err) {
			metrics.BlobMissesTotal.Inc()
			return nil, trace.Wrap(trace.BlobNotFound, "blob %016x", hash)
		}
		return nil, trace.WrapErr(trace.Backend, "open blob file", err)
	}

	metrics.BlobGetsTotal.Inc()
	if rng == nil {
		return f, nil
	}

	if _, err := f.Seek(rng.Start, io.SeekStart); err != nil {
		f.Close()
		return nil, trace.WrapErr(trace.Backend, "seek blob range", err)
	}
	if rng.End < 0 {
		return f, nil
	}

	return &limitedReadCloser{r: io.LimitReader(f, rng.End-rng.Start), c: f}, nil
}

// Delete removes the blob at hash. Deleting an already-absent blob is
// not an error: the sweep job may race a concurrent delete of the
// same hash.
func (s *Store) Delete(hash uint64) error {
	if err := os.Remove(s.path(hash)); err != nil && !os.IsNotExist(err) {
		return trace.WrapErr(trace.Backend, "delete blob file", err)
	}
	return nil
}

type limitedReadCloser struct {
	r io.Reader
	c io.Closer
}

func (l *limitedReadCloser) Read(p []byte) (int, error) { return l.r.Read(p) }
func (l *limitedReadCloser) Close() error               { return l.c.Close() }
