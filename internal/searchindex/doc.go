// Package searchindex implements the derived, eventually-consistent
// search index. A batch that touches an indexed entity writes a
// Document's fields into the SearchIndex subspace (internal/keys)
// synchronously with the rest of the commit; Worker later pulls the
// entries due for reconciliation through a caller-supplied Source and
// calls Backend.Index to fold them into the active query backend.
// internal/taskqueue's IndexHandler is a separate path: it does not
// implement Source, and writes to a Backend directly.
//
// Backend is the seam the original design calls the text-search
// backend interface: an embedded implementation lives here
// (MemoryBackend, grounded on the roaring-bitmap postings style
// cuemby-warren's dependency pack shows in ethdb/bitmapdb), and a
// remote search service could implement the same interface without
// this package's callers noticing. Because this repository ships only
// the embedded backend, the account-scoped query optimizer's external/
// local predicate split degenerates to "everything is local" — Filter
// evaluation here always walks MemoryBackend's own postings.
package searchindex
