// Package changelog implements the per-account, per-sync-collection
// monotonic log of container/item insert/update/delete events that
// sync clients (JMAP, CalDAV, CardDAV) and cache refreshes read from.
//
// An entry generalizes the teacher's flat pkg/types.Event (Type plus a
// string-keyed Data map) into the typed EntryKind/DocumentID pairs the
// change log actually needs; a compact binary Encode/Decode pair
// replaces Event's map, since change-log rows are read far more often
// than written and a fixed layout avoids a map allocation per read.
//
// internal/batch assigns the change id (a CounterAdd on the
// (account, syncCollection) pair's change counter) and writes the row
// itself, once that counter has resolved; this package encodes and
// decodes payloads, adds Log steps to a batch (Append, AppendVanished),
// implements the Changes query over internal/keys' ChangeLog subspace,
// and trims old rows (TrimBefore).
package changelog
