// Package store declares the contracts the query executor needs from the
// backing ordered key-value store: a read-consistent snapshot and the key
// layout used to address posting lists and per-segment statistics. Both are
// external collaborators per the design — the core only depends on these
// interfaces, never on a concrete store.
package store

// Snapshot is a read-consistent view of the backing key-value store. All
// Load operations performed by a single query execution read through the
// same Snapshot, so they observe a single consistent point in time
// (read-your-snapshot, not read-your-writes).
type Snapshot interface {
	// Get returns the value stored under key, or ok=false if absent.
	Get(key []byte) (value []byte, ok bool, err error)
}

// KeyBuilder constructs the byte keys the core addresses in the backing
// store, for one particular segment.
type KeyBuilder interface {
	// ChunkDirList returns the key for the posting list of (fieldOrd,
	// termOrd) in this segment.
	ChunkDirList(fieldOrd, termOrd uint32) []byte

	// TotalDocsStat returns the key for the segment-wide total_docs
	// statistic.
	TotalDocsStat() []byte

	// TermDocFrequencyStat returns the key for the term_doc_frequency
	// statistic of (fieldOrd, termOrd).
	TermDocFrequencyStat(fieldOrd, termOrd uint32) []byte

	// TotalFieldDocsStat returns the key for the total_field_docs
	// statistic of fieldOrd.
	TotalFieldDocsStat(fieldOrd uint32) []byte

	// TotalFieldTokensStat returns the key for the total_field_tokens
	// statistic of fieldOrd.
	TotalFieldTokensStat(fieldOrd uint32) []byte

	// StoredFieldValue returns the key for a stored field value of kind
	// ("val", "len", or "tf<ord>") belonging to (doc, fieldOrd).
	StoredFieldValue(doc uint16, fieldOrd uint32, kind string) []byte
}
