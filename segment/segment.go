// Package segment implements the in-memory accumulator that turns a stream
// of tokenized documents into the term dictionary, posting bitmaps,
// per-segment statistics and stored field values that get flushed to the
// backing key-value store. It is the write path counterpart to
// package executor, which reads a flushed segment back.
package segment

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring"
)

// FieldRef is a dense ordinal supplied by the external schema registry.
// The core treats it as opaque.
type FieldRef uint32

// TermRef is a dense ordinal assigned sequentially within a segment as new
// terms are encountered. It is stable for the life of the segment and is
// never comparable across segments.
type TermRef uint32

// MaxDocID is the largest valid DocID a segment can hold. DocID 65535 is
// reserved as a sentinel beyond the 16-bit DocID space and is never
// assigned, so a segment holds at most 65535 documents (IDs 0..65534).
const MaxDocID = 65534

// Recognized stored-field value kinds, per the wire format in the design
// notes: "val" for the caller-supplied raw value, "len" for the quantized
// field-length byte, "tf<ord>" for a term frequency override.
const (
	KindValue  = "val"
	KindLength = "len"
)

// TermFrequencyKind returns the stored-field value kind used to record an
// explicit term frequency for termRef, e.g. "tf42".
func TermFrequencyKind(termRef TermRef) string {
	return fmt.Sprintf("tf%d", termRef)
}

// Recognized statistic keys.
const (
	StatTotalDocs = "total_docs"
)

// StatTotalFieldDocs returns the statistic key counting documents that had
// at least one indexed token in field.
func StatTotalFieldDocs(field FieldRef) string {
	return fmt.Sprintf("total_field_docs:%d", field)
}

// StatTotalFieldTokens returns the statistic key summing indexed token
// counts for field.
func StatTotalFieldTokens(field FieldRef) string {
	return fmt.Sprintf("total_field_tokens:%d", field)
}

// StatTermDocFrequency returns the statistic key counting documents
// containing term in field.
func StatTermDocFrequency(field FieldRef, term TermRef) string {
	return fmt.Sprintf("term_doc_frequency:%d:%d", field, term)
}

// Document is the caller-assembled input to Builder.AddDocument: indexed
// fields (FieldRef -> term -> ordered token positions) and stored fields
// (FieldRef -> opaque bytes), per the data model.
type Document struct {
	IndexedFields map[FieldRef]map[string][]uint64
	StoredFields  map[FieldRef][]byte
}

// ErrSegmentFull is returned by AddDocument when the segment's 16-bit DocID
// space is exhausted. Callers should roll a new segment and retry there.
var ErrSegmentFull = errors.New("segment: document id space exhausted")

type termDirKey struct {
	field FieldRef
	term  TermRef
}

type storedFieldKey struct {
	field FieldRef
	doc   uint16
	kind  string
}

// Builder accumulates documents for a single segment. It is single-writer:
// callers must not mutate a Builder from more than one goroutine at a time.
// Parallelism is achieved by sharding documents across independent
// Builders and merging the resulting segments, which is out of scope here.
type Builder struct {
	currentDoc      uint32
	termDictionary  map[string]TermRef
	currentTermRef  uint32
	termDirectories map[termDirKey]*roaring.Bitmap
	statistics      map[string]int64
	storedValues    map[storedFieldKey][]byte
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{
		termDictionary:  make(map[string]TermRef),
		termDirectories: make(map[termDirKey]*roaring.Bitmap),
		statistics:      make(map[string]int64),
		storedValues:    make(map[storedFieldKey][]byte),
	}
}

// termRefFor returns the TermRef for term, assigning the next ordinal if
// term has not been seen before in this segment.
func (b *Builder) termRefFor(term string) TermRef {
	if ref, ok := b.termDictionary[term]; ok {
		return ref
	}
	ref := TermRef(b.currentTermRef)
	b.currentTermRef++
	b.termDictionary[term] = ref
	return ref
}

// ResolveTerm looks up the TermRef already assigned to term, without
// assigning a new one. Used by the query planner: an unresolved term
// reduces the query to Zero rather than erroring.
func (b *Builder) ResolveTerm(term string) (TermRef, bool) {
	ref, ok := b.termDictionary[term]
	return ref, ok
}

// quantizedLength computes the field-length byte: clamp(round((sqrt(n)-1)*3), 0, 255).
func quantizedLength(tokenCount int) byte {
	length := math.Round((math.Sqrt(float64(tokenCount)) - 1.0) * 3.0)
	return byte(math.Max(0, math.Min(255, length)))
}

// AddDocument assigns the next DocID, folds doc into the segment's term
// directories, statistics and stored values, and returns the assigned
// DocID. It fails with ErrSegmentFull before allocating a DocID that would
// be the reserved sentinel (65535) or beyond, rather than after
// incrementing past it.
func (b *Builder) AddDocument(doc Document) (uint16, error) {
	if b.currentDoc > MaxDocID {
		return 0, ErrSegmentFull
	}
	docID := uint16(b.currentDoc)
	b.currentDoc++

	for field, tokens := range doc.IndexedFields {
		fieldTokenCount := 0

		for term, positions := range tokens {
			frequency := len(positions)
			fieldTokenCount += frequency

			termRef := b.termRefFor(term)

			key := termDirKey{field: field, term: termRef}
			bitmap, ok := b.termDirectories[key]
			if !ok {
				bitmap = roaring.New()
				b.termDirectories[key] = bitmap
			}
			bitmap.Add(uint32(docID))

			if frequency != 1 {
				var freqBytes [8]byte
				putLittleEndianI64(freqBytes[:], int64(frequency))
				b.storedValues[storedFieldKey{field: field, doc: docID, kind: TermFrequencyKind(termRef)}] = freqBytes[:]
			}

			b.statistics[StatTermDocFrequency(field, termRef)]++
		}

		if length := quantizedLength(fieldTokenCount); length != 0 {
			b.storedValues[storedFieldKey{field: field, doc: docID, kind: KindLength}] = []byte{length}
		}

		b.statistics[StatTotalFieldDocs(field)]++
		b.statistics[StatTotalFieldTokens(field)] += int64(fieldTokenCount)
	}

	for field, value := range doc.StoredFields {
		b.storedValues[storedFieldKey{field: field, doc: docID, kind: KindValue}] = value
	}

	b.statistics[StatTotalDocs]++

	return docID, nil
}

// TotalDocs returns the number of documents added so far.
func (b *Builder) TotalDocs() uint32 {
	return b.currentDoc
}

// LoadStatistic returns the current value of a named statistic.
func (b *Builder) LoadStatistic(name string) (int64, bool) {
	v, ok := b.statistics[name]
	return v, ok
}

// LoadStoredFieldValueRaw returns the raw bytes stored for (doc, field,
// kind), if any.
func (b *Builder) LoadStoredFieldValueRaw(doc uint16, field FieldRef, kind string) ([]byte, bool) {
	v, ok := b.storedValues[storedFieldKey{field: field, doc: doc, kind: kind}]
	return v, ok
}

// LoadTermDirectory returns the in-memory posting bitmap for (field, term).
func (b *Builder) LoadTermDirectory(field FieldRef, term TermRef) (*roaring.Bitmap, bool) {
	bm, ok := b.termDirectories[termDirKey{field: field, term: term}]
	return bm, ok
}

// LoadDeletionList always returns (nil, false) during build: deletion
// bitmaps belong to a later merge/compaction stage, out of scope here.
func (b *Builder) LoadDeletionList() (*roaring.Bitmap, bool) {
	return nil, false
}

// Terms returns a snapshot of the term dictionary, for the flush step to
// persist alongside the posting data.
func (b *Builder) Terms() map[string]TermRef {
	out := make(map[string]TermRef, len(b.termDictionary))
	for k, v := range b.termDictionary {
		out[k] = v
	}
	return out
}

// TermDirectories returns a snapshot of every non-empty (field, term)
// posting bitmap, for the flush step.
func (b *Builder) TermDirectories() map[FieldRef]map[TermRef]*roaring.Bitmap {
	out := make(map[FieldRef]map[TermRef]*roaring.Bitmap)
	for key, bm := range b.termDirectories {
		byField, ok := out[key.field]
		if !ok {
			byField = make(map[TermRef]*roaring.Bitmap)
			out[key.field] = byField
		}
		byField[key.term] = bm
	}
	return out
}

// Statistics returns a snapshot of every recorded statistic.
func (b *Builder) Statistics() map[string]int64 {
	out := make(map[string]int64, len(b.statistics))
	for k, v := range b.statistics {
		out[k] = v
	}
	return out
}

// StoredFieldValues calls fn once per stored (field, doc, kind) -> value
// triple, for the flush step.
func (b *Builder) StoredFieldValues(fn func(field FieldRef, doc uint16, kind string, value []byte)) {
	for key, value := range b.storedValues {
		fn(key.field, key.doc, key.kind, value)
	}
}

func putLittleEndianI64(dst []byte, v int64) {
	binary.LittleEndian.PutUint64(dst, uint64(v))
}
