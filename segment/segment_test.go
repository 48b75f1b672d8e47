package segment

import "testing"

func TestAddDocumentAssignsSequentialDocIDs(t *testing.T) {
	b := New()

	doc0, err := b.AddDocument(Document{
		IndexedFields: map[FieldRef]map[string][]uint64{
			0: {"cat": {0}},
		},
	})
	if err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	if doc0 != 0 {
		t.Fatalf("first DocID = %d, want 0", doc0)
	}

	doc1, err := b.AddDocument(Document{
		IndexedFields: map[FieldRef]map[string][]uint64{
			0: {"cat": {0}, "dog": {1}},
		},
	})
	if err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	if doc1 != 1 {
		t.Fatalf("second DocID = %d, want 1", doc1)
	}

	if got := b.TotalDocs(); got != 2 {
		t.Fatalf("TotalDocs() = %d, want 2", got)
	}
	if got, _ := b.LoadStatistic(StatTotalDocs); got != 2 {
		t.Fatalf("total_docs stat = %d, want 2", got)
	}
}

func TestTermDocFrequencyMatchesPostingCardinality(t *testing.T) {
	b := New()
	for i := 0; i < 3; i++ {
		terms := map[string][]uint64{"cat": {0}}
		if i == 1 {
			terms["dog"] = []uint64{1}
		}
		if _, err := b.AddDocument(Document{IndexedFields: map[FieldRef]map[string][]uint64{0: terms}}); err != nil {
			t.Fatalf("AddDocument: %v", err)
		}
	}

	catRef, ok := b.ResolveTerm("cat")
	if !ok {
		t.Fatalf("expected term %q to be resolvable", "cat")
	}
	bitmap, ok := b.LoadTermDirectory(0, catRef)
	if !ok {
		t.Fatalf("expected a posting bitmap for (field 0, cat)")
	}
	stat, _ := b.LoadStatistic(StatTermDocFrequency(0, catRef))
	if uint64(stat) != bitmap.GetCardinality() {
		t.Fatalf("term_doc_frequency = %d, popcount(postings) = %d", stat, bitmap.GetCardinality())
	}
}

func TestFrequencyOmissionInvariants(t *testing.T) {
	b := New()

	// First doc: term "x" appears once -> no tf<ord> entry.
	if _, err := b.AddDocument(Document{
		IndexedFields: map[FieldRef]map[string][]uint64{0: {"x": {0}}},
	}); err != nil {
		t.Fatalf("AddDocument: %v", err)
	}

	// Second doc: term "x" appears three times -> tf<ord> decodes to 3.
	docID, err := b.AddDocument(Document{
		IndexedFields: map[FieldRef]map[string][]uint64{0: {"x": {0, 5, 9}}},
	})
	if err != nil {
		t.Fatalf("AddDocument: %v", err)
	}

	xRef, _ := b.ResolveTerm("x")

	if _, ok := b.LoadStoredFieldValueRaw(0, 0, TermFrequencyKind(xRef)); ok {
		t.Fatalf("doc 0 has frequency 1 for term x, tf<ord> must be omitted")
	}

	raw, ok := b.LoadStoredFieldValueRaw(docID, 0, TermFrequencyKind(xRef))
	if !ok {
		t.Fatalf("doc %d has frequency 3 for term x, expected a tf<ord> entry", docID)
	}
	if len(raw) != 8 {
		t.Fatalf("tf<ord> value must be exactly 8 bytes, got %d", len(raw))
	}
	got := int64(0)
	for i := 7; i >= 0; i-- {
		got = got<<8 | int64(raw[i])
	}
	if got != 3 {
		t.Fatalf("decoded term frequency = %d, want 3", got)
	}
}

func TestZeroLengthFieldOmitsLenKey(t *testing.T) {
	b := New()
	docID, err := b.AddDocument(Document{
		StoredFields: map[FieldRef][]byte{0: []byte("unindexed")},
	})
	if err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	if _, ok := b.LoadStoredFieldValueRaw(docID, 0, KindLength); ok {
		t.Fatalf("a doc with no indexed tokens in field 0 must not have a len key")
	}
	if val, ok := b.LoadStoredFieldValueRaw(docID, 0, KindValue); !ok || string(val) != "unindexed" {
		t.Fatalf("stored field value not round-tripped: %q, ok=%v", val, ok)
	}
}

func TestSegmentFullRejectsBeforeAssigning(t *testing.T) {
	b := New()
	b.currentDoc = MaxDocID + 1

	if _, err := b.AddDocument(Document{}); err != ErrSegmentFull {
		t.Fatalf("AddDocument at capacity = %v, want ErrSegmentFull", err)
	}
	if b.TotalDocs() != MaxDocID+1 {
		t.Fatalf("a rejected AddDocument must not have incremented currentDoc")
	}
}

func TestSegmentFullRejectsSentinelDocID(t *testing.T) {
	b := New()
	b.currentDoc = 65535

	if _, err := b.AddDocument(Document{}); err != ErrSegmentFull {
		t.Fatalf("AddDocument at DocID 65535 (the reserved sentinel) = %v, want ErrSegmentFull", err)
	}
}
