// Package collector provides the result sink the query executor delivers
// (DocID, score) pairs to. The executor only depends on the Collector
// interface; a bounded top-N implementation is supplied here to exercise it.
package collector

// Collector receives scored hits from a query execution in an unspecified
// order and decides what to retain.
type Collector interface {
	Collect(docID uint16, score float64)
}

// Hit is one scored document retained by a TopN collector.
type Hit struct {
	DocID uint16
	Score float64
}

// TopN keeps the N highest-scoring hits seen, maintained as a sorted slice
// with an insertion point found by linear scan from the tail. Fine for
// small-to-moderate N, where a heap's bookkeeping isn't worth it.
type TopN struct {
	limit int
	hits  []Hit
}

// NewTopN returns a collector that retains at most limit hits.
func NewTopN(limit int) *TopN {
	return &TopN{limit: limit}
}

// Collect implements Collector.
func (t *TopN) Collect(docID uint16, score float64) {
	if t.limit == 0 {
		return
	}
	hit := Hit{DocID: docID, Score: score}

	if len(t.hits) < t.limit {
		t.hits = append(t.hits, hit)
	} else if t.hits[len(t.hits)-1].Score >= score {
		return
	} else {
		t.hits[len(t.hits)-1] = hit
	}

	for i := len(t.hits) - 1; i > 0 && t.hits[i-1].Score < t.hits[i].Score; i-- {
		t.hits[i-1], t.hits[i] = t.hits[i], t.hits[i-1]
	}
}

// Hits returns the retained hits, highest score first.
func (t *TopN) Hits() []Hit {
	return t.hits
}

// Counter is a trivial Collector that only counts matches, for queries
// that only need a total.
type Counter struct {
	Count int
}

// Collect implements Collector.
func (c *Counter) Collect(uint16, float64) {
	c.Count++
}
