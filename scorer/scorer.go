// Package scorer provides concrete query.TermScorer implementations. The
// core only depends on the TermScorer interface (term-similarity scoring is
// named as an external collaborator in the design), but a working scorer is
// needed to exercise the executor end-to-end, so this package supplies TFIDF,
// grounded on the corpus's own term-frequency/inverse-document-frequency
// scoring line, and the standard Okapi BM25.
package scorer

import (
	"math"

	"github.com/salvatore-campagna/invindex/query"
	"github.com/salvatore-campagna/invindex/segment"
)

// TFIDF scores a term match as term-frequency times inverse document
// frequency, the same shape as the reference query engine's scoring line
// (tf * log((totalDocs+1)/(docFreq+1))), generalized here to read
// totalDocs and docFreq from the per-segment statistics rather than from a
// closure over a fixed corpus.
type TFIDF struct{}

// Score implements query.TermScorer.
func (TFIDF) Score(ctx query.TermScoreContext) float64 {
	totalDocs, _ := ctx.Stats.LoadStatistic(segment.StatTotalDocs)
	docFreq, _ := ctx.Stats.LoadStatistic(segment.StatTermDocFrequency(ctx.Field, ctx.Term))
	idf := math.Log(float64(totalDocs+1) / float64(docFreq+1))
	return float64(ctx.TermFrequency) * idf
}

// BM25 scores a term match with the classic Okapi BM25 formula, using the
// segment's average field length (derived from total_field_tokens /
// total_field_docs) in place of the exact document length, since the core
// only stores a quantized length byte. k1 and b are the standard tuning
// knobs; relevance-tuning heuristics beyond exposing these hook points are
// out of scope, so no automatic parameter selection is provided.
type BM25 struct {
	K1 float64
	B  float64
}

// NewBM25 returns a BM25 scorer with the conventional defaults (k1=1.2, b=0.75).
func NewBM25() BM25 {
	return BM25{K1: 1.2, B: 0.75}
}

// Score implements query.TermScorer.
func (s BM25) Score(ctx query.TermScoreContext) float64 {
	totalDocs, _ := ctx.Stats.LoadStatistic(segment.StatTotalDocs)
	docFreq, _ := ctx.Stats.LoadStatistic(segment.StatTermDocFrequency(ctx.Field, ctx.Term))
	idf := math.Log(1 + (float64(totalDocs)-float64(docFreq)+0.5)/(float64(docFreq)+0.5))

	totalFieldDocs, _ := ctx.Stats.LoadStatistic(segment.StatTotalFieldDocs(ctx.Field))
	totalFieldTokens, _ := ctx.Stats.LoadStatistic(segment.StatTotalFieldTokens(ctx.Field))
	avgFieldLength := 1.0
	if totalFieldDocs > 0 {
		avgFieldLength = float64(totalFieldTokens) / float64(totalFieldDocs)
	}

	// De-quantize: the length byte encodes round((sqrt(n)-1)*3); invert it
	// back to an approximate token count for the BM25 normalization term.
	fieldLength := math.Pow(float64(ctx.FieldLengthByte)/3.0+1.0, 2)
	if ctx.FieldLengthByte == 0 {
		fieldLength = avgFieldLength
	}

	tf := float64(ctx.TermFrequency)
	norm := 1 - s.B + s.B*(fieldLength/avgFieldLength)
	return idf * (tf * (s.K1 + 1)) / (tf + s.K1*norm)
}
