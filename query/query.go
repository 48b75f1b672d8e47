// Package query defines the recursive query AST that package planner
// compiles into a SearchPlan. It mirrors the query variants named in the
// design: MatchAll, MatchNone, MatchTerm, Conjunction, Disjunction,
// NDisjunction, DisjunctionMax, Filter and Exclude.
package query

import "github.com/salvatore-campagna/invindex/segment"

// Query is the closed set of query tree nodes the planner knows how to
// lower: a sealed variant set discriminated with a type switch rather than
// open-ended polymorphism.
type Query interface {
	isQuery()
}

// MatchAll matches every document in the segment with a fixed score.
type MatchAll struct {
	Score float64
}

// MatchNone matches no documents.
type MatchNone struct{}

// MatchTerm matches documents containing Term in Field, scored by Scorer.
type MatchTerm struct {
	Field  segment.FieldRef
	Term   string
	Scorer TermScorer
}

// Conjunction matches documents matching every sub-query (boolean AND),
// scored as the average of the sub-scores.
type Conjunction struct {
	Queries []Query
}

// Disjunction matches documents matching any sub-query (boolean OR),
// scored as the average of the sub-scores.
type Disjunction struct {
	Queries []Query
}

// NDisjunction matches documents matching at least MinShouldMatch of the
// sub-queries, scored as the average of the sub-scores.
type NDisjunction struct {
	Queries        []Query
	MinShouldMatch int
}

// DisjunctionMax matches documents matching any sub-query, scored as the
// maximum of the sub-scores (rewards the single best-matching clause
// instead of diluting it by averaging against weaker clauses).
type DisjunctionMax struct {
	Queries []Query
}

// Filter matches documents matching both Base and Filter, but only Base
// contributes to the score (Filter is a pure boolean gate).
type Filter struct {
	Base   Query
	Filter Query
}

// Exclude matches documents matching Base but not Exclude; only Base
// contributes to the score.
type Exclude struct {
	Base    Query
	Exclude Query
}

func (MatchAll) isQuery()       {}
func (MatchNone) isQuery()      {}
func (MatchTerm) isQuery()      {}
func (Conjunction) isQuery()    {}
func (Disjunction) isQuery()    {}
func (NDisjunction) isQuery()   {}
func (DisjunctionMax) isQuery() {}
func (Filter) isQuery()         {}
func (Exclude) isQuery()        {}

// TermScorer is the externally supplied relevance function: a hook point
// the planner and executor call with (term frequency, field length,
// per-segment statistics) to produce a score, per the design's scorer
// contract. A grounded TF-IDF implementation lives in package scorer.
type TermScorer interface {
	Score(ctx TermScoreContext) float64
}

// TermScoreContext is everything a TermScorer is given to compute a score
// for one (document, field, term) match.
type TermScoreContext struct {
	Field segment.FieldRef
	Term  segment.TermRef

	// TermFrequency is the number of occurrences of Term in Field for the
	// candidate document (the stored "tf<ord>" value, or 1 if omitted).
	TermFrequency int64

	// FieldLengthByte is the quantized field-length byte stored under
	// "len" for the candidate document (0 if omitted).
	FieldLengthByte byte

	// Stats is the per-segment statistics reader, for looking up document
	// frequencies and corpus-wide totals.
	Stats StatisticsReader
}

// StatisticsReader is the narrow view of a segment's statistics a
// TermScorer needs: named counters keyed the way package segment names
// them (total_docs, total_field_docs:<field>, total_field_tokens:<field>,
// term_doc_frequency:<field>:<term>).
type StatisticsReader interface {
	LoadStatistic(name string) (int64, bool)
}
