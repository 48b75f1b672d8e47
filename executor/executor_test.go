package executor

import (
	"context"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/salvatore-campagna/invindex/collector"
	"github.com/salvatore-campagna/invindex/planner"
	"github.com/salvatore-campagna/invindex/query"
	"github.com/salvatore-campagna/invindex/segment"
)

type memSnapshot map[string][]byte

func (m memSnapshot) Get(key []byte) ([]byte, bool, error) {
	v, ok := m[string(key)]
	return v, ok, nil
}

type memKeys struct{}

func (memKeys) ChunkDirList(field, term uint32) []byte {
	return []byte(fmt.Sprintf("dir:%d:%d", field, term))
}
func (memKeys) TotalDocsStat() []byte { return []byte("total_docs") }
func (memKeys) TermDocFrequencyStat(field, term uint32) []byte {
	return []byte(fmt.Sprintf("tdf:%d:%d", field, term))
}
func (memKeys) TotalFieldDocsStat(field uint32) []byte {
	return []byte(fmt.Sprintf("tfd:%d", field))
}
func (memKeys) TotalFieldTokensStat(field uint32) []byte {
	return []byte(fmt.Sprintf("tft:%d", field))
}
func (memKeys) StoredFieldValue(doc uint16, field uint32, kind string) []byte {
	return []byte(fmt.Sprintf("sv:%d:%d:%s", doc, field, kind))
}

func packDocIDs(ids ...uint16) []byte {
	var out []byte
	for _, id := range ids {
		var buf [2]byte
		binary.BigEndian.PutUint16(buf[:], id)
		out = append(out, buf[:]...)
	}
	return out
}

func i64(v int64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return buf[:]
}

type constScorer struct{ v float64 }

func (c constScorer) Score(query.TermScoreContext) float64 { return c.v }

func TestRunTermMissReturnsNoHits(t *testing.T) {
	snap := memSnapshot{}
	keys := memKeys{}
	plan := planner.SearchPlan{
		Boolean: []planner.BooleanOp{{Kind: planner.BoolZero}},
		Score:   []planner.ScoreOp{{Kind: planner.ScoreLiteral, Literal: 0}},
	}
	var c collector.Counter
	if err := Run(context.Background(), plan, snap, keys, 10, &c); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.Count != 0 {
		t.Fatalf("want 0 hits, got %d", c.Count)
	}
}

func TestRunIntersection(t *testing.T) {
	snap := memSnapshot{
		"dir:0:1": packDocIDs(1, 2, 3),
		"dir:0:2": packDocIDs(2, 3, 4),
	}
	keys := memKeys{}
	plan := planner.SearchPlan{
		Boolean: []planner.BooleanOp{
			{Kind: planner.BoolLoad, Field: 0, Term: 1},
			{Kind: planner.BoolLoad, Field: 0, Term: 2},
			{Kind: planner.BoolAnd},
		},
		Score: []planner.ScoreOp{
			{Kind: planner.ScoreLiteral, Literal: 1},
			{Kind: planner.ScoreLiteral, Literal: 1},
			{Kind: planner.ScoreCompound, N: 2, Compound: planner.CompoundAvg},
		},
	}
	top := collector.NewTopN(10)
	if err := Run(context.Background(), plan, snap, keys, 10, top); err != nil {
		t.Fatalf("Run: %v", err)
	}
	hits := top.Hits()
	if len(hits) != 2 {
		t.Fatalf("want 2 hits, got %d: %#v", len(hits), hits)
	}
	seen := map[uint16]bool{}
	for _, h := range hits {
		seen[h.DocID] = true
	}
	if !seen[2] || !seen[3] {
		t.Fatalf("want docs 2 and 3, got %#v", hits)
	}
}

func TestRunExcludeWithNegationCollapse(t *testing.T) {
	// base: all docs (MatchAll -> One). exclude: NOT term b, i.e. exclude
	// side is itself an Exclude(MatchAll, term), producing a double
	// negation that collapses back to "term present".
	snap := memSnapshot{
		"dir:0:1": packDocIDs(1, 3),
	}
	keys := memKeys{}
	plan := planner.SearchPlan{
		Boolean: []planner.BooleanOp{
			{Kind: planner.BoolOne},         // base: MatchAll
			{Kind: planner.BoolOne},         // exclude.base: MatchAll
			{Kind: planner.BoolLoad, Field: 0, Term: 1}, // exclude.exclude: term
			{Kind: planner.BoolAndNot},      // exclude.base \ exclude.exclude = NOT term
			{Kind: planner.BoolAndNot},      // base \ (NOT term) = term
		},
		Score: []planner.ScoreOp{
			{Kind: planner.ScoreLiteral, Literal: 1},
		},
	}
	var c collector.Counter
	top := collector.NewTopN(10)
	_ = c
	if err := Run(context.Background(), plan, snap, keys, 5, top); err != nil {
		t.Fatalf("Run: %v", err)
	}
	seen := map[uint16]bool{}
	for _, h := range top.Hits() {
		seen[h.DocID] = true
	}
	if len(seen) != 2 || !seen[1] || !seen[3] {
		t.Fatalf("want docs {1,3}, got %#v", top.Hits())
	}
}

func TestRunDisjunctionMaxPicksBestScore(t *testing.T) {
	snap := memSnapshot{
		"dir:0:1": packDocIDs(5),
		"dir:0:2": packDocIDs(5),
	}
	keys := memKeys{}
	plan := planner.SearchPlan{
		Boolean: []planner.BooleanOp{
			{Kind: planner.BoolLoad, Field: 0, Term: 1},
			{Kind: planner.BoolLoad, Field: 0, Term: 2},
			{Kind: planner.BoolOr},
		},
		Score: []planner.ScoreOp{
			{Kind: planner.ScoreTerm, Field: 0, Term: 1, Scorer: constScorer{v: 2}},
			{Kind: planner.ScoreTerm, Field: 0, Term: 2, Scorer: constScorer{v: 9}},
			{Kind: planner.ScoreCompound, N: 2, Compound: planner.CompoundMax},
		},
	}
	top := collector.NewTopN(10)
	if err := Run(context.Background(), plan, snap, keys, 10, top); err != nil {
		t.Fatalf("Run: %v", err)
	}
	hits := top.Hits()
	if len(hits) != 1 || hits[0].DocID != 5 || hits[0].Score != 9 {
		t.Fatalf("want doc 5 with score 9, got %#v", hits)
	}
}

func TestRunTermFrequencyEncoding(t *testing.T) {
	snap := memSnapshot{
		"dir:0:1":       packDocIDs(0, 1),
		"sv:1:0:tf1":    i64(7), // doc 1 has explicit frequency 7
	}
	keys := memKeys{}
	plan := planner.SearchPlan{
		Boolean: []planner.BooleanOp{{Kind: planner.BoolLoad, Field: 0, Term: 1}},
		Score: []planner.ScoreOp{
			{Kind: planner.ScoreTerm, Field: 0, Term: 1, Scorer: recordingScorer{}},
		},
	}
	got := map[uint16]int64{}
	sink := collectorFunc(func(docID uint16, score float64) {
		got[docID] = int64(score)
	})
	if err := Run(context.Background(), plan, snap, keys, 5, sink); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got[0] != 1 {
		t.Fatalf("doc 0 should default to frequency 1, got %d", got[0])
	}
	if got[1] != 7 {
		t.Fatalf("doc 1 should read explicit frequency 7, got %d", got[1])
	}
}

func TestRunNDisjunctionMinShouldMatch(t *testing.T) {
	snap := memSnapshot{
		"dir:0:1": packDocIDs(1, 2, 3),
		"dir:0:2": packDocIDs(2, 3),
		"dir:0:3": packDocIDs(3),
	}
	keys := memKeys{}
	branchA := []planner.BooleanOp{{Kind: planner.BoolLoad, Field: 0, Term: 1}}
	branchB := []planner.BooleanOp{{Kind: planner.BoolLoad, Field: 0, Term: 2}}
	branchC := []planner.BooleanOp{{Kind: planner.BoolLoad, Field: 0, Term: 3}}
	plan := planner.SearchPlan{
		Boolean: []planner.BooleanOp{
			{Kind: planner.BoolLoad, Field: 0, Term: 1},
			{Kind: planner.BoolLoad, Field: 0, Term: 2},
			{Kind: planner.BoolOr},
			{Kind: planner.BoolLoad, Field: 0, Term: 3},
			{Kind: planner.BoolOr},
		},
		Score: []planner.ScoreOp{
			{Kind: planner.ScoreLiteral, Literal: 1},
			{Kind: planner.ScoreLiteral, Literal: 1},
			{Kind: planner.ScoreCompound, N: 2, Compound: planner.CompoundAvg},
			{Kind: planner.ScoreLiteral, Literal: 1},
			{Kind: planner.ScoreCompound, N: 2, Compound: planner.CompoundAvg},
		},
		NDisjunctions: []planner.NDisjunctionConstraint{
			{Branches: [][]planner.BooleanOp{branchA, branchB, branchC}, MinShouldMatch: 2},
		},
	}
	top := collector.NewTopN(10)
	if err := Run(context.Background(), plan, snap, keys, 5, top); err != nil {
		t.Fatalf("Run: %v", err)
	}
	seen := map[uint16]bool{}
	for _, h := range top.Hits() {
		seen[h.DocID] = true
	}
	// doc 1 matches only branch A -> excluded. docs 2,3 match >=2 branches.
	if len(seen) != 2 || !seen[2] || !seen[3] {
		t.Fatalf("want docs {2,3}, got %#v", top.Hits())
	}
}

func TestStatsAdapterReadsStructuredKeys(t *testing.T) {
	snap := memSnapshot{
		"total_docs": i64(100),
		"tdf:0:1":    i64(9),
		"tfd:0":      i64(50),
		"tft:0":      i64(500),
	}
	stats := statsAdapter{snap: snap, keys: memKeys{}}

	if v, ok := stats.LoadStatistic(segment.StatTotalDocs); !ok || v != 100 {
		t.Fatalf("total docs: got %d, %v", v, ok)
	}
	if v, ok := stats.LoadStatistic(segment.StatTermDocFrequency(0, 1)); !ok || v != 9 {
		t.Fatalf("term doc frequency: got %d, %v", v, ok)
	}
	if v, ok := stats.LoadStatistic(segment.StatTotalFieldDocs(0)); !ok || v != 50 {
		t.Fatalf("total field docs: got %d, %v", v, ok)
	}
	if v, ok := stats.LoadStatistic(segment.StatTotalFieldTokens(0)); !ok || v != 500 {
		t.Fatalf("total field tokens: got %d, %v", v, ok)
	}
	if _, ok := stats.LoadStatistic("not_a_real_stat"); ok {
		t.Fatalf("want ok=false for unrecognized statistic name")
	}
}

type recordingScorer struct{}

func (recordingScorer) Score(ctx query.TermScoreContext) float64 {
	return float64(ctx.TermFrequency)
}

type collectorFunc func(docID uint16, score float64)

func (f collectorFunc) Collect(docID uint16, score float64) { f(docID, score) }
