// Package planner lowers a query.Query tree into a SearchPlan: a linear
// postfix boolean program over directory lists, and a parallel score
// program over per-document scores. Both programs are generated from the
// same AST walk so that their stack arity stays in lock-step, the way the
// reference query planner builds a SearchPlan in one pass.
package planner

import (
	"github.com/salvatore-campagna/invindex/query"
	"github.com/salvatore-campagna/invindex/segment"
)

// BooleanOpKind identifies one instruction in a boolean program.
type BooleanOpKind uint8

const (
	BoolZero BooleanOpKind = iota
	BoolOne
	BoolLoad
	BoolAnd
	BoolOr
	BoolAndNot
)

// BooleanOp is one instruction in a boolean program.
type BooleanOp struct {
	Kind  BooleanOpKind
	Field segment.FieldRef
	Term  segment.TermRef
}

// CompoundKind identifies how a CompoundScorer combines N sub-scores.
type CompoundKind uint8

const (
	CompoundAvg CompoundKind = iota
	CompoundMax
)

// ScoreOpKind identifies one instruction in a score program.
type ScoreOpKind uint8

const (
	ScoreLiteral ScoreOpKind = iota
	ScoreTerm
	ScoreCompound
)

// ScoreOp is one instruction in a score program.
type ScoreOp struct {
	Kind     ScoreOpKind
	Literal  float64
	Field    segment.FieldRef
	Term     segment.TermRef
	Scorer   query.TermScorer
	N        int
	Compound CompoundKind
}

// NDisjunctionConstraint records an NDisjunction node's "at least N of M"
// requirement so the executor can enforce it as a post-filter over
// candidates produced by the (necessarily coarser) Or-joined boolean
// program. Branches holds one independent boolean program per sub-query;
// a candidate satisfies the constraint when it is present in at least
// MinShouldMatch of them.
//
// This is a deliberate generalization of the reference planner, which
// lowered NDisjunction identically to Disjunction and silently dropped
// MinShouldMatch; see the design notes.
type NDisjunctionConstraint struct {
	Branches       [][]BooleanOp
	MinShouldMatch int
}

// SearchPlan is the compiled output of Plan: a boolean program, a parallel
// score program, and any NDisjunction constraints encountered along the
// way. Executing the boolean program against an empty stack always leaves
// exactly one DirectoryList; executing the score program for one candidate
// always leaves exactly one float64.
type SearchPlan struct {
	Boolean       []BooleanOp
	Score         []ScoreOp
	NDisjunctions []NDisjunctionConstraint
}

// TermResolver looks up the TermRef assigned to a term within the segment
// being planned against. An unresolved term is not an error: the query
// reduces to Zero and the overall query continues (searching for an
// absent term should return no hits, not fail).
type TermResolver interface {
	ResolveTerm(term string) (segment.TermRef, bool)
}

type planner struct {
	resolver TermResolver
	plan     SearchPlan
}

// Plan lowers q into a SearchPlan, resolving term references against
// resolver (typically a *segment.Builder, or any flushed segment's
// in-memory term dictionary).
func Plan(q query.Query, resolver TermResolver) SearchPlan {
	p := &planner{resolver: resolver}
	p.planQuery(q)
	return p.plan
}

func (p *planner) planQuery(q query.Query) {
	switch n := q.(type) {
	case query.MatchAll:
		p.plan.Boolean = append(p.plan.Boolean, BooleanOp{Kind: BoolOne})
		p.plan.Score = append(p.plan.Score, ScoreOp{Kind: ScoreLiteral, Literal: n.Score})

	case query.MatchNone:
		p.plan.Boolean = append(p.plan.Boolean, BooleanOp{Kind: BoolZero})
		p.plan.Score = append(p.plan.Score, ScoreOp{Kind: ScoreLiteral, Literal: 0})

	case query.MatchTerm:
		termRef, ok := p.resolver.ResolveTerm(n.Term)
		if !ok {
			// Term doesn't exist in this segment: it will never match. A
			// zero literal keeps the score stack in lock-step with the
			// boolean stack for any enclosing combinator.
			p.plan.Boolean = append(p.plan.Boolean, BooleanOp{Kind: BoolZero})
			p.plan.Score = append(p.plan.Score, ScoreOp{Kind: ScoreLiteral, Literal: 0})
			return
		}
		p.plan.Boolean = append(p.plan.Boolean, BooleanOp{Kind: BoolLoad, Field: n.Field, Term: termRef})
		p.plan.Score = append(p.plan.Score, ScoreOp{Kind: ScoreTerm, Field: n.Field, Term: termRef, Scorer: n.Scorer})

	case query.Conjunction:
		p.planCombinator(n.Queries, BoolAnd, CompoundAvg)

	case query.Disjunction:
		p.planCombinator(n.Queries, BoolOr, CompoundAvg)

	case query.NDisjunction:
		branches := make([][]BooleanOp, len(n.Queries))
		for i, sub := range n.Queries {
			branches[i] = Plan(sub, p.resolver).Boolean
		}
		if n.MinShouldMatch > 1 {
			p.plan.NDisjunctions = append(p.plan.NDisjunctions, NDisjunctionConstraint{
				Branches:       branches,
				MinShouldMatch: n.MinShouldMatch,
			})
		}
		p.planCombinator(n.Queries, BoolOr, CompoundAvg)

	case query.DisjunctionMax:
		p.planCombinator(n.Queries, BoolOr, CompoundMax)

	case query.Filter:
		p.planQuery(n.Base)
		// The filter's own score is discarded: push its boolean test
		// only, then drop the paired score slot it would otherwise leave
		// on the score stack by keeping the joiner logic in lock-step
		// below (see planFilterLike).
		p.planFilterLike(n.Filter)
		p.plan.Boolean = append(p.plan.Boolean, BooleanOp{Kind: BoolAnd})

	case query.Exclude:
		p.planQuery(n.Base)
		p.planFilterLike(n.Exclude)
		p.plan.Boolean = append(p.plan.Boolean, BooleanOp{Kind: BoolAndNot})

	default:
		panic("planner: unknown query type")
	}
}

// planFilterLike lowers a boolean-only sub-query (the filter/exclude side
// of Filter/Exclude): it emits boolean opcodes exactly like planQuery, but
// does not touch the score program, since the score program carries only
// the base query's score forward (Filter/Exclude contribute no score).
func (p *planner) planFilterLike(q query.Query) {
	scoreLen := len(p.plan.Score)
	p.planQuery(q)
	// Discard any score opcodes the sub-query emitted; the filter side
	// contributes no score.
	p.plan.Score = p.plan.Score[:scoreLen]
}

func (p *planner) planCombinator(queries []query.Query, joinOp BooleanOpKind, compound CompoundKind) {
	switch len(queries) {
	case 0:
		p.plan.Boolean = append(p.plan.Boolean, BooleanOp{Kind: BoolZero})
	case 1:
		p.planQuery(queries[0])
	default:
		p.planQuery(queries[0])
		for _, q := range queries[1:] {
			p.planQuery(q)
			p.plan.Boolean = append(p.plan.Boolean, BooleanOp{Kind: joinOp})
		}
	}
	p.plan.Score = append(p.plan.Score, ScoreOp{Kind: ScoreCompound, N: len(queries), Compound: compound})
}
