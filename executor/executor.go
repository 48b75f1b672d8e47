// Package executor runs a planner.SearchPlan against a backing key-value
// store snapshot: a boolean stack machine selects the candidate document
// set, and a parallel score stack machine computes a relevance score for
// each surviving candidate, the way the reference search() loop walks its
// BooleanQueryOp and ScoreFunctionOp programs in lock-step.
package executor

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/salvatore-campagna/invindex/collector"
	"github.com/salvatore-campagna/invindex/directorylist"
	"github.com/salvatore-campagna/invindex/planner"
	"github.com/salvatore-campagna/invindex/postinglist"
	"github.com/salvatore-campagna/invindex/query"
	"github.com/salvatore-campagna/invindex/segment"
	"github.com/salvatore-campagna/invindex/store"
)

// ErrStackUnderflow indicates a malformed program: an opcode needed more
// operands than the stack held. This can only happen if a planner.SearchPlan
// was hand-assembled incorrectly; Plan itself never produces one.
var ErrStackUnderflow = errors.New("executor: stack underflow")

// Run executes plan against snap (addressed through keys), visiting every
// candidate document in [0, totalDocs) that the boolean program selects,
// scoring it with the score program, and delivering it to sink. Run returns
// early with an error if ctx is cancelled or a Load/Get fails; it does not
// swallow store errors the way an earlier, more permissive design might.
func Run(ctx context.Context, plan planner.SearchPlan, snap store.Snapshot, keys store.KeyBuilder, totalDocs uint32, sink collector.Collector) error {
	result, err := runBoolean(ctx, plan.Boolean, snap, keys)
	if err != nil {
		return err
	}

	constraints := make([]ndisjunctionState, len(plan.NDisjunctions))
	for i, c := range plan.NDisjunctions {
		branches := make([]directorylist.DirectoryList, len(c.Branches))
		for j, branch := range c.Branches {
			dl, err := runBoolean(ctx, branch, snap, keys)
			if err != nil {
				return err
			}
			branches[j] = dl
		}
		constraints[i] = ndisjunctionState{branches: branches, minShouldMatch: c.MinShouldMatch}
	}

	stats := &statsAdapter{snap: snap, keys: keys}

	return forEachCandidate(result, totalDocs, func(docID uint16) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		for _, c := range constraints {
			if !c.satisfied(docID) {
				return nil
			}
		}

		score, err := runScore(plan.Score, docID, snap, keys, stats)
		if err != nil {
			return err
		}
		if stats.err != nil {
			return stats.err
		}
		sink.Collect(docID, score)
		return nil
	})
}

type ndisjunctionState struct {
	branches       []directorylist.DirectoryList
	minShouldMatch int
}

func (s ndisjunctionState) satisfied(docID uint16) bool {
	matched := 0
	for _, b := range s.branches {
		if contains(b, docID) {
			matched++
			if matched >= s.minShouldMatch {
				return true
			}
		}
	}
	return matched >= s.minShouldMatch
}

// runBoolean executes a boolean program to completion and returns the
// single DirectoryList left on the stack.
func runBoolean(ctx context.Context, program []planner.BooleanOp, snap store.Snapshot, keys store.KeyBuilder) (directorylist.DirectoryList, error) {
	var stack []directorylist.DirectoryList

	pop := func() (directorylist.DirectoryList, error) {
		if len(stack) == 0 {
			return directorylist.DirectoryList{}, ErrStackUnderflow
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return top, nil
	}

	for _, op := range program {
		select {
		case <-ctx.Done():
			return directorylist.DirectoryList{}, ctx.Err()
		default:
		}

		switch op.Kind {
		case planner.BoolZero:
			stack = append(stack, directorylist.Empty())
		case planner.BoolOne:
			stack = append(stack, directorylist.Full())
		case planner.BoolLoad:
			key := keys.ChunkDirList(uint32(op.Field), uint32(op.Term))
			raw, ok, err := snap.Get(key)
			if err != nil {
				return directorylist.DirectoryList{}, fmt.Errorf("executor: load posting list: %w", err)
			}
			if !ok {
				stack = append(stack, directorylist.Empty())
				break
			}
			stack = append(stack, directorylist.Sparse(raw, false))
		case planner.BoolAnd, planner.BoolOr, planner.BoolAndNot:
			right, err := pop()
			if err != nil {
				return directorylist.DirectoryList{}, err
			}
			left, err := pop()
			if err != nil {
				return directorylist.DirectoryList{}, err
			}
			switch op.Kind {
			case planner.BoolAnd:
				stack = append(stack, directorylist.Intersection(left, right))
			case planner.BoolOr:
				stack = append(stack, directorylist.Union(left, right))
			case planner.BoolAndNot:
				stack = append(stack, directorylist.Exclusion(left, right))
			}
		default:
			panic("executor: unknown boolean opcode")
		}
	}

	if len(stack) != 1 {
		panic(fmt.Sprintf("executor: boolean program left %d values on the stack, want 1", len(stack)))
	}
	return stack[0], nil
}

// runScore executes a score program for one candidate document and returns
// the single float64 left on the stack.
func runScore(program []planner.ScoreOp, docID uint16, snap store.Snapshot, keys store.KeyBuilder, stats *statsAdapter) (float64, error) {
	var stack []float64

	pop := func() (float64, error) {
		if len(stack) == 0 {
			return 0, ErrStackUnderflow
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return top, nil
	}

	for _, op := range program {
		switch op.Kind {
		case planner.ScoreLiteral:
			stack = append(stack, op.Literal)

		case planner.ScoreTerm:
			tfRaw, ok, err := snap.Get(keys.StoredFieldValue(docID, uint32(op.Field), segment.TermFrequencyKind(op.Term)))
			if err != nil {
				return 0, fmt.Errorf("executor: load term frequency: %w", err)
			}
			termFrequency := int64(1)
			if ok && len(tfRaw) == 8 {
				termFrequency = int64(binary.LittleEndian.Uint64(tfRaw))
			}

			lenRaw, ok, err := snap.Get(keys.StoredFieldValue(docID, uint32(op.Field), segment.KindLength))
			if err != nil {
				return 0, fmt.Errorf("executor: load field length: %w", err)
			}
			var fieldLengthByte byte
			if ok && len(lenRaw) == 1 {
				fieldLengthByte = lenRaw[0]
			}

			score := op.Scorer.Score(query.TermScoreContext{
				Field:           op.Field,
				Term:            op.Term,
				TermFrequency:   termFrequency,
				FieldLengthByte: fieldLengthByte,
				Stats:           stats,
			})
			stack = append(stack, score)

		case planner.ScoreCompound:
			if op.N == 0 {
				stack = append(stack, 0)
				break
			}
			if len(stack) < op.N {
				return 0, ErrStackUnderflow
			}
			operands := stack[len(stack)-op.N:]
			stack = stack[:len(stack)-op.N]

			var result float64
			switch op.Compound {
			case planner.CompoundAvg:
				var sum float64
				for _, v := range operands {
					sum += v
				}
				result = sum / float64(op.N)
			case planner.CompoundMax:
				result = operands[0]
				for _, v := range operands[1:] {
					if v > result {
						result = v
					}
				}
			}
			stack = append(stack, result)

		default:
			panic("executor: unknown score opcode")
		}
	}

	return pop()
}

// forEachCandidate calls fn once per DocID selected by result, in ascending
// order, bounded by the segment's [0, totalDocs) universe. fn's error stops
// iteration and is returned.
func forEachCandidate(result directorylist.DirectoryList, totalDocs uint32, fn func(docID uint16) error) error {
	if result.IsEmpty() {
		return nil
	}
	if result.IsFull() {
		for docID := uint32(0); docID < totalDocs; docID++ {
			if err := fn(uint16(docID)); err != nil {
				return err
			}
		}
		return nil
	}

	data, negated, ok := result.SparseData()
	if !ok {
		panic("executor: DirectoryList is neither empty, full, nor sparse")
	}
	if !negated {
		for id := range postinglist.Iter(data) {
			if err := fn(id); err != nil {
				return err
			}
		}
		return nil
	}

	for docID := uint32(0); docID < totalDocs; docID++ {
		if containsSorted(data, uint16(docID)) {
			continue
		}
		if err := fn(uint16(docID)); err != nil {
			return err
		}
	}
	return nil
}

// contains reports whether dl, interpreted against the full segment
// universe, selects docID.
func contains(dl directorylist.DirectoryList, docID uint16) bool {
	if dl.IsEmpty() {
		return false
	}
	if dl.IsFull() {
		return true
	}
	data, negated, ok := dl.SparseData()
	if !ok {
		panic("executor: DirectoryList is neither empty, full, nor sparse")
	}
	present := containsSorted(data, docID)
	if negated {
		return !present
	}
	return present
}

// containsSorted reports whether id appears in the sorted postinglist blob data.
func containsSorted(data []byte, id uint16) bool {
	n := postinglist.Len(data)
	i := sort.Search(n, func(i int) bool { return postinglist.At(data, i) >= id })
	return i < n && postinglist.At(data, i) == id
}

// statsAdapter implements query.StatisticsReader by translating the named
// statistics segment.Builder keeps in memory into the structured keys a
// flushed segment's KeyBuilder addresses. query.StatisticsReader has no
// error return, so a backing-store failure is latched into err instead of
// being reported as "statistic not recorded"; Run checks err after each
// candidate's score program runs, the same way it propagates every other
// snap.Get failure in this file.
type statsAdapter struct {
	snap store.Snapshot
	keys store.KeyBuilder
	err  error
}

func (s *statsAdapter) LoadStatistic(name string) (int64, bool) {
	var key []byte
	var a, b uint32
	switch {
	case name == segment.StatTotalDocs:
		key = s.keys.TotalDocsStat()
	case scan(name, "total_field_docs:%d", &a):
		key = s.keys.TotalFieldDocsStat(a)
	case scan(name, "total_field_tokens:%d", &a):
		key = s.keys.TotalFieldTokensStat(a)
	case scan(name, "term_doc_frequency:%d:%d", &a, &b):
		key = s.keys.TermDocFrequencyStat(a, b)
	default:
		return 0, false
	}

	raw, ok, err := s.snap.Get(key)
	if err != nil {
		s.err = fmt.Errorf("executor: load statistic %q: %w", name, err)
		return 0, false
	}
	if !ok || len(raw) != 8 {
		return 0, false
	}
	return int64(binary.LittleEndian.Uint64(raw)), true
}

func scan(name, format string, args ...*uint32) bool {
	anys := make([]any, len(args))
	for i, a := range args {
		anys[i] = a
	}
	n, err := fmt.Sscanf(name, format, anys...)
	return err == nil && n == len(args)
}
