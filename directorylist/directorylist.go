// Package directorylist implements the three-valued set lattice used by the
// query executor to represent a candidate document set without ever
// materializing the segment universe: Empty, Full, or Sparse(data, negated).
//
// The rewrite rules applied in Intersection/Union/Exclusion below mirror the
// ones worked out by hand in the reference query executor: negation is kept
// symbolic ("the complement of this posting list") so that intersecting,
// unioning or subtracting two negated sets never requires enumerating every
// DocID in the segment.
package directorylist

import "github.com/salvatore-campagna/invindex/postinglist"

type kind uint8

const (
	kindEmpty kind = iota
	kindFull
	kindSparse
)

// DirectoryList is a candidate document set: the empty set, the full
// segment universe, or a concrete sorted posting-list blob (optionally
// negated, meaning "everything except this").
type DirectoryList struct {
	k       kind
	data    []byte
	negated bool
}

// Empty returns the set containing no documents.
func Empty() DirectoryList { return DirectoryList{k: kindEmpty} }

// Full returns the set containing every document in the segment.
func Full() DirectoryList { return DirectoryList{k: kindFull} }

// Sparse returns the set described by data (a sorted, deduplicated
// postinglist blob), or its complement when negated is true. An empty data
// blob collapses to the canonical Empty or Full value, per invariant: a
// DirectoryList never represents Sparse(∅, _).
func Sparse(data []byte, negated bool) DirectoryList {
	if len(data) == 0 {
		if negated {
			return Full()
		}
		return Empty()
	}
	return DirectoryList{k: kindSparse, data: data, negated: negated}
}

// IsEmpty reports whether the set denotes the empty set.
func (d DirectoryList) IsEmpty() bool { return d.k == kindEmpty }

// IsFull reports whether the set denotes the full segment universe.
func (d DirectoryList) IsFull() bool { return d.k == kindFull }

// Sparse data/negated accessors, for callers (such as the executor's
// candidate-materialization step) that need to inspect a Sparse value.
// Ok reports whether the value is actually Sparse.
func (d DirectoryList) SparseData() (data []byte, negated bool, ok bool) {
	if d.k != kindSparse {
		return nil, false, false
	}
	return d.data, d.negated, true
}

// Intersection implements A ∩ B per Table T1 in the design notes.
func Intersection(a, b DirectoryList) DirectoryList {
	switch a.k {
	case kindEmpty:
		return Empty()
	case kindFull:
		return b
	case kindSparse:
		if !a.negated {
			switch b.k {
			case kindEmpty:
				return Empty()
			case kindFull:
				return Sparse(a.data, false)
			case kindSparse:
				if !b.negated {
					// a ∩ b
					return Sparse(postinglist.Intersection(a.data, b.data), false)
				}
				// a ∩ ¬b ≡ a \ b
				return Sparse(postinglist.Exclusion(a.data, b.data), false)
			}
		} else {
			switch b.k {
			case kindEmpty:
				return Empty()
			case kindFull:
				return Sparse(a.data, true)
			case kindSparse:
				if !b.negated {
					// ¬a ∩ b ≡ b \ a
					return Sparse(postinglist.Exclusion(b.data, a.data), false)
				}
				// ¬a ∩ ¬b ≡ ¬(a ∪ b)
				return Sparse(postinglist.Union(a.data, b.data), true)
			}
		}
	}
	panic("directorylist: unreachable kind in Intersection")
}

// Union implements A ∪ B per Table T1.
func Union(a, b DirectoryList) DirectoryList {
	switch a.k {
	case kindEmpty:
		return b
	case kindFull:
		return Full()
	case kindSparse:
		if !a.negated {
			switch b.k {
			case kindEmpty:
				return Sparse(a.data, false)
			case kindFull:
				return Full()
			case kindSparse:
				if !b.negated {
					return Sparse(postinglist.Union(a.data, b.data), false)
				}
				// a ∪ ¬b ≡ ¬(b \ a)
				return Sparse(postinglist.Exclusion(b.data, a.data), true)
			}
		} else {
			switch b.k {
			case kindEmpty:
				return Sparse(a.data, true)
			case kindFull:
				return Full()
			case kindSparse:
				if !b.negated {
					// ¬a ∪ b ≡ ¬(a \ b)
					return Sparse(postinglist.Exclusion(a.data, b.data), true)
				}
				// ¬a ∪ ¬b ≡ ¬(a ∩ b)
				return Sparse(postinglist.Intersection(a.data, b.data), true)
			}
		}
	}
	panic("directorylist: unreachable kind in Union")
}

// Exclusion implements A \ B (A AND NOT B) per Table T1. Both Right=Full
// cells (Left=Sparse, either polarity) return Full, not Empty: Table T1
// specifies Full for that cell, matching DirectoryList::exclusion's
// Sparse(_, _) => match other { Full => DirectoryList::Full, ... } arm.
func Exclusion(a, b DirectoryList) DirectoryList {
	switch a.k {
	case kindEmpty:
		return Empty()
	case kindFull:
		switch b.k {
		case kindEmpty:
			return Full()
		case kindFull:
			return Empty()
		case kindSparse:
			return Sparse(b.data, !b.negated)
		}
	case kindSparse:
		if !a.negated {
			switch b.k {
			case kindEmpty:
				return Sparse(a.data, false)
			case kindFull:
				return Full()
			case kindSparse:
				if !b.negated {
					return Sparse(postinglist.Exclusion(a.data, b.data), false)
				}
				// a \ ¬b ≡ a ∩ b
				return Sparse(postinglist.Intersection(a.data, b.data), false)
			}
		} else {
			switch b.k {
			case kindEmpty:
				return Sparse(a.data, true)
			case kindFull:
				return Full()
			case kindSparse:
				if !b.negated {
					// ¬a \ b ≡ ¬(a ∪ b)
					return Sparse(postinglist.Union(a.data, b.data), true)
				}
				// ¬a \ ¬b ≡ b \ a
				return Sparse(postinglist.Exclusion(b.data, a.data), false)
			}
		}
	}
	panic("directorylist: unreachable kind in Exclusion")
}
