// Package postinglist implements the on-disk posting-list codec: a sorted,
// deduplicated sequence of 16-bit document IDs packed as big-endian bytes,
// plus the merge-join algebra (union, intersection, exclusion) used to
// combine two such blobs without ever materializing an intermediate list of
// integers.
package postinglist

import "encoding/binary"

// DocID is a document ordinal local to one segment.
type DocID = uint16

// docIDSize is the width, in bytes, of one packed DocID.
const docIDSize = 2

// Iter walks the DocIDs encoded in blob in ascending order. A blob with an
// odd trailing byte is treated as truncated after the last complete pair;
// the caller is responsible for logging if that matters to them.
func Iter(blob []byte) func(yield func(DocID) bool) {
	return func(yield func(DocID) bool) {
		n := len(blob) / docIDSize
		for i := 0; i < n; i++ {
			if !yield(binary.BigEndian.Uint16(blob[i*docIDSize:])) {
				return
			}
		}
	}
}

// Len returns the number of DocIDs packed into blob.
func Len(blob []byte) int {
	return len(blob) / docIDSize
}

// At returns the i'th DocID packed into blob.
func At(blob []byte, i int) DocID {
	return binary.BigEndian.Uint16(blob[i*docIDSize:])
}

// appendDocID appends a single big-endian DocID to dst.
func appendDocID(dst []byte, id DocID) []byte {
	var buf [docIDSize]byte
	binary.BigEndian.PutUint16(buf[:], id)
	return append(dst, buf[:]...)
}

// Pack encodes a sorted, deduplicated slice of DocIDs into the on-disk blob
// format, for callers (such as a segment flush step) that materialize a
// posting list from something other than another blob, e.g. a roaring
// bitmap's sorted iteration.
func Pack(ids []DocID) []byte {
	out := make([]byte, 0, len(ids)*docIDSize)
	for _, id := range ids {
		out = appendDocID(out, id)
	}
	return out
}

// Union returns the sorted, deduplicated merge of a and b: classic
// two-pointer merge, emitting a value once when both sides agree on it.
func Union(a, b []byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	na, nb := Len(a), Len(b)
	i, j := 0, 0
	for i < na && j < nb {
		ai, bj := At(a, i), At(b, j)
		switch {
		case ai < bj:
			out = appendDocID(out, ai)
			i++
		case ai > bj:
			out = appendDocID(out, bj)
			j++
		default:
			out = appendDocID(out, ai)
			i++
			j++
		}
	}
	for ; i < na; i++ {
		out = appendDocID(out, At(a, i))
	}
	for ; j < nb; j++ {
		out = appendDocID(out, At(b, j))
	}
	return out
}

// Intersection returns the DocIDs present in both a and b.
func Intersection(a, b []byte) []byte {
	out := make([]byte, 0, min(len(a), len(b)))
	na, nb := Len(a), Len(b)
	i, j := 0, 0
	for i < na && j < nb {
		ai, bj := At(a, i), At(b, j)
		switch {
		case ai < bj:
			i++
		case ai > bj:
			j++
		default:
			out = appendDocID(out, ai)
			i++
			j++
		}
	}
	return out
}

// Exclusion returns the DocIDs present in a but not in b (A AND NOT B).
func Exclusion(a, b []byte) []byte {
	out := make([]byte, 0, len(a))
	na, nb := Len(a), Len(b)
	i, j := 0, 0
	for i < na && j < nb {
		ai, bj := At(a, i), At(b, j)
		switch {
		case ai < bj:
			out = appendDocID(out, ai)
			i++
		case ai > bj:
			j++
		default:
			i++
			j++
		}
	}
	for ; i < na; i++ {
		out = appendDocID(out, At(a, i))
	}
	return out
}
