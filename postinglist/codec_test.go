package postinglist

import (
	"reflect"
	"testing"
)

func pack(ids ...DocID) []byte {
	var out []byte
	for _, id := range ids {
		out = appendDocID(out, id)
	}
	return out
}

func unpack(blob []byte) []DocID {
	var out []DocID
	for id := range Iter(blob) {
		out = append(out, id)
	}
	return out
}

func TestUnion(t *testing.T) {
	tests := []struct {
		name string
		a, b []DocID
		want []DocID
	}{
		{"both empty", nil, nil, nil},
		{"left empty", nil, []DocID{1, 2}, []DocID{1, 2}},
		{"disjoint", []DocID{1, 3}, []DocID{2, 4}, []DocID{1, 2, 3, 4}},
		{"overlap", []DocID{1, 2, 3}, []DocID{2, 3, 4}, []DocID{1, 2, 3, 4}},
		{"identical", []DocID{5, 6}, []DocID{5, 6}, []DocID{5, 6}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := unpack(Union(pack(tc.a...), pack(tc.b...)))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Union(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestIntersection(t *testing.T) {
	tests := []struct {
		name string
		a, b []DocID
		want []DocID
	}{
		{"both empty", nil, nil, nil},
		{"disjoint", []DocID{1, 3}, []DocID{2, 4}, nil},
		{"overlap", []DocID{1, 2, 3}, []DocID{2, 3, 4}, []DocID{2, 3}},
		{"identical", []DocID{5, 6}, []DocID{5, 6}, []DocID{5, 6}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := unpack(Intersection(pack(tc.a...), pack(tc.b...)))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Intersection(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestExclusion(t *testing.T) {
	tests := []struct {
		name string
		a, b []DocID
		want []DocID
	}{
		{"both empty", nil, nil, nil},
		{"nothing to exclude", []DocID{1, 2}, nil, []DocID{1, 2}},
		{"subtract all", []DocID{1, 2}, []DocID{1, 2}, nil},
		{"partial", []DocID{1, 2, 3}, []DocID{2}, []DocID{1, 3}},
		{"b has extra tail", []DocID{1, 2}, []DocID{2, 3, 4}, []DocID{1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := unpack(Exclusion(pack(tc.a...), pack(tc.b...)))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Exclusion(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestIterStrictlyIncreasing(t *testing.T) {
	blob := Union(pack(1, 3, 5), pack(2, 4))
	prev := -1
	for id := range Iter(blob) {
		if int(id) <= prev {
			t.Fatalf("decoded sequence not strictly increasing: %d after %d", id, prev)
		}
		prev = int(id)
	}
}

func TestOddLengthBlobTruncates(t *testing.T) {
	blob := append(pack(1, 2), 0xFF)
	got := unpack(blob)
	want := []DocID{1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Iter with odd trailing byte = %v, want %v", got, want)
	}
}
