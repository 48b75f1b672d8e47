// Package roaringstore is a concrete store.Snapshot and store.KeyBuilder
// backed by a single flushed segment held in memory, with a binary on-disk
// representation. It plays the role the reference storage layer's
// Segment/Serialize/Deserialize pair plays: an in-memory roaring-bitmap
// accumulator (package segment) on the write side, flat packed posting
// lists on the read side, joined by a magic-number-prefixed, length-framed
// file format.
package roaringstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/salvatore-campagna/invindex/postinglist"
	"github.com/salvatore-campagna/invindex/segment"
)

// magicNumber and formatVersion identify a roaringstore file and guard
// against loading a foreign or stale one.
const (
	magicNumber   uint32 = 0x53474d31 // "SGM1"
	formatVersion uint32 = 1
)

const (
	kindDirList byte = iota + 1
	kindStat
	kindStoredValue
	kindTermDict
)

// Segment is a flushed segment's postings, statistics and stored values,
// addressable by the keys a store.KeyBuilder constructs. It implements
// both store.Snapshot and store.KeyBuilder, so the same value can be
// handed to executor.Run as both arguments.
type Segment struct {
	totalDocs uint32
	data      map[string][]byte
}

// Flush converts an in-memory segment.Builder into a Segment: every
// roaring-bitmap term directory is packed into the flat posting-list wire
// format, every statistic is encoded as a little-endian int64, and stored
// field values are carried over unchanged.
func Flush(b *segment.Builder) (*Segment, error) {
	s := &Segment{
		totalDocs: b.TotalDocs(),
		data:      make(map[string][]byte),
	}

	for field, byTerm := range b.TermDirectories() {
		for term, bitmap := range byTerm {
			ids := make([]postinglist.DocID, 0, bitmap.GetCardinality())
			it := bitmap.Iterator()
			for it.HasNext() {
				ids = append(ids, postinglist.DocID(it.Next()))
			}
			s.data[string(s.ChunkDirList(uint32(field), uint32(term)))] = postinglist.Pack(ids)
		}
	}

	for name, value := range b.Statistics() {
		s.data[string(statKeyRaw(name))] = encodeInt64(value)
	}

	b.StoredFieldValues(func(field segment.FieldRef, doc uint16, kind string, value []byte) {
		s.data[string(s.StoredFieldValue(doc, uint32(field), kind))] = value
	})

	for term, ref := range b.Terms() {
		s.data[string(termDictKey(term))] = encodeInt64(int64(ref))
	}

	return s, nil
}

// ResolveTerm implements planner.TermResolver against the flushed term
// dictionary, so a query can be planned directly against a Segment loaded
// from disk, without keeping the original segment.Builder around.
func (s *Segment) ResolveTerm(term string) (segment.TermRef, bool) {
	raw, ok := s.data[string(termDictKey(term))]
	if !ok || len(raw) != 8 {
		return 0, false
	}
	return segment.TermRef(binary.LittleEndian.Uint64(raw)), true
}

func termDictKey(term string) []byte {
	key := make([]byte, 0, 1+len(term))
	key = append(key, kindTermDict)
	key = append(key, term...)
	return key
}

// TotalDocs returns the number of documents in the segment, for driving
// executor.Run's candidate universe bound.
func (s *Segment) TotalDocs() uint32 { return s.totalDocs }

// Stat decodes a named statistic directly, for callers (such as a stats
// CLI) that want a value without going through the store.KeyBuilder
// indirection the executor needs.
func (s *Segment) Stat(name string) (int64, bool) {
	raw, ok := s.data[string(statKeyRaw(name))]
	if !ok || len(raw) != 8 {
		return 0, false
	}
	return int64(binary.LittleEndian.Uint64(raw)), true
}

// Get implements store.Snapshot.
func (s *Segment) Get(key []byte) ([]byte, bool, error) {
	v, ok := s.data[string(key)]
	return v, ok, nil
}

// ChunkDirList implements store.KeyBuilder.
func (s *Segment) ChunkDirList(fieldOrd, termOrd uint32) []byte {
	key := make([]byte, 9)
	key[0] = kindDirList
	binary.BigEndian.PutUint32(key[1:5], fieldOrd)
	binary.BigEndian.PutUint32(key[5:9], termOrd)
	return key
}

// TotalDocsStat implements store.KeyBuilder.
func (s *Segment) TotalDocsStat() []byte {
	return statKeyRaw(segment.StatTotalDocs)
}

// TermDocFrequencyStat implements store.KeyBuilder.
func (s *Segment) TermDocFrequencyStat(fieldOrd, termOrd uint32) []byte {
	return statKeyRaw(segment.StatTermDocFrequency(segment.FieldRef(fieldOrd), segment.TermRef(termOrd)))
}

// TotalFieldDocsStat implements store.KeyBuilder.
func (s *Segment) TotalFieldDocsStat(fieldOrd uint32) []byte {
	return statKeyRaw(segment.StatTotalFieldDocs(segment.FieldRef(fieldOrd)))
}

// TotalFieldTokensStat implements store.KeyBuilder.
func (s *Segment) TotalFieldTokensStat(fieldOrd uint32) []byte {
	return statKeyRaw(segment.StatTotalFieldTokens(segment.FieldRef(fieldOrd)))
}

// StoredFieldValue implements store.KeyBuilder.
func (s *Segment) StoredFieldValue(doc uint16, fieldOrd uint32, kind string) []byte {
	key := make([]byte, 0, 7+len(kind))
	key = append(key, kindStoredValue)
	var fieldBuf [4]byte
	binary.BigEndian.PutUint32(fieldBuf[:], fieldOrd)
	key = append(key, fieldBuf[:]...)
	var docBuf [2]byte
	binary.BigEndian.PutUint16(docBuf[:], doc)
	key = append(key, docBuf[:]...)
	key = append(key, kind...)
	return key
}

func statKeyRaw(name string) []byte {
	key := make([]byte, 0, 1+len(name))
	key = append(key, kindStat)
	key = append(key, name...)
	return key
}

func encodeInt64(v int64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return buf[:]
}

// Serialize writes s to a single binary blob: a magic-number-and-version
// header followed by a length-prefixed sequence of (key, value) pairs.
func (s *Segment) Serialize() ([]byte, error) {
	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.LittleEndian, magicNumber); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, formatVersion); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, s.totalDocs); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(s.data))); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := s.data[k]
		if err := writeLengthPrefixed(&buf, []byte(k)); err != nil {
			return nil, err
		}
		if err := writeLengthPrefixed(&buf, v); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// Deserialize reads back a Segment written by Serialize.
func Deserialize(raw []byte) (*Segment, error) {
	r := bytes.NewReader(raw)

	var magic, version, totalDocs, count uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("roaringstore: read magic number: %w", err)
	}
	if magic != magicNumber {
		return nil, fmt.Errorf("roaringstore: bad magic number %#x", magic)
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("roaringstore: read version: %w", err)
	}
	if version != formatVersion {
		return nil, fmt.Errorf("roaringstore: unsupported version %d", version)
	}
	if err := binary.Read(r, binary.LittleEndian, &totalDocs); err != nil {
		return nil, fmt.Errorf("roaringstore: read total docs: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("roaringstore: read entry count: %w", err)
	}

	s := &Segment{totalDocs: totalDocs, data: make(map[string][]byte, count)}
	for i := uint32(0); i < count; i++ {
		k, err := readLengthPrefixed(r)
		if err != nil {
			return nil, fmt.Errorf("roaringstore: read key %d: %w", i, err)
		}
		v, err := readLengthPrefixed(r)
		if err != nil {
			return nil, fmt.Errorf("roaringstore: read value %d: %w", i, err)
		}
		s.data[string(k)] = v
	}
	return s, nil
}

func writeLengthPrefixed(buf *bytes.Buffer, b []byte) error {
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := buf.Write(b)
	return err
}

func readLengthPrefixed(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}
