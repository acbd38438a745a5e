// Package tabixkv adapts an indexed, sorted-by-position key-value store
// (backed by modernc.org/kv) into a source.PositionedIterator that can act
// on skip hints with a real seek, rather than ignoring them the way the
// flat-file adapters in adapter/bed and adapter/bam do. The on-disk key
// encoding and its companion compare function follow the
// marshal/unmarshal-plus-custom-compare-function pattern kortschak-ins uses
// for its BLAST record store.
package tabixkv

import (
	"encoding/binary"
	"io"

	"modernc.org/kv"

	"github.com/quinlan-lab/bedder-rs/biopb"
	"github.com/quinlan-lab/bedder-rs/source"
)

// keySize is len(chromID) + len(start) + len(stop) + len(seq): a fixed
// 28-byte big-endian key. Big-endian encoding of fixed-width unsigned
// integers sorts lexically in numeric order, so byte comparison alone
// reproduces biopb.Position's (ChromID, Start, Stop) ordering; seq
// disambiguates records that share an identical position.
const keySize = 4 + 8 + 8 + 8

// MarshalKey encodes (pos, seq) as a 28-byte sort key. seq should be a
// per-record insertion counter so colliding positions still get distinct
// keys.
func MarshalKey(pos biopb.Position, seq uint64) []byte {
	buf := make([]byte, keySize)
	binary.BigEndian.PutUint32(buf[0:4], pos.ChromID)
	binary.BigEndian.PutUint64(buf[4:12], pos.Start)
	binary.BigEndian.PutUint64(buf[12:20], pos.Stop)
	binary.BigEndian.PutUint64(buf[20:28], seq)
	return buf
}

// UnmarshalKey decodes a key produced by MarshalKey back into a Position
// (the seq component is dropped; it exists only to keep keys unique).
func UnmarshalKey(key []byte) biopb.Position {
	return biopb.Position{
		ChromID: binary.BigEndian.Uint32(key[0:4]),
		Start:   binary.BigEndian.Uint64(key[4:12]),
		Stop:    binary.BigEndian.Uint64(key[12:20]),
	}
}

// Compare is a kv.Options.Compare function ordering keys the same way
// MarshalKey encodes them; since the encoding is already lexically
// sortable, this is exactly bytes.Compare, spelled out for clarity at the
// call site that wires it into kv.Options.
func Compare(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Build writes positions (already in sorted order, with payloads) into a
// fresh in-memory kv.DB keyed by MarshalKey, and returns a Source over it.
// This is the construction path used by tests and by small reference
// tracks; a large on-disk index would instead be built once (offline) and
// opened directly via kv.Open.
func Build(name string, positions []biopb.Position, payloads []any) (*Source, error) {
	db, err := kv.CreateMem(&kv.Options{Compare: Compare})
	if err != nil {
		return nil, source.IOError(name, err)
	}
	for i, pos := range positions {
		if err := db.Set(MarshalKey(pos, uint64(i)), encodePayload(i)); err != nil {
			return nil, source.IOError(name, err)
		}
	}
	return &Source{name: name, db: db, payloads: payloads}, nil
}

// Open opens an existing on-disk kv store at path as a Source. The store
// must have been built with Compare as its Options.Compare function (e.g.
// via Build, persisted with kv.DB.Flush/Close rather than CreateMem).
func Open(name, path string) (*Source, error) {
	db, err := kv.Open(path, &kv.Options{Compare: Compare})
	if err != nil {
		return nil, source.IOError(name, err)
	}
	return &Source{name: name, db: db}, nil
}

// Source streams positions out of a kv.DB in key order, seeking ahead when
// NextPosition is given a hint.
type Source struct {
	name     string
	db       *kv.DB
	payloads []any // only set when constructed via Build, for round-tripping test payloads
	enum     *kv.Enumerator
	last     []byte // key of the last record returned, nil before the first
}

func (s *Source) Name() string { return s.name }

// Close releases the underlying store.
func (s *Source) Close() error {
	return s.db.Close()
}

// NextPosition returns the next record in key order. If hint is non-nil and
// its seek key lies past the last record returned, it seeks directly to the
// first key whose Start is at or after hint.Start before reading; a hint at
// or behind the last record returned is ignored, so no record is returned
// twice. This is the one adapter where a skip hint does real
// work instead of being advisory-only. This seek is a Start-only
// approximation: since the store is ordered by (ChromID, Start, Stop), it
// is only safe to skip ahead on Start when no unread record could still
// straddle hint (i.e. start before hint.Start but end after it). Callers
// backing this adapter with interval sets that can contain such wide,
// overlapping spans across a hint boundary should not rely on the hint at
// all; every other source in this module (SliceSource, adapter/bed,
// adapter/bam) ignores the hint entirely.
func (s *Source) NextPosition(hint *biopb.Position) (*source.Interval, error) {
	if hint != nil || s.enum == nil {
		var seekKey []byte
		if hint != nil {
			seekKey = MarshalKey(biopb.Position{ChromID: hint.ChromID, Start: hint.Start}, 0)
		}
		if s.enum == nil || Compare(seekKey, s.last) > 0 {
			enum, _, err := s.db.Seek(seekKey)
			if err != nil {
				return nil, source.IOError(s.name, err)
			}
			s.enum = enum
		}
	}
	k, v, err := s.enum.Next()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, source.IOError(s.name, err)
	}
	s.last = append(s.last[:0], k...)
	return &source.Interval{Position: UnmarshalKey(k), Payload: s.resolvePayload(v)}, nil
}

// resolvePayload looks up the original payload behind a stored index, for
// the in-memory Build path where payloads are arbitrary Go values kv.DB
// cannot store directly. A store opened via Open instead carries its own
// payload bytes as the value and has no payloads slice to resolve against.
func (s *Source) resolvePayload(v []byte) any {
	if s.payloads == nil || len(v) != 8 {
		return nil
	}
	idx := int(binary.BigEndian.Uint64(v))
	if idx < 0 || idx >= len(s.payloads) {
		return nil
	}
	return s.payloads[idx]
}

// encodePayload stores idx as an 8-byte big-endian index into the Source's
// payloads slice (see resolvePayload). It always returns 8 bytes, even when
// the Source has no payloads slice; resolvePayload then yields nil.
func encodePayload(idx int) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(idx))
	return buf
}
