package axml

import (
	"encoding/binary"
	"io"
)

const noRefIndex uint32 = 0xFFFFFFFF

// NoRef is the sentinel resource reference meaning "none". It
// serializes as 0xFFFFFFFF unchanged.
var NoRef = ResRef{raw: noRefIndex}

// ResRef is a reference to a string-pool entry: a 32-bit index plus,
// when the pool knew the string at parse time, the string itself.
// Serialization resolves the string back to its index in the pool's
// current layout, so appending strings or growing the resource map
// never leaves an element pointing at the wrong entry.
type ResRef struct {
	raw   uint32
	s     string
	bound bool
	pool  *StringPool
}

func parseResRef(r io.Reader, pool *StringPool) (ResRef, error) {
	var v uint32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return ResRef{}, err
	}
	ref := ResRef{raw: v, pool: pool}
	if v != noRefIndex && pool != nil {
		if s, err := pool.originalAt(v); err == nil {
			ref.s = s
			ref.bound = true
		}
	}
	return ref, nil
}

// index returns the reference's current pool index: the bound string's
// position in the pool's present layout when one is attached, the raw
// parsed index otherwise.
func (ref ResRef) index() uint32 {
	if ref.bound && ref.pool != nil {
		if idx, err := ref.pool.StringRef(ref.s); err == nil {
			return idx
		}
	}
	return ref.raw
}

func writeResRef(w io.Writer, ref ResRef) error {
	return binary.Write(w, binary.LittleEndian, ref.index())
}

// IsNone reports whether the reference is the "none" sentinel.
func (ref ResRef) IsNone() bool {
	return !ref.bound && ref.raw == noRefIndex
}

// Resolve recovers the textual form of the reference. NoRef resolves
// to the empty string.
func (ref ResRef) Resolve(pool *StringPool) (string, error) {
	if ref.IsNone() {
		return "", nil
	}
	if ref.bound {
		return ref.s, nil
	}
	return pool.StringAt(ref.raw)
}
