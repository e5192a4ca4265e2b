package axml

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// ResourceMap is the RES_XML_RESOURCE_MAP_TYPE chunk: a flat list of
// 32-bit Android resource ids, positionally paired with the leading
// entries of the string pool. Position i's id names the attribute
// whose name is the i'th string in the pool.
type ResourceMap struct {
	entries []resourceMapEntry
}

type resourceMapEntry struct {
	name string
	id   uint32
}

func newResourceMap() *ResourceMap {
	return &ResourceMap{}
}

func parseResourceMap(r *io.LimitedReader, pool *StringPool) (*ResourceMap, error) {
	count := r.N / 4
	rm := &ResourceMap{entries: make([]resourceMapEntry, 0, count)}
	for i := int64(0); i < count; i++ {
		var id uint32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return nil, fmt.Errorf("axml: reading resource map entry %d: %w", i, err)
		}
		name, err := pool.originalAt(uint32(i))
		if err != nil {
			return nil, fmt.Errorf("axml: resolving resource map entry %d: %w", i, err)
		}
		rm.entries = append(rm.entries, resourceMapEntry{name: name, id: id})
	}
	return rm, nil
}

func (rm *ResourceMap) names() []string {
	out := make([]string, len(rm.entries))
	for i, e := range rm.entries {
		out[i] = e.name
	}
	return out
}

// Has reports whether name is already registered in the map.
func (rm *ResourceMap) Has(name string) bool {
	for _, e := range rm.entries {
		if e.name == name {
			return true
		}
	}
	return false
}

// IDFor returns the resource id registered for name, if any.
func (rm *ResourceMap) IDFor(name string) (uint32, bool) {
	for _, e := range rm.entries {
		if e.name == name {
			return e.id, true
		}
	}
	return 0, false
}

// Append registers name using the bundled android-attrs.json table; it
// fails with ErrUnknownAttribute when name has no known resource id,
// matching the original engine's refusal to invent one.
func (rm *ResourceMap) Append(name string) error {
	if rm.Has(name) {
		return nil
	}
	id, ok := androidAttrs[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	rm.entries = append(rm.entries, resourceMapEntry{name: name, id: id})
	return nil
}

func (rm *ResourceMap) Size() int {
	buf, _ := rm.bytes()
	return len(buf)
}

func (rm *ResourceMap) WriteTo(w io.Writer) (int64, error) {
	buf, err := rm.bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}

func (rm *ResourceMap) bytes() ([]byte, error) {
	var out bytes.Buffer
	chunkSize := chunkHeaderSize + 4*int64(len(rm.entries))
	if err := writeChunkHeader(&out, ChunkXMLResourceMap, uint16(chunkHeaderSize), uint32(chunkSize)); err != nil {
		return nil, err
	}
	for _, e := range rm.entries {
		if err := binary.Write(&out, binary.LittleEndian, e.id); err != nil {
			return nil, err
		}
	}
	return out.Bytes(), nil
}
