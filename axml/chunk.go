package axml

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ChunkHeader is the universal 8-byte envelope every chunk in the
// stream starts with: a type code, the offset at which the
// type-specific body begins, and the total chunk length including
// this header.
type ChunkHeader struct {
	Type       uint16
	HeaderSize uint16
	ChunkSize  uint32
}

func parseChunkHeader(r io.Reader) (ChunkHeader, error) {
	var h ChunkHeader
	if err := binary.Read(r, binary.LittleEndian, &h.Type); err != nil {
		return h, fmt.Errorf("axml: reading chunk type: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.HeaderSize); err != nil {
		return h, fmt.Errorf("axml: reading chunk header size: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &h.ChunkSize); err != nil {
		return h, fmt.Errorf("axml: reading chunk size: %w", err)
	}
	if uint32(h.HeaderSize) > h.ChunkSize {
		return h, fmt.Errorf("%w: headerSize %d > chunkSize %d", ErrMalformedChunk, h.HeaderSize, h.ChunkSize)
	}
	return h, nil
}

// bodyReader bounds r to the remaining bytes of this chunk's body,
// given that consumedHeaderExtra bytes of header fields beyond the
// 8-byte envelope have already been consumed from r.
func (h ChunkHeader) bodyReader(r io.Reader, consumedHeaderExtra int64) *io.LimitedReader {
	n := int64(h.ChunkSize) - chunkHeaderSize - consumedHeaderExtra
	if n < 0 {
		n = 0
	}
	return &io.LimitedReader{R: r, N: n}
}

func writeChunkHeader(w io.Writer, typ uint16, headerSize uint16, chunkSize uint32) error {
	if err := binary.Write(w, binary.LittleEndian, typ); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, headerSize); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, chunkSize)
}

// rawChunk is an unrecognized chunk, preserved byte-for-byte.
type rawChunk struct {
	data []byte
}

func (c *rawChunk) Size() int { return len(c.data) }

func (c *rawChunk) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.data)
	return int64(n), err
}
