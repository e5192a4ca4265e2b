package axml

import (
	"bytes"
	"io"
)

// CharData is the RES_XML_CDATA_TYPE chunk, holding inline text
// content between a start and end element. Its body is
// ResXMLTree_cdataExt: a string-pool ref to the raw text, followed by
// the typed value actually consumed at runtime.
type CharData struct {
	nodeHeader
	Data  ResRef
	Value ResValue

	pool *StringPool
}

func parseCharData(r *io.LimitedReader, pool *StringPool) (*CharData, error) {
	c := &CharData{pool: pool}
	var err error
	if c.nodeHeader, err = parseNodeHeader(r, pool); err != nil {
		return nil, err
	}
	if c.Data, err = parseResRef(r, pool); err != nil {
		return nil, err
	}
	if c.Value, err = parseResValue(r, pool); err != nil {
		return nil, err
	}
	return c, nil
}

// Text resolves the character data's textual value from its
// string-pool ref; the typed value alongside it is preserved but not
// otherwise interpreted.
func (c *CharData) Text() string {
	s, err := c.Data.Resolve(c.pool)
	if err != nil {
		return ""
	}
	return s
}

func (c *CharData) Size() int {
	buf, _ := c.bytes()
	return len(buf)
}

func (c *CharData) WriteTo(w io.Writer) (int64, error) {
	buf, err := c.bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}

func (c *CharData) bytes() ([]byte, error) {
	var header bytes.Buffer
	if err := c.nodeHeader.writeTo(&header); err != nil {
		return nil, err
	}
	var body bytes.Buffer
	if err := writeResRef(&body, c.Data); err != nil {
		return nil, err
	}
	if err := c.Value.writeTo(&body); err != nil {
		return nil, err
	}
	chunkSize := chunkHeaderSize + int64(header.Len()) + int64(body.Len())
	var out bytes.Buffer
	if err := writeChunkHeader(&out, ChunkXMLCData, uint16(chunkHeaderSize+header.Len()), uint32(chunkSize)); err != nil {
		return nil, err
	}
	out.Write(header.Bytes())
	out.Write(body.Bytes())
	return out.Bytes(), nil
}
