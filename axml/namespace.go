package axml

import (
	"bytes"
	"io"
)

// Namespace is a RES_XML_START_NAMESPACE_TYPE or
// RES_XML_END_NAMESPACE_TYPE chunk: a prefix/uri pair scoping the
// elements that follow until the matching end.
type Namespace struct {
	nodeHeader
	Prefix ResRef
	URI    ResRef
	isEnd  bool

	pool *StringPool
}

func parseNamespace(r *io.LimitedReader, pool *StringPool, isEnd bool) (*Namespace, error) {
	n := &Namespace{pool: pool, isEnd: isEnd}
	var err error
	if n.nodeHeader, err = parseNodeHeader(r, pool); err != nil {
		return nil, err
	}
	if n.Prefix, err = parseResRef(r, pool); err != nil {
		return nil, err
	}
	if n.URI, err = parseResRef(r, pool); err != nil {
		return nil, err
	}
	return n, nil
}

// PrefixString and URIString resolve the namespace's textual form.
func (n *Namespace) PrefixString() (string, error) { return n.Prefix.Resolve(n.pool) }
func (n *Namespace) URIString() (string, error)    { return n.URI.Resolve(n.pool) }

// IsEnd reports whether this is the end-namespace variant.
func (n *Namespace) IsEnd() bool { return n.isEnd }

func (n *Namespace) Size() int {
	buf, _ := n.bytes()
	return len(buf)
}

func (n *Namespace) WriteTo(w io.Writer) (int64, error) {
	buf, err := n.bytes()
	if err != nil {
		return 0, err
	}
	c, err := w.Write(buf)
	return int64(c), err
}

func (n *Namespace) bytes() ([]byte, error) {
	var header bytes.Buffer
	if err := n.nodeHeader.writeTo(&header); err != nil {
		return nil, err
	}
	var body bytes.Buffer
	if err := writeResRef(&body, n.Prefix); err != nil {
		return nil, err
	}
	if err := writeResRef(&body, n.URI); err != nil {
		return nil, err
	}
	typ := uint16(ChunkXMLNsStart)
	if n.isEnd {
		typ = ChunkXMLNsEnd
	}
	chunkSize := chunkHeaderSize + int64(header.Len()) + int64(body.Len())
	var out bytes.Buffer
	if err := writeChunkHeader(&out, typ, uint16(chunkHeaderSize+header.Len()), uint32(chunkSize)); err != nil {
		return nil, err
	}
	out.Write(header.Bytes())
	out.Write(body.Bytes())
	return out.Bytes(), nil
}
