package axml

import (
	"bytes"
	"fmt"
	"io"
)

// Document is a parsed binary XML chunk stream: the string pool, the
// optional resource map, and the sequence of namespace/element/cdata
// nodes, held as a flat assembly of chunk values in file order.
//
// Next walks that assembly one event at a time. Because each event is
// the very same object stored in the assembly, mutating a returned
// *StartElement's Attributes (or a ResValue's Data) is visible the
// next time ToBytes is called — there is no separate "commit" step.
type Document struct {
	pool     *StringPool
	assembly []chunk

	pos            int
	afterStartElem bool
	namespaces     map[string]string
}

// NewDocument parses a full binary XML chunk stream. It returns
// ErrPlainTextManifest if data looks like a plaintext XML document
// rather than the binary form, and ErrMalformedChunk for any header
// whose declared sizes don't fit the data.
func NewDocument(data []byte) (*Document, error) {
	r := bytes.NewReader(data)
	outer, err := parseChunkHeader(r)
	if err != nil {
		return nil, err
	}
	if outer.Type != ChunkXML {
		if looksLikePlainText(data) {
			return nil, ErrPlainTextManifest
		}
		return nil, fmt.Errorf("%w: top-level type 0x%04x, want RES_XML_TYPE", ErrMalformedChunk, outer.Type)
	}
	if int64(outer.ChunkSize) > int64(len(data)) {
		return nil, fmt.Errorf("%w: chunkSize %d exceeds %d bytes of input", ErrMalformedChunk, outer.ChunkSize, len(data))
	}

	body := outer.bodyReader(r, 0)
	doc := &Document{}

	for body.N > 0 {
		childHdr, err := parseChunkHeader(body)
		if err != nil {
			return nil, err
		}
		if int64(childHdr.ChunkSize)-chunkHeaderSize > body.N {
			return nil, fmt.Errorf("%w: chunk 0x%04x of size %d runs past its parent", ErrMalformedChunk, childHdr.Type, childHdr.ChunkSize)
		}
		childBody := childHdr.bodyReader(body, 0)

		var c chunk
		switch childHdr.Type {
		case ChunkStringPool:
			pool, err := parseStringPool(childBody)
			if err != nil {
				return nil, err
			}
			doc.pool = pool
			c = pool
		case ChunkXMLResourceMap:
			if doc.pool == nil {
				return nil, fmt.Errorf("%w: resource map before string pool", ErrMalformedChunk)
			}
			rm, err := parseResourceMap(childBody, doc.pool)
			if err != nil {
				return nil, err
			}
			doc.pool.attachResourceMap(rm)
			c = rm
		case ChunkXMLNsStart:
			c, err = parseNamespace(childBody, doc.pool, false)
		case ChunkXMLNsEnd:
			c, err = parseNamespace(childBody, doc.pool, true)
		case ChunkXMLStartElem:
			c, err = parseStartElement(childBody, doc.pool)
		case ChunkXMLEndElem:
			c, err = parseEndElement(childBody, doc.pool)
		case ChunkXMLCData:
			c, err = parseCharData(childBody, doc.pool)
		default:
			c, err = parseRawChunk(childHdr, childBody)
		}
		if err != nil {
			return nil, err
		}

		// Tolerate trailing bytes within a chunk body (e.g. an
		// attributeSize larger than this engine's struct layout):
		// skip rather than fail, per the documented drift allowance.
		if _, discardErr := io.Copy(io.Discard, childBody); discardErr != nil {
			return nil, discardErr
		}

		doc.assembly = append(doc.assembly, c)
	}

	return doc, nil
}

func looksLikePlainText(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '<':
			return true
		default:
			return false
		}
	}
	return false
}

func parseRawChunk(hdr ChunkHeader, body *io.LimitedReader) (*rawChunk, error) {
	rest := make([]byte, body.N)
	if _, err := io.ReadFull(body, rest); err != nil {
		return nil, fmt.Errorf("axml: reading unknown chunk 0x%04x: %w", hdr.Type, err)
	}
	var buf bytes.Buffer
	if err := writeChunkHeader(&buf, hdr.Type, hdr.HeaderSize, hdr.ChunkSize); err != nil {
		return nil, err
	}
	buf.Write(rest)
	return &rawChunk{data: buf.Bytes()}, nil
}

// HasNext reports whether another event remains.
func (d *Document) HasNext() bool {
	return d.pos < len(d.assembly)
}

// Next returns the next chunk in the assembly and advances past it.
// Callers type-switch on the returned value (*StringPool,
// *ResourceMap, *Namespace, *StartElement, *EndElement, *CharData, or
// a verbatim unrecognized chunk) to act on it.
func (d *Document) Next() (any, error) {
	if !d.HasNext() {
		return nil, io.EOF
	}
	c := d.assembly[d.pos]
	d.pos++
	_, d.afterStartElem = c.(*StartElement)
	if ns, ok := c.(*Namespace); ok && !ns.isEnd {
		uri, err := ns.URIString()
		if err == nil {
			prefix, err := ns.PrefixString()
			if err == nil {
				if d.namespaces == nil {
					d.namespaces = make(map[string]string)
				}
				d.namespaces[uri] = prefix
			}
		}
	}
	return c, nil
}

// Namespaces returns the uri->prefix map accumulated from every
// start-namespace event seen so far.
func (d *Document) Namespaces() map[string]string {
	return d.namespaces
}

// Insert creates a splice point immediately after the start-element
// event most recently returned by Next, for injecting a new element
// subtree as that element's first child. It fails with
// ErrInsertMisuse if the last event wasn't a start element.
func (d *Document) Insert() (*InsertPlaceholder, error) {
	if !d.afterStartElem {
		return nil, ErrInsertMisuse
	}
	ph := newInsertPlaceholder(d.pool)
	d.assembly = append(d.assembly[:d.pos:d.pos], append([]chunk{ph}, d.assembly[d.pos:]...)...)
	d.pos++
	return ph, nil
}

// Pool returns the document's string pool.
func (d *Document) Pool() *StringPool { return d.pool }

// ToBytes re-serializes the full document, recomputing every chunk's
// size fields from its current content.
func (d *Document) ToBytes() ([]byte, error) {
	var body bytes.Buffer
	for i, c := range d.assembly {
		if _, err := c.WriteTo(&body); err != nil {
			return nil, fmt.Errorf("axml: serializing chunk %d: %w", i, err)
		}
	}
	var out bytes.Buffer
	chunkSize := chunkHeaderSize + int64(body.Len())
	if err := writeChunkHeader(&out, ChunkXML, uint16(chunkHeaderSize), uint32(chunkSize)); err != nil {
		return nil, err
	}
	out.Write(body.Bytes())
	return out.Bytes(), nil
}
