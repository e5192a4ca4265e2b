package axml

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// nodeHeader is the ResXMLTree_node prefix shared by every XML chunk
// type: a source line number and an optional comment string ref.
type nodeHeader struct {
	LineNumber uint32
	Comment    ResRef
}

func parseNodeHeader(r io.Reader, pool *StringPool) (nodeHeader, error) {
	var n nodeHeader
	if err := binary.Read(r, binary.LittleEndian, &n.LineNumber); err != nil {
		return n, err
	}
	ref, err := parseResRef(r, pool)
	if err != nil {
		return n, err
	}
	n.Comment = ref
	return n, nil
}

func (n nodeHeader) writeTo(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, n.LineNumber); err != nil {
		return err
	}
	return writeResRef(w, n.Comment)
}

// Attribute is one ResXMLTree_attribute: a namespace, a name (which is
// a resource-map index when the document declares one), a raw string
// value, and the typed value actually consumed at runtime.
type Attribute struct {
	Namespace  ResRef
	Name       ResRef
	RawValue   ResRef
	TypedValue ResValue

	pool *StringPool
}

func parseAttribute(r io.Reader, pool *StringPool) (Attribute, error) {
	var a Attribute
	var err error
	if a.Namespace, err = parseResRef(r, pool); err != nil {
		return a, err
	}
	if a.Name, err = parseResRef(r, pool); err != nil {
		return a, err
	}
	if a.RawValue, err = parseResRef(r, pool); err != nil {
		return a, err
	}
	if a.TypedValue, err = parseResValue(r, pool); err != nil {
		return a, err
	}
	a.pool = pool
	return a, nil
}

func (a Attribute) writeTo(w io.Writer) error {
	if err := writeResRef(w, a.Namespace); err != nil {
		return err
	}
	if err := writeResRef(w, a.Name); err != nil {
		return err
	}
	// A STRING-typed attribute keeps rawValue mirroring the typed
	// value's resolved index.
	if a.TypedValue.DataType == TypeString {
		if err := binary.Write(w, binary.LittleEndian, a.TypedValue.Data()); err != nil {
			return err
		}
	} else if err := writeResRef(w, a.RawValue); err != nil {
		return err
	}
	return a.TypedValue.writeTo(w)
}

// NameString resolves the attribute's local name to text, preferring
// the document's resource map (so android: attributes render with
// their well-known name) and falling back to a plain string-pool
// lookup for attributes that aren't resource-backed.
func (a Attribute) NameString() (string, error) {
	return a.Name.Resolve(a.pool)
}

// ValueString renders the attribute's value the way a textual XML
// view would show it.
func (a Attribute) ValueString() string {
	return a.TypedValue.Value()
}

// NewAttribute builds a new attribute bound to name under ns (pass
// AndroidNamespace for android: attributes), registering both name and
// any string value in pool. value must be a string, bool, or int.
func NewAttribute(pool *StringPool, ns, name string, value any) (Attribute, error) {
	if err := pool.SetAttribute(name, value); err != nil {
		return Attribute{}, err
	}
	typed, err := newAttributeValue(pool, value)
	if err != nil {
		return Attribute{}, err
	}
	nsRef := NoRef
	if ns != "" {
		nsRef = pool.Ref(ns)
	}
	return Attribute{
		Namespace:  nsRef,
		Name:       pool.Ref(name),
		RawValue:   NoRef,
		TypedValue: typed,
		pool:       pool,
	}, nil
}

// StartElement is the RES_XML_START_ELEMENT_TYPE chunk: a tag's
// namespace and name, plus its attribute list.
type StartElement struct {
	nodeHeader
	Namespace      ResRef
	Name           ResRef
	AttributeStart uint16
	AttributeSize  uint16
	AttributeCount uint16
	IDIndex        uint16
	ClassIndex     uint16
	StyleIndex     uint16
	Attributes     []Attribute

	pool *StringPool
}

func parseStartElement(r *io.LimitedReader, pool *StringPool) (*StartElement, error) {
	e := &StartElement{pool: pool}
	var err error
	if e.nodeHeader, err = parseNodeHeader(r, pool); err != nil {
		return nil, err
	}
	if e.Namespace, err = parseResRef(r, pool); err != nil {
		return nil, err
	}
	if e.Name, err = parseResRef(r, pool); err != nil {
		return nil, err
	}
	for _, f := range []*uint16{&e.AttributeStart, &e.AttributeSize, &e.AttributeCount, &e.IDIndex, &e.ClassIndex, &e.StyleIndex} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}
	// AttributeStart is the offset from the attrExt start to the first
	// attribute; attrExtFixedFieldsSize bytes of it (ns, name, and the
	// six u16 fields just read) are already consumed. AttributeSize is
	// the stride between attribute records; a platform that widens it
	// beyond the fields this engine decodes must still be read back
	// correctly rather than assumed fixed.
	if skip := int64(e.AttributeStart) - attrExtFixedFieldsSize; skip > 0 {
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			return nil, fmt.Errorf("axml: skipping to first attribute of <%s>: %w", e.tagDebugName(), err)
		}
	}
	e.Attributes = make([]Attribute, 0, e.AttributeCount)
	for i := uint16(0); i < e.AttributeCount; i++ {
		attr, err := parseAttribute(r, pool)
		if err != nil {
			return nil, fmt.Errorf("axml: reading attribute %d of <%s>: %w", i, e.tagDebugName(), err)
		}
		e.Attributes = append(e.Attributes, attr)
		if skip := int64(e.AttributeSize) - attrEntrySize; skip > 0 {
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, fmt.Errorf("axml: skipping trailing bytes of attribute %d of <%s>: %w", i, e.tagDebugName(), err)
			}
		}
	}
	return e, nil
}

// attrExtFixedFieldsSize is the byte size of ResXMLTree_attrExt up to
// and including attributeStart's own field group (ns:4, name:4, then
// the six u16 fields), matching the 20 this engine writes back in
// bytes().
const attrExtFixedFieldsSize = 20

// attrEntrySize is the byte size of one ResXMLTree_attribute as this
// engine encodes/decodes it: ns, name, rawValue (4 bytes each) plus
// the 8-byte typed value.
const attrEntrySize = 20

func (e *StartElement) tagDebugName() string {
	s, err := e.Name.Resolve(e.pool)
	if err != nil {
		return "?"
	}
	return s
}

// TagName resolves the element's tag name.
func (e *StartElement) TagName() (string, error) {
	return e.Name.Resolve(e.pool)
}

// Attr looks up an attribute by local name, returning ok=false if the
// element has none by that name.
func (e *StartElement) Attr(name string) (*Attribute, bool) {
	for i := range e.Attributes {
		n, err := e.Attributes[i].NameString()
		if err == nil && n == name {
			return &e.Attributes[i], true
		}
	}
	return nil, false
}

func (e *StartElement) Size() int {
	buf, _ := e.bytes()
	return len(buf)
}

func (e *StartElement) WriteTo(w io.Writer) (int64, error) {
	buf, err := e.bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}

func (e *StartElement) bytes() ([]byte, error) {
	e.AttributeCount = uint16(len(e.Attributes))
	e.AttributeStart = attrExtFixedFieldsSize
	e.AttributeSize = attrEntrySize

	var body bytes.Buffer
	if err := writeResRef(&body, e.Namespace); err != nil {
		return nil, err
	}
	if err := writeResRef(&body, e.Name); err != nil {
		return nil, err
	}
	for _, f := range []uint16{e.AttributeStart, e.AttributeSize, e.AttributeCount, e.IDIndex, e.ClassIndex, e.StyleIndex} {
		if err := binary.Write(&body, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}
	for _, a := range e.Attributes {
		if err := a.writeTo(&body); err != nil {
			return nil, err
		}
	}

	var header bytes.Buffer
	if err := e.nodeHeader.writeTo(&header); err != nil {
		return nil, err
	}

	chunkSize := chunkHeaderSize + int64(header.Len()) + int64(body.Len())
	var out bytes.Buffer
	if err := writeChunkHeader(&out, ChunkXMLStartElem, uint16(chunkHeaderSize+header.Len()), uint32(chunkSize)); err != nil {
		return nil, err
	}
	out.Write(header.Bytes())
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

// EndElement is the RES_XML_END_ELEMENT_TYPE chunk.
type EndElement struct {
	nodeHeader
	Namespace ResRef
	Name      ResRef

	pool *StringPool
}

func parseEndElement(r *io.LimitedReader, pool *StringPool) (*EndElement, error) {
	e := &EndElement{pool: pool}
	var err error
	if e.nodeHeader, err = parseNodeHeader(r, pool); err != nil {
		return nil, err
	}
	if e.Namespace, err = parseResRef(r, pool); err != nil {
		return nil, err
	}
	if e.Name, err = parseResRef(r, pool); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *EndElement) TagName() (string, error) {
	return e.Name.Resolve(e.pool)
}

func (e *EndElement) Size() int {
	buf, _ := e.bytes()
	return len(buf)
}

func (e *EndElement) WriteTo(w io.Writer) (int64, error) {
	buf, err := e.bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}

func (e *EndElement) bytes() ([]byte, error) {
	var header bytes.Buffer
	if err := e.nodeHeader.writeTo(&header); err != nil {
		return nil, err
	}
	var body bytes.Buffer
	if err := writeResRef(&body, e.Namespace); err != nil {
		return nil, err
	}
	if err := writeResRef(&body, e.Name); err != nil {
		return nil, err
	}
	chunkSize := chunkHeaderSize + int64(header.Len()) + int64(body.Len())
	var out bytes.Buffer
	if err := writeChunkHeader(&out, ChunkXMLEndElem, uint16(chunkHeaderSize+header.Len()), uint32(chunkSize)); err != nil {
		return nil, err
	}
	out.Write(header.Bytes())
	out.Write(body.Bytes())
	return out.Bytes(), nil
}
