package axml

import (
	"bytes"
	"io"
)

// InsertPlaceholder is a splice point created by Document.Insert. It
// sits in the assembly immediately after the start-element event that
// was current when Insert was called, and accumulates whatever new
// element subtree the caller writes into it via WriteStartElement and
// WriteEndElement. It serializes as the concatenation of those
// synthesized chunks, so once populated it behaves exactly like
// parsed input would.
type InsertPlaceholder struct {
	pool  *StringPool
	parts []chunk
}

func newInsertPlaceholder(pool *StringPool) *InsertPlaceholder {
	return &InsertPlaceholder{pool: pool}
}

// WriteStartElement synthesizes a new start-element chunk with the
// given tag name and attributes, appending it to the placeholder.
// Attribute values must be string, bool, or int; every new attribute
// is namespaced under AndroidNamespace, matching how real manifests
// declare their own attributes.
func (p *InsertPlaceholder) WriteStartElement(name string, attrs map[string]any, lineNumber uint32) error {
	e := &StartElement{
		nodeHeader: nodeHeader{LineNumber: lineNumber, Comment: NoRef},
		Namespace:  NoRef,
		Name:       p.pool.Ref(name),
		pool:       p.pool,
	}
	for k, v := range attrs {
		attr, err := NewAttribute(p.pool, AndroidNamespace, k, v)
		if err != nil {
			return err
		}
		e.Attributes = append(e.Attributes, attr)
	}
	p.parts = append(p.parts, e)
	return nil
}

// WriteEndElement closes out the most recently opened element in this
// placeholder.
func (p *InsertPlaceholder) WriteEndElement(name string, lineNumber uint32) error {
	e := &EndElement{
		nodeHeader: nodeHeader{LineNumber: lineNumber, Comment: NoRef},
		Namespace:  NoRef,
		Name:       p.pool.Ref(name),
		pool:       p.pool,
	}
	p.parts = append(p.parts, e)
	return nil
}

func (p *InsertPlaceholder) Size() int {
	n := 0
	for _, part := range p.parts {
		n += part.Size()
	}
	return n
}

func (p *InsertPlaceholder) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	for _, part := range p.parts {
		if _, err := part.WriteTo(&buf); err != nil {
			return 0, err
		}
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}
