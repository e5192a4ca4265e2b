package axml

import "io"

// chunk is anything that can appear in the document's assembly and
// re-serialize itself: the string pool, the resource map, every XML
// node type, verbatim unrecognized chunks, and inserted placeholders.
// Chunks are held by the same pointer the event iterator exposed to
// the caller, so in-place edits to, say, a *StartElement's Attributes
// are visible on the next ToBytes call without any extra plumbing.
type chunk interface {
	Size() int
	WriteTo(w io.Writer) (int64, error)
}
