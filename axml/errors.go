package axml

import "errors"

// ErrPlainTextManifest is returned when the input is a plaintext XML
// file where a binary chunk stream was expected. Some malformed or
// obfuscated APKs ship a manifest like this.
var ErrPlainTextManifest = errors.New("axml: xml is in plaintext, binary form expected")

// ErrMalformedChunk covers a chunk header whose sizes run past the
// buffer or violate headerSize <= chunkSize.
var ErrMalformedChunk = errors.New("axml: malformed chunk header")

// ErrStringNotFound indicates a string-pool index that doesn't
// resolve to any entry — a corrupted document.
var ErrStringNotFound = errors.New("axml: string index not found")

// ErrUnsupportedValue is returned when constructing an attribute from
// a value whose dynamic kind isn't string, bool, or integer.
var ErrUnsupportedValue = errors.New("axml: unsupported attribute value type")

// ErrUnknownAttribute is returned when ResourceMap.Append is asked to
// register an attribute name absent from the bundled name->id table.
var ErrUnknownAttribute = errors.New("axml: unknown attribute name, no resource id")

// ErrInsertMisuse is returned when Insert is called other than
// immediately after a StartElement event.
var ErrInsertMisuse = errors.New("axml: insert() called outside a start-element event")
