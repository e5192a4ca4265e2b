package axml

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildManifest assembles a minimal but structurally real <manifest>
// document: a namespace declaration, one start element carrying an
// android:versionCode attribute, and the matching end element.
func buildManifest(t *testing.T) *Document {
	t.Helper()

	pool := &StringPool{}
	rm := newResourceMap()
	require.NoError(t, rm.Append("versionCode"))
	pool.attachResourceMap(rm)

	versionCodeName := pool.Ref("versionCode")
	manifestName := pool.Ref("manifest")
	nsURI := pool.Ref(AndroidNamespace)
	nsPrefix := pool.Ref("android")

	ns := &Namespace{
		nodeHeader: nodeHeader{LineNumber: 1, Comment: NoRef},
		Prefix:     nsPrefix,
		URI:        nsURI,
		pool:       pool,
	}
	start := &StartElement{
		nodeHeader: nodeHeader{LineNumber: 1, Comment: NoRef},
		Namespace:  NoRef,
		Name:       manifestName,
		pool:       pool,
		Attributes: []Attribute{
			{
				Namespace:  nsURI,
				Name:       versionCodeName,
				RawValue:   NoRef,
				TypedValue: newIntValue(7),
				pool:       pool,
			},
		},
	}
	end := &EndElement{
		nodeHeader: nodeHeader{LineNumber: 1, Comment: NoRef},
		Namespace:  NoRef,
		Name:       manifestName,
		pool:       pool,
	}
	nsEnd := &Namespace{
		nodeHeader: nodeHeader{LineNumber: 1, Comment: NoRef},
		Prefix:     nsPrefix,
		URI:        nsURI,
		isEnd:      true,
		pool:       pool,
	}

	return &Document{
		pool:     pool,
		assembly: []chunk{pool, rm, ns, start, end, nsEnd},
	}
}

// buildManifestWithText is buildManifest with an inline text node
// between the start and end element, exercising CharData.
func buildManifestWithText(t *testing.T) *Document {
	t.Helper()

	doc := buildManifest(t)
	pool := doc.pool

	cdata := &CharData{
		nodeHeader: nodeHeader{LineNumber: 1, Comment: NoRef},
		Data:       pool.Ref("hello"),
		Value:      newStringValue(pool, "hello"),
		pool:       pool,
	}

	// Splice cdata between the start element and its end element.
	assembly := make([]chunk, 0, len(doc.assembly)+1)
	for _, c := range doc.assembly {
		assembly = append(assembly, c)
		if _, ok := c.(*StartElement); ok {
			assembly = append(assembly, cdata)
		}
	}
	doc.assembly = assembly
	return doc
}

func TestCharDataRoundTrip(t *testing.T) {
	doc := buildManifestWithText(t)

	encoded, err := doc.ToBytes()
	require.NoError(t, err)

	reparsed, err := NewDocument(encoded)
	require.NoError(t, err)

	var found *CharData
	for reparsed.HasNext() {
		ev, err := reparsed.Next()
		require.NoError(t, err)
		if cd, ok := ev.(*CharData); ok {
			found = cd
		}
	}
	require.NotNil(t, found)
	require.Equal(t, "hello", found.Text())

	reencoded, err := reparsed.ToBytes()
	require.NoError(t, err)
	require.Equal(t, encoded, reencoded, "re-serializing an unmodified parse must reproduce the same bytes")
}

func TestCharDataChunkSize(t *testing.T) {
	pool := &StringPool{}

	cdata := &CharData{
		nodeHeader: nodeHeader{LineNumber: 1, Comment: NoRef},
		Data:       pool.Ref("hello"),
		Value:      newStringValue(pool, "hello"),
		pool:       pool,
	}

	// 8-byte chunk header + 8-byte node header + 4-byte data ref +
	// 8-byte typed value.
	require.Equal(t, 28, cdata.Size())
}

func TestDocumentRoundTrip(t *testing.T) {
	doc := buildManifest(t)

	encoded, err := doc.ToBytes()
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	reparsed, err := NewDocument(encoded)
	require.NoError(t, err)

	reencoded, err := reparsed.ToBytes()
	require.NoError(t, err)
	require.Equal(t, encoded, reencoded, "re-serializing an unmodified parse must reproduce the same bytes")
}

func TestVersionCodeBump(t *testing.T) {
	doc := buildManifest(t)

	found := false
	for doc.HasNext() {
		ev, err := doc.Next()
		require.NoError(t, err)
		start, ok := ev.(*StartElement)
		if !ok {
			continue
		}
		name, err := start.TagName()
		require.NoError(t, err)
		if name != "manifest" {
			continue
		}
		attr, ok := start.Attr("versionCode")
		require.True(t, ok)
		attr.TypedValue.SetData(attr.TypedValue.Data() + 1)
		found = true
	}
	require.True(t, found)

	encoded, err := doc.ToBytes()
	require.NoError(t, err)

	reparsed, err := NewDocument(encoded)
	require.NoError(t, err)

	for reparsed.HasNext() {
		ev, err := reparsed.Next()
		require.NoError(t, err)
		start, ok := ev.(*StartElement)
		if !ok {
			continue
		}
		attr, ok := start.Attr("versionCode")
		if !ok {
			continue
		}
		require.Equal(t, "8", attr.ValueString())
	}
}

func TestDocumentNamespaces(t *testing.T) {
	doc := buildManifest(t)

	for doc.HasNext() {
		_, err := doc.Next()
		require.NoError(t, err)
	}

	ns := doc.Namespaces()
	require.Equal(t, map[string]string{AndroidNamespace: "android"}, ns)
}

func TestUnknownChunkPreserved(t *testing.T) {
	doc := buildManifest(t)
	raw := &rawChunk{data: []byte{0x99, 0x01, 0x08, 0x00, 0x08, 0x00, 0x00, 0x00}}
	doc.assembly = append(doc.assembly, raw)

	encoded, err := doc.ToBytes()
	require.NoError(t, err)

	reparsed, err := NewDocument(encoded)
	require.NoError(t, err)
	require.Len(t, reparsed.assembly, len(doc.assembly))

	last := reparsed.assembly[len(reparsed.assembly)-1]
	rc, ok := last.(*rawChunk)
	require.True(t, ok)
	require.Equal(t, raw.data, rc.data)
}

func TestInsertRequiresStartElement(t *testing.T) {
	doc := buildManifest(t)

	_, err := doc.Insert()
	require.ErrorIs(t, err, ErrInsertMisuse)

	_, err = doc.Next() // string pool
	require.NoError(t, err)
	_, err = doc.Insert()
	require.ErrorIs(t, err, ErrInsertMisuse)
}

func TestInsertElement(t *testing.T) {
	doc := buildManifest(t)

	var ph *InsertPlaceholder
	for doc.HasNext() {
		ev, err := doc.Next()
		require.NoError(t, err)
		if _, ok := ev.(*StartElement); ok {
			ph, err = doc.Insert()
			require.NoError(t, err)
			break
		}
	}
	require.NotNil(t, ph)
	require.NoError(t, ph.WriteStartElement("meta-data", map[string]any{"name": "injected", "value": 1}, 1))
	require.NoError(t, ph.WriteEndElement("meta-data", 1))

	encoded, err := doc.ToBytes()
	require.NoError(t, err)

	reparsed, err := NewDocument(encoded)
	require.NoError(t, err)

	// Registering "name" and "value" grew the resource map by two,
	// shifting every free string up by two; references bound before the
	// insert must still resolve to their original strings.
	var sawMetaData, sawManifest bool
	for reparsed.HasNext() {
		ev, err := reparsed.Next()
		require.NoError(t, err)
		start, ok := ev.(*StartElement)
		if !ok {
			continue
		}
		name, err := start.TagName()
		require.NoError(t, err)
		switch name {
		case "meta-data":
			sawMetaData = true
			_, ok := start.Attr("name")
			require.True(t, ok)
		case "manifest":
			sawManifest = true
			attr, ok := start.Attr("versionCode")
			require.True(t, ok)
			require.Equal(t, "7", attr.ValueString())
		}
	}
	require.True(t, sawMetaData)
	require.True(t, sawManifest)
}

func TestMutationChangesOnlyDataBytes(t *testing.T) {
	doc := buildManifest(t)
	before, err := doc.ToBytes()
	require.NoError(t, err)

	reparsed, err := NewDocument(before)
	require.NoError(t, err)
	for reparsed.HasNext() {
		ev, err := reparsed.Next()
		require.NoError(t, err)
		if start, ok := ev.(*StartElement); ok {
			attr, ok := start.Attr("versionCode")
			require.True(t, ok)
			attr.TypedValue.SetData(attr.TypedValue.Data() + 1)
		}
	}

	after, err := reparsed.ToBytes()
	require.NoError(t, err)
	require.Equal(t, len(before), len(after))

	diff := 0
	for i := range before {
		if before[i] != after[i] {
			diff++
		}
	}
	require.LessOrEqual(t, diff, 4, "a non-string data edit may only touch the 4 payload bytes")
	require.Positive(t, diff)
}
