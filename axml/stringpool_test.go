package axml

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// reparsePool serializes sp and parses the result back, going through
// the same chunk framing the document parser uses.
func reparsePool(t *testing.T, sp *StringPool) *StringPool {
	t.Helper()

	raw, err := sp.bytes()
	require.NoError(t, err)

	r := bytes.NewReader(raw)
	hdr, err := parseChunkHeader(r)
	require.NoError(t, err)
	require.Equal(t, ChunkStringPool, hdr.Type)
	require.Equal(t, uint32(len(raw)), hdr.ChunkSize)
	require.Zero(t, len(raw)%4, "string pool chunk must be 4-byte aligned")

	out, err := parseStringPool(hdr.bodyReader(r, 0))
	require.NoError(t, err)
	return out
}

func TestStringPoolRoundTrip(t *testing.T) {
	for _, utf8Pool := range []bool{false, true} {
		name := "utf16"
		if utf8Pool {
			name = "utf8"
		}
		t.Run(name, func(t *testing.T) {
			sp := &StringPool{isUTF8: utf8Pool}
			want := []string{"manifest", "uses-permission", "android.permission.INTERNET", "žluťoučký kůň", ""}
			for _, s := range want {
				sp.Ensure(s)
			}

			out := reparsePool(t, sp)
			require.Equal(t, utf8Pool, out.isUTF8)
			for i, s := range want {
				got, err := out.StringAt(uint32(i))
				require.NoError(t, err)
				require.Equal(t, s, got)
			}
		})
	}
}

func TestStringPoolLongStrings(t *testing.T) {
	long := strings.Repeat("a", 0x81) // crosses the one-byte length form
	for _, utf8Pool := range []bool{false, true} {
		sp := &StringPool{isUTF8: utf8Pool}
		sp.Ensure(long)
		out := reparsePool(t, sp)
		got, err := out.StringAt(0)
		require.NoError(t, err)
		require.Equal(t, long, got)
	}
}

func TestEnsureIdempotent(t *testing.T) {
	sp := &StringPool{}
	first := sp.Ensure("activity")
	sizeAfterFirst := len(sp.composite())
	second := sp.Ensure("activity")
	require.Equal(t, first, second)
	require.Equal(t, sizeAfterFirst, len(sp.composite()))
}

func TestEnsureNeverDuplicatesAttributeNames(t *testing.T) {
	sp := &StringPool{}
	rm := newResourceMap()
	require.NoError(t, rm.Append("versionCode"))
	sp.attachResourceMap(rm)

	ref := sp.Ensure("versionCode")
	require.Equal(t, uint32(0), ref)
	require.Len(t, sp.composite(), 1)
}

func TestPoolStability(t *testing.T) {
	sp := &StringPool{}
	known := []string{"manifest", "application", "activity"}
	for _, s := range known {
		sp.Ensure(s)
	}

	sp.Ensure("service")
	require.NoError(t, sp.SetAttribute("exported", true))

	for _, s := range known {
		ref, err := sp.StringRef(s)
		require.NoError(t, err)
		got, err := sp.StringAt(ref)
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
}

func TestSetAttributeKeepsMapPrefixAligned(t *testing.T) {
	sp := &StringPool{}
	rm := newResourceMap()
	require.NoError(t, rm.Append("versionCode"))
	sp.attachResourceMap(rm)
	sp.Ensure("manifest")

	require.NoError(t, sp.SetAttribute("name", "android.permission.INTERNET"))
	require.NoError(t, sp.SetAttribute("exported", false))

	names := sp.resourceMap.names()
	all := sp.composite()
	require.GreaterOrEqual(t, len(all), len(names))
	require.Equal(t, names, all[:len(names)])

	// The string value landed in the free region, past the map names.
	ref, err := sp.StringRef("android.permission.INTERNET")
	require.NoError(t, err)
	require.GreaterOrEqual(t, int(ref), len(names))
}

func TestSetAttributeUnknownName(t *testing.T) {
	sp := &StringPool{}
	err := sp.SetAttribute("definitelyNotAFrameworkAttr", "x")
	require.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestStringPoolStylePreservation(t *testing.T) {
	sp := &StringPool{}
	sp.Ensure("styled")
	sp.styleOffsets = []uint32{0}
	sp.styleRaw = []byte{0x01, 0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}

	out := reparsePool(t, sp)
	require.Equal(t, sp.styleOffsets, out.styleOffsets)
	require.Equal(t, sp.styleRaw, out.styleRaw)

	got, err := out.StringAt(0)
	require.NoError(t, err)
	require.Equal(t, "styled", got)
}
