// Package axml parses, edits, and re-serializes Android binary XML
// chunk streams — the compiled form of files such as
// AndroidManifest.xml distributed inside APKs.
package axml

// Chunk type codes understood by this engine. Others are preserved
// verbatim but never interpreted.
//
// frameworks/base/libs/androidfw/include/androidfw/ResourceTypes.h
const (
	ChunkNull           uint16 = 0x0000
	ChunkStringPool     uint16 = 0x0001
	ChunkTable          uint16 = 0x0002
	ChunkXML            uint16 = 0x0003
	ChunkXMLNsStart     uint16 = 0x0100
	ChunkXMLNsEnd       uint16 = 0x0101
	ChunkXMLStartElem   uint16 = 0x0102
	ChunkXMLEndElem     uint16 = 0x0103
	ChunkXMLCData       uint16 = 0x0104
	ChunkXMLResourceMap uint16 = 0x0180
)

// DataType classifies the 32-bit payload of a Res_value.
type DataType uint8

const (
	TypeNull          DataType = 0x00
	TypeReference     DataType = 0x01
	TypeAttribute     DataType = 0x02
	TypeString        DataType = 0x03
	TypeFloat         DataType = 0x04
	TypeDimension     DataType = 0x05
	TypeFraction      DataType = 0x06
	TypeIntDec        DataType = 0x10
	TypeIntHex        DataType = 0x11
	TypeIntBoolean    DataType = 0x12
	TypeIntColorARGB8 DataType = 0x1c
	TypeIntColorRGB8  DataType = 0x1d
	TypeIntColorARGB4 DataType = 0x1e
	TypeIntColorRGB4  DataType = 0x1f
)

// AndroidNamespace is the well-known URI new elements' attributes are
// registered under when no other namespace is specified.
const AndroidNamespace = "http://schemas.android.com/apk/res/android"

const chunkHeaderSize = 2 + 2 + 4 // type:u16 headerSize:u16 chunkSize:u32
