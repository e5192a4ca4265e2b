package axml

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
)

// ResValue is the 8-byte Res_value struct: size, padding, a data type
// tag, and a 32-bit payload whose meaning depends on the tag.
//
// When dataType is TypeString the payload is a string-pool index, and
// this type keeps a live binding to that string (by value, not by
// pool position) so that appending new strings to the pool never
// invalidates an already-decoded attribute: Data reresolves the index
// from the pool's current layout instead of caching a stale offset.
type ResValue struct {
	Size     uint16
	Res0     uint8
	DataType DataType
	raw      uint32

	pool    *StringPool
	bound   string
	isBound bool
}

func parseResValue(r io.Reader, pool *StringPool) (ResValue, error) {
	var v ResValue
	if err := binary.Read(r, binary.LittleEndian, &v.Size); err != nil {
		return v, err
	}
	if err := binary.Read(r, binary.LittleEndian, &v.Res0); err != nil {
		return v, err
	}
	if err := binary.Read(r, binary.LittleEndian, &v.DataType); err != nil {
		return v, err
	}
	if err := binary.Read(r, binary.LittleEndian, &v.raw); err != nil {
		return v, err
	}
	v.pool = pool
	if v.DataType == TypeString && v.raw != noRefIndex {
		s, err := pool.originalAt(v.raw)
		if err == nil {
			v.bound = s
			v.isBound = true
		}
	}
	return v, nil
}

func (v ResValue) writeTo(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, v.Size); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, v.Res0); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, v.DataType); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, v.Data())
}

// Data returns the raw 32-bit payload. When DataType is TypeString and
// a string is bound, it resolves to that string's current pool index
// so edits made elsewhere to the pool stay consistent.
func (v ResValue) Data() uint32 {
	if v.DataType == TypeString && v.isBound && v.pool != nil {
		if ref, err := v.pool.StringRef(v.bound); err == nil {
			return uint32(ref)
		}
	}
	return v.raw
}

// SetData sets the raw payload. If DataType is TypeString and val is a
// valid pool index, the attached string is rebound to the pool entry
// at that index.
func (v *ResValue) SetData(val uint32) {
	v.raw = val
	if v.DataType == TypeString && val != noRefIndex && v.pool != nil {
		if s, err := v.pool.StringAt(val); err == nil {
			v.bound = s
			v.isBound = true
		}
	}
}

// SetValue sets the payload from its textual form, per the value's
// type: the pool string for STRING (appended if new), a signed decimal
// for INT_DEC, "true"/"false" for INT_BOOLEAN.
func (v *ResValue) SetValue(s string) error {
	switch v.DataType {
	case TypeString:
		if v.pool == nil {
			return fmt.Errorf("%w: string value without a pool", ErrUnsupportedValue)
		}
		v.raw = v.pool.Ensure(s)
		v.bound = s
		v.isBound = true
		return nil
	case TypeIntDec:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return fmt.Errorf("%w: %q as decimal", ErrUnsupportedValue, s)
		}
		v.raw = uint32(int32(n))
		return nil
	case TypeIntBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("%w: %q as boolean", ErrUnsupportedValue, s)
		}
		v.raw = 0
		if b {
			v.raw = 0xffffffff
		}
		return nil
	default:
		return fmt.Errorf("%w: cannot set textual value on type 0x%02x", ErrUnsupportedValue, uint8(v.DataType))
	}
}

// Value renders a human-readable form of the payload: signed decimal
// for INT_DEC, "true"/"false" for INT_BOOLEAN, the pool string for
// STRING, a %g number for FLOAT, and @-prefixed 8-digit hex otherwise.
func (v ResValue) Value() string {
	switch v.DataType {
	case TypeIntDec:
		return strconv.FormatInt(int64(int32(v.Data())), 10)
	case TypeString:
		if v.isBound {
			return v.bound
		}
		if v.pool != nil {
			if s, err := v.pool.StringAt(v.Data()); err == nil {
				return s
			}
		}
		return ""
	case TypeIntBoolean:
		if v.Data() != 0 {
			return "true"
		}
		return "false"
	case TypeFloat:
		bits := v.Data()
		return fmt.Sprintf("%g", math.Float32frombits(bits))
	default:
		return fmt.Sprintf("@%08x", v.Data())
	}
}

// newStringValue builds a STRING-typed value bound to s. The string
// must already (or will, via the caller's Ensure call) exist in pool.
func newStringValue(pool *StringPool, s string) ResValue {
	return ResValue{Size: 8, DataType: TypeString, pool: pool, bound: s, isBound: true}
}

func newBoolValue(value bool) ResValue {
	var d uint32
	if value {
		d = 0xffffffff
	}
	return ResValue{Size: 8, DataType: TypeIntBoolean, raw: d}
}

func newIntValue(value int) ResValue {
	return ResValue{Size: 8, DataType: TypeIntDec, raw: uint32(int32(value))}
}

// newAttributeValue builds a typed value for one of string/bool/int;
// any other dynamic kind is unsupported, matching the original
// ResXMLTree_attribute.make's string/bool/int-only dispatch.
func newAttributeValue(pool *StringPool, value any) (ResValue, error) {
	switch val := value.(type) {
	case string:
		return newStringValue(pool, val), nil
	case bool:
		return newBoolValue(val), nil
	case int:
		return newIntValue(val), nil
	default:
		return ResValue{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
}
