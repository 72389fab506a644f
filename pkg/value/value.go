// Package value implements the Imprint value codec: typed scalars, byte
// strings, UTF-8 strings, homogeneous arrays, homogeneous maps, and nested
// rows. Values are dispatched on their TypeCode byte; no reflection is used.
//
// A value's TypeCode is carried by its directory entry (or, for array and
// map elements, by a single structural type byte shared across all
// elements), never repeated inside the payload bytes of a top-level field.
package value

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/streamforge/imprint/pkg/directory"
	"github.com/streamforge/imprint/pkg/header"
	"github.com/streamforge/imprint/pkg/imprinterr"
	"github.com/streamforge/imprint/pkg/varint"
)

// TypeCode is the closed set of value type tags. Codes 0xB-0xFF are
// reserved and must never be emitted.
type TypeCode byte

const (
	Null    TypeCode = 0x0
	Bool    TypeCode = 0x1
	Int32   TypeCode = 0x2
	Int64   TypeCode = 0x3
	Float32 TypeCode = 0x4
	Float64 TypeCode = 0x5
	Bytes   TypeCode = 0x6
	String  TypeCode = 0x7
	Array   TypeCode = 0x8
	Map     TypeCode = 0x9
	Row     TypeCode = 0xA
)

// MaxDepth is the default recursion limit for nested rows, arrays of rows,
// and maps of rows, guarding against adversarially deep inputs.
const MaxDepth = 64

// IsKnown reports whether t is one of the defined, emittable type codes.
func IsKnown(t TypeCode) bool {
	return t <= Row
}

// IsValidMapKeyType reports whether t is one of the four permitted map
// key types: int32, int64, bytes, string.
func IsValidMapKeyType(t TypeCode) bool {
	switch t {
	case Int32, Int64, Bytes, String:
		return true
	default:
		return false
	}
}

// Value is a tagged union over the value types in TypeCode. Only the
// field(s) relevant to Type are meaningful; callers dispatch on Type.
type Value struct {
	Type TypeCode

	B   bool
	I32 int32
	I64 int64
	F32 float32
	F64 float64

	// Bin holds raw bytes for Bytes and, for Row, the complete encoded
	// nested record (header + directory + payload).
	Bin []byte
	// Str holds the decoded string for String.
	Str string

	// ElemType is the element TypeCode for Array values.
	ElemType TypeCode
	// Elems holds the decoded elements for Array values.
	Elems []Value

	// KeyType/ValType are the key and value TypeCodes for Map values.
	KeyType TypeCode
	ValType TypeCode
	// Pairs holds the decoded entries for Map values, in encoded order.
	Pairs []Pair
}

// Pair is one key/value entry of a Map value.
type Pair struct {
	Key Value
	Val Value
}

func NewNull() Value                 { return Value{Type: Null} }
func NewBool(b bool) Value           { return Value{Type: Bool, B: b} }
func NewInt32(v int32) Value         { return Value{Type: Int32, I32: v} }
func NewInt64(v int64) Value         { return Value{Type: Int64, I64: v} }
func NewFloat32(v float32) Value     { return Value{Type: Float32, F32: v} }
func NewFloat64(v float64) Value     { return Value{Type: Float64, F64: v} }
func NewBytes(b []byte) Value        { return Value{Type: Bytes, Bin: b} }
func NewString(s string) Value       { return Value{Type: String, Str: s} }
func NewRow(encoded []byte) Value    { return Value{Type: Row, Bin: encoded} }

// NewArray constructs an Array value. elemType is ignored (and omitted on
// encode) when elems is empty.
func NewArray(elemType TypeCode, elems []Value) Value {
	return Value{Type: Array, ElemType: elemType, Elems: elems}
}

// NewMap constructs a Map value. keyType/valType are ignored (and omitted
// on encode) when pairs is empty.
func NewMap(keyType, valType TypeCode, pairs []Pair) Value {
	return Value{Type: Map, KeyType: keyType, ValType: valType, Pairs: pairs}
}

// FixedWidth returns the encoded byte length of t if it is fixed-width, and
// ok=false otherwise (variable-width: Bytes, String, Array, Map, Row).
func FixedWidth(t TypeCode) (n int, ok bool) {
	switch t {
	case Null:
		return 0, true
	case Bool:
		return 1, true
	case Int32, Float32:
		return 4, true
	case Int64, Float64:
		return 8, true
	default:
		return 0, false
	}
}

// Encode appends the wire encoding of v (whose Type must equal t) to buf
// and returns the result. Encode does not validate v; callers are expected
// to have constructed it via the New* helpers or Decode.
func Encode(buf []byte, t TypeCode, v Value) []byte {
	switch t {
	case Null:
		return buf
	case Bool:
		if v.B {
			return append(buf, 1)
		}
		return append(buf, 0)
	case Int32:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v.I32))
		return append(buf, b[:]...)
	case Int64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(v.I64))
		return append(buf, b[:]...)
	case Float32:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v.F32))
		return append(buf, b[:]...)
	case Float64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v.F64))
		return append(buf, b[:]...)
	case Bytes:
		buf = varint.AppendU32(buf, uint32(len(v.Bin)))
		return append(buf, v.Bin...)
	case String:
		buf = varint.AppendU32(buf, uint32(len(v.Str)))
		return append(buf, v.Str...)
	case Array:
		buf = varint.AppendU32(buf, uint32(len(v.Elems)))
		if len(v.Elems) == 0 {
			return buf
		}
		buf = append(buf, byte(v.ElemType))
		for _, e := range v.Elems {
			buf = Encode(buf, v.ElemType, e)
		}
		return buf
	case Map:
		buf = varint.AppendU32(buf, uint32(len(v.Pairs)))
		if len(v.Pairs) == 0 {
			return buf
		}
		buf = append(buf, byte(v.KeyType), byte(v.ValType))
		for _, p := range v.Pairs {
			buf = Encode(buf, v.KeyType, p.Key)
			buf = Encode(buf, v.ValType, p.Val)
		}
		return buf
	case Row:
		return append(buf, v.Bin...)
	default:
		return buf
	}
}

// Decode decodes one value of type t from the start of buf, returning the
// value and the number of bytes consumed.
//
// Decode fails with KindUnknownType for reserved codes, KindInvalidUTF8 for
// malformed strings, KindInvalidMapKeyType for disallowed map key types,
// KindTruncated for short input, and KindDepthExceeded if nesting exceeds
// MaxDepth.
func Decode(buf []byte, t TypeCode) (Value, int, error) {
	return decode(buf, t, 0)
}

func decode(buf []byte, t TypeCode, depth int) (Value, int, error) {
	if depth > MaxDepth {
		return Value{}, 0, imprinterr.New(imprinterr.KindDepthExceeded, "nesting exceeds max depth %d", MaxDepth)
	}

	if n, ok := FixedWidth(t); ok {
		if len(buf) < n {
			return Value{}, 0, imprinterr.NewAt(imprinterr.KindTruncated, int64(len(buf)), "need %d bytes for fixed-width type 0x%x, have %d", n, t, len(buf))
		}
		switch t {
		case Null:
			return Value{Type: Null}, 0, nil
		case Bool:
			return Value{Type: Bool, B: buf[0] != 0}, 1, nil
		case Int32:
			return Value{Type: Int32, I32: int32(binary.LittleEndian.Uint32(buf[:4]))}, 4, nil
		case Int64:
			return Value{Type: Int64, I64: int64(binary.LittleEndian.Uint64(buf[:8]))}, 8, nil
		case Float32:
			return Value{Type: Float32, F32: math.Float32frombits(binary.LittleEndian.Uint32(buf[:4]))}, 4, nil
		case Float64:
			return Value{Type: Float64, F64: math.Float64frombits(binary.LittleEndian.Uint64(buf[:8]))}, 8, nil
		}
	}

	switch t {
	case Bytes:
		n, prefixLen, err := varint.DecodeU32(buf)
		if err != nil {
			return Value{}, 0, err
		}
		total := prefixLen + int(n)
		if len(buf) < total {
			return Value{}, 0, imprinterr.NewAt(imprinterr.KindTruncated, int64(len(buf)), "need %d bytes for bytes value, have %d", total, len(buf))
		}
		return Value{Type: Bytes, Bin: buf[prefixLen:total]}, total, nil

	case String:
		n, prefixLen, err := varint.DecodeU32(buf)
		if err != nil {
			return Value{}, 0, err
		}
		total := prefixLen + int(n)
		if len(buf) < total {
			return Value{}, 0, imprinterr.NewAt(imprinterr.KindTruncated, int64(len(buf)), "need %d bytes for string value, have %d", total, len(buf))
		}
		s := buf[prefixLen:total]
		if !utf8.Valid(s) {
			return Value{}, 0, imprinterr.NewAt(imprinterr.KindInvalidUTF8, int64(prefixLen), "string value is not valid UTF-8")
		}
		return Value{Type: String, Str: string(s)}, total, nil

	case Array:
		n, consumed, err := varint.DecodeU32(buf)
		if err != nil {
			return Value{}, 0, err
		}
		if n == 0 {
			return Value{Type: Array}, consumed, nil
		}
		if len(buf) < consumed+1 {
			return Value{}, 0, imprinterr.NewAt(imprinterr.KindTruncated, int64(len(buf)), "missing array element type byte")
		}
		elemType := TypeCode(buf[consumed])
		consumed++
		if !IsKnown(elemType) {
			return Value{}, 0, imprinterr.NewAt(imprinterr.KindUnknownType, int64(consumed-1), "unknown array element type 0x%x", elemType)
		}
		elems := make([]Value, n)
		for i := uint32(0); i < n; i++ {
			e, elen, err := decode(buf[consumed:], elemType, depth+1)
			if err != nil {
				return Value{}, 0, err
			}
			elems[i] = e
			consumed += elen
		}
		return Value{Type: Array, ElemType: elemType, Elems: elems}, consumed, nil

	case Map:
		n, consumed, err := varint.DecodeU32(buf)
		if err != nil {
			return Value{}, 0, err
		}
		if n == 0 {
			return Value{Type: Map}, consumed, nil
		}
		if len(buf) < consumed+2 {
			return Value{}, 0, imprinterr.NewAt(imprinterr.KindTruncated, int64(len(buf)), "missing map key/value type bytes")
		}
		keyType := TypeCode(buf[consumed])
		valType := TypeCode(buf[consumed+1])
		consumed += 2
		if !IsKnown(keyType) || !IsKnown(valType) {
			return Value{}, 0, imprinterr.NewAt(imprinterr.KindUnknownType, int64(consumed-2), "unknown map key/value type")
		}
		if !IsValidMapKeyType(keyType) {
			return Value{}, 0, imprinterr.NewAt(imprinterr.KindInvalidMapKeyType, int64(consumed-2), "map key type 0x%x is not int32/int64/bytes/string", keyType)
		}
		pairs := make([]Pair, n)
		for i := uint32(0); i < n; i++ {
			k, klen, err := decode(buf[consumed:], keyType, depth+1)
			if err != nil {
				return Value{}, 0, err
			}
			consumed += klen
			v, vlen, err := decode(buf[consumed:], valType, depth+1)
			if err != nil {
				return Value{}, 0, err
			}
			consumed += vlen
			pairs[i] = Pair{Key: k, Val: v}
		}
		return Value{Type: Map, KeyType: keyType, ValType: valType, Pairs: pairs}, consumed, nil

	case Row:
		n, err := rowSize(buf, depth)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Type: Row, Bin: buf[:n]}, n, nil

	default:
		return Value{}, 0, imprinterr.New(imprinterr.KindUnknownType, "unknown type code 0x%x", byte(t))
	}
}

// SizeOf determines the byte length of the encoded value of type t at the
// start of buf without decoding value bodies: fixed-width types have known
// sizes, variable-width values are peeked for their length prefix, and
// arrays/maps/rows are measured by a one-pass structural skip (counts,
// type codes, length prefixes, nested headers).
func SizeOf(buf []byte, t TypeCode) (int, error) {
	return sizeOf(buf, t, 0)
}

func sizeOf(buf []byte, t TypeCode, depth int) (int, error) {
	if depth > MaxDepth {
		return 0, imprinterr.New(imprinterr.KindDepthExceeded, "nesting exceeds max depth %d", MaxDepth)
	}
	if n, ok := FixedWidth(t); ok {
		if len(buf) < n {
			return 0, imprinterr.NewAt(imprinterr.KindTruncated, int64(len(buf)), "need %d bytes for fixed-width type 0x%x, have %d", n, t, len(buf))
		}
		return n, nil
	}
	switch t {
	case Bytes, String:
		n, prefixLen, err := varint.DecodeU32(buf)
		if err != nil {
			return 0, err
		}
		total := prefixLen + int(n)
		if len(buf) < total {
			return 0, imprinterr.NewAt(imprinterr.KindTruncated, int64(len(buf)), "need %d bytes, have %d", total, len(buf))
		}
		return total, nil

	case Array:
		n, consumed, err := varint.DecodeU32(buf)
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return consumed, nil
		}
		if len(buf) < consumed+1 {
			return 0, imprinterr.NewAt(imprinterr.KindTruncated, int64(len(buf)), "missing array element type byte")
		}
		elemType := TypeCode(buf[consumed])
		consumed++
		if !IsKnown(elemType) {
			return 0, imprinterr.NewAt(imprinterr.KindUnknownType, int64(consumed-1), "unknown array element type 0x%x", elemType)
		}
		for i := uint32(0); i < n; i++ {
			elen, err := sizeOf(buf[consumed:], elemType, depth+1)
			if err != nil {
				return 0, err
			}
			consumed += elen
		}
		return consumed, nil

	case Map:
		n, consumed, err := varint.DecodeU32(buf)
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return consumed, nil
		}
		if len(buf) < consumed+2 {
			return 0, imprinterr.NewAt(imprinterr.KindTruncated, int64(len(buf)), "missing map key/value type bytes")
		}
		keyType := TypeCode(buf[consumed])
		valType := TypeCode(buf[consumed+1])
		consumed += 2
		if !IsKnown(keyType) || !IsKnown(valType) {
			return 0, imprinterr.NewAt(imprinterr.KindUnknownType, int64(consumed-2), "unknown map key/value type")
		}
		if !IsValidMapKeyType(keyType) {
			return 0, imprinterr.NewAt(imprinterr.KindInvalidMapKeyType, int64(consumed-2), "map key type 0x%x is not int32/int64/bytes/string", keyType)
		}
		for i := uint32(0); i < n; i++ {
			klen, err := sizeOf(buf[consumed:], keyType, depth+1)
			if err != nil {
				return 0, err
			}
			consumed += klen
			vlen, err := sizeOf(buf[consumed:], valType, depth+1)
			if err != nil {
				return 0, err
			}
			consumed += vlen
		}
		return consumed, nil

	case Row:
		return rowSize(buf, depth)

	default:
		return 0, imprinterr.New(imprinterr.KindUnknownType, "unknown type code 0x%x", byte(t))
	}
}

// rowSize determines the total encoded length of a nested record at the
// start of buf by reading only its header and directory count/entries,
// never its payload values.
func rowSize(buf []byte, depth int) (int, error) {
	if depth > MaxDepth {
		return 0, imprinterr.New(imprinterr.KindDepthExceeded, "nesting exceeds max depth %d", MaxDepth)
	}
	h, err := header.Decode(buf)
	if err != nil {
		return 0, err
	}
	total := header.Size
	if h.HasDirectory() {
		_, dirLen, err := directory.Parse(buf[header.Size:])
		if err != nil {
			return 0, err
		}
		total += dirLen
	}
	total += int(h.PayloadSize)
	if len(buf) < total {
		return 0, imprinterr.NewAt(imprinterr.KindTruncated, int64(len(buf)), "need %d bytes for nested row, have %d", total, len(buf))
	}
	return total, nil
}
