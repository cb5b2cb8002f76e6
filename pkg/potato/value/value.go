package value

import (
	"math"
	"strconv"
)

// Kind discriminates the Value union.
type Kind uint8

const (
	// KindVoid is the absence of a value (the "undefined" literal).
	KindVoid Kind = iota
	// KindNumber is a 64-bit float.
	KindNumber
	// KindBoolean is true or false.
	KindBoolean
	// KindString is text.
	KindString
	// KindAddress is an unresolved dotted path.
	KindAddress
)

// String returns the kind name used in error messages.
func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindString:
		return "string"
	case KindAddress:
		return "address"
	default:
		return "unknown"
	}
}

// Value is the immutable runtime datum of the engine.
//
// A Value does not know whether it is weakly or strongly typed; a Converter
// supplies that policy. The zero Value is Void.
type Value struct {
	kind Kind
	num  float64
	str  string
	addr Address
}

// Void is the zero value.
var Void = Value{}

// Number creates a number value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Boolean creates a boolean value.
func Boolean(b bool) Value {
	v := Value{kind: KindBoolean}
	if b {
		v.num = 1
	}
	return v
}

// String creates a string value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// FromAddress creates an address value.
func FromAddress(a Address) Value {
	return Value{kind: KindAddress, str: a.String(), addr: a}
}

// FromIdentifier creates a single-segment address value.
func FromIdentifier(id Identifier) Value {
	return FromAddress(AddressOf(id))
}

// Kind returns the discriminator.
func (v Value) Kind() Kind {
	return v.kind
}

// IsVoid reports whether v is Void regardless of typing policy.
func (v Value) IsVoid() bool {
	return v.kind == KindVoid
}

// Hash returns a combined hash over kind, string payload and numeric payload.
func (v Value) Hash() uint32 {
	h := combine(17, uint32(v.kind))
	h = combine(h, hash32(v.str))
	bits := math.Float64bits(v.num)
	return combine(h, uint32(bits)^uint32(bits>>32))
}

// Equal reports structural equality over kind and payloads.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNumber, KindBoolean:
		return v.num == other.num
	case KindString:
		return v.str == other.str
	case KindAddress:
		return v.addr.Equal(other.addr)
	default:
		return true
	}
}

// String returns the payload as plain text without any policy checks.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return formatNumber(v.num)
	case KindBoolean:
		return strconv.FormatBool(v.num != 0)
	case KindString, KindAddress:
		return v.str
	default:
		return ""
	}
}

// Inspect returns a literal-like rendering for diagnostics:
// strings are quoted and Void renders as undefined.
func (v Value) Inspect() string {
	switch v.kind {
	case KindVoid:
		return "undefined"
	case KindString:
		return strconv.Quote(v.str)
	case KindAddress:
		return "&" + v.str
	default:
		return v.String()
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
