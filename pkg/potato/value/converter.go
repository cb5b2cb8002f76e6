package value

import (
	"math"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/exp/constraints"

	perr "github.com/tlauterbach/potato-eval/pkg/potato/errors"
)

// Typing selects how strictly kind predicates are applied.
type Typing uint8

const (
	// Weak typing treats every kind predicate as satisfiable and coerces.
	Weak Typing = iota
	// Strong typing only accepts values that already have the requested kind.
	Strong
)

// String returns the typing name.
func (t Typing) String() string {
	if t == Strong {
		return "strong"
	}
	return "weak"
}

// ParseTyping parses "weak" or "strong".
func ParseTyping(s string) (Typing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weak", "":
		return Weak, nil
	case "strong":
		return Strong, nil
	default:
		return Weak, perr.New(perr.KindConversion, "config", perr.ErrNotConvertible, "unknown typing %q", s)
	}
}

// Conversion selects what narrowing numeric casts do on overflow.
type Conversion uint8

const (
	// Checked narrowing reports an overflow error.
	Checked Conversion = iota
	// Unchecked narrowing wraps modulo the target width.
	Unchecked
)

// String returns the conversion name.
func (c Conversion) String() string {
	if c == Unchecked {
		return "unchecked"
	}
	return "checked"
}

// ParseConversion parses "checked" or "unchecked".
func ParseConversion(s string) (Conversion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "checked", "":
		return Checked, nil
	case "unchecked":
		return Unchecked, nil
	default:
		return Checked, perr.New(perr.KindConversion, "config", perr.ErrNotConvertible, "unknown conversion %q", s)
	}
}

// Converter is the stateless type policy applied to Value operations.
// The zero Converter is weak and checked.
type Converter struct {
	Typing     Typing
	Conversion Conversion
}

// DefaultConverter is weak and checked.
var DefaultConverter = Converter{Typing: Weak, Conversion: Checked}

// IsVoid reports whether v is Void. Void is never produced by coercion,
// so this predicate is exact under both typings.
func (c Converter) IsVoid(v Value) bool {
	return v.kind == KindVoid
}

// IsNumber reports whether v may be used as a number.
func (c Converter) IsNumber(v Value) bool {
	return c.Typing == Weak || v.kind == KindNumber
}

// IsBoolean reports whether v may be used as a boolean.
func (c Converter) IsBoolean(v Value) bool {
	return c.Typing == Weak || v.kind == KindBoolean
}

// IsString reports whether v may be used as a string.
func (c Converter) IsString(v Value) bool {
	return c.Typing == Weak || v.kind == KindString
}

// IsAddress reports whether v may be used as an address.
func (c Converter) IsAddress(v Value) bool {
	return c.Typing == Weak || v.kind == KindAddress
}

// ToNumber converts v to a float64.
// Numbers and booleans (0/1) always convert; Void, strings and addresses
// only convert under weak typing.
func (c Converter) ToNumber(v Value) (float64, error) {
	switch v.kind {
	case KindNumber, KindBoolean:
		return v.num, nil
	}
	if c.Typing == Strong {
		return 0, notConvertible(v, KindNumber)
	}
	switch v.kind {
	case KindVoid:
		return 0, nil
	default:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, perr.New(perr.KindConversion, "number", perr.ErrNotConvertible,
				"cannot parse %q as a number", v.str)
		}
		return f, nil
	}
}

// ToBoolean converts v to a bool. Under weak typing a value is true when its
// numeric reading is positive, so -1 and "-3" are false and "2" is true.
func (c Converter) ToBoolean(v Value) (bool, error) {
	if v.kind == KindBoolean {
		return v.num != 0, nil
	}
	if c.Typing == Strong {
		return false, notConvertible(v, KindBoolean)
	}
	switch v.kind {
	case KindVoid:
		return false, nil
	case KindNumber:
		return v.num > 0, nil
	default:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return false, perr.New(perr.KindConversion, "boolean", perr.ErrNotConvertible,
				"cannot parse %q as a boolean", v.str)
		}
		return f > 0, nil
	}
}

// ToString converts v to text. Strings and addresses always convert;
// numbers, booleans and Void are stringified only under weak typing.
func (c Converter) ToString(v Value) (string, error) {
	switch v.kind {
	case KindString, KindAddress:
		return v.str, nil
	}
	if c.Typing == Strong {
		return "", notConvertible(v, KindString)
	}
	return v.String(), nil
}

// ToAddress converts v to an Address. Under weak typing strings holding a
// well formed dotted path are accepted.
func (c Converter) ToAddress(v Value) (Address, error) {
	if v.kind == KindAddress {
		return v.addr, nil
	}
	if c.Typing == Weak && v.kind == KindString {
		a, err := ParseAddress(v.str)
		if err == nil && !a.IsEmpty() {
			return a, nil
		}
		return Empty, perr.New(perr.KindConversion, "address", perr.ErrNotConvertible,
			"cannot parse %q as an address", v.str)
	}
	return Empty, notConvertible(v, KindAddress)
}

func notConvertible(v Value, target Kind) error {
	return perr.New(perr.KindConversion, target.String(), perr.ErrNotConvertible,
		"cannot convert %s to %s", v.kind, target)
}

// ToSigned converts v to a signed integer type, truncating toward zero.
// Out-of-range values report ErrOverflow when checked and wrap when unchecked.
func ToSigned[T constraints.Signed](c Converter, v Value) (T, error) {
	f, err := c.ToNumber(v)
	if err != nil {
		return 0, err
	}
	return NarrowSigned[T](c.Conversion, f)
}

// ToUnsigned converts v to an unsigned integer type, truncating toward zero.
func ToUnsigned[T constraints.Unsigned](c Converter, v Value) (T, error) {
	f, err := c.ToNumber(v)
	if err != nil {
		return 0, err
	}
	return NarrowUnsigned[T](c.Conversion, f)
}

// NarrowSigned narrows f to T under the given conversion mode.
func NarrowSigned[T constraints.Signed](mode Conversion, f float64) (T, error) {
	var zero T
	width := int(unsafe.Sizeof(zero)) * 8
	t := math.Trunc(f)
	limit := math.Ldexp(1, width-1)
	if math.IsNaN(t) || t < -limit || t >= limit {
		if mode == Checked {
			return 0, overflow(f, width, true)
		}
		return T(int64(wrap64(t))), nil
	}
	return T(int64(t)), nil
}

// NarrowUnsigned narrows f to T under the given conversion mode.
func NarrowUnsigned[T constraints.Unsigned](mode Conversion, f float64) (T, error) {
	var zero T
	width := int(unsafe.Sizeof(zero)) * 8
	t := math.Trunc(f)
	if math.IsNaN(t) || t < 0 || t >= math.Ldexp(1, width) {
		if mode == Checked {
			return 0, overflow(f, width, false)
		}
		return T(wrap64(t)), nil
	}
	return T(uint64(t)), nil
}

func overflow(f float64, width int, signed bool) error {
	prefix := "uint"
	if signed {
		prefix = "int"
	}
	return perr.New(perr.KindConversion, "narrow", perr.ErrOverflow,
		"%s overflows %s%d", formatNumber(f), prefix, width)
}

// wrap64 reduces an integral float modulo 2^64.
func wrap64(t float64) uint64 {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0
	}
	const two63, two64 = 1 << 63, 1 << 64
	if t > -two63 && t < two63 {
		return uint64(int64(t))
	}
	m := math.Mod(t, two64)
	if m >= two63 {
		m -= two64
	} else if m < -two63 {
		m += two64
	}
	return uint64(int64(m))
}
