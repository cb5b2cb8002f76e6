package value

import (
	"fmt"
	"strings"
)

// Address is an immutable, ordered path of identifiers such as a.b.c.
//
// The zero Address is Empty and must never be dereferenced.
type Address struct {
	segments []Identifier
	hash     uint32
}

// Empty is the zero-length sentinel address.
var Empty = Address{}

// NewAddress builds an address from already-split segment names.
// Empty names are rejected.
func NewAddress(names ...string) (Address, error) {
	if len(names) == 0 {
		return Empty, nil
	}
	segments := make([]Identifier, len(names))
	for i, n := range names {
		if !isIdentifier(n) {
			return Empty, fmt.Errorf("invalid address segment %q", n)
		}
		segments[i] = NewIdentifier(n)
	}
	return fromSegments(segments), nil
}

// ParseAddress parses a dotted path such as "a.b.c".
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Empty, nil
	}
	return NewAddress(strings.Split(s, ".")...)
}

// MustParseAddress is like ParseAddress but panics on malformed input.
// Intended for literals in host code and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressOf returns the single-segment address naming id.
func AddressOf(id Identifier) Address {
	return fromSegments([]Identifier{id})
}

func fromSegments(segments []Identifier) Address {
	var h uint32 = 17
	for _, s := range segments {
		h = combine(h, s.hash)
	}
	return Address{segments: segments, hash: h}
}

// IsEmpty reports whether a is the Empty sentinel.
func (a Address) IsEmpty() bool {
	return len(a.segments) == 0
}

// Len returns the number of segments.
func (a Address) Len() int {
	return len(a.segments)
}

// At returns the i-th segment.
func (a Address) At(i int) Identifier {
	return a.segments[i]
}

// Last returns the final segment, which names the target binding.
func (a Address) Last() Identifier {
	return a.segments[len(a.segments)-1]
}

// Parent returns every segment but the last; Empty for single-segment addresses.
func (a Address) Parent() Address {
	if len(a.segments) <= 1 {
		return Empty
	}
	return fromSegments(a.segments[:len(a.segments)-1])
}

// Segments returns a copy of the identifiers in order.
func (a Address) Segments() []Identifier {
	out := make([]Identifier, len(a.segments))
	copy(out, a.segments)
	return out
}

// Enqueue returns a new address made of a's segments followed by other's.
func (a Address) Enqueue(other Address) Address {
	if a.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return a
	}
	segments := make([]Identifier, 0, len(a.segments)+len(other.segments))
	segments = append(segments, a.segments...)
	segments = append(segments, other.segments...)
	return fromSegments(segments)
}

// Hash returns the combined hash over all segments.
func (a Address) Hash() uint32 {
	return a.hash
}

// Equal reports whether both addresses have the same segments in order.
func (a Address) Equal(other Address) bool {
	if a.hash != other.hash || len(a.segments) != len(other.segments) {
		return false
	}
	for i := range a.segments {
		if !a.segments[i].Equal(other.segments[i]) {
			return false
		}
	}
	return true
}

// String returns the dotted form.
func (a Address) String() string {
	switch len(a.segments) {
	case 0:
		return ""
	case 1:
		return a.segments[0].name
	}
	var b strings.Builder
	for i, s := range a.segments {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.name)
	}
	return b.String()
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
