package value

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perr "github.com/tlauterbach/potato-eval/pkg/potato/errors"
)

func TestIdentifier(t *testing.T) {
	a := NewIdentifier("foo")
	b := NewIdentifier("foo")
	c := NewIdentifier("bar")

	assert.True(t, a.Equal(b))
	assert.Equal(t, a, b, "identifiers are usable as map keys")
	assert.False(t, a.Equal(c))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, "foo", a.String())
	assert.True(t, Identifier{}.IsZero())
}

func TestAddress_RoundTrip(t *testing.T) {
	a := MustParseAddress("a.b.c")
	assert.Equal(t, "a.b.c", a.String())
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, "c", a.Last().Name())
	assert.Equal(t, "a.b", a.Parent().String())

	joined := MustParseAddress("a").Enqueue(MustParseAddress("b.c"))
	assert.Equal(t, "a.b.c", joined.String())
	assert.True(t, joined.Equal(a))
	assert.Equal(t, a.Hash(), joined.Hash())
}

func TestAddress_Empty(t *testing.T) {
	assert.True(t, Empty.IsEmpty())
	assert.Equal(t, "", Empty.String())

	parsed, err := ParseAddress("")
	require.NoError(t, err)
	assert.True(t, parsed.IsEmpty())

	single := MustParseAddress("x")
	assert.True(t, single.Parent().IsEmpty())
	assert.True(t, single.Enqueue(Empty).Equal(single))
	assert.True(t, Empty.Enqueue(single).Equal(single))
	assert.True(t, Empty.Equal(Address{}))
}

func TestAddress_Invalid(t *testing.T) {
	for _, in := range []string{"a..b", ".a", "a.", "1a", "a-b"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseAddress(in)
			assert.Error(t, err)
		})
	}
	assert.Panics(t, func() { MustParseAddress("a..b") })
}

func TestAddress_SegmentsCopy(t *testing.T) {
	a := MustParseAddress("x.y")
	segs := a.Segments()
	segs[0] = NewIdentifier("z")
	assert.Equal(t, "x.y", a.String())
}

func TestValue_Construction(t *testing.T) {
	tests := []struct {
		name    string
		v       Value
		kind    Kind
		str     string
		inspect string
	}{
		{"void", Void, KindVoid, "", "undefined"},
		{"number", Number(2.5), KindNumber, "2.5", "2.5"},
		{"integral number", Number(4), KindNumber, "4", "4"},
		{"true", Boolean(true), KindBoolean, "true", "true"},
		{"false", Boolean(false), KindBoolean, "false", "false"},
		{"string", String("hi"), KindString, "hi", `"hi"`},
		{"address", FromAddress(MustParseAddress("a.b")), KindAddress, "a.b", "&a.b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.v.Kind())
			assert.Equal(t, tt.str, tt.v.String())
			assert.Equal(t, tt.inspect, tt.v.Inspect())
		})
	}
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, Number(1).Equal(Number(1)))
	assert.False(t, Number(1).Equal(Boolean(true)), "kinds differ")
	assert.False(t, String("foo").Equal(FromIdentifier(NewIdentifier("foo"))))
	assert.True(t, FromIdentifier(NewIdentifier("foo")).Equal(FromAddress(MustParseAddress("foo"))))
	assert.True(t, Void.Equal(Value{}))
	assert.Equal(t, Number(3).Hash(), Number(3).Hash())
	assert.NotEqual(t, Number(3).Hash(), String("3").Hash())
}

func TestConverter_Predicates(t *testing.T) {
	weak := Converter{Typing: Weak}
	strong := Converter{Typing: Strong}
	s := String("12")

	assert.True(t, weak.IsNumber(s))
	assert.True(t, weak.IsBoolean(s))
	assert.True(t, weak.IsAddress(s))
	assert.False(t, strong.IsNumber(s))
	assert.True(t, strong.IsString(s))
	assert.False(t, strong.IsAddress(s))
	assert.True(t, strong.IsBoolean(Boolean(false)))
	assert.True(t, weak.IsVoid(Void))
	assert.False(t, weak.IsVoid(s))
}

func TestConverter_ToNumber(t *testing.T) {
	tests := []struct {
		name    string
		typing  Typing
		v       Value
		want    float64
		wantErr bool
	}{
		{"number", Strong, Number(3), 3, false},
		{"boolean true strong", Strong, Boolean(true), 1, false},
		{"string strong", Strong, String("3"), 0, true},
		{"void strong", Strong, Void, 0, true},
		{"string weak", Weak, String(" 3.5 "), 3.5, false},
		{"garbage weak", Weak, String("abc"), 0, true},
		{"void weak", Weak, Void, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Converter{Typing: tt.typing}.ToNumber(tt.v)
			if tt.wantErr {
				require.Error(t, err)
				kind, ok := perr.Classify(err)
				assert.True(t, ok)
				assert.Equal(t, perr.KindConversion, kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConverter_ToBoolean(t *testing.T) {
	weak := Converter{Typing: Weak}
	strong := Converter{Typing: Strong}

	b, err := weak.ToBoolean(Number(2))
	require.NoError(t, err)
	assert.True(t, b)

	tests := []struct {
		in   Value
		want bool
	}{
		{Number(2), true},
		{Number(0.25), true},
		{Number(0), false},
		{Number(-1), false},
		{Void, false},
		{String("2"), true},
		{String(" 0.5 "), true},
		{String("-3"), false},
		{String("0"), false},
	}
	for _, tt := range tests {
		t.Run(tt.in.Inspect(), func(t *testing.T) {
			got, err := weak.ToBoolean(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = weak.ToBoolean(String("false"))
	assert.ErrorIs(t, err, perr.ErrNotConvertible)

	_, err = weak.ToBoolean(String("nope"))
	assert.ErrorIs(t, err, perr.ErrNotConvertible)

	_, err = strong.ToBoolean(Number(1))
	assert.ErrorIs(t, err, perr.ErrNotConvertible)
}

func TestConverter_ToString(t *testing.T) {
	weak := Converter{Typing: Weak}
	strong := Converter{Typing: Strong}

	s, err := weak.ToString(Number(4))
	require.NoError(t, err)
	assert.Equal(t, "4", s)

	s, err = strong.ToString(FromAddress(MustParseAddress("a.b")))
	require.NoError(t, err)
	assert.Equal(t, "a.b", s)

	_, err = strong.ToString(Boolean(true))
	assert.Error(t, err)
}

func TestConverter_ToAddress(t *testing.T) {
	weak := Converter{Typing: Weak}
	strong := Converter{Typing: Strong}

	a, err := weak.ToAddress(String("x.y"))
	require.NoError(t, err)
	assert.Equal(t, "x.y", a.String())

	_, err = weak.ToAddress(String("not an address"))
	assert.Error(t, err)

	_, err = strong.ToAddress(String("x.y"))
	assert.Error(t, err)
}

func TestNarrowing(t *testing.T) {
	checked := Converter{Conversion: Checked}
	unchecked := Converter{Conversion: Unchecked}

	t.Run("in range truncates", func(t *testing.T) {
		got, err := ToSigned[int8](checked, Number(-7.9))
		require.NoError(t, err)
		assert.Equal(t, int8(-7), got)
	})

	t.Run("checked overflow", func(t *testing.T) {
		_, err := ToSigned[int8](checked, Number(128))
		assert.ErrorIs(t, err, perr.ErrOverflow)

		_, err = ToUnsigned[uint16](checked, Number(-1))
		assert.ErrorIs(t, err, perr.ErrOverflow)

		_, err = ToSigned[int32](checked, Number(math.NaN()))
		assert.ErrorIs(t, err, perr.ErrOverflow)
	})

	t.Run("unchecked wraps", func(t *testing.T) {
		got, err := ToSigned[int8](unchecked, Number(128))
		require.NoError(t, err)
		assert.Equal(t, int8(-128), got)

		u, err := ToUnsigned[uint8](unchecked, Number(257))
		require.NoError(t, err)
		assert.Equal(t, uint8(1), u)

		u16, err := ToUnsigned[uint16](unchecked, Number(-1))
		require.NoError(t, err)
		assert.Equal(t, uint16(0xFFFF), u16)
	})

	t.Run("int64 bounds", func(t *testing.T) {
		got, err := ToSigned[int64](checked, Number(-9223372036854775808))
		require.NoError(t, err)
		assert.Equal(t, int64(math.MinInt64), got)

		_, err = ToSigned[int64](checked, Number(9223372036854775808))
		assert.ErrorIs(t, err, perr.ErrOverflow)
	})

	t.Run("conversion error propagates", func(t *testing.T) {
		_, err := ToSigned[int32](Converter{Typing: Strong}, String("1"))
		assert.ErrorIs(t, err, perr.ErrNotConvertible)
	})
}

func TestParsePolicies(t *testing.T) {
	typing, err := ParseTyping("Strong")
	require.NoError(t, err)
	assert.Equal(t, Strong, typing)
	assert.Equal(t, "strong", typing.String())

	_, err = ParseTyping("loose")
	assert.Error(t, err)

	conv, err := ParseConversion("unchecked")
	require.NoError(t, err)
	assert.Equal(t, Unchecked, conv)
	assert.Equal(t, "unchecked", conv.String())

	_, err = ParseConversion("maybe")
	assert.Error(t, err)
}

func TestValue_JSON(t *testing.T) {
	values := []Value{
		Void,
		Number(1.25),
		Boolean(true),
		Boolean(false),
		String(""),
		String("text"),
		FromAddress(MustParseAddress("a.b")),
	}

	for _, v := range values {
		t.Run(v.Inspect(), func(t *testing.T) {
			data, err := json.Marshal(v)
			require.NoError(t, err)

			var got Value
			require.NoError(t, json.Unmarshal(data, &got))
			assert.True(t, v.Equal(got), "got %s", got.Inspect())
		})
	}

	t.Run("non-finite numbers", func(t *testing.T) {
		tests := []struct {
			in   float64
			wire string
		}{
			{math.NaN(), `{"kind":"number","number":"NaN"}`},
			{math.Inf(1), `{"kind":"number","number":"+Inf"}`},
			{math.Inf(-1), `{"kind":"number","number":"-Inf"}`},
		}
		for _, tt := range tests {
			data, err := json.Marshal(Number(tt.in))
			require.NoError(t, err)
			assert.JSONEq(t, tt.wire, string(data))

			var got Value
			require.NoError(t, json.Unmarshal(data, &got))
			require.Equal(t, KindNumber, got.Kind())
			n, _ := DefaultConverter.ToNumber(got)
			if math.IsNaN(tt.in) {
				assert.True(t, math.IsNaN(n))
			} else {
				assert.Equal(t, tt.in, n)
			}
		}
	})

	var bad Value
	assert.Error(t, json.Unmarshal([]byte(`{"kind":"number","number":"lots"}`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`{"kind":"matrix"}`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`{"kind":"number"}`), &bad))
}

func TestFromAny(t *testing.T) {
	tests := []struct {
		in   any
		want Value
	}{
		{nil, Void},
		{true, Boolean(true)},
		{"s", String("s")},
		{3, Number(3)},
		{int64(4), Number(4)},
		{2.5, Number(2.5)},
		{Number(9), Number(9)},
	}
	for _, tt := range tests {
		got, err := FromAny(tt.in)
		require.NoError(t, err)
		assert.True(t, tt.want.Equal(got))
	}

	_, err := FromAny([]int{1})
	assert.Error(t, err)
}
