package value

import (
	"encoding/json"
	"fmt"
	"math"
)

// wireValue is the JSON form of a Value.
type wireValue struct {
	Kind    string   `json:"kind"`
	Number  *wireNumber `json:"number,omitempty"`
	Boolean *bool    `json:"boolean,omitempty"`
	String  *string  `json:"string,omitempty"`
	Address *string  `json:"address,omitempty"`
}

// wireNumber is a float64 that survives JSON when it is not finite.
// NaN and the infinities travel as the strings "NaN", "+Inf" and "-Inf".
type wireNumber float64

func (n wireNumber) MarshalJSON() ([]byte, error) {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	case math.IsInf(f, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(f)
}

func (n *wireNumber) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch s {
		case "NaN":
			*n = wireNumber(math.NaN())
		case "+Inf", "Inf":
			*n = wireNumber(math.Inf(1))
		case "-Inf":
			*n = wireNumber(math.Inf(-1))
		default:
			return fmt.Errorf("invalid number %q", s)
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = wireNumber(f)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	w := wireValue{Kind: v.kind.String()}
	switch v.kind {
	case KindNumber:
		n := wireNumber(v.num)
		w.Number = &n
	case KindBoolean:
		b := v.num != 0
		w.Boolean = &b
	case KindString:
		s := v.str
		w.String = &s
	case KindAddress:
		s := v.str
		w.Address = &s
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Kind {
	case "void", "":
		*v = Void
	case "number":
		if w.Number == nil {
			return fmt.Errorf("number value missing payload")
		}
		*v = Number(float64(*w.Number))
	case "boolean":
		if w.Boolean == nil {
			return fmt.Errorf("boolean value missing payload")
		}
		*v = Boolean(*w.Boolean)
	case "string":
		if w.String == nil {
			return fmt.Errorf("string value missing payload")
		}
		*v = String(*w.String)
	case "address":
		if w.Address == nil {
			return fmt.Errorf("address value missing payload")
		}
		a, err := ParseAddress(*w.Address)
		if err != nil {
			return err
		}
		*v = FromAddress(a)
	default:
		return fmt.Errorf("unknown value kind %q", w.Kind)
	}
	return nil
}

// FromAny converts a decoded YAML/JSON scalar into a Value.
func FromAny(x any) (Value, error) {
	switch val := x.(type) {
	case nil:
		return Void, nil
	case Value:
		return val, nil
	case bool:
		return Boolean(val), nil
	case string:
		return String(val), nil
	case int:
		return Number(float64(val)), nil
	case int32:
		return Number(float64(val)), nil
	case int64:
		return Number(float64(val)), nil
	case uint64:
		return Number(float64(val)), nil
	case float32:
		return Number(float64(val)), nil
	case float64:
		return Number(val), nil
	default:
		return Void, fmt.Errorf("unsupported value type %T", x)
	}
}
