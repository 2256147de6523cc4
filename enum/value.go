package enum

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Kind tells the Value variants apart.
type Kind uint8

// KindInvalid, KindString and KindStructured enumerate the value variants.
const (
	KindInvalid Kind = iota
	KindString
	KindStructured
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindStructured:
		return "structured"
	default:
		return "invalid"
	}
}

// Wire keys of a structured value.
const (
	codeKey        = "code"
	displayNameKey = "displayName"
)

// Value is a single enumeration value.
type Value struct {
	kind        Kind
	code        string
	displayName string
	attrs       map[string]json.RawMessage
}

// String returns a bare string value.
func String(s string) Value {
	return Value{kind: KindString, code: s, displayName: s}
}

// Structured returns a value with a stable code and a display name.
func Structured(code, displayName string) Value {
	return Value{kind: KindStructured, code: code, displayName: displayName}
}

// Kind returns the variant of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// Code returns the identity of the value. For a string value it is the
// string itself.
func (v Value) Code() string {
	return v.code
}

// DisplayName returns the human-readable label of the value.
func (v Value) DisplayName() string {
	return v.displayName
}

// DisplayText returns the text used for display and filtering.
// It reports false for an invalid value.
func (v Value) DisplayText() (string, bool) {
	if v.kind == KindInvalid {
		return "", false
	}
	return v.displayName, true
}

// IsZero reports whether v is the zero Value.
func (v Value) IsZero() bool {
	return v.kind == KindInvalid && v.code == "" && v.displayName == "" && len(v.attrs) == 0
}

// Attribute returns an extra wire attribute of a structured value.
func (v Value) Attribute(name string) (json.RawMessage, bool) {
	raw, ok := v.attrs[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(raw), true
}

// AttributeNames returns the names of the extra attributes, sorted.
func (v Value) AttributeNames() []string {
	return slices.Sorted(maps.Keys(v.attrs))
}

// WithAttribute returns a copy of v carrying the given raw JSON attribute.
// The reserved keys "code" and "displayName" are ignored.
func (v Value) WithAttribute(name string, raw json.RawMessage) Value {
	if name == codeKey || name == displayNameKey {
		return v
	}
	out := v.clone()
	if out.attrs == nil {
		out.attrs = make(map[string]json.RawMessage, 1)
	}
	out.attrs[name] = slices.Clone(raw)
	return out
}

// Equal reports whether two values have the same variant, code, display
// name and attributes.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind || v.code != other.code || v.displayName != other.displayName {
		return false
	}
	return maps.EqualFunc(v.attrs, other.attrs, func(a, b json.RawMessage) bool {
		return bytes.Equal(a, b)
	})
}

// String implements fmt.Stringer.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.code
	case KindStructured:
		return fmt.Sprintf("%s (%s)", v.displayName, v.code)
	default:
		return "<invalid>"
	}
}

func (v Value) clone() Value {
	if v.attrs == nil {
		return v
	}
	attrs := make(map[string]json.RawMessage, len(v.attrs))
	for k, raw := range v.attrs {
		attrs[k] = slices.Clone(raw)
	}
	v.attrs = attrs
	return v
}

// MarshalJSON encodes a string value as a JSON string, a structured value as
// an object, and an invalid value as null (or as an object when it still
// carries a code or attributes).
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.code)
	case KindStructured:
		return v.marshalObject(true)
	default:
		if v.code == "" && len(v.attrs) == 0 {
			return []byte("null"), nil
		}
		return v.marshalObject(false)
	}
}

func (v Value) marshalObject(withDisplayName bool) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, raw []byte) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(raw)
	}

	if v.kind == KindStructured || v.code != "" {
		code, err := json.Marshal(v.code)
		if err != nil {
			return nil, err
		}
		write(codeKey, code)
	}
	if withDisplayName {
		name, err := json.Marshal(v.displayName)
		if err != nil {
			return nil, err
		}
		write(displayNameKey, name)
	}
	for _, k := range v.AttributeNames() {
		raw := v.attrs[k]
		if !json.Valid(raw) {
			return nil, fmt.Errorf("attribute %q is not valid JSON", k)
		}
		write(k, raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON string, object or null into the value.
// Objects become structured values when they carry a displayName.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty enum value")
	}

	switch data[0] {
	case 'n':
		if !bytes.Equal(data, []byte("null")) {
			return fmt.Errorf("invalid enum value %s", data)
		}
		*v = Value{}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode string value: %w", err)
		}
		*v = String(s)
		return nil
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return fmt.Errorf("decode structured value: %w", err)
		}
		out, err := valueFromFields(fields)
		if err != nil {
			return err
		}
		*v = out
		return nil
	default:
		return fmt.Errorf("enum value must be a string or an object, got %s", data)
	}
}

func valueFromFields(fields map[string]json.RawMessage) (Value, error) {
	var out Value
	if raw, ok := fields[codeKey]; ok {
		if err := json.Unmarshal(raw, &out.code); err != nil {
			return Value{}, fmt.Errorf("decode %s: %w", codeKey, err)
		}
	}
	if raw, ok := fields[displayNameKey]; ok {
		if err := json.Unmarshal(raw, &out.displayName); err != nil {
			return Value{}, fmt.Errorf("decode %s: %w", displayNameKey, err)
		}
		out.kind = KindStructured
	}
	for k, raw := range fields {
		if k == codeKey || k == displayNameKey {
			continue
		}
		if out.attrs == nil {
			out.attrs = make(map[string]json.RawMessage)
		}
		out.attrs[k] = slices.Clone(raw)
	}
	return out, nil
}

// ValueFromAny converts a generically decoded value (as produced by YAML and
// TOML decoders) into a Value. It accepts nil, strings, and string-keyed maps.
func ValueFromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Value{}, nil
	case string:
		return String(t), nil
	case map[string]any:
		fields := make(map[string]json.RawMessage, len(t))
		for k, field := range t {
			if (k == codeKey || k == displayNameKey) && !isString(field) {
				return Value{}, fmt.Errorf("%s must be a string, got %T", k, field)
			}
			raw, err := json.Marshal(field)
			if err != nil {
				return Value{}, fmt.Errorf("encode attribute %q: %w", k, err)
			}
			fields[k] = raw
		}
		return valueFromFields(fields)
	default:
		return Value{}, fmt.Errorf("enum value must be a string or a map, got %T", x)
	}
}

func isString(x any) bool {
	_, ok := x.(string)
	return ok
}
