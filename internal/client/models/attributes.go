package models

// Attributes is a raw account record. A key that is absent is undefined; a
// key that is present with a nil value is defined and null.
type Attributes map[string]any

// AccountAttributes lets a raw record stand in wherever an account source
// is accepted.
func (a Attributes) AccountAttributes() Attributes {
	return a
}

// Clone returns a deep copy of a. Nested maps and slices decoded from JSON
// are copied as well.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case Attributes:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// Defined reports whether key is present, even with a nil value.
func (a Attributes) Defined(key string) bool {
	_, ok := a[key]
	return ok
}

// Has reports whether key is present with a non-nil value.
func (a Attributes) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

// String returns the value at key if it is a string.
func (a Attributes) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Truthy reports whether the value at key is set to something other than a
// zero value.
func (a Attributes) Truthy(key string) bool {
	return Truthy(a[key])
}

// Pick returns the subset of a containing only the listed keys that are
// defined.
func (a Attributes) Pick(keys ...string) Attributes {
	out := make(Attributes, len(keys))
	for _, k := range keys {
		if v, ok := a[k]; ok {
			out[k] = cloneValue(v)
		}
	}
	return out
}

// Truthy mirrors the loose boolean coercion used by stored account records:
// nil, false, zero numbers and empty strings are false.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}
