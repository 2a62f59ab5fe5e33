// Package resumetoken encodes the state a flow carries across a redirect or
// an emailed link, and declares the capabilities of models that take part
// in it.
package resumetoken

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrInvalid = errors.New("invalid resume token")

// Token is a decoded resume token.
type Token map[string]any

// Producer contributes fields to an outgoing resume token.
type Producer interface {
	PickResumeTokenInfo() Token
}

// Consumer restores its state from an incoming resume token.
type Consumer interface {
	PopulateFromStringifiedResumeToken(s string) error
}

// Stringify encodes t as base64 JSON.
func Stringify(t Token) (string, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode resume token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Parse decodes a token produced by Stringify.
func Parse(s string) (Token, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var t Token
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: not an object", ErrInvalid)
	}
	return t, nil
}

// Collect merges the fields of every producer into one token. Later
// producers win on conflicts.
func Collect(producers ...Producer) Token {
	t := Token{}
	for _, p := range producers {
		for k, v := range p.PickResumeTokenInfo() {
			t[k] = v
		}
	}
	return t
}

// Validator checks one field.
type Validator func(v any) bool

// Schema maps field names to validators.
type Schema map[string]Validator

// Validate returns the schema fields present in t. Fields are optional, but
// a present field that fails its validator rejects the whole token.
func (s Schema) Validate(t Token) (Token, error) {
	out := Token{}
	for name, valid := range s {
		v, ok := t[name]
		if !ok {
			continue
		}
		if !valid(v) {
			return nil, fmt.Errorf("%w: field %q", ErrInvalid, name)
		}
		out[name] = v
	}
	return out, nil
}

// UUID accepts strings holding a UUID.
func UUID(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
