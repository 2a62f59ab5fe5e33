package resumetoken

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProducer Token

func (p staticProducer) PickResumeTokenInfo() Token {
	return Token(p)
}

func TestStringifyParse_RoundTrip(t *testing.T) {
	id := uuid.NewString()
	s, err := Stringify(Token{"uniqueUserId": id, "flowId": "abc"})
	require.NoError(t, err)

	got, err := Parse(s)
	require.NoError(t, err)
	assert.Equal(t, Token{"uniqueUserId": id, "flowId": "abc"}, got)
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"%%%", "bm90IGpzb24=", "bnVsbA=="} {
		_, err := Parse(s)
		require.ErrorIs(t, err, ErrInvalid, s)
	}
}

func TestCollect(t *testing.T) {
	got := Collect(
		staticProducer{"a": 1, "b": 1},
		staticProducer{"b": 2},
	)
	assert.Equal(t, Token{"a": 1, "b": 2}, got)
}

func TestSchemaValidate(t *testing.T) {
	schema := Schema{"uniqueUserId": UUID}
	id := uuid.NewString()

	got, err := schema.Validate(Token{"uniqueUserId": id, "other": "x"})
	require.NoError(t, err)
	assert.Equal(t, Token{"uniqueUserId": id}, got)

	got, err = schema.Validate(Token{})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = schema.Validate(Token{"uniqueUserId": "not-a-uuid"})
	require.ErrorIs(t, err, ErrInvalid)

	_, err = schema.Validate(Token{"uniqueUserId": 42})
	require.ErrorIs(t, err, ErrInvalid)
}
