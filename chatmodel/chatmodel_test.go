package chatmodel

import (
	"context"
	goerr "errors"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	t.Parallel()

	err := ErrFailedUnmarshalInput
	assert.True(t, goerr.Is(err, ErrFailedUnmarshalInput))
	assert.True(t, goerr.Is(errors.WithStack(err), ErrFailedUnmarshalInput))
	assert.True(t, goerr.Is(errors.Wrap(err, "test"), ErrFailedUnmarshalInput))
	assert.True(t, goerr.Is(errors.WithMessage(err, "test"), ErrFailedUnmarshalInput))
	assert.False(t, goerr.Is(err, ErrConfiguration))

	q := errors.WithMessagef(ErrUnsupportedQuery, "query of type %T", 42)
	assert.True(t, errors.Is(q, ErrUnsupportedQuery))
	assert.True(t, errors.Is(q, ErrConfiguration))
	assert.EqualError(t, q, "query of type int: unsupported query type")

	assert.False(t, errors.Is(ErrUnknownTool, ErrConfiguration))
	assert.False(t, errors.Is(ErrInvalidToolArguments, ErrConfiguration))
}

func TestContentInterfaces(t *testing.T) {
	t.Parallel()

	var v any = NewString("str")
	c, ok := v.(ContentProvider)
	require.True(t, ok)
	assert.Equal(t, "str", c.GetContent())
	st, ok := v.(Stringer)
	require.True(t, ok)
	assert.Equal(t, "str", st.String())
}

func TestString(t *testing.T) {
	t.Parallel()

	s := NewString("foo")
	assert.Equal(t, "foo", s.String())
	assert.Equal(t, "foo", s.GetContent())
	assert.Equal(t, []byte("foo"), s.Bytes())

	require.NoError(t, s.Unmarshal([]byte(`"bar"`)))
	assert.Equal(t, "bar", s.String())
	require.NoError(t, s.Unmarshal([]byte(`baz`)))
	assert.Equal(t, "baz", s.String())
}

func TestChatContext(t *testing.T) {
	t.Parallel()

	c := NewChatContext("cid", 123)
	assert.Equal(t, "cid", c.GetChatID())
	assert.Equal(t, 123, c.AppData())
	assert.NotEmpty(t, c.RunID())
	assert.NotEqual(t, c.RunID(), NewChatContext("cid", nil).RunID())

	val, ok := c.GetMetadata("not-found")
	assert.Nil(t, val)
	assert.False(t, ok)
	c.SetMetadata("foo", 1)
	v, ok := c.GetMetadata("foo")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	assert.NotEmpty(t, NewChatContext("", nil).GetChatID())
	assert.NotEqual(t, NewChatID(), NewChatID())

	ctx := context.Background()
	assert.Nil(t, GetChatContext(ctx))
	assert.Empty(t, GetChatID(ctx))

	ctx = WithChatContext(ctx, c)
	assert.Equal(t, c, GetChatContext(ctx))
	assert.Equal(t, "cid", GetChatID(ctx))

	ctx2, c2 := EnsureChatContext(ctx)
	assert.Equal(t, ctx, ctx2)
	assert.Equal(t, c, c2)

	ctx3, c3 := EnsureChatContext(context.Background())
	require.NotNil(t, c3)
	assert.Equal(t, c3.GetChatID(), GetChatID(ctx3))
}
