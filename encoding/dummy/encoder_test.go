package dummy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Person struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func (p Person) String() string {
	return `Person information`
}

type forecast struct {
	City string `json:"city"`
}

type raw struct {
	data string
}

func (r *raw) Unmarshal(bs []byte) error {
	r.data = "raw:" + string(bs)
	return nil
}

func TestMarshal(t *testing.T) {
	t.Parallel()

	enc := NewEncoder()
	assert.Empty(t, enc.GetFormatInstructions())
	assert.NoError(t, enc.Validate(nil))

	str := "pointer"
	bs := []byte("pointer bytes")
	tcases := []struct {
		val any
		exp string
	}{
		{&Person{}, "Person information"},
		{"text", "text"},
		{[]byte("bytes"), "bytes"},
		{&str, "pointer"},
		{&bs, "pointer bytes"},
		{forecast{City: "Paris"}, `{"city":"Paris"}`},
		{42, "42"},
	}
	for _, tc := range tcases {
		js, err := enc.Marshal(tc.val)
		require.NoError(t, err)
		assert.Equal(t, tc.exp, string(js))
	}
}

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	enc := NewEncoder()

	var s string
	require.NoError(t, enc.Unmarshal([]byte("text"), &s))
	assert.Equal(t, "text", s)

	var bs []byte
	require.NoError(t, enc.Unmarshal([]byte("bytes"), &bs))
	assert.Equal(t, "bytes", string(bs))

	var r raw
	require.NoError(t, enc.Unmarshal([]byte("value"), &r))
	assert.Equal(t, "raw:value", r.data)

	var f forecast
	require.NoError(t, enc.Unmarshal([]byte(`{"city":"Paris"}`), &f))
	assert.Equal(t, "Paris", f.City)

	assert.Error(t, enc.Unmarshal([]byte(`not json`), &f))
}
