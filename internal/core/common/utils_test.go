package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeObject(t *testing.T) {
	obj, err := DecodeObject(`{"age": 25, "score": 1.5, "tags": ["a", 2], "nested": {"n": 3}}`)
	require.NoError(t, err)
	assert.Equal(t, int64(25), obj["age"])
	assert.Equal(t, 1.5, obj["score"])
	assert.Equal(t, []interface{}{"a", int64(2)}, obj["tags"])
	assert.Equal(t, map[string]interface{}{"n": int64(3)}, obj["nested"])
}

func TestDecodeObjectRejects(t *testing.T) {
	for _, in := range []string{`["a"]`, `{"a": 1}}`, `{'a': 1}`, ``} {
		_, err := DecodeObject(in)
		assert.Error(t, err, in)
	}
}

func TestIsScalar(t *testing.T) {
	assert.True(t, IsScalar("x"))
	assert.True(t, IsScalar(int64(1)))
	assert.True(t, IsScalar(nil))
	assert.False(t, IsScalar([]interface{}{1}))
	assert.False(t, IsScalar(map[string]interface{}{}))
}

func TestEncodeJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, EncodeJSON(map[string]interface{}{"a": 1}))
}
