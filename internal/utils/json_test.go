package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalNoEscape(t *testing.T) {
	data, err := MarshalNoEscape(map[string]string{"content": "<env>x</env>"})
	require.NoError(t, err)

	assert.Equal(t, `{"content":"<env>x</env>"}`, string(data))
	assert.NotContains(t, string(data), `\u003c`)
}

func TestMarshalNoEscape_NoTrailingNewline(t *testing.T) {
	data, err := MarshalNoEscape(42)
	require.NoError(t, err)
	assert.Equal(t, "42", string(data))
}

func TestMarshalNoEscape_Unmarshalable(t *testing.T) {
	_, err := MarshalNoEscape(make(chan int))
	assert.Error(t, err)
}
