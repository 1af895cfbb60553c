package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURI(t *testing.T) {
	res := &EmotionResult{Image: "aGVsbG8=", Emotions: []string{"happy", "neutral"}}
	assert.Equal(t, "data:image/jpeg;base64,aGVsbG8=", res.DataURI())

	data, err := res.ImageBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestDataURIMissingImage(t *testing.T) {
	var nilRes *EmotionResult
	assert.Empty(t, nilRes.DataURI())
	assert.Empty(t, (&EmotionResult{}).DataURI())

	data, err := (&EmotionResult{}).ImageBytes()
	assert.NoError(t, err)
	assert.Nil(t, data)
}

func TestImageBytesInvalid(t *testing.T) {
	_, err := (&EmotionResult{Image: "***"}).ImageBytes()
	assert.Error(t, err)
}
