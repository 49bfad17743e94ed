package media

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVideoDefaults(t *testing.T) {
	r, err := NewVideo(Meta{Platform: TagDouyin}, "https://v.example.com/a.mp4")
	require.NoError(t, err)

	assert.Equal(t, Video, r.Kind)
	assert.Equal(t, DefaultTitle, r.Title)
	assert.Equal(t, DefaultAuthor, r.Author)
	assert.Equal(t, TagDouyin, r.Platform)
	assert.Empty(t, r.Images)
}

func TestNewVideoRequiresURL(t *testing.T) {
	_, err := NewVideo(Meta{Title: "x"}, "  ")
	assert.Error(t, err)
}

func TestNewImageSet(t *testing.T) {
	r, err := NewImageSet(Meta{Title: "猫", Author: "a"}, []string{"https://i/1", "", "https://i/2"})
	require.NoError(t, err)

	assert.Equal(t, ImageSet, r.Kind)
	assert.Equal(t, []string{"https://i/1", "https://i/2"}, r.Images)
	assert.Empty(t, r.VideoURL)
	assert.Equal(t, TagUnknown, r.Platform)
	assert.Equal(t, 2, r.Count())

	_, err = NewImageSet(Meta{}, []string{""})
	assert.Error(t, err)
}

func TestKindJSON(t *testing.T) {
	r, err := NewImageSet(Meta{Title: "t"}, []string{"https://i/1"})
	require.NoError(t, err)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"images"`)

	var back Result
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ImageSet, back.Kind)
}
