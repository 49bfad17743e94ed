package imageconv

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			c := color.NRGBA{R: 200, A: 255}
			// a transparent quadrant as large as a chroma block
			if x < 16 && y < 16 {
				c = color.NRGBA{}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestConvertPNG(t *testing.T) {
	out, err := JPEG{}.Convert(encodePNG(t))
	require.NoError(t, err)

	_, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	r, g, b, _ := img.At(4, 4).RGBA()
	assert.InDelta(t, 255, int(r>>8), 8, "transparent pixels should become white")
	assert.InDelta(t, 255, int(g>>8), 8)
	assert.InDelta(t, 255, int(b>>8), 8)

	r, g, _, _ = img.At(24, 24).RGBA()
	assert.InDelta(t, 200, int(r>>8), 16)
	assert.Less(t, int(g>>8), 40)
}

func TestConvertKeepsJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2)), nil))
	in := buf.Bytes()

	out, err := JPEG{Quality: 50}.Convert(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestConvertPassesThroughGarbage(t *testing.T) {
	in := []byte("definitely not an image")

	out, err := JPEG{}.Convert(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = JPEG{}.Encode(in)
	assert.Error(t, err)
}
