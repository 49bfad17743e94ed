// Package imageconv re-encodes downloaded images as JPEG.
package imageconv

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	// Registered decoders for the formats platforms serve.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// DefaultQuality is the JPEG quality used when none is set.
const DefaultQuality = 90

// JPEG converts any decodable image to JPEG. Input it cannot decode is
// returned unchanged, so a conversion problem never loses an image.
type JPEG struct {
	Quality int
}

// Convert decodes data and encodes it as JPEG. The error is always nil;
// Encode reports why a particular input was passed through.
func (c JPEG) Convert(data []byte) ([]byte, error) {
	out, err := c.Encode(data)
	if err != nil {
		return data, nil
	}
	return out, nil
}

// Encode is Convert without the passthrough.
func (c JPEG) Encode(data []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	if format == "jpeg" {
		return data, nil
	}

	q := c.Quality
	if q <= 0 || q > 100 {
		q = DefaultQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: q}); err != nil {
		return nil, fmt.Errorf("encoding %s as jpeg: %w", format, err)
	}
	return buf.Bytes(), nil
}

// flatten draws img over white so transparent areas don't turn black.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}
