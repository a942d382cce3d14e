// Package images provides the resize transform applied to uploaded
// pictures before they reach the upload sink. Callers treat it as an
// opaque bytes-to-bytes operation.
package images

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	// Registered decoders for the formats browsers commonly upload.
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

// MimeType is the content type of every resized rendition.
const MimeType = "image/jpeg"

const jpegQuality = 85

// Shrink decodes src, scales it down to fit within maxWidth×maxHeight
// preserving aspect ratio, and re-encodes it as JPEG. Images already
// inside the bounds are re-encoded without scaling. Undecodable input
// is an error; the caller decides whether to surface or skip it.
func Shrink(src []byte, maxWidth, maxHeight int) ([]byte, error) {
	if maxWidth < 1 || maxHeight < 1 {
		return nil, fmt.Errorf("images: bounds %dx%d out of range", maxWidth, maxHeight)
	}
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("images: decode: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxWidth || h > maxHeight {
		scale := float64(maxWidth) / float64(w)
		if s := float64(maxHeight) / float64(h); s < scale {
			scale = s
		}
		dw, dh := int(float64(w)*scale), int(float64(h)*scale)
		if dw < 1 {
			dw = 1
		}
		if dh < 1 {
			dh = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("images: encode: %w", err)
	}
	return out.Bytes(), nil
}
