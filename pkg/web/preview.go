package web

import (
	"bytes"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// EncodePreview downscales img to width (keeping aspect, never upscaling)
// and encodes it as JPEG. width 0 keeps the native size.
func EncodePreview(img image.Image, width, quality int) ([]byte, error) {
	src := img
	b := img.Bounds()
	if width > 0 && b.Dx() > width {
		height := b.Dy() * width / b.Dx()
		if height < 1 {
			height = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
