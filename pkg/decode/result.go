// Package decode wraps the barcode reading library behind a small Decoder
// interface and runs the continuous per-frame decode loop.
package decode

import "image"

// Point is a result point reported by the decoder, in frame pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Result is one decoded symbol. Points are the finder/result points as the
// reader reports them: usually 2-4, in reader-defined order.
type Result struct {
	Text   string  `json:"text"`
	Format string  `json:"format,omitempty"`
	Points []Point `json:"points"`
}

// Decoder reads at most one symbol from a frame.
// A frame without a symbol returns an error that IsRoutine accepts.
type Decoder interface {
	Decode(img image.Image) (*Result, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(img image.Image) (*Result, error)

// Decode calls f(img).
func (f DecoderFunc) Decode(img image.Image) (*Result, error) {
	return f(img)
}
