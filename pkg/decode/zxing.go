package decode

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Format names accepted in Config.Formats.
const (
	FormatQRCode     = "qr_code"
	FormatDataMatrix = "data_matrix"
	FormatCode128    = "code_128"
	FormatCode39     = "code_39"
	FormatUPCEAN     = "upc_ean"
)

// Config selects which symbologies are tried on each frame.
type Config struct {
	Formats   []string `json:"formats" yaml:"formats" validate:"dive,oneof=qr_code data_matrix code_128 code_39 upc_ean"`
	TryHarder bool     `json:"try_harder" yaml:"try_harder"`
}

// DefaultConfig tries every supported format, 2D symbols first.
func DefaultConfig() Config {
	return Config{
		Formats:   []string{FormatQRCode, FormatDataMatrix, FormatCode128, FormatCode39, FormatUPCEAN},
		TryHarder: true,
	}
}

// SupportedFormats lists the format names, sorted.
func SupportedFormats() []string {
	names := make([]string, 0, len(readerFactories))
	for name := range readerFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var readerFactories = map[string]func() gozxing.Reader{
	FormatQRCode:     func() gozxing.Reader { return qrcode.NewQRCodeReader() },
	FormatDataMatrix: func() gozxing.Reader { return datamatrix.NewDataMatrixReader() },
	FormatCode128:    func() gozxing.Reader { return oned.NewCode128Reader() },
	FormatCode39:     func() gozxing.Reader { return oned.NewCode39Reader() },
	FormatUPCEAN:     func() gozxing.Reader { return oned.NewMultiFormatUPCEANReader(nil) },
}

// MultiReader tries each configured gozxing reader in turn and returns the
// first symbol found.
type MultiReader struct {
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
	mu      sync.Mutex // readers keep per-call state
}

var _ Decoder = (*MultiReader)(nil)

// NewMultiReader builds a reader for cfg.Formats.
func NewMultiReader(cfg Config) (*MultiReader, error) {
	if len(cfg.Formats) == 0 {
		return nil, errors.New("decode: no formats configured")
	}

	m := &MultiReader{
		hints: make(map[gozxing.DecodeHintType]interface{}),
	}
	for _, name := range cfg.Formats {
		factory, ok := readerFactories[name]
		if !ok {
			return nil, fmt.Errorf("decode: unknown format %q", name)
		}
		m.readers = append(m.readers, factory())
	}
	if cfg.TryHarder {
		m.hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}
	return m, nil
}

// Decode binarizes img and runs the readers. When nothing is found the last
// reader's not-found error is returned unchanged so IsRoutine can see it.
func (m *MultiReader) Decode(img image.Image) (*Result, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("binarize frame: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var lastErr error
	for _, r := range m.readers {
		res, err := r.Decode(bmp, m.hints)
		r.Reset()
		if err != nil {
			lastErr = err
			continue
		}
		return fromZXing(res), nil
	}
	if lastErr == nil {
		lastErr = gozxing.NewNotFoundException()
	}
	return nil, lastErr
}

func fromZXing(res *gozxing.Result) *Result {
	pts := res.GetResultPoints()
	out := &Result{
		Text:   res.GetText(),
		Format: res.GetBarcodeFormat().String(),
		Points: make([]Point, 0, len(pts)),
	}
	for _, p := range pts {
		if p == nil {
			continue
		}
		out.Points = append(out.Points, Point{X: p.GetX(), Y: p.GetY()})
	}
	return out
}
