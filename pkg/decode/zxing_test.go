package decode

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

func encodeQR(t *testing.T, text string, size int) image.Image {
	t.Helper()
	img, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
	if err != nil {
		t.Fatalf("encode QR: %v", err)
	}
	return img
}

func TestMultiReader_DecodesQR(t *testing.T) {
	r, err := NewMultiReader(DefaultConfig())
	if err != nil {
		t.Fatalf("NewMultiReader: %v", err)
	}

	img := encodeQR(t, "ABC123", 200)
	res, err := r.Decode(img)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if res.Text != "ABC123" {
		t.Errorf("Text = %q, want ABC123", res.Text)
	}
	if res.Format != "QR_CODE" {
		t.Errorf("Format = %q, want QR_CODE", res.Format)
	}
	if len(res.Points) < 3 {
		t.Fatalf("expected at least 3 finder points, got %d", len(res.Points))
	}
	for _, p := range res.Points {
		if p.X < 0 || p.X > 200 || p.Y < 0 || p.Y > 200 {
			t.Errorf("point %+v outside the 200x200 frame", p)
		}
	}
}

func TestMultiReader_BlankFrameIsRoutine(t *testing.T) {
	r, err := NewMultiReader(DefaultConfig())
	if err != nil {
		t.Fatalf("NewMultiReader: %v", err)
	}

	blank := image.NewGray(image.Rect(0, 0, 160, 120))
	draw.Draw(blank, blank.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	res, err := r.Decode(blank)
	if res != nil {
		t.Fatalf("expected no result on a blank frame, got %+v", res)
	}
	if err == nil {
		t.Fatal("expected a not-found error")
	}
	if !IsRoutine(err) {
		t.Errorf("blank frame error should be routine, got %T: %v", err, err)
	}
}

func TestNewMultiReader_Config(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"qr only", Config{Formats: []string{FormatQRCode}}, false},
		{"empty", Config{}, true},
		{"unknown format", Config{Formats: []string{"pdf_417"}}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewMultiReader(tc.cfg)
			if (err != nil) != tc.wantErr {
				t.Errorf("NewMultiReader() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestSupportedFormats(t *testing.T) {
	got := SupportedFormats()
	if len(got) != 5 {
		t.Fatalf("SupportedFormats() = %v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] > got[i] {
			t.Errorf("formats not sorted: %v", got)
		}
	}
}
