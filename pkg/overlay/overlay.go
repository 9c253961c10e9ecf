// Package overlay draws the detected symbol's bounding box on a transparent
// canvas that is kept at the camera's native frame size.
package overlay

import (
	"io"
	"math"
	"sync"

	"github.com/gogpu/gg"
	"github.com/teslashibe/go-scanner/pkg/decode"
)

// Surface is the 2D canvas the renderer draws on. *gg.Context satisfies it.
type Surface interface {
	Resize(width, height int) error
	Width() int
	Height() int
	Clear()
	SetHexColor(hex string)
	SetLineWidth(width float64)
	DrawRectangle(x, y, w, h float64)
	Stroke() error
	EncodePNG(w io.Writer) error
}

var _ Surface = (*gg.Context)(nil)

// Style is the stroke used for the box.
type Style struct {
	Color     string  `json:"color" yaml:"color" validate:"hexcolor"`
	LineWidth float64 `json:"line_width" yaml:"line_width" validate:"gt=0,lte=32"`
}

// DefaultStyle is a 4px pure green stroke, visible on most scenes.
func DefaultStyle() Style {
	return Style{Color: "#00FF00", LineWidth: 4}
}

// Box is an axis-aligned rectangle in frame pixels.
type Box struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Width of the box.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height of the box.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Contains reports whether p lies inside or on the box.
func (b Box) Contains(p decode.Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// BoundingBox returns the smallest box covering all points.
// ok is false for an empty slice.
func BoundingBox(points []decode.Point) (box Box, ok bool) {
	if len(points) == 0 {
		return Box{}, false
	}
	box = Box{
		MinX: math.Inf(1),
		MinY: math.Inf(1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
	}
	for _, p := range points {
		box.MinX = math.Min(box.MinX, p.X)
		box.MinY = math.Min(box.MinY, p.Y)
		box.MaxX = math.Max(box.MaxX, p.X)
		box.MaxY = math.Max(box.MaxY, p.Y)
	}
	return box, true
}

// Renderer owns the overlay surface. Safe for concurrent use.
type Renderer struct {
	surface Surface
	style   Style
	box     *Box
	mu      sync.Mutex
}

// New creates a renderer drawing on surface.
func New(surface Surface, style Style) *Renderer {
	return &Renderer{
		surface: surface,
		style:   style,
	}
}

// NewCanvas creates a renderer on a fresh gg canvas of the given size.
func NewCanvas(width, height int, style Style) *Renderer {
	return New(gg.NewContext(width, height), style)
}

// DrawBoundingBox resizes the surface to the frame size, clears it, and
// strokes the bounding box of points. No points means Clear.
// A frame size of zero or less leaves the surface size unchanged.
func (r *Renderer) DrawBoundingBox(points []decode.Point, frameWidth, frameHeight int) error {
	box, ok := BoundingBox(points)
	if !ok {
		r.Clear()
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if frameWidth > 0 && frameHeight > 0 {
		if err := r.surface.Resize(frameWidth, frameHeight); err != nil {
			return err
		}
	}
	r.surface.Clear()
	r.box = nil

	r.surface.SetHexColor(r.style.Color)
	r.surface.SetLineWidth(r.style.LineWidth)
	r.surface.DrawRectangle(box.MinX, box.MinY, box.Width(), box.Height())
	if err := r.surface.Stroke(); err != nil {
		return err
	}

	r.box = &box
	return nil
}

// Clear erases the surface without resizing it.
func (r *Renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surface.Clear()
	r.box = nil
}

// Box returns the currently drawn box.
func (r *Renderer) Box() (Box, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.box == nil {
		return Box{}, false
	}
	return *r.box, true
}

// Size returns the surface size in pixels.
func (r *Renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.surface.Width(), r.surface.Height()
}

// EncodePNG writes the current overlay as a PNG.
func (r *Renderer) EncodePNG(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.surface.EncodePNG(w)
}
