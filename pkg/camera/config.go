// Package camera provides the video source used by the scanner and its
// runtime-configurable capture settings.
package camera

import (
	"fmt"
	"strconv"
)

// Config holds all camera configuration parameters.
// These can be modified via the camera API at runtime.
type Config struct {
	// Device selects the capture device. Empty means the platform default
	// (index 0). A number is a device index, anything else is passed to
	// OpenCV as a path or URL.
	Device string `json:"device" yaml:"device"`

	// === Resolution ===
	Width     int `json:"width" yaml:"width"`         // Requested frame width in pixels
	Height    int `json:"height" yaml:"height"`       // Requested frame height in pixels
	Framerate int `json:"framerate" yaml:"framerate"` // Target FPS

	// === Preview ===
	Quality      int `json:"quality" yaml:"quality"`             // JPEG quality 1-100
	PreviewWidth int `json:"preview_width" yaml:"preview_width"` // Width of streamed preview frames, 0 = native

	// Mirror flips frames horizontally before decoding and preview.
	Mirror bool `json:"mirror" yaml:"mirror"`
}

// Limits of what we ask a webcam for.
const (
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 60
)

// DefaultConfig returns the recommended configuration: 720p at 30 FPS,
// a good trade between decode accuracy and CPU.
func DefaultConfig() Config {
	return Config{
		Device:       "",
		Width:        1280,
		Height:       720,
		Framerate:    30,
		Quality:      75,
		PreviewWidth: 640,
	}
}

// LegacyConfig returns the 640x480 configuration.
// Use this if the camera rejects higher resolutions.
func LegacyConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 640
	cfg.Height = 480
	cfg.PreviewWidth = 0
	return cfg
}

// DeviceIndex returns the numeric device index and true when Device is
// empty or numeric.
func (c *Config) DeviceIndex() (int, bool) {
	if c.Device == "" {
		return 0, true
	}
	i, err := strconv.Atoi(c.Device)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// String describes the device for logs.
func (c *Config) String() string {
	dev := c.Device
	if dev == "" {
		dev = "default"
	}
	return fmt.Sprintf("%s %dx%d@%d", dev, c.Width, c.Height, c.Framerate)
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 3840")
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, "framerate must be between 1 and 60")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}
	if c.PreviewWidth != 0 && (c.PreviewWidth < 160 || c.PreviewWidth > MaxWidth) {
		errors = append(errors, "preview_width must be 0 (native) or between 160 and 3840")
	}

	return errors
}

// Capabilities returns the limits the camera API accepts.
func Capabilities() map[string]interface{} {
	return map[string]interface{}{
		"max_width":     MaxWidth,
		"max_height":    MaxHeight,
		"max_framerate": MaxFramerate,
		"presets":       PresetNames(),
	}
}
