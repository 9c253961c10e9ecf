package camera

import (
	"errors"
	"fmt"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	for name, cfg := range Presets() {
		t.Run(name, func(t *testing.T) {
			if errs := cfg.Validate(); len(errs) > 0 {
				t.Errorf("preset %s invalid: %v", name, errs)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"too narrow", func(c *Config) { c.Width = 100 }, true},
		{"too tall", func(c *Config) { c.Height = 5000 }, true},
		{"zero framerate", func(c *Config) { c.Framerate = 0 }, true},
		{"quality over 100", func(c *Config) { c.Quality = 101 }, true},
		{"native preview", func(c *Config) { c.PreviewWidth = 0 }, false},
		{"tiny preview", func(c *Config) { c.PreviewWidth = 20 }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			errs := cfg.Validate()
			if (len(errs) > 0) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", errs, tc.wantErr)
			}
		})
	}
}

func TestConfig_DeviceIndex(t *testing.T) {
	tests := []struct {
		device string
		want   int
		ok     bool
	}{
		{"", 0, true},
		{"2", 2, true},
		{"-1", 0, false},
		{"/dev/video0", 0, false},
		{"rtsp://cam.local/stream", 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.device, func(t *testing.T) {
			cfg := Config{Device: tc.device}
			got, ok := cfg.DeviceIndex()
			if got != tc.want || ok != tc.ok {
				t.Errorf("DeviceIndex() = (%d, %v), want (%d, %v)", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestGetPreset_Unknown(t *testing.T) {
	if GetPreset("8k") != nil {
		t.Error("expected nil for unknown preset")
	}
	if p := GetPreset(PresetLegacy); p == nil || p.Width != 640 {
		t.Errorf("legacy preset = %+v, want width 640", p)
	}
}

func TestIsDeviceError(t *testing.T) {
	wrapped := fmt.Errorf("%w: open default: permission denied", ErrDeviceUnavailable)

	if !IsDeviceError(wrapped) {
		t.Error("wrapped ErrDeviceUnavailable should be a device error")
	}
	if !IsDeviceError(ErrSourceEnded) {
		t.Error("ErrSourceEnded should be a device error")
	}
	if IsDeviceError(ErrEmptyFrame) {
		t.Error("ErrEmptyFrame is transient, not a device error")
	}
	if IsDeviceError(errors.New("boom")) {
		t.Error("unrelated error classified as device error")
	}
}
