package camera

import (
	"errors"
	"testing"
)

func TestManager_UpdateConfig(t *testing.T) {
	m := NewManager(DefaultConfig())

	var applied Config
	calls := 0
	m.OnConfigChange = func(cfg Config) error {
		applied = cfg
		calls++
		return nil
	}

	err := m.UpdateConfig(map[string]interface{}{
		"width":  float64(640),
		"height": float64(480),
		"device": "1",
		"mirror": true,
	})
	if err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}

	got := m.GetConfig()
	if got.Width != 640 || got.Height != 480 || got.Device != "1" || !got.Mirror {
		t.Errorf("config not applied: %+v", got)
	}
	if calls != 1 || applied != got {
		t.Errorf("OnConfigChange calls=%d applied=%+v", calls, applied)
	}
}

func TestManager_UpdateConfig_PresetKeepsDevice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device = "/dev/video2"
	m := NewManager(cfg)

	if err := m.UpdateConfig(map[string]interface{}{"preset": PresetLowCPU}); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}

	got := m.GetConfig()
	if got.Device != "/dev/video2" {
		t.Errorf("preset overwrote device: %q", got.Device)
	}
	if got.Framerate != 10 {
		t.Errorf("Framerate = %d, want 10", got.Framerate)
	}
}

func TestManager_UpdateConfig_Errors(t *testing.T) {
	m := NewManager(DefaultConfig())

	if err := m.UpdateConfig(map[string]interface{}{"preset": "nope"}); err == nil {
		t.Error("expected error for unknown preset")
	}
	if err := m.UpdateConfig(map[string]interface{}{"width": 10}); err == nil {
		t.Error("expected validation error")
	}
	if m.GetConfig().Width != DefaultConfig().Width {
		t.Error("invalid update must not change config")
	}

	boom := errors.New("reopen failed")
	m.OnConfigChange = func(Config) error { return boom }
	if err := m.UpdateConfig(map[string]interface{}{"quality": 50}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped callback error, got %v", err)
	}
}

func TestManager_GetConfigJSON(t *testing.T) {
	m := NewManager(DefaultConfig())
	js := m.GetConfigJSON()

	if js["width"] != float64(1280) {
		t.Errorf("width = %v, want 1280", js["width"])
	}
	if _, ok := js["preview_width"]; !ok {
		t.Error("preview_width missing")
	}
}

func TestManager_UpdateConfig_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]interface{}
	}{
		{"unknown key", map[string]interface{}{"exposure": 3}},
		{"string width", map[string]interface{}{"width": "wide"}},
		{"fractional framerate", map[string]interface{}{"framerate": 29.97}},
		{"mirror not bool", map[string]interface{}{"mirror": "yes"}},
		{"preset not string", map[string]interface{}{"preset": 1}},
		{"device object", map[string]interface{}{"device": map[string]interface{}{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(DefaultConfig())
			calls := 0
			m.OnConfigChange = func(Config) error {
				calls++
				return nil
			}

			if err := m.UpdateConfig(tt.params); err == nil {
				t.Fatal("UpdateConfig() = nil, want error")
			}
			if m.GetConfig() != DefaultConfig() || calls != 0 {
				t.Errorf("rejected update changed state: %+v, callbacks %d", m.GetConfig(), calls)
			}
		})
	}
}

func TestManager_UpdateConfig_NumericDevice(t *testing.T) {
	m := NewManager(DefaultConfig())
	if err := m.UpdateConfig(map[string]interface{}{"device": float64(2), "preview_width": float64(0)}); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	if got := m.GetConfig(); got.Device != "2" || got.PreviewWidth != 0 {
		t.Errorf("config = %+v, want device 2 and native preview", got)
	}
}
