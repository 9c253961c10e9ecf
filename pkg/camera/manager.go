package camera

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Manager owns the camera settings used for the next scan session.
// Changes go through SetConfig so OnConfigChange can restart the session.
type Manager struct {
	mu  sync.RWMutex
	cfg Config

	// OnConfigChange runs after a valid change is stored. Its error is
	// returned to the caller wrapped; the new settings stay in place.
	OnConfigChange func(cfg Config) error
}

// NewManager starts from cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg}
}

// GetConfig returns the current settings.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// SetConfig validates and stores cfg, then runs OnConfigChange.
func (m *Manager) SetConfig(cfg Config) error {
	if problems := cfg.Validate(); len(problems) > 0 {
		return fmt.Errorf("invalid camera settings: %s", strings.Join(problems, "; "))
	}

	m.mu.Lock()
	m.cfg = cfg
	onChange := m.OnConfigChange
	m.mu.Unlock()

	if onChange == nil {
		return nil
	}
	if err := onChange(cfg); err != nil {
		return fmt.Errorf("apply camera settings: %w", err)
	}
	return nil
}

// intSetting names the numeric settings the API may change.
var intSetting = map[string]func(*Config) *int{
	"width":         func(c *Config) *int { return &c.Width },
	"height":        func(c *Config) *int { return &c.Height },
	"framerate":     func(c *Config) *int { return &c.Framerate },
	"quality":       func(c *Config) *int { return &c.Quality },
	"preview_width": func(c *Config) *int { return &c.PreviewWidth },
}

// UpdateConfig applies a partial update as decoded from a JSON body.
// "preset" is applied first and never changes the device; the remaining
// keys override single fields. Unknown keys and wrongly typed values are
// rejected without changing anything.
func (m *Manager) UpdateConfig(params map[string]interface{}) error {
	cfg := m.GetConfig()

	if raw, ok := params["preset"]; ok {
		name, ok := raw.(string)
		if !ok {
			return fmt.Errorf("preset: want a name, got %v", raw)
		}
		preset := GetPreset(name)
		if preset == nil {
			return fmt.Errorf("unknown preset: %s", name)
		}
		device := cfg.Device
		cfg = *preset
		cfg.Device = device
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := params[key]
		switch key {
		case "preset":
		case "device":
			switch v := value.(type) {
			case string:
				cfg.Device = v
			default:
				n, ok := toInt(v)
				if !ok {
					return fmt.Errorf("device: want an index or path, got %v", value)
				}
				cfg.Device = fmt.Sprint(n)
			}
		case "mirror":
			v, ok := value.(bool)
			if !ok {
				return fmt.Errorf("mirror: want true or false, got %v", value)
			}
			cfg.Mirror = v
		default:
			field, known := intSetting[key]
			if !known {
				return fmt.Errorf("unknown camera setting %q", key)
			}
			n, ok := toInt(value)
			if !ok {
				return fmt.Errorf("%s: want a number, got %v", key, value)
			}
			*field(&cfg) = n
		}
	}

	return m.SetConfig(cfg)
}

// GetConfigJSON returns the settings keyed by their JSON names.
func (m *Manager) GetConfigJSON() map[string]interface{} {
	cfg := m.GetConfig()
	data, _ := json.Marshal(cfg)

	out := make(map[string]interface{})
	_ = json.Unmarshal(data, &out)
	return out
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}
