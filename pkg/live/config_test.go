package live

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Address != ":8080" {
		t.Errorf("Address = %q, want %q", cfg.Address, ":8080")
	}
	if cfg.ReadTimeout != 60*time.Second {
		t.Errorf("ReadTimeout = %v, want %v", cfg.ReadTimeout, 60*time.Second)
	}
	if cfg.HeartbeatInterval != 30*time.Second {
		t.Errorf("HeartbeatInterval = %v, want %v", cfg.HeartbeatInterval, 30*time.Second)
	}
	if cfg.MaxMessageSize != 64*1024 {
		t.Errorf("MaxMessageSize = %d, want %d", cfg.MaxMessageSize, 64*1024)
	}
	if cfg.MaxEventQueue != 256 {
		t.Errorf("MaxEventQueue = %d, want %d", cfg.MaxEventQueue, 256)
	}
	if cfg.MaxSessions != 0 {
		t.Errorf("MaxSessions = %d, want 0", cfg.MaxSessions)
	}
	if cfg.CheckOrigin == nil {
		t.Error("CheckOrigin = nil, want SameOriginCheck")
	}
	if !cfg.EnableCompression {
		t.Error("EnableCompression = false, want true")
	}
}

func TestFillDefaultsKeepsSetFields(t *testing.T) {
	cfg := &Config{
		Address:     ":3000",
		ReadTimeout: 5 * time.Second,
		MaxSessions: 10,
	}
	cfg.fillDefaults()

	if cfg.Address != ":3000" {
		t.Errorf("Address = %q, want %q", cfg.Address, ":3000")
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want %v", cfg.ReadTimeout, 5*time.Second)
	}
	if cfg.MaxSessions != 10 {
		t.Errorf("MaxSessions = %d, want 10", cfg.MaxSessions)
	}

	// Unset fields picked up defaults.
	if cfg.WriteTimeout != 10*time.Second {
		t.Errorf("WriteTimeout = %v, want %v", cfg.WriteTimeout, 10*time.Second)
	}
	if cfg.CheckOrigin == nil {
		t.Error("CheckOrigin = nil after fillDefaults")
	}
	if cfg.MaxEventQueue != 256 {
		t.Errorf("MaxEventQueue = %d, want 256", cfg.MaxEventQueue)
	}
}

func TestConfigClone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()

	clone.Address = ":9999"
	if cfg.Address == clone.Address {
		t.Error("Clone() shares Address with original")
	}

	var nilCfg *Config
	if nilCfg.Clone() != nil {
		t.Error("Clone() of nil = non-nil")
	}
}

func TestSameOriginCheck(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{"no origin", "", "example.com", true},
		{"same host", "http://example.com", "example.com", true},
		{"same host with port", "http://example.com:3000", "example.com:3000", true},
		{"different host", "http://evil.com", "example.com", false},
		{"different port", "http://example.com:9999", "example.com:3000", false},
		{"garbage origin", "://///", "example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "http://"+tt.host+"/", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}

			if got := SameOriginCheck(r); got != tt.want {
				t.Errorf("SameOriginCheck() = %v, want %v", got, tt.want)
			}
		})
	}
}
