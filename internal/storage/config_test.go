package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadServerConfig(t *testing.T) {
	t.Run("creates defaults", func(t *testing.T) {
		dir := t.TempDir()
		cfg, err := LoadServerConfig(dir)
		if err != nil {
			t.Fatalf("LoadServerConfig() error = %v", err)
		}
		if cfg.RateLimits != DefaultRateLimits() {
			t.Errorf("RateLimits = %+v", cfg.RateLimits)
		}
		if cfg.Limits.MaxRequestBodyBytes != 10*1024*1024 {
			t.Errorf("MaxRequestBodyBytes = %d", cfg.Limits.MaxRequestBodyBytes)
		}
		if !cfg.CORS.Allows("https://example.com") {
			t.Error("default CORS should allow any origin")
		}
		raw, err := os.ReadFile(filepath.Join(dir, ConfigFileName))
		if err != nil {
			t.Fatalf("config file not written: %v", err)
		}
		if !strings.Contains(string(raw), `"write_rate_per_min": 120`) {
			t.Errorf("unexpected config file:\n%s", raw)
		}
	})
	t.Run("reads existing", func(t *testing.T) {
		dir := t.TempDir()
		data := `{"rate_limits": {"write_rate_per_min": 1, "read_rate_per_min": 0}, "cors": {"allowed_origins": ["http://localhost:3000"]}}`
		if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(data), 0o600); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadServerConfig(dir)
		if err != nil {
			t.Fatalf("LoadServerConfig() error = %v", err)
		}
		if cfg.RateLimits.WriteRatePerMin != 1 || cfg.RateLimits.ReadRatePerMin != 0 {
			t.Errorf("RateLimits = %+v", cfg.RateLimits)
		}
		if cfg.Limits != DefaultLimits() {
			t.Errorf("missing section should keep defaults, got %+v", cfg.Limits)
		}
		if cfg.CORS.Allows("https://example.com") {
			t.Error("origin should be rejected")
		}
		if !cfg.CORS.Allows("http://localhost:3000") {
			t.Error("origin should be allowed")
		}
	})
	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name string
			data string
			want string
		}{
			{"negative rate", `{"rate_limits": {"write_rate_per_min": -1}}`, "write_rate_per_min"},
			{"zero body", `{"limits": {"max_request_body_bytes": 0}}`, "max_request_body_bytes"},
			{"empty origin", `{"cors": {"allowed_origins": [""]}}`, "allowed_origins"},
			{"not json", `{`, "failed to parse"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				dir := t.TempDir()
				if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(tt.data), 0o600); err != nil {
					t.Fatal(err)
				}
				_, err := LoadServerConfig(dir)
				if err == nil || !strings.Contains(err.Error(), tt.want) {
					t.Errorf("LoadServerConfig() error = %v, want it to mention %q", err, tt.want)
				}
			})
		}
	})
}
