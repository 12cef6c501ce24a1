package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile() = %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
data_plane_url: https://hosted.rudderlabs.com
write_key: wk-123
state_path: /tmp/rudderbridge.json
events_per_minute: 100
flush_interval_ms: 5000
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.DataPlaneURL != "https://hosted.rudderlabs.com" {
		t.Errorf("DataPlaneURL = %q", cfg.DataPlaneURL)
	}
	if cfg.WriteKey != "wk-123" || cfg.EventsPerMinute != 100 || cfg.FlushIntervalMs != 5000 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing write key",
			cfg:     Config{DataPlaneURL: "https://dp.local", StatePath: "/tmp/s.json"},
			wantErr: "write_key",
		},
		{
			name:    "blank write key",
			cfg:     Config{DataPlaneURL: "https://dp.local", WriteKey: "  ", StatePath: "/tmp/s.json"},
			wantErr: "write_key",
		},
		{
			name:    "bad data plane url",
			cfg:     Config{DataPlaneURL: "not-a-url", WriteKey: "wk", StatePath: "/tmp/s.json"},
			wantErr: "data_plane_url",
		},
		{
			name:    "missing state path",
			cfg:     Config{DataPlaneURL: "https://dp.local", WriteKey: "wk"},
			wantErr: "state_path",
		},
		{
			name: "ok",
			cfg:  Config{DataPlaneURL: "https://dp.local", WriteKey: "wk", StatePath: "/tmp/s.json"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate() = %v, want error naming %s", err, tc.wantErr)
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("RUDDERBRIDGE_DATA_PLANE_URL", "https://dp.local")
	t.Setenv("RUDDERBRIDGE_WRITE_KEY", "wk-env")
	t.Setenv("RUDDERBRIDGE_STATE_PATH", "/tmp/env.json")
	t.Setenv("RUDDERBRIDGE_EVENTS_PER_MINUTE", "25")
	t.Setenv("RUDDERBRIDGE_WATCH_STATE", "true")

	cfg := FromEnv()
	if cfg.DataPlaneURL != "https://dp.local" || cfg.WriteKey != "wk-env" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.EventsPerMinute != 25 || !cfg.WatchState {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
