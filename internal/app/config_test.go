package app

import (
	"os"
	"path/filepath"
	"testing"
)

func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"LISTEN_PORT", "BIND_IP", "DEVICE_NAME",
		"LOG_LEVEL", "LOG_FORMAT", "FFMPEG_PATH",
		"TRANSCODE_BITRATE", "TRANSCODE_PRESET", "TRANSCODE_READY_BYTES",
	}
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Port", cfg.Port, 7000},
		{"BindIP", cfg.BindIP, ""},
		{"Device", cfg.Device, ""},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFormat", cfg.LogFormat, "text"},
		{"FFmpegPath", cfg.FFmpegPath, "ffmpeg"},
		{"Bitrate", cfg.Bitrate, "6000k"},
		{"Preset", cfg.Preset, "ultrafast"},
		{"ReadyBytes", cfg.ReadyBytes, int64(60000000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", tt.got, tt.got, tt.want, tt.want)
			}
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	setEnvs(t, map[string]string{
		"LISTEN_PORT":           "8090",
		"BIND_IP":               "192.168.1.5",
		"DEVICE_NAME":           "Living Room TV",
		"LOG_LEVEL":             "DEBUG",
		"LOG_FORMAT":            "JSON",
		"FFMPEG_PATH":           "/usr/bin/ffmpeg",
		"TRANSCODE_BITRATE":     "4000k",
		"TRANSCODE_PRESET":      "veryfast",
		"TRANSCODE_READY_BYTES": "1048576",
	})

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Port", cfg.Port, 8090},
		{"BindIP", cfg.BindIP, "192.168.1.5"},
		{"Device", cfg.Device, "Living Room TV"},
		{"LogLevel", cfg.LogLevel, "debug"},
		{"LogFormat", cfg.LogFormat, "json"},
		{"FFmpegPath", cfg.FFmpegPath, "/usr/bin/ffmpeg"},
		{"Bitrate", cfg.Bitrate, "4000k"},
		{"Preset", cfg.Preset, "veryfast"},
		{"ReadyBytes", cfg.ReadyBytes, int64(1048576)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", tt.got, tt.got, tt.want, tt.want)
			}
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
port = 9100
bind_ip = "10.0.0.2"
device = "Bedroom"
log_format = "json"
bitrate = "2500k"
ready_bytes = 2048
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Port", cfg.Port, 9100},
		{"BindIP", cfg.BindIP, "10.0.0.2"},
		{"Device", cfg.Device, "Bedroom"},
		{"LogFormat", cfg.LogFormat, "json"},
		{"Bitrate", cfg.Bitrate, "2500k"},
		{"ReadyBytes", cfg.ReadyBytes, int64(2048)},
		// Fields absent from the file keep their defaults.
		{"LogLevel", cfg.LogLevel, "info"},
		{"FFmpegPath", cfg.FFmpegPath, "ffmpeg"},
		{"Preset", cfg.Preset, "ultrafast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", tt.got, tt.got, tt.want, tt.want)
			}
		})
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("LISTEN_PORT", "9300")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("port = 9100\n"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != 9300 {
		t.Errorf("Port = %d, want 9300 (env over file)", cfg.Port)
	}
}

func TestLoadConfigBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("port = [not toml"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig with malformed file returned nil error")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("LoadConfig with missing file returned nil error")
	}
}

func TestGetEnvInt64InvalidFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		envVal   string
		fallback int64
		want     int64
	}{
		{"empty string", "", 42, 42},
		{"not a number", "abc", 42, 42},
		{"negative number", "-5", 42, 42},
		{"zero", "0", 42, 0},
		{"valid positive", "100", 42, 100},
		{"whitespace around number", "  50  ", 42, 50},
		{"float", "3.14", 42, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT_VAR", tt.envVal)
			got := getEnvInt64("TEST_INT_VAR", tt.fallback)
			if got != tt.want {
				t.Errorf("getEnvInt64(%q, %d) = %d, want %d", tt.envVal, tt.fallback, got, tt.want)
			}
		})
	}
}

func TestGetEnvFallback(t *testing.T) {
	t.Setenv("TEST_EXISTING", "hello")

	if got := getEnv("TEST_EXISTING", "default"); got != "hello" {
		t.Errorf("getEnv(existing) = %q, want %q", got, "hello")
	}

	// Unset to test fallback
	t.Setenv("TEST_MISSING_XYZ", "")
	os.Unsetenv("TEST_MISSING_XYZ")
	if got := getEnv("TEST_MISSING_XYZ", "default"); got != "default" {
		t.Errorf("getEnv(missing) = %q, want %q", got, "default")
	}
}

func TestLogLevelCaseInsensitive(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("LOG_LEVEL", "DEBUG")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q, want %q", cfg.LogLevel, "debug")
	}

	t.Setenv("LOG_LEVEL", "Warn")
	cfg, err = LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel: got %q, want %q", cfg.LogLevel, "warn")
	}
}
