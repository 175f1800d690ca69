package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Port       int
	BindIP     string // empty = outbound-route address at startup
	Device     string // friendly name; empty = first device found
	LogLevel   string
	LogFormat  string
	FFmpegPath string
	Bitrate    string
	Preset     string
	ReadyBytes int64 // file-mode transcode output buffered before serving
}

// fileConfig mirrors Config for the optional TOML config file. Pointer
// fields distinguish "absent" from zero values.
type fileConfig struct {
	Port       *int    `toml:"port"`
	BindIP     *string `toml:"bind_ip"`
	Device     *string `toml:"device"`
	LogLevel   *string `toml:"log_level"`
	LogFormat  *string `toml:"log_format"`
	FFmpegPath *string `toml:"ffmpeg_path"`
	Bitrate    *string `toml:"bitrate"`
	Preset     *string `toml:"preset"`
	ReadyBytes *int64  `toml:"ready_bytes"`
}

// LoadConfig builds the configuration from defaults, then the TOML file at
// filePath (when non-empty), then environment variables. Later layers win;
// command-line flags are applied on top by the caller.
func LoadConfig(filePath string) (Config, error) {
	cfg := Config{
		Port:       7000,
		LogLevel:   "info",
		LogFormat:  "text",
		FFmpegPath: "ffmpeg",
		Bitrate:    "6000k",
		Preset:     "ultrafast",
		ReadyBytes: 60000000,
	}

	if filePath != "" {
		if err := cfg.applyFile(filePath); err != nil {
			return Config{}, err
		}
	}

	cfg.Port = int(getEnvInt64("LISTEN_PORT", int64(cfg.Port)))
	cfg.BindIP = getEnv("BIND_IP", cfg.BindIP)
	cfg.Device = getEnv("DEVICE_NAME", cfg.Device)
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", cfg.LogFormat))
	cfg.FFmpegPath = getEnv("FFMPEG_PATH", cfg.FFmpegPath)
	cfg.Bitrate = getEnv("TRANSCODE_BITRATE", cfg.Bitrate)
	cfg.Preset = getEnv("TRANSCODE_PRESET", cfg.Preset)
	cfg.ReadyBytes = getEnvInt64("TRANSCODE_READY_BYTES", cfg.ReadyBytes)

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Port != nil {
		c.Port = *fc.Port
	}
	if fc.BindIP != nil {
		c.BindIP = *fc.BindIP
	}
	if fc.Device != nil {
		c.Device = *fc.Device
	}
	if fc.LogLevel != nil {
		c.LogLevel = strings.ToLower(*fc.LogLevel)
	}
	if fc.LogFormat != nil {
		c.LogFormat = strings.ToLower(*fc.LogFormat)
	}
	if fc.FFmpegPath != nil {
		c.FFmpegPath = *fc.FFmpegPath
	}
	if fc.Bitrate != nil {
		c.Bitrate = *fc.Bitrate
	}
	if fc.Preset != nil {
		c.Preset = *fc.Preset
	}
	if fc.ReadyBytes != nil {
		c.ReadyBytes = *fc.ReadyBytes
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	if parsed < 0 {
		return fallback
	}
	return parsed
}
