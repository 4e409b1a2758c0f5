package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kernel/geoshot/pkg/gemini"
	"github.com/kernel/geoshot/pkg/notice"
)

const (
	SettingsKeyring = "keyring"
	SettingsFile    = "file"
)

type Config struct {
	GeminiBaseURL    string        `yaml:"gemini_base_url"`
	GeminiAPIVersion string        `yaml:"gemini_api_version"`
	GeminiModel      string        `yaml:"gemini_model"`
	HTTPTimeout      time.Duration `yaml:"http_timeout"`

	CDPURL            string `yaml:"cdp_url"`
	ChromeUserDataDir string `yaml:"chrome_user_data_dir"`
	KernelAPIKey      string `yaml:"-"`
	KernelBaseURL     string `yaml:"kernel_base_url"`

	Settings     string `yaml:"settings"`
	SettingsPath string `yaml:"settings_path"`

	NoticeDelay time.Duration `yaml:"notice_delay"`
	Debug       bool          `yaml:"debug"`
}

func defaults() Config {
	return Config{
		GeminiBaseURL:    gemini.DefaultBaseURL,
		GeminiAPIVersion: gemini.DefaultAPIVersion,
		GeminiModel:      gemini.DefaultModel,
		Settings:         SettingsKeyring,
		NoticeDelay:      notice.DefaultDelay,
	}
}

// DefaultPath returns config.yaml inside the user's config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "geoshot", "config.yaml")
}

// Load builds the configuration from defaults, then the YAML file at path (if
// it exists), then the environment. A .env file in the working directory is
// loaded into the environment first without overriding variables already set.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.GeminiBaseURL = getEnv("GEMINI_BASE_URL", cfg.GeminiBaseURL)
	cfg.GeminiAPIVersion = getEnv("GEMINI_API_VERSION", cfg.GeminiAPIVersion)
	cfg.GeminiModel = getEnv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.HTTPTimeout = getEnvDuration("GEOSHOT_HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.CDPURL = getEnv("GEOSHOT_CDP_URL", cfg.CDPURL)
	cfg.ChromeUserDataDir = getEnv("GEOSHOT_CHROME_USER_DATA_DIR", cfg.ChromeUserDataDir)
	cfg.KernelAPIKey = strings.TrimSpace(os.Getenv("KERNEL_API_KEY"))
	cfg.KernelBaseURL = getEnv("KERNEL_BASE_URL", cfg.KernelBaseURL)
	cfg.Settings = strings.ToLower(getEnv("GEOSHOT_SETTINGS", cfg.Settings))
	cfg.SettingsPath = getEnv("GEOSHOT_SETTINGS_PATH", cfg.SettingsPath)
	cfg.NoticeDelay = getEnvDuration("GEOSHOT_NOTICE_DELAY", cfg.NoticeDelay)
	cfg.Debug = getEnvBool("GEOSHOT_DEBUG", cfg.Debug)

	switch cfg.Settings {
	case SettingsKeyring, SettingsFile:
	default:
		return Config{}, fmt.Errorf("unsupported settings backend %q: use %q or %q", cfg.Settings, SettingsKeyring, SettingsFile)
	}
	if cfg.HTTPTimeout < 0 {
		cfg.HTTPTimeout = 0
	}
	if cfg.NoticeDelay <= 0 {
		cfg.NoticeDelay = notice.DefaultDelay
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

// getEnvDuration accepts Go durations ("30s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
