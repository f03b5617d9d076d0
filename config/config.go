package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
)

// AppName names the config directory and files
const AppName = "cliphoard"

type Config struct {
	Settings SettingsConfig `toml:"settings"`
	Popup    PopupConfig    `toml:"popup"`
	Paste    PasteConfig    `toml:"paste"`
	Web      WebConfig      `toml:"web"`
	Storage  StorageConfig  `toml:"storage"`
	Tray     TrayConfig     `toml:"tray"`
	Log      LogConfig      `toml:"log"`
}

type SettingsConfig struct {
	Path     string `toml:"path"`
	Autosave bool   `toml:"autosave"`
}

type PopupConfig struct {
	View string `toml:"view"`
}

type PasteConfig struct {
	Combo    string `toml:"combo"`
	SettleMs int    `toml:"settle_ms"`
}

type WebConfig struct {
	Enabled     bool `toml:"enabled"`
	Port        int  `toml:"port"`
	OpenOnStart bool `toml:"open_on_start"`
}

type StorageConfig struct {
	Enabled       bool   `toml:"enabled"`
	Path          string `toml:"path"`
	RetentionDays int    `toml:"retention_days"`
}

type TrayConfig struct {
	Enabled bool `toml:"enabled"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Popup views
const (
	ViewMenu = "menu"
	ViewWeb  = "web"
)

// Default configuration
func defaultConfig(configDir string) *Config {
	view := ViewWeb
	if runtime.GOOS == "windows" {
		view = ViewMenu
	}
	combo := "ctrl+v"
	if runtime.GOOS == "darwin" {
		combo = "cmd+v"
	}

	return &Config{
		Settings: SettingsConfig{
			Path:     "ClipHoard-SettingsData.txt",
			Autosave: false,
		},
		Popup: PopupConfig{
			View: view,
		},
		Paste: PasteConfig{
			Combo:    combo,
			SettleMs: 20,
		},
		Web: WebConfig{
			Enabled:     true,
			Port:        7457,
			OpenOnStart: false,
		},
		Storage: StorageConfig{
			Enabled:       true,
			Path:          filepath.Join(configDir, AppName+".db"),
			RetentionDays: 90,
		},
		Tray: TrayConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the per-user configuration directory, creating it
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	configDir := filepath.Join(base, AppName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// ConfigPath returns the path to the configuration file
func ConfigPath() (string, error) {
	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads the configuration from the TOML file
// If the file doesn't exist, it creates it with default values
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration at configPath, creating it with defaults
// if it doesn't exist
func LoadFrom(configPath string) (*Config, error) {
	// If config doesn't exist, create it with defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := defaultConfig(filepath.Dir(configPath))
		if err := save(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	// Load existing config
	cfg := defaultConfig(filepath.Dir(configPath))
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Popup.View {
	case ViewMenu, ViewWeb:
	default:
		return fmt.Errorf("invalid popup view %q (want %q or %q)", c.Popup.View, ViewMenu, ViewWeb)
	}
	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return fmt.Errorf("invalid web port %d", c.Web.Port)
	}
	if c.Storage.RetentionDays < 0 {
		return fmt.Errorf("invalid storage retention_days %d", c.Storage.RetentionDays)
	}
	if c.Paste.SettleMs < 0 {
		return fmt.Errorf("invalid paste settle_ms %d", c.Paste.SettleMs)
	}
	if _, err := ParseHotkey(c.Paste.Combo); err != nil {
		return fmt.Errorf("invalid paste combo: %w", err)
	}
	return nil
}

// save writes the configuration to the TOML file
func save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// KeyCombo represents a parsed keyboard combination
type KeyCombo struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Win   bool
	Key   string
}

// ParseHotkey parses a combo string like "ctrl+v" or "cmd+v"
func ParseHotkey(combo string) (KeyCombo, error) {
	var kc KeyCombo
	if strings.TrimSpace(combo) == "" {
		return kc, fmt.Errorf("empty hotkey combo")
	}
	parts := strings.Split(strings.ToLower(combo), "+")

	for i, part := range parts {
		part = strings.TrimSpace(part)

		// Check if this part is a modifier
		isModifier := false
		switch part {
		case "ctrl", "control":
			kc.Ctrl = true
			isModifier = true
		case "shift":
			kc.Shift = true
			isModifier = true
		case "alt", "option":
			kc.Alt = true
			isModifier = true
		case "win", "windows", "cmd", "command", "super":
			kc.Win = true
			isModifier = true
		}

		// If it's not a modifier and it's the last part, it's the key
		if !isModifier {
			if i == len(parts)-1 {
				kc.Key = part
			} else {
				return kc, fmt.Errorf("unknown modifier: %s", part)
			}
		}
	}

	if kc.Key == "" {
		return kc, fmt.Errorf("no key specified in combo")
	}

	return kc, nil
}
