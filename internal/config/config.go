// Package config loads the wpctl CLI configuration: where the settings
// file lives, which profile to use and how to log.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppName names the config directory and the environment prefix
const AppName = "wpctl"

// WpCom holds the WordPress.com OAuth2 application used by profile login-wpcom
type WpCom struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// Config represents the application configuration
type Config struct {
	// SettingsPath is the JSON settings file holding profiles and defaults
	SettingsPath string        `mapstructure:"settings"`
	Profile      string        `mapstructure:"profile"`
	Lang         string        `mapstructure:"lang"`
	Debug        bool          `mapstructure:"debug"`
	LogFile      string        `mapstructure:"log_file"`
	Timeout      time.Duration `mapstructure:"timeout"`
	WpCom        WpCom         `mapstructure:"wpcom"`
}

var keys = []string{
	"settings",
	"profile",
	"lang",
	"debug",
	"log_file",
	"timeout",
	"wpcom.client_id",
	"wpcom.client_secret",
	"wpcom.redirect_url",
}

// Load loads configuration from file and environment variables.
// Environment variables (WPCTL_*) take precedence over config file values.
// A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	settingsPath, err := DefaultSettingsPath()
	if err != nil {
		return nil, err
	}
	v.SetDefault("settings", settingsPath)
	v.SetDefault("lang", "auto")
	v.SetDefault("timeout", 30*time.Second)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("invalid configuration: timeout must be positive, got %s", cfg.Timeout)
	}
	cfg.SettingsPath = expandHome(cfg.SettingsPath)
	cfg.LogFile = expandHome(cfg.LogFile)

	return &cfg, nil
}

// DefaultConfigDir returns ~/.config/wpctl
func DefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", AppName), nil
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultSettingsPath returns the default settings file path
func DefaultSettingsPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data.json"), nil
}

// Save writes configuration to the specified path
func Save(cfg *Config, configPath string) error {
	// Ensure directory exists with restricted permissions (owner-only)
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.Set("settings", cfg.SettingsPath)
	v.Set("profile", cfg.Profile)
	v.Set("lang", cfg.Lang)
	v.Set("debug", cfg.Debug)
	v.Set("log_file", cfg.LogFile)
	v.Set("timeout", cfg.Timeout.String())
	if cfg.WpCom != (WpCom{}) {
		v.Set("wpcom.client_id", cfg.WpCom.ClientID)
		v.Set("wpcom.client_secret", cfg.WpCom.ClientSecret)
		v.Set("wpcom.redirect_url", cfg.WpCom.RedirectURL)
	}

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Set restrictive permissions on config file (owner read/write only)
	if err := os.Chmod(configPath, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
