package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bugparty/wpctl/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage wpctl configuration",
	Long:  `Manage where wpctl keeps its settings, its language and the WordPress.com OAuth2 application.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration interactively",
	Long: `Create a configuration file by prompting for the settings file location,
the language and the optional WordPress.com OAuth2 application.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Determine config path
		configPath := cfgFile
		if configPath == "" {
			defaultPath, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			configPath = defaultPath
		}

		// Existing values are offered as defaults
		current, err := config.Load(configPath)
		if err != nil {
			return err
		}

		p := newPrompter()
		cfg := *current
		if cfg.SettingsPath, err = p.line("Settings file", current.SettingsPath); err != nil {
			return err
		}
		if cfg.Lang, err = p.line("Language (auto, en, zh-cn)", current.Lang); err != nil {
			return err
		}
		if cfg.Profile, err = p.line("Profile (empty for the default profile)", current.Profile); err != nil {
			return err
		}
		if cfg.WpCom.ClientID, err = p.line("WordPress.com client ID (optional)", current.WpCom.ClientID); err != nil {
			return err
		}
		if cfg.WpCom.ClientID != "" {
			secret, err := p.secret("WordPress.com client secret")
			if err != nil {
				return err
			}
			cfg.WpCom.ClientSecret = firstNonEmpty(secret, current.WpCom.ClientSecret)
			if cfg.WpCom.RedirectURL, err = p.line("WordPress.com redirect URL", current.WpCom.RedirectURL); err != nil {
				return err
			}
		}

		// Save config
		if err := config.Save(&cfg, configPath); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		if jsonOutput {
			output := map[string]string{
				"status": "success",
				"path":   configPath,
			}
			return json.NewEncoder(os.Stdout).Encode(output)
		}

		fmt.Printf("✓ Configuration saved to %s\n", configPath)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long:  `Show the current configuration with the WordPress.com client secret redacted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		secret := ""
		if cfg.WpCom.ClientSecret != "" {
			secret = redactToken(cfg.WpCom.ClientSecret)
		}

		if jsonOutput {
			output := map[string]any{
				"settings": cfg.SettingsPath,
				"profile":  cfg.Profile,
				"lang":     cfg.Lang,
				"debug":    cfg.Debug,
				"log_file": cfg.LogFile,
				"timeout":  cfg.Timeout.String(),
				"wpcom": map[string]string{
					"client_id":     cfg.WpCom.ClientID,
					"client_secret": secret,
					"redirect_url":  cfg.WpCom.RedirectURL,
				},
			}
			return json.NewEncoder(os.Stdout).Encode(output)
		}

		fmt.Printf("Settings: %s\n", cfg.SettingsPath)
		fmt.Printf("Profile: %s\n", firstNonEmpty(cfg.Profile, "(default)"))
		fmt.Printf("Language: %s\n", cfg.Lang)
		fmt.Printf("Timeout: %s\n", cfg.Timeout)
		if cfg.LogFile != "" {
			fmt.Printf("Log File: %s\n", cfg.LogFile)
		}
		if cfg.WpCom.ClientID != "" {
			fmt.Printf("WordPress.com Client ID: %s\n", cfg.WpCom.ClientID)
			fmt.Printf("WordPress.com Client Secret: %s\n", secret)
			fmt.Printf("WordPress.com Redirect URL: %s\n", cfg.WpCom.RedirectURL)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

// redactToken masks most of the token for security
func redactToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
