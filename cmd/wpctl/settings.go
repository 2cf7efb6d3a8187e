package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bugparty/wpctl/internal/i18n"
	"github.com/bugparty/wpctl/internal/logging"
	"github.com/bugparty/wpctl/internal/models"
	"github.com/bugparty/wpctl/internal/passcrypto"
	"github.com/bugparty/wpctl/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect and migrate the settings file",
	Long: `The settings file holds the profiles and publishing defaults. It uses
the same layout as the note app plugin's data.json.`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the settings with secrets redacted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s := redactSettings(a.settings)
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}

		fmt.Printf("File:                   %s\n", a.store.Path())
		fmt.Printf("Version:                %s\n", s.Version)
		fmt.Printf("Language:               %s\n", s.Lang)
		fmt.Printf("Default Post Status:    %s\n", s.DefaultPostStatus)
		fmt.Printf("Default Comment Status: %s\n", s.DefaultCommentStatus)
		fmt.Printf("Default Post Type:      %s\n", firstNonEmpty(s.DefaultPostType, models.PostTypePost))
		fmt.Printf("Remember Categories:    %s\n", boolToStatus(s.RememberLastSelectedCategories))
		fmt.Printf("MathJax Output:         %s\n", s.MathJaxOutputType)
		fmt.Printf("Comments:               %s\n", s.CommentConvertMode)
		fmt.Printf("Raw HTML:               %s\n", boolToStatus(s.EnableHTML))
		fmt.Printf("Raw Markdown Upload:    %s\n", boolToStatus(s.UploadRawMarkdown))
		fmt.Printf("Replace Media Links:    %s\n", boolToStatus(s.ReplaceMediaLinks))
		fmt.Printf("Profiles:               %d\n", len(s.Profiles))
		return nil
	},
}

var settingsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Upgrade the settings file to the current version",
	Long: `Rewrite an unversioned settings file in the current layout. The flat
endpoint and credentials of old files become a single default profile, and
plaintext passwords are encrypted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		catalog, err := i18n.New(cfg.Lang)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(cfg.SettingsPath)
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no settings file at %s", cfg.SettingsPath)
		}
		if err != nil {
			return fmt.Errorf("failed to read settings file: %w", err)
		}
		var raw any
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to parse settings file %s: %w", cfg.SettingsPath, err)
		}

		cipher := passcrypto.New()
		if !cipher.CanUse() {
			cipher = passcrypto.NewFallback()
		}
		result, err := settings.Upgrade(raw, settings.Current, cipher)
		if err != nil {
			return err
		}

		if result.NeedUpgrade {
			logger, closeLog, err := logging.New(logging.Options{Debug: cfg.Debug, JSON: jsonOutput, Path: cfg.LogFile})
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			defer func() { _ = closeLog() }()
			logger.Info().Str("path", cfg.SettingsPath).Str("version", string(settings.Current)).Msg("migrating settings")

			store := settings.NewStore(cfg.SettingsPath, cipher, logger)
			if err := store.Save(result.Settings); err != nil {
				return fmt.Errorf("failed to save settings: %w", err)
			}
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(map[string]any{
				"migrated": result.NeedUpgrade,
				"version":  settings.Current,
				"path":     cfg.SettingsPath,
			})
		}
		if result.NeedUpgrade {
			fmt.Printf("✓ %s (%s)\n", catalog.T(i18n.MsgSettingsMigrated), settings.Current)
			return nil
		}
		fmt.Printf("Settings already at version %s\n", result.Settings.Version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsMigrateCmd)
}

// redactSettings hides saved passwords and tokens
func redactSettings(s settings.Settings) settings.Settings {
	profiles := make([]models.Profile, len(s.Profiles))
	for i, p := range s.Profiles {
		if p.EncryptedPassword != nil {
			p.EncryptedPassword = &passcrypto.Encrypted{Encrypted: "***"}
		}
		if p.WpComOAuth2Token != nil {
			tok := *p.WpComOAuth2Token
			tok.AccessToken = redactToken(tok.AccessToken)
			p.WpComOAuth2Token = &tok
		}
		profiles[i] = p
	}
	s.Profiles = profiles
	return s
}

func boolToStatus(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
