package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bugparty/wpctl/internal/api"
	"github.com/bugparty/wpctl/internal/config"
	"github.com/bugparty/wpctl/internal/i18n"
	"github.com/bugparty/wpctl/internal/logging"
	"github.com/bugparty/wpctl/internal/models"
	"github.com/bugparty/wpctl/internal/passcrypto"
	"github.com/bugparty/wpctl/internal/settings"
)

var (
	cfgFile      string
	settingsFile string
	profileName  string
	jsonOutput   bool
	debugMode    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "wpctl",
	Short: "wpctl - Publish markdown notes to WordPress from the command line",
	Long: `wpctl publishes markdown notes to WordPress sites through XML-RPC,
the REST API (miniOrange or application passwords) or WordPress.com OAuth2.

Add a site with 'wpctl profile add', then publish with 'wpctl publish note.md'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default ~/.config/wpctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "settings file path (overrides config and env)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile to use (default: the default profile)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON instead of human-readable")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")
}

// loadConfig loads the configuration from file and environment variables,
// then applies CLI flag overrides if provided.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	// Apply CLI flag overrides (highest precedence)
	if settingsFile != "" {
		cfg.SettingsPath = settingsFile
	}
	if profileName != "" {
		cfg.Profile = profileName
	}
	if debugMode {
		cfg.Debug = true
	}
	return cfg, nil
}

// app is what a command needs once configuration is loaded
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	closeLog func() error
	cipher   *passcrypto.Cipher
	store    *settings.Store
	settings settings.Settings
	i18n     *i18n.Catalog
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(logging.Options{
		Debug: cfg.Debug,
		JSON:  jsonOutput,
		Path:  cfg.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	cipher := passcrypto.New()
	if !cipher.CanUse() {
		logger.Warn().Msg("authenticated cipher unavailable, falling back to obfuscation")
		cipher = passcrypto.NewFallback()
	}

	store := settings.NewStore(cfg.SettingsPath, cipher, logger)
	s, err := store.Load()
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	lang := cfg.Lang
	if lang == "" || strings.EqualFold(lang, "auto") {
		lang = s.Lang
	}
	catalog, err := i18n.New(lang)
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		closeLog: closeLog,
		cipher:   cipher,
		store:    store,
		settings: s,
		i18n:     catalog,
	}, nil
}

func (a *app) Close() {
	_ = a.closeLog()
}

// selectedProfile returns the --profile profile, or the default one
func (a *app) selectedProfile() (*models.Profile, error) {
	if a.cfg.Profile != "" {
		return a.settings.Profile(a.cfg.Profile)
	}
	p, err := a.settings.DefaultProfile()
	if errors.Is(err, settings.ErrNoProfiles) {
		return nil, fmt.Errorf("%s: run 'wpctl profile add' first", a.i18n.T(i18n.ErrNoProfile))
	}
	return p, err
}

func (a *app) client(profile models.Profile) (api.Client, error) {
	client, err := api.NewClient(profile,
		api.WithLogger(a.logger),
		api.WithTranslator(a.i18n),
		api.WithRequester(api.NewHTTPRequester(a.cfg.Timeout)),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.i18n.T(i18n.ErrInvalidConfiguration), err)
	}
	return client, nil
}

// credentials uses the saved password of a profile and prompts for the
// missing parts otherwise
func (a *app) credentials() api.CredentialSource {
	stored := api.StoredCredentials(a.cipher)
	return api.CredentialSourceFunc(func(ctx context.Context, profile models.Profile) (api.Credentials, error) {
		creds, err := stored.Credentials(ctx, profile)
		if err == nil {
			return creds, nil
		}
		if !errors.Is(err, api.ErrNoCredentials) {
			return api.Credentials{}, fmt.Errorf("%s: %w", a.i18n.T(i18n.ErrDecryptPassword), err)
		}
		return promptCredentials(profile)
	})
}

// login resolves credentials for client, or none when it needs no login
func (a *app) login(ctx context.Context, client api.Client, profile models.Profile) (api.Credentials, error) {
	if !client.NeedsLogin() {
		return api.Credentials{}, nil
	}
	return a.credentials().Credentials(ctx, profile)
}
