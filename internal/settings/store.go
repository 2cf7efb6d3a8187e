package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Store loads and saves settings as a JSON file
type Store struct {
	path   string
	enc    Encrypter
	logger zerolog.Logger
}

// NewStore creates a store for the settings file at path
func NewStore(path string, enc Encrypter, logger zerolog.Logger) *Store {
	return &Store{path: path, enc: enc, logger: logger}
}

// Path returns the settings file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings file, migrating and rewriting it when the schema is
// stale. A missing file yields the defaults stamped with the current version.
func (s *Store) Load() (Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			defaults := Defaults()
			defaults.Version = Current
			return defaults, nil
		}
		return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings file %s: %w", s.path, err)
	}

	result, err := Upgrade(raw, Current, s.enc)
	if err != nil {
		return Settings{}, err
	}
	if result.NeedUpgrade {
		s.logger.Info().Str("path", s.path).Str("version", string(Current)).Msg("migrating settings")
		if err := s.Save(result.Settings); err != nil {
			return Settings{}, fmt.Errorf("failed to save migrated settings: %w", err)
		}
	}

	if err := result.Settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings in %s: %w", s.path, err)
	}
	return result.Settings, nil
}

// Save writes settings to disk with owner-only permissions
func (s *Store) Save(settings Settings) error {
	if settings.Version == "" {
		settings.Version = Current
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	// WriteFile keeps the mode of an existing file
	if err := os.Chmod(s.path, 0600); err != nil {
		return fmt.Errorf("failed to set settings file permissions: %w", err)
	}

	s.logger.Debug().Str("path", s.path).Int("profiles", len(settings.Profiles)).Msg("settings saved")
	return nil
}
