// Package settings holds the persisted publishing settings: profiles,
// defaults for new posts and rendering preferences.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bugparty/wpctl/internal/models"
)

// Version tags the settings schema. An absent tag is the legacy V1 shape.
type Version string

const (
	V2 Version = "2"

	// Current is the schema version written by this build
	Current = V2
)

// MathJaxOutputType selects how math blocks are rendered
type MathJaxOutputType string

const (
	MathJaxTeX MathJaxOutputType = "tex"
	MathJaxSVG MathJaxOutputType = "svg"
)

// CommentConvertMode selects what happens to Obsidian %% comments %%
type CommentConvertMode string

const (
	CommentIgnore CommentConvertMode = "ignore"
	CommentHTML   CommentConvertMode = "html"
)

// DefaultProfileName is given to the profile synthesized from legacy settings
const DefaultProfileName = "WordPress"

// Settings is the root persisted object
type Settings struct {
	Version                        Version              `json:"version,omitempty"`
	Lang                           string               `json:"lang"`
	Profiles                       []models.Profile     `json:"profiles"`
	ShowRibbonIcon                 bool                 `json:"showRibbonIcon"`
	DefaultPostStatus              models.PostStatus    `json:"defaultPostStatus"`
	DefaultCommentStatus           models.CommentStatus `json:"defaultCommentStatus"`
	DefaultPostType                string               `json:"defaultPostType,omitempty"`
	RememberLastSelectedCategories bool                 `json:"rememberLastSelectedCategories"`
	ShowWordPressEditConfirm       bool                 `json:"showWordPressEditConfirm"`
	MathJaxOutputType              MathJaxOutputType    `json:"mathJaxOutputType"`
	CommentConvertMode             CommentConvertMode   `json:"commentConvertMode"`
	EnableHTML                     bool                 `json:"enableHtml"`
	UploadRawMarkdown              bool                 `json:"uploadRawMarkdown"`
	ReplaceMediaLinks              bool                 `json:"replaceMediaLinks"`
}

// Defaults returns a fresh copy of the default settings
func Defaults() Settings {
	return Settings{
		Lang:                           "auto",
		Profiles:                       []models.Profile{},
		ShowRibbonIcon:                 false,
		DefaultPostStatus:              models.PostStatusDraft,
		DefaultCommentStatus:           models.CommentStatusOpen,
		RememberLastSelectedCategories: true,
		ShowWordPressEditConfirm:       false,
		MathJaxOutputType:              MathJaxSVG,
		CommentConvertMode:             CommentIgnore,
		EnableHTML:                     false,
		UploadRawMarkdown:              false,
		ReplaceMediaLinks:              true,
	}
}

var (
	// ErrProfileNotFound is returned when no profile has the requested name
	ErrProfileNotFound = errors.New("profile not found")
	// ErrNoProfiles is returned when a default profile is requested but none exist
	ErrNoProfiles = errors.New("no profiles configured")
)

// Validate checks the profile invariants
func (s *Settings) Validate() error {
	defaults := 0
	names := make(map[string]bool, len(s.Profiles))
	for _, p := range s.Profiles {
		if p.Name == "" {
			return fmt.Errorf("profile with endpoint %q has no name", p.Endpoint)
		}
		key := strings.ToLower(p.Name)
		if names[key] {
			return fmt.Errorf("duplicate profile name %q", p.Name)
		}
		names[key] = true
		if p.IsDefault {
			defaults++
		}
		if e := p.EncryptedPassword; e != nil && (e.Key == "") != (e.Vector == "") {
			return fmt.Errorf("profile %q: encrypted password must carry both key and vector or neither", p.Name)
		}
	}
	if defaults > 1 {
		return fmt.Errorf("%d profiles are marked default, at most one is allowed", defaults)
	}
	return nil
}

// Profile returns the profile with the given name (case-insensitive)
func (s *Settings) Profile(name string) (*models.Profile, error) {
	for i := range s.Profiles {
		if strings.EqualFold(s.Profiles[i].Name, name) {
			return &s.Profiles[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// DefaultProfile returns the default profile, or the first profile when none
// is flagged default.
func (s *Settings) DefaultProfile() (*models.Profile, error) {
	if len(s.Profiles) == 0 {
		return nil, ErrNoProfiles
	}
	for i := range s.Profiles {
		if s.Profiles[i].IsDefault {
			return &s.Profiles[i], nil
		}
	}
	return &s.Profiles[0], nil
}

// AddProfile appends a profile. The first profile becomes the default.
func (s *Settings) AddProfile(p models.Profile) error {
	if _, err := s.Profile(p.Name); err == nil {
		return fmt.Errorf("profile %q already exists", p.Name)
	}
	if len(s.Profiles) == 0 {
		p.IsDefault = true
	}
	if p.IsDefault {
		s.clearDefault()
	}
	s.Profiles = append(s.Profiles, p)
	return nil
}

// RemoveProfile deletes a profile. If it was the default, the first
// remaining profile takes over.
func (s *Settings) RemoveProfile(name string) error {
	for i := range s.Profiles {
		if strings.EqualFold(s.Profiles[i].Name, name) {
			wasDefault := s.Profiles[i].IsDefault
			s.Profiles = append(s.Profiles[:i], s.Profiles[i+1:]...)
			if wasDefault && len(s.Profiles) > 0 {
				s.Profiles[0].IsDefault = true
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
}

// SetDefault marks the named profile as the only default
func (s *Settings) SetDefault(name string) error {
	p, err := s.Profile(name)
	if err != nil {
		return err
	}
	s.clearDefault()
	p.IsDefault = true
	return nil
}

func (s *Settings) clearDefault() {
	for i := range s.Profiles {
		s.Profiles[i].IsDefault = false
	}
}
