// Package i18n provides the user-facing message catalog.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales
var localesFS embed.FS

// Message keys used by the clients
const (
	ErrCannotParseResponse  = "error_cannotParseResponse"
	ErrInvalidUser          = "error_invalidUser"
	ErrNetwork              = "error_network"
	ErrNoProfile            = "error_noProfile"
	ErrInvalidConfiguration = "error_invalidConfiguration"
	ErrUploadFailed         = "error_uploadFailed"
	ErrNotLoggedIn          = "error_notLoggedIn"
	ErrDecryptPassword      = "error_decryptPassword"
	MsgPublishSuccessfully  = "message_publishSuccessfully"
	MsgSettingsMigrated     = "message_settingsMigrated"
)

// Translator turns a fixed message key into user-facing text
type Translator interface {
	T(key string) string
}

// SupportedLanguages lists the languages with a bundled catalog.
// The first entry is the fallback.
var SupportedLanguages = []string{"en", "zh-cn"}

type messageFile struct {
	Language string            `json:"language"`
	Messages map[string]string `json:"messages"`
}

// Catalog holds the messages of one language plus the English fallback
type Catalog struct {
	lang     string
	messages map[string]string
	fallback map[string]string
}

// New loads the catalog best matching lang. "auto" and "" pick the language
// from the environment.
func New(lang string) (*Catalog, error) {
	code := MatchLanguage(lang)

	fallback, err := loadMessages(SupportedLanguages[0])
	if err != nil {
		return nil, err
	}
	messages := fallback
	if code != SupportedLanguages[0] {
		if messages, err = loadMessages(code); err != nil {
			return nil, err
		}
	}

	return &Catalog{lang: code, messages: messages, fallback: fallback}, nil
}

// MustNew is New for the bundled catalogs, which always parse
func MustNew(lang string) *Catalog {
	c, err := New(lang)
	if err != nil {
		panic(err)
	}
	return c
}

// Lang returns the resolved language code
func (c *Catalog) Lang() string {
	return c.lang
}

// T returns the translation for key, falling back to English and then to
// the key itself.
func (c *Catalog) T(key string) string {
	if msg, ok := c.messages[key]; ok {
		return msg
	}
	if msg, ok := c.fallback[key]; ok {
		return msg
	}
	return key
}

// MatchLanguage maps a language setting onto a supported language code
func MatchLanguage(lang string) string {
	if lang == "" || strings.EqualFold(lang, "auto") {
		lang = envLanguage()
	}

	tag, err := language.Parse(lang)
	if err != nil {
		return SupportedLanguages[0]
	}

	supported := make([]language.Tag, 0, len(SupportedLanguages))
	for _, code := range SupportedLanguages {
		supported = append(supported, language.MustParse(code))
	}
	_, idx, confidence := language.NewMatcher(supported).Match(tag)
	if confidence == language.No || idx < 0 || idx >= len(SupportedLanguages) {
		return SupportedLanguages[0]
	}
	return SupportedLanguages[idx]
}

// envLanguage reads a POSIX locale such as "zh_CN.UTF-8"
func envLanguage() string {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(name); v != "" && v != "C" && v != "POSIX" {
			if i := strings.IndexAny(v, ".@"); i >= 0 {
				v = v[:i]
			}
			return strings.ReplaceAll(v, "_", "-")
		}
	}
	return SupportedLanguages[0]
}

func loadMessages(code string) (map[string]string, error) {
	path := fmt.Sprintf("locales/%s.json", code)
	data, err := localesFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file messageFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return file.Messages, nil
}
