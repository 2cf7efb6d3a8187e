package settings

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugparty/wpctl/internal/models"
	"github.com/bugparty/wpctl/internal/passcrypto"
)

type failingEncrypter struct{}

func (failingEncrypter) Encrypt(string) (passcrypto.Encrypted, error) {
	return passcrypto.Encrypted{}, errors.New("no entropy")
}

func legacyBlob() map[string]any {
	return map[string]any{
		"lang":                           "zh-cn",
		"showRibbonIcon":                 true,
		"defaultPostStatus":              "publish",
		"defaultCommentStatus":           "closed",
		"rememberLastSelectedCategories": false,
		"showWordPressEditConfirm":       true,
		"mathJaxOutputType":              "tex",
		"commentConvertMode":             "html",
		"endpoint":                       "https://blog.example.com",
		"apiType":                        "application-passwords",
		"xmlRpcPath":                     "/xmlrpc.php",
		"username":                       "admin",
		"password":                       "hunter2",
		"lastSelectedCategories":         []any{float64(3), float64(7)},
	}
}

func TestUpgrade_NonObject(t *testing.T) {
	for _, raw := range []any{nil, "settings", 42, []any{1, 2}} {
		result, err := Upgrade(raw, V2, passcrypto.New())
		require.NoError(t, err)
		assert.False(t, result.NeedUpgrade)
		assert.Equal(t, Defaults(), result.Settings)
	}
}

func TestUpgrade_LegacyWithEndpoint(t *testing.T) {
	cipher := passcrypto.New()
	result, err := Upgrade(legacyBlob(), V2, cipher)
	require.NoError(t, err)
	require.True(t, result.NeedUpgrade)

	s := result.Settings
	assert.Equal(t, V2, s.Version)
	assert.Equal(t, "zh-cn", s.Lang)
	assert.True(t, s.ShowRibbonIcon)
	assert.Equal(t, models.PostStatusPublish, s.DefaultPostStatus)
	assert.Equal(t, models.CommentStatusClosed, s.DefaultCommentStatus)
	assert.Equal(t, models.PostTypePost, s.DefaultPostType)
	assert.False(t, s.RememberLastSelectedCategories)
	assert.True(t, s.ShowWordPressEditConfirm)
	assert.Equal(t, MathJaxTeX, s.MathJaxOutputType)
	assert.Equal(t, CommentHTML, s.CommentConvertMode)
	assert.True(t, s.ReplaceMediaLinks, "fields without a legacy counterpart keep defaults")

	require.Len(t, s.Profiles, 1)
	p := s.Profiles[0]
	assert.Equal(t, DefaultProfileName, p.Name)
	assert.True(t, p.IsDefault)
	assert.Equal(t, models.APITypeApplicationPasswords, p.APIType)
	assert.Equal(t, "https://blog.example.com", p.Endpoint)
	assert.Equal(t, "/xmlrpc.php", p.XMLRPCPath)
	assert.Equal(t, "admin", p.Username)
	assert.True(t, p.SaveUsername)
	assert.True(t, p.SavePassword)
	assert.Equal(t, []int{3, 7}, p.LastSelectedCategories)
	assert.Empty(t, p.Password)

	require.NotNil(t, p.EncryptedPassword)
	assert.NotEqual(t, "hunter2", p.EncryptedPassword.Encrypted)
	assert.NotEmpty(t, p.EncryptedPassword.Key)
	assert.NotEmpty(t, p.EncryptedPassword.Vector)

	plain, err := cipher.DecryptBundle(*p.EncryptedPassword)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", plain)
}

func TestUpgrade_LegacyWithoutEndpoint(t *testing.T) {
	blob := legacyBlob()
	delete(blob, "endpoint")

	result, err := Upgrade(blob, V2, passcrypto.New())
	require.NoError(t, err)
	assert.True(t, result.NeedUpgrade)
	assert.Empty(t, result.Settings.Profiles)
	assert.NotNil(t, result.Settings.Profiles)
}

func TestUpgrade_LegacyMissingCredentials(t *testing.T) {
	cipher := passcrypto.New()
	blob := map[string]any{"endpoint": "https://blog.example.com"}

	result, err := Upgrade(blob, V2, cipher)
	require.NoError(t, err)
	require.Len(t, result.Settings.Profiles, 1)

	p := result.Settings.Profiles[0]
	assert.False(t, p.SaveUsername)
	assert.False(t, p.SavePassword)
	assert.Equal(t, models.APITypeXMLRPC, p.APIType)
	assert.Equal(t, []int{1}, p.LastSelectedCategories)

	plain, err := cipher.DecryptBundle(*p.EncryptedPassword)
	require.NoError(t, err)
	assert.Equal(t, "", plain)

	// Missing legacy fields fall back to defaults
	assert.Equal(t, "auto", result.Settings.Lang)
	assert.Equal(t, models.PostStatusDraft, result.Settings.DefaultPostStatus)
}

func TestUpgrade_Idempotent(t *testing.T) {
	first, err := Upgrade(legacyBlob(), V2, passcrypto.New())
	require.NoError(t, err)

	second, err := Upgrade(first.Settings, V2, passcrypto.New())
	require.NoError(t, err)
	assert.False(t, second.NeedUpgrade)
	assert.Equal(t, first.Settings, second.Settings)

	third, err := Upgrade(&second.Settings, V2, passcrypto.New())
	require.NoError(t, err)
	assert.False(t, third.NeedUpgrade)
}

func TestUpgrade_UnversionedStructKeepsProfiles(t *testing.T) {
	s := Defaults()
	s.Version = ""
	s.Profiles = []models.Profile{
		{Name: "blog", APIType: models.APITypeXMLRPC, Endpoint: "https://blog.example.com", IsDefault: true},
	}

	result, err := Upgrade(s, V2, passcrypto.New())
	require.NoError(t, err)
	assert.True(t, result.NeedUpgrade)
	assert.Equal(t, V2, result.Settings.Version)
	require.Len(t, result.Settings.Profiles, 1)
	assert.Equal(t, "blog", result.Settings.Profiles[0].Name)

	ptr, err := Upgrade(&s, V2, passcrypto.New())
	require.NoError(t, err)
	assert.Equal(t, result.Settings, ptr.Settings)
}

func TestUpgrade_VersionedBlobUnchanged(t *testing.T) {
	blob := map[string]any{
		"version":           "2",
		"lang":              "en",
		"defaultPostStatus": "private",
		"profiles": []any{
			map[string]any{
				"name":                   "Work",
				"apiType":                "xml-rpc",
				"endpoint":               "https://work.example.com",
				"isDefault":              true,
				"lastSelectedCategories": []any{float64(5)},
				"encryptedPassword": map[string]any{
					"encrypted": "abc",
					"key":       "k",
					"vector":    "v",
				},
			},
		},
	}

	result, err := Upgrade(blob, V2, failingEncrypter{})
	require.NoError(t, err)
	assert.False(t, result.NeedUpgrade)
	assert.Equal(t, V2, result.Settings.Version)
	assert.Equal(t, "en", result.Settings.Lang)
	assert.Equal(t, models.PostStatusPrivate, result.Settings.DefaultPostStatus)
	require.Len(t, result.Settings.Profiles, 1)
	assert.Equal(t, []int{5}, result.Settings.Profiles[0].LastSelectedCategories)
	assert.Equal(t, "abc", result.Settings.Profiles[0].EncryptedPassword.Encrypted)
}

func TestUpgrade_NumericVersionTag(t *testing.T) {
	result, err := Upgrade(map[string]any{"version": float64(1), "lang": "en"}, V2, failingEncrypter{})
	require.NoError(t, err)
	assert.False(t, result.NeedUpgrade)
	assert.Equal(t, Version("1"), result.Settings.Version)
}

func TestUpgrade_EncryptionFailure(t *testing.T) {
	_, err := Upgrade(legacyBlob(), V2, failingEncrypter{})
	assert.Error(t, err)
}

func TestUpgrade_FallbackCipher(t *testing.T) {
	result, err := Upgrade(legacyBlob(), V2, passcrypto.NewFallback())
	require.NoError(t, err)

	e := result.Settings.Profiles[0].EncryptedPassword
	require.NotNil(t, e)
	assert.Empty(t, e.Key)
	assert.Empty(t, e.Vector)
	assert.NoError(t, result.Settings.Validate())
}
