package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugparty/wpctl/internal/models"
	"github.com/bugparty/wpctl/internal/passcrypto"
)

func TestStore_LoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "data.json"), passcrypto.New(), zerolog.Nop())

	s, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Current, s.Version)
	assert.Empty(t, s.Profiles)
}

func TestStore_LoadMigratesLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	legacy := `{"endpoint":"https://blog.example.com","apiType":"xml-rpc","username":"admin","password":"pw","lang":"en"}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	store := NewStore(path, passcrypto.New(), zerolog.Nop())
	s, err := store.Load()
	require.NoError(t, err)
	require.Len(t, s.Profiles, 1)
	assert.Equal(t, V2, s.Version)

	// The migrated blob was written back without the plaintext password
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"password"`)
	assert.Contains(t, string(data), `"version": "2"`)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	again, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestStore_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.json")
	store := NewStore(path, passcrypto.New(), zerolog.Nop())

	s := Defaults()
	require.NoError(t, s.AddProfile(models.Profile{
		Name:     "Blog",
		APIType:  models.APITypeApplicationPasswords,
		Endpoint: "https://blog.example.com",
		Username: "admin",
		Password: "transient",
	}))
	require.NoError(t, store.Save(s))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "transient")

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "2", raw["version"])

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Profiles, 1)
	assert.True(t, loaded.Profiles[0].IsDefault)
	assert.Empty(t, loaded.Profiles[0].Password)
}

func TestStore_SaveRejectsInvalid(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "data.json"), passcrypto.New(), zerolog.Nop())

	s := Defaults()
	s.Profiles = []models.Profile{
		{Name: "a", IsDefault: true},
		{Name: "b", IsDefault: true},
	}
	assert.Error(t, store.Save(s))
}

func TestStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewStore(path, passcrypto.New(), zerolog.Nop()).Load()
	assert.Error(t, err)
}
