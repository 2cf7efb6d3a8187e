package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, closeFn, err := New(Options{Writer: buf, JSON: true})
	require.NoError(t, err)
	defer closeFn()

	logger.Debug().Msg("hidden")
	logger.Warn().Msg("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"message":"shown"`)

	buf.Reset()
	logger, _, err = New(Options{Writer: buf, JSON: true, Debug: true})
	require.NoError(t, err)
	logger.Debug().Str("endpoint", "https://example.com").Msg("request")
	require.Contains(t, buf.String(), `"endpoint":"https://example.com"`)
}

func TestNew_Console(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, _, err := New(Options{Writer: buf})
	require.NoError(t, err)

	logger.Error().Msg("boom")
	require.Contains(t, buf.String(), "boom")
	require.Contains(t, buf.String(), "ERR")
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wpctl.log")
	logger, closeFn, err := New(Options{Path: path})
	require.NoError(t, err)

	logger.Warn().Msg("to file")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "to file")
}
