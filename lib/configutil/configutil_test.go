package configutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl string `json:"base_url"`
	TermId  string `json:"term_id"`
	Port    int    `json:"port"`
}

func TestLocalName(t *testing.T) {
	require.Equal(t, "config.local.json5", localName("config.json5"))
	require.Equal(t, filepath.Join("a", "b.local.json"), localName(filepath.Join("a", "b.json")))
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "config.json5")

	err := os.WriteFile(base, []byte(`{
		// comments are allowed
		base_url: "https://portal.example.edu",
		term_id: "3202320",
		port: 4000,
	}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{port: 8080}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](base)
	require.NoError(t, err)
	require.Equal(t, testConfig{
		BaseUrl: "https://portal.example.edu",
		TermId:  "3202320",
		Port:    8080,
	}, cfg)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0700))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "recursive_test.json5"),
		[]byte(`{term_id: "found"}`),
		0600,
	))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	defer os.Chdir(wd)

	cfg, err := ReadRecursively[testConfig]("recursive_test.json5")
	require.NoError(t, err)
	require.Equal(t, "found", cfg.TermId)
}
