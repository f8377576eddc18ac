package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Period   int    `json:"period"`
}

func writeFile(t *testing.T, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "catemirror.json5")

	_, err := ReadConfig[testConfig](name)
	require.ErrorIs(t, err, os.ErrNotExist)

	writeFile(t, name, `{
		// comments are allowed
		base_url: "https://cate.doc.ic.ac.uk",
		username: "lmc13",
		period: 1,
	}`)
	writeFile(t, filepath.Join(dir, "catemirror.local.json5"), `{ username: "abc123" }`)

	cfg, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, testConfig{
		BaseUrl:  "https://cate.doc.ic.ac.uk",
		Username: "abc123",
		Period:   1,
	}, cfg)
}

func TestReadConfigOr(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "catemirror.json5")
	fallback := testConfig{BaseUrl: "https://fallback", Period: 3}

	cfg, err := ReadConfigOr(name, fallback)
	require.NoError(t, err)
	require.Equal(t, fallback, cfg)

	writeFile(t, name, `{ username: "lmc13" }`)
	cfg, err = ReadConfigOr(name, fallback)
	require.NoError(t, err)
	require.Equal(t, testConfig{BaseUrl: "https://fallback", Username: "lmc13", Period: 3}, cfg)
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	writeFile(t, envFile, "CATEMIRROR_TEST_USER=lmc13\nCATEMIRROR_TEST_KEPT=fromfile\n")

	t.Setenv("CATEMIRROR_TEST_KEPT", "fromenv")
	t.Setenv("CATEMIRROR_TEST_USER", "")
	os.Unsetenv("CATEMIRROR_TEST_USER")

	err := LoadDotenv(filepath.Join(dir, "missing.env"), envFile)
	require.NoError(t, err)

	require.Equal(t, "lmc13", os.Getenv("CATEMIRROR_TEST_USER"))
	require.Equal(t, "fromenv", os.Getenv("CATEMIRROR_TEST_KEPT"))

	require.Equal(t, "set", EnvOr("set", "CATEMIRROR_TEST_USER"))
	require.Equal(t, "lmc13", EnvOr("", "CATEMIRROR_TEST_USER"))
}
