package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	Address string        `split_words:"true" default:":8080"`
	Timeout time.Duration `split_words:"true" default:"5s"`
	Token   string        `split_words:"true" required:"true"`
}

func TestNewReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CFGTEST_TOKEN=from-file\nCFGTEST_TIMEOUT=9s\n"), 0o600))

	t.Cleanup(func() {
		SetEnvFile("")
		os.Unsetenv("CFGTEST_TOKEN")
		os.Unsetenv("CFGTEST_TIMEOUT")
	})
	SetEnvFile(path)

	conf, err := New[sampleConfig]("CFGTEST")
	require.NoError(t, err)
	assert.Equal(t, "from-file", conf.Token)
	assert.Equal(t, 9*time.Second, conf.Timeout)
	assert.Equal(t, ":8080", conf.Address)
}

func TestProcessEnvironmentWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CFGWIN_TOKEN=from-file\n"), 0o600))

	t.Setenv("CFGWIN_TOKEN", "from-env")
	t.Cleanup(func() { SetEnvFile("") })
	SetEnvFile(path)

	conf, err := New[sampleConfig]("CFGWIN")
	require.NoError(t, err)
	assert.Equal(t, "from-env", conf.Token)
}

func TestNewMissingRequired(t *testing.T) {
	t.Cleanup(func() { SetEnvFile("") })
	SetEnvFile(filepath.Join(t.TempDir(), "missing.env"))

	_, err := New[sampleConfig]("CFGMISSING")
	require.Error(t, err)

	SetEnvFile("")
	_, err = New[sampleConfig]("CFGMISSING")
	require.Error(t, err)
}
