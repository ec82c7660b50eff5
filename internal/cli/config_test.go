package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noFlags(string) bool { return false }

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	t.Setenv("SODDLE_KEY", "")
	t.Setenv("SODDLE_SERVER", "")
	c := DefaultConfig()
	c.StateFile = filepath.Join(t.TempDir(), "soddle", "state.yaml")
	return c
}

func TestResolveWithoutState(t *testing.T) {
	c := newTestConfig(t)

	require.NoError(t, c.Resolve(noFlags))
	assert.Equal(t, defaultServerURL, c.ServerURL)
	assert.Empty(t, c.PublicKey)
}

func TestSaveKeyPersistsState(t *testing.T) {
	c := newTestConfig(t)
	require.NoError(t, c.SaveKey("alice"))
	assert.Equal(t, "alice", c.PublicKey)

	data, err := os.ReadFile(c.StateFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "key: alice")

	fresh := DefaultConfig()
	fresh.StateFile = c.StateFile
	require.NoError(t, fresh.Resolve(noFlags))
	assert.Equal(t, "alice", fresh.PublicKey)
}

func TestResolvePrecedence(t *testing.T) {
	c := newTestConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(c.StateFile), 0700))
	require.NoError(t, os.WriteFile(c.StateFile, []byte("server: http://state:9000\nkey: from-file\n"), 0600))

	require.NoError(t, c.Resolve(noFlags))
	assert.Equal(t, "http://state:9000", c.ServerURL)
	assert.Equal(t, "from-file", c.PublicKey)

	t.Setenv("SODDLE_KEY", "from-env")
	c = &Config{ServerURL: "http://flag:1", StateFile: c.StateFile}
	require.NoError(t, c.Resolve(func(name string) bool { return name == "server" }))
	assert.Equal(t, "http://flag:1", c.ServerURL)
	assert.Equal(t, "from-env", c.PublicKey)

	c.PublicKey = "from-flag"
	require.NoError(t, c.Resolve(func(string) bool { return true }))
	assert.Equal(t, "from-flag", c.PublicKey)
}

func TestSaveKeyRejectsInvalidKeys(t *testing.T) {
	c := newTestConfig(t)
	for _, key := range []string{"", "two words", "a/b", "tab\tkey"} {
		assert.ErrorIs(t, c.SaveKey(key), errInvalidKey, key)
	}
	_, err := os.Stat(c.StateFile)
	assert.True(t, os.IsNotExist(err))
}

func TestForgetKeyKeepsServer(t *testing.T) {
	c := newTestConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(c.StateFile), 0700))
	require.NoError(t, os.WriteFile(c.StateFile, []byte("server: http://state:9000\nkey: alice\n"), 0600))

	require.NoError(t, c.ForgetKey())
	assert.Empty(t, c.PublicKey)

	fresh := DefaultConfig()
	fresh.StateFile = c.StateFile
	require.NoError(t, fresh.Resolve(noFlags))
	assert.Empty(t, fresh.PublicKey)
	assert.Equal(t, "http://state:9000", fresh.ServerURL)
}
