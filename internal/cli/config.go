package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "SODDLE_"
	envStateFile = "SODDLE_STATE_FILE"

	defaultServerURL = "http://localhost:8080"
)

// State file keys, also reachable as SODDLE_SERVER and SODDLE_KEY
const (
	stateServer = "server"
	stateKey    = "key"
)

var errInvalidKey = errors.New("player key must be non-empty and contain no whitespace or '/'")

// Config holds CLI configuration. Values resolve from flags, then SODDLE_*
// environment variables, then the state file, then defaults.
type Config struct {
	ServerURL string
	PublicKey string
	StateFile string
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	stateFile := os.Getenv(envStateFile)
	if stateFile == "" {
		stateFile = defaultStateFile()
	}
	return &Config{
		ServerURL: defaultServerURL,
		StateFile: stateFile,
		Output:    "text",
	}
}

// Resolve fills the server and key from the environment and state file
// unless set explicitly. flagSet reports whether a flag was given.
func (c *Config) Resolve(flagSet func(name string) bool) error {
	k, err := c.loadState()
	if err != nil {
		return err
	}

	// SODDLE_KEY -> key; empty variables do not mask the state file
	envProvider := env.ProviderWithValue(envPrefix, ".", func(name, value string) (string, any) {
		if value == "" {
			return "", nil
		}
		return strings.TrimPrefix(strings.ToLower(name), strings.ToLower(envPrefix)), value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	if !flagSet("server") && k.String(stateServer) != "" {
		c.ServerURL = k.String(stateServer)
	}
	if !flagSet("key") {
		c.PublicKey = k.String(stateKey)
	}
	if c.PublicKey != "" {
		return validateKey(c.PublicKey)
	}
	return nil
}

// SaveKey remembers key in the state file for later commands
func (c *Config) SaveKey(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	k, err := c.loadState()
	if err != nil {
		return err
	}
	if err := k.Set(stateKey, key); err != nil {
		return err
	}
	if err := c.writeState(k); err != nil {
		return err
	}
	c.PublicKey = key
	return nil
}

// ForgetKey removes the remembered key, keeping any other state
func (c *Config) ForgetKey() error {
	k, err := c.loadState()
	if err != nil {
		return err
	}
	k.Delete(stateKey)
	if err := c.writeState(k); err != nil {
		return err
	}
	c.PublicKey = ""
	return nil
}

// loadState reads the state file; a missing file is empty state
func (c *Config) loadState() (*koanf.Koanf, error) {
	k := koanf.New(".")
	if _, err := os.Stat(c.StateFile); err != nil {
		if os.IsNotExist(err) {
			return k, nil
		}
		return nil, err
	}
	if err := k.Load(file.Provider(c.StateFile), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to read state file %s: %w", c.StateFile, err)
	}
	return k, nil
}

func (c *Config) writeState(k *koanf.Koanf) error {
	data, err := k.Marshal(yaml.Parser())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.StateFile), 0700); err != nil {
		return err
	}
	return os.WriteFile(c.StateFile, data, 0600)
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, " \t\r\n/") {
		return errInvalidKey
	}
	return nil
}

func defaultStateFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".soddle", "state.yaml")
	}
	return filepath.Join(home, ".soddle", "state.yaml")
}
