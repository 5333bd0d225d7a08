package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aebroadcast/datafeed-go/broadcast"
)

// Context represents a named configuration context (like kubectl contexts)
type Context struct {
	API struct {
		BaseURL            string `yaml:"base_url"`
		TimeoutSeconds     int    `yaml:"timeout_seconds"`
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
		CABundle           string `yaml:"ca_bundle"`
	} `yaml:"api"`
	Rendering struct {
		Theme string `yaml:"theme"`
	} `yaml:"rendering"`
}

// BaseURL returns the context's API base URL, falling back to the default.
func (c *Context) BaseURL() string {
	if c.API.BaseURL == "" {
		return broadcast.DefaultBaseURL
	}
	return c.API.BaseURL
}

// Timeout returns the per-request timeout. Zero means no timeout.
func (c *Context) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// ClientConfig builds a broadcast.Config from the context settings.
func (c *Context) ClientConfig() broadcast.Config {
	return broadcast.Config{
		BaseURL:            c.BaseURL(),
		Timeout:            c.Timeout(),
		InsecureSkipVerify: c.API.InsecureSkipVerify,
		CABundlePath:       c.API.CABundle,
	}
}

// Config represents the CLI configuration with multiple contexts
type Config struct {
	CurrentContext string              `yaml:"current-context"`
	Contexts       map[string]*Context `yaml:"contexts"`
}

// DefaultConfig returns the default configuration with "prod" and "dev" contexts
func DefaultConfig() *Config {
	prodContext := &Context{}
	prodContext.API.BaseURL = broadcast.DefaultBaseURL
	prodContext.Rendering.Theme = "auto"

	devContext := &Context{}
	devContext.API.BaseURL = "http://localhost:8900/"
	devContext.API.InsecureSkipVerify = true
	devContext.Rendering.Theme = "auto"

	return &Config{
		CurrentContext: "prod",
		Contexts: map[string]*Context{
			"prod": prodContext,
			"dev":  devContext,
		},
	}
}

// GetCurrentContext returns the current active context
func (c *Config) GetCurrentContext() (*Context, error) {
	if c.CurrentContext == "" {
		return nil, fmt.Errorf("no current context set")
	}

	ctx, ok := c.Contexts[c.CurrentContext]
	if !ok {
		return nil, fmt.Errorf("current context %q not found", c.CurrentContext)
	}

	return ctx, nil
}

// SetCurrentContext sets the current active context
func (c *Config) SetCurrentContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q does not exist", name)
	}
	c.CurrentContext = name
	return nil
}

// AddContext adds or updates a context
func (c *Config) AddContext(name string, ctx *Context) {
	if c.Contexts == nil {
		c.Contexts = make(map[string]*Context)
	}
	c.Contexts[name] = ctx
}

// DeleteContext removes a context
func (c *Config) DeleteContext(name string) error {
	if name == c.CurrentContext {
		return fmt.Errorf("cannot delete current context %q", name)
	}
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q does not exist", name)
	}
	delete(c.Contexts, name)
	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".datafeed"), nil
}

// LoadConfig loads configuration from the ~/.datafeed file
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	// If config file doesn't exist, create it with defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		defaultConfig := DefaultConfig()
		if err := SaveConfig(defaultConfig); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return defaultConfig, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure we have a valid current context
	if config.CurrentContext == "" && len(config.Contexts) > 0 {
		for name := range config.Contexts {
			config.CurrentContext = name
			break
		}
	}

	return &config, nil
}

// SaveConfig writes the configuration to the ~/.datafeed file
func SaveConfig(config *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
