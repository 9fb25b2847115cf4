package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"sheetbridge/auth"
)

// Config represents the application configuration. It is constructed by Load
// and handed to the gateway explicitly; nothing below reads ambient state
// after startup.
type Config struct {
	OAuth  auth.OAuthConfig `json:"oauth"`
	Server ServerConfig     `json:"server"`
	Global GlobalConfig     `json:"global"`
}

// ServerConfig represents the HTTP gateway configuration.
type ServerConfig struct {
	Addr           string `json:"addr,omitempty"`
	MaxUploadBytes int    `json:"max_upload_bytes,omitempty"`
}

// GlobalConfig represents global configuration.
type GlobalConfig struct {
	LogLevel string `json:"log_level,omitempty"`
	Timeout  int    `json:"timeout,omitempty"` // seconds, per request
}

// Load loads configuration from a .env file, environment variables, and a
// JSON config file, in that order. Unset OAuth fields keep documented
// placeholders so the server can start and serve its manifest without
// credentials configured.
func Load() (*Config, error) {
	// Best effort; a missing .env file is the normal case.
	_ = godotenv.Load()

	cfg := &Config{
		OAuth: auth.OAuthConfig{
			ClientID:     "YOUR_CLIENT_ID.apps.googleusercontent.com",
			ClientSecret: "YOUR_CLIENT_SECRET",
			AuthURI:      "https://accounts.google.com/o/oauth2/auth",
			TokenURI:     "https://oauth2.googleapis.com/token",
			RedirectURIs: []string{"http://localhost:8080/callback"},
			Scopes:       auth.DefaultScopes(),
		},
		Server: ServerConfig{
			Addr:           ":8391",
			MaxUploadBytes: 10 * 1024 * 1024,
		},
		Global: GlobalConfig{
			LogLevel: "info",
			Timeout:  300,
		},
	}

	cfg.loadFromEnv()

	configPaths := []string{
		"config.json",
		"config.local.json",
		filepath.Join(os.Getenv("HOME"), ".sheetbridge", "config.json"),
		"/etc/sheetbridge/config.json",
	}
	for _, path := range configPaths {
		err := cfg.loadFromFile(path)
		if err == nil {
			break
		}
		if os.IsNotExist(err) {
			continue
		}
		// A present but broken config file must fail loudly, not be skipped.
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromEnv loads configuration from environment variables.
func (c *Config) loadFromEnv() {
	if clientID := os.Getenv("GOOGLE_CLIENT_ID"); clientID != "" {
		c.OAuth.ClientID = clientID
	}
	if clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET"); clientSecret != "" {
		c.OAuth.ClientSecret = clientSecret
	}
	if redirectURI := os.Getenv("GOOGLE_REDIRECT_URI"); redirectURI != "" {
		c.OAuth.RedirectURIs = []string{redirectURI}
	}
	if tokenFile := os.Getenv("GOOGLE_TOKEN_FILE"); tokenFile != "" {
		c.OAuth.TokenFile = tokenFile
	}
	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Global.LogLevel = logLevel
	}
}

// loadFromFile loads configuration from a JSON file.
func (c *Config) loadFromFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	// Decode into a copy so a failed decode cannot leave the config
	// half-applied.
	loaded := *c
	if err := json.NewDecoder(file).Decode(&loaded); err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	*c = loaded
	return nil
}

// validate validates the configuration.
func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server listen address must not be empty")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}
	if c.Global.Timeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if len(c.OAuth.Scopes) == 0 {
		return fmt.Errorf("at least one OAuth scope is required")
	}
	return nil
}

// SaveExample saves an example configuration file.
func SaveExample(path string) error {
	example := &Config{
		OAuth: auth.OAuthConfig{
			ClientID:     "YOUR_CLIENT_ID.apps.googleusercontent.com",
			ClientSecret: "YOUR_CLIENT_SECRET",
			AuthURI:      "https://accounts.google.com/o/oauth2/auth",
			TokenURI:     "https://oauth2.googleapis.com/token",
			RedirectURIs: []string{"http://localhost:8080/callback"},
			TokenFile:    "~/.sheetbridge-token.json",
			Scopes:       auth.DefaultScopes(),
		},
		Server: ServerConfig{
			Addr:           ":8391",
			MaxUploadBytes: 10485760,
		},
		Global: GlobalConfig{
			LogLevel: "info",
			Timeout:  300,
		},
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(example)
}
