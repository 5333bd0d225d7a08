package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aebroadcast/datafeed-go/broadcast"
)

// Credentials stores the persisted session tokens for one context.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Username     string    `json:"username"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsExpired checks if the access token is expired
func (c *Credentials) IsExpired() bool {
	return !c.ExpiresAt.IsZero() && time.Now().After(c.ExpiresAt)
}

// NeedsRefresh checks if the token needs to be refreshed soon (within 5 minutes)
func (c *Credentials) NeedsRefresh() bool {
	return !c.ExpiresAt.IsZero() && time.Now().Add(5*time.Minute).After(c.ExpiresAt)
}

// TokenPair returns the stored tokens as a broadcast token pair.
func (c *Credentials) TokenPair() broadcast.TokenPair {
	return broadcast.TokenPair{Token: c.AccessToken, RefreshToken: c.RefreshToken}
}

// SetTokens stores a new token pair and re-derives the expiry from the
// access token's JWT claims.
func (c *Credentials) SetTokens(pair broadcast.TokenPair) {
	c.AccessToken = pair.Token
	c.RefreshToken = pair.RefreshToken

	expiresAt, err := extractJWTExpiry(pair.Token)
	if err != nil {
		slog.Debug("failed to decode token expiry",
			slog.String("component", "cli-creds"),
			slog.String("error", err.Error()))
		c.ExpiresAt = time.Time{}
		return
	}
	c.ExpiresAt = expiresAt
}

// extractJWTExpiry decodes the access token without verifying its signature
// and extracts the exp claim. The server signs the token; the CLI only needs
// the expiry for display and refresh scheduling.
func extractJWTExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, err
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("exp claim not found")
	}
	return exp.Time, nil
}

// credentialsPath returns the path to the credentials file for the current context
func credentialsPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	config, err := LoadConfig()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	// Use context-specific credentials file
	configDir := filepath.Join(homeDir, ".config", "datafeed")
	filename := fmt.Sprintf("credentials-%s.json", config.CurrentContext)
	return filepath.Join(configDir, filename), nil
}

// SaveCredentials saves credentials to disk
func SaveCredentials(creds *Credentials) error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	// Write with restricted permissions (read/write for owner only)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}

	return nil
}

// LoadCredentials loads credentials from disk
func LoadCredentials() (*Credentials, error) {
	path, err := credentialsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("not logged in")
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	return &creds, nil
}

// RemoveCredentials removes the credentials file
func RemoveCredentials() error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}

	return nil
}
