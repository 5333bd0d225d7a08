package cli

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aebroadcast/datafeed-go/broadcast"
)

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestExtractJWTExpiry(t *testing.T) {
	expiresAt := time.Now().Add(30 * time.Minute).Truncate(time.Second)

	got, err := extractJWTExpiry(signedToken(t, expiresAt))
	if err != nil {
		t.Fatalf("extractJWTExpiry failed: %v", err)
	}
	if !got.Equal(expiresAt) {
		t.Errorf("expiry = %v, want %v", got, expiresAt)
	}
}

func TestExtractJWTExpiryInvalidToken(t *testing.T) {
	if _, err := extractJWTExpiry("not-a-jwt"); err == nil {
		t.Fatal("expected an error for a malformed token")
	}
}

func TestCredentialsExpiry(t *testing.T) {
	tests := []struct {
		name         string
		expiresAt    time.Time
		expired      bool
		needsRefresh bool
	}{
		{
			name:         "fresh token",
			expiresAt:    time.Now().Add(time.Hour),
			expired:      false,
			needsRefresh: false,
		},
		{
			name:         "close to expiry",
			expiresAt:    time.Now().Add(2 * time.Minute),
			expired:      false,
			needsRefresh: true,
		},
		{
			name:         "expired",
			expiresAt:    time.Now().Add(-time.Minute),
			expired:      true,
			needsRefresh: true,
		},
		{
			name:         "unknown expiry",
			expiresAt:    time.Time{},
			expired:      false,
			needsRefresh: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds := &Credentials{ExpiresAt: tt.expiresAt}
			if got := creds.IsExpired(); got != tt.expired {
				t.Errorf("IsExpired() = %v, want %v", got, tt.expired)
			}
			if got := creds.NeedsRefresh(); got != tt.needsRefresh {
				t.Errorf("NeedsRefresh() = %v, want %v", got, tt.needsRefresh)
			}
		})
	}
}

func TestCredentialsSetTokens(t *testing.T) {
	expiresAt := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	creds := &Credentials{Username: "test_user"}

	creds.SetTokens(broadcast.TokenPair{Token: signedToken(t, expiresAt), RefreshToken: "refresh-1"})

	if creds.AccessToken == "" || creds.RefreshToken != "refresh-1" {
		t.Errorf("tokens not stored: %+v", creds)
	}
	if !creds.ExpiresAt.Equal(expiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", creds.ExpiresAt, expiresAt)
	}

	// Opaque tokens have no decodable expiry.
	creds.SetTokens(broadcast.TokenPair{Token: "opaque-token", RefreshToken: "refresh-2"})
	if !creds.ExpiresAt.IsZero() {
		t.Errorf("ExpiresAt should reset for an opaque token, got %v", creds.ExpiresAt)
	}
}
