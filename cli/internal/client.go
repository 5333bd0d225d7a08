package cli

import (
	"fmt"

	"github.com/aebroadcast/datafeed-go/broadcast"
)

// newClientFromCredentials resumes a session from the stored credentials for
// the current context, without any network call.
func newClientFromCredentials() (*broadcast.Client, *Credentials, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	ctx, err := config.GetCurrentContext()
	if err != nil {
		return nil, nil, err
	}

	creds, err := LoadCredentials()
	if err != nil {
		return nil, nil, fmt.Errorf("%w\nPlease run 'datafeed auth login' first", err)
	}

	client, err := broadcast.NewFromTokens(ctx.ClientConfig(), creds.TokenPair())
	if err != nil {
		return nil, nil, err
	}
	return client, creds, nil
}

// persistTokens writes a refreshed token pair back to the credentials file.
func persistTokens(creds *Credentials, pair broadcast.TokenPair) error {
	creds.SetTokens(pair)
	return SaveCredentials(creds)
}
