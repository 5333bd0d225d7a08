package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aebroadcast/datafeed-go/broadcast"
)

func newAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
		Long:  `Manage the AEBroadcast session for the datafeed CLI`,
	}

	cmd.AddCommand(newAuthLoginCommand())
	cmd.AddCommand(newAuthLogoutCommand())
	cmd.AddCommand(newAuthStatusCommand())
	cmd.AddCommand(newAuthRefreshCommand())
	cmd.AddCommand(newAuthKeepAliveCommand())

	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to the AEBroadcast API",
		Long: `Authenticate against the AEBroadcast API and store the session tokens
for the current context.

Credentials are taken from flags, the BROADCAST_USERNAME and
BROADCAST_PASSWORD environment variables, or an interactive prompt,
in that order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default().With("command", "login")

			if username == "" {
				username = os.Getenv("BROADCAST_USERNAME")
			}
			if password == "" {
				password = os.Getenv("BROADCAST_PASSWORD")
			}

			var err error
			if username == "" || password == "" {
				username, password, err = promptCredentials()
				if err != nil {
					return err
				}
			}

			config, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			ctx, err := config.GetCurrentContext()
			if err != nil {
				return err
			}

			logger.Info("logging in", "base_url", ctx.BaseURL(), "username", username)

			clientCfg := ctx.ClientConfig()
			clientCfg.Username = username
			clientCfg.Password = password

			client, err := broadcast.New(cmd.Context(), clientCfg)
			if err != nil {
				var statusErr *broadcast.StatusError
				if errors.As(err, &statusErr) {
					return fmt.Errorf("authentication failed (status %d)", statusErr.StatusCode)
				}
				return fmt.Errorf("authentication failed: %w", err)
			}

			creds := &Credentials{Username: username}
			creds.SetTokens(client.Tokens())
			if err := SaveCredentials(creds); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			fmt.Printf("✓ Successfully logged in as %s\n", username)
			if !creds.ExpiresAt.IsZero() {
				fmt.Printf("  Token expires: %s\n", creds.ExpiresAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (if not provided, will prompt)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (if not provided, will prompt)")

	return cmd
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout and invalidate the server-side session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClientFromCredentials()
			if err != nil {
				return err
			}

			// Server-side invalidation is best effort; the local file goes
			// away either way.
			if _, err := client.Logout(cmd.Context()); err != nil {
				slog.Warn("server-side logout failed", "error", err)
			}

			if err := RemoveCredentials(); err != nil {
				return err
			}
			fmt.Println("✓ Logged out")
			return nil
		},
	}
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := LoadCredentials()
			if err != nil {
				fmt.Println("Not logged in")
				return nil
			}

			fmt.Printf("Logged in as %s\n", creds.Username)
			if creds.ExpiresAt.IsZero() {
				fmt.Println("Token expiry unknown")
				return nil
			}
			if creds.IsExpired() {
				fmt.Printf("Token expired %s ago — run 'datafeed auth refresh' or log in again\n",
					formatDuration(time.Since(creds.ExpiresAt)))
				return nil
			}
			fmt.Printf("Token expires in %s (%s)\n",
				formatDuration(time.Until(creds.ExpiresAt)),
				creds.ExpiresAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}

func newAuthRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the session tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, creds, err := newClientFromCredentials()
			if err != nil {
				return err
			}

			res := client.TokenRefresh(cmd.Context())
			if !res.Refreshed {
				return fmt.Errorf("token refresh failed: %v", res.Err)
			}

			if err := persistTokens(creds, client.Tokens()); err != nil {
				return fmt.Errorf("failed to save refreshed tokens: %w", err)
			}

			fmt.Println("✓ Tokens refreshed")
			if !creds.ExpiresAt.IsZero() {
				fmt.Printf("  Token expires: %s\n", creds.ExpiresAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func newAuthKeepAliveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keepalive",
		Short: "Ping the API to extend the server-side session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newClientFromCredentials()
			if err != nil {
				return err
			}

			if _, err := client.KeepAlive(cmd.Context()); err != nil {
				return fmt.Errorf("keep-alive failed: %w", err)
			}
			fmt.Println("✓ Session extended")
			return nil
		},
	}
}

// promptCredentials reads a username and a hidden password from the terminal.
func promptCredentials() (username, password string, err error) {
	fmt.Print("Username: ")
	_, err = fmt.Scanln(&username)
	if err != nil {
		return "", "", fmt.Errorf("failed to read username: %w", err)
	}

	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // newline after password input
	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}

	password = string(passwordBytes)
	return username, password, nil
}

// formatDuration formats a duration in a human-friendly way (e.g., "2 hours and 45 minutes")
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}

	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string
	appendPart := func(n int, unit string) {
		if n == 1 {
			parts = append(parts, fmt.Sprintf("1 %s", unit))
		} else if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %ss", n, unit))
		}
	}
	appendPart(days, "day")
	appendPart(hours, "hour")
	appendPart(minutes, "minute")
	if len(parts) == 0 {
		appendPart(seconds, "second")
	}

	switch len(parts) {
	case 0:
		return "0 seconds"
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		result := ""
		for i := 0; i < len(parts)-1; i++ {
			if i > 0 {
				result += ", "
			}
			result += parts[i]
		}
		return result + " and " + parts[len(parts)-1]
	}
}
