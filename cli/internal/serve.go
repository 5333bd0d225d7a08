package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/aebroadcast/datafeed-go/broadcast"
	"github.com/aebroadcast/datafeed-go/internal/gateway"
)

func newServeCommand() *cobra.Command {
	var (
		listenAddr        string
		keepAliveInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local quote gateway",
		Long: `Run a local HTTP server that proxies quote requests to the AEBroadcast
API using the stored session. Exposes /api/v1/quote, /health, and /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := slog.Default().With("component", "serve")

			client, creds, err := newClientFromCredentials()
			if err != nil {
				return err
			}

			quoter := &refreshingQuoter{client: client, creds: creds, log: log}
			srv := gateway.New(quoter, slog.Default())

			// The library never schedules anything; keep-alive cadence is
			// this caller's job.
			if keepAliveInterval > 0 {
				go runKeepAlive(cmd.Context(), client, keepAliveInterval, log)
			}

			log.Info("gateway listening", "addr", listenAddr)
			httpServer := &http.Server{Addr: listenAddr, Handler: srv}

			go func() {
				<-cmd.Context().Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = httpServer.Shutdown(shutdownCtx)
			}()

			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("gateway failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "localhost:8900", "Address to listen on")
	cmd.Flags().DurationVar(&keepAliveInterval, "keepalive-interval", 5*time.Minute,
		"Interval between keep-alive pings (0 disables)")

	return cmd
}

// runKeepAlive pings the API on a fixed cadence until ctx is cancelled.
func runKeepAlive(ctx context.Context, client *broadcast.Client, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := client.KeepAlive(ctx); err != nil {
				log.Warn("keep-alive failed", "error", err)
			} else {
				log.Debug("keep-alive ok")
			}
		}
	}
}

// refreshingQuoter wraps the broadcast client with a single
// refresh-and-retry on an expired session. The library itself never retries.
type refreshingQuoter struct {
	client *broadcast.Client
	creds  *Credentials
	log    *slog.Logger
}

func (q *refreshingQuoter) GetQuote(ctx context.Context, symbols, fields []string) (map[string]any, error) {
	payload, err := q.client.GetQuote(ctx, symbols, fields)

	var statusErr *broadcast.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
		q.log.Info("session expired, refreshing tokens")
		if res := q.client.TokenRefresh(ctx); res.Refreshed {
			if saveErr := persistTokens(q.creds, q.client.Tokens()); saveErr != nil {
				q.log.Warn("failed to persist refreshed tokens", "error", saveErr)
			}
			return q.client.GetQuote(ctx, symbols, fields)
		}
	}
	return payload, err
}
