package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aebroadcast/datafeed-go/broadcast"
)

func newQuoteCommand() *cobra.Command {
	var (
		fields  []string
		rawJSON bool
	)

	cmd := &cobra.Command{
		Use:   "quote SYMBOL [SYMBOL...]",
		Short: "Fetch quotes for one or more symbols",
		Long: `Fetch market data for the given instrument symbols.

Examples:
  # All available fields
  datafeed quote PETR4 VALE3

  # Only last price and variation
  datafeed quote PETR4 --fields ULT,VAR`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, creds, err := newClientFromCredentials()
			if err != nil {
				return err
			}

			payload, err := client.GetQuote(cmd.Context(), args, fields)

			// One refresh-and-retry on an expired session. The library never
			// retries; that policy lives here.
			var statusErr *broadcast.StatusError
			if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
				if res := client.TokenRefresh(cmd.Context()); res.Refreshed {
					if saveErr := persistTokens(creds, client.Tokens()); saveErr != nil {
						return fmt.Errorf("failed to save refreshed tokens: %w", saveErr)
					}
					payload, err = client.GetQuote(cmd.Context(), args, fields)
				}
			}
			if err != nil {
				return fmt.Errorf("quote request failed: %w", err)
			}

			if rawJSON {
				out, err := json.MarshalIndent(payload, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			return printMarkdown(quotesToMarkdown(args, payload))
		},
	}

	cmd.Flags().StringSliceVar(&fields, "fields", nil, "Fields to request (default: all available)")
	cmd.Flags().BoolVar(&rawJSON, "json", false, "Print the raw JSON payload")

	return cmd
}

// quotesToMarkdown builds a markdown table from a quote payload. The server
// returns either the symbol map directly or wrapped under a "data" key.
func quotesToMarkdown(symbols []string, payload map[string]any) string {
	if data, ok := payload["data"].(map[string]any); ok {
		payload = data
	}

	// Collect the union of field names across symbols for the header.
	fieldSet := make(map[string]bool)
	for _, symbol := range symbols {
		quote, ok := payload[symbol].(map[string]any)
		if !ok {
			continue
		}
		for field := range quote {
			fieldSet[field] = true
		}
	}
	fieldNames := make([]string, 0, len(fieldSet))
	for field := range fieldSet {
		fieldNames = append(fieldNames, field)
	}
	sort.Strings(fieldNames)

	if len(fieldNames) == 0 {
		// Nothing tabular in the payload; show it as a code block.
		out, _ := json.MarshalIndent(payload, "", "  ")
		return fmt.Sprintf("```json\n%s\n```\n", out)
	}

	var b strings.Builder
	b.WriteString("| SYMBOL | " + strings.Join(fieldNames, " | ") + " |\n")
	b.WriteString("|---" + strings.Repeat("|---", len(fieldNames)) + "|\n")
	for _, symbol := range symbols {
		quote, ok := payload[symbol].(map[string]any)
		if !ok {
			b.WriteString("| " + symbol + " |" + strings.Repeat(" — |", len(fieldNames)) + "\n")
			continue
		}
		row := []string{symbol}
		for _, field := range fieldNames {
			if value, ok := quote[field]; ok {
				row = append(row, fmt.Sprintf("%v", value))
			} else {
				row = append(row, "—")
			}
		}
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return b.String()
}
