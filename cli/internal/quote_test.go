package cli

import (
	"strings"
	"testing"
)

func TestQuotesToMarkdown(t *testing.T) {
	payload := map[string]any{
		"PETR4": map[string]any{"ULT": "28.50", "VAR": "1.25%"},
		"VALE3": map[string]any{"ULT": "61.10"},
	}

	md := quotesToMarkdown([]string{"PETR4", "VALE3"}, payload)

	if !strings.Contains(md, "| SYMBOL | ULT | VAR |") {
		t.Errorf("missing header row:\n%s", md)
	}
	if !strings.Contains(md, "| PETR4 | 28.50 | 1.25% |") {
		t.Errorf("missing PETR4 row:\n%s", md)
	}
	// VALE3 has no VAR; the cell is a placeholder.
	if !strings.Contains(md, "| VALE3 | 61.10 | — |") {
		t.Errorf("missing VALE3 row with placeholder:\n%s", md)
	}
}

func TestQuotesToMarkdownDataWrapper(t *testing.T) {
	payload := map[string]any{
		"data": map[string]any{
			"PETR4": map[string]any{"ULT": "28.50"},
		},
	}

	md := quotesToMarkdown([]string{"PETR4"}, payload)
	if !strings.Contains(md, "| PETR4 | 28.50 |") {
		t.Errorf("data wrapper not unwrapped:\n%s", md)
	}
}

func TestQuotesToMarkdownNonTabularPayload(t *testing.T) {
	payload := map[string]any{
		"success": false,
		"code":    "bc_02001",
	}

	md := quotesToMarkdown([]string{"PETR4"}, payload)
	if !strings.Contains(md, "```json") {
		t.Errorf("non-tabular payload should render as a code block:\n%s", md)
	}
}
