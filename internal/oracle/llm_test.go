package oracle

import (
	"errors"
	"strings"
	"testing"

	"oraclefeed/internal/models"
)

func TestParsePayloadValid(t *testing.T) {
	resp, err := ParsePayload(`{"price": 67123.45, "change_24h": -2.1, "market_cap": 1320000000000}`)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if resp.Price.String() != "67123.45" {
		t.Errorf("price = %s, want 67123.45", resp.Price)
	}
	if resp.Change24h == nil || resp.Change24h.String() != "-2.1" {
		t.Errorf("change_24h = %v, want -2.1", resp.Change24h)
	}
	if resp.MarketCap == nil || resp.MarketCap.String() != "1320000000000" {
		t.Errorf("market_cap = %v, want 1320000000000", resp.MarketCap)
	}
}

func TestParsePayloadOptionalFieldsAbsent(t *testing.T) {
	resp, err := ParsePayload(`{"price": 1.0001}`)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if resp.Change24h != nil || resp.MarketCap != nil {
		t.Errorf("optional fields should be nil, got change=%v cap=%v", resp.Change24h, resp.MarketCap)
	}
}

func TestParsePayloadNullOptionals(t *testing.T) {
	resp, err := ParsePayload(`{"price": 0.5, "change_24h": null, "market_cap": null}`)
	if err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if resp.Change24h != nil || resp.MarketCap != nil {
		t.Error("null optionals should map to nil")
	}
}

func TestParsePayloadStripsMarkdownFences(t *testing.T) {
	raw := "```json\n{\"price\": 42.5}\n```"
	resp, err := ParsePayload(raw)
	if err != nil {
		t.Fatalf("ParsePayload failed on fenced input: %v", err)
	}
	if resp.Price.String() != "42.5" {
		t.Errorf("price = %s, want 42.5", resp.Price)
	}
}

func TestParsePayloadZeroPriceIsValid(t *testing.T) {
	// Rare but allowed: a consensus-validated price may legitimately be zero.
	resp, err := ParsePayload(`{"price": 0}`)
	if err != nil {
		t.Fatalf("ParsePayload failed on zero price: %v", err)
	}
	if !resp.Price.IsZero() {
		t.Errorf("price = %s, want 0", resp.Price)
	}
}

func TestParsePayloadFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"blank", "", models.ErrOracleUnavailable},
		{"whitespace", "   \n", models.ErrOracleUnavailable},
		{"no data marker", `{"no_data": true}`, models.ErrOracleUnavailable},
		{"not json", "the price of bitcoin is $67,000", models.ErrMalformedResponse},
		{"missing price", `{"change_24h": 1.2}`, models.ErrMalformedResponse},
		{"negative price", `{"price": -5}`, models.ErrMalformedResponse},
		{"negative market cap", `{"price": 5, "market_cap": -1}`, models.ErrMalformedResponse},
		{"price not numeric", `{"price": "sixty-seven thousand"}`, models.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePayload(tt.raw)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParsePayload(%q) error = %v, want %v", tt.raw, err, tt.want)
			}
		})
	}
}

func TestBuildPromptNamesSourceAndCurrency(t *testing.T) {
	prompt := buildPrompt(Request{SourceID: "bitcoin", Currency: "eur"})
	for _, want := range []string{"bitcoin", "vs_currencies=eur", "no_data"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
