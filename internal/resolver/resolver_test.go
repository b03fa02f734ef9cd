package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"oraclefeed/internal/models"
	"oraclefeed/internal/oracle"
	"oraclefeed/internal/registry"
)

// stubOracle answers queries from a fixed table keyed by source id and
// counts lookups per source.
type stubOracle struct {
	responses map[string]*oracle.Response
	errs      map[string]error
	calls     map[string]int
}

func newStubOracle() *stubOracle {
	return &stubOracle{
		responses: make(map[string]*oracle.Response),
		errs:      make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (s *stubOracle) price(sourceID, price string) *stubOracle {
	s.responses[sourceID] = &oracle.Response{Price: decimal.RequireFromString(price)}
	return s
}

func (s *stubOracle) fail(sourceID string, err error) *stubOracle {
	s.errs[sourceID] = err
	return s
}

func (s *stubOracle) Query(ctx context.Context, req oracle.Request) (*oracle.Response, error) {
	s.calls[req.SourceID]++
	if err, ok := s.errs[req.SourceID]; ok {
		return nil, err
	}
	if resp, ok := s.responses[req.SourceID]; ok {
		return resp, nil
	}
	return nil, fmt.Errorf("%w: no stub for %s", models.ErrOracleUnavailable, req.SourceID)
}

func testResolver(client oracle.Client) *Resolver {
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return New(registry.Default(), client, WithClock(func() time.Time { return fixed }))
}

func TestGetPriceSuccess(t *testing.T) {
	stub := newStubOracle().price("bitcoin", "67000.5")
	r := testResolver(stub)

	record, err := r.GetPrice(context.Background(), "btc", "USD")
	if err != nil {
		t.Fatalf("GetPrice failed: %v", err)
	}
	if record.Ticker != "BTC" {
		t.Errorf("ticker = %q, want BTC", record.Ticker)
	}
	if record.Currency != "usd" {
		t.Errorf("currency = %q, want usd", record.Currency)
	}
	if record.Price.String() != "67000.5" {
		t.Errorf("price = %s, want 67000.5", record.Price)
	}
	if !record.Valid {
		t.Error("record should be valid")
	}
	if record.AsOf.IsZero() {
		t.Error("AsOf should be set")
	}
}

func TestGetPriceUnsupportedAsset(t *testing.T) {
	stub := newStubOracle()
	r := testResolver(stub)

	_, err := r.GetPrice(context.Background(), "ZZZ", "usd")
	if !errors.Is(err, models.ErrUnsupportedAsset) {
		t.Fatalf("error = %v, want ErrUnsupportedAsset", err)
	}
	if len(stub.calls) != 0 {
		t.Error("oracle must not be queried for unsupported assets")
	}
}

func TestGetPricePropagatesOracleFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unavailable", models.ErrOracleUnavailable},
		{"malformed", models.ErrMalformedResponse},
		{"consensus", models.ErrConsensusRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStubOracle().fail("bitcoin", fmt.Errorf("wrapped: %w", tt.err))
			r := testResolver(stub)

			_, err := r.GetPrice(context.Background(), "BTC", "usd")
			if !errors.Is(err, tt.err) {
				t.Errorf("error = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestGetPriceDefaultsCurrency(t *testing.T) {
	stub := newStubOracle().price("ethereum", "3500")
	r := testResolver(stub)

	record, err := r.GetPrice(context.Background(), "ETH", "")
	if err != nil {
		t.Fatalf("GetPrice failed: %v", err)
	}
	if record.Currency != "usd" {
		t.Errorf("currency = %q, want usd", record.Currency)
	}
}

func TestGetPriceNeverCaches(t *testing.T) {
	stub := newStubOracle().price("bitcoin", "67000")
	r := testResolver(stub)

	for i := 0; i < 3; i++ {
		if _, err := r.GetPrice(context.Background(), "BTC", "usd"); err != nil {
			t.Fatalf("GetPrice failed: %v", err)
		}
	}
	if stub.calls["bitcoin"] != 3 {
		t.Errorf("oracle called %d times, want 3 (no caching)", stub.calls["bitcoin"])
	}
}

func TestGetPricesPartialResults(t *testing.T) {
	stub := newStubOracle().price("bitcoin", "67000")
	r := testResolver(stub)

	results := r.GetPrices(context.Background(), []string{"BTC", "ZZZ"}, "usd")
	if len(results) != 2 {
		t.Fatalf("result count = %d, want 2", len(results))
	}

	btc := results["BTC"]
	if btc.Err != nil {
		t.Errorf("BTC should succeed, got %v", btc.Err)
	}
	if btc.Record == nil || !btc.Record.Valid {
		t.Error("BTC record should be valid")
	}

	zzz := results["ZZZ"]
	if !errors.Is(zzz.Err, models.ErrUnsupportedAsset) {
		t.Errorf("ZZZ error = %v, want ErrUnsupportedAsset", zzz.Err)
	}
	if zzz.Record != nil {
		t.Error("ZZZ must not carry a record")
	}
}

func TestGetPricesCollapsesDuplicates(t *testing.T) {
	stub := newStubOracle().price("bitcoin", "67000")
	r := testResolver(stub)

	results := r.GetPrices(context.Background(), []string{"BTC", "btc", "Btc"}, "usd")
	if len(results) != 1 {
		t.Fatalf("result count = %d, want 1", len(results))
	}
	if stub.calls["bitcoin"] != 1 {
		t.Errorf("oracle called %d times for duplicates, want 1", stub.calls["bitcoin"])
	}
}

func TestGetPricesOneFailureDoesNotAbortOthers(t *testing.T) {
	stub := newStubOracle().
		price("bitcoin", "67000").
		fail("ethereum", fmt.Errorf("%w: feed down", models.ErrOracleUnavailable)).
		price("solana", "150")
	r := testResolver(stub)

	results := r.GetPrices(context.Background(), []string{"BTC", "ETH", "SOL"}, "usd")
	if results["BTC"].Err != nil || results["SOL"].Err != nil {
		t.Error("healthy tickers must not be affected by ETH's failure")
	}
	if !errors.Is(results["ETH"].Err, models.ErrOracleUnavailable) {
		t.Errorf("ETH error = %v, want ErrOracleUnavailable", results["ETH"].Err)
	}
}
