package metrics

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"oraclefeed/internal/models"
)

func fixedPrices(prices map[string]float64) *fakePrices {
	fake := newFakePrices()
	for ticker, price := range prices {
		fake.set(ticker, decimal.NewFromFloat(price).String())
	}
	return fake
}

// Feature: oraclefeed, Property 1: Portfolio total equals the sum of its line values
//
// Property: For any set of holdings with non-negative amounts, the valuation
// total must equal the sum over the lines of amount * price, and the number
// of lines must equal the number of holdings.
func TestProperty_PortfolioTotalEqualsSumOfLines(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	holdingGen := gen.Struct(reflect.TypeOf(models.Holding{}), map[string]gopter.Gen{
		"Ticker": gen.OneConstOf("BTC", "ETH", "SOL", "btc", "eth"),
		"Amount": gen.Float64Range(0, 1000).Map(func(f float64) decimal.Decimal {
			return decimal.NewFromFloat(f)
		}),
	})

	properties.Property("total equals sum of lines", prop.ForAll(
		func(holdings []models.Holding) bool {
			fake := fixedPrices(map[string]float64{"BTC": 60000, "ETH": 3000, "SOL": 150})
			e := New(fake)

			valuation, err := e.PortfolioValue(context.Background(), holdings, "usd")
			if err != nil {
				return false
			}
			if len(valuation.Lines) != len(holdings) {
				return false
			}
			sum := decimal.Zero
			for _, line := range valuation.Lines {
				if !line.Value.Equal(line.Amount.Mul(line.Price)) {
					return false
				}
				sum = sum.Add(line.Value)
			}
			return valuation.Total.Equal(sum)
		},
		gen.SliceOf(holdingGen),
	))

	properties.TestingRun(t)
}

// Feature: oraclefeed, Property 2: Each distinct ticker is resolved at most once per valuation
//
// Property: Regardless of how many holdings share a ticker (in any letter
// case), the price source sees at most one lookup for it.
func TestProperty_PortfolioResolvesDistinctTickersOnce(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("at most one lookup per distinct ticker", prop.ForAll(
		func(tickers []string) bool {
			fake := fixedPrices(map[string]float64{"BTC": 60000, "ETH": 3000, "SOL": 150})
			e := New(fake)

			holdings := make([]models.Holding, len(tickers))
			for i, ticker := range tickers {
				holdings[i] = models.Holding{Ticker: ticker, Amount: decimal.NewFromInt(1)}
			}
			if _, err := e.PortfolioValue(context.Background(), holdings, "usd"); err != nil {
				return false
			}
			for _, n := range fake.calls {
				if n > 1 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.OneConstOf("BTC", "btc", "ETH", "eth", "SOL", "sol")),
	))

	properties.TestingRun(t)
}

// Feature: oraclefeed, Property 3: Above and below are mutually exclusive and strict
//
// Property: For any price and threshold, IsAbove and IsBelow are never both
// satisfied, and when price equals threshold neither is satisfied.
func TestProperty_AboveAndBelowAreMutuallyExclusive(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("never both, neither at equality", prop.ForAll(
		func(price, threshold float64) bool {
			p := decimal.NewFromFloat(price)
			th := decimal.NewFromFloat(threshold)
			fake := newFakePrices().set("BTC", p.String())
			e := New(fake)

			above, err := e.IsAbove(context.Background(), "BTC", th, "usd")
			if err != nil {
				return false
			}
			below, err := e.IsBelow(context.Background(), "BTC", th, "usd")
			if err != nil {
				return false
			}
			if above.Satisfied && below.Satisfied {
				return false
			}
			if p.Equal(th) && (above.Satisfied || below.Satisfied) {
				return false
			}
			// Exactly one holds when the values differ.
			if !p.Equal(th) && above.Satisfied == below.Satisfied {
				return false
			}
			return true
		},
		gen.Float64Range(0, 100000),
		gen.Float64Range(0, 100000),
	))

	properties.TestingRun(t)
}

// Feature: oraclefeed, Property 4: Comparison ratio reconstructs the first price
//
// Property: For any two positive prices, ratio * price2 must equal price1 to
// within the rounding precision of the division, and Higher must name the
// symbol with the strictly greater price, the first symbol on ties.
func TestProperty_ComparisonRatioAndHigher(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("ratio is consistent with the input prices", prop.ForAll(
		func(price1, price2 float64) bool {
			p1 := decimal.NewFromFloat(price1)
			p2 := decimal.NewFromFloat(price2)
			fake := newFakePrices().set("BTC", p1.String()).set("ETH", p2.String())
			e := New(fake)

			cmp, err := e.Compare(context.Background(), "BTC", "ETH", "usd")
			if err != nil {
				return false
			}

			reconstructed := cmp.Ratio.Mul(p2)
			tolerance := p2.Abs().Mul(decimal.New(1, -ratioPrecision+1))
			if reconstructed.Sub(p1).Abs().GreaterThan(tolerance) {
				return false
			}

			switch {
			case p1.GreaterThanOrEqual(p2):
				return cmp.Higher == "BTC"
			default:
				return cmp.Higher == "ETH"
			}
		},
		gen.Float64Range(0.0001, 1000000),
		gen.Float64Range(0.0001, 1000000),
	))

	properties.TestingRun(t)
}
