package cli

import (
	"errors"
	"sort"

	"github.com/spf13/cobra"

	"oraclefeed/internal/models"
)

// addPriceCommands adds the lookup commands.
func addPriceCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newCoinsCmd(app))
	rootCmd.AddCommand(newPriceCmd(app))
	rootCmd.AddCommand(newPricesCmd(app))
}

func newCoinsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "coins",
		Short: "List supported coins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			tickers := app.Registry.List()

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"count":           len(tickers),
					"supported_coins": tickers,
				})
			}

			output.Bold("Supported coins (%d)", len(tickers))
			for _, ticker := range tickers {
				output.Printf("  %s\n", ticker)
			}
			return nil
		},
	}
}

func newPriceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "price SYMBOL",
		Short: "Get the current price of a coin",
		Example: `  oraclefeed price BTC
  oraclefeed price ETH --currency eur --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.requireResolver(); err != nil {
				output.Error("%v", err)
				return err
			}
			currency, _ := cmd.Flags().GetString("currency")

			ctx, cancel := app.commandContext()
			defer cancel()

			record, err := app.Resolver.GetPrice(ctx, args[0], currency)
			if err != nil {
				output.Error("Price lookup failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(record)
			}

			printRecord(output, record)
			return nil
		},
	}
}

func newPricesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "prices SYMBOL...",
		Short: "Get prices for several coins at once",
		Long: `Get prices for several coins at once.

Each symbol is resolved independently: a failed or unsupported symbol is
reported alongside the successful ones instead of aborting the batch.`,
		Example: `  oraclefeed prices BTC ETH SOL
  oraclefeed prices BTC ZZZ --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.requireResolver(); err != nil {
				output.Error("%v", err)
				return err
			}
			currency, _ := cmd.Flags().GetString("currency")

			ctx, cancel := app.commandContext()
			defer cancel()

			results := app.Resolver.GetPrices(ctx, args, currency)

			if output.IsJSON() {
				return output.JSON(jsonBatch(results))
			}

			tickers := make([]string, 0, len(results))
			for ticker := range results {
				tickers = append(tickers, ticker)
			}
			sort.Strings(tickers)

			for _, ticker := range tickers {
				res := results[ticker]
				if res.Err != nil {
					output.Error("%-6s %v", ticker, res.Err)
					continue
				}
				printRecordLine(output, res.Record)
			}
			return nil
		},
	}
}

// batchEntry is the JSON shape of one batch result.
type batchEntry struct {
	Record *models.PriceRecord `json:"record,omitempty"`
	Error  string              `json:"error,omitempty"`
	Kind   string              `json:"error_kind,omitempty"`
}

func jsonBatch(results map[string]models.PriceResult) map[string]batchEntry {
	out := make(map[string]batchEntry, len(results))
	for ticker, res := range results {
		if res.Err != nil {
			out[ticker] = batchEntry{Error: res.Err.Error(), Kind: failureKind(res.Err)}
			continue
		}
		out[ticker] = batchEntry{Record: res.Record}
	}
	return out
}

// failureKind maps a failure to its taxonomy name for structured output.
func failureKind(err error) string {
	switch {
	case errors.Is(err, models.ErrUnsupportedAsset):
		return "unsupported_asset"
	case errors.Is(err, models.ErrConsensusRejected):
		return "consensus_rejected"
	case errors.Is(err, models.ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, models.ErrOracleUnavailable):
		return "oracle_unavailable"
	case errors.Is(err, models.ErrDivisionUndefined):
		return "division_undefined"
	case errors.Is(err, models.ErrInvalidRuleReference):
		return "invalid_rule_reference"
	default:
		return "error"
	}
}

func printRecord(output *Output, record *models.PriceRecord) {
	output.Bold("%s/%s", record.Ticker, currencyLabel(record.Currency))
	output.Printf("  Price:      %s\n", FormatPrice(record.Price))
	if record.Change24h != nil {
		output.Printf("  24h change: %s\n", FormatPercent(*record.Change24h))
	}
	if record.MarketCap != nil {
		output.Printf("  Market cap: %s\n", FormatMarketCap(*record.MarketCap))
	}
	output.Printf("  As of:      %s\n", record.AsOf.Format("2006-01-02 15:04:05 MST"))
}

func printRecordLine(output *Output, record *models.PriceRecord) {
	line := record.Ticker
	for len(line) < 6 {
		line += " "
	}
	if record.Change24h != nil {
		output.Printf("%s %12s  %s\n", line, FormatPrice(record.Price), FormatPercent(*record.Change24h))
	} else {
		output.Printf("%s %12s\n", line, FormatPrice(record.Price))
	}
}
