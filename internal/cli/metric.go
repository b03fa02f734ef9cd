package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"oraclefeed/internal/models"
)

// addMetricCommands adds the derived-computation commands.
func addMetricCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newCompareCmd(app))
	rootCmd.AddCommand(newPortfolioCmd(app))
	rootCmd.AddCommand(newThresholdCmd(app, true))
	rootCmd.AddCommand(newThresholdCmd(app, false))
	rootCmd.AddCommand(newSignalCmd(app))
}

func newCompareCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "compare SYMBOL1 SYMBOL2",
		Short:   "Compare the prices of two coins",
		Example: `  oraclefeed compare BTC ETH`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.requireResolver(); err != nil {
				output.Error("%v", err)
				return err
			}
			currency, _ := cmd.Flags().GetString("currency")

			ctx, cancel := app.commandContext()
			defer cancel()

			cmp, err := app.Metrics.Compare(ctx, args[0], args[1], currency)
			if err != nil {
				output.Error("Comparison failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(cmp)
			}

			output.Bold("%s vs %s (%s)", cmp.Symbol1, cmp.Symbol2, currencyLabel(cmp.Currency))
			output.Printf("  %-6s %s\n", cmp.Symbol1, FormatPrice(cmp.Price1))
			output.Printf("  %-6s %s\n", cmp.Symbol2, FormatPrice(cmp.Price2))
			output.Printf("  Ratio:  %s\n", cmp.Ratio.StringFixed(6))
			output.Printf("  Higher: %s\n", cmp.Higher)
			return nil
		},
	}
}

func newPortfolioCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio SYMBOL=AMOUNT...",
		Short: "Value a portfolio at current prices",
		Long: `Value a portfolio at current prices.

Holdings are SYMBOL=AMOUNT pairs. A symbol may appear more than once; the
lines stay separate but share a single resolved price.`,
		Example: `  oraclefeed portfolio BTC=0.5 ETH=2
  oraclefeed portfolio BTC=0.1 BTC=0.4 SOL=10 --currency eur`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.requireResolver(); err != nil {
				output.Error("%v", err)
				return err
			}
			currency, _ := cmd.Flags().GetString("currency")

			holdings, err := parseHoldings(args)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			ctx, cancel := app.commandContext()
			defer cancel()

			valuation, err := app.Metrics.PortfolioValue(ctx, holdings, currency)
			if err != nil {
				output.Error("Valuation failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(valuation)
			}

			output.Bold("Portfolio (%s)", currencyLabel(valuation.Currency))
			for _, line := range valuation.Lines {
				output.Printf("  %-6s %s @ %s = %s\n",
					line.Ticker, FormatAmount(line.Amount), FormatPrice(line.Price), FormatPrice(line.Value))
			}
			output.Printf("  Total: %s\n", FormatPrice(valuation.Total))
			return nil
		},
	}
}

func newThresholdCmd(app *App, above bool) *cobra.Command {
	use, short := "above SYMBOL THRESHOLD", "Check if a price is above a threshold"
	if !above {
		use, short = "below SYMBOL THRESHOLD", "Check if a price is below a threshold"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.requireResolver(); err != nil {
				output.Error("%v", err)
				return err
			}
			currency, _ := cmd.Flags().GetString("currency")

			threshold, err := decimal.NewFromString(args[1])
			if err != nil {
				output.Error("Invalid threshold %q: %v", args[1], err)
				return err
			}

			ctx, cancel := app.commandContext()
			defer cancel()

			check := app.Metrics.IsAbove
			if !above {
				check = app.Metrics.IsBelow
			}
			tc, err := check(ctx, args[0], threshold, currency)
			if err != nil {
				output.Error("Threshold check failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(tc)
			}

			direction := "above"
			if !above {
				direction = "below"
			}
			output.Bold("%s %s %s?", tc.Ticker, direction, tc.Threshold.String())
			output.Printf("  Price:      %s\n", FormatPrice(tc.Price))
			output.Printf("  Difference: %s\n", FormatPrice(tc.Difference))
			if tc.PercentDiff != nil {
				output.Printf("  Off by:     %s\n", FormatPercent(*tc.PercentDiff))
			}
			if tc.Satisfied {
				output.Success("  Yes")
			} else {
				output.Warning("  No")
			}
			return nil
		},
	}
}

func newSignalCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "signal SYMBOL TARGET",
		Short: "Momentum buy signal against a target level",
		Long: `Momentum buy signal against a target level.

Recommends buying when the price sits below the target while the 24h change
is positive. Informational only; nothing is executed.`,
		Example: `  oraclefeed signal BTC 70000`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.requireResolver(); err != nil {
				output.Error("%v", err)
				return err
			}
			currency, _ := cmd.Flags().GetString("currency")

			target, err := decimal.NewFromString(args[1])
			if err != nil {
				output.Error("Invalid target %q: %v", args[1], err)
				return err
			}

			ctx, cancel := app.commandContext()
			defer cancel()

			sig, err := app.Metrics.BuySignal(ctx, args[0], target, currency)
			if err != nil {
				output.Error("Signal failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(sig)
			}

			output.Bold("%s signal", sig.Ticker)
			output.Printf("  Price:  %s\n", FormatPrice(sig.Price))
			output.Printf("  Target: %s\n", FormatPrice(sig.Target))
			if sig.Change24h != nil {
				output.Printf("  24h:    %s\n", FormatPercent(*sig.Change24h))
			}
			if sig.Buy {
				output.Success("  BUY: %s", sig.Reason)
			} else {
				output.Warning("  HOLD: %s", sig.Reason)
			}
			return nil
		},
	}
}

// parseHoldings parses SYMBOL=AMOUNT arguments.
func parseHoldings(args []string) ([]models.Holding, error) {
	holdings := make([]models.Holding, 0, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid holding %q, expected SYMBOL=AMOUNT", arg)
		}
		amount, err := decimal.NewFromString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid amount in %q: %w", arg, err)
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("negative amount in %q", arg)
		}
		holdings = append(holdings, models.Holding{Ticker: parts[0], Amount: amount})
	}
	return holdings, nil
}
