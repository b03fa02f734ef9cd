package cli

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"oraclefeed/internal/models"
	"oraclefeed/internal/store"
)

// addAlertCommands adds the alert lifecycle commands.
func addAlertCommands(rootCmd *cobra.Command, app *App) {
	alertCmd := &cobra.Command{
		Use:   "alert",
		Short: "Manage price alerts",
	}
	alertCmd.AddCommand(newAlertAddCmd(app))
	alertCmd.AddCommand(newAlertListCmd(app))
	alertCmd.AddCommand(newAlertCheckCmd(app))
	rootCmd.AddCommand(alertCmd)
}

func newAlertAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add SYMBOL DIRECTION THRESHOLD",
		Short: "Register a price alert",
		Long: `Register a price alert.

DIRECTION is "above" or "below". The symbol is validated immediately; the
price is only fetched when the alert is checked.`,
		Example: `  oraclefeed alert add BTC above 100000
  oraclefeed alert add ETH below 1500`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			threshold, err := decimal.NewFromString(args[2])
			if err != nil {
				output.Error("Invalid threshold %q: %v", args[2], err)
				return err
			}

			svc, err := app.Alerts()
			if err != nil {
				output.Error("%v", err)
				return err
			}

			ctx, cancel := app.commandContext()
			defer cancel()

			rule, err := svc.Register(ctx, args[0], threshold, models.AlertDirection(args[1]))
			if err != nil {
				output.Error("Registration failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(rule)
			}
			output.Success("Alert #%d registered: %s", rule.ID,
				ruleLabel(rule.Ticker, string(rule.Direction), rule.Threshold))
			return nil
		},
	}
}

func newAlertListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			filter, _ := cmd.Flags().GetString("status")

			svc, err := app.Alerts()
			if err != nil {
				output.Error("%v", err)
				return err
			}

			ctx, cancel := app.commandContext()
			defer cancel()

			rules, err := svc.List(ctx, store.Filter(filter))
			if err != nil {
				output.Error("Listing failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(rules)
			}

			if len(rules) == 0 {
				output.Info("No alerts registered")
				return nil
			}
			for _, rule := range rules {
				marker := " "
				if rule.Status == models.AlertTriggered {
					marker = "*"
				}
				output.Printf("%s #%-4d %-24s %s\n", marker, rule.ID,
					ruleLabel(rule.Ticker, string(rule.Direction), rule.Threshold), rule.Status)
			}
			return nil
		},
	}
	cmd.Flags().String("status", "all", "Filter: all, pending, triggered")
	return cmd
}

func newAlertCheckCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Evaluate pending alerts against current prices",
		Long: `Evaluate pending alerts against current prices.

Each pending alert's ticker is resolved once. Alerts whose price lookup
fails stay pending and are reported separately; already-triggered alerts
are never re-evaluated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.requireResolver(); err != nil {
				output.Error("%v", err)
				return err
			}
			currency, _ := cmd.Flags().GetString("currency")

			svc, err := app.Alerts()
			if err != nil {
				output.Error("%v", err)
				return err
			}

			ctx, cancel := app.commandContext()
			defer cancel()

			report, err := svc.EvaluateAll(ctx, currency)
			if err != nil {
				output.Error("Evaluation failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(report)
			}

			output.Printf("Evaluated %d pending alert(s)\n", report.Evaluated)
			for _, rule := range report.Triggered {
				output.Success("TRIGGERED #%d: %s", rule.ID,
					ruleLabel(rule.Ticker, string(rule.Direction), rule.Threshold))
			}
			for _, ue := range report.Unevaluable {
				output.Warning("UNEVALUABLE #%d (%s): %v", ue.Rule.ID, ue.Rule.Ticker, ue.Err)
			}
			if len(report.Triggered) == 0 && len(report.Unevaluable) == 0 {
				output.Info("Nothing triggered")
			}
			return nil
		},
	}
}
