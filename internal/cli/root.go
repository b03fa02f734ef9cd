package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"oraclefeed/internal/alerts"
	"oraclefeed/internal/config"
	"oraclefeed/internal/logging"
	"oraclefeed/internal/metrics"
	"oraclefeed/internal/oracle"
	"oraclefeed/internal/registry"
	"oraclefeed/internal/resolver"
	"oraclefeed/internal/store"
	"oraclefeed/pkg/utils"
)

// Version information
const Version = "0.1.0"

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	ConfigDir string
	Logger    zerolog.Logger
	Registry  *registry.Registry
	Resolver  *resolver.Resolver
	Metrics   *metrics.Engine

	alertStore store.AlertStore
	alertSvc   *alerts.Service
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, configDir string, logger zerolog.Logger) (*cobra.Command, *App) {
	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		Logger:    logger,
	}

	reg := registry.Default()
	if len(cfg.Symbols) > 0 {
		extra := make([]registry.Entry, 0, len(cfg.Symbols))
		for _, s := range cfg.Symbols {
			extra = append(extra, registry.Entry{Ticker: s.Ticker, SourceID: s.SourceID})
		}
		extended, err := reg.WithEntries(extra)
		if err != nil {
			logger.Warn().Err(err).Msg("Ignoring invalid symbol entries from config")
		} else {
			reg = extended
		}
	}
	app.Registry = reg

	if cfg.Credentials.OpenAI.APIKey != "" {
		quorum, err := buildQuorum(cfg, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to configure oracle quorum")
		} else {
			app.Resolver = resolver.New(reg, quorum,
				resolver.WithLogger(logging.WithComponent(logger, "resolver")))
			app.Metrics = metrics.New(app.Resolver)
			logger.Debug().Int("responders", cfg.Oracle.Responders).Msg("Oracle quorum initialized")
		}
	}

	rootCmd := &cobra.Command{
		Use:           "oraclefeed",
		Short:         "Consensus-gated cryptocurrency price oracle",
		Long:          "oraclefeed queries independent oracle responders for live crypto prices,\naccepts only quorum-agreed values, and evaluates registered price alerts.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringP("currency", "c", cfg.Feed.DefaultCurrency, "Quote currency")

	addPriceCommands(rootCmd, app)
	addMetricCommands(rootCmd, app)
	addAlertCommands(rootCmd, app)

	return rootCmd, app
}

// buildQuorum assembles the production oracle client: N independent LLM
// responders behind a majority gate.
func buildQuorum(cfg *config.Config, logger zerolog.Logger) (*oracle.Quorum, error) {
	client := openai.NewClient(cfg.Credentials.OpenAI.APIKey)
	responders := make([]oracle.Client, 0, cfg.Oracle.Responders)
	for i := 0; i < cfg.Oracle.Responders; i++ {
		responders = append(responders, oracle.NewLLMResponderWithClient(client, cfg.Oracle.Model, 1.0))
	}

	opts := []oracle.QuorumOption{
		oracle.WithTolerance(decimal.NewFromFloat(cfg.Oracle.TolerancePercent / 100)),
		oracle.WithLogger(logging.WithComponent(logger, "oracle")),
	}
	if cfg.Oracle.Quorum > 0 {
		opts = append(opts, oracle.WithRequired(cfg.Oracle.Quorum))
	}
	if cfg.Oracle.RetryAttempts > 0 {
		retry := utils.DefaultRetryConfig()
		retry.MaxAttempts = cfg.Oracle.RetryAttempts
		opts = append(opts, oracle.WithRetry(retry))
	}
	return oracle.NewQuorum(responders, opts...)
}

// requireResolver guards commands that need the oracle backend.
func (a *App) requireResolver() error {
	if a.Resolver == nil {
		return fmt.Errorf("oracle not configured: set OPENAI_API_KEY or credentials.toml")
	}
	return nil
}

// Alerts lazily opens the alert store and service.
func (a *App) Alerts() (*alerts.Service, error) {
	if a.alertSvc != nil {
		return a.alertSvc, nil
	}
	s, err := store.NewSQLiteStore(a.Config.StorePath(a.ConfigDir))
	if err != nil {
		return nil, fmt.Errorf("opening alert store: %w", err)
	}
	a.alertStore = s

	var prices alerts.PriceSource
	if a.Resolver != nil {
		prices = a.Resolver
	}
	a.alertSvc = alerts.New(a.Registry, prices, s,
		alerts.WithLogger(logging.WithComponent(a.Logger, "alerts")))
	return a.alertSvc, nil
}

// Close releases held resources.
func (a *App) Close() error {
	if a.alertStore != nil {
		return a.alertStore.Close()
	}
	return nil
}

// commandContext returns a context bounded by the configured lookup timeout.
func (a *App) commandContext() (context.Context, context.CancelFunc) {
	timeout := time.Duration(a.Config.Oracle.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}
