package main

import (
	"fmt"
	"os"

	"oraclefeed/internal/cli"
	"oraclefeed/internal/config"
	"oraclefeed/internal/logging"
)

func main() {
	configDir := os.Getenv("ORACLEFEED_CONFIG_DIR")
	if configDir == "" {
		configDir = config.DefaultConfigDir()
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oraclefeed: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Console = cfg.Logging.Console
	logCfg.File = cfg.Logging.File
	logger := logging.NewLoggerWithConfig(logCfg)

	rootCmd, app := cli.NewRootCmd(cfg, configDir, logger)
	defer app.Close()

	if err := rootCmd.Execute(); err != nil {
		logger.Debug().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
