package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"grindbot/internal/client"
	"grindbot/internal/config"
	"grindbot/internal/logging"
)

var (
	// Global flags
	configPath string
	logLevel   string
	tokenFile  string
	apiURL     string

	// Logger for CLI-surface messages; subsystem logs go to the
	// categorized file logger.
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "grindbot",
	Short: "grindbot - autonomous agent for cooldown-based MMO APIs",
	Long: `grindbot plays characters on an ArtifactsMMO-style REST API
autonomously: it selects goals, plans action sequences with GOAP,
executes them against the server, and learns the world as it goes.

State persists per character under the data prefix: learned knowledge,
the scanned map, and a SQLite action journal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if logLevel == "debug" {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

// loadConfig loads the config file and folds the CLI flags over it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if tokenFile != "" {
		cfg.API.TokenFile = tokenFile
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// buildClient assembles the REST client from config.
func buildClient(cfg *config.Config) (*client.RESTClient, error) {
	token, err := cfg.ResolveToken()
	if err != nil {
		return nil, err
	}
	return client.NewRESTClient(cfg.API.BaseURL, token,
		client.WithTimeout(cfg.GetAPITimeout())), nil
}

// initLogging points the categorized file logger at the configured
// directory.
func initLogging(cfg *config.Config) error {
	return logging.Configure(cfg.Logging.Dir, cfg.Logging.Level)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "grindbot.yaml", "path to the config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&tokenFile, "token-file", "", "path to the API token file (default TOKEN)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "game server base URL")

	rootCmd.AddCommand(runCharacterCmd)
	rootCmd.AddCommand(stopCharacterCmd)
	rootCmd.AddCommand(statusCharacterCmd)
	rootCmd.AddCommand(listCharactersCmd)
	rootCmd.AddCommand(createCharacterCmd)
	rootCmd.AddCommand(deleteCharacterCmd)
	rootCmd.AddCommand(diagnoseStateCmd)
	rootCmd.AddCommand(diagnoseActionsCmd)
	rootCmd.AddCommand(diagnosePlanCmd)
	rootCmd.AddCommand(testPlanningCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
