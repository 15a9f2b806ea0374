package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"grindbot/internal/config"
	"grindbot/internal/logging"
	"grindbot/internal/player"
)

var watchConfig bool

// runCharacterCmd runs the autonomous play loop for one character.
var runCharacterCmd = &cobra.Command{
	Use:   "run-character [name]",
	Short: "Run the autonomous play loop for a character",
	Long: `Starts the perceive-plan-execute-learn loop for the named
character and runs until interrupted (SIGINT/SIGTERM) or until
stop-character drops the stop sentinel.

Learned knowledge and the map cache persist across runs under the data
prefix.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := initLogging(cfg); err != nil {
			return err
		}

		gc, err := buildClient(cfg)
		if err != nil {
			return err
		}
		session, err := player.NewSession(cfg, gc, name)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if watchConfig {
			go func() {
				err := config.Watch(ctx, configPath, func(next *config.Config) {
					session.ApplyConfig(next)
				})
				if err != nil && ctx.Err() == nil {
					logging.Config("config watcher exited: %v", err)
				}
			}()
		}

		logger.Info("starting session",
			zap.String("character", name),
			zap.String("api", cfg.API.BaseURL))
		fmt.Printf("%s\n", titleStyle.Render("grindbot: playing "+name))

		if err := session.Run(ctx); err != nil {
			return fmt.Errorf("session %s: %w", name, err)
		}
		fmt.Printf("%s\n", okStyle.Render("session stopped cleanly"))
		return nil
	},
}

// stopCharacterCmd asks a running session to stop gracefully.
var stopCharacterCmd = &cobra.Command{
	Use:   "stop-character [name]",
	Short: "Request a graceful stop of a running session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := player.RequestStop(cfg, args[0]); err != nil {
			return err
		}
		fmt.Printf("%s\n", okStyle.Render("stop requested for "+args[0]))
		return nil
	},
}

func init() {
	runCharacterCmd.Flags().BoolVar(&watchConfig, "watch-config", false,
		"hot-reload the config file on change")
}
