package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/facilitatorhub/dashboard/cmd/cli/commands"
	"github.com/facilitatorhub/dashboard/internal/config"
	"github.com/facilitatorhub/dashboard/pkg/clients/unavailabilityclient"
	"github.com/facilitatorhub/dashboard/pkg/utils/logging"
)

var (
	env        string
	configPath string
	verbose    bool
	noColor    bool
	app        = &commands.AppContext{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Facilitator dashboard CLI - sessions and unavailability on a month calendar",
		Long: `A CLI for facilitators to browse their sessions on a month calendar,
manage the dates they are unavailable, and run the unavailability backend.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (defaults to facilitator_config.<env>.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug messages to the console")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Draw the calendar without colours")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.CalendarCmd(app))
	rootCmd.AddCommand(commands.NextCmd(app))
	rootCmd.AddCommand(commands.PrevCmd(app))
	rootCmd.AddCommand(commands.TodayCmd(app))
	rootCmd.AddCommand(commands.GotoCmd(app))
	rootCmd.AddCommand(commands.UnitCmd(app))
	rootCmd.AddCommand(commands.DayCmd(app))
	rootCmd.AddCommand(commands.RefreshCmd(app))
	rootCmd.AddCommand(commands.ListUnavailabilityCmd(app))
	rootCmd.AddCommand(commands.AddUnavailabilityCmd(app))
	rootCmd.AddCommand(commands.EditUnavailabilityCmd(app))
	rootCmd.AddCommand(commands.DeleteUnavailabilityCmd(app))
	rootCmd.AddCommand(commands.ExportICSCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up the logger, configuration and backend client
func initApp() error {
	var err error
	app.Env = env
	app.NoColor = noColor
	app.Ctx = context.Background()

	app.Logger, err = logging.InitLogger(env, logging.Options{Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Logger.Debug("Loading configuration", zap.String("path", configPath))
	if configPath != "" {
		app.Cfg, err = config.LoadFromPath(configPath)
	} else {
		app.Cfg, err = config.LoadWithEnv(env)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully",
		zap.Int("units", len(app.Cfg.Units)),
		zap.String("sessions_source", app.Cfg.Sessions.Source))

	app.Client = unavailabilityclient.NewClient(app.Cfg.BackendURL, app.Cfg.RequestTimeout())
	app.Logger.Debug("Unavailability client initialized", zap.String("backend_url", app.Cfg.BackendURL))

	return nil
}
