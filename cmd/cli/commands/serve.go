package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/facilitatorhub/dashboard/pkg/api"
	"github.com/facilitatorhub/dashboard/pkg/db"
	"github.com/facilitatorhub/dashboard/pkg/postgres"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the unavailability backend (postgres if a database URL is configured, in memory otherwise)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listen, _ := cmd.Flags().GetString("listen")
			if listen == "" {
				listen = app.Cfg.Listen
			}

			ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, closeStore, err := app.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			handler := api.NewHandler(store, app.Cfg.Units, app.Logger)
			server := &http.Server{
				Addr:              listen,
				Handler:           api.Routes(handler),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errChan := make(chan error, 1)
			go func() {
				app.Logger.Info("Serving unavailability API", zap.String("addr", listen))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errChan <- err
				}
				close(errChan)
			}()

			select {
			case err := <-errChan:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			app.Logger.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().String("listen", "", "Address to listen on (defaults to the configured listen address)")
	return cmd
}

// openStore connects to postgres and applies migrations, or falls back to an in-memory store
func (app *AppContext) openStore(ctx context.Context) (db.UnavailabilityStore, func(), error) {
	if app.Cfg.DatabaseURL == "" {
		app.Logger.Warn("No database URL configured, unavailability is kept in memory only")
		return db.NewMemoryStore(), func() {}, nil
	}

	app.Logger.Info("Connecting to database")
	database, err := postgres.NewDB(ctx, app.Cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	app.Logger.Info("Running migrations")
	if err := database.RunMigrations(ctx); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	app.Logger.Debug("Database ready")

	return database, database.Close, nil
}
