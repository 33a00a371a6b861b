package commands

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/facilitatorhub/dashboard/internal/config"
	"github.com/facilitatorhub/dashboard/pkg/clients/sheetsclient"
	"github.com/facilitatorhub/dashboard/pkg/clients/unavailabilityclient"
	"github.com/facilitatorhub/dashboard/pkg/core/services"
	"github.com/facilitatorhub/dashboard/pkg/sessions"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Env     string
	NoColor bool
	Cfg     *config.Config
	Client  *unavailabilityclient.Client
	Logger  *zap.Logger
	Ctx     context.Context

	dashboardOnce sync.Once
	dashboard     *services.Dashboard
	dashboardErr  error
}

// Dashboard returns the dashboard, preloading sessions and the active unit's unavailability on first use.
// Later calls, including those from the interactive session, share the same state.
func (app *AppContext) Dashboard() (*services.Dashboard, error) {
	app.dashboardOnce.Do(func() {
		app.dashboard, app.dashboardErr = app.newDashboard()
	})
	return app.dashboard, app.dashboardErr
}

func (app *AppContext) newDashboard() (*services.Dashboard, error) {
	source, err := app.sessionSource()
	if err != nil {
		return nil, err
	}

	app.Logger.Info("Loading sessions", zap.String("source", app.Cfg.Sessions.Source))
	unitSessions, err := services.LoadSessions(app.Ctx, source, app.Cfg.Units, app.Logger)
	if err != nil {
		return nil, err
	}

	dashboard := services.NewDashboard(app.Client, app.Logger, app.Cfg.Units, unitSessions, services.DashboardOptions{
		ExpandRecurring: app.Cfg.ExpandRecurring,
		Location:        app.Cfg.Location(),
	})

	app.Logger.Debug("Fetching initial unavailability", zap.Int("unit_id", dashboard.ActiveUnitID()))
	dashboard.RefreshUnavailability(app.Ctx)

	return dashboard, nil
}

// sessionSource picks the configured session source. The sheets source runs the OAuth flow.
func (app *AppContext) sessionSource() (services.SessionSource, error) {
	sc := app.Cfg.Sessions

	switch sc.Source {
	case config.SourceCSV:
		return sessions.CSVSource{Path: sc.Path}, nil
	case config.SourceXLSX:
		return sessions.XLSXSource{Path: sc.Path, Sheet: sc.SheetTab}, nil
	case config.SourceSheets:
		app.Logger.Info("Loading OAuth client configuration")
		oauthCfg, err := config.LoadOAuthClientWithEnv(app.Env)
		if err != nil {
			return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
		}

		app.Logger.Info("Initializing sheets client")
		client, err := sheetsclient.NewClient(app.Ctx, oauthCfg, app.Env, app.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets client: %w", err)
		}

		return sheetsclient.SessionSheet{Getter: client, SheetID: sc.SheetID, Tab: sc.SheetTab}, nil
	}

	return nil, fmt.Errorf("unknown session source %q", sc.Source)
}
