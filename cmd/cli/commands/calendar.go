package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/facilitatorhub/dashboard/pkg/core/services"
)

// CalendarCmd creates the calendar command
func CalendarCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar [YYYY-MM]",
		Short: "Show the month calendar of the active unit (defaults to the current month)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unitID, _ := cmd.Flags().GetInt("unit")
			watch, _ := cmd.Flags().GetBool("watch")

			d, err := app.Dashboard()
			if err != nil {
				return err
			}

			if unitID != 0 && unitID != d.ActiveUnitID() {
				if err := d.SwitchUnit(app.Ctx, unitID); err != nil {
					return err
				}
			}

			if len(args) > 0 {
				year, month, err := parseMonth(args[0])
				if err != nil {
					return err
				}
				d.GoTo(year, month)
			}

			app.showGrid(d, d.Grid())

			if !watch {
				return nil
			}
			return app.watch(d)
		},
	}

	cmd.Flags().Int("unit", 0, "Unit to show (defaults to the active unit)")
	cmd.Flags().Bool("watch", false, "Keep running, re-fetching unavailability on the configured refresh schedule")

	return cmd
}

// watch re-fetches the active unit's unavailability on the refresh schedule and redraws the grid
// whenever a fetch is applied, until interrupted.
func (app *AppContext) watch(d *services.Dashboard) error {
	ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := cron.New(
		cron.WithLocation(app.Cfg.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	_, err := c.AddFunc(app.Cfg.Refresh, func() {
		if d.RefreshUnavailability(ctx) {
			app.showGrid(d, d.Grid())
			return
		}
		app.Logger.Debug("Refresh result discarded")
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", app.Cfg.Refresh, err)
	}

	app.Logger.Info("Watching for unavailability changes", zap.String("schedule", app.Cfg.Refresh))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	app.Logger.Info("Stopped watching")

	return nil
}
