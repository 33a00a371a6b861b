package commands

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/facilitatorhub/dashboard/pkg/core/calendar"
	"github.com/facilitatorhub/dashboard/pkg/core/model"
	"github.com/facilitatorhub/dashboard/pkg/core/services"
)

const monthLayout = "2006-01"

func (app *AppContext) palette() palette {
	if app.NoColor {
		return plainPalette
	}
	return colorPalette
}

// showGrid renders grid for the dashboard's active unit
func (app *AppContext) showGrid(d *services.Dashboard, grid calendar.Grid) {
	title := fmt.Sprintf("unit %d", d.ActiveUnitID())
	if u, ok := app.Cfg.Unit(d.ActiveUnitID()); ok {
		title = unitLabel(u)
	}
	renderGrid(os.Stdout, grid, title, app.palette())
}

func unitLabel(u model.Unit) string {
	if u.Name == "" {
		return u.Code
	}
	return fmt.Sprintf("%s %s", u.Code, u.Name)
}

// parseMonth parses a YYYY-MM argument
func parseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return 0, 0, fmt.Errorf("month must be in YYYY-MM format, got: %s", s)
	}
	return t.Year(), t.Month(), nil
}

// navigationCmd builds a command that moves the displayed month and renders it
func navigationCmd(app *AppContext, use, short string, move func(d *services.Dashboard) calendar.Grid) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.Dashboard()
			if err != nil {
				return err
			}
			app.showGrid(d, move(d))
			return nil
		},
	}
}

// NextCmd creates the next command
func NextCmd(app *AppContext) *cobra.Command {
	cmd := navigationCmd(app, "next", "Show the next month", func(d *services.Dashboard) calendar.Grid {
		return d.Navigate(1)
	})
	cmd.Aliases = []string{"n"}
	return cmd
}

// PrevCmd creates the prev command
func PrevCmd(app *AppContext) *cobra.Command {
	cmd := navigationCmd(app, "prev", "Show the previous month", func(d *services.Dashboard) calendar.Grid {
		return d.Navigate(-1)
	})
	cmd.Aliases = []string{"p"}
	return cmd
}

// TodayCmd creates the today command
func TodayCmd(app *AppContext) *cobra.Command {
	return navigationCmd(app, "today", "Show the current month", func(d *services.Dashboard) calendar.Grid {
		return d.Today()
	})
}

// RefreshCmd creates the refresh command
func RefreshCmd(app *AppContext) *cobra.Command {
	return navigationCmd(app, "refresh", "Re-fetch the active unit's unavailability", func(d *services.Dashboard) calendar.Grid {
		d.RefreshUnavailability(app.Ctx)
		return d.Grid()
	})
}

// GotoCmd creates the goto command
func GotoCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "goto <YYYY-MM>",
		Short: "Show the given month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := parseMonth(args[0])
			if err != nil {
				return err
			}

			d, err := app.Dashboard()
			if err != nil {
				return err
			}
			app.showGrid(d, d.GoTo(year, month))
			return nil
		},
	}
}

// UnitCmd creates the unit command
func UnitCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unit [unit_id]",
		Short: "List units, or switch the active unit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.Dashboard()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				fmt.Printf("\nUnits:\n\n")
				for _, u := range d.Units() {
					marker := " "
					if u.ID == d.ActiveUnitID() {
						marker = "*"
					}
					fmt.Printf("%s %3d  %-30s %s\n", marker, u.ID, unitLabel(u), u.Status)
				}
				fmt.Println()
				return nil
			}

			unitID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("unit_id must be a number, got: %s", args[0])
			}

			app.Logger.Debug("unit command", zap.Int("unit_id", unitID))
			if err := d.SwitchUnit(app.Ctx, unitID); err != nil {
				return err
			}
			app.showGrid(d, d.Grid())
			return nil
		},
	}
}

// DayCmd creates the day command
func DayCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "day <day|DD/MM/YYYY>",
		Short: "List every session on a day of the displayed month, or on a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.Dashboard()
			if err != nil {
				return err
			}

			key, err := resolveDay(args[0], d.Cursor())
			if err != nil {
				return err
			}

			renderDay(os.Stdout, key, d.EventsForDate(key), recordsOn(key, d.Unavailability()))
			return nil
		},
	}
}

// resolveDay accepts a day number of the displayed month or a full date
func resolveDay(arg string, cursor calendar.Cursor) (calendar.DateKey, error) {
	if day, err := strconv.Atoi(arg); err == nil {
		key := calendar.ToDateKey(cursor.Year, cursor.Month, day)
		if _, ok := calendar.NormalizeDateKey(string(key)); !ok {
			return "", fmt.Errorf("%s %d has no day %d", cursor.Month, cursor.Year, day)
		}
		return key, nil
	}

	key, ok := calendar.NormalizeDateKey(arg)
	if !ok {
		return "", fmt.Errorf("date must be a day number or DD/MM/YYYY, got: %s", arg)
	}
	return key, nil
}
