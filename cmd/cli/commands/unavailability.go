package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/facilitatorhub/dashboard/pkg/clients/unavailabilityclient"
	"github.com/facilitatorhub/dashboard/pkg/core/calendar"
	"github.com/facilitatorhub/dashboard/pkg/core/model"
)

// resolveUnit returns the --unit flag, falling back to the active unit or the first configured unit
func (app *AppContext) resolveUnit(cmd *cobra.Command) (int, error) {
	unitID, _ := cmd.Flags().GetInt("unit")
	if unitID == 0 {
		if app.dashboard != nil {
			return app.dashboard.ActiveUnitID(), nil
		}
		return app.Cfg.Units[0].ID, nil
	}
	if _, ok := app.Cfg.Unit(unitID); !ok {
		return 0, fmt.Errorf("unknown unit %d", unitID)
	}
	return unitID, nil
}

// afterChange refreshes the loaded dashboard when the changed unit is the one on display
func (app *AppContext) afterChange(unitID int) {
	if app.dashboard == nil || app.dashboard.ActiveUnitID() != unitID {
		return
	}
	app.dashboard.RefreshUnavailability(app.Ctx)
}

func describeBackendError(err error) error {
	var backendErr *unavailabilityclient.ErrorResponse
	if errors.As(err, &backendErr) {
		return fmt.Errorf("backend rejected the request: %s", backendErr.Message)
	}
	return err
}

// ListUnavailabilityCmd creates the listUnavailability command
func ListUnavailabilityCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listUnavailability",
		Short: "List the unavailability of a unit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			unitID, err := app.resolveUnit(cmd)
			if err != nil {
				return err
			}

			records, err := app.Client.List(app.Ctx, unitID)
			if err != nil {
				return fmt.Errorf("failed to list unavailability: %w", describeBackendError(err))
			}

			fmt.Printf("\nFound %d unavailability record(s) for unit %d:\n\n", len(records), unitID)
			for _, r := range records {
				date := r.Date
				if key, ok := calendar.DateKeyFromISO(r.Date); ok {
					date = string(key)
				}
				fmt.Printf("  %4d  %s  %s\n", r.ID, date, describeUnavailability(r))
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().Int("unit", 0, "Unit id (defaults to the active unit)")
	return cmd
}

func addRecordFlags(cmd *cobra.Command) {
	cmd.Flags().Int("unit", 0, "Unit id (defaults to the active unit)")
	cmd.Flags().String("start", "", "Start time (HH:MM); omit for a full day")
	cmd.Flags().String("end", "", "End time (HH:MM)")
	cmd.Flags().Bool("full-day", false, "Mark the whole day unavailable")
	cmd.Flags().String("reason", "", "Reason shown to coordinators")
	cmd.Flags().String("repeat", "", "Recurrence: weekly, fortnightly, monthly or custom")
	cmd.Flags().String("until", "", "Last date of the recurrence (YYYY-MM-DD)")
	cmd.Flags().String("rule", "", "RRULE for custom recurrence, e.g. FREQ=MONTHLY;BYDAY=1FR")
}

// applyRecordFlags copies the flags the user set onto record.
// Setting --start or --end clears full-day; setting --full-day clears the times.
func applyRecordFlags(cmd *cobra.Command, record model.UnavailabilityRecord) model.UnavailabilityRecord {
	flags := cmd.Flags()
	str := func(name string) string {
		v, _ := flags.GetString(name)
		return v
	}

	if flags.Changed("date") {
		record.Date = str("date")
	}
	if flags.Changed("start") {
		start := str("start")
		record.StartTime = &start
		record.IsFullDay = false
	}
	if flags.Changed("end") {
		end := str("end")
		record.EndTime = &end
		record.IsFullDay = false
	}
	if full, _ := flags.GetBool("full-day"); full {
		record.IsFullDay = true
		record.StartTime = nil
		record.EndTime = nil
	}
	if flags.Changed("reason") {
		record.Reason = str("reason")
	}
	if flags.Changed("repeat") {
		record.RecurringPattern = model.RecurringPattern(str("repeat"))
	}
	if flags.Changed("until") {
		until := str("until")
		record.RecurringEndDate = &until
		if until == "" {
			record.RecurringEndDate = nil
		}
	}
	if flags.Changed("rule") {
		record.RecurrenceRule = str("rule")
	}

	return record
}

// AddUnavailabilityCmd creates the addUnavailability command
func AddUnavailabilityCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addUnavailability <YYYY-MM-DD>",
		Short: "Mark a date (or part of it) as unavailable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unitID, err := app.resolveUnit(cmd)
			if err != nil {
				return err
			}
			if _, ok := calendar.DateKeyFromISO(args[0]); !ok {
				return fmt.Errorf("date must be in YYYY-MM-DD format, got: %s", args[0])
			}

			record := applyRecordFlags(cmd, model.UnavailabilityRecord{
				UnitID:    unitID,
				Date:      args[0],
				IsFullDay: true,
			})

			app.Logger.Debug("addUnavailability command",
				zap.Int("unit_id", unitID),
				zap.String("date", record.Date))

			created, err := app.Client.Create(app.Ctx, record)
			if err != nil {
				return fmt.Errorf("failed to add unavailability: %w", describeBackendError(err))
			}
			app.afterChange(unitID)

			fmt.Printf("\n✓ Unavailability %d added: %s %s\n\n", created.ID, created.Date, describeUnavailability(created))
			return nil
		},
	}

	addRecordFlags(cmd)
	return cmd
}

// EditUnavailabilityCmd creates the editUnavailability command
func EditUnavailabilityCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "editUnavailability <id>",
		Short: "Change an unavailability record; only the given flags are updated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("id must be a number, got: %s", args[0])
			}
			unitID, err := app.resolveUnit(cmd)
			if err != nil {
				return err
			}

			records, err := app.Client.List(app.Ctx, unitID)
			if err != nil {
				return fmt.Errorf("failed to load unavailability: %w", describeBackendError(err))
			}

			var existing *model.UnavailabilityRecord
			for i := range records {
				if records[i].ID == id {
					existing = &records[i]
					break
				}
			}
			if existing == nil {
				return fmt.Errorf("unavailability %d not found for unit %d", id, unitID)
			}

			record := applyRecordFlags(cmd, *existing)
			record.UnitID = unitID

			app.Logger.Debug("editUnavailability command", zap.Int("id", id), zap.Int("unit_id", unitID))

			updated, err := app.Client.Update(app.Ctx, record)
			if err != nil {
				return fmt.Errorf("failed to update unavailability: %w", describeBackendError(err))
			}
			app.afterChange(unitID)

			fmt.Printf("\n✓ Unavailability %d updated: %s %s\n\n", updated.ID, updated.Date, describeUnavailability(updated))
			return nil
		},
	}

	addRecordFlags(cmd)
	cmd.Flags().String("date", "", "New date (YYYY-MM-DD)")
	return cmd
}

// DeleteUnavailabilityCmd creates the deleteUnavailability command
func DeleteUnavailabilityCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deleteUnavailability <id>",
		Short: "Delete an unavailability record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("id must be a number, got: %s", args[0])
			}

			if err := app.Client.Delete(app.Ctx, id); err != nil {
				return fmt.Errorf("failed to delete unavailability: %w", describeBackendError(err))
			}

			unitID, err := app.resolveUnit(cmd)
			if err == nil {
				app.afterChange(unitID)
			}

			fmt.Printf("\n✓ Unavailability %d deleted\n\n", id)
			return nil
		},
	}

	cmd.Flags().Int("unit", 0, "Unit the record belongs to (defaults to the active unit)")
	return cmd
}
