package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/facilitatorhub/dashboard/pkg/core/services"
	"github.com/facilitatorhub/dashboard/pkg/export"
)

// ExportICSCmd creates the exportIcs command
func ExportICSCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "exportIcs <file>",
		Short: "Export every session of your units to an iCalendar file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			source, err := app.sessionSource()
			if err != nil {
				return err
			}
			unitSessions, err := services.LoadSessions(app.Ctx, source, app.Cfg.Units, app.Logger)
			if err != nil {
				return err
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}
			defer f.Close()

			count, err := export.WriteICS(f, unitSessions, export.ICSOptions{Location: app.Cfg.Location()}, app.Logger)
			if err != nil {
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			app.Logger.Debug("exportIcs command", zap.String("path", path), zap.Int("events", count))
			fmt.Printf("\n✓ Exported %d session(s) to %s\n\n", count, path)
			return nil
		},
	}
}
