package sheetsclient

import (
	"context"
	"fmt"

	"github.com/facilitatorhub/dashboard/pkg/core/model"
	"github.com/facilitatorhub/dashboard/pkg/sessions"
)

// ValueGetter reads a range of cell values
type ValueGetter interface {
	GetValues(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error)
}

// SessionSheet is a session source backed by one tab of a spreadsheet
type SessionSheet struct {
	Getter  ValueGetter
	SheetID string
	Tab     string
}

// LoadSessions retrieves and parses the sessions tab
func (s SessionSheet) LoadSessions(ctx context.Context) ([]model.UnitSessions, error) {
	values, err := s.Getter.GetValues(ctx, s.SheetID, s.Tab)
	if err != nil {
		return nil, fmt.Errorf("failed to get session data: %w", err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("spreadsheet is empty")
	}

	units, err := sessions.ParseRows(stringRows(values))
	if err != nil {
		return nil, fmt.Errorf("failed to parse sessions: %w", err)
	}

	return units, nil
}

// stringRows converts the API's untyped cells to strings; non-string cells are formatted with %v
func stringRows(raw [][]interface{}) [][]string {
	rows := make([][]string, len(raw))
	for i, row := range raw {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			switch v := cell.(type) {
			case string:
				rows[i][j] = v
			case nil:
			default:
				rows[i][j] = fmt.Sprint(v)
			}
		}
	}
	return rows
}
