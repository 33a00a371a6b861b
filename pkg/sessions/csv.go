package sessions

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/facilitatorhub/dashboard/pkg/core/model"
)

// CSVSource reads sessions from a CSV file with a header row
type CSVSource struct {
	Path string
}

func (s CSVSource) LoadSessions(ctx context.Context) ([]model.UnitSessions, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sessions file: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses sessions from CSV data. Rows may have fewer columns than the header.
func ReadCSV(r io.Reader) ([]model.UnitSessions, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions csv: %w", err)
	}

	units, err := ParseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sessions: %w", err)
	}
	return units, nil
}
