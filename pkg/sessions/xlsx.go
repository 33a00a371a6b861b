package sessions

import (
	"context"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/facilitatorhub/dashboard/pkg/core/model"
)

// XLSXSource reads sessions from a worksheet of an xlsx workbook.
// An empty Sheet selects the first worksheet. Date cells stored as Excel dates are read as DD/MM/YYYY.
type XLSXSource struct {
	Path  string
	Sheet string
}

func (s XLSXSource) LoadSessions(ctx context.Context) ([]model.UnitSessions, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no worksheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheet, err)
	}

	// Date cells come back in the workbook's display format; re-read them as serials
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheet, err)
	}
	props, err := f.GetWorkbookProps()
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook properties: %w", err)
	}
	date1904 := props.Date1904 != nil && *props.Date1904
	fixDateCells(rows, raw, date1904)

	units, err := ParseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sessions: %w", err)
	}
	return units, nil
}

// fixDateCells replaces Date column values that hold an Excel serial date with DD/MM/YYYY
func fixDateCells(rows, raw [][]string, date1904 bool) {
	if len(rows) == 0 {
		return
	}
	col := columnIndex(rows[0], FieldDate)
	if col == -1 {
		return
	}

	for i := 1; i < len(rows) && i < len(raw); i++ {
		if col >= len(rows[i]) || col >= len(raw[i]) {
			continue
		}
		serial, err := strconv.ParseFloat(raw[i][col], 64)
		if err != nil || serial < 1 {
			continue
		}
		if t, err := excelize.ExcelDateToTime(serial, date1904); err == nil {
			rows[i][col] = t.Format("02/01/2006")
		}
	}
}
