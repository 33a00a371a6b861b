// Package sessions loads a facilitator's sessions from spreadsheet-shaped sources
// (CSV files, xlsx workbooks, Google Sheets) into per-unit upcoming and past lists.
package sessions

import (
	"fmt"
	"strings"

	"github.com/facilitatorhub/dashboard/pkg/core/model"
)

// Expected column names in the header row
const (
	FieldUnitCode = "Unit code"
	FieldDate     = "Date"
	FieldTime     = "Time"
	FieldTopic    = "Topic"
	FieldLocation = "Location"
	FieldStatus   = "Status"
)

var sessionFields = []string{
	FieldUnitCode,
	FieldDate,
	FieldTime,
	FieldTopic,
	FieldLocation,
	FieldStatus,
}

// columnIndex returns the position of field in the header row, or -1
func columnIndex(header []string, field string) int {
	for i, cell := range header {
		if strings.EqualFold(strings.TrimSpace(cell), field) {
			return i
		}
	}
	return -1
}

// ParseRows converts raw rows, the first being the header, into sessions grouped by unit code.
// Units appear in the order they are first seen; sessions keep their row order.
// Completed (or "past") sessions go to Past, everything else to Upcoming. Rows without a unit code are skipped.
func ParseRows(raw [][]string) ([]model.UnitSessions, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("no header row found")
	}

	// Build field index map from header row
	fieldIndexes := make(map[string]int)
	for _, field := range sessionFields {
		index := columnIndex(raw[0], field)
		if index == -1 {
			return nil, fmt.Errorf("missing required field in header: %s", field)
		}
		fieldIndexes[field] = index
	}

	getField := func(field string, row []string) string {
		index := fieldIndexes[field]
		if index >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[index])
	}

	var units []model.UnitSessions
	byCode := make(map[string]int)

	for i := 1; i < len(raw); i++ {
		row := raw[i]

		code := getField(FieldUnitCode, row)
		if code == "" {
			continue
		}

		event := model.SessionEvent{
			Date:     getField(FieldDate, row),
			Time:     getField(FieldTime, row),
			Topic:    getField(FieldTopic, row),
			Location: getField(FieldLocation, row),
			Status:   model.SessionStatus(strings.ToLower(getField(FieldStatus, row))),
			UnitCode: code,
		}

		idx, ok := byCode[code]
		if !ok {
			idx = len(units)
			byCode[code] = idx
			units = append(units, model.UnitSessions{UnitCode: code})
		}

		if event.Status.IsPast() {
			units[idx].Past = append(units[idx].Past, event)
		} else {
			units[idx].Upcoming = append(units[idx].Upcoming, event)
		}
	}

	return units, nil
}
