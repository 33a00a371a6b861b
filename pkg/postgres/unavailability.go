package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/facilitatorhub/dashboard/pkg/core/model"
	"github.com/facilitatorhub/dashboard/pkg/db"
)

const isoDate = "2006-01-02"

const selectUnavailability = `
	SELECT id, unit_id, date, is_full_day, start_time, end_time, reason,
	       recurring_pattern, recurring_end_date, recurrence_rule
	FROM unavailability
`

// ListUnavailability retrieves the unavailability records of a unit ordered by date
func (d *DB) ListUnavailability(ctx context.Context, unitID int) ([]model.UnavailabilityRecord, error) {
	rows, err := d.pool.Query(ctx, selectUnavailability+` WHERE unit_id = $1 ORDER BY date, id`, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unavailability: %w", err)
	}
	defer rows.Close()

	records := make([]model.UnavailabilityRecord, 0)
	for rows.Next() {
		r, err := scanUnavailability(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unavailability: %w", err)
	}

	return records, nil
}

// GetUnavailability retrieves a single record, returning db.ErrNotFound if it does not exist
func (d *DB) GetUnavailability(ctx context.Context, id int) (model.UnavailabilityRecord, error) {
	row := d.pool.QueryRow(ctx, selectUnavailability+` WHERE id = $1`, id)

	r, err := scanUnavailability(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.UnavailabilityRecord{}, fmt.Errorf("unavailability %d: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return model.UnavailabilityRecord{}, err
	}
	return r, nil
}

// CreateUnavailability inserts a record and sets its generated id
func (d *DB) CreateUnavailability(ctx context.Context, record *model.UnavailabilityRecord) error {
	date, endDate, err := recordDates(record)
	if err != nil {
		return err
	}

	err = d.pool.QueryRow(ctx, `
		INSERT INTO unavailability (unit_id, date, is_full_day, start_time, end_time, reason,
		                            recurring_pattern, recurring_end_date, recurrence_rule)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, record.UnitID, date, record.IsFullDay, record.StartTime, record.EndTime, record.Reason,
		string(record.RecurringPattern), endDate, record.RecurrenceRule).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("failed to insert unavailability: %w", err)
	}

	return nil
}

// UpdateUnavailability replaces every field of an existing record
func (d *DB) UpdateUnavailability(ctx context.Context, record *model.UnavailabilityRecord) error {
	date, endDate, err := recordDates(record)
	if err != nil {
		return err
	}

	tag, err := d.pool.Exec(ctx, `
		UPDATE unavailability
		SET unit_id = $2, date = $3, is_full_day = $4, start_time = $5, end_time = $6, reason = $7,
		    recurring_pattern = $8, recurring_end_date = $9, recurrence_rule = $10
		WHERE id = $1
	`, record.ID, record.UnitID, date, record.IsFullDay, record.StartTime, record.EndTime, record.Reason,
		string(record.RecurringPattern), endDate, record.RecurrenceRule)
	if err != nil {
		return fmt.Errorf("failed to update unavailability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("unavailability %d: %w", record.ID, db.ErrNotFound)
	}

	return nil
}

func (d *DB) DeleteUnavailability(ctx context.Context, id int) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM unavailability WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete unavailability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("unavailability %d: %w", id, db.ErrNotFound)
	}
	return nil
}

func scanUnavailability(row pgx.Row) (model.UnavailabilityRecord, error) {
	var (
		r       model.UnavailabilityRecord
		date    time.Time
		endDate *time.Time
		pattern string
	)

	err := row.Scan(&r.ID, &r.UnitID, &date, &r.IsFullDay, &r.StartTime, &r.EndTime, &r.Reason,
		&pattern, &endDate, &r.RecurrenceRule)
	if errors.Is(err, pgx.ErrNoRows) {
		return r, err
	}
	if err != nil {
		return r, fmt.Errorf("failed to scan unavailability: %w", err)
	}

	r.Date = date.Format(isoDate)
	r.RecurringPattern = model.RecurringPattern(pattern)
	if endDate != nil {
		s := endDate.Format(isoDate)
		r.RecurringEndDate = &s
	}

	return r, nil
}

func recordDates(record *model.UnavailabilityRecord) (time.Time, *time.Time, error) {
	date, err := time.Parse(isoDate, record.Date)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("invalid date %q: %w", record.Date, err)
	}

	if record.RecurringEndDate == nil || *record.RecurringEndDate == "" {
		return date, nil, nil
	}

	endDate, err := time.Parse(isoDate, *record.RecurringEndDate)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("invalid recurring end date %q: %w", *record.RecurringEndDate, err)
	}
	return date, &endDate, nil
}
