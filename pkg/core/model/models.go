package model

import "strings"

// UnitStatusActive is the status of a unit that is currently running
const UnitStatusActive = "active"

// Unit represents a teaching unit a facilitator is assigned to
type Unit struct {
	ID     int    `yaml:"id" validate:"required,min=1"`
	Code   string `yaml:"code" validate:"required"`
	Name   string `yaml:"name,omitempty"`
	Status string `yaml:"status" validate:"required,oneof=active inactive"`
}

// IsActive reports whether the unit has "active" status (case-insensitive)
func (u Unit) IsActive() bool {
	return strings.EqualFold(u.Status, UnitStatusActive)
}

type SessionStatus string

const (
	SessionConfirmed SessionStatus = "confirmed"
	SessionPending   SessionStatus = "pending"
	SessionCompleted SessionStatus = "completed"
)

// IsPast reports whether the status belongs to the "past" session category
func (s SessionStatus) IsPast() bool {
	switch strings.ToLower(string(s)) {
	case string(SessionCompleted), "past":
		return true
	}
	return false
}

// SessionEvent represents a single facilitated session
type SessionEvent struct {
	Date     string        `json:"date"` // DD/MM/YYYY
	Time     string        `json:"time"` // HH:MM - HH:MM
	Topic    string        `json:"topic"`
	Location string        `json:"location"`
	Status   SessionStatus `json:"status"`
	UnitCode string        `json:"unit_code"`
}

// UnitSessions holds the sessions of one unit split into upcoming and past categories
type UnitSessions struct {
	UnitCode string
	Upcoming []SessionEvent
	Past     []SessionEvent
}

type RecurringPattern string

const (
	RecurringNone        RecurringPattern = ""
	RecurringWeekly      RecurringPattern = "weekly"
	RecurringFortnightly RecurringPattern = "fortnightly"
	RecurringMonthly     RecurringPattern = "monthly"
	RecurringCustom      RecurringPattern = "custom"
)

// UnavailabilityRecord represents a period during which a facilitator cannot run sessions.
// StartTime and EndTime are present iff IsFullDay is false.
type UnavailabilityRecord struct {
	ID               int              `json:"id"`
	UnitID           int              `json:"unit_id,omitempty"`
	Date             string           `json:"date"` // ISO date
	IsFullDay        bool             `json:"is_full_day"`
	StartTime        *string          `json:"start_time"`
	EndTime          *string          `json:"end_time"`
	Reason           string           `json:"reason,omitempty"`
	RecurringPattern RecurringPattern `json:"recurring_pattern,omitempty"`
	RecurringEndDate *string          `json:"recurring_end_date,omitempty"`
	RecurrenceRule   string           `json:"recurrence_rule,omitempty"` // RRULE, only for custom patterns
}
