package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/facilitatorhub/dashboard/pkg/core/calendar"
	"github.com/facilitatorhub/dashboard/pkg/core/model"
)

const maxReasonLength = 500

// unavailabilityRequest is the body of POST and PUT requests
type unavailabilityRequest struct {
	ID               int     `json:"id,omitempty"` // ignored; PUT takes the id from the path
	UnitID           int     `json:"unit_id" validate:"required,min=1"`
	Date             string  `json:"date" validate:"required,datetime=2006-01-02"`
	IsFullDay        bool    `json:"is_full_day"`
	StartTime        *string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime          *string `json:"end_time" validate:"omitempty,datetime=15:04"`
	Reason           string  `json:"reason"`
	RecurringPattern string  `json:"recurring_pattern" validate:"omitempty,oneof=weekly fortnightly monthly custom"`
	RecurringEndDate *string `json:"recurring_end_date" validate:"omitempty,datetime=2006-01-02"`
	RecurrenceRule   string  `json:"recurrence_rule"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	// Report fields by their JSON names
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// toRecord validates the request and converts it to a record with a sanitised reason
func (req unavailabilityRequest) toRecord(policy *bluemonday.Policy) (model.UnavailabilityRecord, error) {
	if err := validate.Struct(req); err != nil {
		return model.UnavailabilityRecord{}, describeValidationError(err)
	}

	record := model.UnavailabilityRecord{
		UnitID:           req.UnitID,
		Date:             req.Date,
		IsFullDay:        req.IsFullDay,
		Reason:           strings.TrimSpace(policy.Sanitize(req.Reason)),
		RecurringPattern: model.RecurringPattern(req.RecurringPattern),
		RecurrenceRule:   strings.TrimSpace(req.RecurrenceRule),
	}

	if len(record.Reason) > maxReasonLength {
		return model.UnavailabilityRecord{}, fmt.Errorf("reason must be at most %d characters", maxReasonLength)
	}

	if req.IsFullDay {
		if req.StartTime != nil || req.EndTime != nil {
			return model.UnavailabilityRecord{}, errors.New("start_time and end_time must be omitted for full-day unavailability")
		}
	} else {
		if req.StartTime == nil || req.EndTime == nil {
			return model.UnavailabilityRecord{}, errors.New("start_time and end_time are required unless is_full_day is true")
		}
		start, _ := calendar.ParseClock(*req.StartTime)
		end, _ := calendar.ParseClock(*req.EndTime)
		if end <= start {
			return model.UnavailabilityRecord{}, errors.New("end_time must be after start_time")
		}
		record.StartTime = req.StartTime
		record.EndTime = req.EndTime
	}

	if record.RecurringPattern == model.RecurringNone {
		if req.RecurringEndDate != nil || record.RecurrenceRule != "" {
			return model.UnavailabilityRecord{}, errors.New("recurring_end_date and recurrence_rule require a recurring_pattern")
		}
		return record, nil
	}

	if record.RecurringPattern == model.RecurringCustom && record.RecurrenceRule == "" {
		return model.UnavailabilityRecord{}, errors.New("recurrence_rule is required for a custom recurring_pattern")
	}
	if record.RecurringPattern != model.RecurringCustom && record.RecurrenceRule != "" {
		return model.UnavailabilityRecord{}, errors.New("recurrence_rule is only allowed for a custom recurring_pattern")
	}

	if req.RecurringEndDate != nil {
		// Both dates passed the datetime check, so the layouts compare lexically
		if *req.RecurringEndDate < req.Date {
			return model.UnavailabilityRecord{}, errors.New("recurring_end_date must not be before date")
		}
		record.RecurringEndDate = req.RecurringEndDate
	}

	if _, err := calendar.RecurrenceRule(record); err != nil {
		return model.UnavailabilityRecord{}, err
	}

	return record, nil
}

// describeValidationError turns the first validator failure into a short client-facing message
func describeValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "min":
		return fmt.Errorf("%s must be a positive integer", fe.Field())
	case "datetime":
		layout := fe.Param()
		if layout == "15:04" {
			return fmt.Errorf("%s must be a time in HH:MM format", fe.Field())
		}
		return fmt.Errorf("%s must be a date in YYYY-MM-DD format", fe.Field())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", fe.Field(), fe.Param())
	}
	return fmt.Errorf("%s is invalid", fe.Field())
}
