package validator

import (
	"fmt"
	"time"

	"blackyoga/pkg/model"
	"blackyoga/pkg/validation"
)

type ClassValidator struct {
	validate *validation.Validator
}

func NewClassValidator(validate *validation.Validator) *ClassValidator {
	return &ClassValidator{validate: validate}
}

// Validate checks a complete class, as created or as it would look after an
// update was applied.
func (v *ClassValidator) Validate(class *model.ClassInput) error {
	if err := v.validate.Struct(class); err != nil {
		return err
	}
	return v.validateBusinessRules(class)
}

func (v *ClassValidator) ValidateUpdate(update *model.ClassUpdate) error {
	return v.validate.Struct(update)
}

func (v *ClassValidator) validateBusinessRules(class *model.ClassInput) error {
	start, _ := time.Parse(model.ClockLayout, class.StartTime)
	end, _ := time.Parse(model.ClockLayout, class.EndTime)
	if !end.After(start) {
		return validation.ValidationErrors{{
			Field:   "endTime",
			Message: fmt.Sprintf("must be after startTime (%s)", class.StartTime),
		}}
	}
	return nil
}

// Schedule resolves the class's wall-clock date and times to instants in loc.
func Schedule(loc *time.Location, date, startTime, endTime string) (time.Time, time.Time, error) {
	startsAt, err := time.ParseInLocation(model.DateLayout+" "+model.ClockLayout, date+" "+startTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse start: %w", err)
	}
	endsAt, err := time.ParseInLocation(model.DateLayout+" "+model.ClockLayout, date+" "+endTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse end: %w", err)
	}
	return startsAt, endsAt, nil
}
