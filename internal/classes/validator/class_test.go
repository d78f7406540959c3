package validator

import (
	"errors"
	"testing"
	"time"

	"blackyoga/pkg/logger"
	"blackyoga/pkg/model"
	"blackyoga/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() *model.ClassInput {
	return &model.ClassInput{
		Name:      "Morning Flow",
		Teacher:   "Ploy",
		Date:      "2026-03-02",
		StartTime: "07:00",
		EndTime:   "08:15",
	}
}

func TestValidate(t *testing.T) {
	v := NewClassValidator(validation.New(logger.Discard()))

	tests := []struct {
		name      string
		mutate    func(*model.ClassInput)
		wantField string
	}{
		{"valid", func(*model.ClassInput) {}, ""},
		{"missing name", func(c *model.ClassInput) { c.Name = "" }, "name"},
		{"bad date", func(c *model.ClassInput) { c.Date = "02/03/2026" }, "date"},
		{"bad start", func(c *model.ClassInput) { c.StartTime = "7am" }, "startTime"},
		{"end before start", func(c *model.ClassInput) { c.EndTime = "06:30" }, "endTime"},
		{"end equals start", func(c *model.ClassInput) { c.EndTime = "07:00" }, "endTime"},
		{"capacity too large", func(c *model.ClassInput) { c.Capacity = 500 }, "capacity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(in)

			err := v.Validate(in)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			var verrs validation.ValidationErrors
			require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %v", err)
			assert.Equal(t, tt.wantField, verrs[0].Field)
		})
	}
}

func TestSchedule(t *testing.T) {
	bangkok, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)

	startsAt, endsAt, err := Schedule(bangkok, "2026-03-02", "07:00", "08:15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), startsAt.UTC())
	assert.Equal(t, 75*time.Minute, endsAt.Sub(startsAt))

	_, _, err = Schedule(bangkok, "2026-13-02", "07:00", "08:00")
	assert.Error(t, err)
}
