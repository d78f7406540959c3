package model

import "time"

const (
	DefaultClassEmoji    = "🧘‍♀️"
	DefaultClassCapacity = 10
	DefaultClassDuration = 60

	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

type Class struct {
	ID              string    `json:"id" bson:"_id" firestore:"-"`
	Name            string    `json:"name" bson:"name" firestore:"name"`
	Teacher         string    `json:"teacher" bson:"teacher" firestore:"teacher"`
	Description     string    `json:"description,omitempty" bson:"description,omitempty" firestore:"description"`
	Emoji           string    `json:"emoji" bson:"emoji" firestore:"emoji"`
	Date            string    `json:"date" bson:"date" firestore:"date"`
	StartTime       string    `json:"startTime" bson:"start_time" firestore:"startTime"`
	EndTime         string    `json:"endTime" bson:"end_time" firestore:"endTime"`
	DurationMinutes int       `json:"durationMinutes" bson:"duration_minutes" firestore:"durationMinutes"`
	Capacity        int       `json:"capacity" bson:"capacity" firestore:"capacity"`
	BookedCount     int       `json:"bookedCount" bson:"booked_count" firestore:"bookedCount"`
	IsFull          bool      `json:"isFull" bson:"is_full" firestore:"isFull"`
	StartsAt        time.Time `json:"startsAt" bson:"starts_at" firestore:"startsAt"`
	EndsAt          time.Time `json:"endsAt" bson:"ends_at" firestore:"endsAt"`
	CreatedAt       time.Time `json:"createdAt" bson:"created_at" firestore:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updated_at" firestore:"updatedAt"`
}

func (c *Class) SpotsLeft() int {
	return max(0, c.Capacity-c.BookedCount)
}

// ClassInput is the admin payload for creating a class.
type ClassInput struct {
	Name            string `json:"name" validate:"required,min=1,max=100"`
	Teacher         string `json:"teacher" validate:"required,min=1,max=100"`
	Description     string `json:"description,omitempty" validate:"omitempty,max=1000"`
	Emoji           string `json:"emoji,omitempty" validate:"omitempty,max=16"`
	Date            string `json:"date" validate:"required,yyyymmdd"`
	StartTime       string `json:"startTime" validate:"required,hhmm"`
	EndTime         string `json:"endTime" validate:"required,hhmm"`
	DurationMinutes int    `json:"durationMinutes,omitempty" validate:"omitempty,min=5,max=480"`
	Capacity        int    `json:"capacity,omitempty" validate:"omitempty,min=1,max=200"`
}

// ClassUpdate is a partial update; nil fields are left unchanged.
type ClassUpdate struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Teacher         *string `json:"teacher,omitempty" validate:"omitempty,min=1,max=100"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	Emoji           *string `json:"emoji,omitempty" validate:"omitempty,max=16"`
	Date            *string `json:"date,omitempty" validate:"omitempty,yyyymmdd"`
	StartTime       *string `json:"startTime,omitempty" validate:"omitempty,hhmm"`
	EndTime         *string `json:"endTime,omitempty" validate:"omitempty,hhmm"`
	DurationMinutes *int    `json:"durationMinutes,omitempty" validate:"omitempty,min=5,max=480"`
	Capacity        *int    `json:"capacity,omitempty" validate:"omitempty,min=1,max=200"`
}
