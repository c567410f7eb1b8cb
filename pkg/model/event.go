package model

import "time"

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
)

// Event is a scheduled gathering with a finite (or unlimited) number of seats.
// A nil Capacity means unlimited; a nil EndTime means open-ended.
type Event struct {
	ID          string      `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Title       string      `json:"title" bson:"title" validate:"required,min=2,max=200"`
	Slug        string      `json:"slug" bson:"slug"`
	Description string      `json:"description,omitempty" bson:"description" validate:"max=10000"`
	StartTime   time.Time   `json:"start_time" bson:"start_time" validate:"required"`
	EndTime     *time.Time  `json:"end_time,omitempty" bson:"end_time"`
	Location    string      `json:"location,omitempty" bson:"location" validate:"max=300"`
	Capacity    *int        `json:"capacity" bson:"capacity" validate:"omitempty,min=0"`
	Price       string      `json:"price,omitempty" bson:"price" validate:"max=100"`
	Status      EventStatus `json:"status" bson:"status" validate:"required,event_status"`
	BookingSeq  int64       `json:"-" bson:"booking_seq"`
	CreatedAt   time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" bson:"updated_at"`
}

// Bookable reports whether the event currently accepts seat-affecting bookings.
func (e *Event) Bookable() bool {
	return e.Status == EventPublished
}

// EventUpdate carries a partial edit. Nil fields are left untouched.
// Capacity here only ever sets a finite value; use CapacityChange to lift the limit.
type EventUpdate struct {
	Title        *string      `json:"title,omitempty" validate:"omitempty,min=2,max=200"`
	Description  *string      `json:"description,omitempty" validate:"omitempty,max=10000"`
	StartTime    *time.Time   `json:"start_time,omitempty"`
	EndTime      *time.Time   `json:"end_time,omitempty"`
	ClearEndTime bool         `json:"clear_end_time,omitempty"`
	Location     *string      `json:"location,omitempty" validate:"omitempty,max=300"`
	Price        *string      `json:"price,omitempty" validate:"omitempty,max=100"`
	Capacity     *int         `json:"capacity,omitempty" validate:"omitempty,min=0"`
	Status       *EventStatus `json:"status,omitempty" validate:"omitempty,event_status"`
}

// HasFieldEdits reports whether the update touches anything besides capacity and status.
func (u *EventUpdate) HasFieldEdits() bool {
	return u.Title != nil || u.Description != nil || u.StartTime != nil ||
		u.EndTime != nil || u.ClearEndTime || u.Location != nil || u.Price != nil
}

// CapacityChange is the body of an operator capacity edit. A null or absent
// capacity means unlimited.
type CapacityChange struct {
	Capacity *int `json:"capacity" validate:"omitempty,min=0"`
}
