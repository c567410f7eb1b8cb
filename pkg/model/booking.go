package model

import (
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingPaid      BookingStatus = "paid"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking reserves a fixed number of seats on one event. Seats never change
// after creation; a different party size is a cancel followed by a new booking.
type Booking struct {
	ID        string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	EventID   string        `json:"event_id" bson:"event_id" validate:"required"`
	Name      string        `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Email     string        `json:"email" bson:"email" validate:"required,email,max=254"`
	Phone     string        `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	Seats     int           `json:"seats" bson:"seats" validate:"required,min=1,max=1000"`
	Note      string        `json:"note,omitempty" bson:"note,omitempty" validate:"max=2000"`
	Status    BookingStatus `json:"status" bson:"status" validate:"required,booking_status"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
}

type Requester struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Note  string `json:"note,omitempty"`
}

// BookingRequest is what a visitor submits. Seats defaults to 1 only when the
// field is absent or null; an explicit 0 is rejected by validation.
type BookingRequest struct {
	Requester
	Seats *int `json:"seats"`
}

type StatusChange struct {
	Status BookingStatus `json:"status"`
}
