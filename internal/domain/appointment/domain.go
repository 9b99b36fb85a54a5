package appointment

import (
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("appointment not found")

type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusConfirmed Status = "Confirmed"
	StatusCancelled Status = "Cancelled"
	StatusPast      Status = "Past"
)

// Appointment is a point-in-time snapshot of an appointment row.
type Appointment struct {
	ID            int64     `json:"id"`
	CustomerID    int64     `json:"customer_id"`
	BarberID      int64     `json:"barber_id"`
	ServiceID     int64     `json:"service_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	ContactNumber string    `json:"contact_number"`
	At            time.Time `json:"appointment_date_time"`
	Status        Status    `json:"status"`
}

type Barber struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (b *Barber) FullName() string {
	return strings.TrimSpace(b.FirstName + " " + b.LastName)
}

type Service struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Details is an appointment together with its resolved barber and service.
type Details struct {
	Appointment Appointment
	Barber      Barber
	Service     Service
}

type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
)

// Event is published on every appointment write.
type Event struct {
	ID            string    `json:"id" validate:"required"`
	Kind          EventKind `json:"kind" validate:"required,oneof=created updated"`
	AppointmentID int64     `json:"appointment_id" validate:"gt=0"`
	Status        Status    `json:"status" validate:"required"`
	At            time.Time `json:"at"`
}
