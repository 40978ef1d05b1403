// Package calendar provides the appointment repository used by the calendar
// tools: create/list/reschedule/cancel with overlap conflict detection and
// free-slot discovery.
//
// The store is an explicitly owned object passed by reference to whatever
// needs it — never package-global state. Two implementations exist:
// [MemoryStore] for demo and test use, and [PostgresStore] for deployments
// with a database.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by operations that target a specific appointment
// when no appointment with the given ID exists.
var ErrNotFound = errors.New("calendar: appointment not found")

// ErrPastStart is returned when an appointment would be created or moved to a
// start time in the past.
var ErrPastStart = errors.New("calendar: appointment starts in the past")

// ConflictError reports that an appointment would overlap an existing one.
type ConflictError struct {
	// Existing is the appointment already occupying the requested window.
	Existing Appointment
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("calendar: conflicts with %q at %s",
		e.Existing.Title, e.Existing.StartsAt.Format(time.RFC3339))
}

// Appointment is a single calendar entry.
type Appointment struct {
	// ID uniquely identifies the appointment. Assigned by the store on
	// Create when empty.
	ID string `json:"id"`

	// Title is the appointment's display name.
	Title string `json:"title"`

	// StartsAt is the appointment start time.
	StartsAt time.Time `json:"starts_at"`

	// Duration is the appointment length. Must be positive.
	Duration time.Duration `json:"duration"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// Location is optional free text.
	Location string `json:"location,omitempty"`

	// CreatedAt is set by the store on Create.
	CreatedAt time.Time `json:"created_at"`
}

// EndsAt returns the appointment end time.
func (a Appointment) EndsAt() time.Time {
	return a.StartsAt.Add(a.Duration)
}

// Overlaps reports whether a and b occupy intersecting time windows.
func (a Appointment) Overlaps(b Appointment) bool {
	return a.StartsAt.Before(b.EndsAt()) && a.EndsAt().After(b.StartsAt)
}

// Validate checks the invariants shared by all store implementations.
func (a *Appointment) Validate() error {
	if a.Title == "" {
		return errors.New("calendar: title is required")
	}
	if a.Duration <= 0 {
		return errors.New("calendar: duration must be positive")
	}
	return nil
}

// Store provides CRUD operations for appointments.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create inserts a new appointment. When the ID is empty a fresh one is
	// assigned. Returns [ErrPastStart] for past start times and a
	// [*ConflictError] when the appointment would overlap an existing one.
	Create(ctx context.Context, appt *Appointment) error

	// Get retrieves an appointment by ID. Returns (nil, nil) if not found.
	Get(ctx context.Context, id string) (*Appointment, error)

	// Update replaces an existing appointment after the same conflict and
	// past-start checks as Create (excluding the appointment itself from the
	// overlap scan). Returns [ErrNotFound] if the ID does not exist.
	Update(ctx context.Context, appt *Appointment) error

	// Delete removes an appointment by ID. Deleting a non-existent
	// appointment is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all appointments with StartsAt in [from, to), sorted by
	// start time ascending. A zero `to` means no upper bound.
	List(ctx context.Context, from, to time.Time) ([]Appointment, error)

	// FindByTitle returns appointments whose title contains the given text,
	// case-insensitively, sorted by start time ascending.
	FindByTitle(ctx context.Context, title string) ([]Appointment, error)
}
