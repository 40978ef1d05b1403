// Package calendartool provides the scheduling tools backed by a
// [calendar.Store].
//
// Five tools are exported via [Tools]:
//   - "schedule"                — create a new appointment.
//   - "check_availability"      — report free/busy for a date or time.
//   - "list_appointments"       — list upcoming appointments.
//   - "cancel_appointment"      — delete an appointment by title.
//   - "reschedule_appointment"  — move an appointment to a new slot.
//
// Dates accept "today", "tomorrow", or YYYY-MM-DD; times are 24-hour HH:MM.
// Handlers return spoken-English strings, because the output is read to a
// caller verbatim. Scheduling conflicts and past-dated requests are spoken
// outcomes, not errors; only malformed arguments produce errors.
package calendartool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ringline/ringline/internal/calendar"
	"github.com/ringline/ringline/internal/tools"
)

// spokenDate is the format appointments are read back in.
const spokenDate = "January 02, 2006"

// spokenTime matches how a synthesized voice reads clock times.
const spokenTime = "03:04 PM"

// Deps carries the dependencies of the calendar tools.
type Deps struct {
	Store calendar.Store

	// Now supplies the current time; defaults to [time.Now].
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// parseDate resolves "today", "tomorrow", or YYYY-MM-DD relative to now.
func parseDate(ref string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(ref)) {
	case "today":
		return now, nil
	case "tomorrow":
		return now.AddDate(0, 0, 1), nil
	}
	d, err := time.ParseInLocation("2006-01-02", ref, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("calendartool: date %q is not today, tomorrow, or YYYY-MM-DD", ref)
	}
	return d, nil
}

// parseMoment combines a date reference and an HH:MM clock time.
func parseMoment(dateRef, clock string, now time.Time) (time.Time, error) {
	day, err := parseDate(dateRef, now)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse("15:04", strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, fmt.Errorf("calendartool: time %q is not 24-hour HH:MM", clock)
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, now.Location()), nil
}

type scheduleArgs struct {
	Title           string `json:"title"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	Description     string `json:"description"`
	Location        string `json:"location"`
}

func scheduleHandler(d Deps) tools.Handler {
	return func(ctx context.Context, args string) (string, error) {
		var a scheduleArgs
		if err := json.Unmarshal([]byte(args), &a); err != nil {
			return "", fmt.Errorf("calendartool: failed to parse arguments: %w", err)
		}
		if a.Title == "" {
			return "", fmt.Errorf("calendartool: title must not be empty")
		}
		if a.DurationMinutes <= 0 {
			a.DurationMinutes = 60
		}

		startsAt, err := parseMoment(a.Date, a.Time, d.now())
		if err != nil {
			return "", err
		}

		appt := calendar.Appointment{
			Title:       a.Title,
			StartsAt:    startsAt,
			Duration:    time.Duration(a.DurationMinutes) * time.Minute,
			Description: a.Description,
			Location:    a.Location,
		}
		err = d.Store.Create(ctx, &appt)

		var conflict *calendar.ConflictError
		switch {
		case errors.As(err, &conflict):
			return fmt.Sprintf(
				"There's a scheduling conflict. You have '%s' at %s. Would you like to schedule at a different time?",
				conflict.Existing.Title,
				conflict.Existing.StartsAt.Format(spokenDate+" "+spokenTime),
			), nil
		case errors.Is(err, calendar.ErrPastStart):
			return "I cannot create appointments in the past. Please provide a future date and time.", nil
		case err != nil:
			return "", err
		}

		resp := fmt.Sprintf("I've scheduled '%s' for %s at %s for %d minutes.",
			a.Title, startsAt.Format(spokenDate), startsAt.Format(spokenTime), a.DurationMinutes)
		if a.Location != "" {
			resp += fmt.Sprintf(" Location: %s.", a.Location)
		}
		if a.Description != "" {
			resp += fmt.Sprintf(" Note: %s", a.Description)
		}
		return resp, nil
	}
}

type availabilityArgs struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func availabilityHandler(d Deps) tools.Handler {
	return func(ctx context.Context, args string) (string, error) {
		var a availabilityArgs
		if err := json.Unmarshal([]byte(args), &a); err != nil {
			return "", fmt.Errorf("calendartool: failed to parse arguments: %w", err)
		}

		now := d.now()
		day, err := parseDate(a.Date, now)
		if err != nil {
			return "", err
		}

		y, m, dd := day.Date()
		dayStart := time.Date(y, m, dd, 0, 0, 0, 0, now.Location())
		appts, err := d.Store.List(ctx, dayStart, dayStart.AddDate(0, 0, 1))
		if err != nil {
			return "", err
		}

		if len(appts) == 0 {
			return fmt.Sprintf("You have no appointments on %s. The entire day is available.",
				day.Format(spokenDate)), nil
		}

		// Specific time requested: report the blocking appointment, if any.
		if a.Time != "" {
			at, err := parseMoment(a.Date, a.Time, now)
			if err != nil {
				return "", err
			}
			for _, appt := range appts {
				if !at.Before(appt.StartsAt) && at.Before(appt.EndsAt()) {
					return fmt.Sprintf("You are not available at %s. You have '%s' from %s to %s.",
						a.Time, appt.Title,
						appt.StartsAt.Format(spokenTime), appt.EndsAt().Format(spokenTime)), nil
				}
			}
			return fmt.Sprintf("You are available at %s on %s.", a.Time, day.Format(spokenDate)), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Your schedule for %s:", day.Format(spokenDate))
		for _, appt := range appts {
			fmt.Fprintf(&b, " %s: %s (%d min).",
				appt.StartsAt.Format(spokenTime), appt.Title, int(appt.Duration.Minutes()))
		}

		if slots := calendar.OpenSlots(appts, day); len(slots) > 0 {
			parts := make([]string, len(slots))
			for i, s := range slots {
				parts[i] = s.String()
			}
			fmt.Fprintf(&b, " Available time slots: %s.", strings.Join(parts, ", "))
		}
		return b.String(), nil
	}
}

type listArgs struct {
	DaysAhead int `json:"days_ahead"`
}

func listHandler(d Deps) tools.Handler {
	return func(ctx context.Context, args string) (string, error) {
		var a listArgs
		if err := json.Unmarshal([]byte(args), &a); err != nil {
			return "", fmt.Errorf("calendartool: failed to parse arguments: %w", err)
		}
		if a.DaysAhead <= 0 {
			a.DaysAhead = 7
		}

		now := d.now()
		appts, err := d.Store.List(ctx, now, now.AddDate(0, 0, a.DaysAhead))
		if err != nil {
			return "", err
		}
		if len(appts) == 0 {
			return fmt.Sprintf("You have no appointments in the next %d days.", a.DaysAhead), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Your upcoming appointments for the next %d days:", a.DaysAhead)
		for _, appt := range appts {
			fmt.Fprintf(&b, " %s: %s", appt.StartsAt.Format("January 02 at 03:04 PM"), appt.Title)
			if appt.Location != "" {
				fmt.Fprintf(&b, " at %s", appt.Location)
			}
			fmt.Fprintf(&b, " (%d minutes).", int(appt.Duration.Minutes()))
		}
		return b.String(), nil
	}
}

type cancelArgs struct {
	Title string `json:"title"`
	Date  string `json:"date"`
}

func cancelHandler(d Deps) tools.Handler {
	return func(ctx context.Context, args string) (string, error) {
		var a cancelArgs
		if err := json.Unmarshal([]byte(args), &a); err != nil {
			return "", fmt.Errorf("calendartool: failed to parse arguments: %w", err)
		}
		if a.Title == "" {
			return "", fmt.Errorf("calendartool: title must not be empty")
		}

		matches, err := d.Store.FindByTitle(ctx, a.Title)
		if err != nil {
			return "", err
		}

		if a.Date != "" {
			day, err := parseDate(a.Date, d.now())
			if err != nil {
				return "", err
			}
			matches = calendar.DayOf(matches, day)
		}

		switch len(matches) {
		case 0:
			return fmt.Sprintf("I couldn't find an appointment matching '%s'.", a.Title), nil
		case 1:
			appt := matches[0]
			if err := d.Store.Delete(ctx, appt.ID); err != nil {
				return "", err
			}
			return fmt.Sprintf("I've cancelled '%s' scheduled for %s.",
				appt.Title, appt.StartsAt.Format("January 02 at 03:04 PM")), nil
		default:
			var b strings.Builder
			fmt.Fprintf(&b, "I found %d appointments matching '%s':", len(matches), a.Title)
			for _, appt := range matches {
				fmt.Fprintf(&b, " %s: %s.", appt.StartsAt.Format("January 02 at 03:04 PM"), appt.Title)
			}
			b.WriteString(" Please be more specific about which one to cancel.")
			return b.String(), nil
		}
	}
}

type rescheduleArgs struct {
	Title           string `json:"title"`
	NewDate         string `json:"new_date"`
	NewTime         string `json:"new_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

func rescheduleHandler(d Deps) tools.Handler {
	return func(ctx context.Context, args string) (string, error) {
		var a rescheduleArgs
		if err := json.Unmarshal([]byte(args), &a); err != nil {
			return "", fmt.Errorf("calendartool: failed to parse arguments: %w", err)
		}
		if a.Title == "" {
			return "", fmt.Errorf("calendartool: title must not be empty")
		}

		matches, err := d.Store.FindByTitle(ctx, a.Title)
		if err != nil {
			return "", err
		}
		if len(matches) == 0 {
			return fmt.Sprintf("I couldn't find an appointment matching '%s'.", a.Title), nil
		}
		appt := matches[0]

		newStart, err := parseMoment(a.NewDate, a.NewTime, d.now())
		if err != nil {
			return "", err
		}

		oldStart := appt.StartsAt
		appt.StartsAt = newStart
		if a.DurationMinutes > 0 {
			appt.Duration = time.Duration(a.DurationMinutes) * time.Minute
		}
		err = d.Store.Update(ctx, &appt)

		var conflict *calendar.ConflictError
		switch {
		case errors.As(err, &conflict):
			return fmt.Sprintf("There's a conflict at the new time. You have '%s' at %s.",
				conflict.Existing.Title,
				conflict.Existing.StartsAt.Format(spokenDate+" "+spokenTime)), nil
		case errors.Is(err, calendar.ErrPastStart):
			return "I cannot reschedule appointments to the past.", nil
		case err != nil:
			return "", err
		}

		return fmt.Sprintf("I've rescheduled '%s' from %s to %s.",
			appt.Title,
			oldStart.Format("January 02 at 03:04 PM"),
			newStart.Format("January 02 at 03:04 PM")), nil
	}
}

// Tools returns the calendar tools ready for registration.
func Tools(d Deps) []tools.Tool {
	dateProp := map[string]any{
		"type":        "string",
		"description": "Date as YYYY-MM-DD, or the words today or tomorrow.",
	}
	timeProp := map[string]any{
		"type":        "string",
		"description": "24-hour clock time as HH:MM.",
	}

	return []tools.Tool{
		{
			Definition: tools.Definition{
				Name:        "schedule",
				Description: "Create a new calendar appointment or meeting.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":            map[string]any{"type": "string", "description": "Title of the appointment."},
						"date":             dateProp,
						"time":             timeProp,
						"duration_minutes": map[string]any{"type": "integer", "description": "Duration in minutes; defaults to 60."},
						"description":      map[string]any{"type": "string", "description": "Optional free-form note."},
						"location":         map[string]any{"type": "string", "description": "Optional location."},
					},
					"required": []string{"title", "date", "time"},
				},
				EstimatedDurationMs: 20,
				MaxDurationMs:       2000,
			},
			Handler: scheduleHandler(d),
		},
		{
			Definition: tools.Definition{
				Name:        "check_availability",
				Description: "Check calendar availability for a date, or for a specific time on that date.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"date": dateProp,
						"time": timeProp,
					},
					"required": []string{"date"},
				},
				EstimatedDurationMs: 20,
				MaxDurationMs:       2000,
			},
			Handler: availabilityHandler(d),
		},
		{
			Definition: tools.Definition{
				Name:        "list_appointments",
				Description: "List upcoming calendar appointments.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"days_ahead": map[string]any{"type": "integer", "description": "How many days to look ahead; defaults to 7."},
					},
				},
				EstimatedDurationMs: 20,
				MaxDurationMs:       2000,
			},
			Handler: listHandler(d),
		},
		{
			Definition: tools.Definition{
				Name:        "cancel_appointment",
				Description: "Cancel a calendar appointment by title, optionally narrowed to a date.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{"type": "string", "description": "Title (or part of it) of the appointment to cancel."},
						"date":  dateProp,
					},
					"required": []string{"title"},
				},
				EstimatedDurationMs: 20,
				MaxDurationMs:       2000,
			},
			Handler: cancelHandler(d),
		},
		{
			Definition: tools.Definition{
				Name:        "reschedule_appointment",
				Description: "Move an existing appointment to a new date and time.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":            map[string]any{"type": "string", "description": "Title (or part of it) of the appointment to move."},
						"new_date":         dateProp,
						"new_time":         timeProp,
						"duration_minutes": map[string]any{"type": "integer", "description": "Optional new duration in minutes."},
					},
					"required": []string{"title", "new_date", "new_time"},
				},
				EstimatedDurationMs: 20,
				MaxDurationMs:       2000,
			},
			Handler: rescheduleHandler(d),
		},
	}
}
