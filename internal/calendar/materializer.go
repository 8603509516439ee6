// Package calendar expands appointments into renderable occurrences.
//
// Expansion is pure: the same appointment always yields the same sequence, and
// nothing is retained between calls.
package calendar

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/company-calendar/internal/appointment"
	"github.com/example/company-calendar/internal/failure"
	"github.com/example/company-calendar/internal/wallclock"
)

// ErrInvalidRange is wrapped in a *failure.FatalError when an appointment
// reaches the materializer with end <= start.
var ErrInvalidRange = errors.New("calendar: appointment end must be after start")

// Materialize returns the occurrences for a. A window within one calendar day
// yields a single timed occurrence; a window crossing days yields one all-day
// occurrence per day, all sharing GroupID = a.ID.
func Materialize(a appointment.Appointment) ([]Occurrence, error) {
	start := wallclock.Of(a.StartAt)
	end := wallclock.Of(a.EndAt)
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return nil, &failure.FatalError{
			Subject: fmt.Sprintf("materialize appointment %s", a.ID),
			Err:     ErrInvalidRange,
		}
	}

	if wallclock.SameDay(start, end) {
		occ := project(a)
		occ.ID = a.ID
		occ.Start = start
		occ.End = end
		return []Occurrence{occ}, nil
	}

	var occs []Occurrence
	endDay := wallclock.Day(end)
	for day := wallclock.Day(start); !day.After(endDay); day = wallclock.NextDay(day) {
		occ := project(a)
		occ.ID = a.ID + "-" + wallclock.DayKey(day)
		occ.Start = day
		occ.End = wallclock.NextDay(day)
		occ.AllDay = true
		occs = append(occs, occ)
	}
	return occs, nil
}

// MaterializeAll expands every appointment. Appointments that fail are logged
// and skipped so the rest of the view still renders. The result is ordered by
// start, then id.
func MaterializeAll(as []appointment.Appointment, logger *slog.Logger) []Occurrence {
	if logger == nil {
		logger = slog.Default()
	}
	var out []Occurrence
	for _, a := range as {
		occs, err := Materialize(a)
		if err != nil {
			logger.Error("appointment skipped from calendar view",
				slog.String("appointment_id", a.ID),
				slog.String("error_kind", failure.Kind(err)),
				slog.Any("error", err),
			)
			continue
		}
		out = append(out, occs...)
	}
	sortOccurrences(out)
	return out
}

// Window keeps the occurrences overlapping [from, to). Bounds are read as
// wall-clock values.
func Window(occs []Occurrence, from, to time.Time) []Occurrence {
	lo := wallclock.Of(from)
	hi := wallclock.Of(to)
	out := make([]Occurrence, 0, len(occs))
	for _, occ := range occs {
		if !lo.IsZero() && !occ.End.After(lo) {
			continue
		}
		if !hi.IsZero() && !occ.Start.Before(hi) {
			continue
		}
		out = append(out, occ)
	}
	return out
}

func sortOccurrences(occs []Occurrence) {
	sort.SliceStable(occs, func(i, j int) bool {
		if !occs[i].Start.Equal(occs[j].Start) {
			return occs[i].Start.Before(occs[j].Start)
		}
		return occs[i].ID < occs[j].ID
	})
}

func project(a appointment.Appointment) Occurrence {
	return Occurrence{
		GroupID:        a.ID,
		Title:          a.Title,
		Color:          a.Color,
		Type:           a.Type,
		Status:         a.Status,
		Visibility:     a.Visibility,
		Location:       a.Location,
		OwnerUserID:    a.OwnerUserID,
		ParticipantIDs: append([]string(nil), a.ParticipantIDs...),
	}
}
