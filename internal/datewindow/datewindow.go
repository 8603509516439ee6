// Package datewindow validates an appointment's start/end pair.
//
// Validation is pure and cheap so callers re-run it on every field change and
// render the messages inline before anything is submitted.
package datewindow

import (
	"time"

	"github.com/example/company-calendar/internal/failure"
	"github.com/example/company-calendar/internal/wallclock"
)

// Mode selects which rules apply.
type Mode int

const (
	// ModeCreate rejects past starts, past ends and inverted windows.
	ModeCreate Mode = iota
	// ModeEdit only rejects inverted windows so existing history stays editable.
	ModeEdit
)

const (
	MsgStartRequired  = "start is required"
	MsgEndRequired    = "end is required"
	MsgStartInPast    = "start in the past"
	MsgEndInPast      = "end in the past"
	MsgEndBeforeStart = "end must be after start"
)

// Field names used when converting a Result into a validation error.
const (
	FieldStart = "start_at"
	FieldEnd   = "end_at"
)

// Result holds at most one message per field.
type Result struct {
	StartError string
	EndError   string
}

// OK reports whether the window passed every applicable rule.
func (r Result) OK() bool {
	return r.StartError == "" && r.EndError == ""
}

// Err converts the result into a *failure.ValidationError, or nil when OK.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	vErr := &failure.ValidationError{}
	if r.StartError != "" {
		vErr.Add(FieldStart, r.StartError)
	}
	if r.EndError != "" {
		vErr.Add(FieldEnd, r.EndError)
	}
	return vErr
}

// Validate evaluates the rules in order, stopping at the first failure so
// only the most relevant message is produced. now is truncated to the minute
// so a form submitted in the same minute it was filled is not rejected.
//
// All comparisons use wall-clock readings: start and end as written, now in
// its own location. Callers pick the zone that defines "now" by passing it
// already converted.
func Validate(start, end, now time.Time, mode Mode) Result {
	var res Result
	if start.IsZero() {
		res.StartError = MsgStartRequired
	}
	if end.IsZero() {
		res.EndError = MsgEndRequired
	}
	if !res.OK() {
		return res
	}

	start, end = wallclock.Of(start), wallclock.Of(end)
	if mode == ModeCreate {
		floor := wallclock.Of(now).Truncate(time.Minute)
		if start.Before(floor) {
			res.StartError = MsgStartInPast
			return res
		}
		if end.Before(floor) {
			res.EndError = MsgEndInPast
			return res
		}
	}

	if !end.After(start) {
		res.EndError = MsgEndBeforeStart
	}
	return res
}

// ValidateCreate is Validate in ModeCreate.
func ValidateCreate(start, end, now time.Time) Result {
	return Validate(start, end, now, ModeCreate)
}

// ValidateEdit is Validate in ModeEdit.
func ValidateEdit(start, end time.Time) Result {
	return Validate(start, end, time.Time{}, ModeEdit)
}
