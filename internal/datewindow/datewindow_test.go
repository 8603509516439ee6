package datewindow

import (
	"errors"
	"testing"
	"time"

	"github.com/example/company-calendar/internal/failure"
)

var reference = time.Date(2026, time.October, 15, 14, 30, 45, 0, time.UTC)

func TestValidate_CreateRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		start     time.Time
		end       time.Time
		wantStart string
		wantEnd   string
	}{
		{
			name:  "future window passes",
			start: reference.Add(time.Hour),
			end:   reference.Add(2 * time.Hour),
		},
		{
			name:  "start within the current minute is not in the past",
			start: reference.Truncate(time.Minute),
			end:   reference.Add(time.Hour),
		},
		{
			name:      "start in the past short-circuits",
			start:     reference.Add(-2 * time.Hour),
			end:       reference.Add(-3 * time.Hour),
			wantStart: MsgStartInPast,
		},
		{
			name:    "end in the past",
			start:   reference.Truncate(time.Minute),
			end:     reference.Add(-time.Hour),
			wantEnd: MsgEndInPast,
		},
		{
			name:    "inverted window",
			start:   reference.Add(2 * time.Hour),
			end:     reference.Add(time.Hour),
			wantEnd: MsgEndBeforeStart,
		},
		{
			name:    "zero duration",
			start:   reference.Add(time.Hour),
			end:     reference.Add(time.Hour),
			wantEnd: MsgEndBeforeStart,
		},
		{
			name:      "missing values",
			wantStart: MsgStartRequired,
			wantEnd:   MsgEndRequired,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ValidateCreate(tc.start, tc.end, reference)
			if got.StartError != tc.wantStart || got.EndError != tc.wantEnd {
				t.Fatalf("got %+v, want start=%q end=%q", got, tc.wantStart, tc.wantEnd)
			}
		})
	}
}

func TestValidate_InvertedAlwaysFailsRegardlessOfNow(t *testing.T) {
	t.Parallel()

	start := reference.Add(48 * time.Hour)
	for _, offset := range []time.Duration{0, time.Minute, 90 * time.Minute, 24 * time.Hour} {
		end := start.Add(-offset)
		for _, now := range []time.Time{reference, reference.Add(-365 * 24 * time.Hour), start.Add(-time.Second)} {
			for _, mode := range []Mode{ModeCreate, ModeEdit} {
				res := Validate(start, end, now, mode)
				if res.EndError == "" {
					t.Fatalf("expected end error for end<=start (offset %s, now %s, mode %d)", offset, now, mode)
				}
			}
		}
	}
}

func TestValidate_EditIgnoresPast(t *testing.T) {
	t.Parallel()

	start := reference.Add(-72 * time.Hour)
	end := reference.Add(-71 * time.Hour)

	if res := ValidateCreate(start, end, reference); res.StartError != MsgStartInPast {
		t.Fatalf("expected create to reject past start, got %+v", res)
	}
	if res := ValidateEdit(start, end); !res.OK() {
		t.Fatalf("expected edit to allow past window, got %+v", res)
	}
}

func TestResult_Err(t *testing.T) {
	t.Parallel()

	if err := (Result{}).Err(); err != nil {
		t.Fatalf("expected nil for OK result, got %v", err)
	}

	err := Result{EndError: MsgEndBeforeStart}.Err()
	var vErr *failure.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if vErr.FieldErrors[FieldEnd] != MsgEndBeforeStart {
		t.Fatalf("unexpected field errors %v", vErr.FieldErrors)
	}
}

func TestValidate_ComparesWallClockReadings(t *testing.T) {
	t.Parallel()

	saoPaulo := time.FixedZone("BRT", -3*60*60)
	tokyo := time.FixedZone("JST", 9*60*60)

	// 10:00 in São Paulo is 13:00 UTC, later than the 11:00 UTC clock, but as
	// written it is an hour earlier than the wall clock reads.
	start := time.Date(2026, time.October, 16, 10, 0, 0, 0, saoPaulo)
	end := start.Add(time.Hour)
	now := time.Date(2026, time.October, 16, 11, 0, 0, 0, time.UTC)

	if res := ValidateCreate(start, end, now); res.StartError != MsgStartInPast {
		t.Fatalf("expected wall-clock past start, got %+v", res)
	}

	// The same instant read in Tokyo is already 20:00 on the 16th.
	later := time.Date(2026, time.October, 16, 15, 0, 0, 0, time.UTC)
	if res := ValidateCreate(later, later.Add(time.Hour), now); !res.OK() {
		t.Fatalf("expected 15:00 to be ahead of an 11:00 clock, got %+v", res)
	}
	if res := ValidateCreate(later, later.Add(time.Hour), now.In(tokyo)); res.StartError != MsgStartInPast {
		t.Fatalf("expected 15:00 to be past a 20:00 Tokyo clock, got %+v", res)
	}
}
