// Package wallclock treats timestamps by their literal written components.
//
// Appointment times are entered in a business timezone but may be rendered
// anywhere. Converting between zones would shift the displayed hour, so values
// are re-anchored to the Floating location: same year, month, day, hour,
// minute and second as written, offset discarded.
package wallclock

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Floating is the location used for timezone-naive wall-clock values.
var Floating = time.FixedZone("floating", 0)

// DateLayout is the ISO calendar date layout used for day keys.
const DateLayout = "2006-01-02"

var parseLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	DateLayout,
}

// Of re-emits t as a floating wall-clock value using the components t carries
// in its own location.
func Of(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), Floating)
}

// Parse reads a timestamp string and returns its floating wall-clock value,
// ignoring any UTC offset annotation.
func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("wallclock: empty timestamp")
	}
	for _, layout := range parseLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return Of(ts), nil
		}
	}
	return time.Time{}, fmt.Errorf("wallclock: unrecognised timestamp %q", value)
}

// Day truncates t to the start of its calendar day as written.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, Floating)
}

// NextDay returns the start of the calendar day after d. Calendar arithmetic
// is used rather than a 24h duration.
func NextDay(d time.Time) time.Time {
	return Day(d).AddDate(0, 0, 1)
}

// DayKey formats the calendar date of t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return Day(t).Format(DateLayout)
}

// SameDay reports whether a and b fall on the same calendar date as written.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// Now returns the current wall-clock reading of loc as a floating value.
func Now(now time.Time, loc *time.Location) time.Time {
	if loc != nil {
		now = now.In(loc)
	}
	return Of(now)
}

// Timestamp decodes JSON timestamps leniently: values carrying a UTC offset
// keep it, values written without one decode as floating wall-clock readings.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler. null and "" leave the value
// untouched.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("wallclock: timestamp must be a string: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		ts.Time = t
		return nil
	}
	t, err := Parse(raw)
	if err != nil {
		return err
	}
	ts.Time = t
	return nil
}
