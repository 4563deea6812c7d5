package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without time-of-day or zone. The zero Date means
// "no usable date" and is rendered as an empty string.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string. The empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time(time.UTC).AddDate(0, 0, n))
}

func (d Date) Weekday() time.Weekday {
	return d.Time(time.UTC).Weekday()
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// RawDate keeps a backend date field exactly as received. The backend may send
// ISO strings, epoch milliseconds or null; interpretation happens in the
// source adapters so that one bad value never fails a whole list decode.
type RawDate struct {
	Value   string
	Present bool
	numeric bool
}

// RawDateOf wraps an already-parsed timestamp.
func RawDateOf(t time.Time) RawDate {
	return RawDate{Value: t.Format(time.RFC3339Nano), Present: true}
}

// RawDateString wraps a string value as if it came from the wire.
func RawDateString(s string) RawDate {
	return RawDate{Value: s, Present: true}
}

// IsNull reports whether the field was null or missing.
func (r RawDate) IsNull() bool {
	return !r.Present
}

// Numeric reports whether the wire value was a JSON number.
func (r RawDate) Numeric() bool {
	return r.numeric
}

func (r *RawDate) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*r = RawDate{}
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = RawDate{Value: s, Present: true}
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*r = RawDate{Value: string(b), Present: true, numeric: true}
	default:
		// Objects, arrays and booleans are kept verbatim and fail to parse later.
		*r = RawDate{Value: string(b), Present: true}
	}
	return nil
}

func (r RawDate) MarshalJSON() ([]byte, error) {
	if !r.Present {
		return []byte("null"), nil
	}
	if r.numeric {
		if _, err := strconv.ParseFloat(r.Value, 64); err == nil {
			return []byte(r.Value), nil
		}
	}
	return json.Marshal(r.Value)
}
