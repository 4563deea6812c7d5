package source

import (
	"math"
	"strconv"
	"strings"
	"time"

	"safetycal/internal/model"
)

// Layouts without a zone are read as wall-clock values in the display location.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ToDate converts a backend date value into a calendar date. It accepts
// time.Time, *time.Time, model.Date, model.RawDate, strings and epoch
// milliseconds. Anything it cannot interpret yields the zero Date; it never
// panics or returns an error.
func ToDate(v any, loc *time.Location) model.Date {
	if loc == nil {
		loc = time.Local
	}
	switch x := v.(type) {
	case nil:
		return model.Date{}
	case model.Date:
		return x
	case time.Time:
		if x.IsZero() {
			return model.Date{}
		}
		return checked(model.DateOf(x.In(loc)))
	case *time.Time:
		if x == nil {
			return model.Date{}
		}
		return ToDate(*x, loc)
	case model.RawDate:
		if x.IsNull() {
			return model.Date{}
		}
		if x.Numeric() {
			return fromMillisString(x.Value, loc)
		}
		return fromString(x.Value, loc)
	case string:
		return fromString(x, loc)
	case int64:
		return fromMillis(x, loc)
	case int:
		return fromMillis(int64(x), loc)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) > 1e15 {
			return model.Date{}
		}
		return fromMillis(int64(x), loc)
	default:
		return model.Date{}
	}
}

func fromString(s string, loc *time.Location) model.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Date{}
	}

	// Plain dates are civil dates; no zone shifting.
	if len(s) == len("2006-01-02") {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return checked(model.DateOf(t))
		}
		return model.Date{}
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return checked(model.DateOf(t.In(loc)))
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return checked(model.DateOf(t))
		}
	}
	if isDigits(s) {
		return fromMillisString(s, loc)
	}
	return model.Date{}
}

func fromMillisString(s string, loc *time.Location) model.Date {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return model.Date{}
		}
		return ToDate(f, loc)
	}
	return fromMillis(ms, loc)
}

func fromMillis(ms int64, loc *time.Location) model.Date {
	return checked(model.DateOf(time.UnixMilli(ms).In(loc)))
}

// checked rejects dates that cannot be written as YYYY-MM-DD.
func checked(d model.Date) model.Date {
	if d.Year < 1 || d.Year > 9999 {
		return model.Date{}
	}
	return d
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// clock normalizes "HH:mm" or "HH:mm:ss" to "HH:mm"; anything else becomes "".
func clock(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04")
		}
	}
	return ""
}
