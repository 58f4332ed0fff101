package service

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// parseBound accepts RFC3339 timestamps or calendar dates in loc. A date used
// as an upper bound covers the whole day.
func parseBound(field, raw string, upper bool, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		ts = ts.UTC()
		return &ts, nil
	}
	day, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return nil, fieldError(field, "must be RFC3339 or YYYY-MM-DD")
	}
	if upper {
		day = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	day = day.UTC()
	return &day, nil
}

func parseRange(from, to string, loc *time.Location) (*time.Time, *time.Time, error) {
	start, err := parseBound("from", from, false, loc)
	if err != nil {
		return nil, nil, err
	}
	end, err := parseBound("to", to, true, loc)
	if err != nil {
		return nil, nil, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, fieldError("to", "must not be before from")
	}
	return start, end, nil
}
