package utils

import (
	"fmt"
	"time"
)

// Layouts accepted for query-string time filters, tried in order.
// Layouts without a zone are read in the caller's display location.
var timeParamLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimeParam parses a query-string time filter.
// Empty input yields the zero time, which callers treat as an open bound.
func ParseTimeParam(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range timeParamLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: expected RFC3339 or YYYY-MM-DDTHH:MM", value)
}
