package crm

import (
	"fmt"
	"strings"
	"time"
)

var visitTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseVisitTime reads an ISO-8601 date and time. Values without an offset
// are taken as UTC.
func ParseVisitTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range visitTimeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: visit_time %q is not an ISO 8601 datetime", ErrInvalidInput, value)
}
