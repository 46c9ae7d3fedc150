package repository

import (
	"fmt"
	"time"
)

// dateLayouts are the formats the sqlite driver hands back for DATE columns,
// depending on how the value was written.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// ParseTime parses a stored date column into a UTC time.
func ParseTime(str string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, str); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse date %q", str)
}
