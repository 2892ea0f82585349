package shared

import "time"

// ParseDate accepts RFC3339 or YYYY-MM-DD. Leave request bodies and the
// calendar from/to query params both go through here; an empty value decodes
// to the zero time so handlers can apply their own window defaults.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", value)
}
