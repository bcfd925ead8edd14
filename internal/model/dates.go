package model

import "time"

// ParseDateSafe parses registry date strings in either compact (20220512) or
// ISO (2022-05-12) form. Returns nil for anything else, including empty input.
func ParseDateSafe(raw string) *time.Time {
	if raw == "" {
		return nil
	}

	var layout string
	switch {
	case len(raw) == 8:
		layout = "20060102"
	case len(raw) == 10:
		layout = "2006-01-02"
	default:
		return nil
	}

	t, err := time.Parse(layout, raw)
	if err != nil {
		return nil
	}
	return &t
}
