package provider

import (
	"time"
)

// Temporal values are drawn inside a window around the time anchor so output
// is fully determined by the seed and the configured anchor.
const temporalWindow = 365 * 24 * time.Hour

func anchoredInstant(req *Request) time.Time {
	anchor := req.TimeAnchor
	if anchor.IsZero() {
		anchor = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	offset := time.Duration(req.Rand.Int64N(int64(temporalWindow)))
	return anchor.Add(-offset).UTC()
}

// DateTime produces an RFC 3339 timestamp within the anchor window.
func DateTime(req *Request) (any, error) {
	return anchoredInstant(req).Format(time.RFC3339), nil
}

// Date produces a calendar date within the anchor window.
func Date(req *Request) (any, error) {
	return anchoredInstant(req).Format("2006-01-02"), nil
}

// TimeOfDay produces a wall-clock time.
func TimeOfDay(req *Request) (any, error) {
	return anchoredInstant(req).Format("15:04:05"), nil
}

// Duration produces a positive duration up to 24h in Go duration syntax.
func Duration(req *Request) (any, error) {
	d := time.Duration(req.Rand.Int64N(int64(24 * time.Hour)))
	return d.Truncate(time.Second).String(), nil
}
