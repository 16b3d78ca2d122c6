package iq

import "time"

// timestampLayout is the fixed ISO-8601 form with microseconds that the
// query grammar expects: YYYY-MM-DDTHH:MM:SS.UUUUUUZ.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// FormatTimestamp renders t in the form accepted by absolute timestamp
// ranges. The timestamp is normalized to UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseTimestamp parses a timestamp in the FormatTimestamp form.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}
