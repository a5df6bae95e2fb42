package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Layouts accepted for eventDate after RFC 3339. Both read as local time.
var localDateLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// EventDate is a poll date as sent by clients: RFC 3339, or a date or
// date-time without offset
type EventDate time.Time

func (d *EventDate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("eventDate must be a string: %w", err)
	}

	t, err := parseEventDate(s)
	if err != nil {
		return err
	}
	*d = EventDate(t)
	return nil
}

func (d EventDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(d))
}

// Time returns the date as a time.Time
func (d EventDate) Time() time.Time {
	return time.Time(d)
}

func parseEventDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid eventDate %q", s)
}
