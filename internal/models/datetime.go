package models

import (
	"bytes"
	"fmt"
	"time"
)

// DateTimeLayout is the zone-less wire format of timestamps. Values are UTC.
const DateTimeLayout = "2006-01-02T15:04:05"

// DateTime wraps time.Time with the wire format used by clients.
type DateTime struct {
	time.Time
}

// NewDateTime converts t to UTC and drops sub-second precision.
func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t.UTC().Truncate(time.Second)}
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.UTC().Format(DateTimeLayout) + `"`), nil
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid timestamp %s", data)
	}
	raw := string(data[1 : len(data)-1])
	if t, err := time.ParseInLocation(DateTimeLayout, raw, time.UTC); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q, expected %s", raw, DateTimeLayout)
	}
	d.Time = t.UTC()
	return nil
}
