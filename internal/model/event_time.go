package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// maxUnixSeconds is the largest magnitude float64 holds as whole seconds.
const maxUnixSeconds = 1 << 53

// Accepted event_time range. Both storage dialects round-trip it.
var (
	MinEventTime = time.Unix(0, 0).UTC()
	MaxEventTime = time.Date(9999, 12, 31, 23, 59, 59, 999999000, time.UTC)
)

// EventTime is the client-reported event timestamp. It decodes from either
// unix seconds (ad platforms send integers) or an RFC 3339 string.
type EventTime struct {
	time.Time
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (t *EventTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var secs float64
	if err := json.Unmarshal(data, &secs); err == nil {
		if math.IsNaN(secs) || math.Abs(secs) > maxUnixSeconds {
			return fmt.Errorf("EventTime: unix seconds %g out of range", secs)
		}
		whole, frac := math.Modf(secs)
		t.Time = time.Unix(int64(whole), int64(frac*1e9)).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("EventTime: invalid timestamp %q: %w", s, err)
		}
		t.Time = parsed.UTC()
		return nil
	}

	return fmt.Errorf("EventTime: expected unix seconds or RFC 3339 string")
}

// MarshalJSON implements the json.Marshaler interface.
func (t EventTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time)
}
