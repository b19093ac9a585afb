package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is a point in time as Unix nanoseconds.
type Timestamp int64

// Time converts the timestamp to a UTC time.Time.
func (t Timestamp) Time() time.Time {
	return time.Unix(0, int64(t)).UTC()
}

func (t Timestamp) String() string {
	return t.Time().Format(time.RFC3339Nano)
}

// OptionalTime is a timestamp that may be absent. The zero value is absent,
// which keeps "never updated" distinct from "updated at time 0".
type OptionalTime struct {
	ts    Timestamp
	valid bool
}

// SomeTime returns a present OptionalTime.
func SomeTime(ts Timestamp) OptionalTime {
	return OptionalTime{ts: ts, valid: true}
}

// NoTime returns an absent OptionalTime.
func NoTime() OptionalTime {
	return OptionalTime{}
}

// Get returns the timestamp and whether it is present.
func (o OptionalTime) Get() (Timestamp, bool) {
	return o.ts, o.valid
}

// IsSet reports whether a timestamp is present.
func (o OptionalTime) IsSet() bool {
	return o.valid
}

func (o OptionalTime) String() string {
	if !o.valid {
		return "never"
	}
	return o.ts.String()
}

// MarshalJSON encodes an absent value as null and a present one as its
// nanosecond count.
func (o OptionalTime) MarshalJSON() ([]byte, error) {
	if !o.valid {
		return []byte("null"), nil
	}
	return json.Marshal(int64(o.ts))
}

// UnmarshalJSON accepts null or an integer nanosecond count.
func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = OptionalTime{}
		return nil
	}
	var ns int64
	if err := json.Unmarshal(data, &ns); err != nil {
		return fmt.Errorf("updated_at: %w", err)
	}
	*o = SomeTime(Timestamp(ns))
	return nil
}
