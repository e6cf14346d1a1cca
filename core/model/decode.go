package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// DecodeTrips decodes a JSON array of trips one element at a time.
//
// An element is kept whenever it is an object whose "trip" field is a JSON
// number. Every other field is decoded on its own: a value of the wrong type
// leaves that field absent instead of discarding the trip. Null, non-object
// and distance-less elements become nil so the validator drops them later.
// Only a document that is not an array at all is reported as an error.
func DecodeTrips(data []byte) ([]*Trip, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode trips: %w", err)
	}
	trips := make([]*Trip, len(raw))
	for i, r := range raw {
		trips[i] = decodeTrip(r)
	}
	return trips, nil
}

func decodeTrip(r json.RawMessage) *Trip {
	if len(r) == 0 || r[0] != '{' {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r, &fields); err != nil {
		return nil
	}
	distance := number(fields["trip"])
	if distance == nil {
		return nil
	}
	return &Trip{
		ID:             text(fields["id"]),
		Date:           text(fields["date"]),
		Month:          text(fields["month"]),
		Distance:       distance,
		Energy:         number(fields["electricity"]),
		Fuel:           number(fields["fuel"]),
		Duration:       number(fields["duration"]),
		StartTimestamp: unix(fields["start_timestamp"]),
		EndTimestamp:   unix(fields["end_timestamp"]),
		StartSoC:       number(fields["start_soc"]),
		EndSoC:         number(fields["end_soc"]),
		Regeneration:   number(fields["regeneration"]),
	}
}

// number returns the value of a JSON number, or nil for anything else.
func number(raw json.RawMessage) *float64 {
	if len(raw) == 0 || !isNumber(raw) {
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

// unix truncates a JSON number to whole seconds.
func unix(raw json.RawMessage) *int64 {
	v := number(raw)
	if v == nil || math.Abs(*v) >= math.MaxInt64 {
		return nil
	}
	s := int64(math.Trunc(*v))
	return &s
}

// text accepts a JSON string, or a bare number kept as its literal digits.
func text(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	if isNumber(raw) {
		return string(raw)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func isNumber(raw json.RawMessage) bool {
	c := raw[0]
	return c == '-' || (c >= '0' && c <= '9')
}

// DecodeCharges decodes a JSON array of charges, skipping malformed elements.
func DecodeCharges(data []byte) ([]Charge, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode charges: %w", err)
	}
	charges := make([]Charge, 0, len(raw))
	for _, r := range raw {
		if len(r) == 0 || r[0] != '{' {
			continue
		}
		var c Charge
		if err := json.Unmarshal(r, &c); err != nil {
			continue
		}
		charges = append(charges, c)
	}
	return charges, nil
}
