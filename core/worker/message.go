package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kilianp07/tripstats/core/model"
)

// Request is the message crossing into the pool. It only holds plain data so
// that it can travel as JSON.
type Request struct {
	ID       string         `json:"id"`
	Key      string         `json:"key,omitempty"` // requests sharing a key supersede each other
	Trips    []*model.Trip  `json:"trips"`
	Settings model.Settings `json:"settings"`
	Charges  []model.Charge `json:"charges,omitempty"`
	Locale   string         `json:"locale,omitempty"`
}

// Response carries the result of one request. Result is nil when no trip
// was valid; Error is set when the computation failed.
type Response struct {
	ID      string        `json:"id"`
	Key     string        `json:"key,omitempty"`
	Result  *model.Result `json:"result"`
	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
	Dropped int           `json:"dropped"`
}

// DecodeRequest parses a JSON request envelope. Trips and charges are
// decoded leniently: malformed entries are dropped later by validation
// instead of failing the whole request.
func DecodeRequest(data []byte) (Request, error) {
	var env struct {
		ID       string          `json:"id"`
		Key      string          `json:"key"`
		Trips    json.RawMessage `json:"trips"`
		Settings json.RawMessage `json:"settings"`
		Charges  json.RawMessage `json:"charges"`
		Locale   string          `json:"locale"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	req := Request{ID: env.ID, Key: env.Key, Locale: env.Locale}
	var err error
	if isSet(env.Trips) {
		if req.Trips, err = model.DecodeTrips(env.Trips); err != nil {
			return Request{}, err
		}
	}
	if isSet(env.Charges) {
		if req.Charges, err = model.DecodeCharges(env.Charges); err != nil {
			return Request{}, err
		}
	}
	if isSet(env.Settings) {
		if err := json.Unmarshal(env.Settings, &req.Settings); err != nil {
			return Request{}, fmt.Errorf("decode settings: %w", err)
		}
	}
	return req, nil
}

func isSet(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// deepCopy round-trips v through JSON so the copy shares no memory with v.
func deepCopy[T any](v T) (T, error) {
	var out T
	data, err := json.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("copy %T: %w", v, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("copy %T: %w", v, err)
	}
	return out, nil
}
