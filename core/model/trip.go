package model

import "math"

// StationaryThresholdKm is the distance under which a trip counts as parked
// consumption instead of driving.
const StationaryThresholdKm = 0.5

// Trip is one recorded driving segment as exported by the vehicle.
//
// Numeric fields are pointers so that an absent value can be told apart from
// an explicit zero. Arithmetic treats both the same way through Num and Int.
type Trip struct {
	ID             string   `json:"id,omitempty"`
	Date           string   `json:"date,omitempty"`  // YYYYMMDD
	Month          string   `json:"month,omitempty"` // YYYYMM
	Distance       *float64 `json:"trip,omitempty"`        // km
	Energy         *float64 `json:"electricity,omitempty"` // kWh
	Fuel           *float64 `json:"fuel,omitempty"`        // litres, hybrids only
	Duration       *float64 `json:"duration,omitempty"`    // seconds
	StartTimestamp *int64   `json:"start_timestamp,omitempty"`
	EndTimestamp   *int64   `json:"end_timestamp,omitempty"`
	StartSoC       *float64 `json:"start_soc,omitempty"`
	EndSoC         *float64 `json:"end_soc,omitempty"`
	Regeneration   *float64 `json:"regeneration,omitempty"`
}

// Km returns the trip distance or 0 when absent.
func (t Trip) Km() float64 { return Num(t.Distance) }

// KWh returns the consumed energy or 0 when absent.
func (t Trip) KWh() float64 { return Num(t.Energy) }

// Liters returns the consumed fuel or 0 when absent.
func (t Trip) Liters() float64 { return Num(t.Fuel) }

// Seconds returns the trip duration or 0 when absent.
func (t Trip) Seconds() float64 { return Num(t.Duration) }

// Start returns the start timestamp or 0 when absent.
func (t Trip) Start() int64 { return Int(t.StartTimestamp) }

// IsStationary reports whether the trip is shorter than StationaryThresholdKm.
func (t Trip) IsStationary() bool { return t.Km() < StationaryThresholdKm }

// Valid reports whether the trip carries a usable, non-negative distance.
func (t *Trip) Valid() bool {
	if t == nil || t.Distance == nil {
		return false
	}
	d := *t.Distance
	return !math.IsNaN(d) && !math.IsInf(d, 0) && d >= 0
}

// PricedTrip is a copy of a Trip decorated with its attributed cost.
type PricedTrip struct {
	Trip
	Cost         float64 `json:"calculatedCost"`
	ElectricCost float64 `json:"electricCost"`
	FuelCost     float64 `json:"fuelCost"`
}

// Num dereferences p, mapping nil, NaN and infinities to 0.
func Num(p *float64) float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0
	}
	return *p
}

// Int dereferences p, mapping nil to 0.
func Int(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

// Float returns a pointer to v. It keeps literals short in tests and fixtures.
func Float(v float64) *float64 { return &v }

// Unix returns a pointer to ts.
func Unix(ts int64) *int64 { return &ts }

// Clone returns a deep copy of t so the copy shares no memory with the caller.
func (t Trip) Clone() Trip {
	c := t
	c.Distance = clonePtr(t.Distance)
	c.Energy = clonePtr(t.Energy)
	c.Fuel = clonePtr(t.Fuel)
	c.Duration = clonePtr(t.Duration)
	c.StartTimestamp = clonePtr(t.StartTimestamp)
	c.EndTimestamp = clonePtr(t.EndTimestamp)
	c.StartSoC = clonePtr(t.StartSoC)
	c.EndSoC = clonePtr(t.EndSoC)
	c.Regeneration = clonePtr(t.Regeneration)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
