package model

import (
	"strings"
	"time"
)

// ChargeType discriminates electric charging sessions from refuelling stops.
type ChargeType string

const (
	ChargeElectric ChargeType = "electric"
	ChargeFuel     ChargeType = "fuel"
)

// Charge is one charging or refuelling event.
type Charge struct {
	ID                string     `json:"id,omitempty"`
	Date              string     `json:"date,omitempty"` // YYYY-MM-DD or YYYYMMDD
	Time              string     `json:"time,omitempty"` // HH:MM
	KWhCharged        *float64   `json:"kwhCharged,omitempty"`
	KWh               *float64   `json:"kwh,omitempty"` // legacy alias of KWhCharged
	LitersCharged     *float64   `json:"litersCharged,omitempty"`
	TotalCost         *float64   `json:"totalCost,omitempty"`
	PricePerKWh       *float64   `json:"pricePerKwh,omitempty"`
	PricePerLiter     *float64   `json:"pricePerLiter,omitempty"`
	ChargerTypeID     string     `json:"chargerTypeId,omitempty"`
	InitialPercentage *float64   `json:"initialPercentage,omitempty"`
	FinalPercentage   *float64   `json:"finalPercentage,omitempty"`
	Odometer          *float64   `json:"odometer,omitempty"`
	SpeedKW           *float64   `json:"speedKw,omitempty"`
	Type              ChargeType `json:"type,omitempty"`
	Location          string     `json:"location,omitempty"`
}

// Kind returns the charge type, defaulting to electric when unset.
func (c Charge) Kind() ChargeType {
	if c.Type == "" {
		return ChargeElectric
	}
	return c.Type
}

// Energy returns the delivered energy, falling back to the legacy kwh field.
func (c Charge) Energy() float64 {
	if c.KWhCharged != nil {
		return Num(c.KWhCharged)
	}
	return Num(c.KWh)
}

// Quantity returns kWh for electric charges and litres for fuel stops.
func (c Charge) Quantity() float64 {
	if c.Kind() == ChargeFuel {
		return Num(c.LitersCharged)
	}
	return c.Energy()
}

// Cost returns the total monetary cost or 0 when absent.
func (c Charge) Cost() float64 { return Num(c.TotalCost) }

// UnitPrice returns cost divided by quantity, 0 for an empty charge.
func (c Charge) UnitPrice() float64 {
	q := c.Quantity()
	if q <= 0 {
		return 0
	}
	return c.Cost() / q
}

// Timestamp parses Date and Time in loc and returns Unix seconds.
// The second result is false when the date cannot be parsed.
func (c Charge) Timestamp(loc *time.Location) (int64, bool) {
	if loc == nil {
		loc = time.Local
	}
	date := strings.TrimSpace(c.Date)
	if len(date) == 8 && !strings.Contains(date, "-") {
		date = date[:4] + "-" + date[4:6] + "-" + date[6:]
	}
	clock := strings.TrimSpace(c.Time)
	if clock == "" {
		clock = "00:00"
	}
	ts, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return 0, false
	}
	return ts.Unix(), true
}

// ChargerType maps a charger identifier to its wall-to-battery efficiency.
type ChargerType struct {
	ID         string  `json:"id" yaml:"id"`
	Name       string  `json:"name,omitempty" yaml:"name"`
	SpeedKW    float64 `json:"speedKw,omitempty" yaml:"speedKw"`
	Efficiency float64 `json:"efficiency" yaml:"efficiency"`
}
