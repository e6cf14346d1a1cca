// Package pricing attributes a monetary cost to trips from a charge history.
//
// A Resolver is built once per computation. Average prices and the sorted
// dynamic price timeline are prepared up front so pricing a trip never
// re-sorts or rescans the whole history.
package pricing

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/tripstats/core/model"
)

// Kind selects the energy carrier being priced.
type Kind int

const (
	Electric Kind = iota
	Fuel
)

func (k Kind) chargeType() model.ChargeType {
	if k == Fuel {
		return model.ChargeFuel
	}
	return model.ChargeElectric
}

// Cost is the attributed cost of one trip.
type Cost struct {
	Total    float64
	Electric float64
	Fuel     float64
}

type pricePoint struct {
	ts    int64
	price float64
}

type plan struct {
	strategy model.Strategy
	fixed    float64
	average  float64
	timeline []pricePoint
}

// Resolver returns unit prices per trip under the configured strategies.
type Resolver struct {
	elec plan
	fuel plan
}

// NewResolver prepares the electricity and fuel pricing plans.
// Charge dates are interpreted in loc; nil means time.Local.
func NewResolver(s model.Settings, charges []model.Charge, loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{
		elec: newPlan(s.ElectricMode(), s.ElectricPrice, charges, Electric, loc),
		fuel: newPlan(s.FuelMode(), s.FuelPrice, charges, Fuel, loc),
	}
}

func newPlan(strategy model.Strategy, fixed float64, charges []model.Charge, kind Kind, loc *time.Location) plan {
	p := plan{strategy: strategy, fixed: fixed}
	var costs, qty []float64
	for _, c := range charges {
		if c.Kind() != kind.chargeType() {
			continue
		}
		costs = append(costs, c.Cost())
		qty = append(qty, c.Quantity())
		if strategy != model.StrategyDynamic {
			continue
		}
		ts, ok := c.Timestamp(loc)
		if !ok {
			continue
		}
		p.timeline = append(p.timeline, pricePoint{ts: ts, price: c.UnitPrice()})
	}
	if len(qty) > 0 {
		if total := floats.Sum(qty); total > 0 {
			p.average = floats.Sum(costs) / total
		}
	}
	sort.SliceStable(p.timeline, func(i, j int) bool { return p.timeline[i].ts < p.timeline[j].ts })
	return p
}

func (p plan) price(start int64) float64 {
	switch p.strategy {
	case model.StrategyAverage:
		if p.average > 0 {
			return p.average
		}
		return p.fixed
	case model.StrategyDynamic:
		// first charge at or after the trip start; the one before it is the latest prior charge
		i := sort.Search(len(p.timeline), func(i int) bool { return p.timeline[i].ts >= start })
		if i == 0 {
			return p.fixed
		}
		return p.timeline[i-1].price
	default:
		return p.fixed
	}
}

// Price returns the unit price applied to the trip for the given kind.
func (r *Resolver) Price(t model.Trip, kind Kind) float64 {
	if kind == Fuel {
		return r.fuel.price(t.Start())
	}
	return r.elec.price(t.Start())
}

// Cost prices the trip's energy and fuel consumption.
func (r *Resolver) Cost(t model.Trip) Cost {
	e := t.KWh() * r.Price(t, Electric)
	f := t.Liters() * r.Price(t, Fuel)
	return Cost{Total: e + f, Electric: e, Fuel: f}
}

// Decorate returns a priced copy of t. The input is left untouched.
func (r *Resolver) Decorate(t model.Trip) model.PricedTrip {
	c := r.Cost(t)
	return model.PricedTrip{Trip: t.Clone(), Cost: c.Total, ElectricCost: c.Electric, FuelCost: c.Fuel}
}
