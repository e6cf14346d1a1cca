package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/tripstats/core/model"
)

func ts(day, hour int) int64 {
	return time.Date(2025, 1, day, hour, 0, 0, 0, time.UTC).Unix()
}

func trip(kwh float64, start int64) model.Trip {
	return model.Trip{Distance: model.Float(50), Energy: model.Float(kwh), StartTimestamp: model.Unix(start)}
}

func TestCustomIgnoresCharges(t *testing.T) {
	s := model.Settings{ElectricStrategy: model.StrategyCustom, ElectricPrice: 0.15}
	withCharges := NewResolver(s, []model.Charge{
		{Date: "2025-01-01", KWhCharged: model.Float(10), TotalCost: model.Float(9)},
	}, time.UTC)
	without := NewResolver(s, nil, time.UTC)

	tr := trip(10, ts(5, 12))
	assert.InDelta(t, 1.5, withCharges.Cost(tr).Total, 1e-9)
	assert.Equal(t, withCharges.Cost(tr), without.Cost(tr))
}

func TestAveragePrice(t *testing.T) {
	s := model.Settings{ElectricStrategy: model.StrategyAverage, ElectricPrice: 0.5}
	r := NewResolver(s, []model.Charge{
		{KWhCharged: model.Float(10), TotalCost: model.Float(2)},
		{KWhCharged: model.Float(30), TotalCost: model.Float(10)},
		{Type: model.ChargeFuel, LitersCharged: model.Float(40), TotalCost: model.Float(60)},
	}, time.UTC)
	assert.InDelta(t, 0.3, r.Price(trip(10, 0), Electric), 1e-9)
	assert.InDelta(t, 3.0, r.Cost(trip(10, 0)).Total, 1e-9)
}

func TestAverageFallsBackToFixed(t *testing.T) {
	s := model.Settings{ElectricStrategy: model.StrategyAverage, ElectricPrice: 0.25}
	r := NewResolver(s, []model.Charge{{TotalCost: model.Float(3)}}, time.UTC)
	assert.Equal(t, 0.25, r.Price(trip(1, 0), Electric))
}

func TestDynamicPicksLatestPriorCharge(t *testing.T) {
	s := model.Settings{ElectricStrategy: model.StrategyDynamic, ElectricPrice: 0.99}
	charges := []model.Charge{
		// deliberately out of order
		{Date: "2025-01-20", Time: "10:00", KWhCharged: model.Float(10), TotalCost: model.Float(5)},
		{Date: "2025-01-10", Time: "10:00", KWhCharged: model.Float(10), TotalCost: model.Float(2)},
	}
	r := NewResolver(s, charges, time.UTC)

	assert.InDelta(t, 2.0, r.Cost(trip(10, ts(15, 9))).Total, 1e-9)
	assert.InDelta(t, 5.0, r.Cost(trip(10, ts(25, 9))).Total, 1e-9)
	// before every charge
	assert.InDelta(t, 9.9, r.Cost(trip(10, ts(5, 9))).Total, 1e-9)
	// a charge at the exact start instant is not strictly before it
	assert.InDelta(t, 2.0, r.Cost(trip(10, ts(20, 10))).Total, 1e-9)
}

func TestDynamicFreeChargeIsAPrice(t *testing.T) {
	s := model.Settings{ElectricStrategy: model.StrategyDynamic, ElectricPrice: 0.4}
	r := NewResolver(s, []model.Charge{
		{Date: "20250110", KWhCharged: model.Float(20), TotalCost: model.Float(0)},
	}, time.UTC)
	assert.Equal(t, 0.0, r.Price(trip(10, ts(11, 0)), Electric))
}

func TestDynamicSkipsUndatedCharges(t *testing.T) {
	s := model.Settings{ElectricStrategy: model.StrategyDynamic, ElectricPrice: 0.4}
	r := NewResolver(s, []model.Charge{{KWhCharged: model.Float(20), TotalCost: model.Float(1)}}, time.UTC)
	assert.Equal(t, 0.4, r.Price(trip(10, ts(11, 0)), Electric))
}

func TestHybridCostSplit(t *testing.T) {
	s := model.Settings{ElectricPrice: 0.1, FuelPrice: 1.5}
	r := NewResolver(s, nil, time.UTC)
	tr := model.Trip{Distance: model.Float(50), Energy: model.Float(10), Fuel: model.Float(5)}
	c := r.Cost(tr)
	assert.InDelta(t, 1.0, c.Electric, 1e-9)
	assert.InDelta(t, 7.5, c.Fuel, 1e-9)
	assert.InDelta(t, 8.5, c.Total, 1e-9)
}

func TestDecorateDoesNotAlias(t *testing.T) {
	r := NewResolver(model.Settings{ElectricPrice: 0.2}, nil, time.UTC)
	tr := trip(10, 0)
	p := r.Decorate(tr)
	*p.Energy = 99
	assert.Equal(t, 10.0, tr.KWh())
	assert.InDelta(t, 2.0, p.Cost, 1e-9)
}

func TestLegacyPriceStrategy(t *testing.T) {
	s := model.Settings{PriceStrategy: model.StrategyAverage, ElectricPrice: 1}
	r := NewResolver(s, []model.Charge{{KWh: model.Float(10), TotalCost: model.Float(2)}}, time.UTC)
	assert.InDelta(t, 0.2, r.Price(trip(1, 0), Electric), 1e-9)
}
