// Package analytics turns trip and charge records into the aggregated
// statistics, cost attribution and battery health summary of one vehicle.
//
// Compute is a pure function of its inputs apart from the calendar-ageing
// term of the battery estimate. Engine wraps it with logging and metrics.
package analytics

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/kilianp07/tripstats/core/battery"
	"github.com/kilianp07/tripstats/core/format"
	"github.com/kilianp07/tripstats/core/model"
	"github.com/kilianp07/tripstats/core/pricing"
	"github.com/kilianp07/tripstats/core/topn"
)

// TopK is the length of every top records list.
const TopK = 10

// Efficiency band, in kWh/100km, outside of which a trip is left out of the
// scatter set as sensor noise. Both bounds are exclusive.
const (
	ScatterMinEff = 0.0
	ScatterMaxEff = 50.0
)

// Stats describes what a computation did with its input.
type Stats struct {
	Input      int
	Dropped    int
	Active     int
	Stationary int
	Hybrid     bool
	TotalKm    float64
	TotalKWh   float64
}

// Options controls the environment of a computation.
type Options struct {
	// Location is used for hour and weekday buckets and for charge dates.
	// Nil means time.Local.
	Location *time.Location
	// Now is the reference time of the battery calendar ageing. Nil means time.Now.
	Now func() time.Time
}

// Compute aggregates trips under the given settings and charge history.
// It returns nil when no trip passes validation.
func Compute(trips []*model.Trip, settings model.Settings, charges []model.Charge, locale string) *model.Result {
	res, _ := ComputeWith(Options{}, trips, settings, charges, locale)
	return res
}

// ComputeWith is Compute with explicit options. It also reports input stats.
func ComputeWith(opts Options, trips []*model.Trip, settings model.Settings, charges []model.Charge, locale string) (*model.Result, Stats) {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if locale == "" {
		locale = settings.Locale
	}

	valid, dropped := Validate(trips)
	stats := Stats{Input: len(trips), Dropped: dropped}
	if len(valid) == 0 {
		return nil, stats
	}

	acc := newAccumulator(opts.Location)
	resolver := pricing.NewResolver(settings, charges, opts.Location)
	for _, t := range valid {
		acc.add(resolver.Decorate(t))
	}
	stats.Active = len(acc.active)
	stats.Stationary = len(valid) - len(acc.active)
	stats.Hybrid = acc.hybrid
	stats.TotalKm = acc.totalKm
	stats.TotalKWh = acc.totalKWh

	slices.SortStableFunc(valid, byStart[model.Trip])
	slices.SortStableFunc(acc.active, byStart[model.PricedTrip])

	res := &model.Result{
		Monthly:    acc.monthlySeries(locale),
		Daily:      acc.dailySeries(locale),
		Hourly:     acc.hourly[:],
		Weekday:    acc.weekday[:],
		TripDist:   acc.dist[:],
		EffScatter: acc.scatter,
		Top:        acc.topRecords(),
		IsHybrid:   acc.hybrid,
	}
	est := battery.Estimator{Now: opts.Now}
	res.Summary = acc.summarize(valid, settings, charges, locale, est)
	return res, stats
}

func byStart[T interface{ Start() int64 }](a, b T) int {
	return cmp.Compare(a.Start(), b.Start())
}

type accumulator struct {
	loc *time.Location

	totalKm, totalKWh, drivingKWh, stationaryKWh float64
	totalFuel, totalDuration                     float64
	hybrid                                       bool

	electricOnlyKm, fuelUsedKm       float64
	electricOnlyTrips, fuelUsedTrips int

	maxKm, minKm, maxKWh, maxDur, maxFuel float64
	maxCost                               float64
	maxCostDate                           string

	monthly *bucketMap[model.MonthlyBucket]
	daily   *bucketMap[model.DailyBucket]
	dates   map[string]struct{}
	hourly  [24]model.HourlyBucket
	weekday [7]model.WeekdayBucket
	dist    [5]model.DistributionBucket
	scatter []model.ScatterPoint
	active  []model.PricedTrip
}

func newAccumulator(loc *time.Location) *accumulator {
	return &accumulator{
		loc:     loc,
		maxKm:   math.Inf(-1),
		minKm:   math.Inf(1),
		maxKWh:  math.Inf(-1),
		maxDur:  math.Inf(-1),
		maxCost: math.Inf(-1),
		monthly: newBucketMap[model.MonthlyBucket](),
		daily:   newBucketMap[model.DailyBucket](),
		dates:   make(map[string]struct{}),
		hourly:  emptyHourly(),
		weekday: emptyWeekday(),
		dist:    emptyDistribution(),
		scatter: []model.ScatterPoint{},
	}
}

func (a *accumulator) trackCost(p model.PricedTrip) {
	if p.Cost > a.maxCost {
		a.maxCost = p.Cost
		a.maxCostDate = p.Date
	}
}

func (a *accumulator) add(p model.PricedTrip) {
	km, kwh, fuel, dur := p.Km(), p.KWh(), p.Liters(), p.Seconds()
	if fuel > 0 {
		a.hybrid = true
	}

	if p.IsStationary() {
		a.stationaryKWh += kwh
		a.totalKWh += kwh
		a.totalFuel += fuel
		a.trackCost(p)
		return
	}

	a.active = append(a.active, p)
	a.totalKm += km
	a.drivingKWh += kwh
	a.totalKWh += kwh
	a.totalFuel += fuel
	a.totalDuration += dur

	if fuel > 0 {
		a.fuelUsedKm += km
		a.fuelUsedTrips++
		a.maxFuel = math.Max(a.maxFuel, fuel)
	} else {
		a.electricOnlyKm += km
		a.electricOnlyTrips++
	}

	a.trackCost(p)
	a.maxKm = math.Max(a.maxKm, km)
	a.minKm = math.Min(a.minKm, km)
	a.maxKWh = math.Max(a.maxKWh, kwh)
	a.maxDur = math.Max(a.maxDur, dur)

	m := a.monthly.at(keyOr(p.Month), func(k string) model.MonthlyBucket { return model.MonthlyBucket{Month: k} })
	m.Trips++
	m.Km += km
	m.KWh += kwh
	m.Fuel += fuel

	day := keyOr(p.Date)
	a.dates[day] = struct{}{}
	d := a.daily.at(day, func(k string) model.DailyBucket { return model.DailyBucket{Date: k} })
	d.Trips++
	d.Km += km
	d.KWh += kwh
	d.Fuel += fuel

	if start := p.Start(); start != 0 {
		at := time.Unix(start, 0).In(a.loc)
		a.hourly[at.Hour()].Trips++
		a.hourly[at.Hour()].Km += km
		wd := (int(at.Weekday()) + 6) % 7
		a.weekday[wd].Trips++
		a.weekday[wd].Km += km
	}

	a.dist[distIndex(km)].Count++

	if km > 0 && kwh > 0 {
		eff := kwh / km * 100
		if eff > ScatterMinEff && eff < ScatterMaxEff {
			a.scatter = append(a.scatter, model.ScatterPoint{X: km, Y: eff, Fuel: fuel})
		}
	}
}

func (a *accumulator) monthlySeries(locale string) []model.MonthlyBucket {
	out := a.monthly.sorted()
	for i := range out {
		out[i].Efficiency = per100(out[i].KWh, out[i].Km)
		out[i].FuelEfficiency = per100(out[i].Fuel, out[i].Km)
		out[i].Label = format.Month(out[i].Month, locale)
	}
	return out
}

func (a *accumulator) dailySeries(locale string) []model.DailyBucket {
	out := a.daily.sorted()
	for i := range out {
		out[i].Efficiency = per100(out[i].KWh, out[i].Km)
		out[i].FuelEfficiency = per100(out[i].Fuel, out[i].Km)
		out[i].Label = format.Date(out[i].Date, locale)
	}
	return out
}

// topRecords expects a.active sorted by start time.
func (a *accumulator) topRecords() model.TopRecords {
	desc := func(key func(model.PricedTrip) float64) func(x, y model.PricedTrip) int {
		return func(x, y model.PricedTrip) int { return cmp.Compare(key(y), key(x)) }
	}
	top := model.TopRecords{
		Km:   topn.Select(a.active, desc(func(p model.PricedTrip) float64 { return p.Km() }), TopK),
		KWh:  topn.Select(a.active, desc(func(p model.PricedTrip) float64 { return p.KWh() }), TopK),
		Dur:  topn.Select(a.active, desc(func(p model.PricedTrip) float64 { return p.Seconds() }), TopK),
		Fuel: []model.PricedTrip{},
	}
	if a.hybrid {
		var fueled []model.PricedTrip
		for _, p := range a.active {
			if p.Liters() > 0 {
				fueled = append(fueled, p)
			}
		}
		top.Fuel = topn.Select(fueled, desc(func(p model.PricedTrip) float64 { return p.Liters() }), TopK)
	}
	return top
}
