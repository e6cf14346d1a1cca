package analytics

import (
	"math"

	"github.com/kilianp07/tripstats/core/battery"
	"github.com/kilianp07/tripstats/core/format"
	"github.com/kilianp07/tripstats/core/model"
)

// Range multipliers applied to the average efficiency.
const (
	HighwayFactor = 1.2
	CityFactor    = 0.8
)

const secondsPerDay = 24 * 3600

// summarize builds the Summary. all holds every validated trip sorted by
// start time, stationary ones included.
func (a *accumulator) summarize(all []model.Trip, s model.Settings, charges []model.Charge, locale string, est battery.Estimator) model.Summary {
	n := len(a.active)
	avgEff := per100(a.drivingKWh, a.totalKm)

	soh := s.ManualSoH()
	var sohData *model.SoHResult
	if s.MfgDate != "" {
		r := est.Estimate(charges, s.MfgDate, s.BatterySize, s.ChargerTypes, s.Thermal())
		sohData = &r
		if s.SoHMode == model.SoHCalculated {
			soh = r.EstimatedSoH
		}
	}
	effective := s.BatterySize * soh / 100

	daysActive := len(a.dates)
	if daysActive == 0 {
		daysActive = 1
	}

	sum := model.Summary{
		TotalTrips:            n,
		TotalKm:               format.Fixed(a.totalKm, 1),
		TotalKWh:              format.Fixed(a.totalKWh, 1),
		DrivingKWh:            format.Fixed(a.drivingKWh, 1),
		StationaryConsumption: format.Fixed(a.stationaryKWh, 1),
		TotalHours:            format.Fixed(a.totalDuration/3600, 1),
		AvgEff:                format.Fixed(avgEff, 2),
		EstimatedRange:        rangeKm(effective, avgEff),
		EstimatedRangeHighway: rangeKm(effective, avgEff*HighwayFactor),
		EstimatedRangeCity:    rangeKm(effective, avgEff*CityFactor),
		AvgKm:                 "0",
		AvgMin:                "0",
		AvgSpeed:              "0",
		DaysActive:            daysActive,
		TotalDays:             totalDays(all, daysActive),
		DateRange:             dateRange(all, locale),
		MaxKm:                 finiteOr(a.maxKm, 1, "0.0"),
		MinKm:                 finiteOr(a.minKm, 1, "0.0"),
		MaxKWh:                finiteOr(a.maxKWh, 1, "0.0"),
		MaxMin:                finiteOr(a.maxDur/60, 0, "0"),
		TripsDay:              format.Fixed(float64(n)/float64(daysActive), 1),
		KmDay:                 format.Fixed(a.totalKm/float64(daysActive), 1),
		IsHybrid:              a.hybrid,
		TotalFuel:             format.Fixed(a.totalFuel, 2),
		AvgFuelEff:            "0",
		ElectricPercentage:    "100",
		FuelPercentage:        "0",
		ElectricOnlyTrips:     a.electricOnlyTrips,
		FuelUsedTrips:         a.fuelUsedTrips,
		EVModeUsage:           "100",
		MaxFuel:               format.Fixed(a.maxFuel, 2),
		MaxCost:               finiteOr(a.maxCost, 2, "0.00"),
		MaxCostDate:           a.maxCostDate,
		SoH:                   soh,
		SoHData:               sohData,
	}
	if n > 0 {
		sum.AvgKm = format.Fixed(a.totalKm/float64(n), 1)
		sum.EVModeUsage = format.Fixed(float64(a.electricOnlyTrips)/float64(n)*100, 1)
	}
	if a.totalDuration > 0 {
		sum.AvgMin = format.Fixed(a.totalDuration/float64(n)/60, 0)
		sum.AvgSpeed = format.Fixed(a.totalKm/(a.totalDuration/3600), 1)
	}
	if a.totalKm > 0 {
		sum.AvgFuelEff = format.Fixed(per100(a.totalFuel, a.totalKm), 2)
		sum.ElectricPercentage = format.Fixed(per100(a.electricOnlyKm, a.totalKm), 1)
		sum.FuelPercentage = format.Fixed(per100(a.fuelUsedKm, a.totalKm), 1)
	}
	return sum
}

// rangeKm is the distance effective kWh last at eff kWh/100km.
func rangeKm(effective, eff float64) string {
	if effective <= 0 || eff <= 0 {
		return "0"
	}
	return format.Fixed(effective/eff*100, 0)
}

func finiteOr(v float64, decimals int, fallback string) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return fallback
	}
	return format.Fixed(v, decimals)
}

// totalDays is the inclusive calendar span between the first and last trip.
// Without timestamps on both ends it falls back to the active day count.
func totalDays(all []model.Trip, daysActive int) int {
	if len(all) == 0 {
		return daysActive
	}
	first, last := all[0].Start(), all[len(all)-1].Start()
	if first == 0 || last == 0 {
		return daysActive
	}
	days := int(math.Ceil(float64(last-first)/secondsPerDay)) + 1
	return max(1, days)
}

func dateRange(all []model.Trip, locale string) string {
	if len(all) == 0 {
		return ""
	}
	return format.Date(all[0].Date, locale) + " - " + format.Date(all[len(all)-1].Date, locale)
}
