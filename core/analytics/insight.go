package analytics

import (
	"math"

	"github.com/kilianp07/tripstats/core/format"
	"github.com/kilianp07/tripstats/core/model"
)

// defaultInsightPrice is the electricity price used when settings carry none.
const defaultInsightPrice = 0.15

// TripInsight compares one trip against the rest of the history.
type TripInsight struct {
	Efficiency float64 `json:"efficiency"` // kWh/100km
	Score      float64 `json:"score"`      // 0 worst to 10 best
	Percentile float64 `json:"percentile"`
	// VsAverage is the relative deviation from the history average, in percent.
	// Negative means the trip was more efficient than average.
	VsAverage float64 `json:"vsAverage"`
	Cost      float64 `json:"cost"`
	Duration  string  `json:"duration"`
	AvgSpeed  float64 `json:"avgSpeed"` // km/h, 0 without a duration
}

// Insight scores trip against history. Invalid history entries are ignored.
func Insight(trip model.Trip, history []*model.Trip, s model.Settings) TripInsight {
	all, _ := Validate(history)

	minEff, maxEff := math.Inf(1), math.Inf(-1)
	var km, kwh float64
	for _, t := range all {
		if t.Km() > 0 {
			km += t.Km()
			kwh += t.KWh()
		}
		if t.Km() < 1 || t.KWh() == 0 {
			continue
		}
		eff := t.KWh() / t.Km() * 100
		minEff = math.Min(minEff, eff)
		maxEff = math.Max(maxEff, eff)
	}

	var in TripInsight
	if trip.Km() > 0 {
		in.Efficiency = trip.KWh() / trip.Km() * 100
	}
	if math.IsInf(minEff, 0) {
		in.Score = 5
	} else {
		in.Score = format.Score(in.Efficiency, minEff, maxEff)
	}
	in.Percentile = format.Percentile(trip, all)
	if km > 0 && kwh > 0 {
		avg := kwh / km * 100
		in.VsAverage = (in.Efficiency - avg) / avg * 100
	}
	price := s.ElectricPrice
	if price == 0 {
		price = defaultInsightPrice
	}
	in.Cost = trip.KWh() * price
	in.Duration = format.Duration(trip.Seconds())
	if sec := trip.Seconds(); sec > 0 {
		in.AvgSpeed = trip.Km() / (sec / 3600)
	}
	return in
}
