package battery

import "math"

// PriorCharge is the last known charge before the point being estimated.
type PriorCharge struct {
	Odometer        *float64 `json:"odometer,omitempty"`
	FinalPercentage *float64 `json:"finalPercentage,omitempty"`
}

// EstimateInitialSoC estimates the state of charge at currentOdometer by
// subtracting the energy driven since prev at avgEfficiency kWh/100km.
// The result is rounded to a whole percent and clamped to [0, 100]. The
// second return value is false when the inputs do not allow an estimate.
// Zero and non-finite inputs count as missing.
func EstimateInitialSoC(prev PriorCharge, currentOdometer, avgEfficiency, batterySize float64) (float64, bool) {
	if !given(currentOdometer) || !given(avgEfficiency) || !given(batterySize) {
		return 0, false
	}
	if prev.Odometer == nil || prev.FinalPercentage == nil || !finite(*prev.Odometer) || !finite(*prev.FinalPercentage) {
		return 0, false
	}
	distance := currentOdometer - *prev.Odometer
	if distance <= 0 {
		return 0, false
	}
	consumed := distance * avgEfficiency / 100
	socUsed := consumed / batterySize * 100
	soc := math.Max(0, math.Min(100, *prev.FinalPercentage-socUsed))
	return math.Round(soc), true
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func given(v float64) bool { return v != 0 && finite(v) }
