// Package battery estimates battery State-of-Health from charging history
// and calendar age for LFP packs.
package battery

import (
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/tripstats/core/model"
)

// DefaultCapacityKWh is used when no usable nominal capacity is supplied.
const DefaultCapacityKWh = 60.48

const (
	slowEfficiency    = 0.85
	defaultEfficiency = 0.95
	slowSpeedKW       = 3.5
	acSpeedKW         = 22
	dcSpeedKW         = 70

	seiMaxLoss     = 2.0
	seiCycles      = 50.0
	cycleLossRate  = 0.00005
	calendarLoss   = 0.75 // percentage points per year
	daysPerYear    = 365.25
	fullChargePct  = 99.0
	calibrationMin = 0.1
)

// stressWeights are the degradation weights of the slow, AC, DC and HPC
// speed buckets, in that order.
var stressWeights = []float64{0.9, 1.0, 1.2, 2.8}

// Estimator computes SoH relative to the time returned by Now.
type Estimator struct {
	Now func() time.Time
}

// EstimateSoH runs the estimator against the wall clock.
func EstimateSoH(charges []model.Charge, mfgDate string, capacityKWh float64, chargerTypes []model.ChargerType, thermal float64) model.SoHResult {
	return Estimator{}.Estimate(charges, mfgDate, capacityKWh, chargerTypes, thermal)
}

// Baseline is the result for a pack without usable history: full health and
// no degradation.
func Baseline(thermal float64) model.SoHResult {
	return model.SoHResult{
		EstimatedSoH:   100,
		StressScore:    thermal,
		ChargingStress: 1,
		ThermalStress:  thermal,
	}
}

// Estimate returns the SoH estimate and its degradation breakdown.
func (e Estimator) Estimate(charges []model.Charge, mfgDate string, capacityKWh float64, chargerTypes []model.ChargerType, thermal float64) model.SoHResult {
	mfg, ok := parseMfgDate(mfgDate)
	if len(charges) == 0 || !ok {
		return Baseline(thermal)
	}
	if capacityKWh <= 0 || math.IsNaN(capacityKWh) {
		capacityKWh = DefaultCapacityKWh
	}

	efficiencyByID := make(map[string]float64, len(chargerTypes))
	for _, ct := range chargerTypes {
		if _, seen := efficiencyByID[ct.ID]; !seen {
			efficiencyByID[ct.ID] = ct.Efficiency
		}
	}

	counts := make([]float64, len(stressWeights))
	var realKWh float64
	var sessions, fullCharges int
	for _, c := range charges {
		if c.Kind() != model.ChargeElectric {
			continue
		}
		sessions++
		speed := model.Num(c.SpeedKW)
		realKWh += c.Energy() * chargeEfficiency(efficiencyByID, c.ChargerTypeID, speed)
		counts[speedBucket(speed)]++
		if model.Num(c.FinalPercentage) >= fullChargePct {
			fullCharges++
		}
	}

	cycles := realKWh / capacityKWh
	chargingStress := 1.0
	if sessions > 0 {
		chargingStress = floats.Dot(counts, stressWeights) / float64(sessions)
	}
	stress := chargingStress * thermal

	sei := math.Min(seiMaxLoss, cycles/seiCycles*seiMaxLoss)
	cycle := cycles * cycleLossRate * stress * 100
	calendar := math.Max(0, e.ageYears(mfg)*calendarLoss)
	soh := math.Max(0, 100-sei-cycle-calendar)

	warn := false
	if sessions > 0 {
		warn = float64(fullCharges)/float64(sessions) < calibrationMin
	}

	return model.SoHResult{
		EstimatedSoH:       round2(soh),
		RealCycles:         round2(cycles),
		StressScore:        round2(stress),
		ChargingStress:     round2(chargingStress),
		ThermalStress:      thermal,
		CalibrationWarning: warn,
		Degradation: model.Degradation{
			SEI:      round2(sei),
			Cycle:    round2(cycle),
			Calendar: round2(calendar),
		},
	}
}

func (e Estimator) ageYears(mfg time.Time) float64 {
	now := time.Now()
	if e.Now != nil {
		now = e.Now()
	}
	return now.Sub(mfg).Hours() / 24 / daysPerYear
}

func chargeEfficiency(byID map[string]float64, id string, speed float64) float64 {
	if eff, ok := byID[id]; ok && eff > 0 && eff < 1 {
		return eff
	}
	if speed > 0 && speed < slowSpeedKW {
		return slowEfficiency
	}
	return defaultEfficiency
}

func speedBucket(speed float64) int {
	switch {
	case speed <= slowSpeedKW:
		return 0
	case speed <= acSpeedKW:
		return 1
	case speed <= dcSpeedKW:
		return 2
	default:
		return 3
	}
}

var mfgLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02", "2006-01", "2006"}

// parseMfgDate accepts ISO dates with or without a time part. Date-only
// values are taken as UTC midnight.
func parseMfgDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range mfgLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
