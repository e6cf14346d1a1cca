package model

// Strategy selects how a unit price is attributed to a trip.
type Strategy string

const (
	// StrategyCustom applies the configured fixed price.
	StrategyCustom Strategy = "custom"
	// StrategyAverage applies the average price of all recorded charges.
	StrategyAverage Strategy = "average"
	// StrategyDynamic applies the price of the latest charge before the trip.
	StrategyDynamic Strategy = "dynamic"
)

// SoHMode selects where the State-of-Health used for range estimates comes from.
type SoHMode string

const (
	SoHManual     SoHMode = "manual"
	SoHCalculated SoHMode = "calculated"
)

// DefaultThermalStress is the neutral thermal multiplier.
const DefaultThermalStress = 1.0

// Settings carries pricing and battery parameters for one computation.
// It only holds primitives and slices so it can cross a process boundary as JSON.
type Settings struct {
	ElectricStrategy Strategy `json:"electricStrategy,omitempty" yaml:"electricStrategy"`
	FuelStrategy     Strategy `json:"fuelStrategy,omitempty" yaml:"fuelStrategy"`
	// PriceStrategy is the legacy single strategy, honoured for electricity
	// when ElectricStrategy is empty.
	PriceStrategy Strategy `json:"priceStrategy,omitempty" yaml:"priceStrategy"`
	ElectricPrice float64  `json:"electricPrice,omitempty" yaml:"electricPrice"`
	FuelPrice     float64  `json:"fuelPrice,omitempty" yaml:"fuelPrice"`

	BatterySize         float64       `json:"batterySize,omitempty" yaml:"batterySize"`
	SoH                 *float64      `json:"soh,omitempty" yaml:"soh"`
	SoHMode             SoHMode       `json:"sohMode,omitempty" yaml:"sohMode"`
	MfgDate             string        `json:"mfgDate,omitempty" yaml:"mfgDate"`
	ThermalStressFactor float64       `json:"thermalStressFactor,omitempty" yaml:"thermalStressFactor"`
	ChargerTypes        []ChargerType `json:"chargerTypes,omitempty" yaml:"chargerTypes"`
	Locale              string        `json:"locale,omitempty" yaml:"locale"`
}

// ElectricMode returns the effective electricity strategy.
func (s Settings) ElectricMode() Strategy {
	switch {
	case s.ElectricStrategy != "":
		return s.ElectricStrategy
	case s.PriceStrategy != "":
		return s.PriceStrategy
	default:
		return StrategyCustom
	}
}

// FuelMode returns the effective fuel strategy.
func (s Settings) FuelMode() Strategy {
	if s.FuelStrategy == "" {
		return StrategyCustom
	}
	return s.FuelStrategy
}

// ManualSoH returns the configured SoH, 100 when unset.
func (s Settings) ManualSoH() float64 {
	if s.SoH == nil || *s.SoH == 0 {
		return 100
	}
	return Num(s.SoH)
}

// Thermal returns the thermal stress multiplier, defaulting to 1.
func (s Settings) Thermal() float64 {
	if s.ThermalStressFactor == 0 {
		return DefaultThermalStress
	}
	return s.ThermalStressFactor
}

// WithDefaults fills empty fields of s from def.
func (s Settings) WithDefaults(def Settings) Settings {
	if s.ElectricStrategy == "" && s.PriceStrategy == "" {
		s.ElectricStrategy = def.ElectricStrategy
	}
	if s.FuelStrategy == "" {
		s.FuelStrategy = def.FuelStrategy
	}
	if s.ElectricPrice == 0 {
		s.ElectricPrice = def.ElectricPrice
	}
	if s.FuelPrice == 0 {
		s.FuelPrice = def.FuelPrice
	}
	if s.BatterySize == 0 {
		s.BatterySize = def.BatterySize
	}
	if s.SoH == nil {
		s.SoH = def.SoH
	}
	if s.SoHMode == "" {
		s.SoHMode = def.SoHMode
	}
	if s.MfgDate == "" {
		s.MfgDate = def.MfgDate
	}
	if s.ThermalStressFactor == 0 {
		s.ThermalStressFactor = def.ThermalStressFactor
	}
	if len(s.ChargerTypes) == 0 {
		s.ChargerTypes = def.ChargerTypes
	}
	if s.Locale == "" {
		s.Locale = def.Locale
	}
	return s
}
