package model

// MonthlyBucket aggregates active trips of one calendar month.
type MonthlyBucket struct {
	Month          string  `json:"month"` // YYYYMM or "unknown"
	Trips          int     `json:"trips"`
	Km             float64 `json:"km"`
	KWh            float64 `json:"kwh"`
	Fuel           float64 `json:"fuel"`
	Efficiency     float64 `json:"efficiency"`     // kWh/100km
	FuelEfficiency float64 `json:"fuelEfficiency"` // L/100km
	Label          string  `json:"monthLabel"`
}

// DailyBucket aggregates active trips of one calendar day.
type DailyBucket struct {
	Date           string  `json:"date"` // YYYYMMDD or "unknown"
	Trips          int     `json:"trips"`
	Km             float64 `json:"km"`
	KWh            float64 `json:"kwh"`
	Fuel           float64 `json:"fuel"`
	Efficiency     float64 `json:"efficiency"`
	FuelEfficiency float64 `json:"fuelEfficiency"`
	Label          string  `json:"dateLabel"`
}

// HourlyBucket counts trips started in one local hour of the day.
type HourlyBucket struct {
	Hour  int     `json:"hour"`
	Trips int     `json:"trips"`
	Km    float64 `json:"km"`
}

// WeekdayBucket counts trips started on one weekday, Monday first.
type WeekdayBucket struct {
	Day   string  `json:"day"`
	Trips int     `json:"trips"`
	Km    float64 `json:"km"`
}

// DistributionBucket counts trips in one distance range.
type DistributionBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

// ScatterPoint pairs a trip distance with its efficiency.
type ScatterPoint struct {
	X    float64 `json:"x"` // km
	Y    float64 `json:"y"` // kWh/100km
	Fuel float64 `json:"fuel"`
}

// TopRecords holds the longest, most consuming and longest-lasting trips.
type TopRecords struct {
	Km   []PricedTrip `json:"km"`
	KWh  []PricedTrip `json:"kwh"`
	Dur  []PricedTrip `json:"dur"`
	Fuel []PricedTrip `json:"fuel"`
}

// Degradation splits the capacity loss, in percentage points, by cause.
type Degradation struct {
	SEI      float64 `json:"sei"`
	Cycle    float64 `json:"cycle"`
	Calendar float64 `json:"calendar"`
}

// SoHResult is the output of the battery health estimator.
type SoHResult struct {
	EstimatedSoH       float64     `json:"estimated_soh"`
	RealCycles         float64     `json:"real_cycles_count"`
	StressScore        float64     `json:"stress_score"`
	ChargingStress     float64     `json:"charging_stress"`
	ThermalStress      float64     `json:"thermal_stress"`
	CalibrationWarning bool        `json:"calibration_warning"`
	Degradation        Degradation `json:"degradation"`
}

// Summary is the presentation-ready aggregate. Decimal figures are
// pre-formatted strings so every consumer renders the same digits.
type Summary struct {
	TotalTrips            int    `json:"totalTrips"`
	TotalKm               string `json:"totalKm"`
	TotalKWh              string `json:"totalKwh"`
	DrivingKWh            string `json:"drivingKwh"`
	StationaryConsumption string `json:"stationaryConsumption"`
	TotalHours            string `json:"totalHours"`
	AvgEff                string `json:"avgEff"`
	EstimatedRange        string `json:"estimatedRange"`
	EstimatedRangeHighway string `json:"estimatedRangeHighway"`
	EstimatedRangeCity    string `json:"estimatedRangeCity"`
	AvgKm                 string `json:"avgKm"`
	AvgMin                string `json:"avgMin"`
	AvgSpeed              string `json:"avgSpeed"`
	DaysActive            int    `json:"daysActive"`
	TotalDays             int    `json:"totalDays"`
	DateRange             string `json:"dateRange"`
	MaxKm                 string `json:"maxKm"`
	MinKm                 string `json:"minKm"`
	MaxKWh                string `json:"maxKwh"`
	MaxMin                string `json:"maxMin"`
	TripsDay              string `json:"tripsDay"`
	KmDay                 string `json:"kmDay"`
	IsHybrid              bool   `json:"isHybrid"`
	TotalFuel             string `json:"totalFuel"`
	AvgFuelEff            string `json:"avgFuelEff"`
	ElectricPercentage    string `json:"electricPercentage"`
	FuelPercentage        string `json:"fuelPercentage"`
	ElectricOnlyTrips     int    `json:"electricOnlyTrips"`
	FuelUsedTrips         int    `json:"fuelUsedTrips"`
	EVModeUsage           string `json:"evModeUsage"`
	MaxFuel               string `json:"maxFuel"`
	MaxCost               string `json:"maxCost"`
	MaxCostDate           string `json:"maxCostDate"`

	SoH     float64    `json:"soh"`
	SoHData *SoHResult `json:"sohData"`
}

// Result is everything one computation produces.
type Result struct {
	Summary    Summary              `json:"summary"`
	Monthly    []MonthlyBucket      `json:"monthly"`
	Daily      []DailyBucket        `json:"daily"`
	Hourly     []HourlyBucket       `json:"hourly"`
	Weekday    []WeekdayBucket      `json:"weekday"`
	TripDist   []DistributionBucket `json:"tripDist"`
	EffScatter []ScatterPoint       `json:"effScatter"`
	Top        TopRecords           `json:"top"`
	IsHybrid   bool                 `json:"isHybrid"`
}
