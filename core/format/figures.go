package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kilianp07/tripstats/core/model"
)

// Fixed renders v with the given decimals, rounding exact halves away from
// zero. Non-finite values render as "0" and negative zero loses its sign.
func Fixed(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	s := roundHalfUp(math.Abs(v), decimals)
	if v < 0 && strings.Trim(s, "0.") != "" {
		return "-" + s
	}
	return s
}

// roundHalfUp formats a non-negative x. strconv rounds exact binary ties to
// even, so those are detected on the exact decimal expansion and bumped up.
func roundHalfUp(x float64, decimals int) string {
	s := strconv.FormatFloat(x, 'f', decimals, 64)
	short := strconv.FormatFloat(x, 'f', -1, 64)
	dot := strings.IndexByte(short, '.')
	if dot < 0 || len(short)-dot-1 != decimals+1 || short[len(short)-1] != '5' {
		return s
	}
	if exact := strings.TrimRight(strconv.FormatFloat(x, 'f', 1100, 64), "0"); exact != short {
		return s
	}
	return increment(strings.TrimSuffix(short[:len(short)-1], "."))
}

// increment adds one unit in the last place of a decimal digit string.
func increment(s string) string {
	b := []byte(s)
	for i := len(b) - 1; i >= 0; i-- {
		switch {
		case b[i] == '.':
			continue
		case b[i] == '9':
			b[i] = '0'
		default:
			b[i]++
			return string(b)
		}
	}
	return "1" + string(b)
}

// Duration renders seconds as "1h 5min" or "12 min".
func Duration(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) {
		return "0 min"
	}
	hours := int(seconds / 3600)
	minutes := int(math.Mod(seconds, 3600) / 60)
	if hours > 0 {
		return fmt.Sprintf("%dh %dmin", hours, minutes)
	}
	return fmt.Sprintf("%d min", minutes)
}

// Score maps an efficiency onto 0 (worst, maxEff) to 10 (best, minEff).
// It returns 5 when there is nothing to compare against.
func Score(efficiency, minEff, maxEff float64) float64 {
	if efficiency == 0 || maxEff == minEff {
		return 5
	}
	normalized := (maxEff - efficiency) / (maxEff - minEff)
	return math.Max(0, math.Min(10, normalized*10))
}

// Percentile returns the share, 0 to 100, of comparable trips that were more
// efficient than t. Trips under 1 km or without energy are not comparable.
// It returns 50 when no trip is comparable.
func Percentile(t model.Trip, all []model.Trip) float64 {
	eff := 999.0
	if t.Km() > 0 {
		eff = t.KWh() / t.Km() * 100
	}
	var comparable, better int
	for _, o := range all {
		if o.Km() < 1 || o.KWh() == 0 {
			continue
		}
		comparable++
		if o.KWh()/o.Km()*100 < eff {
			better++
		}
	}
	if comparable == 0 {
		return 50
	}
	return math.Round(float64(better) / float64(comparable) * 100)
}
