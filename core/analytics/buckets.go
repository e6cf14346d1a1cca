package analytics

import (
	"slices"
	"strings"

	"github.com/kilianp07/tripstats/core/model"
)

// unknownKey groups trips without a month or date.
const unknownKey = "unknown"

// bucketMap is an insertion-independent ordered map of buckets. Values are
// emitted sorted by key with a byte-wise comparison, so YYYYMM and YYYYMMDD
// keys come out chronologically.
type bucketMap[B any] struct {
	index map[string]int
	keys  []string
	vals  []B
}

func newBucketMap[B any]() *bucketMap[B] {
	return &bucketMap[B]{index: make(map[string]int)}
}

// at returns the bucket for key, creating it with init on first use.
func (m *bucketMap[B]) at(key string, init func(key string) B) *B {
	if i, ok := m.index[key]; ok {
		return &m.vals[i]
	}
	m.index[key] = len(m.vals)
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, init(key))
	return &m.vals[len(m.vals)-1]
}

// sorted returns the buckets ordered by key.
func (m *bucketMap[B]) sorted() []B {
	order := make([]int, len(m.vals))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int { return strings.Compare(m.keys[a], m.keys[b]) })
	out := make([]B, len(order))
	for i, idx := range order {
		out[i] = m.vals[idx]
	}
	return out
}

func keyOr(s string) string {
	if s == "" {
		return unknownKey
	}
	return s
}

var weekdays = [7]string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// distance ranges, upper bounds inclusive
var distRanges = [5]struct {
	label string
	upper float64
	color string
}{
	{"0-5", 5, "#06b6d4"},
	{"5-15", 15, "#10b981"},
	{"15-30", 30, "#f59e0b"},
	{"30-50", 50, "#EA0029"},
	{"50+", 0, "#8b5cf6"},
}

func distIndex(km float64) int {
	for i, r := range distRanges[:4] {
		if km <= r.upper {
			return i
		}
	}
	return 4
}

func emptyHourly() [24]model.HourlyBucket {
	var h [24]model.HourlyBucket
	for i := range h {
		h[i].Hour = i
	}
	return h
}

func emptyWeekday() [7]model.WeekdayBucket {
	var w [7]model.WeekdayBucket
	for i := range w {
		w[i].Day = weekdays[i]
	}
	return w
}

func emptyDistribution() [5]model.DistributionBucket {
	var d [5]model.DistributionBucket
	for i, r := range distRanges {
		d[i] = model.DistributionBucket{Range: r.label, Color: r.color}
	}
	return d
}

// per100 returns num/km*100, or 0 without distance.
func per100(num, km float64) float64 {
	if km <= 0 {
		return 0
	}
	return num / km * 100
}
