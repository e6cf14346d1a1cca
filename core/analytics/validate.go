package analytics

import "github.com/kilianp07/tripstats/core/model"

// Validate keeps the trips carrying a usable distance and returns deep copies
// of them together with the number of rejected entries. Rejection is not an
// error: callers may log the count but must not fail on it.
func Validate(trips []*model.Trip) ([]model.Trip, int) {
	valid := make([]model.Trip, 0, len(trips))
	for _, t := range trips {
		if !t.Valid() {
			continue
		}
		valid = append(valid, t.Clone())
	}
	return valid, len(trips) - len(valid)
}
