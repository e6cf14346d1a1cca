// Package export renders computation results for files and terminals.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/kilianp07/tripstats/core/model"
)

// Series names accepted by WriteCSV.
const (
	SeriesMonthly = "monthly"
	SeriesDaily   = "daily"
)

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteCSV writes one time series of res to w. A nil result writes only the
// header.
func WriteCSV(w io.Writer, res *model.Result, series string) error {
	switch series {
	case SeriesMonthly, "":
		var rows []model.MonthlyBucket
		if res != nil {
			rows = res.Monthly
		}
		return writeMonthly(w, rows)
	case SeriesDaily:
		var rows []model.DailyBucket
		if res != nil {
			rows = res.Daily
		}
		return writeDaily(w, rows)
	default:
		return fmt.Errorf("unknown series %q", series)
	}
}

var bucketHeader = []string{"trips", "km", "kwh", "fuel", "efficiency", "fuel_efficiency"}

func writeMonthly(w io.Writer, rows []model.MonthlyBucket) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"month", "label"}, bucketHeader...)); err != nil {
		return err
	}
	for _, b := range rows {
		rec := append([]string{b.Month, b.Label}, bucketFields(b.Trips, b.Km, b.KWh, b.Fuel, b.Efficiency, b.FuelEfficiency)...)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeDaily(w io.Writer, rows []model.DailyBucket) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"date", "label"}, bucketHeader...)); err != nil {
		return err
	}
	for _, b := range rows {
		rec := append([]string{b.Date, b.Label}, bucketFields(b.Trips, b.Km, b.KWh, b.Fuel, b.Efficiency, b.FuelEfficiency)...)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func bucketFields(trips int, values ...float64) []string {
	out := make([]string, 0, len(values)+1)
	out = append(out, strconv.Itoa(trips))
	for _, v := range values {
		out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return out
}
