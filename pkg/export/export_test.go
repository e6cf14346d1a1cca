package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tripstats/core/model"
)

func sampleResult() *model.Result {
	return &model.Result{
		Monthly: []model.MonthlyBucket{
			{Month: "202501", Label: "Enero 2025", Trips: 2, Km: 30.5, KWh: 4.5, Efficiency: 14.754},
			{Month: "unknown", Label: "unknown", Trips: 1, Km: 3},
		},
		Daily: []model.DailyBucket{
			{Date: "20250102", Label: "02/01/2025", Trips: 2, Km: 30.5, KWh: 4.5},
		},
	}
}

func TestWriteCSVMonthly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResult(), SeriesMonthly))
	want := "month,label,trips,km,kwh,fuel,efficiency,fuel_efficiency\n" +
		"202501,Enero 2025,2,30.5,4.5,0,14.754,0\n" +
		"unknown,unknown,1,3,0,0,0,0\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVDaily(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResult(), SeriesDaily))
	want := "date,label,trips,km,kwh,fuel,efficiency,fuel_efficiency\n" +
		"20250102,02/01/2025,2,30.5,4.5,0,0,0\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVNilAndUnknown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, ""))
	assert.Equal(t, "month,label,trips,km,kwh,fuel,efficiency,fuel_efficiency\n", buf.String())
	assert.Error(t, WriteCSV(&buf, nil, "hourly"))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleResult()))
	var back model.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "Enero 2025", back.Monthly[0].Label)

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, (*model.Result)(nil)))
	assert.Equal(t, "null\n", buf.String())
}
