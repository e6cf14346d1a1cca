package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tripsJSON = `[
	{"date":"20250110","month":"202501","trip":20,"electricity":3,"duration":1800},
	{"date":"20250111","month":"202501","trip":10,"electricity":2,"duration":900},
	null
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestComputeJSON(t *testing.T) {
	trips := writeFile(t, "trips.json", tripsJSON)
	settings := writeFile(t, "settings.yaml", "electricPrice: 0.2\n")

	out, err := execute(t, "compute", "--trips", trips, "--settings", settings, "--format", "json", "--locale", "en")
	require.NoError(t, err)

	var res struct {
		Summary struct {
			TotalTrips int    `json:"totalTrips"`
			TotalKm    string `json:"totalKm"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Summary.TotalTrips)
	assert.Equal(t, "30.0", res.Summary.TotalKm)
}

func TestComputeCSV(t *testing.T) {
	trips := writeFile(t, "trips.json", tripsJSON)

	out, err := execute(t, "compute", "--trips", trips, "--settings", "", "--format", "csv", "--series", "monthly")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[0], "month,label,trips"))
}

func TestComputeRejectsUnknownFormat(t *testing.T) {
	trips := writeFile(t, "trips.json", tripsJSON)
	_, err := execute(t, "compute", "--trips", trips, "--settings", "", "--format", "xml")
	assert.Error(t, err)
}

func TestSoC(t *testing.T) {
	out, err := execute(t, "soc", "--prev-odometer", "1000", "--prev-soc", "80", "--odometer", "1100", "--efficiency", "15", "--battery", "60")
	require.NoError(t, err)
	var res map[string]float64
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 55.0, res["soc"])
}

func TestSoCNotEstimable(t *testing.T) {
	_, err := execute(t, "soc", "--prev-odometer", "1000", "--prev-soc", "80", "--odometer", "900", "--efficiency", "15", "--battery", "60")
	assert.Error(t, err)
}

func TestSoHBaseline(t *testing.T) {
	charges := writeFile(t, "charges.json", `[]`)
	out, err := execute(t, "soh", "--charges", charges, "--settings", "")
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 100.0, res["estimated_soh"])
}

func TestInsight(t *testing.T) {
	trips := writeFile(t, "trips.json", tripsJSON)
	out, err := execute(t, "trip", "--trips", trips, "--index", "0", "--settings", "")
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 10.0, res["score"])
	assert.Equal(t, "30 min", res["duration"])

	_, err = execute(t, "trip", "--trips", trips, "--index", "2", "--settings", "")
	assert.Error(t, err)
	_, err = execute(t, "trip", "--trips", trips, "--index", "7", "--settings", "")
	assert.Error(t, err)
}
