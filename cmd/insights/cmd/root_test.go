package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"taxi-insights-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tripsCSV = `tpep_pickup_datetime,tpep_dropoff_datetime,trip_distance,PULocationID,DOLocationID,fare_amount,tip_amount,total_amount
2024-01-08 08:00:00,2024-01-08 08:20:00,4,132,236,18,3,24
2024-01-08 08:30:00,2024-01-08 08:40:00,2,132,236,12,1,16
2024-01-13 22:00:00,2024-01-13 22:30:00,5,161,48,38,4,45
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trips.csv")
	require.NoError(t, os.WriteFile(path, []byte(tripsCSV), 0o644))

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(args, "--csv", path))
	err := root.Execute()
	return out.String(), err
}

func TestKPIsCommand(t *testing.T) {
	out, err := execute(t, "kpis")
	require.NoError(t, err)

	var got models.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, int64(3), got.TotalTrips)
	assert.Contains(t, out, "\n  \"avg_distance\"")
}

func TestFiltersApply(t *testing.T) {
	out, err := execute(t, "top-zones", "--day", "weekend")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"zone_id":161,"count":1}]`, out)
}

func TestPredictCommand(t *testing.T) {
	out, err := execute(t, "predict", "--from", "132", "--to", "236")
	require.NoError(t, err)

	var est models.Estimate
	require.NoError(t, json.Unmarshal([]byte(out), &est))
	assert.Equal(t, models.TierExactRoute, est.Type)
	assert.Equal(t, int64(2), est.Samples)
	assert.InDelta(t, 20.0, *est.PredictedPrice, 1e-9)
}

func TestPredictRejectsNonIntegerZones(t *testing.T) {
	_, err := execute(t, "predict", "--from", "abc", "--to", "236")
	assert.ErrorContains(t, err, "invalid input")
}

func TestAlertCommand(t *testing.T) {
	out, err := execute(t, "alert")
	require.NoError(t, err)
	assert.JSONEq(t, `{"day_num":1,"hour_num":8,"total_trips":2}`, out)

	out, err = execute(t, "alert", "--month", "6")
	require.NoError(t, err)
	assert.Equal(t, "null\n", out)
}

func TestDashboardCommand(t *testing.T) {
	out, err := execute(t, "dashboard", "--time", "morning")
	require.NoError(t, err)

	var d models.Dashboard
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	require.NotNil(t, d.KPIs)
	assert.Equal(t, int64(2), d.KPIs.TotalTrips)
	assert.Empty(t, d.Errors)
}
