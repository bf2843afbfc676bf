package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"taxi-insights-api/models"
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

var requiredColumns = []string{
	"tpep_pickup_datetime",
	"tpep_dropoff_datetime",
	"trip_distance",
	"fare_amount",
	"tip_amount",
	"total_amount",
	"pulocationid",
	"dolocationid",
}

// ParseTrips reads trips from CSV with a header row naming the trips table
// columns (case-insensitive, in any order). Rows that fail to parse are
// skipped and counted.
func ParseTrips(r io.Reader) ([]models.Trip, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, 0, fmt.Errorf("CSV missing column %q", col)
		}
	}

	var (
		trips   []models.Trip
		skipped int
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			skipped++
			continue
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("read trips: %w", err)
		}
		trip, err := parseRow(row, idx)
		if err != nil {
			skipped++
			continue
		}
		trips = append(trips, trip)
	}
	return trips, skipped, nil
}

func parseRow(row []string, idx map[string]int) (models.Trip, error) {
	field := func(col string) (string, error) {
		i := idx[col]
		if i >= len(row) {
			return "", fmt.Errorf("row missing %s", col)
		}
		return strings.TrimSpace(row[i]), nil
	}
	num := func(col string) (float64, error) {
		v, err := field(col)
		if err != nil {
			return 0, err
		}
		return strconv.ParseFloat(v, 64)
	}
	ts := func(col string) (time.Time, error) {
		v, err := field(col)
		if err != nil {
			return time.Time{}, err
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("bad timestamp %q in %s", v, col)
	}

	var (
		t   models.Trip
		err error
	)
	if t.PickupAt, err = ts("tpep_pickup_datetime"); err != nil {
		return t, err
	}
	if t.DropoffAt, err = ts("tpep_dropoff_datetime"); err != nil {
		return t, err
	}
	if t.Distance, err = num("trip_distance"); err != nil {
		return t, err
	}
	if t.FareAmount, err = num("fare_amount"); err != nil {
		return t, err
	}
	if t.TipAmount, err = num("tip_amount"); err != nil {
		return t, err
	}
	if t.TotalAmount, err = num("total_amount"); err != nil {
		return t, err
	}
	pu, err := num("pulocationid")
	if err != nil {
		return t, err
	}
	do, err := num("dolocationid")
	if err != nil {
		return t, err
	}
	t.PickupZone, t.DropoffZone = int(pu), int(do)
	return t, nil
}

// LoadMemory builds a Memory store from a CSV file.
func LoadMemory(path string) (*Memory, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	trips, skipped, err := ParseTrips(f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	return NewMemory(trips), skipped, nil
}
