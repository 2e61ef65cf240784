package main

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/relay-cli/internal/model"
)

// readDemandCSV reads demand points from a CSV with latitude and longitude
// columns and an optional weight column (default 1).
func readDemandCSV(path string) ([]model.DemandPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "demand: open")
	}
	defer f.Close() //nolint:errcheck
	return parseDemandCSV(f)
}

func parseDemandCSV(r io.Reader) ([]model.DemandPoint, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "demand: read header")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	latIdx, okLat := cols["latitude"]
	lonIdx, okLon := cols["longitude"]
	if !okLat || !okLon {
		return nil, eris.New("demand: header needs latitude and longitude")
	}
	weightIdx, hasWeight := cols["weight"]

	var points []model.DemandPoint
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "demand: read line %d", line)
		}

		p := model.DemandPoint{Weight: 1}
		if p.Latitude, err = parseField(rec, latIdx); err != nil {
			return nil, eris.Wrapf(err, "demand: line %d latitude", line)
		}
		if p.Longitude, err = parseField(rec, lonIdx); err != nil {
			return nil, eris.Wrapf(err, "demand: line %d longitude", line)
		}
		if hasWeight && weightIdx < len(rec) && strings.TrimSpace(rec[weightIdx]) != "" {
			if p.Weight, err = parseField(rec, weightIdx); err != nil {
				return nil, eris.Wrapf(err, "demand: line %d weight", line)
			}
		}
		points = append(points, p)
	}
	return points, nil
}

func parseField(rec []string, idx int) (float64, error) {
	if idx >= len(rec) {
		return 0, eris.New("missing column")
	}
	return strconv.ParseFloat(strings.TrimSpace(rec[idx]), 64)
}
