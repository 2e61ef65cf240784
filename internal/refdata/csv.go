package refdata

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/relay-cli/internal/model"
)

// CSVCities reads a gazetteer CSV with latitude, longitude, and label (or
// name) columns. Charset names a non-UTF-8 encoding such as iso-8859-1.
type CSVCities struct {
	Path    string
	Charset string
}

func (c CSVCities) Cities(_ context.Context) ([]model.CityCandidate, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, eris.Wrap(err, "csv cities: open")
	}
	defer f.Close() //nolint:errcheck

	var r io.Reader = f
	if c.Charset != "" {
		enc, err := htmlindex.Get(c.Charset)
		if err != nil {
			return nil, eris.Wrapf(err, "csv cities: unsupported charset %q", c.Charset)
		}
		r = enc.NewDecoder().Reader(f)
	}

	cities, skipped, err := parseCityCSV(r)
	if err != nil {
		return nil, err
	}
	zap.L().Info("csv cities loaded",
		zap.String("component", "refdata.csv"),
		zap.String("path", c.Path),
		zap.Int("cities", len(cities)),
		zap.Int("skipped", skipped),
	)
	return cities, nil
}

func parseCityCSV(r io.Reader) ([]model.CityCandidate, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, eris.Wrap(err, "csv cities: read header")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	latIdx, okLat := cols["latitude"]
	lonIdx, okLon := cols["longitude"]
	nameIdx, okName := cols["label"]
	if !okName {
		nameIdx, okName = cols["name"]
	}
	if !okLat || !okLon || !okName {
		return nil, 0, eris.New("csv cities: header needs latitude, longitude and label or name")
	}

	var (
		cities  []model.CityCandidate
		skipped int
	)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, eris.Wrap(err, "csv cities: read row")
		}
		city, ok := cityFromRecord(rec, latIdx, lonIdx, nameIdx)
		if !ok {
			skipped++
			continue
		}
		cities = append(cities, city)
	}

	out := normalizeCities(cities)
	return out, skipped + len(cities) - len(out), nil
}

func cityFromRecord(rec []string, latIdx, lonIdx, nameIdx int) (model.CityCandidate, bool) {
	if max(latIdx, lonIdx, nameIdx) >= len(rec) {
		return model.CityCandidate{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(rec[latIdx]), 64)
	if err != nil {
		return model.CityCandidate{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(rec[lonIdx]), 64)
	if err != nil {
		return model.CityCandidate{}, false
	}
	name := strings.TrimSpace(rec[nameIdx])
	if name == "" {
		return model.CityCandidate{}, false
	}
	return model.CityCandidate{Latitude: lat, Longitude: lon, Name: name}, true
}
