package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/relay-cli/internal/model"
	"github.com/sells-group/relay-cli/internal/resilience"
)

// DefaultOverpassURL is the public Overpass interpreter.
const DefaultOverpassURL = "https://overpass-api.de/api/interpreter"

// OverpassCities queries OpenStreetMap for nodes tagged place=city inside a
// country.
type OverpassCities struct {
	URL     string
	Country string
	Client  *http.Client
	Limiter *rate.Limiter
	Retry   resilience.RetryConfig
}

// NewOverpassCities creates a source limited to rps requests per second.
func NewOverpassCities(endpoint, country string, rps float64) *OverpassCities {
	if endpoint == "" {
		endpoint = DefaultOverpassURL
	}
	if rps <= 0 {
		rps = 1
	}
	return &OverpassCities{
		URL:     endpoint,
		Country: country,
		Client:  &http.Client{Timeout: 120 * time.Second},
		Limiter: rate.NewLimiter(rate.Limit(rps), 1),
		Retry:   resilience.DefaultRetryConfig(),
	}
}

// Query returns the Overpass QL sent for the configured country.
func (o *OverpassCities) Query() string {
	return fmt.Sprintf("[out:json];area[name='%s'][admin_level=2];node[place=city](area);out body;", o.Country)
}

type overpassResponse struct {
	Elements []struct {
		Lat  *float64          `json:"lat"`
		Lon  *float64          `json:"lon"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

func (o *OverpassCities) Cities(ctx context.Context) ([]model.CityCandidate, error) {
	log := zap.L().With(zap.String("component", "refdata.overpass"), zap.String("country", o.Country))

	retry := o.Retry
	retry.OnRetry = resilience.RetryLogger("overpass", "cities")
	resp, err := resilience.DoVal(ctx, retry, o.fetch)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: fetch cities")
	}

	var cities []model.CityCandidate
	for _, e := range resp.Elements {
		name := e.Tags["name"]
		if e.Lat == nil || e.Lon == nil || name == "" {
			continue
		}
		cities = append(cities, model.CityCandidate{Latitude: *e.Lat, Longitude: *e.Lon, Name: name})
	}
	cities = normalizeCities(cities)

	log.Info("overpass cities fetched",
		zap.Int("elements", len(resp.Elements)),
		zap.Int("cities", len(cities)),
	)
	return cities, nil
}

func (o *OverpassCities) fetch(ctx context.Context) (*overpassResponse, error) {
	if o.Limiter != nil {
		if err := o.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.URL+"?data="+url.QueryEscape(o.Query()), nil)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: build request")
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, resilience.NewTransientError(eris.Wrap(err, "overpass: request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := resilience.CheckStatus(resp, "overpass"); err != nil {
		return nil, err
	}

	var out overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "overpass: decode response")
	}
	return &out, nil
}
