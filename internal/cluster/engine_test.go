package cluster

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/relay-cli/internal/distance"
	"github.com/sells-group/relay-cli/internal/model"
)

func cityA() model.CityCandidate {
	return model.CityCandidate{Latitude: 48.05, Longitude: 2.0, Name: "CityA"}
}

func decoys() []model.CityCandidate {
	return []model.CityCandidate{
		{Latitude: 43.2965, Longitude: 5.3698, Name: "Marseille"},
		{Latitude: 50.6292, Longitude: 3.0573, Name: "Lille"},
	}
}

// twoGroups builds two symmetric groups of five points centred on (45, 0)
// and (45, 4), plus cities at both centres, their midpoint, and a decoy.
func twoGroups() ([]model.DemandPoint, []model.CityCandidate) {
	var demand []model.DemandPoint
	for _, lon := range []float64{0, 4} {
		demand = append(demand,
			model.DemandPoint{Latitude: 45, Longitude: lon, Weight: 1},
			model.DemandPoint{Latitude: 45.1, Longitude: lon, Weight: 1},
			model.DemandPoint{Latitude: 44.9, Longitude: lon, Weight: 1},
			model.DemandPoint{Latitude: 45, Longitude: lon + 0.1, Weight: 1},
			model.DemandPoint{Latitude: 45, Longitude: lon - 0.1, Weight: 1},
		)
	}
	cities := []model.CityCandidate{
		{Latitude: 45, Longitude: 0, Name: "West"},
		{Latitude: 45, Longitude: 4, Name: "East"},
		{Latitude: 45, Longitude: 2, Name: "Mid"},
		{Latitude: 45, Longitude: -1, Name: "FarWest"},
	}
	return demand, cities
}

func isCity(c model.Centroid, cities []model.CityCandidate) bool {
	for _, city := range cities {
		if city.Latitude == c.Latitude && city.Longitude == c.Longitude && city.Name == c.Name {
			return true
		}
	}
	return false
}

func TestRun_SingleRelaySnapsToCityA(t *testing.T) {
	demand := []model.DemandPoint{
		{Latitude: 48.0, Longitude: 2.0, Weight: 1},
		{Latitude: 48.1, Longitude: 2.1, Weight: 2},
		{Latitude: 47.9, Longitude: 1.9, Weight: 1},
	}
	cities := append([]model.CityCandidate{cityA()}, decoys()...)

	for seed := int64(0); seed < 5; seed++ {
		res, err := New(distance.NewReference(), Config{K: 1, Seed: seed}).Run(context.Background(), demand, cities)
		require.NoError(t, err)
		require.Len(t, res.Centroids, 1)
		assert.Equal(t, model.CentroidFromCity(cityA()), res.Centroids[0])
		assert.Equal(t, StateConverged, res.State)
	}
}

func TestRun_KExceedsCandidates(t *testing.T) {
	demand, cities := twoGroups()

	res, err := New(distance.NewReference(), Config{K: len(cities) + 1}).Run(context.Background(), demand, cities)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, eris.Is(err, ErrInvalidConfiguration))
}

func TestRun_KExceedsDistinctCandidates(t *testing.T) {
	demand := []model.DemandPoint{{Latitude: 48, Longitude: 2, Weight: 1}}
	cities := []model.CityCandidate{
		cityA(),
		{Latitude: 48.05, Longitude: 2.0, Name: "CityA-bis"},
	}

	_, err := New(distance.NewReference(), Config{K: 2}).Run(context.Background(), demand, cities)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidConfiguration))
}

func TestRun_DuplicateCandidatesNeverRepeatRelays(t *testing.T) {
	demand, cities := twoGroups()
	cities = append(cities, model.CityCandidate{Latitude: 45, Longitude: 0, Name: "West-bis"})

	for seed := int64(0); seed < 20; seed++ {
		res, err := New(distance.NewReference(), Config{K: 4, Seed: seed}).Run(context.Background(), demand, cities)
		require.NoError(t, err)
		seen := map[model.Coord]bool{}
		for _, c := range res.Centroids {
			assert.False(t, seen[c.Coord()], "seed %d repeats %+v", seed, c)
			assert.NotEqual(t, "West-bis", c.Name)
			seen[c.Coord()] = true
		}
	}
}

func TestRun_KBelowOne(t *testing.T) {
	demand, cities := twoGroups()

	_, err := New(distance.NewReference(), Config{K: 0}).Run(context.Background(), demand, cities)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidConfiguration))
}

func TestRun_NoDemand(t *testing.T) {
	_, cities := twoGroups()

	_, err := New(distance.NewReference(), Config{K: 2}).Run(context.Background(), nil, cities)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoDemandInRegion))
}

func TestRun_NegativeWeight(t *testing.T) {
	demand, cities := twoGroups()
	demand[3].Weight = -1

	_, err := New(distance.NewReference(), Config{K: 2}).Run(context.Background(), demand, cities)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidConfiguration))
}

func TestRun_Deterministic(t *testing.T) {
	demand, cities := twoGroups()
	e := New(distance.NewParallel(4), Config{K: 2, Seed: 7})

	first, err := e.Run(context.Background(), demand, cities)
	require.NoError(t, err)
	for range 5 {
		again, err := e.Run(context.Background(), demand, cities)
		require.NoError(t, err)
		assert.Equal(t, first.Centroids, again.Centroids)
		assert.Equal(t, first.Assignment, again.Assignment)
	}
}

func TestRun_CardinalityAndSnapping(t *testing.T) {
	demand, cities := twoGroups()

	for k := 1; k <= len(cities); k++ {
		for seed := int64(0); seed < 10; seed++ {
			res, err := New(distance.NewReference(), Config{K: k, Seed: seed}).Run(context.Background(), demand, cities)
			require.NoError(t, err)
			require.Len(t, res.Centroids, k)
			require.Len(t, res.Assignment, len(demand))
			for _, c := range res.Centroids {
				assert.True(t, isCity(c, cities), "centroid %+v is not a city", c)
				assert.False(t, math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude))
			}
		}
	}
}

func TestRun_FindsBothGroups(t *testing.T) {
	demand, cities := twoGroups()

	for seed := int64(0); seed < 20; seed++ {
		res, err := New(distance.NewReference(), Config{K: 2, Seed: seed}).Run(context.Background(), demand, cities)
		require.NoError(t, err)
		names := []string{res.Centroids[0].Name, res.Centroids[1].Name}
		assert.ElementsMatch(t, []string{"West", "East"}, names, "seed %d", seed)
		assert.Equal(t, StateConverged, res.State)
	}
}

func TestRun_MonotonicCost(t *testing.T) {
	demand, cities := twoGroups()

	for seed := int64(0); seed < 20; seed++ {
		res, err := New(distance.NewReference(), Config{K: 2, Seed: seed}).Run(context.Background(), demand, cities)
		require.NoError(t, err)
		for n := 1; n < len(res.Costs); n++ {
			assert.LessOrEqual(t, res.Costs[n], res.Costs[n-1]+1e-9, "seed %d iteration %d", seed, n)
		}
	}
}

func TestRun_EmptyClusterKeepsCentroid(t *testing.T) {
	// All demand sits on West; whichever second city is drawn receives no
	// points and must survive unchanged.
	demand := []model.DemandPoint{
		{Latitude: 45, Longitude: 0, Weight: 1},
		{Latitude: 45.01, Longitude: 0, Weight: 3},
	}
	_, cities := twoGroups()

	for seed := int64(0); seed < 10; seed++ {
		e := New(distance.NewReference(), Config{K: 2, Seed: seed})
		initial := initialCentroids(cities, 2, seed)

		res, err := e.Run(context.Background(), demand, cities)
		require.NoError(t, err)
		require.Len(t, res.Centroids, 2)

		for j, c := range res.Centroids {
			assert.False(t, math.IsNaN(c.Latitude))
			used := false
			for _, a := range res.Assignment {
				if a == j {
					used = true
				}
			}
			if !used {
				assert.Equal(t, initial[j], c, "seed %d slot %d", seed, j)
			}
		}
	}
}

func TestRun_ZeroWeightDoesNotDragCentroid(t *testing.T) {
	demand := []model.DemandPoint{
		{Latitude: 48.0, Longitude: 2.0, Weight: 1},
		{Latitude: 48.1, Longitude: 2.1, Weight: 2},
		{Latitude: 47.9, Longitude: 1.9, Weight: 1},
		{Latitude: 43.3, Longitude: 5.37, Weight: 0},
	}
	cities := append([]model.CityCandidate{cityA()}, decoys()...)

	res, err := New(distance.NewReference(), Config{K: 1, Seed: 3}).Run(context.Background(), demand, cities)
	require.NoError(t, err)
	assert.Equal(t, "CityA", res.Centroids[0].Name)
}

func TestRun_ExhaustedIsNotAnError(t *testing.T) {
	demand, cities := twoGroups()

	// One iteration can never observe an unchanged assignment.
	res, err := New(distance.NewReference(), Config{K: 2, Seed: 1, MaxIterations: 1}).Run(context.Background(), demand, cities)
	require.NoError(t, err)
	assert.Equal(t, StateExhausted, res.State)
	assert.Equal(t, 1, res.Iterations)
	assert.Len(t, res.Centroids, 2)
}

func TestRun_FinalCostMatchesReturnedCentroids(t *testing.T) {
	demand := []model.DemandPoint{
		{Latitude: 48.0, Longitude: 2.0, Weight: 1},
		{Latitude: 48.1, Longitude: 2.1, Weight: 2},
		{Latitude: 47.9, Longitude: 1.9, Weight: 1},
	}
	cities := append([]model.CityCandidate{cityA()}, decoys()...)

	var want float64
	for _, d := range demand {
		want += d.Weight * distance.Haversine(d.Coord(), cityA().Coord())
	}

	for seed := int64(0); seed < 10; seed++ {
		res, err := New(distance.NewReference(), Config{K: 1, Seed: seed, MaxIterations: 1}).Run(context.Background(), demand, cities)
		require.NoError(t, err)
		assert.Equal(t, StateExhausted, res.State)
		require.Equal(t, "CityA", res.Centroids[0].Name)
		assert.InDelta(t, want, res.FinalCost, 1e-9, "seed %d", seed)
		assert.Equal(t, []int{0, 0, 0}, res.Assignment)
	}
}

func TestRun_Cancelled(t *testing.T) {
	demand, cities := twoGroups()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(distance.NewReference(), Config{K: 2}).Run(ctx, demand, cities)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

type brokenEngine struct{}

func (brokenEngine) Name() string { return "broken" }

func (brokenEngine) WeightedDistances(context.Context, []model.DemandPoint, []model.Coord) (*distance.Matrix, error) {
	return nil, distance.ErrDistanceBackendFailure
}

func TestRun_DistanceFailurePropagates(t *testing.T) {
	demand, cities := twoGroups()

	_, err := New(brokenEngine{}, Config{K: 2}).Run(context.Background(), demand, cities)
	require.Error(t, err)
	assert.True(t, eris.Is(err, distance.ErrDistanceBackendFailure))
}

func TestNearestCity_TieBreak(t *testing.T) {
	cities := []model.CityCandidate{
		{Latitude: 0, Longitude: 1, Name: "east"},
		{Latitude: 0, Longitude: -1, Name: "west"},
	}
	assert.Equal(t, 0, NearestCity(model.Coord{}, cities))
	assert.Equal(t, 1, NearestCity(model.Coord{Longitude: -0.5}, cities))
	assert.Equal(t, -1, NearestCity(model.Coord{}, nil))
}

func TestInitialCentroids_Distinct(t *testing.T) {
	_, cities := twoGroups()
	for seed := int64(0); seed < 20; seed++ {
		cs := initialCentroids(cities, len(cities), seed)
		seen := map[string]bool{}
		for _, c := range cs {
			assert.False(t, seen[c.Name], "duplicate %s for seed %d", c.Name, seed)
			seen[c.Name] = true
		}
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateInitializing, "initializing"},
		{StateIterating, "iterating"},
		{StateConverged, "converged"},
		{StateExhausted, "exhausted"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
	assert.True(t, StateConverged.Terminal())
	assert.False(t, StateIterating.Terminal())
}
