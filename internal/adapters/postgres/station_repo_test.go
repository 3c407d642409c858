package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/iberseis/internal/core/domain"
)

func TestRankByDistance(t *testing.T) {
	center := domain.GeoPoint{Lat: 39.0, Lon: -9.0}
	stations := []domain.Station{
		{Network: "IU", Code: "PAB", Location: domain.GeoPoint{Lat: 39.5446, Lon: -4.3499}},
		{Network: "PM", Code: "PESTR", Location: domain.GeoPoint{Lat: 38.8672, Lon: -7.5902}},
		{Network: "PM", Code: "PVAQ", Location: domain.GeoPoint{Lat: 37.4037, Lon: -7.7173}},
		{Network: "G", Code: "SSB", Location: domain.GeoPoint{Lat: 45.279, Lon: 4.542}},
	}

	got := rankByDistance(center, stations, 450, 0)
	require.Len(t, got, 3)
	assert.Equal(t, "PM.PESTR", got[0].ID())
	assert.Equal(t, "PM.PVAQ", got[1].ID())
	assert.Equal(t, "IU.PAB", got[2].ID())

	for i := 1; i < len(got); i++ {
		require.NotNil(t, got[i].Distance)
		assert.GreaterOrEqual(t, *got[i].Distance, *got[i-1].Distance)
		assert.LessOrEqual(t, *got[i].Distance, 450.0)
	}
}

func TestRankByDistance_Limit(t *testing.T) {
	center := domain.GeoPoint{}
	stations := []domain.Station{
		{Code: "A", Location: domain.GeoPoint{Lon: 3}},
		{Code: "B", Location: domain.GeoPoint{Lon: 1}},
		{Code: "C", Location: domain.GeoPoint{Lon: 2}},
	}

	got := rankByDistance(center, stations, 1000, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Code)
	assert.Equal(t, "C", got[1].Code)
	assert.Equal(t, 111.19, *got[0].Distance)
}

func TestRankByDistance_DoesNotMutateInput(t *testing.T) {
	stations := []domain.Station{{Code: "A", Location: domain.GeoPoint{Lon: 1}}}
	_ = rankByDistance(domain.GeoPoint{}, stations, 500, 0)
	assert.Nil(t, stations[0].Distance)
}
