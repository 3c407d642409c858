package geospatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundingBox_Equator(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(0, 0, kmPerDegreeLat)

	assert.InDelta(t, -1, minLat, 1e-9)
	assert.InDelta(t, 1, maxLat, 1e-9)
	assert.Less(t, minLon, -1.0)
	assert.Greater(t, maxLon, 1.0)
}

func TestBoundingBox_WidensWithLatitude(t *testing.T) {
	_, minLonLow, _, maxLonLow := BoundingBox(10, 0, 100)
	_, minLonHigh, _, maxLonHigh := BoundingBox(60, 0, 100)

	assert.Greater(t, maxLonHigh-minLonHigh, maxLonLow-minLonLow)
}

func TestBoundingBox_ClampsAtPole(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(89.5, 10, 200)

	assert.Equal(t, 90.0, maxLat)
	assert.Less(t, minLat, 89.5)
	assert.Equal(t, -180.0, minLon)
	assert.Equal(t, 180.0, maxLon)
}

func TestBoundingBox_Antimeridian(t *testing.T) {
	_, minLon, _, maxLon := BoundingBox(0, 179.9, 50)

	assert.Equal(t, -180.0, minLon)
	assert.Equal(t, 180.0, maxLon)
}
