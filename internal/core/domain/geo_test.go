package domain_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samirrijal/iberseis/internal/core/domain"
)

func TestGeoPoint_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       domain.GeoPoint
		wantErr bool
	}{
		{"origin", domain.GeoPoint{}, false},
		{"corners", domain.GeoPoint{Lat: -90, Lon: 180}, false},
		{"alenquer", domain.GeoPoint{Lat: 39.05, Lon: -9.01}, false},
		{"lat too high", domain.GeoPoint{Lat: 90.0001}, true},
		{"lon too low", domain.GeoPoint{Lon: -180.0001}, true},
		{"nan lat", domain.GeoPoint{Lat: math.NaN()}, true},
		{"inf lon", domain.GeoPoint{Lon: math.Inf(-1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidCoordinate)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBounds_Contains(t *testing.T) {
	b := domain.Bounds{MinLat: 36, MinLon: -10, MaxLat: 44, MaxLon: 4}

	assert.True(t, b.Contains(domain.GeoPoint{Lat: 40, Lon: -4.4}))
	assert.True(t, b.Contains(domain.GeoPoint{Lat: 36, Lon: -10}))
	assert.False(t, b.Contains(domain.GeoPoint{Lat: 48.8, Lon: 2.3}))
}

func TestStation_ID(t *testing.T) {
	s := domain.Station{Network: "IU", Code: "PAB"}
	assert.Equal(t, "IU.PAB", s.ID())
}

func TestParseBounds(t *testing.T) {
	b, err := domain.ParseBounds(" 36, -10, 44, 4.5 ")
	assert.NoError(t, err)
	assert.Equal(t, &domain.Bounds{MinLat: 36, MinLon: -10, MaxLat: 44, MaxLon: 4.5}, b)

	b, err = domain.ParseBounds("")
	assert.NoError(t, err)
	assert.Nil(t, b)

	for _, bad := range []string{"1,2,3", "a,0,1,1", "44,0,36,1", "0,-181,1,0"} {
		_, err := domain.ParseBounds(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidCoordinate, bad)
	}
}
