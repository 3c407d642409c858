// Package traveltime estimates seismic P-wave travel times from great-circle
// distances under an assumed constant wave speed.
//
// Every function here is pure: no I/O, no logging, no shared state.
package traveltime

import (
	"fmt"
	"math"

	"github.com/samirrijal/iberseis/internal/core/domain"
)

const (
	// EarthRadiusKm is the mean radius of the spherical Earth model.
	EarthRadiusKm = 6371.0

	// DefaultSpeedKmS is the assumed crustal P-wave speed.
	DefaultSpeedKmS = 7.0
)

// HaversineDistanceKm returns the great-circle distance between a and b in kilometers.
// Inputs are not range-checked; any finite pair of points yields a number.
func HaversineDistanceKm(a, b domain.GeoPoint) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := lat2 - lat1
	dLon := toRad(b.Lon) - toRad(a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	// h can overshoot 1 by an ulp for near-antipodal points.
	h = math.Max(0, math.Min(1, h))

	c := 2 * math.Asin(math.Sqrt(h))
	return c * EarthRadiusKm
}

// Estimate computes the distance from eq to sta and the time a wave travelling
// at speedKmS needs to cover it.
func Estimate(eq, sta domain.GeoPoint, speedKmS float64) (domain.TravelTimeEstimate, error) {
	if math.IsNaN(speedKmS) || math.IsInf(speedKmS, 0) || speedKmS <= 0 {
		return domain.TravelTimeEstimate{}, fmt.Errorf("%w: %g km/s must be positive", domain.ErrInvalidSpeed, speedKmS)
	}
	if err := eq.Validate(); err != nil {
		return domain.TravelTimeEstimate{}, fmt.Errorf("earthquake: %w", err)
	}
	if err := sta.Validate(); err != nil {
		return domain.TravelTimeEstimate{}, fmt.Errorf("station: %w", err)
	}

	dist := HaversineDistanceKm(eq, sta)
	secs := dist / speedKmS

	return domain.TravelTimeEstimate{
		DistanceKm:       Round2(dist),
		TravelTimeSec:    Round2(secs),
		SpeedKmS:         speedKmS,
		RawDistanceKm:    dist,
		RawTravelTimeSec: secs,
	}, nil
}

// EstimateDefault is Estimate at DefaultSpeedKmS.
func EstimateDefault(eq, sta domain.GeoPoint) (domain.TravelTimeEstimate, error) {
	return Estimate(eq, sta, DefaultSpeedKmS)
}

// Round2 rounds x to two decimal places, half away from zero. Exactly
// representable halves round up in magnitude (0.125 -> 0.13), unlike
// round-half-to-even.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
