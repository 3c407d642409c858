package geospatial

import "math"

// kmPerDegreeLat is the length of one degree of latitude on a 6371 km sphere.
const kmPerDegreeLat = 111.19492664455873

// BoundingBox returns a box that contains every point within radiusKm of (lat, lon).
// Latitudes are clamped to the poles. When the box would cross the antimeridian
// or touch a pole, the full longitude range is returned.
func BoundingBox(lat, lon, radiusKm float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusKm / kmPerDegreeLat
	minLat = math.Max(-90, lat-latDelta)
	maxLat = math.Min(90, lat+latDelta)

	if minLat == -90 || maxLat == 90 {
		return minLat, -180, maxLat, 180
	}

	// Widest longitude span occurs at the latitude closest to a pole.
	widest := math.Max(math.Abs(minLat), math.Abs(maxLat))
	lonDelta := latDelta / math.Cos(toRad(widest))

	minLon = lon - lonDelta
	maxLon = lon + lonDelta
	if minLon < -180 || maxLon > 180 {
		return minLat, -180, maxLat, 180
	}
	return minLat, minLon, maxLat, maxLon
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
