package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/iberseis/internal/core/domain"
)

// maxRadiusKm is half the Earth's circumference; any larger radius covers the globe.
const maxRadiusKm = 20038.0

// TravelTimeMetrics is the metrics block of a travel-time response.
type TravelTimeMetrics struct {
	DistanceKm                   float64 `json:"distance_km"`
	EstimatedPWaveArrivalSeconds float64 `json:"estimated_p_wave_arrival_seconds"`
	AssumedSpeedKmS              float64 `json:"assumed_speed_km_s"`
}

// TravelTimeResponse is the body of GET /v1/travel-time.
type TravelTimeResponse struct {
	EarthquakeCoordinates domain.GeoPoint   `json:"earthquake_coordinates"`
	StationCoordinates    domain.GeoPoint   `json:"station_coordinates"`
	Metrics               TravelTimeMetrics `json:"metrics"`
}

// StationTravelTimeResponse is a travel-time response for a catalogued station.
type StationTravelTimeResponse struct {
	Station *domain.Station `json:"station"`
	TravelTimeResponse
}

func newTravelTimeResponse(eq, sta domain.GeoPoint, est domain.TravelTimeEstimate) TravelTimeResponse {
	return TravelTimeResponse{
		EarthquakeCoordinates: eq,
		StationCoordinates:    sta,
		Metrics: TravelTimeMetrics{
			DistanceKm:                   est.DistanceKm,
			EstimatedPWaveArrivalSeconds: est.TravelTimeSec,
			AssumedSpeedKmS:              est.SpeedKmS,
		},
	}
}

// TravelTimeHandler estimates the P-wave travel time between two points.
func TravelTimeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		eq, err := queryPoint(c, "eq_lat", "eq_lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		sta, err := queryPoint(c, "sta_lat", "sta_lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		speed, err := querySpeed(c, deps.TravelTime.DefaultSpeed())
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		est, err := deps.TravelTime.EstimateWithSpeed(c.UserContext(), eq, sta, speed)
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Set("Cache-Control", "public, max-age=86400")
		return c.JSON(newTravelTimeResponse(eq, sta, est))
	}
}

// ListStationsHandler returns the station catalog, paginated and optionally
// filtered by network.
func ListStationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stations, err := deps.Stations.List(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}

		if network := strings.ToUpper(strings.TrimSpace(c.Query("network"))); network != "" {
			filtered := stations[:0:0]
			for _, st := range stations {
				if st.Network == network {
					filtered = append(filtered, st)
				}
			}
			stations = filtered
		}

		page := paginate(stations, pageFromQuery(c))
		SetLinkHeaders(c, page.Pagination)
		return c.JSON(page)
	}
}

// NearbyStationsHandler returns catalogued stations within radius_km of a point.
func NearbyStationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		center, err := queryPoint(c, "lat", "lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if err := center.Validate(); err != nil {
			return errBadRequest(c, err.Error())
		}
		radius := c.QueryFloat("radius_km", 500)
		if !(radius > 0) || radius > maxRadiusKm {
			return errBadRequest(c, fmt.Sprintf("radius_km must be between 0 and %.0f", maxRadiusKm))
		}
		limit := c.QueryInt("limit", 20)

		stations, err := deps.Stations.FindNearby(c.UserContext(), center, radius, limit)
		if err != nil {
			return errFromDomain(c, err)
		}
		if stations == nil {
			stations = []domain.Station{}
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(stations)
	}
}

// GetStationHandler returns a station by network and code.
func GetStationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := deps.Stations.Resolve(c.UserContext(), c.Params("network"), c.Params("code"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(st)
	}
}

// StationTravelTimeHandler estimates the travel time from an epicenter to a station.
func StationTravelTimeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		eq, err := queryPoint(c, "eq_lat", "eq_lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		speed, err := querySpeed(c, deps.TravelTime.DefaultSpeed())
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		st, err := deps.Stations.Resolve(c.UserContext(), c.Params("network"), c.Params("code"))
		if err != nil {
			return errFromDomain(c, err)
		}

		est, err := deps.TravelTime.EstimateWithSpeed(c.UserContext(), eq, st.Location, speed)
		if err != nil {
			return errFromDomain(c, err)
		}

		return c.JSON(StationTravelTimeResponse{
			Station:            st,
			TravelTimeResponse: newTravelTimeResponse(eq, st.Location, est),
		})
	}
}

// EventArrivalsHandler predicts P-wave arrivals of an event at every catalogued station.
func EventArrivalsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		loc, err := queryPoint(c, "eq_lat", "eq_lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if err := loc.Validate(); err != nil {
			return errBadRequest(c, err.Error())
		}

		speed, err := querySpeed(c, deps.TravelTime.DefaultSpeed())
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		origin := time.Now().UTC()
		if s := c.Query("origin_time"); s != "" {
			origin, err = time.Parse(time.RFC3339, s)
			if err != nil {
				return errBadRequest(c, "origin_time must be RFC 3339")
			}
		}

		event := &domain.Event{
			ID:         c.Query("event_id", "adhoc"),
			OriginTime: origin,
			Location:   loc,
		}
		preds, err := deps.Predictions.ArrivalsForEvent(c.UserContext(), event, speed)
		if err != nil {
			return errFromDomain(c, err)
		}
		if preds == nil {
			preds = []domain.ArrivalPrediction{}
		}
		return c.JSON(preds)
	}
}

// queryPoint parses two required float query parameters into a GeoPoint.
// Range checks are left to the estimator.
func queryPoint(c *fiber.Ctx, latKey, lonKey string) (domain.GeoPoint, error) {
	lat, err := requiredFloat(c, latKey)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	lon, err := requiredFloat(c, lonKey)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	return domain.GeoPoint{Lat: lat, Lon: lon}, nil
}

func requiredFloat(c *fiber.Ctx, key string) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, fmt.Errorf("%s query parameter is required", key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, raw)
	}
	return v, nil
}

// querySpeed returns the optional speed parameter, or def when absent.
func querySpeed(c *fiber.Ctx, def float64) (float64, error) {
	raw := c.Query("speed")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("speed must be a number, got %q", raw)
	}
	return v, nil
}
