package domain

import (
	"time"
)

// TravelTimeEstimate is the result of a constant-velocity P-wave estimate.
// DistanceKm and TravelTimeSec are rounded to two decimals for presentation;
// the Raw fields keep full precision.
type TravelTimeEstimate struct {
	DistanceKm    float64 `json:"distance_km"`
	TravelTimeSec float64 `json:"travel_time_sec"`
	SpeedKmS      float64 `json:"assumed_speed_km_s"`

	RawDistanceKm    float64 `json:"-"`
	RawTravelTimeSec float64 `json:"-"`
}

// TravelTime returns the unrounded travel time as a duration.
func (e TravelTimeEstimate) TravelTime() time.Duration {
	return time.Duration(e.RawTravelTimeSec * float64(time.Second))
}

// Event is a seismic event as reported by an event catalog.
type Event struct {
	ID            string    `json:"id"`
	OriginTime    time.Time `json:"origin_time"`
	Location      GeoPoint  `json:"location"`
	DepthKm       float64   `json:"depth_km"`
	Magnitude     float64   `json:"magnitude"`
	MagnitudeType string    `json:"magnitude_type,omitempty"`
	Region        string    `json:"region,omitempty"`
	Catalog       string    `json:"catalog,omitempty"`
}

// Station is a seismic receiving station.
type Station struct {
	Network    string    `json:"network"`
	Code       string    `json:"code"`
	Name       string    `json:"name,omitempty"`
	Location   GeoPoint  `json:"location"`
	ElevationM float64   `json:"elevation_m"`
	Distance   *float64  `json:"distance_km,omitempty"` // computed field
	StartTime  time.Time `json:"start_time,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// ID returns the conventional NET.STA identifier.
func (s Station) ID() string {
	return s.Network + "." + s.Code
}

// ArrivalPrediction is an estimated P-wave arrival of an event at a station.
type ArrivalPrediction struct {
	EventID          string             `json:"event_id"`
	StationID        string             `json:"station_id"`
	StationLocation  GeoPoint           `json:"station_location"`
	Estimate         TravelTimeEstimate `json:"estimate"`
	OriginTime       time.Time          `json:"origin_time"`
	PredictedArrival time.Time          `json:"predicted_arrival"`
}

// WaveformWindow describes the waveform segment an analysis would request.
// It is metadata only; no waveform data is downloaded.
type WaveformWindow struct {
	Network   string    `json:"network"`
	Station   string    `json:"station"`
	Location  string    `json:"location"`
	Channel   string    `json:"channel"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	FreqMinHz float64   `json:"freq_min_hz"`
	FreqMaxHz float64   `json:"freq_max_hz"`
}

// AnalysisReport is the outcome of analysing one event against one station.
type AnalysisReport struct {
	RunID            string             `json:"run_id"`
	Event            Event              `json:"event"`
	Station          Station            `json:"station"`
	Estimate         TravelTimeEstimate `json:"estimate"`
	PredictedArrival time.Time          `json:"predicted_arrival"`
	Waveform         WaveformWindow     `json:"waveform"`
	CreatedAt        time.Time          `json:"created_at"`
}
