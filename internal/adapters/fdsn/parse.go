package fdsn

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samirrijal/iberseis/internal/core/domain"
)

// Time layouts seen in fdsnws text output. Some servers append Z, some don't.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseEvents reads fdsnws-event format=text:
//
//	#EventID|Time|Latitude|Longitude|Depth/km|Author|Catalog|Contributor|ContributorID|MagType|Magnitude|MagAuthor|EventLocationName
func parseEvents(body []byte) ([]domain.Event, error) {
	var events []domain.Event
	err := eachRecord(body, 13, func(line int, f []string) error {
		origin, err := parseTime(f[1])
		if err != nil {
			return fmt.Errorf("line %d: time: %w", line, err)
		}
		lat, lon, err := parseLatLon(f[2], f[3])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		depth, _ := parseOptionalFloat(f[4])
		mag, _ := parseOptionalFloat(f[10])

		events = append(events, domain.Event{
			ID:            f[0],
			OriginTime:    origin,
			Location:      domain.GeoPoint{Lat: lat, Lon: lon},
			DepthKm:       depth,
			Magnitude:     mag,
			MagnitudeType: f[9],
			Region:        f[12],
			Catalog:       f[6],
		})
		return nil
	})
	return events, err
}

// parseStations reads fdsnws-station level=station format=text:
//
//	#Network|Station|Latitude|Longitude|Elevation|SiteName|StartTime|EndTime
func parseStations(body []byte) ([]domain.Station, error) {
	var stations []domain.Station
	err := eachRecord(body, 7, func(line int, f []string) error {
		lat, lon, err := parseLatLon(f[2], f[3])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		elev, _ := parseOptionalFloat(f[4])
		start, _ := parseTime(f[6])

		stations = append(stations, domain.Station{
			Network:    f[0],
			Code:       f[1],
			Name:       f[5],
			Location:   domain.GeoPoint{Lat: lat, Lon: lon},
			ElevationM: elev,
			StartTime:  start,
		})
		return nil
	})
	return stations, err
}

// eachRecord calls fn for every non-comment line with at least minFields
// pipe-separated, trimmed fields.
func eachRecord(body []byte, minFields int, fn func(line int, fields []string) error) error {
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "|")
		if len(fields) < minFields {
			return fmt.Errorf("line %d: expected %d fields, got %d", line, minFields, len(fields))
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if err := fn(line, fields); err != nil {
			return err
		}
	}
	return sc.Err()
}

func parseLatLon(latStr, lonStr string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("latitude %q: %w", latStr, err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("longitude %q: %w", lonStr, err)
	}
	p := domain.GeoPoint{Lat: lat, Lon: lon}
	if err := p.Validate(); err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

func parseOptionalFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05")
}
