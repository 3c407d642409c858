package fdsn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/iberseis/internal/core/domain"
)

const eventsText = `#EventID | Time | Latitude | Longitude | Depth/km | Author | Catalog | Contributor | ContributorID | MagType | Magnitude | MagAuthor | EventLocationName
20240210_0000123|2024-02-10T13:45:12.3Z|39.02|-9.01|10.0|IPMA|EMSC-RTS|IPMA|1234|ML|3.1|IPMA|PORTUGAL

20240210_0000124|2024-02-10T13:46:00|36.10|-10.50||EMSC|EMSC-RTS|EMSC|1235|mb|4.6|EMSC|AZORES-CAPE ST. VINCENT RIDGE
`

const stationsText = `#Network | Station | Latitude | Longitude | Elevation | SiteName | StartTime | EndTime
IU|PAB|39.5446|-4.3499|950.0|San Pablo, Spain|1992-04-17T00:00:00|2010-01-01T00:00:00
IU|PAB|39.5446|-4.3499|950.0|San Pablo, Spain|2010-01-01T00:00:00|
PM|PESTR|38.8672|-7.5902|410.0|Estremoz, Portugal|2006-09-20T00:00:00|
`

func TestParseEvents(t *testing.T) {
	events, err := parseEvents([]byte(eventsText))
	require.NoError(t, err)
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "20240210_0000123", first.ID)
	assert.Equal(t, time.Date(2024, 2, 10, 13, 45, 12, 300_000_000, time.UTC), first.OriginTime)
	assert.Equal(t, domain.GeoPoint{Lat: 39.02, Lon: -9.01}, first.Location)
	assert.Equal(t, 10.0, first.DepthKm)
	assert.Equal(t, 3.1, first.Magnitude)
	assert.Equal(t, "ML", first.MagnitudeType)
	assert.Equal(t, "PORTUGAL", first.Region)
	assert.Equal(t, "EMSC-RTS", first.Catalog)

	assert.Zero(t, events[1].DepthKm, "empty depth parses as zero")
	assert.Equal(t, time.Date(2024, 2, 10, 13, 46, 0, 0, time.UTC), events[1].OriginTime)
}

func TestParseEvents_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"too few fields", "1|2024-01-01T00:00:00|1|2\n"},
		{"bad time", "1|yesterday|1|2|3|a|b|c|d|ML|2|x|y\n"},
		{"bad latitude", "1|2024-01-01T00:00:00|north|2|3|a|b|c|d|ML|2|x|y\n"},
		{"latitude out of range", "1|2024-01-01T00:00:00|91|2|3|a|b|c|d|ML|2|x|y\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseEvents([]byte(tc.body))
			assert.Error(t, err)
		})
	}
}

func TestParseEvents_OutOfRangeIsInvalidCoordinate(t *testing.T) {
	_, err := parseEvents([]byte("1|2024-01-01T00:00:00|10|200|3|a|b|c|d|ML|2|x|y\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinate)
}

func TestParseStations(t *testing.T) {
	stations, err := parseStations([]byte(stationsText))
	require.NoError(t, err)
	require.Len(t, stations, 3)

	pab := stations[1]
	assert.Equal(t, "IU", pab.Network)
	assert.Equal(t, "PAB", pab.Code)
	assert.Equal(t, "San Pablo, Spain", pab.Name)
	assert.Equal(t, domain.GeoPoint{Lat: 39.5446, Lon: -4.3499}, pab.Location)
	assert.Equal(t, 950.0, pab.ElevationM)
	assert.Equal(t, time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), pab.StartTime)
}

func TestParseStations_CommentsOnly(t *testing.T) {
	stations, err := parseStations([]byte("#Network|Station\n\n"))
	require.NoError(t, err)
	assert.Empty(t, stations)
}

func TestLatestEpochs(t *testing.T) {
	stations, err := parseStations([]byte(stationsText))
	require.NoError(t, err)

	got := latestEpochs(stations)
	require.Len(t, got, 2)
	assert.Equal(t, "IU.PAB", got[0].ID())
	assert.Equal(t, 2010, got[0].StartTime.Year())
	assert.Equal(t, "PM.PESTR", got[1].ID())
}

func TestFormatTime(t *testing.T) {
	loc := time.FixedZone("WET+1", 3600)
	assert.Equal(t, "2024-02-10T12:00:00", formatTime(time.Date(2024, 2, 10, 13, 0, 0, 0, loc)))
}
