package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/iberseis/internal/core/domain"
	"github.com/samirrijal/iberseis/internal/core/traveltime"
	"github.com/samirrijal/iberseis/internal/pkg/geospatial"
)

const upsertStationSQL = `
	INSERT INTO stations (network, code, name, lat, lon, elevation_m, start_time, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	ON CONFLICT (network, code) DO UPDATE
	SET name = EXCLUDED.name, lat = EXCLUDED.lat, lon = EXCLUDED.lon,
	    elevation_m = EXCLUDED.elevation_m, start_time = EXCLUDED.start_time,
	    updated_at = now()
`

const selectStationSQL = `
	SELECT network, code, COALESCE(name, ''), lat, lon, elevation_m,
	       start_time, updated_at
	FROM stations
`

// StationRepo implements ports.StationRepository with pgx.
type StationRepo struct {
	db *DB
}

// NewStationRepo creates a new StationRepo.
func NewStationRepo(db *DB) *StationRepo {
	return &StationRepo{db: db}
}

// Upsert inserts or updates a single station.
func (r *StationRepo) Upsert(ctx context.Context, s *domain.Station) error {
	_, err := r.db.Pool.Exec(ctx, upsertStationSQL, stationArgs(s)...)
	return err
}

// UpsertBatch inserts many stations using pgx.Batch.
func (r *StationRepo) UpsertBatch(ctx context.Context, stations []domain.Station) error {
	if len(stations) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i := range stations {
		batch.Queue(upsertStationSQL, stationArgs(&stations[i])...)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range stations {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByCode returns a station by network and station code.
func (r *StationRepo) GetByCode(ctx context.Context, network, code string) (*domain.Station, error) {
	row := r.db.Pool.QueryRow(ctx, selectStationSQL+` WHERE network = $1 AND code = $2`, network, code)
	s, err := scanStation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("station %s.%s: %w", network, code, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// List returns all stations ordered by network and code.
func (r *StationRepo) List(ctx context.Context) ([]domain.Station, error) {
	rows, err := r.db.Pool.Query(ctx, selectStationSQL+` ORDER BY network, code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStations(rows)
}

// FindNearby returns stations within radiusKm of center, nearest first.
// A bounding-box query narrows candidates; exact great-circle distances decide.
func (r *StationRepo) FindNearby(ctx context.Context, center domain.GeoPoint, radiusKm float64, limit int) ([]domain.Station, error) {
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(center.Lat, center.Lon, radiusKm)

	rows, err := r.db.Pool.Query(ctx, selectStationSQL+`
		WHERE lat BETWEEN $1 AND $2 AND lon BETWEEN $3 AND $4
	`, minLat, maxLat, minLon, maxLon)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates, err := collectStations(rows)
	if err != nil {
		return nil, err
	}
	return rankByDistance(center, candidates, radiusKm, limit), nil
}

// rankByDistance keeps stations within radiusKm of center, sorts them nearest
// first and truncates to limit (limit <= 0 means no limit).
func rankByDistance(center domain.GeoPoint, stations []domain.Station, radiusKm float64, limit int) []domain.Station {
	type ranked struct {
		station domain.Station
		dist    float64
	}

	var in []ranked
	for _, s := range stations {
		d := traveltime.HaversineDistanceKm(center, s.Location)
		if d <= radiusKm {
			in = append(in, ranked{station: s, dist: d})
		}
	}
	sort.SliceStable(in, func(i, j int) bool { return in[i].dist < in[j].dist })

	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}

	out := make([]domain.Station, len(in))
	for i, r := range in {
		d := traveltime.Round2(r.dist)
		out[i] = r.station
		out[i].Distance = &d
	}
	return out
}

func stationArgs(s *domain.Station) []any {
	var start any
	if !s.StartTime.IsZero() {
		start = s.StartTime
	}
	return []any{s.Network, s.Code, s.Name, s.Location.Lat, s.Location.Lon, s.ElevationM, start}
}

func scanStation(row pgx.Row) (*domain.Station, error) {
	var s domain.Station
	var start *time.Time
	if err := row.Scan(
		&s.Network, &s.Code, &s.Name,
		&s.Location.Lat, &s.Location.Lon, &s.ElevationM,
		&start, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if start != nil {
		s.StartTime = start.UTC()
	}
	return &s, nil
}

func collectStations(rows pgx.Rows) ([]domain.Station, error) {
	var stations []domain.Station
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, *s)
	}
	return stations, rows.Err()
}
