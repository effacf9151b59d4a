// Package stations persists fuel stations in SQLite or PostgreSQL and serves
// them to the route planner.
package stations

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/patrickmn/go-cache"
	"github.com/rubiojr/fuelroute/internal/fuelroute"
)

const (
	defaultCacheExpirationMinutes = 10
	defaultCacheCleanupMinutes    = 30
	defaultCacheSize              = -1024 * 1024 // negative value for pages
	defaultPageSize               = 4096
	migrationCacheSize            = 1000000000

	postgresMaxOpenConns    = 20
	postgresMaxIdleConns    = 5
	postgresConnMaxLifetime = 30 * time.Minute
	pingTimeout             = 5 * time.Second

	allStationsCacheKey = "all_stations"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

type Storage struct {
	db      *sql.DB
	dialect dialect
	cache   *cache.Cache
	log     *slog.Logger
}

// NewStorage opens the station database named by dsn and creates the schema
// if needed. postgres:// and postgresql:// URLs select PostgreSQL, anything
// else is treated as a SQLite file path.
func NewStorage(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	return openStorage(ctx, dsn, logger, false)
}

// NewStorageMigrate opens the database with settings tuned for bulk schema
// work (no fsync, large page cache on SQLite).
func NewStorageMigrate(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	return openStorage(ctx, dsn, logger, true)
}

func openStorage(ctx context.Context, dsn string, logger *slog.Logger, forMigration bool) (*Storage, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	d := dialectFor(dsn)
	db, err := openDB(ctx, d, dsn, forMigration)
	if err != nil {
		return nil, err
	}

	if err := createTables(ctx, db, d); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}

	c := cache.New(defaultCacheExpirationMinutes*time.Minute, defaultCacheCleanupMinutes*time.Minute)

	return &Storage{
		db:      db,
		dialect: d,
		cache:   c,
		log:     logger,
	}, nil
}

func dialectFor(dsn string) dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return dialectPostgres
	}
	return dialectSQLite
}

func openDB(ctx context.Context, d dialect, dsn string, forMigration bool) (*sql.DB, error) {
	if d == dialectPostgres {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("error opening database: %w", err)
		}
		db.SetMaxOpenConns(postgresMaxOpenConns)
		db.SetMaxIdleConns(postgresMaxIdleConns)
		db.SetConnMaxLifetime(postgresConnMaxLifetime)

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			db.Close()
			return nil, fmt.Errorf("error connecting to database: %w", err)
		}
		return db, nil
	}

	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	cacheSize := defaultCacheSize
	if forMigration {
		cacheSize = migrationCacheSize
	}
	if err := configureSQLitePragmas(ctx, db, forMigration, cacheSize); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func createTables(ctx context.Context, db *sql.DB, d dialect) error {
	var statements []string
	switch d {
	case dialectPostgres:
		statements = []string{
			`CREATE TABLE IF NOT EXISTS fuel_stations (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL,
				address TEXT NOT NULL,
				city TEXT NOT NULL DEFAULT '',
				state TEXT NOT NULL DEFAULT '',
				price DOUBLE PRECISION NOT NULL,
				latitude DOUBLE PRECISION NOT NULL,
				longitude DOUBLE PRECISION NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
		}
	default:
		statements = []string{
			`CREATE TABLE IF NOT EXISTS fuel_stations (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				address TEXT NOT NULL,
				city TEXT NOT NULL DEFAULT '',
				state TEXT NOT NULL DEFAULT '',
				price REAL NOT NULL,
				latitude REAL NOT NULL,
				longitude REAL NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`,
		}
	}
	statements = append(statements,
		`CREATE INDEX IF NOT EXISTS idx_fuel_stations_name_address ON fuel_stations(name, address)`,
		`CREATE INDEX IF NOT EXISTS idx_fuel_stations_latitude_longitude ON fuel_stations(latitude, longitude)`,
	)

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error creating table: %w", err)
		}
	}
	return nil
}

func (s *Storage) Close() error {
	// Clear the cache before closing
	if s.cache != nil {
		s.cache.Flush()
	}
	return s.db.Close()
}

// AddStation inserts station and returns its id. Uniqueness is not enforced;
// use HasStation to skip duplicates.
func (s *Storage) AddStation(ctx context.Context, station fuelroute.Station) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO fuel_stations (name, address, city, state, price, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`), station.Name, station.Address, station.City, station.State, station.Price, station.Lat, station.Lng).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error inserting station: %w", err)
	}

	// Cached station lists are stale now
	s.cache.Flush()

	return id, nil
}

// HasStation reports whether a station with the same name and address exists.
func (s *Storage) HasStation(ctx context.Context, name, address string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM fuel_stations WHERE name = ? AND address = ?"), name, address).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("error checking station existence: %w", err)
	}
	return count > 0, nil
}

func (s *Storage) CountStations(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fuel_stations").Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting stations: %w", err)
	}
	return count, nil
}

// AllStations returns every station ordered by insertion. The list is cached
// until the next AddStation.
func (s *Storage) AllStations(ctx context.Context) ([]fuelroute.Station, error) {
	if cachedData, found := s.cache.Get(allStationsCacheKey); found {
		s.log.Debug("Using cached data", "key", allStationsCacheKey)
		return slices.Clone(cachedData.([]fuelroute.Station)), nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, address, city, state, price, latitude, longitude
		FROM fuel_stations
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("error querying stations: %w", err)
	}
	defer rows.Close()

	var stations []fuelroute.Station
	for rows.Next() {
		var st fuelroute.Station
		if err := rows.Scan(&st.ID, &st.Name, &st.Address, &st.City, &st.State, &st.Price, &st.Lat, &st.Lng); err != nil {
			return nil, fmt.Errorf("error scanning station: %w", err)
		}
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	s.cache.Set(allStationsCacheKey, stations, cache.DefaultExpiration)

	return slices.Clone(stations), nil
}

// NearbyStations returns the stations within radius miles of point, cheapest first.
func (s *Storage) NearbyStations(ctx context.Context, point fuelroute.Coordinate, radius float64) ([]fuelroute.StationDistance, error) {
	cacheKey := fmt.Sprintf("nearby_stations_%f_%f_%f", point.Lat, point.Lng, radius)
	if cachedData, found := s.cache.Get(cacheKey); found {
		s.log.Debug("Using cached data", "key", cacheKey)
		return cachedData.([]fuelroute.StationDistance), nil
	}
	s.log.Debug("Filtering stations, cached data not found", "key", cacheKey)

	stations, err := s.AllStations(ctx)
	if err != nil {
		return nil, err
	}

	nearby := fuelroute.StationsWithin(point, stations, radius)
	s.cache.Set(cacheKey, nearby, cache.DefaultExpiration)

	return nearby, nil
}

// rebind rewrites ? placeholders into the $n form PostgreSQL expects.
func (s *Storage) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func configureSQLitePragmas(ctx context.Context, db *sql.DB, forMigration bool, cacheSize int) error {
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 10000;"); err != nil {
		return fmt.Errorf("error setting busy timeout: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("error setting journal mode: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA auto_vacuum = INCREMENTAL;"); err != nil {
		return fmt.Errorf("error setting auto vacuum: %w", err)
	}

	tempStore := "FILE"
	syncMode := "NORMAL"
	if forMigration {
		tempStore = "MEMORY"
		syncMode = "OFF"
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA temp_store = %s;", tempStore)); err != nil {
		return fmt.Errorf("error setting temp store: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA synchronous = %s;", syncMode)); err != nil {
		return fmt.Errorf("error setting synchronous: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA cache_size = %d;", cacheSize)); err != nil {
		return fmt.Errorf("error setting cache size: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA page_size = %d;", defaultPageSize)); err != nil {
		return fmt.Errorf("error setting page size: %w", err)
	}
	return nil
}
