package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/samirrijal/locallens/internal/core/domain"
	"github.com/samirrijal/locallens/internal/pkg/geospatial"
)

const schema = `
CREATE TABLE IF NOT EXISTS pois (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	lat REAL NOT NULL,
	lng REAL NOT NULL,
	description TEXT NOT NULL,
	enhanced_description TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_pois_lat_lng ON pois(lat, lng);
`

// POIRepo implements ports.POIRepository on an embedded SQLite file.
type POIRepo struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(path string) (*POIRepo, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &POIRepo{db: db}, nil
}

// Ping checks the database handle.
func (r *POIRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the database handle.
func (r *POIRepo) Close() error {
	return r.db.Close()
}

// Create inserts a POI and fills in its ID and creation time.
func (r *POIRepo) Create(ctx context.Context, p *domain.PointOfInterest) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO pois (lat, lng, description, enhanced_description, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.Lat, p.Lng, p.Description, p.EnhancedDescription, now,
	)
	if err != nil {
		return fmt.Errorf("insert poi: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert poi id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	return nil
}

// List returns all POIs ordered by id.
func (r *POIRepo) List(ctx context.Context) ([]domain.PointOfInterest, error) {
	return r.query(ctx, `SELECT id, lat, lng, description, enhanced_description, created_at FROM pois ORDER BY id`)
}

// FindWithin prefilters on the bounding box and keeps POIs inside the haversine radius.
func (r *POIRepo) FindWithin(ctx context.Context, center domain.Coordinate, radiusMeters float64) ([]domain.PointOfInterest, error) {
	box := geospatial.BoundingBox(center, radiusMeters)
	candidates, err := r.query(ctx, `
		SELECT id, lat, lng, description, enhanced_description, created_at
		FROM pois
		WHERE lat BETWEEN ? AND ? AND lng BETWEEN ? AND ?
		ORDER BY id`,
		box.MinLat, box.MaxLat, box.MinLng, box.MaxLng,
	)
	if err != nil {
		return nil, err
	}

	pois := candidates[:0]
	for _, p := range candidates {
		if geospatial.Within(center, p.Coordinate(), radiusMeters) {
			pois = append(pois, p)
		}
	}
	return pois, nil
}

func (r *POIRepo) query(ctx context.Context, q string, args ...any) ([]domain.PointOfInterest, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pois []domain.PointOfInterest
	for rows.Next() {
		var p domain.PointOfInterest
		if err := rows.Scan(&p.ID, &p.Lat, &p.Lng, &p.Description, &p.EnhancedDescription, &p.CreatedAt); err != nil {
			return nil, err
		}
		pois = append(pois, p)
	}
	return pois, rows.Err()
}
